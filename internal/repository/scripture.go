package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/deppfellow/biblia/internal/database"
	"github.com/deppfellow/biblia/internal/model"
)

const (
	chapterCountSQL = `SELECT COALESCE(MAX(capitulo), 0)
FROM Versiculos
WHERE livroId = $1`

	verseCountSQL = `SELECT COALESCE(MAX(numero), 0)
FROM Versiculos
WHERE livroId = $1
  AND capitulo = $2`

	listBooksSQL = `SELECT id, testamentoId, posicao, nome
FROM Livros`

	listBooksOrderSQL = `ORDER BY posicao, id`

	listSummariesSQL = `SELECT t.id, t.nome, l.id, l.nome, l.posicao,
       COUNT(DISTINCT v.capitulo), COUNT(v.id)
FROM Versiculos v
INNER JOIN Livros l ON v.livroId = l.id
INNER JOIN Testamentos t ON l.testamentoId = t.id`

	listSummariesGroupSQL = `GROUP BY t.id, t.nome, l.id, l.nome, l.posicao
ORDER BY t.id, l.posicao, l.id`

	listTranslationsSQL = `SELECT id, nome
FROM Versoes
ORDER BY id`

	getVerseSQL = `SELECT id, versaoId, livroId, capitulo, numero, texto
FROM Versiculos
WHERE versaoId = $1
  AND livroId = $2
  AND capitulo = $3
  AND numero = $4`

	getVersesSQL = `SELECT id, versaoId, livroId, capitulo, numero, texto
FROM Versiculos
WHERE versaoId = $1
  AND livroId = $2
  AND capitulo = $3
  AND numero = ANY($4)
ORDER BY numero`

	getBookSQL = `SELECT id, testamentoId, posicao, nome
FROM Livros
WHERE id = $1`

	verseCountAggregateSQL = `SELECT COUNT(v.id), v.versaoId, v.livroId, v.capitulo
FROM Versiculos v
WHERE v.versaoId = $1
  AND v.livroId = $2
  AND v.capitulo = $3
GROUP BY v.versaoId, v.livroId, v.capitulo`

	promiseBoxMaxIDSQL = `SELECT COALESCE(MAX(id), 0)
FROM CaixaPromessas`

	promiseBoxEntriesSQL = `SELECT id, livroId, capituloId, numeroVersiculo
FROM CaixaPromessas
WHERE id = $1
ORDER BY livroId, capituloId, numeroVersiculo`
)

// ScriptureRepository runs the read queries over the scripture corpus.
//
// It holds no per-call state and is safe for concurrent use. Each method
// takes its own connection from the provider and gives it back before
// returning, whether the call succeeds or not.
type ScriptureRepository struct {
	db        database.Provider
	logger    *zerolog.Logger
	slowQuery time.Duration
}

// NewScriptureRepository creates a repository over db. Calls slower than
// slowQuery are logged as warnings; zero disables the warning.
func NewScriptureRepository(db database.Provider, logger *zerolog.Logger, slowQuery time.Duration) *ScriptureRepository {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &ScriptureRepository{
		db:        db,
		logger:    logger,
		slowQuery: slowQuery,
	}
}

// run executes fn on a connection scoped to this call and wraps any failure
// in kind. The connection is released before run returns.
func run[T any](ctx context.Context, r *ScriptureRepository, kind error, fn func(conn database.Conn) (T, error)) (T, error) {
	start := time.Now()

	result, err := func() (T, error) {
		conn, release, err := r.db.Acquire(ctx)
		if err != nil {
			var zero T
			return zero, err
		}
		defer release()

		return fn(conn)
	}()

	r.observe(kind, time.Since(start), err)

	if err != nil {
		var zero T
		return zero, fmt.Errorf("%w: %w", kind, err)
	}
	return result, nil
}

func (r *ScriptureRepository) observe(kind error, elapsed time.Duration, err error) {
	if r.slowQuery > 0 && elapsed > r.slowQuery {
		r.logger.Warn().
			Str("operation", kind.Error()).
			Dur("duration", elapsed).
			Dur("threshold", r.slowQuery).
			Msg("slow query")
	}

	event := r.logger.Debug()
	if err != nil {
		event = event.Err(err)
	}
	event.
		Str("operation", kind.Error()).
		Dur("duration", elapsed).
		Msg("query finished")
}

// ChapterCount returns the highest chapter number of a book, 0 when the
// book has no verses.
func (r *ScriptureRepository) ChapterCount(ctx context.Context, bookID int) (int, error) {
	return run(ctx, r, ErrChapterCount, func(conn database.Conn) (int, error) {
		var count int
		err := conn.QueryRow(ctx, chapterCountSQL, bookID).Scan(&count)
		return count, err
	})
}

// VerseCountInChapter returns the highest verse number in a chapter, 0 when
// the chapter is empty.
func (r *ScriptureRepository) VerseCountInChapter(ctx context.Context, bookID, chapter int) (int, error) {
	return run(ctx, r, ErrVerseCount, func(conn database.Conn) (int, error) {
		var count int
		err := conn.QueryRow(ctx, verseCountSQL, bookID, chapter).Scan(&count)
		return count, err
	})
}

// ListBooks returns the books in canonical order, only those of testamentID
// when it is not nil.
func (r *ScriptureRepository) ListBooks(ctx context.Context, testamentID *int) ([]model.Book, error) {
	var p predicates
	p.eqOpt("testamentoId", testamentID)
	sql := p.build(listBooksSQL, listBooksOrderSQL)

	return run(ctx, r, ErrListBooks, func(conn database.Conn) ([]model.Book, error) {
		rows, err := conn.Query(ctx, sql, p.args...)
		if err != nil {
			return nil, err
		}
		return pgx.CollectRows(rows, scanBook)
	})
}

// ListBookSummaries returns chapter and verse counts per (testament, book)
// for a translation. testamentID and bookID narrow the result when set,
// applied in that order.
func (r *ScriptureRepository) ListBookSummaries(ctx context.Context, translationID int, testamentID, bookID *int) ([]model.BookSummary, error) {
	var p predicates
	p.eq("v.versaoId", translationID)
	p.eqOpt("t.id", testamentID)
	p.eqOpt("l.id", bookID)
	sql := p.build(listSummariesSQL, listSummariesGroupSQL)

	return run(ctx, r, ErrListSummaries, func(conn database.Conn) ([]model.BookSummary, error) {
		rows, err := conn.Query(ctx, sql, p.args...)
		if err != nil {
			return nil, err
		}
		return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.BookSummary, error) {
			var s model.BookSummary
			err := row.Scan(&s.TestamentID, &s.TestamentName, &s.BookID, &s.BookName, &s.Position, &s.ChapterCount, &s.VerseCount)
			return s, err
		})
	})
}

// ListTranslations returns every translation ordered by id.
func (r *ScriptureRepository) ListTranslations(ctx context.Context) ([]model.Translation, error) {
	return run(ctx, r, ErrListTranslations, func(conn database.Conn) ([]model.Translation, error) {
		rows, err := conn.Query(ctx, listTranslationsSQL)
		if err != nil {
			return nil, err
		}
		return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Translation, error) {
			var t model.Translation
			err := row.Scan(&t.ID, &t.Name)
			return t, err
		})
	})
}

// GetVerse returns exactly one verse with its book attached.
//
// The verse and the book are fetched in one round trip. No matching verse
// fails with ErrVerseNotFound; a book lookup that does not return exactly
// one row fails with ErrBookIntegrity.
func (r *ScriptureRepository) GetVerse(ctx context.Context, translationID, bookID, chapter, number int) (*model.Verse, error) {
	return run(ctx, r, ErrGetVerse, func(conn database.Conn) (*model.Verse, error) {
		verses, err := versesWithBook(ctx, conn, bookID, getVerseSQL, translationID, bookID, chapter, number)
		if err != nil {
			return nil, err
		}
		if len(verses) == 0 {
			return nil, ErrVerseNotFound
		}
		return &verses[0], nil
	})
}

// GetVerses returns the verses of a chapter whose number is in numbers,
// ordered by number, each with its book attached.
//
// An empty numbers set yields an empty result without touching the store.
func (r *ScriptureRepository) GetVerses(ctx context.Context, translationID, bookID, chapter int, numbers []int) ([]model.Verse, error) {
	if len(numbers) == 0 {
		return []model.Verse{}, nil
	}

	return run(ctx, r, ErrGetVerses, func(conn database.Conn) ([]model.Verse, error) {
		return versesWithBook(ctx, conn, bookID, getVersesSQL, translationID, bookID, chapter, numbers)
	})
}

// versesWithBook queues the verse statement and the book lookup in one
// batch and reads the two result sets in order: verses, then book.
func versesWithBook(ctx context.Context, conn database.Conn, bookID int, verseSQL string, verseArgs ...any) ([]model.Verse, error) {
	batch := &pgx.Batch{}
	batch.Queue(verseSQL, verseArgs...)
	batch.Queue(getBookSQL, bookID)

	br := conn.SendBatch(ctx, batch)
	defer br.Close()

	rows, err := br.Query()
	if err != nil {
		return nil, err
	}
	verses, err := pgx.CollectRows(rows, scanVerse)
	if err != nil {
		return nil, err
	}

	rows, err = br.Query()
	if err != nil {
		return nil, err
	}
	books, err := pgx.CollectRows(rows, scanBook)
	if err != nil {
		return nil, err
	}

	if err := br.Close(); err != nil {
		return nil, err
	}

	if len(verses) == 0 {
		return verses, nil
	}
	if len(books) != 1 {
		return nil, fmt.Errorf("%w: book %d matched %d rows", ErrBookIntegrity, bookID, len(books))
	}

	book := books[0]
	for i := range verses {
		verses[i].Book = &book
	}
	return verses, nil
}

// VerseCountAggregate counts the verses of one chapter in a translation.
// When nothing matches it returns the zero ChapterVerseCount.
func (r *ScriptureRepository) VerseCountAggregate(ctx context.Context, translationID, bookID, chapter int) (model.ChapterVerseCount, error) {
	return run(ctx, r, ErrVerseCountAggregate, func(conn database.Conn) (model.ChapterVerseCount, error) {
		var c model.ChapterVerseCount
		err := conn.QueryRow(ctx, verseCountAggregateSQL, translationID, bookID, chapter).
			Scan(&c.VerseCount, &c.TranslationID, &c.BookID, &c.Chapter)
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ChapterVerseCount{}, nil
		}
		return c, err
	})
}

// PromiseBoxMaxID returns the highest promise-box id, 0 when the table is empty.
func (r *ScriptureRepository) PromiseBoxMaxID(ctx context.Context) (int, error) {
	return run(ctx, r, ErrPromiseBoxCount, func(conn database.Conn) (int, error) {
		var id int
		err := conn.QueryRow(ctx, promiseBoxMaxIDSQL).Scan(&id)
		return id, err
	})
}

// PromiseBoxEntries returns the entries stored under promiseBoxID. An
// unknown id yields an empty result.
func (r *ScriptureRepository) PromiseBoxEntries(ctx context.Context, promiseBoxID int) ([]model.PromiseBoxEntry, error) {
	return run(ctx, r, ErrPromiseBoxEntries, func(conn database.Conn) ([]model.PromiseBoxEntry, error) {
		rows, err := conn.Query(ctx, promiseBoxEntriesSQL, promiseBoxID)
		if err != nil {
			return nil, err
		}
		return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.PromiseBoxEntry, error) {
			var e model.PromiseBoxEntry
			err := row.Scan(&e.ID, &e.BookID, &e.ChapterID, &e.VerseNumber)
			return e, err
		})
	})
}

// GetBook returns a book by id, or nil when there is none.
func (r *ScriptureRepository) GetBook(ctx context.Context, bookID int) (*model.Book, error) {
	return run(ctx, r, ErrGetBook, func(conn database.Conn) (*model.Book, error) {
		var book model.Book
		err := conn.QueryRow(ctx, getBookSQL, bookID).Scan(bookFields(&book)...)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return &book, nil
	})
}

func bookFields(b *model.Book) []any {
	return []any{&b.ID, &b.TestamentID, &b.Position, &b.Name}
}

func scanBook(row pgx.CollectableRow) (model.Book, error) {
	var b model.Book
	err := row.Scan(bookFields(&b)...)
	return b, err
}

func scanVerse(row pgx.CollectableRow) (model.Verse, error) {
	var v model.Verse
	err := row.Scan(&v.ID, &v.TranslationID, &v.BookID, &v.Chapter, &v.Number, &v.Text)
	return v, err
}
