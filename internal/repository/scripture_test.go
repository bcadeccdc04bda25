package repository

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deppfellow/biblia/internal/database"
	"github.com/deppfellow/biblia/internal/model"
)

func intPtr(v int) *int { return &v }

func newTestRepo(p *fakeProvider) *ScriptureRepository {
	return NewScriptureRepository(p, nil, 0)
}

func assertReleased(t *testing.T, p *fakeProvider) {
	t.Helper()
	assert.Equal(t, p.acquired, p.released, "every acquired connection must be released")
}

var genesis = model.Book{ID: 1, TestamentID: 1, Position: 1, Name: "Gênesis"}

func TestChapterCount(t *testing.T) {
	p := newFakeProvider(result{rows: [][]any{{50}}})
	repo := newTestRepo(p)

	got, err := repo.ChapterCount(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 50, got)

	require.Len(t, p.conn.calls, 1)
	assert.Equal(t, chapterCountSQL, p.conn.calls[0].sql)
	assert.Equal(t, []any{1}, p.conn.calls[0].args)
	assertReleased(t, p)
}

func TestChapterCount_EmptyBookIsZero(t *testing.T) {
	// COALESCE turns the NULL aggregate into 0 on the server.
	p := newFakeProvider(result{rows: [][]any{{0}}})
	repo := newTestRepo(p)

	got, err := repo.ChapterCount(context.Background(), 999)
	require.NoError(t, err)
	assert.Zero(t, got)
	assert.Contains(t, p.conn.calls[0].sql, "COALESCE(MAX(capitulo), 0)")
}

func TestVerseCountInChapter(t *testing.T) {
	p := newFakeProvider(result{rows: [][]any{{31}}})
	repo := newTestRepo(p)

	got, err := repo.VerseCountInChapter(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 31, got)
	assert.Equal(t, []any{1, 1}, p.conn.calls[0].args)
	assertReleased(t, p)
}

func TestListBooks(t *testing.T) {
	rows := [][]any{
		{1, 1, 1, "Gênesis"},
		{40, 2, 40, "Mateus"},
	}

	t.Run("unfiltered", func(t *testing.T) {
		p := newFakeProvider(result{rows: rows})
		repo := newTestRepo(p)

		books, err := repo.ListBooks(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, []model.Book{genesis, {ID: 40, TestamentID: 2, Position: 40, Name: "Mateus"}}, books)

		sql := p.conn.calls[0].sql
		assert.NotContains(t, sql, "WHERE")
		assert.Contains(t, sql, "ORDER BY posicao, id")
		assert.Empty(t, p.conn.calls[0].args)
		assertReleased(t, p)
	})

	t.Run("by testament", func(t *testing.T) {
		p := newFakeProvider(result{rows: rows[1:]})
		repo := newTestRepo(p)

		books, err := repo.ListBooks(context.Background(), intPtr(2))
		require.NoError(t, err)
		require.Len(t, books, 1)

		sql := p.conn.calls[0].sql
		assert.Contains(t, sql, "WHERE testamentoId = $1")
		assert.Equal(t, []any{2}, p.conn.calls[0].args)
	})

	t.Run("empty result is an empty slice", func(t *testing.T) {
		p := newFakeProvider(result{})
		repo := newTestRepo(p)

		books, err := repo.ListBooks(context.Background(), intPtr(3))
		require.NoError(t, err)
		assert.NotNil(t, books)
		assert.Empty(t, books)
	})
}

func TestListBookSummaries_PredicateOrder(t *testing.T) {
	tests := []struct {
		name      string
		testament *int
		book      *int
		wantConds []string
		wantArgs  []any
	}{
		{
			name:      "translation only",
			wantConds: []string{"v.versaoId = $1"},
			wantArgs:  []any{1},
		},
		{
			name:      "testament",
			testament: intPtr(2),
			wantConds: []string{"v.versaoId = $1", "t.id = $2"},
			wantArgs:  []any{1, 2},
		},
		{
			name:      "book",
			book:      intPtr(40),
			wantConds: []string{"v.versaoId = $1", "l.id = $2"},
			wantArgs:  []any{1, 40},
		},
		{
			name:      "testament before book",
			testament: intPtr(2),
			book:      intPtr(40),
			wantConds: []string{"v.versaoId = $1", "t.id = $2", "l.id = $3"},
			wantArgs:  []any{1, 2, 40},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newFakeProvider(result{rows: [][]any{{2, "Novo Testamento", 40, "Mateus", 40, 28, 1071}}})
			repo := newTestRepo(p)

			got, err := repo.ListBookSummaries(context.Background(), 1, tt.testament, tt.book)
			require.NoError(t, err)
			assert.Equal(t, []model.BookSummary{{
				TestamentID:   2,
				TestamentName: "Novo Testamento",
				BookID:        40,
				BookName:      "Mateus",
				Position:      40,
				ChapterCount:  28,
				VerseCount:    1071,
			}}, got)

			c := p.conn.calls[0]
			if diff := cmp.Diff(tt.wantArgs, c.args); diff != "" {
				t.Errorf("args mismatch (-want +got):\n%s", diff)
			}

			last := -1
			for _, cond := range tt.wantConds {
				idx := strings.Index(c.sql, cond)
				require.GreaterOrEqual(t, idx, 0, "missing %q", cond)
				assert.Greater(t, idx, last, "%q out of order", cond)
				last = idx
			}
			assert.Greater(t, strings.Index(c.sql, "GROUP BY"), last, "filters must precede GROUP BY")
			assert.Contains(t, c.sql, "COUNT(DISTINCT v.capitulo)")
		})
	}
}

func TestListTranslations(t *testing.T) {
	p := newFakeProvider(result{rows: [][]any{{1, "Almeida Corrigida Fiel"}, {2, "Nova Versão Internacional"}}})
	repo := newTestRepo(p)

	got, err := repo.ListTranslations(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []model.Translation{
		{ID: 1, Name: "Almeida Corrigida Fiel"},
		{ID: 2, Name: "Nova Versão Internacional"},
	}, got)
	assert.Contains(t, p.conn.calls[0].sql, "ORDER BY id")
	assertReleased(t, p)
}

func TestGetVerse(t *testing.T) {
	text := "No princípio criou Deus os céus e a terra."

	t.Run("verse with book attached", func(t *testing.T) {
		p := newFakeProvider(
			result{rows: [][]any{{7, 1, 1, 1, 1, text}}},
			result{rows: [][]any{{1, 1, 1, "Gênesis"}}},
		)
		repo := newTestRepo(p)

		v, err := repo.GetVerse(context.Background(), 1, 1, 1, 1)
		require.NoError(t, err)
		require.NotNil(t, v.Book)
		assert.Equal(t, text, v.Text)
		assert.Equal(t, v.BookID, v.Book.ID)
		assert.Equal(t, genesis, *v.Book)

		// One round trip, verses first and book second.
		assert.Equal(t, 1, p.conn.batches)
		require.Len(t, p.conn.calls, 2)
		assert.Equal(t, getVerseSQL, p.conn.calls[0].sql)
		assert.Equal(t, []any{1, 1, 1, 1}, p.conn.calls[0].args)
		assert.Equal(t, getBookSQL, p.conn.calls[1].sql)
		assert.Equal(t, []any{1}, p.conn.calls[1].args)
		assert.Equal(t, 2, p.conn.batch.read)
		assert.GreaterOrEqual(t, p.conn.batch.closed, 1)
		assertReleased(t, p)
	})

	t.Run("no verse", func(t *testing.T) {
		p := newFakeProvider(result{}, result{rows: [][]any{{1, 1, 1, "Gênesis"}}})
		repo := newTestRepo(p)

		v, err := repo.GetVerse(context.Background(), 1, 1, 1, 999)
		assert.Nil(t, v)
		require.ErrorIs(t, err, ErrGetVerse)
		require.ErrorIs(t, err, ErrVerseNotFound)
		assertReleased(t, p)
	})

	t.Run("missing book is an integrity fault", func(t *testing.T) {
		p := newFakeProvider(result{rows: [][]any{{7, 1, 1, 1, 1, text}}}, result{})
		repo := newTestRepo(p)

		_, err := repo.GetVerse(context.Background(), 1, 1, 1, 1)
		require.ErrorIs(t, err, ErrGetVerse)
		require.ErrorIs(t, err, ErrBookIntegrity)
		assertReleased(t, p)
	})

	t.Run("duplicate book is an integrity fault", func(t *testing.T) {
		p := newFakeProvider(
			result{rows: [][]any{{7, 1, 1, 1, 1, text}}},
			result{rows: [][]any{{1, 1, 1, "Gênesis"}, {1, 1, 1, "Gênesis"}}},
		)
		repo := newTestRepo(p)

		_, err := repo.GetVerse(context.Background(), 1, 1, 1, 1)
		require.ErrorIs(t, err, ErrBookIntegrity)
		assert.Contains(t, err.Error(), "matched 2 rows")
	})
}

func TestGetVerses(t *testing.T) {
	t.Run("set membership", func(t *testing.T) {
		p := newFakeProvider(
			result{rows: [][]any{
				{1, 1, 1, 1, 1, "v1"},
				{3, 1, 1, 1, 3, "v3"},
				{5, 1, 1, 1, 5, "v5"},
			}},
			result{rows: [][]any{{1, 1, 1, "Gênesis"}}},
		)
		repo := newTestRepo(p)

		verses, err := repo.GetVerses(context.Background(), 1, 1, 1, []int{1, 3, 5})
		require.NoError(t, err)

		var numbers []int
		for _, v := range verses {
			numbers = append(numbers, v.Number)
			require.NotNil(t, v.Book)
			assert.Equal(t, 1, v.Book.ID)
		}
		assert.Equal(t, []int{1, 3, 5}, numbers)

		c := p.conn.calls[0]
		assert.Contains(t, c.sql, "numero = ANY($4)")
		assert.Equal(t, []any{1, 1, 1, []int{1, 3, 5}}, c.args)
		assertReleased(t, p)
	})

	t.Run("empty set short-circuits", func(t *testing.T) {
		p := newFakeProvider()
		repo := newTestRepo(p)

		verses, err := repo.GetVerses(context.Background(), 1, 1, 1, nil)
		require.NoError(t, err)
		assert.NotNil(t, verses)
		assert.Empty(t, verses)
		assert.Zero(t, p.acquired, "no connection for an empty set")
		assert.Empty(t, p.conn.calls)
	})

	t.Run("no match is empty, not an error", func(t *testing.T) {
		p := newFakeProvider(result{}, result{rows: [][]any{{1, 1, 1, "Gênesis"}}})
		repo := newTestRepo(p)

		verses, err := repo.GetVerses(context.Background(), 1, 1, 1, []int{200})
		require.NoError(t, err)
		assert.Empty(t, verses)
	})
}

func TestVerseCountAggregate(t *testing.T) {
	t.Run("match", func(t *testing.T) {
		p := newFakeProvider(result{rows: [][]any{{31, 1, 1, 1}}})
		repo := newTestRepo(p)

		got, err := repo.VerseCountAggregate(context.Background(), 1, 1, 1)
		require.NoError(t, err)
		assert.Equal(t, model.ChapterVerseCount{VerseCount: 31, TranslationID: 1, BookID: 1, Chapter: 1}, got)
	})

	t.Run("no match is the zero record", func(t *testing.T) {
		p := newFakeProvider(result{})
		repo := newTestRepo(p)

		got, err := repo.VerseCountAggregate(context.Background(), 1, 1, 999)
		require.NoError(t, err)
		assert.Equal(t, model.ChapterVerseCount{}, got)
		assertReleased(t, p)
	})
}

func TestPromiseBox(t *testing.T) {
	t.Run("max id", func(t *testing.T) {
		p := newFakeProvider(result{rows: [][]any{{0}}})
		repo := newTestRepo(p)

		got, err := repo.PromiseBoxMaxID(context.Background())
		require.NoError(t, err)
		assert.Zero(t, got)
	})

	t.Run("entries", func(t *testing.T) {
		p := newFakeProvider(result{rows: [][]any{{12, 19, 23, 1}}})
		repo := newTestRepo(p)

		got, err := repo.PromiseBoxEntries(context.Background(), 12)
		require.NoError(t, err)
		assert.Equal(t, []model.PromiseBoxEntry{{ID: 12, BookID: 19, ChapterID: 23, VerseNumber: 1}}, got)
		assert.Equal(t, []any{12}, p.conn.calls[0].args)
	})

	t.Run("unknown id is empty", func(t *testing.T) {
		p := newFakeProvider(result{})
		repo := newTestRepo(p)

		got, err := repo.PromiseBoxEntries(context.Background(), 404)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestGetBook(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		p := newFakeProvider(result{rows: [][]any{{1, 1, 1, "Gênesis"}}})
		repo := newTestRepo(p)

		got, err := repo.GetBook(context.Background(), 1)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, genesis, *got)
	})

	t.Run("absent is nil", func(t *testing.T) {
		p := newFakeProvider(result{})
		repo := newTestRepo(p)

		got, err := repo.GetBook(context.Background(), 404)
		require.NoError(t, err)
		assert.Nil(t, got)
		assertReleased(t, p)
	})
}

func TestErrorKinds(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "42P01", Message: `relation "livros" does not exist`}
	ctx := context.Background()

	tests := []struct {
		name string
		kind error
		call func(r *ScriptureRepository) error
	}{
		{"ChapterCount", ErrChapterCount, func(r *ScriptureRepository) error { _, err := r.ChapterCount(ctx, 1); return err }},
		{"VerseCountInChapter", ErrVerseCount, func(r *ScriptureRepository) error { _, err := r.VerseCountInChapter(ctx, 1, 1); return err }},
		{"ListBooks", ErrListBooks, func(r *ScriptureRepository) error { _, err := r.ListBooks(ctx, nil); return err }},
		{"ListBookSummaries", ErrListSummaries, func(r *ScriptureRepository) error { _, err := r.ListBookSummaries(ctx, 1, nil, nil); return err }},
		{"ListTranslations", ErrListTranslations, func(r *ScriptureRepository) error { _, err := r.ListTranslations(ctx); return err }},
		{"GetVerse", ErrGetVerse, func(r *ScriptureRepository) error { _, err := r.GetVerse(ctx, 1, 1, 1, 1); return err }},
		{"VerseCountAggregate", ErrVerseCountAggregate, func(r *ScriptureRepository) error { _, err := r.VerseCountAggregate(ctx, 1, 1, 1); return err }},
		{"PromiseBoxMaxID", ErrPromiseBoxCount, func(r *ScriptureRepository) error { _, err := r.PromiseBoxMaxID(ctx); return err }},
		{"PromiseBoxEntries", ErrPromiseBoxEntries, func(r *ScriptureRepository) error { _, err := r.PromiseBoxEntries(ctx, 1); return err }},
		{"GetVerses", ErrGetVerses, func(r *ScriptureRepository) error { _, err := r.GetVerses(ctx, 1, 1, 1, []int{1}); return err }},
		{"GetBook", ErrGetBook, func(r *ScriptureRepository) error { _, err := r.GetBook(ctx, 1); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name+"/query failure", func(t *testing.T) {
			p := newFakeProvider(result{err: pgErr}, result{err: pgErr})
			err := tt.call(newTestRepo(p))

			require.ErrorIs(t, err, tt.kind)
			var got *pgconn.PgError
			require.ErrorAs(t, err, &got)
			assert.Equal(t, "42P01", got.Code)
			assert.Contains(t, err.Error(), `relation "livros" does not exist`)
			assertReleased(t, p)

			for _, other := range tests {
				if other.kind != tt.kind {
					assert.NotErrorIs(t, err, other.kind)
				}
			}
		})

		t.Run(tt.name+"/acquire failure", func(t *testing.T) {
			p := newFakeProvider()
			p.acquireErr = errors.New("pool closed")

			err := tt.call(newTestRepo(p))
			require.ErrorIs(t, err, tt.kind)
			assert.Contains(t, err.Error(), "pool closed")
			assert.Zero(t, p.released)
		})
	}
}

func TestIterationErrorIsWrapped(t *testing.T) {
	iterErr := errors.New("conn reset mid-stream")
	p := newFakeProvider(result{rows: [][]any{{1, "ACF"}}, iterErr: iterErr})
	repo := newTestRepo(p)

	got, err := repo.ListTranslations(context.Background())
	assert.Nil(t, got)
	require.ErrorIs(t, err, ErrListTranslations)
	require.ErrorIs(t, err, iterErr)
	assertReleased(t, p)
}

func TestConcurrentCallsUseTheirOwnConnection(t *testing.T) {
	repo := NewScriptureRepository(&perCallProvider{}, nil, 0)

	errs := make(chan error, 16)
	for i := 0; i < cap(errs); i++ {
		go func() {
			_, err := repo.ChapterCount(context.Background(), 1)
			errs <- err
		}()
	}
	for i := 0; i < cap(errs); i++ {
		require.NoError(t, <-errs)
	}
}

// perCallProvider builds a fresh fake connection for every Acquire.
type perCallProvider struct{}

func (perCallProvider) Acquire(context.Context) (database.Conn, func(), error) {
	return &fakeConn{results: []result{{rows: [][]any{{3}}}}}, func() {}, nil
}
