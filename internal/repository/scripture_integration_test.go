package repository

import (
	"context"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deppfellow/biblia/internal/database"
	"github.com/deppfellow/biblia/internal/model"
)

// newIntegrationRepo migrates a throwaway schema on the database named by
// BIBLIA_TEST_DATABASE_URL and loads a small corpus into it.
func newIntegrationRepo(t *testing.T) (*ScriptureRepository, *pgxpool.Pool) {
	t.Helper()

	baseURL := os.Getenv("BIBLIA_TEST_DATABASE_URL")
	if baseURL == "" {
		t.Skip("BIBLIA_TEST_DATABASE_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	schema := "biblia_test_" + uuid.NewString()[:8]

	admin, err := pgx.Connect(ctx, baseURL)
	require.NoError(t, err)
	_, err = admin.Exec(ctx, "CREATE SCHEMA "+pgx.Identifier{schema}.Sanitize())
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx := context.Background()
		_, _ = admin.Exec(ctx, "DROP SCHEMA "+pgx.Identifier{schema}.Sanitize()+" CASCADE")
		_ = admin.Close(ctx)
	})

	u, err := url.Parse(baseURL)
	require.NoError(t, err)
	q := u.Query()
	q.Set("search_path", schema)
	u.RawQuery = q.Encode()
	dsn := u.String()

	logger := zerolog.Nop()
	require.NoError(t, database.MigrateDSN(ctx, &logger, dsn, database.LatestVersion))

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	seed := []string{
		`INSERT INTO Versoes (id, nome) VALUES (1, 'ACF'), (2, 'NVI')`,
		`INSERT INTO Testamentos (id, nome) VALUES (1, 'Antigo Testamento'), (2, 'Novo Testamento')`,
		`INSERT INTO Livros (id, testamentoId, posicao, nome) VALUES
			(1, 1, 1, 'Gênesis'),
			(2, 1, 2, 'Êxodo'),
			(40, 2, 40, 'Mateus')`,
		`INSERT INTO Versiculos (versaoId, livroId, capitulo, numero, texto) VALUES
			(1, 1, 1, 1, 'No princípio criou Deus os céus e a terra.'),
			(1, 1, 1, 2, 'E a terra era sem forma e vazia.'),
			(1, 1, 1, 3, 'E disse Deus: Haja luz; e houve luz.'),
			(1, 1, 2, 1, 'Assim os céus, e a terra e todo o seu exército foram acabados.'),
			(1, 40, 1, 1, 'Livro da geração de Jesus Cristo.'),
			(2, 1, 1, 1, 'No princípio Deus criou os céus e a terra.')`,
		`INSERT INTO CaixaPromessas (id, livroId, capituloId, numeroVersiculo) VALUES
			(1, 1, 1, 3),
			(2, 40, 1, 1)`,
	}
	for _, stmt := range seed {
		_, err := pool.Exec(ctx, stmt)
		require.NoError(t, err)
	}

	return NewScriptureRepository(&database.Database{Pool: pool}, nil, 0), pool
}

func TestScriptureRepository_Integration(t *testing.T) {
	repo, pool := newIntegrationRepo(t)
	ctx := context.Background()

	t.Run("chapter and verse counts", func(t *testing.T) {
		chapters, err := repo.ChapterCount(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, 2, chapters)

		chapters, err = repo.ChapterCount(ctx, 2)
		require.NoError(t, err)
		assert.Zero(t, chapters, "a book without verses has no chapters")

		verses, err := repo.VerseCountInChapter(ctx, 1, 1)
		require.NoError(t, err)
		assert.Equal(t, 3, verses)

		verses, err = repo.VerseCountInChapter(ctx, 1, 50)
		require.NoError(t, err)
		assert.Zero(t, verses)
	})

	t.Run("books", func(t *testing.T) {
		all, err := repo.ListBooks(ctx, nil)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "Gênesis", all[0].Name)

		ot, err := repo.ListBooks(ctx, intPtr(1))
		require.NoError(t, err)
		for _, b := range ot {
			assert.Equal(t, 1, b.TestamentID)
		}
		assert.Len(t, ot, 2)

		none, err := repo.ListBooks(ctx, intPtr(9))
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("summaries", func(t *testing.T) {
		all, err := repo.ListBookSummaries(ctx, 1, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, []model.BookSummary{
			{TestamentID: 1, TestamentName: "Antigo Testamento", BookID: 1, BookName: "Gênesis", Position: 1, ChapterCount: 2, VerseCount: 4},
			{TestamentID: 2, TestamentName: "Novo Testamento", BookID: 40, BookName: "Mateus", Position: 40, ChapterCount: 1, VerseCount: 1},
		}, all)

		nt, err := repo.ListBookSummaries(ctx, 1, intPtr(2), nil)
		require.NoError(t, err)
		require.Len(t, nt, 1)
		assert.Equal(t, 40, nt[0].BookID)

		mismatch, err := repo.ListBookSummaries(ctx, 1, intPtr(2), intPtr(1))
		require.NoError(t, err)
		assert.Empty(t, mismatch, "book outside the testament matches nothing")
	})

	t.Run("translations", func(t *testing.T) {
		got, err := repo.ListTranslations(ctx)
		require.NoError(t, err)
		assert.Equal(t, []model.Translation{{ID: 1, Name: "ACF"}, {ID: 2, Name: "NVI"}}, got)
	})

	t.Run("verse lookups", func(t *testing.T) {
		v, err := repo.GetVerse(ctx, 2, 1, 1, 1)
		require.NoError(t, err)
		assert.Equal(t, "No princípio Deus criou os céus e a terra.", v.Text)
		require.NotNil(t, v.Book)
		assert.Equal(t, v.BookID, v.Book.ID)

		_, err = repo.GetVerse(ctx, 1, 1, 1, 99)
		require.ErrorIs(t, err, ErrVerseNotFound)

		verses, err := repo.GetVerses(ctx, 1, 1, 1, []int{3, 1, 42})
		require.NoError(t, err)
		require.Len(t, verses, 2)
		assert.Equal(t, 1, verses[0].Number)
		assert.Equal(t, 3, verses[1].Number)
		for _, v := range verses {
			assert.Equal(t, "Gênesis", v.Book.Name)
		}
	})

	t.Run("aggregate", func(t *testing.T) {
		got, err := repo.VerseCountAggregate(ctx, 1, 1, 1)
		require.NoError(t, err)
		assert.Equal(t, model.ChapterVerseCount{VerseCount: 3, TranslationID: 1, BookID: 1, Chapter: 1}, got)

		got, err = repo.VerseCountAggregate(ctx, 2, 40, 1)
		require.NoError(t, err)
		assert.Equal(t, model.ChapterVerseCount{}, got)
	})

	t.Run("promise box", func(t *testing.T) {
		maxID, err := repo.PromiseBoxMaxID(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, maxID)

		entries, err := repo.PromiseBoxEntries(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, []model.PromiseBoxEntry{{ID: 2, BookID: 40, ChapterID: 1, VerseNumber: 1}}, entries)
	})

	t.Run("book", func(t *testing.T) {
		b, err := repo.GetBook(ctx, 40)
		require.NoError(t, err)
		assert.Equal(t, &model.Book{ID: 40, TestamentID: 2, Position: 40, Name: "Mateus"}, b)

		b, err = repo.GetBook(ctx, 77)
		require.NoError(t, err)
		assert.Nil(t, b)
	})

	t.Run("hostile input stays a parameter", func(t *testing.T) {
		// Numeric parameters reject text outright on the server.
		_, err := pool.Exec(ctx, "SELECT id FROM Livros WHERE testamentoId = $1", "1 OR 1=1")
		require.Error(t, err)

		books, err := repo.ListBooks(ctx, intPtr(-1))
		require.NoError(t, err)
		assert.Empty(t, books)
	})

	t.Run("pool is not exhausted", func(t *testing.T) {
		for i := range int(pool.Config().MaxConns) * 3 {
			_, err := repo.GetVerse(ctx, 1, 1, 1, 100+i)
			require.ErrorIs(t, err, ErrVerseNotFound)
		}
		assert.Zero(t, pool.Stat().AcquiredConns(), "connections leaked")
	})
}
