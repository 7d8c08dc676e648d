package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixir/screening-service/internal/domain"
)

// Helper to create a valid paper for testing.
func newTestPaper() *domain.Paper {
	now := time.Now().UTC()
	return &domain.Paper{
		ID:       uuid.New(),
		BibtexID: "smith2021survey",
		Title:    "A Survey of Test Papers",
		Authors: []domain.Author{
			{FullName: "John Smith", FirstName: "John", LastName: "Smith"},
			{FullName: "Jane Doe", FirstName: "Jane", LastName: "Doe"},
		},
		Year:            2021,
		PublicationDate: "2021-06-01",
		Journal:         "Journal of Testing",
		Publisher:       "Test Press",
		Volume:          "42",
		DOI:             "10.1234/test.paper",
		URL:             "https://example.com/paper",
		Abstract:        "This is a test abstract for the paper.",
		Keywords:        []string{"testing", "surveys"},
		ScreeningStatus: domain.ScreeningPending,
		Labels:          []string{},
		ImportedFrom:    "bibtex",
		SourceFile:      "seed.json",
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// paperColumnNames mirrors paperColumns for building mock rows.
var paperColumnNames = []string{
	"id", "bibtex_id", "title", "authors", "year", "publication_date",
	"journal", "publisher", "volume", "doi", "url", "isbn", "issn", "abstract", "keywords",
	"screening_status", "screening_notes", "labels", "imported_from", "source_file",
	"created_at", "updated_at",
}

// anyPaperArgs returns one pgxmock.AnyArg matcher per column in the paper
// INSERT statement, for expectations that do not constrain the arguments.
func anyPaperArgs() []interface{} {
	args := make([]interface{}, len(paperColumnNames))
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

// paperRows builds a pgxmock row set containing the given papers.
func paperRows(t *testing.T, papers ...*domain.Paper) *pgxmock.Rows {
	t.Helper()

	rows := pgxmock.NewRows(paperColumnNames)
	for _, p := range papers {
		authorsJSON, err := json.Marshal(p.Authors)
		require.NoError(t, err)

		rows.AddRow(
			p.ID, p.BibtexID, p.Title, authorsJSON, p.Year, p.PublicationDate,
			p.Journal, p.Publisher, p.Volume, p.DOI, p.URL, p.ISBN, p.ISSN, p.Abstract, p.Keywords,
			p.ScreeningStatus, p.ScreeningNotes, p.Labels, p.ImportedFrom, p.SourceFile,
			p.CreatedAt, p.UpdatedAt,
		)
	}
	return rows
}

func TestNewPgPaperRepository(t *testing.T) {
	t.Run("creates repository with nil db", func(t *testing.T) {
		repo := NewPgPaperRepository(nil)
		assert.NotNil(t, repo)
		assert.Nil(t, repo.db)
	})

	t.Run("creates repository with mock db", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgPaperRepository(mock)
		assert.NotNil(t, repo)
		assert.NotNil(t, repo.db)
	})
}

func TestPgPaperRepository_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("creates paper successfully", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgPaperRepository(mock)
		paper := newTestPaper()

		mock.ExpectQuery("INSERT INTO papers").
			WithArgs(
				pgxmock.AnyArg(), paper.BibtexID, paper.Title, pgxmock.AnyArg(),
				paper.Year, paper.PublicationDate,
				paper.Journal, paper.Publisher, paper.Volume,
				paper.DOI, paper.URL, paper.ISBN, paper.ISSN,
				paper.Abstract, paper.Keywords,
				paper.ScreeningStatus, paper.ScreeningNotes, paper.Labels,
				paper.ImportedFrom, paper.SourceFile,
				pgxmock.AnyArg(), pgxmock.AnyArg(),
			).
			WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).
				AddRow(paper.ID, paper.CreatedAt, paper.UpdatedAt))

		result, err := repo.Create(ctx, paper)
		require.NoError(t, err)
		assert.Equal(t, paper.ID, result.ID)
		assert.Equal(t, paper.BibtexID, result.BibtexID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("defaults screening status to pending", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgPaperRepository(mock)
		paper := newTestPaper()
		paper.ScreeningStatus = ""

		mock.ExpectQuery("INSERT INTO papers").
			WithArgs(anyPaperArgs()...).
			WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).
				AddRow(paper.ID, paper.CreatedAt, paper.UpdatedAt))

		result, err := repo.Create(ctx, paper)
		require.NoError(t, err)
		assert.Equal(t, domain.ScreeningPending, result.ScreeningStatus)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns validation error for nil paper", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgPaperRepository(mock)
		result, err := repo.Create(ctx, nil)

		assert.Nil(t, result)
		var validationErr *domain.ValidationError
		assert.True(t, errors.As(err, &validationErr))
		assert.Equal(t, "paper", validationErr.Field)
	})

	t.Run("returns validation error for missing bibtex_id", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgPaperRepository(mock)
		paper := newTestPaper()
		paper.BibtexID = ""

		result, err := repo.Create(ctx, paper)

		assert.Nil(t, result)
		var validationErr *domain.ValidationError
		assert.True(t, errors.As(err, &validationErr))
		assert.Equal(t, "bibtex_id", validationErr.Field)
	})

	t.Run("returns already exists on duplicate bibtex_id", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgPaperRepository(mock)
		paper := newTestPaper()

		mock.ExpectQuery("INSERT INTO papers").
			WithArgs(anyPaperArgs()...).
			WillReturnError(&pgconn.PgError{Code: "23505"})

		result, err := repo.Create(ctx, paper)
		assert.Nil(t, result)
		assert.True(t, errors.Is(err, domain.ErrAlreadyExists))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPgPaperRepository_GetByID(t *testing.T) {
	ctx := context.Background()

	t.Run("returns paper when found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgPaperRepository(mock)
		paper := newTestPaper()

		mock.ExpectQuery("SELECT .* FROM papers WHERE id = \\$1").
			WithArgs(paper.ID).
			WillReturnRows(paperRows(t, paper))

		result, err := repo.GetByID(ctx, paper.ID)
		require.NoError(t, err)
		assert.Equal(t, paper.ID, result.ID)
		assert.Equal(t, paper.BibtexID, result.BibtexID)
		assert.Len(t, result.Authors, 2)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found error when not exists", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgPaperRepository(mock)
		id := uuid.New()

		mock.ExpectQuery("SELECT .* FROM papers WHERE id = \\$1").
			WithArgs(id).
			WillReturnError(pgx.ErrNoRows)

		result, err := repo.GetByID(ctx, id)
		assert.Nil(t, result)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPgPaperRepository_GetByBibtexID(t *testing.T) {
	ctx := context.Background()

	t.Run("returns paper when found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgPaperRepository(mock)
		paper := newTestPaper()

		mock.ExpectQuery("SELECT .* FROM papers WHERE bibtex_id = \\$1").
			WithArgs(paper.BibtexID).
			WillReturnRows(paperRows(t, paper))

		result, err := repo.GetByBibtexID(ctx, paper.BibtexID)
		require.NoError(t, err)
		assert.Equal(t, paper.BibtexID, result.BibtexID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns validation error for empty bibtex_id", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgPaperRepository(mock)
		result, err := repo.GetByBibtexID(ctx, "")

		assert.Nil(t, result)
		var validationErr *domain.ValidationError
		assert.True(t, errors.As(err, &validationErr))
		assert.Equal(t, "bibtex_id", validationErr.Field)
	})

	t.Run("returns not found error when not exists", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgPaperRepository(mock)

		mock.ExpectQuery("SELECT .* FROM papers WHERE bibtex_id = \\$1").
			WithArgs("nonexistent").
			WillReturnError(pgx.ErrNoRows)

		result, err := repo.GetByBibtexID(ctx, "nonexistent")
		assert.Nil(t, result)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPgPaperRepository_List(t *testing.T) {
	ctx := context.Background()

	t.Run("lists all papers without conditions", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgPaperRepository(mock)
		paper := newTestPaper()

		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM papers").
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))
		mock.ExpectQuery("SELECT .* FROM papers\\s+ORDER BY created_at DESC").
			WithArgs(100, 0).
			WillReturnRows(paperRows(t, paper))

		papers, total, err := repo.List(ctx, PaperFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, papers, 1)
		assert.Equal(t, paper.BibtexID, papers[0].BibtexID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("filters by screening status", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgPaperRepository(mock)
		paper := newTestPaper()
		paper.ScreeningStatus = domain.ScreeningIncluded

		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM papers WHERE screening_status = \\$1").
			WithArgs(domain.ScreeningIncluded).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))
		mock.ExpectQuery("SELECT .* FROM papers WHERE screening_status = \\$1").
			WithArgs(domain.ScreeningIncluded, 100, 0).
			WillReturnRows(paperRows(t, paper))

		papers, total, err := repo.List(ctx, PaperFilter{Status: domain.StatusFilter("included")})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, papers, 1)
		assert.Equal(t, domain.ScreeningIncluded, papers[0].ScreeningStatus)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("filters by labels with containment operator", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgPaperRepository(mock)
		paper := newTestPaper()
		paper.Labels = []string{"nlp", "survey"}

		labels := []string{"nlp", "survey"}

		mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM papers WHERE labels @> \\$1").
			WithArgs(labels).
			WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(1)))
		mock.ExpectQuery("SELECT .* FROM papers WHERE labels @> \\$1").
			WithArgs(labels, 100, 0).
			WillReturnRows(paperRows(t, paper))

		papers, total, err := repo.List(ctx, PaperFilter{Labels: labels})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, papers, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects invalid status filter", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgPaperRepository(mock)

		papers, total, err := repo.List(ctx, PaperFilter{Status: domain.StatusFilter("bogus")})
		assert.Nil(t, papers)
		assert.Zero(t, total)
		assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	})
}

func TestPgPaperRepository_CountByStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("returns counts per status", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgPaperRepository(mock)

		mock.ExpectQuery("SELECT screening_status::text, COUNT\\(\\*\\) FROM papers GROUP BY screening_status").
			WillReturnRows(pgxmock.NewRows([]string{"screening_status", "count"}).
				AddRow("pending", int64(4)).
				AddRow("included", int64(2)))

		counts, err := repo.CountByStatus(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(4), counts["pending"])
		assert.Equal(t, int64(2), counts["included"])
		assert.Len(t, counts, 2)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns empty map for empty collection", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgPaperRepository(mock)

		mock.ExpectQuery("SELECT screening_status::text, COUNT\\(\\*\\) FROM papers GROUP BY screening_status").
			WillReturnRows(pgxmock.NewRows([]string{"screening_status", "count"}))

		counts, err := repo.CountByStatus(ctx)
		require.NoError(t, err)
		assert.Empty(t, counts)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPgPaperRepository_UpdateScreening(t *testing.T) {
	ctx := context.Background()

	t.Run("updates status and notes", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgPaperRepository(mock)
		paper := newTestPaper()
		paper.ScreeningStatus = domain.ScreeningIncluded
		paper.ScreeningNotes = "highly relevant"

		mock.ExpectQuery("UPDATE papers").
			WithArgs(domain.ScreeningIncluded, "highly relevant", pgxmock.AnyArg(), paper.ID).
			WillReturnRows(paperRows(t, paper))

		result, err := repo.UpdateScreening(ctx, paper.ID, domain.ScreeningIncluded, "highly relevant")
		require.NoError(t, err)
		assert.Equal(t, domain.ScreeningIncluded, result.ScreeningStatus)
		assert.Equal(t, "highly relevant", result.ScreeningNotes)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects invalid status", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgPaperRepository(mock)

		result, err := repo.UpdateScreening(ctx, uuid.New(), domain.ScreeningStatus("archived"), "")
		assert.Nil(t, result)
		assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	})

	t.Run("returns not found for missing paper", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgPaperRepository(mock)
		id := uuid.New()

		mock.ExpectQuery("UPDATE papers").
			WithArgs(domain.ScreeningExcluded, "", pgxmock.AnyArg(), id).
			WillReturnError(pgx.ErrNoRows)

		result, err := repo.UpdateScreening(ctx, id, domain.ScreeningExcluded, "")
		assert.Nil(t, result)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPgPaperRepository_UpdateLabels(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces label set", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgPaperRepository(mock)
		paper := newTestPaper()
		paper.Labels = []string{"nlp", "transformers"}

		mock.ExpectQuery("UPDATE papers").
			WithArgs([]string{"nlp", "transformers"}, pgxmock.AnyArg(), paper.ID).
			WillReturnRows(paperRows(t, paper))

		result, err := repo.UpdateLabels(ctx, paper.ID, []string{"nlp", "transformers"})
		require.NoError(t, err)
		assert.Equal(t, []string{"nlp", "transformers"}, result.Labels)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nil labels clears the set", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgPaperRepository(mock)
		paper := newTestPaper()
		paper.Labels = []string{}

		mock.ExpectQuery("UPDATE papers").
			WithArgs([]string{}, pgxmock.AnyArg(), paper.ID).
			WillReturnRows(paperRows(t, paper))

		result, err := repo.UpdateLabels(ctx, paper.ID, nil)
		require.NoError(t, err)
		assert.Empty(t, result.Labels)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found for missing paper", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgPaperRepository(mock)
		id := uuid.New()

		mock.ExpectQuery("UPDATE papers").
			WithArgs([]string{"nlp"}, pgxmock.AnyArg(), id).
			WillReturnError(pgx.ErrNoRows)

		result, err := repo.UpdateLabels(ctx, id, []string{"nlp"})
		assert.Nil(t, result)
		assert.True(t, errors.Is(err, domain.ErrNotFound))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPgPaperRepository_BulkUpsert(t *testing.T) {
	ctx := context.Background()

	t.Run("returns empty slice for empty input", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgPaperRepository(mock)
		results, err := repo.BulkUpsert(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, results)
	})

	t.Run("upserts papers in a single batch", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgPaperRepository(mock)
		first := newTestPaper()
		second := newTestPaper()
		second.BibtexID = "doe2022methods"

		batch := mock.ExpectBatch()
		batch.ExpectQuery("INSERT INTO papers").
			WithArgs(anyPaperArgs()...).
			WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).
				AddRow(first.ID, first.CreatedAt, first.UpdatedAt))
		batch.ExpectQuery("INSERT INTO papers").
			WithArgs(anyPaperArgs()...).
			WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "updated_at"}).
				AddRow(second.ID, second.CreatedAt, second.UpdatedAt))

		results, err := repo.BulkUpsert(ctx, []*domain.Paper{first, second})
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, first.BibtexID, results[0].BibtexID)
		assert.Equal(t, second.BibtexID, results[1].BibtexID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects paper without bibtex_id", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgPaperRepository(mock)
		paper := newTestPaper()
		paper.BibtexID = ""

		results, err := repo.BulkUpsert(ctx, []*domain.Paper{paper})
		assert.Nil(t, results)
		assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	})

	t.Run("rejects nil paper in slice", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		repo := NewPgPaperRepository(mock)

		results, err := repo.BulkUpsert(ctx, []*domain.Paper{nil})
		assert.Nil(t, results)
		assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	})
}
