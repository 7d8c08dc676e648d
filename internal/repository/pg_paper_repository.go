package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/helixir/screening-service/internal/domain"
)

// Compile-time interface verification.
var _ PaperRepository = (*PgPaperRepository)(nil)

// paperColumns is the canonical column list for SELECT and RETURNING clauses.
const paperColumns = `id, bibtex_id, title, authors, year, publication_date,
		journal, publisher, volume, doi, url, isbn, issn, abstract, keywords,
		screening_status, screening_notes, labels, imported_from, source_file,
		created_at, updated_at`

// PgPaperRepository is a PostgreSQL implementation of PaperRepository.
type PgPaperRepository struct {
	db DBTX
}

// NewPgPaperRepository creates a new PostgreSQL paper repository.
func NewPgPaperRepository(db DBTX) *PgPaperRepository {
	return &PgPaperRepository{db: db}
}

// Create inserts a new paper.
func (r *PgPaperRepository) Create(ctx context.Context, paper *domain.Paper) (*domain.Paper, error) {
	if paper == nil {
		return nil, domain.NewValidationError("paper", "paper cannot be nil")
	}
	if paper.BibtexID == "" {
		return nil, domain.NewValidationError("bibtex_id", "bibtex ID is required")
	}

	authorsJSON, err := json.Marshal(paper.Authors)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal authors: %w", err)
	}

	now := time.Now().UTC()
	if paper.ID == uuid.Nil {
		paper.ID = uuid.New()
	}
	if paper.ScreeningStatus == "" {
		paper.ScreeningStatus = domain.ScreeningPending
	}

	query := `
		INSERT INTO papers (
			id, bibtex_id, title, authors, year, publication_date,
			journal, publisher, volume, doi, url, isbn, issn, abstract, keywords,
			screening_status, screening_notes, labels, imported_from, source_file,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22
		)
		RETURNING id, created_at, updated_at`

	err = r.db.QueryRow(ctx, query,
		paper.ID,
		paper.BibtexID,
		paper.Title,
		authorsJSON,
		paper.Year,
		paper.PublicationDate,
		paper.Journal,
		paper.Publisher,
		paper.Volume,
		paper.DOI,
		paper.URL,
		paper.ISBN,
		paper.ISSN,
		paper.Abstract,
		paper.Keywords,
		paper.ScreeningStatus,
		paper.ScreeningNotes,
		paper.Labels,
		paper.ImportedFrom,
		paper.SourceFile,
		now,
		now,
	).Scan(&paper.ID, &paper.CreatedAt, &paper.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, domain.NewAlreadyExistsError("paper", paper.BibtexID)
		}
		return nil, fmt.Errorf("failed to insert paper: %w", err)
	}

	return paper, nil
}

// GetByID retrieves a paper by its UUID.
func (r *PgPaperRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Paper, error) {
	query := fmt.Sprintf(`SELECT %s FROM papers WHERE id = $1`, paperColumns)

	row := r.db.QueryRow(ctx, query, id)
	paper, err := scanPaper(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("paper", id.String())
		}
		return nil, fmt.Errorf("failed to get paper by ID: %w", err)
	}

	return paper, nil
}

// GetByBibtexID retrieves a paper by its BibTeX citation key.
func (r *PgPaperRepository) GetByBibtexID(ctx context.Context, bibtexID string) (*domain.Paper, error) {
	if bibtexID == "" {
		return nil, domain.NewValidationError("bibtex_id", "bibtex ID is required")
	}

	query := fmt.Sprintf(`SELECT %s FROM papers WHERE bibtex_id = $1`, paperColumns)

	row := r.db.QueryRow(ctx, query, bibtexID)
	paper, err := scanPaper(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("paper", bibtexID)
		}
		return nil, fmt.Errorf("failed to get paper by bibtex ID: %w", err)
	}

	return paper, nil
}

// List retrieves papers matching the filter criteria.
func (r *PgPaperRepository) List(ctx context.Context, filter PaperFilter) ([]*domain.Paper, int64, error) {
	if err := filter.Validate(); err != nil {
		return nil, 0, err
	}

	// Build dynamic WHERE clause
	var conditions []string
	var args []interface{}
	argIndex := 1

	if status, ok := filter.Status.Status(); ok {
		conditions = append(conditions, fmt.Sprintf("screening_status = $%d", argIndex))
		args = append(args, status)
		argIndex++
	}

	if len(filter.Labels) > 0 {
		// Array containment: the paper's labels must be a superset of the
		// requested labels. Served by the GIN index on labels.
		conditions = append(conditions, fmt.Sprintf("labels @> $%d", argIndex))
		args = append(args, filter.Labels)
		argIndex++
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	// Count total matching records
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM papers %s", whereClause)
	var totalCount int64
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count papers: %w", err)
	}

	// Query with pagination
	selectQuery := fmt.Sprintf(`SELECT %s FROM papers %s ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d`,
		paperColumns, whereClause, argIndex, argIndex+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list papers: %w", err)
	}
	defer rows.Close()

	papers := make([]*domain.Paper, 0, filter.Limit)
	for rows.Next() {
		paper, err := scanPaperFromRows(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan paper: %w", err)
		}
		papers = append(papers, paper)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating papers: %w", err)
	}

	return papers, totalCount, nil
}

// CountByStatus returns the number of papers per stored screening status.
func (r *PgPaperRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	query := `SELECT screening_status::text, COUNT(*) FROM papers GROUP BY screening_status`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count papers by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[status] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status counts: %w", err)
	}

	return counts, nil
}

// UpdateScreening sets a paper's screening status and notes.
func (r *PgPaperRepository) UpdateScreening(ctx context.Context, id uuid.UUID, status domain.ScreeningStatus, notes string) (*domain.Paper, error) {
	if !status.IsValid() {
		return nil, domain.NewValidationError("screening_status",
			"must be one of: pending, included, excluded, maybe")
	}

	query := fmt.Sprintf(`
		UPDATE papers
		SET screening_status = $1, screening_notes = $2, updated_at = $3
		WHERE id = $4
		RETURNING %s`, paperColumns)

	row := r.db.QueryRow(ctx, query, status, notes, time.Now().UTC(), id)
	paper, err := scanPaper(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("paper", id.String())
		}
		return nil, fmt.Errorf("failed to update screening: %w", err)
	}

	return paper, nil
}

// UpdateLabels replaces a paper's label set with the given labels.
func (r *PgPaperRepository) UpdateLabels(ctx context.Context, id uuid.UUID, labels []string) (*domain.Paper, error) {
	if labels == nil {
		labels = []string{}
	}

	query := fmt.Sprintf(`
		UPDATE papers
		SET labels = $1, updated_at = $2
		WHERE id = $3
		RETURNING %s`, paperColumns)

	row := r.db.QueryRow(ctx, query, labels, time.Now().UTC(), id)
	paper, err := scanPaper(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("paper", id.String())
		}
		return nil, fmt.Errorf("failed to update labels: %w", err)
	}

	return paper, nil
}

// BulkUpsert creates or updates multiple papers in a single batch.
// Uses pgx.Batch to send all upserts in a single network roundtrip,
// dramatically reducing latency compared to individual queries.
func (r *PgPaperRepository) BulkUpsert(ctx context.Context, papers []*domain.Paper) ([]*domain.Paper, error) {
	if len(papers) == 0 {
		return []*domain.Paper{}, nil
	}

	// Validate all papers have bibtex IDs
	for i, paper := range papers {
		if paper == nil {
			return nil, domain.NewValidationError("paper", fmt.Sprintf("paper at index %d is nil", i))
		}
		if paper.BibtexID == "" {
			return nil, domain.NewValidationError("bibtex_id", fmt.Sprintf("paper at index %d has no bibtex ID", i))
		}
	}

	// Screening state (status, notes, labels) is preserved on conflict so a
	// re-import never reverts reviewer decisions.
	query := `
		INSERT INTO papers (
			id, bibtex_id, title, authors, year, publication_date,
			journal, publisher, volume, doi, url, isbn, issn, abstract, keywords,
			screening_status, screening_notes, labels, imported_from, source_file,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22
		)
		ON CONFLICT (bibtex_id) DO UPDATE SET
			title = EXCLUDED.title,
			authors = EXCLUDED.authors,
			year = EXCLUDED.year,
			publication_date = COALESCE(NULLIF(EXCLUDED.publication_date, ''), papers.publication_date),
			journal = COALESCE(NULLIF(EXCLUDED.journal, ''), papers.journal),
			publisher = COALESCE(NULLIF(EXCLUDED.publisher, ''), papers.publisher),
			volume = COALESCE(NULLIF(EXCLUDED.volume, ''), papers.volume),
			doi = COALESCE(NULLIF(EXCLUDED.doi, ''), papers.doi),
			url = COALESCE(NULLIF(EXCLUDED.url, ''), papers.url),
			isbn = COALESCE(NULLIF(EXCLUDED.isbn, ''), papers.isbn),
			issn = COALESCE(NULLIF(EXCLUDED.issn, ''), papers.issn),
			abstract = COALESCE(NULLIF(EXCLUDED.abstract, ''), papers.abstract),
			keywords = EXCLUDED.keywords,
			imported_from = EXCLUDED.imported_from,
			source_file = EXCLUDED.source_file,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`

	now := time.Now().UTC()
	batch := &pgx.Batch{}

	for _, paper := range papers {
		authorsJSON, err := json.Marshal(paper.Authors)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal authors: %w", err)
		}

		if paper.ID == uuid.Nil {
			paper.ID = uuid.New()
		}
		if paper.ScreeningStatus == "" {
			paper.ScreeningStatus = domain.ScreeningPending
		}

		batch.Queue(query,
			paper.ID,
			paper.BibtexID,
			paper.Title,
			authorsJSON,
			paper.Year,
			paper.PublicationDate,
			paper.Journal,
			paper.Publisher,
			paper.Volume,
			paper.DOI,
			paper.URL,
			paper.ISBN,
			paper.ISSN,
			paper.Abstract,
			paper.Keywords,
			paper.ScreeningStatus,
			paper.ScreeningNotes,
			paper.Labels,
			paper.ImportedFrom,
			paper.SourceFile,
			now,
			now,
		)
	}

	br := r.db.SendBatch(ctx, batch)
	defer br.Close()

	results := make([]*domain.Paper, len(papers))
	for i, paper := range papers {
		err := br.QueryRow().Scan(&paper.ID, &paper.CreatedAt, &paper.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to upsert paper at index %d: %w", i, err)
		}
		results[i] = paper
	}

	return results, nil
}

// paperScanDest holds the destination pointers for scanning a Paper row.
type paperScanDest struct {
	paper       domain.Paper
	authorsJSON []byte
}

// destinations returns the slice of pointers for Scan operations.
// The order must match paperColumns.
func (d *paperScanDest) destinations() []interface{} {
	return []interface{}{
		&d.paper.ID, &d.paper.BibtexID, &d.paper.Title, &d.authorsJSON,
		&d.paper.Year, &d.paper.PublicationDate,
		&d.paper.Journal, &d.paper.Publisher, &d.paper.Volume,
		&d.paper.DOI, &d.paper.URL, &d.paper.ISBN, &d.paper.ISSN,
		&d.paper.Abstract, &d.paper.Keywords,
		&d.paper.ScreeningStatus, &d.paper.ScreeningNotes, &d.paper.Labels,
		&d.paper.ImportedFrom, &d.paper.SourceFile,
		&d.paper.CreatedAt, &d.paper.UpdatedAt,
	}
}

// finalize performs post-scan processing: unmarshals JSON fields.
func (d *paperScanDest) finalize() (*domain.Paper, error) {
	if len(d.authorsJSON) > 0 {
		if err := json.Unmarshal(d.authorsJSON, &d.paper.Authors); err != nil {
			return nil, fmt.Errorf("failed to unmarshal authors: %w", err)
		}
	}

	if d.paper.Labels == nil {
		d.paper.Labels = []string{}
	}

	return &d.paper, nil
}

// scanPaper scans a single row into a Paper.
func scanPaper(row pgx.Row) (*domain.Paper, error) {
	var dest paperScanDest
	if err := row.Scan(dest.destinations()...); err != nil {
		return nil, err
	}
	return dest.finalize()
}

// scanPaperFromRows scans the current row from pgx.Rows into a Paper.
func scanPaperFromRows(rows pgx.Rows) (*domain.Paper, error) {
	var dest paperScanDest
	if err := rows.Scan(dest.destinations()...); err != nil {
		return nil, err
	}
	return dest.finalize()
}
