package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/helixir/screening-service/internal/domain"
)

// PaperRepository handles persistence of imported papers, their screening
// decisions, and their assigned labels.
type PaperRepository interface {
	// Create inserts a new paper.
	// Returns domain.ErrAlreadyExists if a paper with the same bibtex_id exists.
	// Returns domain.ErrInvalidInput if the paper has no bibtex ID.
	Create(ctx context.Context, paper *domain.Paper) (*domain.Paper, error)

	// GetByID retrieves a paper by its internal UUID.
	// Returns domain.ErrNotFound if no matching paper exists.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Paper, error)

	// GetByBibtexID retrieves a paper by its BibTeX citation key.
	// Returns domain.ErrNotFound if no matching paper exists.
	GetByBibtexID(ctx context.Context, bibtexID string) (*domain.Paper, error)

	// List retrieves papers matching the filter criteria.
	// Returns the matching papers and total count for pagination.
	// The total count reflects all matching records regardless of limit/offset.
	List(ctx context.Context, filter PaperFilter) ([]*domain.Paper, int64, error)

	// CountByStatus returns the number of papers per stored screening status.
	// The map keys are the raw status values as stored in the database;
	// statuses with no papers are absent from the map.
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// UpdateScreening sets a paper's screening status and notes, replacing
	// the previous values. Returns the updated paper.
	// Returns domain.ErrNotFound if the paper does not exist.
	UpdateScreening(ctx context.Context, id uuid.UUID, status domain.ScreeningStatus, notes string) (*domain.Paper, error)

	// UpdateLabels replaces a paper's label set with the given labels.
	// An empty slice clears all labels. Returns the updated paper.
	// Returns domain.ErrNotFound if the paper does not exist.
	UpdateLabels(ctx context.Context, id uuid.UUID, labels []string) (*domain.Paper, error)

	// BulkUpsert creates or updates multiple papers in a single batch.
	// Papers are matched by bibtex_id for upsert behavior.
	// Returns domain.ErrInvalidInput if any paper has no bibtex ID.
	//
	// Return contract:
	//   - Returned papers are in the same order as the input slice.
	//   - Database-generated fields (ID, CreatedAt, UpdatedAt) are populated on all returned papers.
	//   - For existing papers (matched by bibtex_id), the returned paper reflects
	//     the final database state after the upsert.
	BulkUpsert(ctx context.Context, papers []*domain.Paper) ([]*domain.Paper, error)
}

// PaperFilter specifies criteria for listing papers.
type PaperFilter struct {
	// Status filters to papers with a specific screening status.
	// The StatusFilterAll sentinel (the zero value after Validate) matches
	// every paper.
	Status domain.StatusFilter

	// Labels filters to papers carrying every one of the given labels
	// (superset match). Empty means no label filtering.
	Labels []string

	// Limit specifies maximum number of results (default: 100, max: 1000).
	Limit int

	// Offset specifies the starting position for pagination.
	Offset int
}

// Validate checks if the filter has valid values and sets defaults.
func (f *PaperFilter) Validate() error {
	if f.Status == "" {
		f.Status = domain.StatusFilterAll
	}
	if _, err := domain.ParseStatusFilter(string(f.Status)); err != nil {
		return err
	}
	applyPaginationDefaults(&f.Limit, &f.Offset)
	return nil
}
