// Package importer loads bibliographic seed files into the paper store.
//
// Seed files are JSON arrays of paper records as produced by the BibTeX
// conversion tooling. Records are validated individually; invalid records
// are skipped and counted rather than failing the whole import. Papers are
// matched by bibtex_id, so re-running an import updates bibliographic
// metadata without reverting screening decisions.
package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/helixir/screening-service/internal/domain"
	"github.com/helixir/screening-service/internal/observability"
	"github.com/helixir/screening-service/internal/repository"
)

// maxSeedFileSize bounds how much of a seed file is read (50 MB).
const maxSeedFileSize = 50 << 20

// batchSize is the number of papers upserted per database batch.
const batchSize = 500

// seedAuthor is an author entry in a seed record.
type seedAuthor struct {
	FullName  string `json:"full_name"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// seedPaper is a single record in a JSON seed file.
type seedPaper struct {
	BibtexID        string       `json:"bibtex_id" validate:"required"`
	Title           string       `json:"title" validate:"required"`
	Authors         []seedAuthor `json:"authors"`
	Year            int          `json:"year" validate:"gte=0,lte=2100"`
	PublicationDate string       `json:"publication_date"`
	Journal         string       `json:"journal"`
	Publisher       string       `json:"publisher"`
	Volume          string       `json:"volume"`
	DOI             string       `json:"doi"`
	URL             string       `json:"url" validate:"omitempty,url"`
	ISBN            string       `json:"isbn"`
	ISSN            string       `json:"issn"`
	Abstract        string       `json:"abstract"`
	Keywords        []string     `json:"keywords"`
	ScreeningStatus string       `json:"screening_status"`
	ScreeningNotes  string       `json:"screening_notes"`
	Labels          []string     `json:"labels"`
	ImportedFrom    string       `json:"imported_from"`
	SourceFile      string       `json:"source_file"`
}

// Result summarizes an import run.
type Result struct {
	// Total is the number of records found in the seed file.
	Total int
	// Imported is the number of records upserted.
	Imported int
	// Skipped is the number of records dropped by validation.
	Skipped int
}

// ImportPublisher receives a summary event after an import completes.
type ImportPublisher interface {
	PublishPapersImported(ctx context.Context, sourceFile string, imported, skipped int) error
}

// Importer loads seed files into the paper repository.
type Importer struct {
	repo      repository.PaperRepository
	publisher ImportPublisher
	metrics   *observability.Metrics
	validate  *validator.Validate
	logger    zerolog.Logger
}

// Option configures optional Importer dependencies.
type Option func(*Importer)

// WithPublisher attaches an event publisher for import summaries.
func WithPublisher(p ImportPublisher) Option {
	return func(i *Importer) { i.publisher = p }
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(m *observability.Metrics) Option {
	return func(i *Importer) { i.metrics = m }
}

// New creates an importer.
func New(repo repository.PaperRepository, logger zerolog.Logger, opts ...Option) *Importer {
	i := &Importer{
		repo:     repo,
		validate: validator.New(),
		logger:   logger.With().Str("component", "importer").Logger(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// ImportFile reads a JSON seed file from disk and upserts its records.
func (i *Importer) ImportFile(ctx context.Context, path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()

	return i.Import(ctx, f, filepath.Base(path))
}

// Import reads a JSON array of seed records and upserts them in batches.
// sourceFile is recorded on each paper and used in the summary event.
func (i *Importer) Import(ctx context.Context, r io.Reader, sourceFile string) (*Result, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxSeedFileSize))
	if err != nil {
		return nil, fmt.Errorf("read seed data: %w", err)
	}

	var records []seedPaper
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse seed data: %w", err)
	}

	result := &Result{Total: len(records)}
	papers := make([]*domain.Paper, 0, len(records))

	for idx, record := range records {
		if err := i.validate.Struct(record); err != nil {
			result.Skipped++
			if i.metrics != nil {
				i.metrics.RecordPaperImportSkipped()
			}
			i.logger.Warn().Err(err).
				Int("record", idx).
				Str("bibtex_id", record.BibtexID).
				Msg("skipping invalid seed record")
			continue
		}
		papers = append(papers, record.toDomain(sourceFile))
	}

	for start := 0; start < len(papers); start += batchSize {
		end := start + batchSize
		if end > len(papers) {
			end = len(papers)
		}
		if _, err := i.repo.BulkUpsert(ctx, papers[start:end]); err != nil {
			return nil, fmt.Errorf("upsert batch starting at %d: %w", start, err)
		}
		result.Imported += end - start
	}

	if i.metrics != nil {
		i.metrics.RecordPapersImported(result.Imported)
	}
	i.logger.Info().
		Str("source_file", sourceFile).
		Int("total", result.Total).
		Int("imported", result.Imported).
		Int("skipped", result.Skipped).
		Msg("import completed")

	if i.publisher != nil {
		if pubErr := i.publisher.PublishPapersImported(ctx, sourceFile, result.Imported, result.Skipped); pubErr != nil {
			i.logger.Warn().Err(pubErr).Msg("failed to publish import summary event")
		}
	}

	return result, nil
}

// toDomain converts a validated seed record to a domain paper, applying
// the defaults the screening workflow expects.
func (r seedPaper) toDomain(sourceFile string) *domain.Paper {
	authors := make([]domain.Author, len(r.Authors))
	for i, a := range r.Authors {
		authors[i] = domain.Author{
			FullName:  a.FullName,
			FirstName: a.FirstName,
			LastName:  a.LastName,
		}
	}

	status, err := domain.ParseScreeningStatus(r.ScreeningStatus)
	if err != nil {
		// Unknown or missing statuses fall back to pending.
		status = domain.ScreeningPending
	}

	keywords := r.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	labels := r.Labels
	if labels == nil {
		labels = []string{}
	}

	importedFrom := r.ImportedFrom
	if importedFrom == "" {
		importedFrom = "bibtex"
	}
	if r.SourceFile != "" {
		sourceFile = r.SourceFile
	}

	return &domain.Paper{
		BibtexID:        r.BibtexID,
		Title:           r.Title,
		Authors:         authors,
		Year:            r.Year,
		PublicationDate: r.PublicationDate,
		Journal:         r.Journal,
		Publisher:       r.Publisher,
		Volume:          r.Volume,
		DOI:             r.DOI,
		URL:             r.URL,
		ISBN:            r.ISBN,
		ISSN:            r.ISSN,
		Abstract:        r.Abstract,
		Keywords:        keywords,
		ScreeningStatus: status,
		ScreeningNotes:  r.ScreeningNotes,
		Labels:          labels,
		ImportedFrom:    importedFrom,
		SourceFile:      sourceFile,
	}
}
