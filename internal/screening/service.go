// Package screening implements the screening workflow of the service:
// status transitions, label assignment, filtered listing, and statistics.
//
// The Service orchestrates the paper repository and the label classifier.
// Handlers and CLI commands call into this package rather than touching
// the repository directly.
package screening

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/helixir/screening-service/internal/classifier"
	"github.com/helixir/screening-service/internal/domain"
	"github.com/helixir/screening-service/internal/observability"
	"github.com/helixir/screening-service/internal/repository"
)

// EventPublisher receives notifications about screening decisions. Publishing
// is best effort; the service logs failures and moves on.
type EventPublisher interface {
	PublishStatusChanged(ctx context.Context, paper *domain.Paper, previous domain.ScreeningStatus) error
	PublishLabelsAssigned(ctx context.Context, paper *domain.Paper) error
}

// Service implements the screening operations over a paper repository and a
// label classifier.
type Service struct {
	repo       repository.PaperRepository
	classifier classifier.LabelClassifier
	publisher  EventPublisher
	metrics    *observability.Metrics
	logger     zerolog.Logger
}

// Option configures optional Service dependencies.
type Option func(*Service)

// WithPublisher attaches an event publisher for screening decisions.
func WithPublisher(p EventPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService creates a screening service.
func NewService(repo repository.PaperRepository, lc classifier.LabelClassifier, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		repo:       repo,
		classifier: lc,
		logger:     logger.With().Str("component", "screening-service").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns a single paper by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Paper, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByBibtexID returns a single paper by its bibtex identifier.
func (s *Service) GetByBibtexID(ctx context.Context, bibtexID string) (*domain.Paper, error) {
	return s.repo.GetByBibtexID(ctx, bibtexID)
}

// SetStatus records a screening decision for a paper.
//
// Any transition between valid statuses is allowed, including setting the
// status a paper already has. Notes always overwrite the stored notes; an
// empty notes string clears them.
func (s *Service) SetStatus(ctx context.Context, id uuid.UUID, status string, notes string) (*domain.Paper, error) {
	parsed, err := domain.ParseScreeningStatus(status)
	if err != nil {
		return nil, err
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := current.ScreeningStatus

	paper, err := s.repo.UpdateScreening(ctx, id, parsed, notes)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordScreeningTransition(string(parsed))
	}
	transitionLogger := observability.WithScreeningContext(s.logger, string(previous), string(parsed))
	transitionLogger.Info().
		Str("paper_id", id.String()).
		Msg("screening status updated")

	if s.publisher != nil && previous != parsed {
		if pubErr := s.publisher.PublishStatusChanged(ctx, paper, previous); pubErr != nil {
			s.logger.Warn().Err(pubErr).Str("paper_id", id.String()).Msg("failed to publish status change event")
		}
	}

	return paper, nil
}

// AssignLabels asks the classifier for topic labels and stores the result,
// replacing any labels the paper already had.
//
// The classifier is called exactly once per invocation. If the classifier
// cannot be reached the paper is left untouched and the error wraps
// domain.ErrClassifierUnavailable. Output the classifier produced but that
// could not be parsed is not an error; the paper simply ends up with an
// empty label list.
func (s *Service) AssignLabels(ctx context.Context, id uuid.UUID) (*domain.Paper, error) {
	paper, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := s.classifier.ClassifyLabels(ctx, classifier.ClassificationRequest{
		Title:    paper.Title,
		Abstract: paper.Abstract,
		Keywords: paper.Keywords,
	})
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordClassifierRequestFailed(s.classifier.Model(), "request_failed")
		}
		s.logger.Error().Err(err).
			Str("paper_id", id.String()).
			Str("bibtex_id", paper.BibtexID).
			Msg("classifier request failed")
		return nil, domain.NewClassifierUnavailableError(err)
	}

	if s.metrics != nil {
		s.metrics.RecordClassifierRequest(result.Model, time.Since(start).Seconds(), result.InputTokens, result.OutputTokens)
		s.metrics.RecordLabelAssignment(len(result.Labels))
	}

	updated, err := s.repo.UpdateLabels(ctx, id, result.Labels)
	if err != nil {
		return nil, err
	}

	paperLogger := observability.WithPaperContext(s.logger, id.String(), paper.BibtexID)
	paperLogger.Info().
		Strs("labels", result.Labels).
		Str("model", result.Model).
		Msg("labels assigned")

	if s.publisher != nil {
		if pubErr := s.publisher.PublishLabelsAssigned(ctx, updated); pubErr != nil {
			s.logger.Warn().Err(pubErr).Str("paper_id", id.String()).Msg("failed to publish labels assigned event")
		}
	}

	return updated, nil
}

// ListPapers returns papers matching the given status filter. The filter
// accepts the four screening statuses plus "all"; an empty string means
// "all". The returned count is the total number of matches before
// pagination.
func (s *Service) ListPapers(ctx context.Context, statusFilter string, limit, offset int) ([]*domain.Paper, int64, error) {
	parsed, err := domain.ParseStatusFilter(statusFilter)
	if err != nil {
		return nil, 0, err
	}

	if s.metrics != nil {
		s.metrics.RecordListQuery(string(parsed))
	}

	return s.repo.List(ctx, repository.PaperFilter{
		Status: parsed,
		Limit:  limit,
		Offset: offset,
	})
}

// ListPapersByLabels returns papers whose label set contains every one of
// the given labels. At least one non-empty label is required.
func (s *Service) ListPapersByLabels(ctx context.Context, labels []string, limit, offset int) ([]*domain.Paper, int64, error) {
	cleaned := make([]string, 0, len(labels))
	for _, label := range labels {
		if trimmed := strings.TrimSpace(label); trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	if len(cleaned) == 0 {
		return nil, 0, domain.NewValidationError("labels", "at least one label is required")
	}

	if s.metrics != nil {
		s.metrics.RecordListQuery("labels")
	}

	return s.repo.List(ctx, repository.PaperFilter{
		Labels: cleaned,
		Limit:  limit,
		Offset: offset,
	})
}

// Stats returns the per-status paper counts. Counts are computed from the
// repository on every call, never cached.
func (s *Service) Stats(ctx context.Context) (domain.Stats, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return domain.Stats{}, err
	}

	if s.metrics != nil {
		s.metrics.RecordStatsQuery()
	}

	return domain.NewStats(counts), nil
}
