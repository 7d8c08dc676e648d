// Package observability provides logging and metrics support for the
// screening service.
//
// # Overview
//
// The observability package provides:
//
//   - Structured logging with zerolog
//   - Prometheus metrics for screening decisions, label assignment, and
//     classifier calls
//   - Context helpers for propagating request identifiers
//
// # Logging
//
// Create a logger from configuration:
//
//	cfg := observability.LoggingConfig{
//	    Level:     "info",
//	    Format:    "json",
//	    Output:    "stdout",
//	    AddSource: true,
//	}
//
//	logger := observability.NewLogger(cfg)
//	logger.Info().Str("bibtex_id", bibtexID).Msg("status updated")
//
// Add paper context to a logger:
//
//	logger = observability.WithPaperContext(logger, paperID, bibtexID)
//
// # Metrics
//
// Initialize metrics:
//
//	metrics := observability.NewMetrics("screening_service")
//
// Record metrics:
//
//	metrics.RecordScreeningTransition("included")
//	metrics.RecordLabelAssignment(3)
//	metrics.RecordClassifierRequest("gpt-4o-mini", 1.2, 450, 20)
//
// # Standard Fields
//
// Common fields used across the service:
//
//   - request_id: HTTP request identifier
//   - paper_id: Paper identifier
//   - bibtex_id: BibTeX citation key of the paper
//   - from_status, to_status: Screening transition endpoints
//   - model: Classifier model name
//
// # Thread Safety
//
// All components are safe for concurrent use from multiple goroutines.
package observability
