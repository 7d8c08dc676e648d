package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the screening service.
// Metrics are organized by subsystem: screening decisions, label assignment,
// classifier calls, and imports. All counters and histograms are registered
// via promauto for automatic registration with the default Prometheus registry.
type Metrics struct {
	// ScreeningTransitions counts screening status updates, labeled by the new status.
	ScreeningTransitions *prometheus.CounterVec

	// LabelAssignments counts completed label assignments.
	LabelAssignments prometheus.Counter

	// LabelAssignmentsEmpty counts label assignments that produced an empty label set,
	// including assignments where the classifier output could not be parsed.
	LabelAssignmentsEmpty prometheus.Counter

	// LabelsAssigned counts the total number of labels stored across all assignments.
	LabelsAssigned prometheus.Counter

	// ClassifierRequestsTotal counts classifier API requests, labeled by model.
	ClassifierRequestsTotal *prometheus.CounterVec

	// ClassifierRequestsFailed counts failed classifier API requests, labeled by model and error type.
	ClassifierRequestsFailed *prometheus.CounterVec

	// ClassifierRequestDuration observes classifier API request duration in seconds, labeled by model.
	ClassifierRequestDuration *prometheus.HistogramVec

	// ClassifierTokensUsed counts tokens consumed by classifier calls, labeled by model and token type.
	ClassifierTokensUsed *prometheus.CounterVec

	// PapersImported counts papers written by the seed importer.
	PapersImported prometheus.Counter

	// PapersImportSkipped counts importer records rejected by validation.
	PapersImportSkipped prometheus.Counter

	// ListQueries counts list operations, labeled by filter kind (status, labels).
	ListQueries *prometheus.CounterVec

	// StatsQueries counts stats computations.
	StatsQueries prometheus.Counter
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
// The namespace is used as a prefix for all metric names.
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		// Screening
		ScreeningTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "screening_transitions_total",
			Help:      "Total number of screening status updates by new status",
		}, []string{"status"}),

		// Labels
		LabelAssignments: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "label_assignments_total",
			Help:      "Total number of completed label assignments",
		}),
		LabelAssignmentsEmpty: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "label_assignments_empty_total",
			Help:      "Total number of label assignments that stored an empty label set",
		}),
		LabelsAssigned: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "labels_assigned_total",
			Help:      "Total number of labels stored across all assignments",
		}),

		// Classifier
		ClassifierRequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifier_requests_total",
			Help:      "Total number of classifier API requests by model",
		}, []string{"model"}),
		ClassifierRequestsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifier_requests_failed_total",
			Help:      "Total number of failed classifier API requests by model",
		}, []string{"model", "error_type"}),
		ClassifierRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "classifier_request_duration_seconds",
			Help:      "Duration of classifier API requests in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"model"}),
		ClassifierTokensUsed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "classifier_tokens_used_total",
			Help:      "Total number of tokens used by classifier calls",
		}, []string{"model", "token_type"}),

		// Imports
		PapersImported: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "papers_imported_total",
			Help:      "Total number of papers written by the seed importer",
		}),
		PapersImportSkipped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "papers_import_skipped_total",
			Help:      "Total number of importer records rejected by validation",
		}),

		// Queries
		ListQueries: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "list_queries_total",
			Help:      "Total number of paper list queries by filter kind",
		}, []string{"filter"}),
		StatsQueries: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stats_queries_total",
			Help:      "Total number of screening stats computations",
		}),
	}
}

// RecordScreeningTransition records a screening status update.
func (m *Metrics) RecordScreeningTransition(status string) {
	m.ScreeningTransitions.WithLabelValues(status).Inc()
}

// RecordLabelAssignment records a completed label assignment.
func (m *Metrics) RecordLabelAssignment(labelCount int) {
	m.LabelAssignments.Inc()
	m.LabelsAssigned.Add(float64(labelCount))
	if labelCount == 0 {
		m.LabelAssignmentsEmpty.Inc()
	}
}

// RecordClassifierRequest records a classifier API request.
func (m *Metrics) RecordClassifierRequest(model string, durationSeconds float64, inputTokens, outputTokens int) {
	m.ClassifierRequestsTotal.WithLabelValues(model).Inc()
	m.ClassifierRequestDuration.WithLabelValues(model).Observe(durationSeconds)
	m.ClassifierTokensUsed.WithLabelValues(model, "input").Add(float64(inputTokens))
	m.ClassifierTokensUsed.WithLabelValues(model, "output").Add(float64(outputTokens))
}

// RecordClassifierRequestFailed records a failed classifier API request.
func (m *Metrics) RecordClassifierRequestFailed(model, errorType string) {
	m.ClassifierRequestsFailed.WithLabelValues(model, errorType).Inc()
}

// RecordPaperImported records a paper written by the importer.
func (m *Metrics) RecordPaperImported() {
	m.PapersImported.Inc()
}

// RecordPapersImported records multiple imported papers in a single call.
func (m *Metrics) RecordPapersImported(count int) {
	m.PapersImported.Add(float64(count))
}

// RecordPaperImportSkipped records an importer record rejected by validation.
func (m *Metrics) RecordPaperImportSkipped() {
	m.PapersImportSkipped.Inc()
}

// RecordListQuery records a list query by filter kind.
func (m *Metrics) RecordListQuery(filter string) {
	m.ListQueries.WithLabelValues(filter).Inc()
}

// RecordStatsQuery records a stats computation.
func (m *Metrics) RecordStatsQuery() {
	m.StatsQueries.Inc()
}
