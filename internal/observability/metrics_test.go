package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Note: prometheus/promauto registers metrics globally, so we need to use
// unique namespaces per test to avoid registration conflicts.

func TestNewMetrics(t *testing.T) {
	m := NewMetrics("test_screening_new")

	assert.NotNil(t, m.ScreeningTransitions)
	assert.NotNil(t, m.LabelAssignments)
	assert.NotNil(t, m.LabelAssignmentsEmpty)
	assert.NotNil(t, m.LabelsAssigned)
	assert.NotNil(t, m.ClassifierRequestsTotal)
	assert.NotNil(t, m.ClassifierRequestsFailed)
	assert.NotNil(t, m.ClassifierRequestDuration)
	assert.NotNil(t, m.ClassifierTokensUsed)
	assert.NotNil(t, m.PapersImported)
	assert.NotNil(t, m.PapersImportSkipped)
	assert.NotNil(t, m.ListQueries)
	assert.NotNil(t, m.StatsQueries)
}

func TestRecordScreeningTransition(t *testing.T) {
	m := NewMetrics("test_screening_transition")

	m.RecordScreeningTransition("included")
	m.RecordScreeningTransition("included")
	m.RecordScreeningTransition("excluded")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.ScreeningTransitions.WithLabelValues("included")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ScreeningTransitions.WithLabelValues("excluded")))
}

func TestRecordLabelAssignment(t *testing.T) {
	m := NewMetrics("test_label_assignment")

	m.RecordLabelAssignment(3)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.LabelAssignments))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.LabelsAssigned))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.LabelAssignmentsEmpty))
}

func TestRecordLabelAssignmentEmpty(t *testing.T) {
	m := NewMetrics("test_label_assignment_empty")

	m.RecordLabelAssignment(0)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.LabelAssignments))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.LabelsAssigned))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.LabelAssignmentsEmpty))
}

func TestRecordClassifierRequest(t *testing.T) {
	m := NewMetrics("test_classifier_request")

	m.RecordClassifierRequest("gpt-4o-mini", 2.5, 100, 50)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ClassifierRequestsTotal.WithLabelValues("gpt-4o-mini")))
	assert.Equal(t, float64(100), testutil.ToFloat64(m.ClassifierTokensUsed.WithLabelValues("gpt-4o-mini", "input")))
	assert.Equal(t, float64(50), testutil.ToFloat64(m.ClassifierTokensUsed.WithLabelValues("gpt-4o-mini", "output")))

	histCount, err := getHistogramSampleCount(m.ClassifierRequestDuration.WithLabelValues("gpt-4o-mini").(prometheus.Histogram))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), histCount)
}

func TestRecordClassifierRequestFailed(t *testing.T) {
	m := NewMetrics("test_classifier_request_failed")

	m.RecordClassifierRequestFailed("gpt-4o-mini", "rate_limit")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ClassifierRequestsFailed.WithLabelValues("gpt-4o-mini", "rate_limit")))
}

func TestRecordPaperImported(t *testing.T) {
	m := NewMetrics("test_paper_imported")

	m.RecordPaperImported()
	m.RecordPapersImported(4)
	assert.Equal(t, float64(5), testutil.ToFloat64(m.PapersImported))
}

func TestRecordPaperImportSkipped(t *testing.T) {
	m := NewMetrics("test_paper_import_skipped")

	m.RecordPaperImportSkipped()
	assert.Equal(t, float64(1), testutil.ToFloat64(m.PapersImportSkipped))
}

func TestRecordListQuery(t *testing.T) {
	m := NewMetrics("test_list_query")

	m.RecordListQuery("status")
	m.RecordListQuery("labels")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ListQueries.WithLabelValues("status")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ListQueries.WithLabelValues("labels")))
}

func TestRecordStatsQuery(t *testing.T) {
	m := NewMetrics("test_stats_query")

	initial := testutil.ToFloat64(m.StatsQueries)
	m.RecordStatsQuery()
	assert.Equal(t, initial+1, testutil.ToFloat64(m.StatsQueries))
}

// Helper to get histogram sample count
func getHistogramSampleCount(h prometheus.Histogram) (uint64, error) {
	ch := make(chan prometheus.Metric, 1)
	h.Collect(ch)
	close(ch)

	var m prometheus.Metric
	for m = range ch {
		break
	}

	var dto = &dto.Metric{}
	if err := m.Write(dto); err != nil {
		return 0, err
	}

	return dto.Histogram.GetSampleCount(), nil
}
