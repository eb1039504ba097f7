package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	domain "github.com/dsemenov/wakeup-alarm/internal/domain/alarm"
)

// TestRecordFeedback verifies each verdict increments its own counter.
func TestRecordFeedback(t *testing.T) {
	t.Parallel()

	c := NewCollector(prometheus.NewRegistry())

	c.RecordFeedback(domain.FeedbackCorrect)
	c.RecordFeedback(domain.FeedbackComplete)
	c.RecordFeedback(domain.FeedbackWrong)
	c.RecordFeedback(domain.FeedbackMalformed)
	c.RecordFeedback(domain.FeedbackRejected)

	require.InDelta(t, 2, testutil.ToFloat64(c.challengesSolved), 0.001)
	require.InDelta(t, 1, testutil.ToFloat64(c.wrongAnswers), 0.001)
	require.InDelta(t, 1, testutil.ToFloat64(c.malformedAnswers), 0.001)
}

// TestEscalationCounters verifies pipeline and delivery accounting.
func TestEscalationCounters(t *testing.T) {
	t.Parallel()

	c := NewCollector(prometheus.NewRegistry())

	c.RecordEscalationStarted()
	c.RecordEscalationStarted()
	c.RecordEscalationSkipped()
	c.RecordDelivery(true)
	c.RecordDelivery(false)
	c.RecordDelivery(false)

	require.InDelta(t, 2, testutil.ToFloat64(c.escalationsStarted), 0.001)
	require.InDelta(t, 1, testutil.ToFloat64(c.escalationsSkipped), 0.001)
	require.InDelta(t, 1, testutil.ToFloat64(c.photosSent), 0.001)
	require.InDelta(t, 2, testutil.ToFloat64(c.deliveryFailures), 0.001)
}

// TestGauges verifies phase and progress gauges.
func TestGauges(t *testing.T) {
	t.Parallel()

	c := NewCollector(prometheus.NewRegistry())

	c.SetPhase(domain.PhaseFiring)
	require.InDelta(t, 2, testutil.ToFloat64(c.alarmPhase), 0.001)

	c.SetProgress(3, 10)
	require.InDelta(t, 0.3, testutil.ToFloat64(c.challengeProgress), 0.001)

	// Zero quota never divides.
	c.SetProgress(3, 0)
	require.InDelta(t, 0.3, testutil.ToFloat64(c.challengeProgress), 0.001)
}
