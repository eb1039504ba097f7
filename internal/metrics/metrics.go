package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	domain "github.com/dsemenov/wakeup-alarm/internal/domain/alarm"
)

// Collector gathers the daemon's Prometheus metrics. Construct one per
// process and register it against a registry owned by the composition root,
// so tests can use isolated registries.
type Collector struct {
	// challengesSolved counts correct answers.
	challengesSolved prometheus.Counter
	// wrongAnswers counts wrong answers (each one triggers an escalation).
	wrongAnswers prometheus.Counter
	// malformedAnswers counts inputs that did not parse as integers.
	malformedAnswers prometheus.Counter
	// escalationsStarted counts escalation pipelines spawned.
	escalationsStarted prometheus.Counter
	// escalationsSkipped counts pipelines aborted because no image was captured.
	escalationsSkipped prometheus.Counter
	// photosSent counts successful per-recipient deliveries.
	photosSent prometheus.Counter
	// deliveryFailures counts failed per-recipient deliveries.
	deliveryFailures prometheus.Counter

	// alarmPhase is the current lifecycle phase (0 idle, 1 armed, 2 firing).
	alarmPhase prometheus.Gauge
	// challengeProgress is solved/quota in [0,1] while firing.
	challengeProgress prometheus.Gauge

	// timeToSilence observes seconds from alarm fire to quota completion.
	timeToSilence prometheus.Histogram
}

// NewCollector creates and registers all metrics against the provided registry.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		challengesSolved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wakeup_challenges_solved_total",
			Help: "Total number of correctly answered challenges",
		}),
		wrongAnswers: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wakeup_wrong_answers_total",
			Help: "Total number of wrong answers submitted",
		}),
		malformedAnswers: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wakeup_malformed_answers_total",
			Help: "Total number of answers that did not parse as integers",
		}),
		escalationsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wakeup_escalations_started_total",
			Help: "Total number of escalation pipelines started",
		}),
		escalationsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wakeup_escalations_skipped_total",
			Help: "Total number of escalations aborted without an image",
		}),
		photosSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wakeup_photos_sent_total",
			Help: "Total number of successful photo deliveries",
		}),
		deliveryFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wakeup_delivery_failures_total",
			Help: "Total number of failed photo deliveries",
		}),
		alarmPhase: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wakeup_alarm_phase",
			Help: "Current alarm phase (0 idle, 1 armed, 2 firing)",
		}),
		challengeProgress: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wakeup_challenge_progress",
			Help: "Fraction of the challenge quota solved",
		}),
		timeToSilence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "wakeup_time_to_silence_seconds",
			Help:    "Seconds from alarm fire to quota completion",
			Buckets: []float64{15, 30, 60, 120, 300, 600, 1800},
		}),
	}

	reg.MustRegister(
		c.challengesSolved,
		c.wrongAnswers,
		c.malformedAnswers,
		c.escalationsStarted,
		c.escalationsSkipped,
		c.photosSent,
		c.deliveryFailures,
		c.alarmPhase,
		c.challengeProgress,
		c.timeToSilence,
	)

	return c
}

// RecordFeedback records the gate's verdict on one submission.
func (c *Collector) RecordFeedback(f domain.Feedback) {
	switch f {
	case domain.FeedbackCorrect, domain.FeedbackComplete:
		c.challengesSolved.Inc()
	case domain.FeedbackWrong:
		c.wrongAnswers.Inc()
	case domain.FeedbackMalformed:
		c.malformedAnswers.Inc()
	case domain.FeedbackRejected:
		// Not a verdict on an answer.
	}
}

// RecordEscalationStarted records a spawned escalation pipeline.
func (c *Collector) RecordEscalationStarted() {
	c.escalationsStarted.Inc()
}

// RecordEscalationSkipped records a pipeline aborted without an image.
func (c *Collector) RecordEscalationSkipped() {
	c.escalationsSkipped.Inc()
}

// RecordDelivery records one per-recipient delivery outcome.
func (c *Collector) RecordDelivery(ok bool) {
	if ok {
		c.photosSent.Inc()
	} else {
		c.deliveryFailures.Inc()
	}
}

// SetPhase records the current lifecycle phase.
func (c *Collector) SetPhase(p domain.Phase) {
	c.alarmPhase.Set(float64(p))
}

// SetProgress records the solved fraction of the quota.
func (c *Collector) SetProgress(solved, quota uint) {
	if quota == 0 {
		return
	}

	c.challengeProgress.Set(float64(solved) / float64(quota))
}

// ObserveTimeToSilence records how long the user took to silence the alarm.
func (c *Collector) ObserveTimeToSilence(seconds float64) {
	c.timeToSilence.Observe(seconds)
}
