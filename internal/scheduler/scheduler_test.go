package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	domain "github.com/dsemenov/wakeup-alarm/internal/domain/alarm"
	"github.com/dsemenov/wakeup-alarm/internal/metrics"
	"github.com/dsemenov/wakeup-alarm/internal/tone"
)

// fixedGenerator always yields the same challenge, so tests know the answer.
type fixedGenerator struct {
	answer int
}

func (g fixedGenerator) Generate() domain.Challenge {
	return domain.Challenge{
		Question: "always the same",
		Answer:   g.answer,
	}
}

// recordingSink buffers published events for assertions.
type recordingSink struct {
	events chan Event
}

func newRecordingSink() *recordingSink {
	return &recordingSink{
		events: make(chan Event, 64),
	}
}

func (s *recordingSink) Publish(event Event) {
	select {
	case s.events <- event:
	default:
	}
}

// waitFor blocks until an event of the wanted type arrives.
func (s *recordingSink) waitFor(t *testing.T, eventType string) Event {
	t.Helper()

	deadline := time.After(5 * time.Second)

	for {
		select {
		case event := <-s.events:
			if event.Type == eventType {
				return event
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %q event", eventType)
		}
	}
}

// newTestScheduler builds a scheduler with a device-less engine, a known
// challenge answer and a long status interval so ticks stay out of the way.
func newTestScheduler(t *testing.T, quota uint, sink Sink, now func() time.Time) *Scheduler {
	t.Helper()

	return New(context.Background(), Options{
		Engine:          tone.NewEngine(8000, tone.WithoutDevice()),
		Generator:       fixedGenerator{answer: 4},
		Trigger:         nil,
		Collector:       metrics.NewCollector(prometheus.NewRegistry()),
		Sink:            sink,
		Quota:           quota,
		ToneFrequencyHz: 880,
		BeepInterval:    90 * time.Millisecond,
		FeedbackDelay:   time.Millisecond,
		StatusInterval:  time.Hour,
		Now:             now,
	})
}

// TestArmValidation rejects out-of-range times of day.
func TestArmValidation(t *testing.T) {
	t.Parallel()

	s := newTestScheduler(t, 1, nil, nil)

	_, err := s.Arm(context.Background(), 24, 0)
	require.ErrorIs(t, err, ErrBadTime)

	_, err = s.Arm(context.Background(), -1, 0)
	require.ErrorIs(t, err, ErrBadTime)

	_, err = s.Arm(context.Background(), 7, 60)
	require.ErrorIs(t, err, ErrBadTime)
}

// TestArmComputesNextOccurrence verifies the deadline lands on the next
// wall-clock occurrence, rolling to tomorrow when the time has passed today.
func TestArmComputesNextOccurrence(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.August, 29, 8, 0, 0, 0, time.Local)
	ctx := context.Background()

	s := newTestScheduler(t, 1, nil, func() time.Time { return now })
	defer s.Disarm(ctx)

	// Later today.
	schedule, err := s.Arm(ctx, 9, 30)
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, time.August, 29, 9, 30, 0, 0, time.Local), schedule.TargetFireTime)

	// Already passed today, rolls to tomorrow.
	schedule, err = s.Arm(ctx, 7, 30)
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, time.August, 30, 7, 30, 0, 0, time.Local), schedule.TargetFireTime)

	// Exactly now is not strictly in the future, rolls to tomorrow.
	schedule, err = s.Arm(ctx, 8, 0)
	require.NoError(t, err)
	require.Equal(t, time.Date(2026, time.August, 30, 8, 0, 0, 0, time.Local), schedule.TargetFireTime)

	require.Equal(t, domain.PhaseArmed.String(), s.Status().Phase)
}

// TestArmAtRejectsPast verifies an absolute deadline must be in the future.
func TestArmAtRejectsPast(t *testing.T) {
	t.Parallel()

	s := newTestScheduler(t, 1, nil, nil)

	_, err := s.ArmAt(context.Background(), time.Now().Add(-time.Minute))
	require.ErrorIs(t, err, ErrNotFuture)
}

// TestSubmitWhileIdle verifies answers are rejected when no session is live.
func TestSubmitWhileIdle(t *testing.T) {
	t.Parallel()

	s := newTestScheduler(t, 1, nil, nil)

	feedback, err := s.Submit(context.Background(), "4")
	require.ErrorIs(t, err, ErrNotFiring)
	require.Equal(t, domain.FeedbackRejected, feedback)
}

// TestDisarm verifies a pending schedule can be cleared and the scheduler
// returns to idle.
func TestDisarm(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sink := newRecordingSink()
	s := newTestScheduler(t, 1, sink, nil)

	_, err := s.ArmAt(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	sink.waitFor(t, EventArmed)

	require.NoError(t, s.Disarm(ctx))
	sink.waitFor(t, EventDisarmed)
	require.Equal(t, domain.PhaseIdle.String(), s.Status().Phase)

	// Idempotent.
	require.NoError(t, s.Disarm(ctx))
}

// TestDisarmWhileFiringRejected verifies a firing alarm cannot be silenced
// by disarming: the session stays live until the quota is solved.
func TestDisarmWhileFiringRejected(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sink := newRecordingSink()
	s := newTestScheduler(t, 2, sink, nil)

	_, err := s.ArmAt(ctx, time.Now().Add(10*time.Millisecond))
	require.NoError(t, err)

	sink.waitFor(t, EventFired)

	require.ErrorIs(t, s.Disarm(ctx), ErrFiring)

	// Still firing, nothing solved, the gate still answers.
	status := s.Status()
	require.Equal(t, domain.PhaseFiring.String(), status.Phase)
	require.Zero(t, status.Solved)

	feedback, err := s.Submit(ctx, "4")
	require.NoError(t, err)
	require.Equal(t, domain.FeedbackCorrect, feedback)

	s.Shutdown(ctx)
}

// TestShutdownWhileFiring verifies the process exit path tears down any
// phase unconditionally.
func TestShutdownWhileFiring(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sink := newRecordingSink()
	s := newTestScheduler(t, 2, sink, nil)

	_, err := s.ArmAt(ctx, time.Now().Add(10*time.Millisecond))
	require.NoError(t, err)

	sink.waitFor(t, EventFired)

	s.Shutdown(ctx)
	require.Equal(t, domain.PhaseIdle.String(), s.Status().Phase)

	_, err = s.Submit(ctx, "4")
	require.ErrorIs(t, err, ErrNotFiring)
}

// TestStaleDeadlineDoesNotFire verifies a deadline callback for a replaced
// schedule is ignored, even if it runs after the re-arm.
func TestStaleDeadlineDoesNotFire(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := newTestScheduler(t, 1, nil, nil)

	defer s.Disarm(ctx)

	_, err := s.ArmAt(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)

	// A callback armed for an older, since-replaced deadline.
	s.fire(time.Now().Add(30 * time.Minute))

	require.Equal(t, domain.PhaseArmed.String(), s.Status().Phase)

	_, err = s.Submit(ctx, "4")
	require.ErrorIs(t, err, ErrNotFiring)
}

// TestFireAndComplete walks the full lifecycle: armed, fired, challenges
// solved, back to idle.
func TestFireAndComplete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sink := newRecordingSink()
	s := newTestScheduler(t, 2, sink, nil)

	_, err := s.ArmAt(ctx, time.Now().Add(20*time.Millisecond))
	require.NoError(t, err)

	sink.waitFor(t, EventFired)

	status := s.Status()
	require.Equal(t, domain.PhaseFiring.String(), status.Phase)
	require.NotEmpty(t, status.Question)

	// Re-arming while firing is rejected.
	_, err = s.ArmAt(ctx, time.Now().Add(time.Hour))
	require.ErrorIs(t, err, ErrFiring)

	// Wrong answer leaves the session live.
	feedback, err := s.Submit(ctx, "5")
	require.NoError(t, err)
	require.Equal(t, domain.FeedbackWrong, feedback)

	// First correct answer, then wait for the next challenge.
	feedback, err = s.Submit(ctx, "4")
	require.NoError(t, err)
	require.Equal(t, domain.FeedbackCorrect, feedback)

	sink.waitFor(t, EventQuestion)

	// Final answer completes the session.
	feedback, err = s.Submit(ctx, "4")
	require.NoError(t, err)
	require.Equal(t, domain.FeedbackComplete, feedback)

	event := sink.waitFor(t, EventComplete)
	require.Equal(t, domain.FeedbackComplete.String(), event.Feedback)
	require.Equal(t, domain.PhaseIdle.String(), s.Status().Phase)

	// The session is gone with the firing.
	_, err = s.Submit(ctx, "4")
	require.ErrorIs(t, err, ErrNotFiring)
}

// TestRearmReplacesSchedule verifies arming twice keeps only the newer
// deadline.
func TestRearmReplacesSchedule(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	sink := newRecordingSink()
	s := newTestScheduler(t, 1, sink, nil)

	defer s.Disarm(ctx)

	_, err := s.ArmAt(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)

	target := time.Now().Add(2 * time.Hour)

	schedule, err := s.ArmAt(ctx, target)
	require.NoError(t, err)
	require.Equal(t, target, schedule.TargetFireTime)

	status := s.Status()
	require.Equal(t, domain.PhaseArmed.String(), status.Phase)
	require.Equal(t, target, status.TargetFireTime)
}
