package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	domain "github.com/dsemenov/wakeup-alarm/internal/domain/alarm"
	"github.com/dsemenov/wakeup-alarm/internal/escalation"
	"github.com/dsemenov/wakeup-alarm/internal/gate"
	"github.com/dsemenov/wakeup-alarm/internal/logger"
	"github.com/dsemenov/wakeup-alarm/internal/metrics"
	"github.com/dsemenov/wakeup-alarm/internal/tone"
)

// Event is pushed to the presentation boundary whenever the alarm state
// changes or the periodic status tick fires.
type Event struct {
	// Type is one of the Event* constants.
	Type string `json:"type"`
	// Status is the snapshot at the time of the event.
	Status domain.Status `json:"status"`
	// Feedback is set on answer events.
	Feedback string `json:"feedback,omitempty"`
}

// Event types pushed to the presentation boundary.
const (
	// EventArmed is published when a schedule is set or replaced.
	EventArmed = "armed"
	// EventStatus is the periodic observability tick while armed.
	EventStatus = "status"
	// EventFired is published when the deadline passes and the gate opens.
	EventFired = "fired"
	// EventQuestion is published when a new challenge becomes live.
	EventQuestion = "question"
	// EventFeedback is published after each answer submission.
	EventFeedback = "feedback"
	// EventComplete is published when the quota is reached.
	EventComplete = "complete"
	// EventDisarmed is published when a pending schedule is cleared.
	EventDisarmed = "disarmed"
)

// Sink receives lifecycle events for the presentation boundary.
// Publish must not block the caller.
type Sink interface {
	Publish(event Event)
}

// Options wires the scheduler's collaborators and tuning.
type Options struct {
	// Engine is the tone synthesis engine.
	Engine *tone.Engine
	// Generator produces arithmetic challenges for new sessions.
	Generator gate.Generator
	// Trigger fires the escalation pipeline on wrong answers; nil disables it.
	Trigger *escalation.Trigger
	// Collector records lifecycle metrics.
	Collector *metrics.Collector
	// Sink receives presentation events; nil discards them.
	Sink Sink
	// Quota is how many correct answers silence the alarm.
	Quota uint
	// ToneFrequencyHz is the alarm tone frequency.
	ToneFrequencyHz float64
	// BeepInterval is the on/off half-cycle of the beep gate.
	BeepInterval time.Duration
	// FeedbackDelay is passed to each challenge session.
	FeedbackDelay time.Duration
	// StatusInterval is the cadence of the armed status tick.
	StatusInterval time.Duration
	// Now overrides the clock; nil means time.Now. Used by tests.
	Now func() time.Time
}

// Scheduler owns the alarm lifecycle: Idle -> Armed -> Firing -> Idle.
// It computes fire deadlines, drives the tone engine mode switches and owns
// the challenge session while firing.
type Scheduler struct {
	// opts holds collaborators and tuning; immutable after construction.
	opts Options
	// baseCtx is used by timer-driven transitions for scoped logging.
	baseCtx context.Context

	// mu protects the mutable lifecycle fields below.
	mu sync.Mutex
	// phase is the lifecycle position.
	phase domain.Phase
	// schedule is the pending deadline; nil unless armed.
	schedule *domain.Schedule
	// session is the live challenge gate; nil unless firing.
	session *gate.Session
	// deadline is the one-shot fire timer; nil unless armed.
	deadline *time.Timer
	// statusDone stops the periodic status goroutine; nil unless armed.
	statusDone chan struct{}
	// firedAt is when the current firing started.
	firedAt time.Time
}

var (
	// ErrBadTime is returned for an out-of-range time of day.
	ErrBadTime = errors.New("time of day out of range")
	// ErrNotFuture is returned when an explicit target is not strictly in the future.
	ErrNotFuture = errors.New("target time is not in the future")
	// ErrFiring is returned when an operation is rejected because the alarm is firing.
	ErrFiring = errors.New("alarm is firing")
	// ErrNotFiring is returned when an answer arrives while no session is live.
	ErrNotFiring = errors.New("alarm is not firing")
)

// New creates a scheduler in the Idle phase.
func New(ctx context.Context, opts Options) *Scheduler {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Scheduler{
		opts:    opts,
		baseCtx: logger.WithName(ctx, "scheduler"),
		phase:   domain.PhaseIdle,
	}
}

// Arm schedules the alarm for the next wall-clock occurrence of the given
// time of day. If that occurrence is not strictly in the future it rolls to
// the next day. Re-arming while armed replaces the prior schedule.
func (s *Scheduler) Arm(ctx context.Context, hour, minute int) (*domain.Schedule, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return nil, fmt.Errorf("%02d:%02d: %w", hour, minute, ErrBadTime)
	}

	now := s.opts.Now()

	target := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !target.After(now) {
		target = target.AddDate(0, 0, 1)
	}

	return s.ArmAt(ctx, target)
}

// ArmAt schedules the alarm for an absolute deadline, which must be strictly
// in the future. Prior deadline and status timers are cancelled and replaced.
func (s *Scheduler) ArmAt(ctx context.Context, target time.Time) (*domain.Schedule, error) {
	now := s.opts.Now()
	if !target.After(now) {
		return nil, fmt.Errorf("%s: %w", target.Format(time.RFC3339), ErrNotFuture)
	}

	s.mu.Lock()

	if s.phase == domain.PhaseFiring {
		s.mu.Unlock()

		return nil, ErrFiring
	}

	s.cancelTimersLocked()

	s.schedule = &domain.Schedule{
		ArmedAt:        now,
		TargetFireTime: target,
	}
	s.phase = domain.PhaseArmed

	// Silent keep-alive output while armed.
	if err := s.opts.Engine.Start(ctx); err != nil {
		logger.WarnKV(ctx, "Engine degraded, alarm continues without sound", "error", err)
	}

	s.opts.Engine.Configure(tone.SilentMode())

	s.deadline = time.AfterFunc(target.Sub(now), func() {
		s.fire(target)
	})

	s.statusDone = make(chan struct{})
	go s.statusLoop(s.statusDone)

	schedule := s.schedule.Clone()

	s.mu.Unlock()

	s.opts.Collector.SetPhase(domain.PhaseArmed)
	s.publish(EventArmed, "")
	logger.InfoKV(ctx, "Alarm armed",
		"target", target.Format(time.RFC3339), "in", formatRemaining(target.Sub(now)))

	return schedule, nil
}

// Disarm clears a pending schedule and stops the engine. Idempotent while
// idle. A firing alarm cannot be disarmed: solving the quota is the only way
// to silence it, so ErrFiring is returned instead.
func (s *Scheduler) Disarm(ctx context.Context) error {
	s.mu.Lock()

	if s.phase == domain.PhaseIdle {
		s.mu.Unlock()

		return nil
	}

	if s.phase == domain.PhaseFiring {
		s.mu.Unlock()

		return ErrFiring
	}

	s.teardownLocked()

	s.mu.Unlock()

	s.opts.Engine.Stop(ctx)
	s.opts.Collector.SetPhase(domain.PhaseIdle)
	s.publish(EventDisarmed, "")
	logger.Info(ctx, "Alarm disarmed")

	return nil
}

// Shutdown tears the scheduler down regardless of phase. This is the process
// exit path only; a firing alarm dies with the daemon either way, and the
// control surface never reaches it.
func (s *Scheduler) Shutdown(ctx context.Context) {
	s.mu.Lock()

	if s.phase == domain.PhaseIdle {
		s.mu.Unlock()

		return
	}

	s.teardownLocked()

	s.mu.Unlock()

	s.opts.Engine.Stop(ctx)
	s.opts.Collector.SetPhase(domain.PhaseIdle)
	logger.Info(ctx, "Scheduler shut down")
}

// teardownLocked cancels timers, discards any session and resets to Idle.
// Callers must hold mu.
func (s *Scheduler) teardownLocked() {
	s.cancelTimersLocked()

	if s.session != nil {
		s.session.Close()
		s.session = nil
	}

	s.schedule = nil
	s.phase = domain.PhaseIdle
}

// Submit forwards a raw answer to the live challenge session.
func (s *Scheduler) Submit(ctx context.Context, raw string) (domain.Feedback, error) {
	s.mu.Lock()
	session := s.session
	s.mu.Unlock()

	if session == nil {
		return domain.FeedbackRejected, ErrNotFiring
	}

	feedback := session.Submit(ctx, raw)

	s.opts.Collector.RecordFeedback(feedback)

	solved, quota := session.Progress()
	s.opts.Collector.SetProgress(solved, quota)

	// Completion publishes its own event from the session callback.
	if feedback != domain.FeedbackComplete {
		s.publish(EventFeedback, feedback.String())
	}

	return feedback, nil
}

// Status returns a snapshot for the presentation boundary.
func (s *Scheduler) Status() domain.Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.statusLocked()
}

// fire is the deadline callback: switch the engine to alarm mode and open
// the challenge gate. The target identifies which schedule the timer was
// armed for, so a stale callback that lost the lock race against a re-arm
// cannot fire the replacement schedule early.
func (s *Scheduler) fire(target time.Time) {
	ctx := s.baseCtx

	s.mu.Lock()

	if s.phase != domain.PhaseArmed || s.schedule == nil || !s.schedule.TargetFireTime.Equal(target) {
		s.mu.Unlock()

		return
	}

	s.stopStatusLoopLocked()

	s.phase = domain.PhaseFiring
	s.firedAt = s.opts.Now()

	s.opts.Engine.Configure(tone.AlarmMode(
		s.opts.ToneFrequencyHz,
		s.opts.BeepInterval,
		s.opts.Engine.SampleRate(),
	))

	s.session = gate.NewSession(gate.Options{
		Quota:         s.opts.Quota,
		Generator:     s.opts.Generator,
		FeedbackDelay: s.opts.FeedbackDelay,
		Escalate: func(ctx context.Context) {
			if s.opts.Trigger != nil {
				s.opts.Trigger.Fire(ctx)
			}
		},
		OnQuestion: func(_ domain.Challenge, _, _ uint) {
			s.publish(EventQuestion, "")
		},
		OnComplete: s.finalize,
	})

	s.mu.Unlock()

	s.opts.Collector.SetPhase(domain.PhaseFiring)
	s.publish(EventFired, "")
	logger.InfoKV(ctx, "Alarm fired", "quota", s.opts.Quota)
}

// finalize is called by the gate once the quota is reached: stop the tone
// engine, clear the schedule and return to Idle.
func (s *Scheduler) finalize(ctx context.Context) {
	s.mu.Lock()

	if s.phase != domain.PhaseFiring {
		s.mu.Unlock()

		return
	}

	if s.session != nil {
		s.session.Close()
	}

	elapsed := s.opts.Now().Sub(s.firedAt)

	s.session = nil
	s.schedule = nil
	s.phase = domain.PhaseIdle

	s.mu.Unlock()

	s.opts.Engine.Stop(ctx)
	s.opts.Collector.SetPhase(domain.PhaseIdle)
	s.opts.Collector.ObserveTimeToSilence(elapsed.Seconds())
	s.publish(EventComplete, domain.FeedbackComplete.String())
	logger.InfoKV(ctx, "Alarm completed", "time_to_silence", elapsed.String())
}

// statusLoop publishes the periodic observability tick while armed.
// It performs no state transitions.
func (s *Scheduler) statusLoop(done <-chan struct{}) {
	ticker := time.NewTicker(s.opts.StatusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			status := s.Status()
			s.publishStatus(EventStatus, status, "")
			logger.DebugKV(s.baseCtx, "Alarm pending", "remaining", status.Remaining)
		}
	}
}

// cancelTimersLocked stops the deadline timer and the status loop.
// Callers must hold mu.
func (s *Scheduler) cancelTimersLocked() {
	if s.deadline != nil {
		s.deadline.Stop()
		s.deadline = nil
	}

	s.stopStatusLoopLocked()
}

// stopStatusLoopLocked stops the status goroutine. Callers must hold mu.
func (s *Scheduler) stopStatusLoopLocked() {
	if s.statusDone != nil {
		close(s.statusDone)
		s.statusDone = nil
	}
}

// statusLocked builds a snapshot. Callers must hold mu.
func (s *Scheduler) statusLocked() domain.Status {
	status := domain.Status{
		Phase: s.phase.String(),
		Quota: s.opts.Quota,
	}

	if s.schedule != nil {
		status.TargetFireTime = s.schedule.TargetFireTime
		status.Remaining = formatRemaining(s.schedule.Remaining(s.opts.Now()))
	}

	if s.session != nil {
		status.Question = s.session.Question()
		solved, quota := s.session.Progress()
		status.Solved = solved

		if quota > 0 {
			status.Progress = float64(solved) / float64(quota)
		}
	}

	return status
}

// publish sends an event carrying a fresh status snapshot.
func (s *Scheduler) publish(eventType, feedback string) {
	s.publishStatus(eventType, s.Status(), feedback)
}

// publishStatus sends an event to the sink, if any.
func (s *Scheduler) publishStatus(eventType string, status domain.Status, feedback string) {
	if s.opts.Sink == nil {
		return
	}

	s.opts.Sink.Publish(Event{
		Type:     eventType,
		Status:   status,
		Feedback: feedback,
	})
}

// formatRemaining renders a duration as "3h 41m" for status displays.
func formatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}

	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}
