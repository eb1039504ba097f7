package gate

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	domain "github.com/dsemenov/wakeup-alarm/internal/domain/alarm"
	"github.com/dsemenov/wakeup-alarm/internal/logger"
)

// Generator produces arithmetic challenges on demand.
type Generator interface {
	Generate() domain.Challenge
}

// state is the internal gate state.
type state int

const (
	// stateAwaiting means a challenge is live and answers are accepted.
	stateAwaiting state = iota
	// statePause is the short window after a correct answer, before the next
	// challenge appears. Answers are rejected so the previous answer cannot
	// be replayed against the not-yet-published question.
	statePause
	// stateComplete is terminal: the quota has been reached.
	stateComplete
)

// Options configures a challenge session.
type Options struct {
	// Quota is how many correct answers complete the session.
	Quota uint
	// Generator produces the arithmetic challenges.
	Generator Generator
	// FeedbackDelay is how long the "correct" feedback is shown before the
	// next challenge replaces it.
	FeedbackDelay time.Duration
	// Escalate is invoked exactly once per wrong answer. It must not block;
	// the escalation trigger runs its pipeline asynchronously.
	Escalate func(ctx context.Context)
	// OnQuestion is invoked when a new challenge becomes live.
	OnQuestion func(c domain.Challenge, solved, quota uint)
	// OnComplete is invoked once when the quota is reached.
	OnComplete func(ctx context.Context)
}

// Session tracks solved count versus quota and validates submitted answers.
// It is created when the alarm fires and becomes terminal once the quota is
// reached. Safe for concurrent use.
type Session struct {
	// opts holds the immutable session configuration.
	opts Options

	// mu protects the fields below.
	mu sync.Mutex
	// current is the live challenge.
	current domain.Challenge
	// solved is how many challenges have been answered correctly.
	solved uint
	// state is the gate state machine position.
	state state
	// pending is the timer publishing the next challenge after a correct answer.
	pending *time.Timer
}

// NewSession creates a session with the first challenge already live.
func NewSession(opts Options) *Session {
	s := &Session{
		opts:    opts,
		current: opts.Generator.Generate(),
	}

	return s
}

// Submit validates a raw answer and advances the state machine.
//
// Unparseable input yields FeedbackMalformed with no other effect. A wrong
// answer yields FeedbackWrong, keeps the same challenge live and triggers
// exactly one escalation. A correct answer increments the solved count and
// either completes the session or schedules the next challenge after the
// feedback delay.
func (s *Session) Submit(ctx context.Context, raw string) domain.Feedback {
	s.mu.Lock()

	if s.state != stateAwaiting {
		s.mu.Unlock()

		return domain.FeedbackRejected
	}

	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		s.mu.Unlock()
		logger.DebugKV(ctx, "Malformed answer", "input", raw)

		return domain.FeedbackMalformed
	}

	if value != s.current.Answer {
		question := s.current.Question
		escalate := s.opts.Escalate
		s.mu.Unlock()

		logger.InfoKV(ctx, "Wrong answer", "question", question, "got", value)

		if escalate != nil {
			escalate(ctx)
		}

		return domain.FeedbackWrong
	}

	s.solved++

	if s.solved == s.opts.Quota {
		s.state = stateComplete
		onComplete := s.opts.OnComplete
		s.mu.Unlock()

		logger.InfoKV(ctx, "Challenge quota reached", "quota", s.opts.Quota)

		if onComplete != nil {
			onComplete(ctx)
		}

		return domain.FeedbackComplete
	}

	s.state = statePause
	s.pending = time.AfterFunc(s.opts.FeedbackDelay, s.advance)
	s.mu.Unlock()

	return domain.FeedbackCorrect
}

// advance publishes the next challenge once the feedback delay has elapsed.
func (s *Session) advance() {
	s.mu.Lock()

	if s.state != statePause {
		s.mu.Unlock()

		return
	}

	s.current = s.opts.Generator.Generate()
	s.state = stateAwaiting

	current, solved := s.current, s.solved
	onQuestion := s.opts.OnQuestion

	s.mu.Unlock()

	if onQuestion != nil {
		onQuestion(current, solved, s.opts.Quota)
	}
}

// Close cancels any pending next-challenge timer. Called when the scheduler
// discards the session.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending != nil {
		s.pending.Stop()
		s.pending = nil
	}
}

// Complete reports whether the quota has been reached.
func (s *Session) Complete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state == stateComplete
}

// Question returns the live challenge text.
func (s *Session) Question() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.current.Question
}

// Progress returns the solved count and the quota.
func (s *Session) Progress() (solved, quota uint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.solved, s.opts.Quota
}
