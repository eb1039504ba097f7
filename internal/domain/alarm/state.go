package alarm

import (
	"fmt"
	"time"
)

// RecipientID identifies a party registered to receive escalation broadcasts.
// Values come from the delivery collaborator's inbound channel (Telegram chat ids).
type RecipientID int64

// Phase describes where the scheduler is in the alarm lifecycle.
type Phase int

const (
	// PhaseIdle means no alarm is scheduled and the tone engine is stopped.
	PhaseIdle Phase = iota
	// PhaseArmed means a deadline is set and the engine runs in silent keep-alive mode.
	PhaseArmed
	// PhaseFiring means the deadline has passed, the tone is audible and the
	// challenge gate is open.
	PhaseFiring
)

// String returns a human-readable phase name.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseArmed:
		return "armed"
	case PhaseFiring:
		return "firing"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Feedback is the gate's verdict on a single submitted answer.
type Feedback int

const (
	// FeedbackMalformed means the input did not parse as an integer.
	// No progress change, no escalation.
	FeedbackMalformed Feedback = iota
	// FeedbackCorrect means the answer matched and the quota is not yet reached.
	FeedbackCorrect
	// FeedbackWrong means the answer did not match. The same challenge stays
	// live and an escalation pipeline is triggered.
	FeedbackWrong
	// FeedbackComplete means the final answer matched and the session is over.
	FeedbackComplete
	// FeedbackRejected means the gate is not currently accepting answers
	// (between challenges or after completion).
	FeedbackRejected
)

// String returns a human-readable feedback name.
func (f Feedback) String() string {
	switch f {
	case FeedbackMalformed:
		return "malformed"
	case FeedbackCorrect:
		return "correct"
	case FeedbackWrong:
		return "wrong"
	case FeedbackComplete:
		return "complete"
	case FeedbackRejected:
		return "rejected"
	default:
		return fmt.Sprintf("feedback(%d)", int(f))
	}
}

// Challenge is a single arithmetic question with its expected answer.
// Immutable once generated.
type Challenge struct {
	// Question is the rendered text shown to the user, e.g. "7 × 8".
	Question string
	// Answer is the expected integer result.
	Answer int
}

// Schedule holds a pending alarm deadline.
type Schedule struct {
	// ArmedAt is when the schedule was created.
	ArmedAt time.Time
	// TargetFireTime is the absolute deadline; always strictly after ArmedAt.
	TargetFireTime time.Time
}

// Clone returns a copy of the schedule to avoid leaking internal references.
func (s *Schedule) Clone() *Schedule {
	if s == nil {
		return nil
	}

	cloned := *s

	return &cloned
}

// Remaining reports how long until the deadline relative to now.
func (s *Schedule) Remaining(now time.Time) time.Duration {
	if s == nil {
		return 0
	}

	return s.TargetFireTime.Sub(now)
}

// Status is a snapshot of the alarm for the presentation boundary.
type Status struct {
	// Phase is the current lifecycle phase.
	Phase string `json:"phase"`
	// TargetFireTime is the pending deadline; zero when idle.
	TargetFireTime time.Time `json:"target_fire_time,omitzero"`
	// Remaining is a human-readable time left until the deadline, e.g. "7h 41m".
	Remaining string `json:"remaining,omitempty"`
	// Question is the live challenge text while firing.
	Question string `json:"question,omitempty"`
	// Solved is how many challenges have been answered correctly.
	Solved uint `json:"solved"`
	// Quota is how many correct answers silence the alarm.
	Quota uint `json:"quota"`
	// Progress is Solved/Quota in [0,1].
	Progress float64 `json:"progress"`
}

// Actor identifies the host and user on whose machine the alarm fired.
// It is attached to escalation captions so recipients know who overslept.
type Actor struct {
	// Hostname is the machine name.
	Hostname string
	// Username is the system user.
	Username string
}

// Clone returns a deep copy of the actor.
func (a *Actor) Clone() *Actor {
	if a == nil {
		return nil
	}

	cloned := *a

	return &cloned
}

// String renders the actor as "user@host".
func (a *Actor) String() string {
	if a == nil {
		return ""
	}

	return a.Username + "@" + a.Hostname
}
