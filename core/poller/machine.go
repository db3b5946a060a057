// Package poller drives an analysis job through start, status polling and reload.
//
// Machine holds the transition rules as pure functions of (snapshot, event).
// Poller executes the effects those rules emit against a backend and a clock.
package poller

import (
	"errors"
	"time"

	"github.com/documetrics/docudash/schema"
)

// Defaults for a poller run.
const (
	DefaultInterval      = 5 * time.Second
	DefaultMaxAttempts   = 60
	DefaultStatusRetries = 3
)

// Action is the kind of side effect a transition asks for.
type Action string

// Actions emitted by Machine.
const (
	StartAction  Action = "start"  // submit the path to /api/analyze
	CheckAction  Action = "check"  // query /api/status after Delay
	ReloadAction Action = "reload" // fetch and parse the metrics CSV
)

// Effect is one side effect requested by a transition.
type Effect struct {
	Action Action
	Delay  time.Duration
}

// Machine is the transition table of a poller run.
// MaxAttempts bounds the number of status checks; zero means unbounded.
// StatusRetries is how many consecutive failed status checks are tolerated.
type Machine struct {
	Interval      time.Duration
	MaxAttempts   int
	StatusRetries int
}

// NewMachine returns a Machine with the default cadence and bounds.
func NewMachine() Machine {
	return Machine{
		Interval:      DefaultInterval,
		MaxAttempts:   DefaultMaxAttempts,
		StatusRetries: DefaultStatusRetries,
	}
}

// Begin starts a run for path from any phase.
func (m Machine) Begin(s schema.PollSnapshot, path string) (schema.PollSnapshot, []Effect) {
	next := schema.PollSnapshot{
		Generation: s.Generation,
		Phase:      schema.StartingPhase,
		Path:       path,
		StartedAt:  s.StartedAt,
	}
	return next, []Effect{{Action: StartAction}}
}

// Started handles the reply to the start request. A rejection fails the run
// without entering the polling phase.
func (m Machine) Started(s schema.PollSnapshot, err error) (schema.PollSnapshot, []Effect) {
	if s.Phase != schema.StartingPhase {
		return s, nil
	}
	if err != nil {
		return fail(s, schema.FailedPhase, messageOr(err, schema.StartFailedMessage)), nil
	}
	s.Phase = schema.PollingPhase
	return s, []Effect{{Action: CheckAction}}
}

// Observe applies one status reading.
func (m Machine) Observe(s schema.PollSnapshot, status schema.JobStatus) (schema.PollSnapshot, []Effect) {
	if s.Phase != schema.PollingPhase {
		return s, nil
	}
	s.Attempts++
	s.StatusErrors = 0

	if status.Error != "" {
		return fail(s, schema.FailedPhase, status.Error), nil
	}

	if status.InProgress {
		s.Progress = status.Progress
		s.StatusMessage = status.StatusMessage
		if m.exhausted(s) {
			return fail(s, schema.TimedOutPhase, schema.TimedOutMessage), nil
		}
		return s, []Effect{{Action: CheckAction, Delay: m.Interval}}
	}

	if status.Result != nil && status.Result.Code == 0 {
		s.Phase = schema.SucceededPhase
		s.Progress = status.Progress
		s.StatusMessage = status.StatusMessage
		return s, []Effect{{Action: ReloadAction}}
	}

	msg := schema.AnalysisFailedMessage
	if status.Result != nil && status.Result.Message != "" {
		msg = status.Result.Message
	}
	return fail(s, schema.FailedPhase, msg), nil
}

// CheckFailed handles a status request that did not produce a reading.
// The failed check still counts as an attempt.
func (m Machine) CheckFailed(s schema.PollSnapshot, err error) (schema.PollSnapshot, []Effect) {
	if s.Phase != schema.PollingPhase {
		return s, nil
	}
	s.Attempts++
	s.StatusErrors++
	if s.StatusErrors > m.StatusRetries {
		return fail(s, schema.FailedPhase, messageOr(err, schema.StatusFailedMessage)), nil
	}
	if m.exhausted(s) {
		return fail(s, schema.TimedOutPhase, schema.TimedOutMessage), nil
	}
	return s, []Effect{{Action: CheckAction, Delay: m.Interval}}
}

// Reloaded records the outcome of the dataset reload that follows success.
// The run stays succeeded; a failed load only sets Err.
func (m Machine) Reloaded(s schema.PollSnapshot, err error) (schema.PollSnapshot, []Effect) {
	if s.Phase != schema.SucceededPhase {
		return s, nil
	}
	if err != nil {
		s.Err = UserMessage(err)
		return s, nil
	}
	s.Reloaded = true
	return s, nil
}

func (m Machine) exhausted(s schema.PollSnapshot) bool {
	return m.MaxAttempts > 0 && s.Attempts >= m.MaxAttempts
}

func fail(s schema.PollSnapshot, phase schema.Phase, msg string) schema.PollSnapshot {
	s.Phase = phase
	s.Err = msg
	return s
}

// UserMessager is implemented by errors that carry a message meant for display,
// such as a structured backend rejection.
type UserMessager interface {
	UserMessage() string
}

func messageOr(err error, fallback string) string {
	var um UserMessager
	if errors.As(err, &um) && um.UserMessage() != "" {
		return um.UserMessage()
	}
	if err == nil || err.Error() == "" {
		return fallback
	}
	return fallback + ": " + err.Error()
}

// UserMessage returns the display message of err, or its text.
func UserMessage(err error) string {
	var um UserMessager
	if errors.As(err, &um) && um.UserMessage() != "" {
		return um.UserMessage()
	}
	return err.Error()
}
