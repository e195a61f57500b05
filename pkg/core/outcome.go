package core

import (
	"context"
	"errors"
	"time"
)

// ProcessFunc services one locked job and reports what should happen to it.
type ProcessFunc func(ctx context.Context, job *Job) Outcome

// Schedule defines when a recurring job should run next.
type Schedule interface {
	Next(from time.Time) time.Time
}

type outcomeKind int

const (
	outcomeFailed outcomeKind = iota
	outcomeDone
	outcomeRetry
)

// Outcome is the result of a processing function: the job is rescheduled
// (Retry, RetryAt, RetryOn), finished (Done), or the cycle failed (Failed).
// The zero Outcome is a failure.
type Outcome struct {
	kind     outcomeKind
	data     []byte
	delay    time.Duration
	at       *time.Time
	schedule Schedule
	err      error
}

// Retry stores data and makes the job due again after delay.
func Retry(data []byte, delay time.Duration) Outcome {
	return Outcome{kind: outcomeRetry, data: data, delay: delay}
}

// RetryAt stores data and makes the job due again at t.
func RetryAt(data []byte, t time.Time) Outcome {
	return Outcome{kind: outcomeRetry, data: data, at: &t}
}

// RetryOn stores data and makes the job due at the schedule's next tick.
func RetryOn(data []byte, s Schedule) Outcome {
	return Outcome{kind: outcomeRetry, data: data, schedule: s}
}

// Done stores data and makes the job inactive.
func Done(data []byte) Outcome {
	return Outcome{kind: outcomeDone, data: data}
}

// Failed rolls the cycle back, leaving the job untouched.
func Failed(err error) Outcome {
	if err == nil {
		err = errors.New("processing failed")
	}
	return Outcome{kind: outcomeFailed, err: err}
}

// Err returns the failure reason, or nil for a successful outcome.
func (o Outcome) Err() error {
	if o.kind != outcomeFailed {
		return nil
	}
	if o.err == nil {
		return errors.New("processing failed")
	}
	return o.err
}

// Data returns the data to store on success.
func (o Outcome) Data() []byte {
	return o.data
}

// Rescheduled reports whether the job stays active after this outcome.
func (o Outcome) Rescheduled() bool {
	return o.kind == outcomeRetry
}

// NextDelay returns the delay until the job is next due, relative to now.
// It is nil when the job becomes inactive or the outcome is a failure.
func (o Outcome) NextDelay(now time.Time) *time.Duration {
	if o.kind != outcomeRetry {
		return nil
	}
	var d time.Duration
	switch {
	case o.schedule != nil:
		d = o.schedule.Next(now).Sub(now)
	case o.at != nil:
		d = o.at.Sub(now)
	default:
		d = o.delay
	}
	if d < 0 {
		d = 0
	}
	return &d
}
