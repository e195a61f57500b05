package core

import (
	"context"
	"time"
)

// EventKind names a lifecycle notification.
type EventKind string

const (
	KindJobUpdated          EventKind = "jobUpdated"
	KindMaybeServiceJob     EventKind = "maybeServiceJob"
	KindDrain               EventKind = "drain"
	KindProcessCommitted    EventKind = "processCommitted"
	KindProcessNowCommitted EventKind = "processNowCommitted"
	KindStopProcess         EventKind = "stopProcess"
	KindServiceFailed       EventKind = "serviceFailed"
)

// Event is the interface for all lifecycle events.
type Event interface {
	Kind() EventKind
}

// Observer receives lifecycle events. Emit is called synchronously from the
// goroutine running the lifecycle step.
type Observer interface {
	Emit(ctx context.Context, e Event)
}

// JobUpdated is emitted after a successful cycle rewrote a job and committed.
type JobUpdated struct {
	Job       *Job
	Timestamp time.Time
}

func (*JobUpdated) Kind() EventKind { return KindJobUpdated }

// MaybeServiceJob is emitted at the top of each polling iteration.
type MaybeServiceJob struct {
	WorkerID  string
	Timestamp time.Time
}

func (*MaybeServiceJob) Kind() EventKind { return KindMaybeServiceJob }

// Drain is emitted when a poll finds no due job.
type Drain struct {
	WorkerID  string
	Timestamp time.Time
}

func (*Drain) Kind() EventKind { return KindDrain }

// ProcessCommitted is emitted after a polling-driven cycle's transaction
// resolved. Committed is false when the cycle was rolled back.
type ProcessCommitted struct {
	WorkerID  string
	Job       *Job
	Committed bool
	Err       error
	Timestamp time.Time
}

func (*ProcessCommitted) Kind() EventKind { return KindProcessCommitted }

// ProcessNowCommitted is emitted after an immediate-service cycle's
// transaction resolved.
type ProcessNowCommitted struct {
	Job       *Job
	Committed bool
	Err       error
	Timestamp time.Time
}

func (*ProcessNowCommitted) Kind() EventKind { return KindProcessNowCommitted }

// ServiceFailed is emitted when a cycle failed, whether the processing
// function reported the failure or the store did.
type ServiceFailed struct {
	Job       *Job
	Err       error
	Timestamp time.Time
}

func (*ServiceFailed) Kind() EventKind { return KindServiceFailed }

// StopProcess is emitted when a polling loop exits.
type StopProcess struct {
	WorkerID  string
	Err       error
	Timestamp time.Time
}

func (*StopProcess) Kind() EventKind { return KindStopProcess }

// NopObserver discards every event.
type NopObserver struct{}

func (NopObserver) Emit(context.Context, Event) {}
