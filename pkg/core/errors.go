package core

import (
	"errors"
	"fmt"
)

var (
	ErrJobNotFound     = errors.New("jobs: job not found")
	ErrJobLocked       = errors.New("jobs: job is locked by another session")
	ErrJobDataTooLarge = errors.New("jobs: job data exceeds size limit")
	ErrAlreadyRunning  = errors.New("jobs: worker is already processing")
	ErrSessionDone     = errors.New("jobs: session already committed or rolled back")
)

// ConnectionError reports that a database connection could not be acquired
// or stopped working.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("jobs: connection: %v", e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// StoreError reports a failed store operation.
type StoreError struct {
	Op    string
	JobID string
	Err   error
}

func (e *StoreError) Error() string {
	if e.JobID == "" {
		return fmt.Sprintf("jobs: store %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("jobs: store %s %s: %v", e.Op, e.JobID, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// JobNotFoundError reports that a job targeted by id could not be located or
// locked. It matches ErrJobNotFound with errors.Is.
type JobNotFoundError struct {
	JobID string
	Err   error
}

func (e *JobNotFoundError) Error() string {
	if e.Err != nil && !errors.Is(e.Err, ErrJobNotFound) {
		return fmt.Sprintf("jobs: job %s not found: %v", e.JobID, e.Err)
	}
	return fmt.Sprintf("jobs: job %s not found", e.JobID)
}

func (e *JobNotFoundError) Unwrap() error {
	return e.Err
}

func (e *JobNotFoundError) Is(target error) bool {
	return target == ErrJobNotFound
}

// ProcessingError carries a failure reported by a processing function.
type ProcessingError struct {
	JobID string
	Err   error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("jobs: processing %s: %v", e.JobID, e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}
