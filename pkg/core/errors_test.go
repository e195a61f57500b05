package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJobNotFoundError_MatchesSentinel(t *testing.T) {
	err := error(&JobNotFoundError{JobID: "abc"})

	assert.True(t, errors.Is(err, ErrJobNotFound))
	assert.Contains(t, err.Error(), "abc")

	var nf *JobNotFoundError
	assert.True(t, errors.As(err, &nf))
	assert.Equal(t, "abc", nf.JobID)
}

func TestJobNotFoundError_WrapsCause(t *testing.T) {
	cause := errors.New("lock timeout")
	err := &JobNotFoundError{JobID: "abc", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "lock timeout")
}

func TestStoreError(t *testing.T) {
	cause := errors.New("disk full")
	err := &StoreError{Op: "write", JobID: "j1", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "write")
	assert.Contains(t, err.Error(), "j1")

	noID := &StoreError{Op: "commit", Err: cause}
	assert.Equal(t, "jobs: store commit: disk full", noID.Error())
}

func TestConnectionError(t *testing.T) {
	cause := errors.New("refused")
	err := &ConnectionError{Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection")
}

func TestProcessingError(t *testing.T) {
	cause := errors.New("bad payload")
	err := &ProcessingError{JobID: "j1", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.False(t, errors.Is(err, ErrJobNotFound))
	assert.Contains(t, err.Error(), "bad payload")
}

func TestErrorVariables(t *testing.T) {
	assert.NotNil(t, ErrJobNotFound)
	assert.NotNil(t, ErrJobDataTooLarge)
	assert.NotNil(t, ErrAlreadyRunning)
	assert.NotNil(t, ErrSessionDone)
}
