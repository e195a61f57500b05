package core

import (
	"context"
	"time"
)

// Ops are the job operations a store performs against either a bare
// connection or an open transaction on it.
type Ops interface {
	// Write inserts a job when id is empty and updates it in place otherwise.
	// A nil delay makes the job inactive. It returns the job's id.
	Write(ctx context.Context, id string, delay *time.Duration, data []byte) (string, error)

	// NextToProcess selects and locks one due job. It returns (nil, nil) when
	// no job is due, and never returns a job locked by another session.
	NextToProcess(ctx context.Context) (*Job, error)

	// ObtainLock locks a specific job. It returns ErrJobNotFound when the job
	// does not exist or cannot be locked.
	ObtainLock(ctx context.Context, id string) error

	// Unlock releases a lock taken with ObtainLock.
	Unlock(ctx context.Context, id string) error

	// GetDataForJob returns a snapshot of a job, or ErrJobNotFound.
	GetDataForJob(ctx context.Context, id string) (*Job, error)

	// SetProcessedNow stamps the job's processed time.
	SetProcessedNow(ctx context.Context, id string) error
}

// Conn is one database connection. Close returns it to its pool and may be
// called more than once.
type Conn interface {
	Ops
	Begin(ctx context.Context) (Tx, error)
	Close() error
}

// Tx is a transaction opened on a Conn. Locks taken through a Tx are
// released when it commits or rolls back.
type Tx interface {
	Ops
	Commit() error
	Rollback() error
}

// Store defines the persistence layer for jobs.
type Store interface {
	// Migrate creates the necessary database tables.
	Migrate(ctx context.Context) error

	// Connect acquires a dedicated connection.
	Connect(ctx context.Context) (Conn, error)
}
