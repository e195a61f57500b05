package queue

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jdziat/rowlock-jobs/pkg/core"
	"github.com/jdziat/rowlock-jobs/pkg/security"
)

// Queue creates jobs and services them through the store's row locks.
type Queue struct {
	store    core.Store
	observer core.Observer
	clock    core.Clock
	logger   *slog.Logger
}

// New creates a new Queue with the given storage backend.
func New(s core.Store, opts ...Option) *Queue {
	cfg := NewConfig()
	for _, opt := range opts {
		opt.Apply(cfg)
	}
	return &Queue{
		store:    s,
		observer: cfg.Observer,
		clock:    cfg.Clock,
		logger:   cfg.Logger,
	}
}

// Storage returns the underlying storage.
func (q *Queue) Storage() core.Store {
	return q.store
}

// Clock returns the queue's time source.
func (q *Queue) Clock() core.Clock {
	return q.clock
}

// Logger returns the queue's logger.
func (q *Queue) Logger() *slog.Logger {
	return q.logger
}

// Emit delivers an event to the observer.
func (q *Queue) Emit(ctx context.Context, e core.Event) {
	q.observer.Emit(ctx, e)
}

// Connect acquires a dedicated connection from the store.
func (q *Queue) Connect(ctx context.Context) (core.Conn, error) {
	conn, err := q.store.Connect(ctx)
	if err != nil {
		return nil, &core.ConnectionError{Err: err}
	}
	return conn, nil
}

// Release returns conn to the store, logging a failed close.
func (q *Queue) Release(conn core.Conn) {
	if err := conn.Close(); err != nil {
		q.logger.Warn("failed to release connection", "error", err)
	}
}

// CreateJob stores a new job that becomes due after delay. A negative delay
// is treated as zero.
func (q *Queue) CreateJob(ctx context.Context, data []byte, delay time.Duration) (string, error) {
	if err := security.ValidateJobData(data); err != nil {
		return "", err
	}
	if delay < 0 {
		delay = 0
	}

	conn, err := q.Connect(ctx)
	if err != nil {
		return "", err
	}
	defer q.Release(conn)

	id, err := conn.Write(ctx, "", &delay, data)
	if err != nil {
		return "", &core.StoreError{Op: "write", Err: err}
	}

	q.logger.Debug("job created", "job_id", id, "delay", delay)
	return id, nil
}

// GetJob returns a snapshot of a job.
func (q *Queue) GetJob(ctx context.Context, id string) (*core.Job, error) {
	if err := security.ValidateJobID(id); err != nil {
		return nil, &core.JobNotFoundError{JobID: id, Err: err}
	}

	conn, err := q.Connect(ctx)
	if err != nil {
		return nil, err
	}
	defer q.Release(conn)

	job, err := conn.GetDataForJob(ctx, id)
	if err != nil {
		return nil, lookupError("get", id, err)
	}
	return job, nil
}

// ProcessNow locks the job with the given id and services it immediately,
// whether or not it is due. The lock and the connection are released on
// every path.
func (q *Queue) ProcessNow(ctx context.Context, id string, fn core.ProcessFunc) error {
	if err := security.ValidateJobID(id); err != nil {
		return &core.JobNotFoundError{JobID: id, Err: err}
	}

	conn, err := q.Connect(ctx)
	if err != nil {
		return err
	}
	defer q.Release(conn)

	sess, err := Begin(ctx, conn)
	if err != nil {
		return err
	}

	if err := sess.ObtainLock(ctx, id); err != nil {
		q.abandon(sess, id)
		return lookupError("lock", id, err)
	}
	defer func() {
		if err := conn.Unlock(context.WithoutCancel(ctx), id); err != nil {
			q.logger.Warn("failed to unlock job", "job_id", id, "error", err)
		}
	}()

	job, err := sess.GetDataForJob(ctx, id)
	if err != nil {
		q.abandon(sess, id)
		return lookupError("get", id, err)
	}

	return q.Service(ctx, sess, job, fn, "")
}

// abandon rolls back a session that never reached the service protocol.
func (q *Queue) abandon(sess *Session, id string) {
	if err := sess.Rollback(); err != nil {
		q.logger.Warn("failed to roll back", "job_id", id, "error", err)
	}
}

// lookupError maps store errors for a targeted job to the controller's
// error taxonomy.
func lookupError(op, id string, err error) error {
	if errors.Is(err, core.ErrJobNotFound) || errors.Is(err, core.ErrJobLocked) {
		return &core.JobNotFoundError{JobID: id, Err: err}
	}
	return &core.StoreError{Op: op, JobID: id, Err: err}
}
