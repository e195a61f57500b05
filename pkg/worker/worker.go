package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/jdziat/rowlock-jobs/pkg/core"
	"github.com/jdziat/rowlock-jobs/pkg/queue"
	"github.com/jdziat/rowlock-jobs/pkg/security"
)

// Worker repeatedly claims and services due jobs on a single connection.
type Worker struct {
	queue  *queue.Queue
	config WorkerConfig
	logger *slog.Logger

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	stopped bool
}

// NewWorker creates a new worker for the given queue.
func NewWorker(q *queue.Queue, opts ...WorkerOption) *Worker {
	config := WorkerConfig{
		PollInterval: DefaultPollInterval,
		WorkerID:     uuid.New().String(),
	}

	for _, opt := range opts {
		opt.ApplyWorker(&config)
	}

	if config.ConnectRetry == nil {
		defaultCfg := DefaultRetryConfig()
		config.ConnectRetry = &defaultCfg
	}

	return &Worker{
		queue:  q,
		config: config,
		logger: q.Logger().With("worker_id", config.WorkerID),
	}
}

// ID returns the worker's id.
func (w *Worker) ID() string {
	return w.config.WorkerID
}

// Running reports whether Start is in progress.
func (w *Worker) Running() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// Start processes due jobs until Stop is called, ctx ends, or the connection
// fails. It returns nil after Stop, ctx.Err() when ctx ended the loop, and a
// *core.ConnectionError when the connection could not be acquired or used.
// stopProcess is emitted on every exit.
func (w *Worker) Start(ctx context.Context, fn core.ProcessFunc) error {
	stop, err := w.begin()
	if err != nil {
		return err
	}
	defer w.end()

	w.logger.Info("worker starting", "poll_interval", w.config.PollInterval)

	conn, err := w.connect(ctx, stop)
	if err == nil {
		err = w.loop(ctx, conn, fn, stop)
		w.queue.Release(conn)
	}
	if errors.Is(err, errStopped) {
		err = nil
	}

	if err != nil {
		w.logger.Error("worker stopped", "error", security.SanitizeErrorMessage(err.Error()))
	} else {
		w.logger.Info("worker stopped")
	}
	w.queue.Emit(ctx, &core.StopProcess{WorkerID: w.config.WorkerID, Err: err, Timestamp: w.queue.Clock().Now()})
	return err
}

// Stop asks a running loop to exit after its current cycle. It is safe to
// call at any time and more than once.
func (w *Worker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running && !w.stopped {
		w.stopped = true
		close(w.stop)
	}
}

var errStopped = errors.New("worker stopped")

func (w *Worker) begin() (<-chan struct{}, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return nil, core.ErrAlreadyRunning
	}
	w.running = true
	w.stopped = false
	w.stop = make(chan struct{})
	return w.stop, nil
}

func (w *Worker) end() {
	w.mu.Lock()
	w.running = false
	w.mu.Unlock()
}

// connect acquires the loop's connection, retrying with backoff. A Stop during
// the retries abandons them.
func (w *Worker) connect(ctx context.Context, stop <-chan struct{}) (core.Conn, error) {
	connectCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-stop:
			cancel()
		case <-connectCtx.Done():
		}
	}()

	var conn core.Conn
	err := retryWithBackoff(connectCtx, *w.config.ConnectRetry, func(attempt int) error {
		c, err := w.queue.Connect(connectCtx)
		if err != nil {
			w.logger.Warn("failed to acquire connection",
				"attempt", attempt,
				"max_attempts", w.config.ConnectRetry.MaxAttempts,
				"error", security.SanitizeErrorMessage(err.Error()),
			)
			return err
		}
		conn = c
		return nil
	})
	if err == nil {
		return conn, nil
	}
	if isClosed(stop) {
		return nil, errStopped
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	var connErr *core.ConnectionError
	if !errors.As(err, &connErr) {
		err = &core.ConnectionError{Err: err}
	}
	return nil, err
}

func (w *Worker) loop(ctx context.Context, conn core.Conn, fn core.ProcessFunc, stop <-chan struct{}) error {
	for {
		if isClosed(stop) {
			return errStopped
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		w.queue.Emit(ctx, &core.MaybeServiceJob{WorkerID: w.config.WorkerID, Timestamp: w.queue.Clock().Now()})

		sess, err := queue.Begin(ctx, conn)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}

		job, err := sess.NextToProcess(ctx)
		if err != nil {
			w.rollback(sess)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			serr := &core.StoreError{Op: "next", Err: err}
			w.logger.Error("failed to select next job", "error", security.SanitizeErrorMessage(serr.Error()))
			w.queue.Emit(ctx, &core.ServiceFailed{Err: serr, Timestamp: w.queue.Clock().Now()})
			w.wait(ctx, stop)
			continue
		}

		if job == nil {
			w.rollback(sess)
			w.queue.Emit(ctx, &core.Drain{WorkerID: w.config.WorkerID, Timestamp: w.queue.Clock().Now()})
			w.wait(ctx, stop)
			continue
		}

		// Errors are already logged and emitted by the service protocol; a
		// failed job never ends the loop.
		_ = w.queue.Service(ctx, sess, job, fn, w.config.WorkerID)
	}
}

// wait suspends until the poll interval elapses on the queue's clock, Stop is
// called, or ctx ends.
func (w *Worker) wait(ctx context.Context, stop <-chan struct{}) {
	select {
	case <-w.queue.Clock().After(w.config.PollInterval):
	case <-stop:
	case <-ctx.Done():
	}
}

func (w *Worker) rollback(sess *queue.Session) {
	if err := sess.Rollback(); err != nil {
		w.logger.Warn("failed to roll back empty poll", "error", err)
	}
}

func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}
