package queue

import (
	"context"
	"fmt"

	"github.com/jdziat/rowlock-jobs/pkg/core"
	intctx "github.com/jdziat/rowlock-jobs/pkg/internal/context"
	"github.com/jdziat/rowlock-jobs/pkg/security"
)

// Service runs fn against a job locked in sess and resolves the session.
//
// On success the job is stamped processed, rewritten with the outcome's data
// and next due time, and committed; jobUpdated carries the job as stored and
// the commit event follows it. On failure the session rolls back and the job
// is left as it was. workerID names the polling worker, or is empty for
// ProcessNow.
func (q *Queue) Service(ctx context.Context, sess *Session, job *core.Job, fn core.ProcessFunc, workerID string) error {
	jobCtx := intctx.WithJobContext(ctx, &intctx.JobContext{
		Job:       job.Clone(),
		WorkerID:  workerID,
		Immediate: workerID == "",
	})
	out := invoke(jobCtx, fn, job.Clone())

	reason := out.Err()
	if reason == nil {
		reason = security.ValidateJobData(out.Data())
	}
	if reason != nil {
		q.logger.Warn("job processing failed",
			"job_id", job.ID,
			"worker_id", workerID,
			"error", security.SanitizeErrorMessage(reason.Error()),
		)
		return q.abort(ctx, sess, job, workerID, &core.ProcessingError{JobID: job.ID, Err: reason})
	}

	delay := out.NextDelay(q.clock.Now())

	if err := sess.SetProcessedNow(ctx, job.ID); err != nil {
		return q.abort(ctx, sess, job, workerID, q.storeFailure(job, workerID, "set processed", err))
	}
	if _, err := sess.Write(ctx, job.ID, delay, out.Data()); err != nil {
		return q.abort(ctx, sess, job, workerID, q.storeFailure(job, workerID, "write", err))
	}
	updated, err := sess.GetDataForJob(ctx, job.ID)
	if err != nil {
		return q.abort(ctx, sess, job, workerID, q.storeFailure(job, workerID, "read back", err))
	}
	if err := sess.Resolve(nil); err != nil {
		return q.fail(ctx, job, &core.StoreError{Op: "commit", JobID: job.ID, Err: err})
	}

	q.logger.Debug("job serviced", "job_id", job.ID, "worker_id", workerID, "active", updated.Active())
	q.Emit(ctx, &core.JobUpdated{Job: updated, Timestamp: q.clock.Now()})
	q.emitCommitted(ctx, workerID, updated, true, nil)
	return nil
}

// storeFailure logs and wraps a store operation that failed mid-cycle.
func (q *Queue) storeFailure(job *core.Job, workerID, op string, err error) error {
	serr := &core.StoreError{Op: op, JobID: job.ID, Err: err}
	q.logger.Error("job service failed",
		"job_id", job.ID,
		"worker_id", workerID,
		"error", security.SanitizeErrorMessage(serr.Error()),
	)
	return serr
}

// abort rolls sess back after cause. A clean rollback resolves the cycle, so
// serviceFailed is followed by the commit event with Committed unset.
func (q *Queue) abort(ctx context.Context, sess *Session, job *core.Job, workerID string, cause error) error {
	// Resolve returns cause unchanged only when the rollback succeeded.
	if err := sess.Resolve(cause); err != cause {
		return q.fail(ctx, job, err)
	}
	q.Emit(ctx, &core.ServiceFailed{Job: job, Err: cause, Timestamp: q.clock.Now()})
	q.emitCommitted(ctx, workerID, job, false, cause)
	return cause
}

// fail reports a cycle whose transaction state is unknown. Only serviceFailed
// fires.
func (q *Queue) fail(ctx context.Context, job *core.Job, err error) error {
	q.logger.Error("job service failed",
		"job_id", job.ID,
		"error", security.SanitizeErrorMessage(err.Error()),
	)
	q.Emit(ctx, &core.ServiceFailed{Job: job, Err: err, Timestamp: q.clock.Now()})
	return err
}

func (q *Queue) emitCommitted(ctx context.Context, workerID string, job *core.Job, committed bool, err error) {
	if workerID == "" {
		q.Emit(ctx, &core.ProcessNowCommitted{Job: job, Committed: committed, Err: err, Timestamp: q.clock.Now()})
		return
	}
	q.Emit(ctx, &core.ProcessCommitted{WorkerID: workerID, Job: job, Committed: committed, Err: err, Timestamp: q.clock.Now()})
}

func invoke(ctx context.Context, fn core.ProcessFunc, job *core.Job) (out core.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = core.Failed(fmt.Errorf("panic: %v", r))
		}
	}()
	return fn(ctx, job)
}
