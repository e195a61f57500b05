// Package jobctx provides public access to job context for processing functions.
package jobctx

import (
	"context"

	"github.com/jdziat/rowlock-jobs/pkg/core"
	intctx "github.com/jdziat/rowlock-jobs/pkg/internal/context"
)

// JobFromContext returns the job being serviced, or nil outside a processing function.
func JobFromContext(ctx context.Context) *core.Job {
	jc := intctx.GetJobContext(ctx)
	if jc == nil {
		return nil
	}
	return jc.Job
}

// JobIDFromContext returns the current job ID from context, or empty string
// outside a processing function.
func JobIDFromContext(ctx context.Context) string {
	job := JobFromContext(ctx)
	if job == nil {
		return ""
	}
	return job.ID
}

// WorkerIDFromContext returns the id of the worker servicing the job. It is
// empty for ProcessNow cycles and outside a processing function.
func WorkerIDFromContext(ctx context.Context) string {
	jc := intctx.GetJobContext(ctx)
	if jc == nil {
		return ""
	}
	return jc.WorkerID
}

// IsImmediate reports whether the job is being serviced through ProcessNow.
func IsImmediate(ctx context.Context) bool {
	jc := intctx.GetJobContext(ctx)
	return jc != nil && jc.Immediate
}

// WithJob returns a context carrying job, as the controller builds it for a
// processing function. It is intended for tests of processing functions.
func WithJob(ctx context.Context, job *core.Job, workerID string) context.Context {
	return intctx.WithJobContext(ctx, &intctx.JobContext{
		Job:       job,
		WorkerID:  workerID,
		Immediate: workerID == "",
	})
}
