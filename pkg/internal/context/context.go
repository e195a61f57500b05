package context

import (
	"context"

	"github.com/jdziat/rowlock-jobs/pkg/core"
)

// JobContextKey is the key for storing job context in context.Context.
type JobContextKey struct{}

// JobContext holds the job being serviced and who is servicing it.
type JobContext struct {
	Job *core.Job
	// WorkerID is empty when the job is serviced through ProcessNow.
	WorkerID string
	// Immediate is set for ProcessNow cycles.
	Immediate bool
}

// GetJobContext retrieves the job context from a context.Context.
func GetJobContext(ctx context.Context) *JobContext {
	if jc, ok := ctx.Value(JobContextKey{}).(*JobContext); ok {
		return jc
	}
	return nil
}

// WithJobContext adds job context to a context.Context.
func WithJobContext(ctx context.Context, jc *JobContext) context.Context {
	return context.WithValue(ctx, JobContextKey{}, jc)
}
