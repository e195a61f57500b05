// Package processor adapts typed functions into core.ProcessFunc values.
package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jdziat/rowlock-jobs/pkg/core"
	"github.com/jdziat/rowlock-jobs/pkg/security"
)

// Result is the outcome of a typed processing function. Build one with
// Retry, RetryAt, RetryOn, Done or Failed; the zero Result is a failure.
type Result[T any] struct {
	value T
	build func(data []byte) core.Outcome
	err   error
}

// Retry stores v and makes the job due again after delay.
func Retry[T any](v T, delay time.Duration) Result[T] {
	return Result[T]{value: v, build: func(b []byte) core.Outcome { return core.Retry(b, delay) }}
}

// RetryAt stores v and makes the job due again at t.
func RetryAt[T any](v T, t time.Time) Result[T] {
	return Result[T]{value: v, build: func(b []byte) core.Outcome { return core.RetryAt(b, t) }}
}

// RetryOn stores v and makes the job due at the schedule's next tick.
func RetryOn[T any](v T, s core.Schedule) Result[T] {
	return Result[T]{value: v, build: func(b []byte) core.Outcome { return core.RetryOn(b, s) }}
}

// Done stores v and makes the job inactive.
func Done[T any](v T) Result[T] {
	return Result[T]{value: v, build: core.Done}
}

// Failed rolls the cycle back.
func Failed[T any](err error) Result[T] {
	return Result[T]{err: err}
}

// Func processes a job's data decoded as T.
type Func[T any] func(ctx context.Context, id string, data T) Result[T]

// JSON adapts fn into a core.ProcessFunc. The job's data is decoded from JSON
// before fn runs and the returned value is encoded back. Empty data decodes
// to the zero T. A decode or encode error fails the cycle.
func JSON[T any](fn Func[T]) core.ProcessFunc {
	return func(ctx context.Context, job *core.Job) core.Outcome {
		data, err := Decode[T](job.Data)
		if err != nil {
			return core.Failed(err)
		}

		res := fn(ctx, job.ID, data)
		if res.build == nil {
			return core.Failed(res.err)
		}

		encoded, err := Encode(res.value)
		if err != nil {
			return core.Failed(err)
		}
		return res.build(encoded)
	}
}

// Encode marshals v into job data, enforcing the data size limit.
func Encode[T any](v T) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal data: %w", err)
	}
	if err := security.ValidateJobData(b); err != nil {
		return nil, err
	}
	return b, nil
}

// Decode unmarshals job data into a T.
func Decode[T any](data []byte) (T, error) {
	var v T
	if len(data) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("failed to unmarshal data: %w", err)
	}
	return v, nil
}
