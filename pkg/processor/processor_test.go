package processor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdziat/rowlock-jobs/pkg/core"
	"github.com/jdziat/rowlock-jobs/pkg/security"
)

// ---------------------------------------------------------------------------
// Helper types used across multiple tests
// ---------------------------------------------------------------------------

type emailState struct {
	To       string `json:"to"`
	Attempts int    `json:"attempts"`
	Sent     bool   `json:"sent"`
}

var now = time.Date(2026, 2, 8, 10, 30, 0, 0, time.UTC)

func runJSON[T any](t *testing.T, fn Func[T], data string) core.Outcome {
	t.Helper()
	return JSON(fn)(context.Background(), &core.Job{ID: "job-1", Data: []byte(data)})
}

// ---------------------------------------------------------------------------
// JSON – outcomes
// ---------------------------------------------------------------------------

func TestJSON_DoneEncodesValue(t *testing.T) {
	out := runJSON(t, func(_ context.Context, id string, s emailState) Result[emailState] {
		assert.Equal(t, "job-1", id)
		assert.Equal(t, "a@example.com", s.To)
		s.Sent = true
		return Done(s)
	}, `{"to":"a@example.com"}`)

	require.NoError(t, out.Err())
	assert.False(t, out.Rescheduled())
	assert.Nil(t, out.NextDelay(now))
	assert.JSONEq(t, `{"to":"a@example.com","attempts":0,"sent":true}`, string(out.Data()))
}

func TestJSON_RetryVariants(t *testing.T) {
	hourly := everyHour{}
	tests := []struct {
		name  string
		build func(emailState) Result[emailState]
		want  time.Duration
	}{
		{"delay", func(s emailState) Result[emailState] { return Retry(s, time.Minute) }, time.Minute},
		{"at", func(s emailState) Result[emailState] { return RetryAt(s, now.Add(2*time.Hour)) }, 2 * time.Hour},
		{"schedule", func(s emailState) Result[emailState] { return RetryOn[emailState](s, hourly) }, 30 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := runJSON(t, func(_ context.Context, _ string, s emailState) Result[emailState] {
				s.Attempts++
				return tt.build(s)
			}, `{"to":"b@example.com","attempts":2}`)

			require.NoError(t, out.Err())
			assert.True(t, out.Rescheduled())
			delay := out.NextDelay(now)
			require.NotNil(t, delay)
			assert.Equal(t, tt.want, *delay)
			assert.Contains(t, string(out.Data()), `"attempts":3`)
		})
	}
}

type everyHour struct{}

func (everyHour) Next(from time.Time) time.Time { return from.Truncate(time.Hour).Add(time.Hour) }

func TestJSON_Failed(t *testing.T) {
	reason := errors.New("mailbox full")
	out := runJSON(t, func(context.Context, string, emailState) Result[emailState] {
		return Failed[emailState](reason)
	}, `{}`)

	assert.ErrorIs(t, out.Err(), reason)
}

func TestJSON_ZeroResultFails(t *testing.T) {
	out := runJSON(t, func(context.Context, string, emailState) Result[emailState] {
		return Result[emailState]{}
	}, `{}`)

	assert.Error(t, out.Err())
}

// ---------------------------------------------------------------------------
// JSON – encoding errors
// ---------------------------------------------------------------------------

func TestJSON_EmptyDataDecodesToZero(t *testing.T) {
	var got emailState
	out := runJSON(t, func(_ context.Context, _ string, s emailState) Result[emailState] {
		got = s
		return Done(s)
	}, "")

	require.NoError(t, out.Err())
	assert.Equal(t, emailState{}, got)
}

func TestJSON_InvalidDataFails(t *testing.T) {
	called := false
	out := runJSON(t, func(_ context.Context, _ string, s emailState) Result[emailState] {
		called = true
		return Done(s)
	}, `{"to":`)

	require.Error(t, out.Err())
	assert.Contains(t, out.Err().Error(), "unmarshal")
	assert.False(t, called)
}

func TestJSON_UnencodableValueFails(t *testing.T) {
	out := runJSON(t, func(context.Context, string, map[string]any) Result[map[string]any] {
		return Done(map[string]any{"ch": make(chan int)})
	}, `{}`)

	require.Error(t, out.Err())
	assert.Contains(t, out.Err().Error(), "marshal")
}

func TestJSON_OversizedValueFails(t *testing.T) {
	out := runJSON(t, func(context.Context, string, string) Result[string] {
		return Done(strings.Repeat("x", security.MaxJobDataSize))
	}, `""`)

	assert.ErrorIs(t, out.Err(), core.ErrJobDataTooLarge)
}

// ---------------------------------------------------------------------------
// Encode / Decode
// ---------------------------------------------------------------------------

func TestEncodeDecode(t *testing.T) {
	b, err := Encode(emailState{To: "c@example.com", Attempts: 1})
	require.NoError(t, err)

	got, err := Decode[emailState](b)
	require.NoError(t, err)
	assert.Equal(t, emailState{To: "c@example.com", Attempts: 1}, got)
}

func TestDecode_WrongShape(t *testing.T) {
	_, err := Decode[emailState]([]byte(`[1,2,3]`))
	assert.Error(t, err)
}
