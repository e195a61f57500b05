package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdziat/rowlock-jobs/pkg/core"
)

func TestHooks_InsertionOrderAcrossSlots(t *testing.T) {
	h := New()
	var order []string

	h.OnDrain(func(context.Context, *core.Drain) { order = append(order, "drain-1") })
	h.Subscribe(func(_ context.Context, e core.Event) { order = append(order, "any:"+string(e.Kind())) })
	h.OnDrain(func(context.Context, *core.Drain) { order = append(order, "drain-2") })

	h.Emit(context.Background(), &core.Drain{WorkerID: "w"})

	assert.Equal(t, []string{"drain-1", "any:drain", "drain-2"}, order)
}

func TestHooks_TypedSlotsOnlySeeTheirKind(t *testing.T) {
	h := New()
	var updated, committed, stopped, failed, maybe, now int

	h.OnJobUpdated(func(context.Context, *core.JobUpdated) { updated++ })
	h.OnProcessCommitted(func(context.Context, *core.ProcessCommitted) { committed++ })
	h.OnProcessNowCommitted(func(context.Context, *core.ProcessNowCommitted) { now++ })
	h.OnStopProcess(func(context.Context, *core.StopProcess) { stopped++ })
	h.OnServiceFailed(func(context.Context, *core.ServiceFailed) { failed++ })
	h.OnMaybeServiceJob(func(context.Context, *core.MaybeServiceJob) { maybe++ })

	ctx := context.Background()
	h.Emit(ctx, &core.JobUpdated{})
	h.Emit(ctx, &core.ProcessCommitted{})
	h.Emit(ctx, &core.ProcessCommitted{})
	h.Emit(ctx, &core.MaybeServiceJob{})

	assert.Equal(t, 1, updated)
	assert.Equal(t, 2, committed)
	assert.Equal(t, 1, maybe)
	assert.Zero(t, now)
	assert.Zero(t, stopped)
	assert.Zero(t, failed)
}

func TestHooks_RemoveListener(t *testing.T) {
	h := New()
	var calls int
	remove := h.OnDrain(func(context.Context, *core.Drain) { calls++ })

	h.Emit(context.Background(), &core.Drain{})
	remove()
	h.Emit(context.Background(), &core.Drain{})

	assert.Equal(t, 1, calls)
}

func TestHooks_ListenerPanicsPropagate(t *testing.T) {
	h := New()
	h.OnDrain(func(context.Context, *core.Drain) { panic("listener bug") })

	assert.Panics(t, func() {
		h.Emit(context.Background(), &core.Drain{})
	})
}

func TestHooks_EventsStream(t *testing.T) {
	h := New()
	ch := h.Events()

	h.Emit(context.Background(), &core.StopProcess{WorkerID: "w1"})

	select {
	case e := <-ch:
		stop, ok := e.(*core.StopProcess)
		require.True(t, ok)
		assert.Equal(t, "w1", stop.WorkerID)
	default:
		t.Fatal("expected an event on the stream")
	}

	h.Unsubscribe(ch)
	h.Emit(context.Background(), &core.StopProcess{})
	assert.Len(t, ch, 0, "no events after unsubscribe")
}

func TestHooks_EventsStreamDropsWhenFull(t *testing.T) {
	h := New()
	ch := h.Events()
	defer h.Unsubscribe(ch)

	for i := 0; i < 150; i++ {
		h.Emit(context.Background(), &core.Drain{})
	}
	assert.Len(t, ch, 100)
}

func TestMulti(t *testing.T) {
	a, b := New(), New()
	var got []string
	a.Subscribe(func(context.Context, core.Event) { got = append(got, "a") })
	b.Subscribe(func(context.Context, core.Event) { got = append(got, "b") })

	Multi{a, nil, b}.Emit(context.Background(), &core.Drain{})

	assert.Equal(t, []string{"a", "b"}, got)
}
