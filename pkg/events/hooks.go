package events

import (
	"context"
	"sync"

	"github.com/jdziat/rowlock-jobs/pkg/core"
)

// Listener receives a lifecycle event.
type Listener func(ctx context.Context, e core.Event)

type listener struct {
	id   uint64
	kind core.EventKind // empty matches every kind
	fn   Listener
}

// Hooks is an Observer with callback slots. Listeners are invoked
// synchronously in the order they were added; a panicking listener is not
// recovered.
type Hooks struct {
	mu        sync.RWMutex
	nextID    uint64
	listeners []listener
	subs      []chan core.Event
}

// New creates an empty Hooks.
func New() *Hooks {
	return &Hooks{}
}

// On adds a listener for one event kind and returns a function removing it.
func (h *Hooks) On(kind core.EventKind, fn Listener) (remove func()) {
	return h.add(kind, fn)
}

// Subscribe adds a listener for every event kind.
func (h *Hooks) Subscribe(fn Listener) (remove func()) {
	return h.add("", fn)
}

func (h *Hooks) add(kind core.EventKind, fn Listener) func() {
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.listeners = append(h.listeners, listener{id: id, kind: kind, fn: fn})
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		for i, l := range h.listeners {
			if l.id == id {
				h.listeners = append(h.listeners[:i:i], h.listeners[i+1:]...)
				return
			}
		}
	}
}

// OnJobUpdated registers a callback for committed job rewrites.
func (h *Hooks) OnJobUpdated(fn func(context.Context, *core.JobUpdated)) func() {
	return h.On(core.KindJobUpdated, func(ctx context.Context, e core.Event) {
		fn(ctx, e.(*core.JobUpdated))
	})
}

// OnMaybeServiceJob registers a callback for the top of each polling iteration.
func (h *Hooks) OnMaybeServiceJob(fn func(context.Context, *core.MaybeServiceJob)) func() {
	return h.On(core.KindMaybeServiceJob, func(ctx context.Context, e core.Event) {
		fn(ctx, e.(*core.MaybeServiceJob))
	})
}

// OnDrain registers a callback for empty polls.
func (h *Hooks) OnDrain(fn func(context.Context, *core.Drain)) func() {
	return h.On(core.KindDrain, func(ctx context.Context, e core.Event) {
		fn(ctx, e.(*core.Drain))
	})
}

// OnProcessCommitted registers a callback for resolved polling cycles.
func (h *Hooks) OnProcessCommitted(fn func(context.Context, *core.ProcessCommitted)) func() {
	return h.On(core.KindProcessCommitted, func(ctx context.Context, e core.Event) {
		fn(ctx, e.(*core.ProcessCommitted))
	})
}

// OnProcessNowCommitted registers a callback for resolved immediate cycles.
func (h *Hooks) OnProcessNowCommitted(fn func(context.Context, *core.ProcessNowCommitted)) func() {
	return h.On(core.KindProcessNowCommitted, func(ctx context.Context, e core.Event) {
		fn(ctx, e.(*core.ProcessNowCommitted))
	})
}

// OnServiceFailed registers a callback for failed cycles.
func (h *Hooks) OnServiceFailed(fn func(context.Context, *core.ServiceFailed)) func() {
	return h.On(core.KindServiceFailed, func(ctx context.Context, e core.Event) {
		fn(ctx, e.(*core.ServiceFailed))
	})
}

// OnStopProcess registers a callback for polling loop exits.
func (h *Hooks) OnStopProcess(fn func(context.Context, *core.StopProcess)) func() {
	return h.On(core.KindStopProcess, func(ctx context.Context, e core.Event) {
		fn(ctx, e.(*core.StopProcess))
	})
}

// Events returns a channel for receiving events.
// The caller must call Unsubscribe when done to prevent resource leaks.
func (h *Hooks) Events() <-chan core.Event {
	ch := make(chan core.Event, 100)
	h.mu.Lock()
	h.subs = append(h.subs, ch)
	h.mu.Unlock()
	return ch
}

// Unsubscribe removes a channel created by Events(). The channel is not
// closed; after Unsubscribe returns no further events are sent to it.
func (h *Hooks) Unsubscribe(ch <-chan core.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, sub := range h.subs {
		if sub == ch {
			h.subs = append(h.subs[:i], h.subs[i+1:]...)
			return
		}
	}
}

// Emit delivers e to the matching listeners, then to channel subscribers.
func (h *Hooks) Emit(ctx context.Context, e core.Event) {
	h.mu.RLock()
	listeners := make([]listener, len(h.listeners))
	copy(listeners, h.listeners)
	subs := make([]chan core.Event, len(h.subs))
	copy(subs, h.subs)
	h.mu.RUnlock()

	for _, l := range listeners {
		if l.kind == "" || l.kind == e.Kind() {
			l.fn(ctx, e)
		}
	}

	for _, ch := range subs {
		select {
		case ch <- e:
		default:
			// Drop if full so a slow consumer never stalls a worker.
		}
	}
}

// Multi fans events out to several observers in order.
type Multi []core.Observer

func (m Multi) Emit(ctx context.Context, e core.Event) {
	for _, o := range m {
		if o != nil {
			o.Emit(ctx, e)
		}
	}
}
