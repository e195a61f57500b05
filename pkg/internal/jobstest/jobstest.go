// Package jobstest provides store and observer doubles for tests.
package jobstest

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jdziat/rowlock-jobs/pkg/core"
	"github.com/jdziat/rowlock-jobs/pkg/storage"
)

// Faults selects which store operations fail. A nil field passes through.
type Faults struct {
	Connect       error
	Begin         error
	Write         error
	SetProcessed  error
	Commit        error
	Rollback      error
	NextToProcess error
}

// FaultyStore wraps a MemoryStore, injecting errors and counting connections.
type FaultyStore struct {
	*storage.MemoryStore

	mu     sync.Mutex
	faults Faults

	connects atomic.Int32
	open     atomic.Int32
}

// NewFaultyStore wraps s.
func NewFaultyStore(s *storage.MemoryStore) *FaultyStore {
	return &FaultyStore{MemoryStore: s}
}

// Set replaces the active faults.
func (s *FaultyStore) Set(f Faults) {
	s.mu.Lock()
	s.faults = f
	s.mu.Unlock()
}

func (s *FaultyStore) get() Faults {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.faults
}

// Connects reports how many times Connect was called.
func (s *FaultyStore) Connects() int {
	return int(s.connects.Load())
}

// Open reports connections acquired and not yet closed.
func (s *FaultyStore) Open() int {
	return int(s.open.Load())
}

func (s *FaultyStore) Connect(ctx context.Context) (core.Conn, error) {
	s.connects.Add(1)
	if err := s.get().Connect; err != nil {
		return nil, err
	}
	conn, err := s.MemoryStore.Connect(ctx)
	if err != nil {
		return nil, err
	}
	s.open.Add(1)
	return &faultyConn{Conn: conn, store: s}, nil
}

type faultyConn struct {
	core.Conn
	store *FaultyStore
	once  sync.Once
}

func (c *faultyConn) Close() error {
	c.once.Do(func() { c.store.open.Add(-1) })
	return c.Conn.Close()
}

func (c *faultyConn) Begin(ctx context.Context) (core.Tx, error) {
	if err := c.store.get().Begin; err != nil {
		return nil, err
	}
	tx, err := c.Conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &faultyTx{Tx: tx, store: c.store}, nil
}

func (c *faultyConn) Write(ctx context.Context, id string, delay *time.Duration, data []byte) (string, error) {
	if err := c.store.get().Write; err != nil {
		return "", err
	}
	return c.Conn.Write(ctx, id, delay, data)
}

type faultyTx struct {
	core.Tx
	store *FaultyStore
}

func (t *faultyTx) NextToProcess(ctx context.Context) (*core.Job, error) {
	if err := t.store.get().NextToProcess; err != nil {
		return nil, err
	}
	return t.Tx.NextToProcess(ctx)
}

func (t *faultyTx) Write(ctx context.Context, id string, delay *time.Duration, data []byte) (string, error) {
	if err := t.store.get().Write; err != nil {
		return "", err
	}
	return t.Tx.Write(ctx, id, delay, data)
}

func (t *faultyTx) SetProcessedNow(ctx context.Context, id string) error {
	if err := t.store.get().SetProcessed; err != nil {
		return err
	}
	return t.Tx.SetProcessedNow(ctx, id)
}

// Commit fails after discarding the transaction, as a database does when a
// commit is rejected.
func (t *faultyTx) Commit() error {
	if err := t.store.get().Commit; err != nil {
		_ = t.Tx.Rollback()
		return err
	}
	return t.Tx.Commit()
}

func (t *faultyTx) Rollback() error {
	if err := t.store.get().Rollback; err != nil {
		_ = t.Tx.Rollback()
		return err
	}
	return t.Tx.Rollback()
}

// Recorder is an Observer that keeps every event it receives.
type Recorder struct {
	mu     sync.Mutex
	events []core.Event
}

func (r *Recorder) Emit(_ context.Context, e core.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []core.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]core.Event(nil), r.events...)
}

// Kinds returns the recorded event kinds in order.
func (r *Recorder) Kinds() []core.EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]core.EventKind, len(r.events))
	for i, e := range r.events {
		kinds[i] = e.Kind()
	}
	return kinds
}

// Count returns how many events of kind were recorded.
func (r *Recorder) Count(kind core.EventKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Kind() == kind {
			n++
		}
	}
	return n
}

// Reset discards the recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}
