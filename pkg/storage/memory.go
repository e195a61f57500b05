package storage

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jdziat/rowlock-jobs/pkg/core"
)

// MemoryStore implements core.Store in process memory.
//
// Writes made through a transaction are staged and applied on commit. Locks
// are exclusive: NextToProcess skips jobs locked by another session and
// ObtainLock fails with core.ErrJobLocked instead of blocking.
type MemoryStore struct {
	mu    sync.Mutex
	jobs  map[string]*core.Job
	locks map[string]*memLock
	clock core.Clock
}

type memLock struct {
	conn *memConn
	tx   *memTx
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...StoreOption) *MemoryStore {
	cfg := newStoreConfig(opts)
	return &MemoryStore{
		jobs:  make(map[string]*core.Job),
		locks: make(map[string]*memLock),
		clock: cfg.clock,
	}
}

// Migrate is a no-op.
func (s *MemoryStore) Migrate(ctx context.Context) error {
	return nil
}

// Connect returns a new session on the store.
func (s *MemoryStore) Connect(ctx context.Context) (core.Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c := &memConn{store: s}
	c.memOps = memOps{store: s, conn: c}
	return c, nil
}

// Len returns the number of stored jobs.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Locked reports whether any session holds a lock on the job.
func (s *MemoryStore) Locked(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.locks[id]
	return ok
}

type memConn struct {
	memOps
	store  *MemoryStore
	closed bool
}

func (c *memConn) Begin(ctx context.Context) (core.Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	c.store.mu.Lock()
	closed := c.closed
	c.store.mu.Unlock()
	if closed {
		return nil, sql.ErrConnDone
	}
	tx := &memTx{staged: make(map[string]*core.Job)}
	tx.memOps = memOps{store: c.store, conn: c, tx: tx}
	return tx, nil
}

// Close releases every lock the connection still holds.
func (c *memConn) Close() error {
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	for id, l := range c.store.locks {
		if l.conn == c {
			delete(c.store.locks, id)
		}
	}
	return nil
}

type memTx struct {
	memOps
	staged map[string]*core.Job
	done   bool
}

func (t *memTx) Commit() error {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.done {
		return sql.ErrTxDone
	}
	t.done = true
	for id, job := range t.staged {
		s.jobs[id] = job
	}
	t.releaseLocked()
	return nil
}

func (t *memTx) Rollback() error {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.done {
		return sql.ErrTxDone
	}
	t.done = true
	t.staged = nil
	t.releaseLocked()
	return nil
}

// releaseLocked drops the transaction's locks. Callers hold store.mu.
func (t *memTx) releaseLocked() {
	for id, l := range t.store.locks {
		if l.tx == t {
			delete(t.store.locks, id)
		}
	}
}

// memOps runs job operations for a connection, or for a transaction when tx
// is set.
type memOps struct {
	store *MemoryStore
	conn  *memConn
	tx    *memTx
}

func (o memOps) checkLocked() error {
	if o.conn.closed {
		return sql.ErrConnDone
	}
	if o.tx != nil && o.tx.done {
		return sql.ErrTxDone
	}
	return nil
}

// lookupLocked returns the job as this session sees it.
func (o memOps) lookupLocked(id string) (*core.Job, bool) {
	if o.tx != nil {
		if job, ok := o.tx.staged[id]; ok {
			return job, true
		}
	}
	job, ok := o.store.jobs[id]
	return job, ok
}

// putLocked stores a job, staged when running inside a transaction.
func (o memOps) putLocked(job *core.Job) {
	if o.tx != nil {
		o.tx.staged[job.ID] = job
		return
	}
	o.store.jobs[job.ID] = job
}

func (o memOps) ownsLocked(l *memLock) bool {
	if o.tx != nil {
		return l.tx == o.tx
	}
	return l.conn == o.conn && l.tx == nil
}

func (o memOps) lockLocked(id string) {
	o.store.locks[id] = &memLock{conn: o.conn, tx: o.tx}
}

func (o memOps) Write(ctx context.Context, id string, delay *time.Duration, data []byte) (string, error) {
	s := o.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := o.checkLocked(); err != nil {
		return "", err
	}

	now := s.clock.Now()
	if id == "" {
		job := &core.Job{
			ID:        uuid.New().String(),
			Data:      append([]byte(nil), data...),
			DueAt:     core.DueAfter(now, delay),
			CreatedAt: now,
			UpdatedAt: now,
		}
		o.putLocked(job)
		return job.ID, nil
	}

	existing, ok := o.lookupLocked(id)
	if !ok {
		return "", core.ErrJobNotFound
	}
	if l, locked := s.locks[id]; locked && !o.ownsLocked(l) {
		return "", core.ErrJobLocked
	}
	job := existing.Clone()
	job.Data = append([]byte(nil), data...)
	job.DueAt = core.DueAfter(now, delay)
	job.UpdatedAt = now
	o.putLocked(job)
	return id, nil
}

func (o memOps) NextToProcess(ctx context.Context) (*core.Job, error) {
	s := o.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := o.checkLocked(); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	var due []*core.Job
	for id := range s.jobs {
		job, _ := o.lookupLocked(id)
		if !job.IsDue(now) {
			continue
		}
		if l, locked := s.locks[id]; locked && !o.ownsLocked(l) {
			continue
		}
		due = append(due, job)
	}
	if len(due) == 0 {
		return nil, nil
	}

	sort.Slice(due, func(i, j int) bool {
		if !due[i].DueAt.Equal(*due[j].DueAt) {
			return due[i].DueAt.Before(*due[j].DueAt)
		}
		return due[i].ID < due[j].ID
	})
	job := due[0]
	o.lockLocked(job.ID)
	return job.Clone(), nil
}

func (o memOps) ObtainLock(ctx context.Context, id string) error {
	s := o.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := o.checkLocked(); err != nil {
		return err
	}

	if _, ok := o.lookupLocked(id); !ok {
		return core.ErrJobNotFound
	}
	if l, locked := s.locks[id]; locked {
		if o.ownsLocked(l) {
			return nil
		}
		return core.ErrJobLocked
	}
	o.lockLocked(id)
	return nil
}

// Unlock releases a lock on id held by this connection or one of its
// transactions.
func (o memOps) Unlock(ctx context.Context, id string) error {
	s := o.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if l, locked := s.locks[id]; locked && l.conn == o.conn {
		delete(s.locks, id)
	}
	return nil
}

func (o memOps) GetDataForJob(ctx context.Context, id string) (*core.Job, error) {
	s := o.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := o.checkLocked(); err != nil {
		return nil, err
	}

	job, ok := o.lookupLocked(id)
	if !ok {
		return nil, core.ErrJobNotFound
	}
	return job.Clone(), nil
}

func (o memOps) SetProcessedNow(ctx context.Context, id string) error {
	s := o.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := o.checkLocked(); err != nil {
		return err
	}

	existing, ok := o.lookupLocked(id)
	if !ok {
		return core.ErrJobNotFound
	}
	now := s.clock.Now()
	job := existing.Clone()
	job.ProcessedAt = &now
	job.UpdatedAt = now
	o.putLocked(job)
	return nil
}
