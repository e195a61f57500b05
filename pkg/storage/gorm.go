// Package storage provides storage implementations for the jobs package.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jdziat/rowlock-jobs/pkg/core"
)

// StoreOption configures a store.
type StoreOption interface {
	applyStore(*storeConfig)
}

type storeConfig struct {
	clock core.Clock
}

type storeOptionFunc func(*storeConfig)

func (f storeOptionFunc) applyStore(c *storeConfig) { f(c) }

// WithClock sets the time source used to compute and compare due times.
func WithClock(c core.Clock) StoreOption {
	return storeOptionFunc(func(cfg *storeConfig) {
		if c != nil {
			cfg.clock = c
		}
	})
}

func newStoreConfig(opts []StoreOption) storeConfig {
	cfg := storeConfig{clock: core.SystemClock{}}
	for _, opt := range opts {
		opt.applyStore(&cfg)
	}
	return cfg
}

// GormStore implements core.Store using GORM.
//
// On PostgreSQL, NextToProcess claims rows with FOR UPDATE SKIP LOCKED and
// ObtainLock with FOR UPDATE. SQLite has no row locks; open it through Open
// so transactions begin IMMEDIATE and competing sessions serialize.
type GormStore struct {
	db    *gorm.DB
	clock core.Clock
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB, opts ...StoreOption) *GormStore {
	cfg := newStoreConfig(opts)
	return &GormStore{db: db, clock: cfg.clock}
}

// DB returns the underlying *gorm.DB.
func (s *GormStore) DB() *gorm.DB {
	return s.db
}

// IsSQLite reports whether the store runs on SQLite.
func (s *GormStore) IsSQLite() bool {
	return s.db != nil && s.db.Dialector != nil && s.db.Dialector.Name() == "sqlite"
}

// Migrate creates the necessary tables.
func (s *GormStore) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&core.Job{})
}

// Connect pins one connection from the pool. Every operation on the returned
// Conn, and every transaction begun on it, runs on that connection.
func (s *GormStore) Connect(ctx context.Context) (core.Conn, error) {
	sqlDB, err := s.db.DB()
	if err != nil {
		return nil, fmt.Errorf("get underlying *sql.DB: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return nil, err
	}

	pinned := s.db.Session(&gorm.Session{Context: ctx, NewDB: true})
	pinned.Statement.ConnPool = conn

	return &gormConn{
		gormOps: gormOps{store: s, db: pinned},
		close:   conn.Close,
	}, nil
}

type gormConn struct {
	gormOps
	once  sync.Once
	close func() error
	err   error
}

func (c *gormConn) Begin(ctx context.Context) (core.Tx, error) {
	tx := c.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &gormTx{gormOps{store: c.store, db: tx}}, nil
}

func (c *gormConn) Close() error {
	c.once.Do(func() {
		c.err = c.close()
	})
	return c.err
}

type gormTx struct {
	gormOps
}

func (t *gormTx) Commit() error {
	return t.db.Commit().Error
}

func (t *gormTx) Rollback() error {
	return t.db.Rollback().Error
}

// gormOps runs job operations against a pinned connection or a transaction.
type gormOps struct {
	store *GormStore
	db    *gorm.DB
}

func (o gormOps) lock(strength, options string) clause.Expression {
	return clause.Locking{Strength: strength, Options: options}
}

func (o gormOps) Write(ctx context.Context, id string, delay *time.Duration, data []byte) (string, error) {
	due := core.DueAfter(o.store.clock.Now(), delay)
	db := o.db.WithContext(ctx)

	if id == "" {
		job := &core.Job{ID: uuid.New().String(), Data: data, DueAt: due}
		if err := db.Create(job).Error; err != nil {
			return "", err
		}
		return job.ID, nil
	}

	var dueVal any
	if due != nil {
		dueVal = *due
	}
	result := db.Model(&core.Job{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"data":   data,
			"due_at": dueVal,
		})
	if result.Error != nil {
		return "", result.Error
	}
	if result.RowsAffected == 0 {
		return "", core.ErrJobNotFound
	}
	return id, nil
}

func (o gormOps) NextToProcess(ctx context.Context) (*core.Job, error) {
	var job core.Job
	q := o.db.WithContext(ctx).
		Where("due_at IS NOT NULL AND due_at <= ?", o.store.clock.Now()).
		Order("due_at ASC, id ASC")
	if !o.store.IsSQLite() {
		q = q.Clauses(o.lock("UPDATE", "SKIP LOCKED"))
	}

	err := q.Take(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (o gormOps) ObtainLock(ctx context.Context, id string) error {
	var job core.Job
	q := o.db.WithContext(ctx).Select("id").Where("id = ?", id)
	if !o.store.IsSQLite() {
		q = q.Clauses(o.lock("UPDATE", ""))
	}

	err := q.Take(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return core.ErrJobNotFound
	}
	return err
}

// Unlock is a no-op: row locks end with the transaction that took them.
func (o gormOps) Unlock(ctx context.Context, id string) error {
	return nil
}

func (o gormOps) GetDataForJob(ctx context.Context, id string) (*core.Job, error) {
	var job core.Job
	err := o.db.WithContext(ctx).Where("id = ?", id).Take(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, core.ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (o gormOps) SetProcessedNow(ctx context.Context, id string) error {
	result := o.db.WithContext(ctx).
		Model(&core.Job{}).
		Where("id = ?", id).
		Update("processed_at", o.store.clock.Now())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return core.ErrJobNotFound
	}
	return nil
}
