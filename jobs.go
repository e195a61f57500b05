// Package jobs provides a durable job queue backed by a relational store and
// a single row lock per job.
//
// This is the main package users should import. It re-exports the public
// types from the pkg/ packages and wires them into a Controller.
//
// Basic usage:
//
//	store, _ := storage.Open("sqlite://jobs.db")
//	store.Migrate(ctx)
//	c := jobs.New(store, jobs.PollInterval(time.Second))
//
//	id, _ := c.CreateJob(ctx, []byte("payload"), 0)
//
//	go c.StartProcessing(ctx, func(ctx context.Context, job *jobs.Job) jobs.Outcome {
//	    return jobs.Done(job.Data)
//	})
//	defer c.StopProcessing()
package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/jdziat/rowlock-jobs/pkg/core"
	"github.com/jdziat/rowlock-jobs/pkg/events"
	"github.com/jdziat/rowlock-jobs/pkg/jobctx"
	"github.com/jdziat/rowlock-jobs/pkg/queue"
	"github.com/jdziat/rowlock-jobs/pkg/schedule"
	"github.com/jdziat/rowlock-jobs/pkg/security"
	"github.com/jdziat/rowlock-jobs/pkg/storage"
	"github.com/jdziat/rowlock-jobs/pkg/worker"
)

type (
	// Job is a stored unit of work.
	Job = core.Job

	// Store is the persistence contract the controller drives.
	Store = core.Store

	// ProcessFunc services one locked job.
	ProcessFunc = core.ProcessFunc

	// Outcome is the result of a ProcessFunc.
	Outcome = core.Outcome

	// Schedule computes the next due time of a recurring job.
	Schedule = core.Schedule

	// Clock supplies the current time and timers.
	Clock = core.Clock

	// Event is the interface for all lifecycle events.
	Event = core.Event

	// EventKind names an event.
	EventKind = core.EventKind

	// Observer receives lifecycle events.
	Observer = core.Observer

	// JobUpdated is emitted after a successful cycle commits.
	JobUpdated = core.JobUpdated

	// MaybeServiceJob is emitted at the top of each polling iteration.
	MaybeServiceJob = core.MaybeServiceJob

	// Drain is emitted when a poll finds no due job.
	Drain = core.Drain

	// ProcessCommitted is emitted when a polling cycle's transaction resolves.
	ProcessCommitted = core.ProcessCommitted

	// ProcessNowCommitted is emitted when a ProcessNow cycle's transaction resolves.
	ProcessNowCommitted = core.ProcessNowCommitted

	// ServiceFailed is emitted when a cycle fails.
	ServiceFailed = core.ServiceFailed

	// StopProcess is emitted when a polling loop exits.
	StopProcess = core.StopProcess

	// Hooks is the controller's event channel.
	Hooks = events.Hooks

	// ConnectionError reports a connection that could not be acquired or used.
	ConnectionError = core.ConnectionError

	// StoreError reports a failed store operation.
	StoreError = core.StoreError

	// JobNotFoundError reports an id with no lockable job.
	JobNotFoundError = core.JobNotFoundError

	// ProcessingError wraps the error a ProcessFunc failed with.
	ProcessingError = core.ProcessingError

	// Worker runs one polling loop.
	Worker = worker.Worker

	// WorkerOption configures a Worker.
	WorkerOption = worker.WorkerOption

	// RetryConfig controls connection retries for a polling loop.
	RetryConfig = worker.RetryConfig

	// GormStore implements Store using GORM.
	GormStore = storage.GormStore

	// MemoryStore implements Store in memory.
	MemoryStore = storage.MemoryStore
)

// Event kinds
const (
	KindJobUpdated          = core.KindJobUpdated
	KindMaybeServiceJob     = core.KindMaybeServiceJob
	KindDrain               = core.KindDrain
	KindProcessCommitted    = core.KindProcessCommitted
	KindProcessNowCommitted = core.KindProcessNowCommitted
	KindServiceFailed       = core.KindServiceFailed
	KindStopProcess         = core.KindStopProcess
)

// Security limits
const (
	MaxJobDataSize        = security.MaxJobDataSize
	MaxErrorMessageLength = security.MaxErrorMessageLength
)

// DefaultPollInterval is the idle wait between empty polls.
const DefaultPollInterval = worker.DefaultPollInterval

// Error variables
var (
	ErrJobNotFound     = core.ErrJobNotFound
	ErrJobLocked       = core.ErrJobLocked
	ErrJobDataTooLarge = core.ErrJobDataTooLarge
	ErrAlreadyRunning  = core.ErrAlreadyRunning
	ErrSessionDone     = core.ErrSessionDone
)

// Config holds the options a Controller was built with.
type Config struct {
	queue     []queue.Option
	worker    []worker.WorkerOption
	observers []core.Observer
}

// Option configures a Controller.
type Option interface {
	apply(*Config)
}

type optionFunc func(*Config)

func (f optionFunc) apply(c *Config) { f(c) }

// WithObserver adds an observer that receives every event after the
// controller's own Hooks.
func WithObserver(o Observer) Option {
	return optionFunc(func(c *Config) {
		if o != nil {
			c.observers = append(c.observers, o)
		}
	})
}

// WithClock sets the clock used for reschedule computations, event
// timestamps and idle waits. It does not reach the store, which stamps
// due_at and processed_at itself; build the store with storage.WithClock
// and the same clock.
func WithClock(clock Clock) Option {
	return optionFunc(func(c *Config) {
		c.queue = append(c.queue, queue.WithClock(clock))
	})
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *Config) {
		c.queue = append(c.queue, queue.WithLogger(l))
	})
}

// PollInterval sets the idle wait of the controller's polling loop.
func PollInterval(d time.Duration) Option {
	return WithWorkerOptions(worker.PollInterval(d))
}

// WorkerID sets the id reported by the controller's polling loop.
func WorkerID(id string) Option {
	return WithWorkerOptions(worker.WorkerID(id))
}

// ConnectRetry sets how the polling loop retries acquiring its connection.
func ConnectRetry(cfg RetryConfig) Option {
	return WithWorkerOptions(worker.ConnectRetry(cfg))
}

// WithWorkerOptions passes options through to the controller's Worker.
func WithWorkerOptions(opts ...WorkerOption) Option {
	return optionFunc(func(c *Config) {
		c.worker = append(c.worker, opts...)
	})
}

// Controller creates jobs, processes them on demand, and runs a polling loop.
type Controller struct {
	store  Store
	hooks  *events.Hooks
	queue  *queue.Queue
	worker *worker.Worker
}

// New creates a Controller over store.
func New(store Store, opts ...Option) *Controller {
	var cfg Config
	for _, opt := range opts {
		opt.apply(&cfg)
	}

	hooks := events.New()
	var observer core.Observer = hooks
	if len(cfg.observers) > 0 {
		observer = append(events.Multi{hooks}, cfg.observers...)
	}

	q := queue.New(store, append(cfg.queue, queue.WithObserver(observer))...)
	return &Controller{
		store:  store,
		hooks:  hooks,
		queue:  q,
		worker: worker.NewWorker(q, cfg.worker...),
	}
}

// Migrate creates the store's tables.
func (c *Controller) Migrate(ctx context.Context) error {
	return c.store.Migrate(ctx)
}

// Hooks returns the controller's event channel.
func (c *Controller) Hooks() *Hooks {
	return c.hooks
}

// Queue returns the underlying queue.
func (c *Controller) Queue() *queue.Queue {
	return c.queue
}

// WorkerID returns the id of the controller's polling loop.
func (c *Controller) WorkerID() string {
	return c.worker.ID()
}

// CreateJob stores data as a new job due after delay and returns its id.
func (c *Controller) CreateJob(ctx context.Context, data []byte, delay time.Duration) (string, error) {
	return c.queue.CreateJob(ctx, data, delay)
}

// GetJob returns the stored state of a job.
func (c *Controller) GetJob(ctx context.Context, id string) (*Job, error) {
	return c.queue.GetJob(ctx, id)
}

// StartProcessing runs the polling loop until StopProcessing is called, ctx
// ends, or the connection fails.
func (c *Controller) StartProcessing(ctx context.Context, fn ProcessFunc) error {
	return c.worker.Start(ctx, fn)
}

// StopProcessing asks the polling loop to exit after its current cycle.
func (c *Controller) StopProcessing() {
	c.worker.Stop()
}

// Processing reports whether the polling loop is running.
func (c *Controller) Processing() bool {
	return c.worker.Running()
}

// ProcessNow locks the job with the given id and services it immediately.
func (c *Controller) ProcessNow(ctx context.Context, id string, fn ProcessFunc) error {
	return c.queue.ProcessNow(ctx, id, fn)
}

// NewWorker creates an additional polling loop sharing the controller's
// store and event channel.
func (c *Controller) NewWorker(opts ...WorkerOption) *Worker {
	return worker.NewWorker(c.queue, opts...)
}

// NewMemoryStore creates an in-memory store.
func NewMemoryStore() *MemoryStore {
	return storage.NewMemoryStore()
}

// Open connects to the database named by url (postgres:// or sqlite://).
func Open(url string, opts ...storage.PoolOption) (*GormStore, error) {
	return storage.Open(url, opts...)
}

// Outcome constructors

// Retry stores data and makes the job due again after delay.
func Retry(data []byte, delay time.Duration) Outcome {
	return core.Retry(data, delay)
}

// RetryAt stores data and makes the job due again at t.
func RetryAt(data []byte, t time.Time) Outcome {
	return core.RetryAt(data, t)
}

// RetryOn stores data and makes the job due at the schedule's next tick.
func RetryOn(data []byte, s Schedule) Outcome {
	return core.RetryOn(data, s)
}

// Done stores data and makes the job inactive.
func Done(data []byte) Outcome {
	return core.Done(data)
}

// Failed rolls the cycle back, leaving the job untouched.
func Failed(err error) Outcome {
	return core.Failed(err)
}

// Schedule functions

// Every creates a schedule that runs at fixed intervals.
func Every(d time.Duration) Schedule {
	return schedule.Every(d)
}

// Daily creates a schedule that runs at a specific time each day.
func Daily(hour, minute int) Schedule {
	return schedule.Daily(hour, minute)
}

// Weekly creates a schedule that runs at a specific day and time each week.
func Weekly(day time.Weekday, hour, minute int) Schedule {
	return schedule.Weekly(day, hour, minute)
}

// Cron creates a schedule from a cron expression.
func Cron(expr string) Schedule {
	return schedule.Cron(expr)
}

// JobFromContext returns the job being processed, or nil outside a ProcessFunc.
func JobFromContext(ctx context.Context) *Job {
	return jobctx.JobFromContext(ctx)
}

// JobIDFromContext returns the id of the job being processed, or "".
func JobIDFromContext(ctx context.Context) string {
	return jobctx.JobIDFromContext(ctx)
}

// IsImmediate reports whether the job is being processed by ProcessNow.
func IsImmediate(ctx context.Context) bool {
	return jobctx.IsImmediate(ctx)
}
