package state

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/voicedesk/callwatch/internal/voiceapi"
)

// Phase is the lifecycle stage of a Resource.
type Phase int

const (
	// Idle means no attempt has been issued yet.
	Idle Phase = iota
	// Pending means the latest attempt has not resolved.
	Pending
	// Succeeded means the latest attempt produced a value.
	Succeeded
	// Failed means the latest attempt produced an error.
	Failed
)

func (p Phase) String() string {
	switch p {
	case Pending:
		return "pending"
	case Succeeded:
		return "success"
	case Failed:
		return "failure"
	default:
		return "idle"
	}
}

// Outcome is an observation of a Resource. Value holds the last successful
// result and survives later Pending and Failed phases; HasValue reports
// whether any attempt has ever succeeded.
type Outcome[T any] struct {
	Phase               Phase
	Value               T
	HasValue            bool
	Message             string // display-ready, set only when Phase == Failed
	Err                 error
	UpdatedAt           time.Time
	ConsecutiveFailures int
	Version             uint64 // increases on every state change
}

// Pending reports whether the latest attempt is still running.
func (o Outcome[T]) Pending() bool { return o.Phase == Pending }

// Succeeded reports whether the latest attempt produced a value.
func (o Outcome[T]) Succeeded() bool { return o.Phase == Succeeded }

// Failed reports whether the latest attempt produced an error.
func (o Outcome[T]) Failed() bool { return o.Phase == Failed }

// IsOffline returns true when the backend has failed multiple attempts in a row.
func (o Outcome[T]) IsOffline() bool {
	return o.ConsecutiveFailures >= 2
}

// Producer fetches one value. It must honour ctx cancellation.
type Producer[T any] func(ctx context.Context) (T, error)

// ResourceOption customizes a Resource.
type ResourceOption func(*resourceConfig)

type resourceConfig struct {
	name    string
	logger  *zap.Logger
	notify  func()
	timeout time.Duration
	parent  context.Context
}

// WithName labels the resource in logs.
func WithName(name string) ResourceOption {
	return func(c *resourceConfig) { c.name = name }
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) ResourceOption {
	return func(c *resourceConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithNotify registers fn to run after every state change. fn runs outside
// the resource's lock and may call Outcome or Execute but not Close;
// notifications from concurrent attempts may arrive out of order, so
// consumers compare Outcome.Version.
func WithNotify(fn func()) ResourceOption {
	return func(c *resourceConfig) { c.notify = fn }
}

// WithTimeout bounds each attempt. Zero means no deadline beyond the parent context.
func WithTimeout(d time.Duration) ResourceOption {
	return func(c *resourceConfig) { c.timeout = d }
}

// WithContext roots every attempt in ctx instead of context.Background.
func WithContext(ctx context.Context) ResourceOption {
	return func(c *resourceConfig) {
		if ctx != nil {
			c.parent = ctx
		}
	}
}

// Resource wraps one logical fetch as an observable Outcome.
//
// Overlapping Execute calls follow a last-issued-wins policy: each attempt is
// tagged with a generation and only the newest attempt may change state, so
// a slow stale response never overwrites a newer one. Once Close returns no
// attempt changes state and no notification runs.
type Resource[T any] struct {
	cfg      resourceConfig
	producer Producer[T]
	ctx      context.Context
	cancel   context.CancelFunc

	mu      sync.Mutex
	outcome Outcome[T]
	gen     uint64
	closed  bool
	changed chan struct{}

	// notifying counts notifications in progress; Close waits for it.
	notifying sync.WaitGroup
}

// NewResource builds a Resource around producer. When immediate is true the
// first attempt starts before NewResource returns.
func NewResource[T any](producer Producer[T], immediate bool, opts ...ResourceOption) *Resource[T] {
	cfg := resourceConfig{logger: zap.NewNop(), parent: context.Background()}
	for _, opt := range opts {
		opt(&cfg)
	}
	ctx, cancel := context.WithCancel(cfg.parent)
	r := &Resource[T]{
		cfg:      cfg,
		producer: producer,
		ctx:      ctx,
		cancel:   cancel,
		changed:  make(chan struct{}),
	}
	if immediate {
		r.Execute()
	}
	return r
}

// Name returns the label given with WithName.
func (r *Resource[T]) Name() string {
	return r.cfg.name
}

// Execute starts a new attempt and returns immediately. The phase becomes
// Pending and the previous error is cleared; the previous value is kept.
// Calling Execute after Close does nothing.
func (r *Resource[T]) Execute() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.gen++
	gen := r.gen
	r.outcome.Phase = Pending
	r.outcome.Message = ""
	r.outcome.Err = nil
	r.bumpLocked()
	r.mu.Unlock()

	r.emit()
	go r.run(gen)
}

func (r *Resource[T]) run(gen uint64) {
	ctx := r.ctx
	if r.cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.timeout)
		defer cancel()
	}

	value, err := r.producer(ctx)

	r.mu.Lock()
	if r.closed || gen != r.gen {
		r.mu.Unlock()
		r.cfg.logger.Debug("state.attempt_discarded",
			zap.String("resource", r.cfg.name),
			zap.Uint64("generation", gen))
		return
	}
	r.outcome.UpdatedAt = time.Now()
	if err != nil {
		r.outcome.Phase = Failed
		r.outcome.Err = err
		r.outcome.Message = voiceapi.Message(err)
		r.outcome.ConsecutiveFailures++
	} else {
		r.outcome.Phase = Succeeded
		r.outcome.Value = value
		r.outcome.HasValue = true
		r.outcome.ConsecutiveFailures = 0
	}
	failures := r.outcome.ConsecutiveFailures
	r.bumpLocked()
	r.mu.Unlock()

	if err != nil {
		r.cfg.logger.Warn("state.refresh_failed",
			zap.String("resource", r.cfg.name),
			zap.Int("consecutive_failures", failures),
			zap.Error(err))
	}
	r.emit()
}

// bumpLocked records a state change and wakes Wait callers.
func (r *Resource[T]) bumpLocked() {
	r.outcome.Version++
	close(r.changed)
	r.changed = make(chan struct{})
}

func (r *Resource[T]) emit() {
	if r.cfg.notify == nil {
		return
	}
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.notifying.Add(1)
	r.mu.Unlock()
	defer r.notifying.Done()
	r.cfg.notify()
}

// Outcome returns the current observation.
func (r *Resource[T]) Outcome() Outcome[T] {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.outcome
}

// Wait blocks until the resource is not Pending, it is closed, or ctx ends.
func (r *Resource[T]) Wait(ctx context.Context) (Outcome[T], error) {
	for {
		r.mu.Lock()
		if r.outcome.Phase != Pending || r.closed {
			out := r.outcome
			r.mu.Unlock()
			return out, nil
		}
		ch := r.changed
		r.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return r.Outcome(), ctx.Err()
		}
	}
}

// Close tears the resource down. In-flight attempts are cancelled and their
// results ignored. Close waits for a notification already running, so none
// is delivered after it returns. Close is idempotent.
func (r *Resource[T]) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.changed)
	r.changed = make(chan struct{})
	r.mu.Unlock()
	r.cancel()
	r.notifying.Wait()
}

// Closed reports whether Close has been called.
func (r *Resource[T]) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}
