package poll

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/voicedesk/callwatch/internal/metrics"
)

// DefaultInterval is used when a subscription asks for a non-positive period.
const DefaultInterval = 30 * time.Second

// Executor is anything that can start a refresh without blocking, such as
// *state.Resource.
type Executor interface {
	Execute()
}

type named interface {
	Name() string
}

// Option customizes a Scheduler.
type Option func(*Scheduler)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics counts scheduled refreshes on rec.
func WithMetrics(rec *metrics.Recorder) Option {
	return func(s *Scheduler) { s.metrics = rec }
}

// Scheduler repeats Executor refreshes at a fixed cadence. It keeps no state
// of its own; every subscription owns its ticker.
type Scheduler struct {
	clock   Clock
	logger  *zap.Logger
	metrics *metrics.Recorder
}

// NewScheduler builds a Scheduler on the wall clock.
func NewScheduler(opts ...Option) *Scheduler {
	s := &Scheduler{clock: realClock{}, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handle is one active subscription. The zero Handle and a nil *Handle are
// inert.
type Handle struct {
	name     string
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
	once     sync.Once
}

// Subscribe calls exec.Execute every interval until the handle is
// unsubscribed. The first call happens one full interval after Subscribe;
// any initial fetch is the executor's own business. When enabled is false no
// timer is created and the handle is inert.
//
// Execute runs on the subscription's goroutine and must not block on
// whoever will call Unsubscribe.
func (s *Scheduler) Subscribe(exec Executor, interval time.Duration, enabled bool) *Handle {
	h := &Handle{}
	if n, ok := exec.(named); ok {
		h.name = n.Name()
	}
	if !enabled || exec == nil {
		return h
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	h.interval = interval
	h.stop = make(chan struct{})
	h.done = make(chan struct{})

	ticker := s.clock.NewTicker(interval)
	go func() {
		defer close(h.done)
		defer ticker.Stop()

		for {
			select {
			case <-h.stop:
				return
			case <-ticker.C():
			}
			select {
			case <-h.stop:
				return
			default:
			}
			s.metrics.IncPoll(h.name)
			exec.Execute()
		}
	}()

	s.logger.Debug("poll.subscribed",
		zap.String("resource", h.name),
		zap.Duration("interval", interval))
	return h
}

// Active reports whether the handle owns a running timer.
func (h *Handle) Active() bool {
	if h == nil || h.stop == nil {
		return false
	}
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

// Interval returns the tick period, zero for an inert handle.
func (h *Handle) Interval() time.Duration {
	if h == nil {
		return 0
	}
	return h.interval
}

// Unsubscribe stops the timer and waits for the subscription goroutine to
// exit; once it returns no further Execute is issued through h. It does not
// cancel a refresh already started. Safe to call more than once.
func (h *Handle) Unsubscribe() {
	if h == nil {
		return
	}
	h.once.Do(func() {
		if h.stop == nil {
			return
		}
		close(h.stop)
		<-h.done
	})
}
