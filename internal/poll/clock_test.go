package poll

import (
	"sync"
	"time"
)

// manualClock only moves when Advance is called. Each tick is handed to the
// subscriber synchronously, so a tick is never dropped.
type manualClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*manualTicker
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)}
}

type manualTicker struct {
	c       chan time.Time
	period  time.Duration
	next    time.Time
	stopped chan struct{}
	once    sync.Once
}

func (t *manualTicker) C() <-chan time.Time { return t.c }

func (t *manualTicker) Stop() {
	t.once.Do(func() { close(t.stopped) })
}

func (t *manualTicker) isStopped() bool {
	select {
	case <-t.stopped:
		return true
	default:
		return false
	}
}

func (m *manualClock) NewTicker(d time.Duration) Ticker {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTicker{
		c:       make(chan time.Time),
		period:  d,
		next:    m.now.Add(d),
		stopped: make(chan struct{}),
	}
	m.tickers = append(m.tickers, t)
	return t
}

func (m *manualClock) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		m.mu.Lock()
		var due *manualTicker
		for _, t := range m.tickers {
			if t.isStopped() || t.next.After(target) {
				continue
			}
			if due == nil || t.next.Before(due.next) {
				due = t
			}
		}
		if due == nil {
			m.now = target
			m.mu.Unlock()
			return
		}
		m.now = due.next
		now := m.now
		due.next = due.next.Add(due.period)
		m.mu.Unlock()

		select {
		case due.c <- now:
		case <-due.stopped:
		}
	}
}
