package poll

import (
	"sync"
	"time"
)

// Resource is a refreshable value with a teardown, such as *state.Resource.
type Resource interface {
	Executor
	Close()
}

type member struct {
	res    Resource
	handle *Handle
}

// Group ties the subscriptions of one view together so they can be released
// at once when the view goes away. A Group holds at most one subscription
// per key.
type Group struct {
	sched *Scheduler

	mu      sync.Mutex
	members map[string]member
	order   []string
	closed  bool
}

// NewGroup returns an empty Group on sched.
func NewGroup(sched *Scheduler) *Group {
	return &Group{sched: sched, members: make(map[string]member)}
}

// Add subscribes res under key. An existing member with the same key is
// unsubscribed and closed first. Adding to a closed Group closes res
// immediately.
func (g *Group) Add(key string, res Resource, interval time.Duration, enabled bool) *Handle {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		res.Close()
		return &Handle{}
	}
	prev, replaced := g.members[key]
	g.mu.Unlock()

	if replaced {
		prev.handle.Unsubscribe()
		prev.res.Close()
	}

	h := g.sched.Subscribe(res, interval, enabled)

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		h.Unsubscribe()
		res.Close()
		return &Handle{}
	}
	if !replaced {
		g.order = append(g.order, key)
	}
	g.members[key] = member{res: res, handle: h}
	return h
}

// Remove unsubscribes and closes the member under key, if any.
func (g *Group) Remove(key string) {
	g.mu.Lock()
	m, ok := g.members[key]
	if ok {
		delete(g.members, key)
		for i, k := range g.order {
			if k == key {
				g.order = append(g.order[:i], g.order[i+1:]...)
				break
			}
		}
	}
	g.mu.Unlock()

	if ok {
		m.handle.Unsubscribe()
		m.res.Close()
	}
}

// Refresh calls Execute on every member.
func (g *Group) Refresh() {
	g.mu.Lock()
	res := make([]Resource, 0, len(g.order))
	for _, key := range g.order {
		res = append(res, g.members[key].res)
	}
	g.mu.Unlock()

	for _, r := range res {
		r.Execute()
	}
}

// Len returns the number of members.
func (g *Group) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.members)
}

// Close unsubscribes every handle, then closes every resource.
func (g *Group) Close() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	members := make([]member, 0, len(g.order))
	for _, key := range g.order {
		members = append(members, g.members[key])
	}
	g.members = nil
	g.order = nil
	g.mu.Unlock()

	for _, m := range members {
		m.handle.Unsubscribe()
	}
	for _, m := range members {
		m.res.Close()
	}
}
