package preview

import (
	"sync"
	"time"
)

// Hub keeps one Session per editor id and closes sessions that sit idle.
type Hub struct {
	renderer Renderer
	idle     time.Duration
	timeout  time.Duration
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*hubEntry
	stop     chan struct{}
	once     sync.Once
}

type hubEntry struct {
	session  *Session
	lastUsed time.Time
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithIdleTimeout sets how long an unused session survives.
func WithIdleTimeout(d time.Duration) HubOption {
	return func(h *Hub) { h.idle = d }
}

// WithCompileTimeout bounds every compile started through the hub.
func WithCompileTimeout(d time.Duration) HubOption {
	return func(h *Hub) { h.timeout = d }
}

// NewHub creates a hub and starts its eviction loop. Call Close to stop it.
func NewHub(r Renderer, opts ...HubOption) *Hub {
	h := &Hub{
		renderer: r,
		idle:     30 * time.Minute,
		timeout:  5 * time.Second,
		now:      time.Now,
		sessions: make(map[string]*hubEntry),
		stop:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.idle <= 0 {
		h.idle = 30 * time.Minute
	}
	go h.cleanup()
	return h
}

// minSweep is the shortest interval between eviction sweeps.
const minSweep = time.Second

func (h *Hub) sweepInterval() time.Duration {
	return max(h.idle/2, minSweep)
}

func (h *Hub) cleanup() {
	ticker := time.NewTicker(h.sweepInterval())
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			h.EvictIdle()
		case <-h.stop:
			return
		}
	}
}

// Session returns the session for id, creating it on first use.
func (h *Hub) Session(id string) *Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	e, ok := h.sessions[id]
	if !ok {
		e = &hubEntry{session: NewSession(h.renderer, h.timeout)}
		h.sessions[id] = e
	}
	e.lastUsed = h.now()
	return e.session
}

// EvictIdle closes and forgets sessions unused for longer than the idle
// timeout. It returns how many were removed.
func (h *Hub) EvictIdle() int {
	cutoff := h.now().Add(-h.idle)
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for id, e := range h.sessions {
		if e.lastUsed.Before(cutoff) {
			e.session.Close()
			delete(h.sessions, id)
			n++
		}
	}
	return n
}

// Len reports the number of live sessions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// Close stops the eviction loop and closes every session.
func (h *Hub) Close() {
	h.once.Do(func() {
		close(h.stop)
		h.mu.Lock()
		defer h.mu.Unlock()
		for id, e := range h.sessions {
			e.session.Close()
			delete(h.sessions, id)
		}
	})
}
