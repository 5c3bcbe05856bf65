package activity

import "sync"

// Tracker remembers the session opened by session_start so that later
// calls without an explicit session id are attributed to it.
type Tracker struct {
	mu     sync.RWMutex
	active string
}

// Start makes id the active session.
func (t *Tracker) Start(id string) {
	t.mu.Lock()
	t.active = id
	t.mu.Unlock()
}

// Active returns the active session id, or "".
func (t *Tracker) Active() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.active
}

// End clears the active session if it is id.
func (t *Tracker) End(id string) {
	t.mu.Lock()
	if t.active == id {
		t.active = ""
	}
	t.mu.Unlock()
}
