package gateway

import (
	"sync"
	"time"

	"inkyspace/internal/state"
)

// workspaces keeps one state.Store per session cookie so the onboarding
// wizard remembers its step between requests. Idle entries expire.
type workspaces struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]*workspace
}

type workspace struct {
	store *state.Store
	seen  time.Time
}

func newWorkspaces(ttl time.Duration) *workspaces {
	return &workspaces{ttl: ttl, now: time.Now, entries: make(map[string]*workspace)}
}

func (ws *workspaces) get(session string) *state.Store {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	now := ws.now()
	for k, e := range ws.entries {
		if now.Sub(e.seen) > ws.ttl {
			delete(ws.entries, k)
		}
	}
	e, ok := ws.entries[session]
	if !ok {
		e = &workspace{store: state.NewStore(state.AppState{})}
		ws.entries[session] = e
	}
	e.seen = now
	return e.store
}

func (ws *workspaces) drop(session string) {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	delete(ws.entries, session)
}

func (ws *workspaces) len() int {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return len(ws.entries)
}
