package chatws

import (
	"context"
	"log"
	"sync"
)

type presenceStore interface {
	SetOnline(ctx context.Context, userID int64, userType string, socketID string) error
	SetOffline(ctx context.Context, userID int64, userType string) error
}

type identity struct {
	userID   int64
	userType string
	name     string
}

// Registry tracks live gateway sessions in-process: session id to
// identity and identity to its set of session ids. Mutations happen
// only from gateway event handlers; REST handlers read the persisted
// presence rows instead. Persistence is write-through and best-effort:
// a failed write never takes the connection down.
type Registry struct {
	mu       sync.Mutex
	store    presenceStore
	sessions map[string]identity
	users    map[int64]map[string]struct{}
}

func NewRegistry(store presenceStore) *Registry {
	return &Registry{
		store:    store,
		sessions: make(map[string]identity),
		users:    make(map[int64]map[string]struct{}),
	}
}

// MarkOnline records a session for the identity and mirrors the online
// state into the presence table. It reports whether this was the
// identity's first live session.
func (r *Registry) MarkOnline(ctx context.Context, userID int64, userType string, name string, sessionID string) bool {
	r.mu.Lock()
	r.sessions[sessionID] = identity{userID: userID, userType: userType, name: name}
	set, ok := r.users[userID]
	if !ok {
		set = make(map[string]struct{})
		r.users[userID] = set
	}
	set[sessionID] = struct{}{}
	first := len(set) == 1
	r.mu.Unlock()

	if err := r.store.SetOnline(ctx, userID, userType, sessionID); err != nil {
		log.Printf("presence write online user=%d: %v", userID, err)
	}

	return first
}

// Remove forgets a session and reports whether the identity has no
// sessions left. It does not touch the persisted record; callers flip
// that via MarkOffline once the last session is confirmed gone.
func (r *Registry) Remove(sessionID string) (int64, string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.sessions[sessionID]
	if !ok {
		return 0, "", false
	}
	delete(r.sessions, sessionID)

	set := r.users[id.userID]
	delete(set, sessionID)
	if len(set) > 0 {
		return id.userID, id.userType, false
	}
	delete(r.users, id.userID)

	return id.userID, id.userType, true
}

// Refresh re-touches the persisted record for a live session so
// last_seen keeps moving while the connection stays up. Unknown
// sessions are ignored.
func (r *Registry) Refresh(ctx context.Context, sessionID string) {
	r.mu.Lock()
	id, ok := r.sessions[sessionID]
	r.mu.Unlock()
	if !ok {
		return
	}

	if err := r.store.SetOnline(ctx, id.userID, id.userType, sessionID); err != nil {
		log.Printf("presence refresh user=%d: %v", id.userID, err)
	}
}

// MarkOffline persists the offline transition, re-checking that the
// identity still has no live session first. A device reconnecting
// between the caller's Remove and this call wins; the stale offline
// write is skipped and false is returned so the caller suppresses its
// status broadcast too.
func (r *Registry) MarkOffline(ctx context.Context, userID int64, userType string) bool {
	r.mu.Lock()
	stillLive := len(r.users[userID]) > 0
	r.mu.Unlock()
	if stillLive {
		return false
	}

	if err := r.store.SetOffline(ctx, userID, userType); err != nil {
		log.Printf("presence write offline user=%d: %v", userID, err)
	}
	return true
}

func (r *Registry) IsOnline(userID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users[userID]) > 0
}

func (r *Registry) ListOnline() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	online := make([]int64, 0, len(r.users))
	for userID := range r.users {
		online = append(online, userID)
	}
	return online
}
