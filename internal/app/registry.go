package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/sgrey/chatline/internal/core"
	"github.com/sgrey/chatline/internal/domain"
)

type connEntry struct {
	Room    domain.ChatID // 0 means no room
	Session core.Session
	Cancel  context.CancelFunc
}

// Registry is the authoritative mapping from connection id to its session
// and current room. Constructed once at service start and passed by handle;
// never ambient global state.
type Registry struct {
	mu    sync.RWMutex
	conns map[core.ConnID]*connEntry
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[core.ConnID]*connEntry)}
}

// Register tracks a new connection with no room. A duplicate id is a caller
// bug under normal handshake sequencing and is rejected.
func (r *Registry) Register(cid core.ConnID, sess core.Session, cancel context.CancelFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[cid]; ok {
		log.Error().Str("module", "app.registry").Str("conn", string(cid)).Msg("duplicate registration")
		return core.ErrAlreadyRegistered
	}
	r.conns[cid] = &connEntry{Session: sess, Cancel: cancel}
	log.Info().Str("module", "app.registry").Str("conn", string(cid)).Msg("registered connection")
	return nil
}

// Unregister removes the entry entirely and returns the room the connection
// was last subscribed to, so the caller can clean up directory membership.
// Unknown ids report ErrNotFound but are otherwise a no-op.
func (r *Registry) Unregister(cid core.ConnID) (domain.ChatID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.conns[cid]
	if !ok {
		log.Debug().Str("module", "app.registry").Str("conn", string(cid)).Msg("unregister of unknown connection")
		return 0, core.ErrNotFound
	}
	delete(r.conns, cid)
	log.Info().Str("module", "app.registry").Str("conn", string(cid)).Msg("unregistered connection")
	return entry.Room, nil
}

func (r *Registry) CurrentRoom(cid core.ConnID) (domain.ChatID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.conns[cid]
	if !ok || entry.Room == 0 {
		return 0, false
	}
	return entry.Room, true
}

func (r *Registry) Session(cid core.ConnID) (core.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.conns[cid]; ok {
		return e.Session, true
	}
	return nil, false
}

// SetRoom updates the current-room pointer. Returns false when the
// connection is no longer registered, so a join racing a disconnect cannot
// resurrect state.
func (r *Registry) SetRoom(cid core.ConnID, room domain.ChatID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.conns[cid]
	if !ok {
		return false
	}
	entry.Room = room
	log.Info().Str("module", "app.registry").Str("conn", string(cid)).Int64("chat", int64(room)).Msg("updated room")
	return true
}

// ClearRoom resets the pointer only if it currently equals room. A stale
// clear for a room the connection already left is a harmless no-op.
func (r *Registry) ClearRoom(cid core.ConnID, room domain.ChatID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry, ok := r.conns[cid]; ok && entry.Room == room {
		entry.Room = 0
	}
}

func (r *Registry) Cancel(cid core.ConnID) bool {
	r.mu.RLock()
	e, ok := r.conns[cid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("conn", string(cid)).Msg("canceled connection")
	return true
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
