package orch

import (
	"github.com/rs/zerolog/log"
	"github.com/sgrey/chatline/internal/core"
	"github.com/sgrey/chatline/internal/domain"
)

// Connect registers a fresh connection with no room.
func (o *Orchestrator) Connect(cid core.ConnID, sess core.Session, cancel func()) error {
	return o.Registry.Register(cid, sess, cancel)
}

// Join moves the connection into chatID, leaving its previous room first.
// Joining the room it is already in is a no-op. The whole transition is
// atomic with respect to concurrent join/leave/disconnect for the same
// connection.
func (o *Orchestrator) Join(cid core.ConnID, chatID domain.ChatID) error {
	l := o.connLock(cid)
	l.Lock()
	defer l.Unlock()

	cur, has := o.Registry.CurrentRoom(cid)
	if has && cur == chatID {
		return nil
	}
	if has {
		o.leaveRoom(cid, cur)
		log.Info().Str("module", "app.orch").Str("conn", string(cid)).Int64("from_chat", int64(cur)).Msg("left previous room")
	}

	sess, ok := o.Registry.Session(cid)
	if !ok {
		// Disconnected while this join was in flight; the disconnect wins.
		log.Debug().Str("module", "app.orch").Str("conn", string(cid)).Msg("join for unknown connection")
		o.dropLock(cid)
		return core.ErrNotFound
	}

	// A leave on another connection can empty the room and prune it between
	// the fetch and the subscribe. A pruned room refuses the subscribe, so
	// retry until the subscription lands on a room the directory still holds.
	var room core.RoomService
	for {
		room = o.Rooms.GetOrCreate(chatID)
		if room.Subscribe(cid, sess) {
			break
		}
	}
	if !o.Registry.SetRoom(cid, chatID) {
		room.Unsubscribe(cid)
		o.Rooms.Release(chatID)
		o.dropLock(cid)
		return core.ErrNotFound
	}
	log.Info().Str("module", "app.orch").Str("conn", string(cid)).Int64("chat", int64(chatID)).Msg("joined room")
	return nil
}

// Leave unsubscribes from chatID. A stale leave for a room the connection
// already left is a harmless no-op.
func (o *Orchestrator) Leave(cid core.ConnID, chatID domain.ChatID) {
	l := o.connLock(cid)
	l.Lock()
	defer l.Unlock()

	o.leaveRoom(cid, chatID)
	o.Registry.ClearRoom(cid, chatID)
	if _, ok := o.Registry.Session(cid); !ok {
		// Already unregistered; do not let the stale id pin a lock entry.
		o.dropLock(cid)
		return
	}
	log.Info().Str("module", "app.orch").Str("conn", string(cid)).Int64("chat", int64(chatID)).Msg("left room")
}

// Disconnect removes every trace of the connection: its subscription, its
// registry entry and its transition lock. Invoked by the transport adapter
// on every termination, graceful or abrupt.
func (o *Orchestrator) Disconnect(cid core.ConnID) error {
	l := o.connLock(cid)
	l.Lock()
	defer l.Unlock()

	room, err := o.Registry.Unregister(cid)
	if err != nil {
		o.dropLock(cid)
		return err
	}
	if room != 0 {
		o.leaveRoom(cid, room)
	}
	o.dropLock(cid)
	log.Info().Str("module", "app.orch").Str("conn", string(cid)).Msg("disconnected")
	return nil
}

func (o *Orchestrator) leaveRoom(cid core.ConnID, chatID domain.ChatID) {
	if room, ok := o.Rooms.Get(chatID); ok {
		room.Unsubscribe(cid)
		o.Rooms.Release(chatID)
	}
}
