// Package orch coordinates the connection registry and the room directory
// so the one-room-per-connection invariant always holds.
package orch

import (
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/sgrey/chatline/internal/app"
	"github.com/sgrey/chatline/internal/core"
	"github.com/sgrey/chatline/internal/domain"
)

type Orchestrator struct {
	Registry *app.Registry
	Rooms    core.RoomDirectory
	Policy   app.Policy

	mu    sync.Mutex
	locks map[core.ConnID]*sync.Mutex
}

func NewOrchestrator(reg *app.Registry, rooms core.RoomDirectory, policy app.Policy) *Orchestrator {
	return &Orchestrator{
		Registry: reg,
		Rooms:    rooms,
		Policy:   policy,
		locks:    make(map[core.ConnID]*sync.Mutex),
	}
}

// connLock serializes join/leave/disconnect transitions per connection.
// Transitions for different connections stay independent.
func (o *Orchestrator) connLock(cid core.ConnID) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	l, ok := o.locks[cid]
	if !ok {
		l = &sync.Mutex{}
		o.locks[cid] = l
	}
	return l
}

func (o *Orchestrator) dropLock(cid core.ConnID) {
	o.mu.Lock()
	delete(o.locks, cid)
	o.mu.Unlock()
}

// Broadcast fans a payload out to every current subscriber of a chat.
// Delivery failures are isolated per subscriber; the policy decides what
// happens to the ones that could not keep up.
func (o *Orchestrator) Broadcast(chatID domain.ChatID, payload core.Payload) core.PublishResult {
	room, ok := o.Rooms.Get(chatID)
	if !ok {
		log.Debug().Str("module", "app.orch").Int64("chat", int64(chatID)).Msg("broadcast to empty room")
		return core.PublishResult{}
	}

	res := room.Broadcast(payload)
	if o.Policy == nil {
		return res
	}
	for _, slow := range res.Dropped {
		switch o.Policy.OnBackPressure(room, slow) {
		case app.KickSubscriber:
			log.Warn().Str("module", "app.orch").Str("conn", string(slow)).Int64("chat", int64(chatID)).Msg("kicking slow subscriber")
			o.Registry.Cancel(slow)
			_ = o.Disconnect(slow)
		case app.DropMessage, app.NoAction:
		}
	}
	return res
}
