package core

import (
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/sgrey/chatline/internal/domain"
)

// roomImpl is a threadsafe in-memory subscriber set for one chat.
// It never closes adapter-owned resources.
type roomImpl struct {
	id      domain.ChatID
	mu      sync.RWMutex
	subs    map[ConnID]Session
	retired bool
}

func NewRoomService(id domain.ChatID) RoomService {
	return &roomImpl{
		id:   id,
		subs: make(map[ConnID]Session),
	}
}

func (r *roomImpl) ID() domain.ChatID { return r.id }

func (r *roomImpl) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.subs)
}

// Subscribe is idempotent: adding a connection twice is a no-op. A retired
// room refuses new subscribers, so a join racing the prune cannot land on a
// room object the directory no longer knows.
func (r *roomImpl) Subscribe(cid ConnID, s Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.retired {
		return false
	}
	if _, ok := r.subs[cid]; ok {
		return true
	}
	r.subs[cid] = s
	log.Debug().Str("module", "core.room").Int64("chat", int64(r.id)).Str("conn", string(cid)).Msg("subscribed")
	return true
}

// retire marks the room unusable so it can be pruned. Fails if any
// subscriber got in first; the directory then keeps the room alive.
func (r *roomImpl) retire() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.subs) > 0 {
		return false
	}
	r.retired = true
	return true
}

func (r *roomImpl) Unsubscribe(cid ConnID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.subs, cid)
	log.Debug().Str("module", "core.room").Int64("chat", int64(r.id)).Str("conn", string(cid)).Msg("unsubscribed")
}

// Broadcast fans the payload out to every current subscriber. Delivery is
// independent per subscriber: a failed TrySend lands the connection in
// Dropped and the loop moves on.
func (r *roomImpl) Broadcast(p Payload) PublishResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := PublishResult{}
	for cid, s := range r.subs {
		if err := s.Signal().TrySend(p); err != nil {
			res.Dropped = append(res.Dropped, cid)
			continue
		}
		res.SentTo++
	}
	log.Debug().Str("module", "core.room").Int64("chat", int64(r.id)).Int("sent_to", res.SentTo).Int("dropped", len(res.Dropped)).Msg("broadcast result")
	return res
}

func (r *roomImpl) Subscribers() []SubscriberSnap {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]SubscriberSnap, 0, len(r.subs))
	for cid, s := range r.subs {
		out = append(out, SubscriberSnap{Conn: cid, Session: s})
	}
	return out
}
