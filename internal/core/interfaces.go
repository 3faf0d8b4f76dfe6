package core

import (
	"errors"

	"github.com/sgrey/chatline/internal/domain"
)

// Payload is an opaque serialized message. The core routes it by chat id
// and never looks inside.
type Payload []byte

// ConnID identifies one live realtime connection.
type ConnID string

var (
	ErrAlreadyRegistered = errors.New("connection already registered")
	ErrNotFound          = errors.New("not found")
	ErrDeliveryFailed    = errors.New("delivery failed")
)

// SignalConnection abstracts the realtime transport endpoint.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Payload) error
	Close()
}

// Session binds a user to its transport endpoint.
// This is what a room stores and fans out to.
type Session interface {
	User() *domain.User
	Signal() SignalConnection
}

// PublishResult reports delivery stats/backpressure to the orchestrator.
type PublishResult struct {
	SentTo  int
	Dropped []ConnID
}

// SubscriberSnap is a point-in-time view of one subscriber.
type SubscriberSnap struct {
	Conn    ConnID
	Session Session
}

// RoomService is the core-facing API of a room.
// It owns the subscriber set but never touches transport resources.
type RoomService interface {
	ID() domain.ChatID
	Count() int
	Subscribers() []SubscriberSnap

	// Subscribe reports false when the room has already been pruned from
	// its directory; the caller must fetch a fresh room and retry.
	Subscribe(ConnID, Session) bool
	Unsubscribe(ConnID)
	Broadcast(Payload) PublishResult
}

type RoomInfo struct {
	ID    domain.ChatID `json:"id"`
	Count int           `json:"client_count"`
}

// RoomDirectory maps chat ids to live rooms. Empty rooms are pruned via
// Release; the chat itself persists in the store.
type RoomDirectory interface {
	GetOrCreate(domain.ChatID) RoomService
	Get(domain.ChatID) (RoomService, bool)
	Release(domain.ChatID)
	List() []RoomInfo
}
