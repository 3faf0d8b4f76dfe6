package app

import "github.com/sgrey/chatline/internal/core"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	DropMessage
	KickSubscriber
)

type Policy interface {
	OnBackPressure(room core.RoomService, conn core.ConnID) BackpressureAction
}

// SimplePolicy disconnects a subscriber that cannot keep up. Stale entries
// are cleared on the next failed delivery instead of blocking the room.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(room core.RoomService, conn core.ConnID) BackpressureAction {
	return KickSubscriber
}
