package core

import (
	"sync"

	"github.com/sgrey/chatline/internal/domain"
)

type directoryImpl struct {
	mu    sync.RWMutex
	rooms map[domain.ChatID]RoomService
}

func NewRoomDirectory() RoomDirectory {
	return &directoryImpl{rooms: make(map[domain.ChatID]RoomService)}
}

func (d *directoryImpl) GetOrCreate(id domain.ChatID) RoomService {
	d.mu.RLock()
	room, ok := d.rooms[id]
	d.mu.RUnlock()
	if ok {
		return room
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if room, ok = d.rooms[id]; ok {
		return room
	}
	room = NewRoomService(id)
	d.rooms[id] = room
	return room
}

func (d *directoryImpl) Get(id domain.ChatID) (RoomService, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	room, ok := d.rooms[id]
	return room, ok
}

// Release reclaims the bookkeeping for an empty room. The room is retired
// under its own lock before it leaves the map, so a concurrent subscribe
// either gets in first (the room stays) or is refused and retries against a
// fresh room. The chat itself is stored externally and is not touched.
func (d *directoryImpl) Release(id domain.ChatID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	room, ok := d.rooms[id]
	if !ok {
		return
	}
	if r, ok := room.(*roomImpl); ok {
		if !r.retire() {
			return
		}
	} else if room.Count() > 0 {
		return
	}
	delete(d.rooms, id)
}

func (d *directoryImpl) List() []RoomInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]RoomInfo, 0, len(d.rooms))
	for id, r := range d.rooms {
		out = append(out, RoomInfo{ID: id, Count: r.Count()})
	}
	return out
}
