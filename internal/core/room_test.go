package core

import (
	"errors"
	"sync"
	"testing"

	"github.com/sgrey/chatline/internal/domain"
)

type fakeConn struct {
	mu   sync.Mutex
	got  []Payload
	fail bool
}

func (f *fakeConn) TrySend(p Payload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return ErrDeliveryFailed
	}
	f.got = append(f.got, p)
	return nil
}

func (f *fakeConn) Close() {}

func (f *fakeConn) received() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.got)
}

func fakeSession(id int64, conn SignalConnection) Session {
	return NewSession(&domain.User{ID: domain.UserID(id), Username: "u"}, conn)
}

func TestRoom_SubscribeIdempotent(t *testing.T) {
	room := NewRoomService(42)
	conn := &fakeConn{}

	room.Subscribe("c1", fakeSession(1, conn))
	room.Subscribe("c1", fakeSession(1, conn))

	if got := room.Count(); got != 1 {
		t.Fatalf("Count() = %d, want 1", got)
	}
}

func TestRoom_Unsubscribe(t *testing.T) {
	room := NewRoomService(42)
	room.Subscribe("c1", fakeSession(1, &fakeConn{}))

	room.Unsubscribe("c1")
	room.Unsubscribe("c1") // second time is a no-op

	if got := room.Count(); got != 0 {
		t.Fatalf("Count() = %d, want 0", got)
	}
	if got := room.Subscribers(); len(got) != 0 {
		t.Fatalf("Subscribers() = %d entries, want 0", len(got))
	}
}

func TestRoom_BroadcastFanout(t *testing.T) {
	room := NewRoomService(42)

	healthy := make([]*fakeConn, 3)
	for i := range healthy {
		healthy[i] = &fakeConn{}
		room.Subscribe(ConnID(string(rune('a'+i))), fakeSession(int64(i), healthy[i]))
	}
	broken := &fakeConn{fail: true}
	room.Subscribe("broken", fakeSession(9, broken))

	res := room.Broadcast(Payload(`{"message":"hi"}`))

	if res.SentTo != 3 {
		t.Fatalf("SentTo = %d, want 3", res.SentTo)
	}
	if len(res.Dropped) != 1 || res.Dropped[0] != "broken" {
		t.Fatalf("Dropped = %v, want [broken]", res.Dropped)
	}
	for i, c := range healthy {
		if c.received() != 1 {
			t.Fatalf("healthy conn %d received %d payloads, want exactly 1", i, c.received())
		}
	}
}

func TestRoom_BroadcastEmpty(t *testing.T) {
	room := NewRoomService(42)
	res := room.Broadcast(Payload("x"))
	if res.SentTo != 0 || len(res.Dropped) != 0 {
		t.Fatalf("Broadcast() on empty room = %+v, want zero result", res)
	}
}

func TestDirectory_GetOrCreate(t *testing.T) {
	d := NewRoomDirectory()

	r1 := d.GetOrCreate(42)
	r2 := d.GetOrCreate(42)
	if r1 != r2 {
		t.Fatal("GetOrCreate() returned different rooms for the same id")
	}

	if _, ok := d.Get(7); ok {
		t.Fatal("Get() ok = true for unknown room, want false")
	}
}

func TestDirectory_ReleasePrunesEmptyRooms(t *testing.T) {
	d := NewRoomDirectory()
	room := d.GetOrCreate(42)
	room.Subscribe("c1", fakeSession(1, &fakeConn{}))

	// Occupied rooms survive a release.
	d.Release(42)
	if _, ok := d.Get(42); !ok {
		t.Fatal("Release() pruned an occupied room")
	}

	room.Unsubscribe("c1")
	d.Release(42)
	if _, ok := d.Get(42); ok {
		t.Fatal("Release() kept an empty room")
	}
}

func TestDirectory_ReleaseRetiresRoomObject(t *testing.T) {
	d := NewRoomDirectory()
	room := d.GetOrCreate(42)
	d.Release(42)

	// The pruned object must refuse new subscribers, otherwise a caller
	// holding a stale reference would build membership the directory cannot
	// see.
	if room.Subscribe("c1", fakeSession(1, &fakeConn{})) {
		t.Fatal("Subscribe() succeeded on a pruned room")
	}

	fresh := d.GetOrCreate(42)
	if fresh == room {
		t.Fatal("GetOrCreate() handed back the pruned room")
	}
	if !fresh.Subscribe("c1", fakeSession(1, &fakeConn{})) {
		t.Fatal("Subscribe() failed on a live room")
	}
	// With a subscriber inside, the room survives a release.
	d.Release(42)
	if got, ok := d.Get(42); !ok || got != fresh {
		t.Fatal("Release() pruned an occupied room")
	}
}

func TestDirectory_List(t *testing.T) {
	d := NewRoomDirectory()
	d.GetOrCreate(1).Subscribe("c1", fakeSession(1, &fakeConn{}))
	d.GetOrCreate(2)

	infos := d.List()
	if len(infos) != 2 {
		t.Fatalf("List() = %d rooms, want 2", len(infos))
	}
	counts := map[domain.ChatID]int{}
	for _, in := range infos {
		counts[in.ID] = in.Count
	}
	if counts[1] != 1 || counts[2] != 0 {
		t.Fatalf("List() counts = %v, want {1:1 2:0}", counts)
	}
}

func TestErrDeliveryFailedIsMatchable(t *testing.T) {
	conn := &fakeConn{fail: true}
	err := conn.TrySend(Payload("x"))
	if !errors.Is(err, ErrDeliveryFailed) {
		t.Fatalf("TrySend() error = %v, want ErrDeliveryFailed", err)
	}
}
