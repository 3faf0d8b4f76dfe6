package store

import (
	"errors"
	"testing"
)

func seedUsers(t *testing.T, st *Store, names ...string) []*User {
	t.Helper()
	out := make([]*User, 0, len(names))
	for _, n := range names {
		u, err := st.Users.Create(n, "hash")
		if err != nil {
			t.Fatalf("Create(%s) error = %v", n, err)
		}
		out = append(out, u)
	}
	return out
}

func TestChats_Create(t *testing.T) {
	st := setupTestStore(t)
	users := seedUsers(t, st, "alice", "bob")

	chat, err := st.Chats.Create("pair", []int64{users[0].ID, users[1].ID})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	for _, u := range users {
		member, err := st.Chats.IsMember(chat.ID, u.ID)
		if err != nil {
			t.Fatalf("IsMember() error = %v", err)
		}
		if !member {
			t.Fatalf("IsMember(%d, %d) = false, want true", chat.ID, u.ID)
		}
	}

	outsider, err := st.Chats.IsMember(chat.ID, 12345)
	if err != nil {
		t.Fatalf("IsMember() error = %v", err)
	}
	if outsider {
		t.Fatal("IsMember() = true for outsider, want false")
	}
}

func TestChats_CreateNoRecipients(t *testing.T) {
	st := setupTestStore(t)
	if _, err := st.Chats.Create("empty", nil); err == nil {
		t.Fatal("Create() error = nil, want error for empty recipient list")
	}
}

func TestChats_ByIDNotFound(t *testing.T) {
	st := setupTestStore(t)
	if _, err := st.Chats.ByID(404); !errors.Is(err, ErrNotFound) {
		t.Fatalf("ByID() error = %v, want ErrNotFound", err)
	}
}

func TestChats_ForUser(t *testing.T) {
	st := setupTestStore(t)
	users := seedUsers(t, st, "alice", "bob")

	chat, err := st.Chats.Create("", []int64{users[0].ID, users[1].ID})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Empty chat: placeholder preview, derived name, unread by default.
	chats, err := st.Chats.ForUser(users[0].ID)
	if err != nil {
		t.Fatalf("ForUser() error = %v", err)
	}
	if len(chats) != 1 {
		t.Fatalf("ForUser() = %d chats, want 1", len(chats))
	}
	if chats[0].Name != "bob" {
		t.Fatalf("derived name = %q, want %q", chats[0].Name, "bob")
	}
	if chats[0].Latest.Text != "Empty chat" {
		t.Fatalf("latest preview = %q, want placeholder", chats[0].Latest.Text)
	}
	if chats[0].Read {
		t.Fatal("fresh membership marked read, want unread")
	}

	if _, err := st.Messages.Create(chat.ID, users[1].ID, "hello"); err != nil {
		t.Fatalf("Messages.Create() error = %v", err)
	}

	chats, err = st.Chats.ForUser(users[0].ID)
	if err != nil {
		t.Fatalf("ForUser() error = %v", err)
	}
	if chats[0].Latest.Text != "hello" || chats[0].Latest.Username != "bob" {
		t.Fatalf("latest = %+v, want hello from bob", chats[0].Latest)
	}
}

func TestChats_ReadFlags(t *testing.T) {
	st := setupTestStore(t)
	users := seedUsers(t, st, "alice", "bob")
	chat, err := st.Chats.Create("pair", []int64{users[0].ID, users[1].ID})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := st.Chats.MarkRead(chat.ID, users[0].ID); err != nil {
		t.Fatalf("MarkRead() error = %v", err)
	}
	if err := st.Chats.MarkRead(chat.ID, users[1].ID); err != nil {
		t.Fatalf("MarkRead() error = %v", err)
	}

	// bob sends: alice's flag clears, bob's stays.
	if err := st.Chats.MarkUnreadExcept(chat.ID, users[1].ID); err != nil {
		t.Fatalf("MarkUnreadExcept() error = %v", err)
	}

	aliceChats, err := st.Chats.ForUser(users[0].ID)
	if err != nil {
		t.Fatalf("ForUser() error = %v", err)
	}
	if aliceChats[0].Read {
		t.Fatal("alice still marked read after bob's message")
	}

	bobChats, err := st.Chats.ForUser(users[1].ID)
	if err != nil {
		t.Fatalf("ForUser() error = %v", err)
	}
	if !bobChats[0].Read {
		t.Fatal("sender's read flag was cleared")
	}
}
