package store

import "testing"

func TestMessages_HistoryOrder(t *testing.T) {
	st := setupTestStore(t)
	users := seedUsers(t, st, "alice", "bob")
	chat, err := st.Chats.Create("pair", []int64{users[0].ID, users[1].ID})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	for _, text := range []string{"first", "second", "third"} {
		if _, err := st.Messages.Create(chat.ID, users[0].ID, text); err != nil {
			t.Fatalf("Create(%s) error = %v", text, err)
		}
	}

	history, err := st.Messages.History(chat.ID)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("History() = %d messages, want 3", len(history))
	}
	want := []string{"first", "second", "third"}
	for i, msg := range history {
		if msg.Text != want[i] {
			t.Fatalf("History()[%d] = %q, want %q", i, msg.Text, want[i])
		}
		if msg.Username != "alice" {
			t.Fatalf("History()[%d] username = %q, want alice", i, msg.Username)
		}
	}
}

func TestMessages_HistoryEmptyChat(t *testing.T) {
	st := setupTestStore(t)
	history, err := st.Messages.History(404)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("History() = %d messages for unknown chat, want 0", len(history))
	}
}

func TestMessages_View(t *testing.T) {
	st := setupTestStore(t)
	users := seedUsers(t, st, "alice")
	chat, err := st.Chats.Create("solo", []int64{users[0].ID})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	msg, err := st.Messages.Create(chat.ID, users[0].ID, "hi")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	view, err := st.Messages.View(msg)
	if err != nil {
		t.Fatalf("View() error = %v", err)
	}
	if view.ID != msg.ID || view.ChatID != chat.ID || view.Username != "alice" || view.Text != "hi" {
		t.Fatalf("View() = %+v, mismatch with stored message", view)
	}
	if view.Timestamp.IsZero() {
		t.Fatal("View() timestamp is zero")
	}
}
