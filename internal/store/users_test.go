package store

import (
	"errors"
	"testing"
)

func TestUsers_Create(t *testing.T) {
	st := setupTestStore(t)

	user, err := st.Users.Create("alice", "hash")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if user.ID < smallIDMin {
		t.Fatalf("Create() id = %d, want random id >= %d", user.ID, smallIDMin)
	}

	if _, err := st.Users.Create("alice", "hash"); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("Create() duplicate error = %v, want ErrUsernameTaken", err)
	}
}

func TestUsers_ByUsername(t *testing.T) {
	st := setupTestStore(t)
	if _, err := st.Users.Create("alice", "hash"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	user, err := st.Users.ByUsername("alice")
	if err != nil {
		t.Fatalf("ByUsername() error = %v", err)
	}
	if user.Password != "hash" {
		t.Fatalf("ByUsername() password = %q, want stored hash", user.Password)
	}

	if _, err := st.Users.ByUsername("nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("ByUsername() unknown error = %v, want ErrNotFound", err)
	}
}

func TestUsers_Search(t *testing.T) {
	st := setupTestStore(t)
	alice, err := st.Users.Create("Alice", "h")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := st.Users.Create("alicia", "h"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := st.Users.Create("bob", "h"); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	tests := []struct {
		name    string
		query   string
		exclude int64
		want    int
	}{
		{name: "case insensitive match", query: "ali", exclude: 0, want: 2},
		{name: "excludes the searcher", query: "ali", exclude: alice.ID, want: 1},
		{name: "no match", query: "zzz", exclude: 0, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := st.Users.Search(tt.query, tt.exclude, 5)
			if err != nil {
				t.Fatalf("Search() error = %v", err)
			}
			if len(got) != tt.want {
				t.Fatalf("Search() = %d users, want %d", len(got), tt.want)
			}
		})
	}
}
