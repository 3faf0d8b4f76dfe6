package domain

// ChatID identifies one chat conversation. The realtime core routes on the
// id only; the full chat record lives in the store.
type ChatID int64

type Chat struct {
	ID   ChatID `json:"id"`
	Name string `json:"name"`
}
