package store

import "time"

// User is a registered account. Password holds the bcrypt hash, never the
// plain text.
type User struct {
	ID             int64     `gorm:"primarykey" json:"id"`
	Username       string    `gorm:"size:80;uniqueIndex;not null" json:"username"`
	Password       string    `gorm:"size:120;not null" json:"-"`
	ProfilePicture string    `gorm:"size:255" json:"profile_picture,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func (User) TableName() string { return "users" }

// Chat keeps the recipient list as a comma-separated id string, mirroring
// the membership rows in chat_members.
type Chat struct {
	ID         int64     `gorm:"primarykey" json:"id"`
	Name       string    `gorm:"size:100" json:"name"`
	Recipients string    `gorm:"not null" json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Chat) TableName() string { return "chats" }

// ChatMember links a user into a chat. Read is cleared for the other
// members whenever a new message lands.
type ChatMember struct {
	ID     int64 `gorm:"primarykey" json:"id"`
	ChatID int64 `gorm:"index;not null" json:"chat_id"`
	UserID int64 `gorm:"index;not null" json:"user_id"`
	Read   bool  `gorm:"default:false" json:"read"`
}

func (ChatMember) TableName() string { return "chat_members" }

type Message struct {
	ID        int64     `gorm:"primarykey" json:"id"`
	ChatID    int64     `gorm:"index;not null" json:"chat_id"`
	UserID    int64     `gorm:"not null" json:"user_id"`
	Text      string    `gorm:"column:message;not null" json:"message"`
	Timestamp time.Time `gorm:"autoCreateTime" json:"timestamp"`
}

func (Message) TableName() string { return "messages" }
