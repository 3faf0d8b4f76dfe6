package store

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

type Messages struct {
	db *gorm.DB
}

// MessageView is the serialized message shape shared with clients. Field
// names are a contract and round-trip through the realtime core unchanged.
type MessageView struct {
	ID        int64     `json:"id"`
	ChatID    int64     `json:"chat_id"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	Text      string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

func (m *Messages) Create(chatID, userID int64, text string) (*Message, error) {
	msg := &Message{ChatID: chatID, UserID: userID, Text: text, Timestamp: time.Now().UTC()}
	if err := m.db.Create(msg).Error; err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}
	return msg, nil
}

// History returns a chat's messages oldest first, with sender usernames
// resolved.
func (m *Messages) History(chatID int64) ([]MessageView, error) {
	var rows []MessageView
	err := m.db.Model(&Message{}).
		Select("messages.id, messages.chat_id, messages.user_id, users.username, messages.message AS text, messages.timestamp").
		Joins("LEFT JOIN users ON users.id = messages.user_id").
		Where("messages.chat_id = ?", chatID).
		Order("messages.timestamp ASC, messages.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	if rows == nil {
		rows = []MessageView{}
	}
	return rows, nil
}

// View resolves the sender's username for a stored message.
func (m *Messages) View(msg *Message) (MessageView, error) {
	var sender User
	if err := m.db.First(&sender, "id = ?", msg.UserID).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return MessageView{}, fmt.Errorf("failed to resolve sender: %w", err)
	}
	return MessageView{
		ID:        msg.ID,
		ChatID:    msg.ChatID,
		UserID:    msg.UserID,
		Username:  sender.Username,
		Text:      msg.Text,
		Timestamp: msg.Timestamp,
	}, nil
}
