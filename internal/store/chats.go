package store

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

type Chats struct {
	db *gorm.DB
}

// LatestMessage is the preview line shown in the chat list.
type LatestMessage struct {
	Text      string     `json:"message"`
	Username  string     `json:"username,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// ChatSummary is one row of a user's chat list. Name falls back to the
// other members' usernames when the chat itself is unnamed.
type ChatSummary struct {
	ID     int64         `json:"id"`
	Name   string        `json:"name"`
	Read   bool          `json:"read"`
	Latest LatestMessage `json:"latest_message"`
}

// Create stores a chat plus one membership row per recipient. recipients
// must already include the creator.
func (c *Chats) Create(name string, recipients []int64) (*Chat, error) {
	if len(recipients) == 0 {
		return nil, fmt.Errorf("chat needs at least one recipient")
	}

	id, err := allocID(func(id int64) (bool, error) {
		var n int64
		if err := c.db.Model(&Chat{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return false, err
		}
		return n > 0, nil
	})
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(recipients))
	for _, r := range recipients {
		ids = append(ids, strconv.FormatInt(r, 10))
	}
	chat := &Chat{ID: id, Name: name, Recipients: strings.Join(ids, ",")}

	err = c.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(chat).Error; err != nil {
			return fmt.Errorf("failed to create chat: %w", err)
		}
		for _, uid := range recipients {
			m := &ChatMember{ChatID: chat.ID, UserID: uid}
			if err := tx.Create(m).Error; err != nil {
				return fmt.Errorf("failed to add member: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return chat, nil
}

func (c *Chats) ByID(id int64) (*Chat, error) {
	var chat Chat
	if err := c.db.First(&chat, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find chat: %w", err)
	}
	return &chat, nil
}

func (c *Chats) IsMember(chatID, userID int64) (bool, error) {
	var n int64
	err := c.db.Model(&ChatMember{}).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return n > 0, nil
}

// ForUser lists the user's chats, newest activity first is left to the
// client; order here follows chat creation.
func (c *Chats) ForUser(userID int64) ([]ChatSummary, error) {
	var members []ChatMember
	if err := c.db.Where("user_id = ?", userID).Find(&members).Error; err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}

	out := make([]ChatSummary, 0, len(members))
	for _, m := range members {
		chat, err := c.ByID(m.ChatID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}

		sum := ChatSummary{ID: chat.ID, Name: chat.Name, Read: m.Read}
		if sum.Name == "" {
			name, err := c.derivedName(chat, userID)
			if err != nil {
				return nil, err
			}
			sum.Name = name
		}

		var latest Message
		err = c.db.Where("chat_id = ?", chat.ID).Order("timestamp DESC").First(&latest).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			sum.Latest = LatestMessage{Text: "Empty chat"}
		case err != nil:
			return nil, fmt.Errorf("failed to load latest message: %w", err)
		default:
			var sender User
			if err := c.db.First(&sender, "id = ?", latest.UserID).Error; err == nil {
				sum.Latest.Username = sender.Username
			}
			sum.Latest.Text = latest.Text
			ts := latest.Timestamp
			sum.Latest.Timestamp = &ts
		}
		out = append(out, sum)
	}
	return out, nil
}

// derivedName joins the other recipients' usernames.
func (c *Chats) derivedName(chat *Chat, viewer int64) (string, error) {
	var names []string
	for _, part := range strings.Split(chat.Recipients, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil || id == viewer {
			continue
		}
		var u User
		if err := c.db.First(&u, "id = ?", id).Error; err != nil {
			continue
		}
		names = append(names, u.Username)
	}
	return strings.Join(names, ", "), nil
}

// MarkRead flips the member's read flag when they open the chat.
func (c *Chats) MarkRead(chatID, userID int64) error {
	err := c.db.Model(&ChatMember{}).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		Update("read", true).Error
	if err != nil {
		return fmt.Errorf("failed to mark read: %w", err)
	}
	return nil
}

// MarkUnreadExcept clears the read flag for everyone but the sender.
func (c *Chats) MarkUnreadExcept(chatID, senderID int64) error {
	err := c.db.Model(&ChatMember{}).
		Where("chat_id = ? AND user_id <> ?", chatID, senderID).
		Update("read", false).Error
	if err != nil {
		return fmt.Errorf("failed to mark unread: %w", err)
	}
	return nil
}
