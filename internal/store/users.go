package store

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrUsernameTaken = errors.New("username already exists")
)

type Users struct {
	db *gorm.DB
}

// Create registers a new account. passwordHash must already be hashed by
// the caller.
func (u *Users) Create(username, passwordHash string) (*User, error) {
	var count int64
	if err := u.db.Model(&User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if count > 0 {
		return nil, ErrUsernameTaken
	}

	id, err := allocID(func(id int64) (bool, error) {
		var n int64
		if err := u.db.Model(&User{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return false, err
		}
		return n > 0, nil
	})
	if err != nil {
		return nil, err
	}

	user := &User{ID: id, Username: username, Password: passwordHash}
	if err := u.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (u *Users) ByID(id int64) (*User, error) {
	var user User
	if err := u.db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

func (u *Users) ByUsername(username string) (*User, error) {
	var user User
	if err := u.db.First(&user, "username = ?", username).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

// Search matches usernames case-insensitively, excluding the searching user.
func (u *Users) Search(query string, exclude int64, limit int) ([]*User, error) {
	var users []*User
	pattern := "%" + strings.ToLower(query) + "%"
	err := u.db.
		Where("lower(username) LIKE ? AND id <> ?", pattern, exclude).
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	return users, nil
}
