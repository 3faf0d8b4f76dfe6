// Package store persists users, chats, memberships and messages in SQLite.
package store

import (
	"fmt"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Store struct {
	db *gorm.DB

	Users    *Users
	Chats    *Chats
	Messages *Messages
}

func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return New(db)
}

func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&User{}, &Chat{}, &ChatMember{}, &Message{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &Store{
		db:       db,
		Users:    &Users{db: db},
		Chats:    &Chats{db: db},
		Messages: &Messages{db: db},
	}, nil
}
