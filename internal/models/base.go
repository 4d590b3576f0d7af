package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Model holds the UUID key and timestamps shared by mutable rows.
type Model struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns a UUID when the caller did not provide one.
func (m *Model) BeforeCreate(*gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// ClearServerFields drops the key and timestamps so the store assigns them.
func (m *Model) ClearServerFields() {
	m.ID = ""
	m.CreatedAt = time.Time{}
	m.UpdatedAt = time.Time{}
}
