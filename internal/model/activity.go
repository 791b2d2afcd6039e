package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	EntityBoard = "board"
	EntityList  = "list"
	EntityTask  = "task"
)

// Activity is an append-only journal entry.
type Activity struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	BoardID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"board"`
	UserID     uuid.UUID      `gorm:"type:uuid;not null" json:"user"`
	EntityKind string         `gorm:"not null" json:"entityKind"`
	EntityID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"entityId"`
	Action     string         `gorm:"not null" json:"action"`
	Payload    datatypes.JSON `json:"payload,omitempty"`
	CreatedAt  time.Time      `gorm:"index" json:"createdAt"`
}

func (a *Activity) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
