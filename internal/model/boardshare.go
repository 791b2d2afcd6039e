package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BoardShare grants a user access to somebody else's board.
type BoardShare struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BoardID   uuid.UUID `gorm:"type:uuid;not null;index" json:"board"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index" json:"user"`
	Role      string    `gorm:"not null" json:"role"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`

	User User `gorm:"foreignKey:UserID" json:"-"`
}

func (s *BoardShare) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

const (
	RoleViewer = "viewer" // read only
	RoleEditor = "editor" // may mutate lists and tasks
	RoleOwner  = "owner"
)
