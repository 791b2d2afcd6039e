package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	StyleColor = "color"
	StyleImage = "image"
)

// BoardStyle is either a solid colour or a background image.
type BoardStyle struct {
	Type  string `json:"type"`
	Color string `json:"color,omitempty"`
	Image string `json:"image,omitempty"`
}

type Board struct {
	ID          uuid.UUID                       `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string                          `gorm:"not null" json:"title"`
	Description string                          `json:"description"`
	Style       datatypes.JSONType[*BoardStyle] `json:"style"`
	Starred     bool                            `json:"starred"`
	ArchivedAt  *time.Time                      `gorm:"index" json:"archivedAt"`
	ListIDs     datatypes.JSONSlice[uuid.UUID]  `gorm:"column:list_ids" json:"lists"`
	Labels      datatypes.JSONSlice[Label]      `json:"labels"`
	OwnerID     uuid.UUID                       `gorm:"type:uuid;not null;index" json:"owner"`
	CreatedAt   time.Time                       `json:"createdAt"`
	UpdatedAt   time.Time                       `json:"updatedAt"`
}

func (b *Board) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.ListIDs == nil {
		b.ListIDs = datatypes.JSONSlice[uuid.UUID]{}
	}
	if b.Labels == nil {
		b.Labels = DefaultPalette()
	}
	return nil
}

// Archived reports whether the board was soft deleted.
func (b *Board) Archived() bool {
	return b.ArchivedAt != nil
}
