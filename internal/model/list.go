package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type List struct {
	ID         uuid.UUID                      `gorm:"type:uuid;primaryKey" json:"id"`
	BoardID    uuid.UUID                      `gorm:"type:uuid;not null;index" json:"board"`
	Title      string                         `gorm:"not null" json:"title"`
	Position   int                            `gorm:"not null" json:"position"`
	TaskIDs    datatypes.JSONSlice[uuid.UUID] `gorm:"column:task_ids" json:"tasks"`
	ArchivedAt *time.Time                     `gorm:"index" json:"archivedAt"`
	Style      datatypes.JSON                 `json:"style"`
	CreatedAt  time.Time                      `json:"createdAt"`
	UpdatedAt  time.Time                      `json:"updatedAt"`
}

func (l *List) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.TaskIDs == nil {
		l.TaskIDs = datatypes.JSONSlice[uuid.UUID]{}
	}
	return nil
}

func (l *List) Archived() bool {
	return l.ArchivedAt != nil
}
