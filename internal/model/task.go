package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ChecklistItem struct {
	Text string `json:"text"`
	Done bool   `json:"done"`
}

type Checklist struct {
	Title string          `json:"title"`
	Items []ChecklistItem `json:"items"`
}

type Cover struct {
	Type     string `json:"type"`
	Color    string `json:"color,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
}

type Comment struct {
	Author    uuid.UUID `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

type Attachment struct {
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Task.BoardID mirrors the parent list's board. It is written only by the
// hierarchy manager and never through a generic update.
type Task struct {
	ID          uuid.UUID                       `gorm:"type:uuid;primaryKey" json:"id"`
	BoardID     uuid.UUID                       `gorm:"type:uuid;not null;index" json:"board"`
	ListID      uuid.UUID                       `gorm:"type:uuid;not null;index" json:"list"`
	Title       string                          `gorm:"not null" json:"title"`
	Description string                          `json:"description"`
	Position    int                             `gorm:"not null" json:"position"`
	Labels      datatypes.JSONSlice[Label]      `json:"labels"`
	DueComplete bool                            `json:"dueComplete"`
	Members     datatypes.JSONSlice[uuid.UUID]  `json:"members"`
	StartDate   *time.Time                      `json:"startDate"`
	DueDate     *time.Time                      `json:"dueDate"`
	Reminder    *time.Time                      `json:"reminder"`
	Coordinates datatypes.JSONSlice[float64]    `json:"coordinates"`
	Checklist   datatypes.JSONSlice[Checklist]  `json:"checklist"`
	Cover       datatypes.JSONType[*Cover]      `json:"cover"`
	Comments    datatypes.JSONSlice[Comment]    `json:"comments"`
	Attachments datatypes.JSONSlice[Attachment] `json:"attachments"`
	Watching    bool                            `json:"watching"`
	ArchivedAt  *time.Time                      `gorm:"index" json:"archivedAt"`
	CreatedBy   uuid.UUID                       `gorm:"type:uuid" json:"createdBy"`
	CreatedAt   time.Time                       `json:"createdAt"`
	UpdatedAt   time.Time                       `json:"updatedAt"`
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.Labels == nil {
		t.Labels = datatypes.JSONSlice[Label]{}
	}
	if t.Members == nil {
		t.Members = datatypes.JSONSlice[uuid.UUID]{}
	}
	if t.Checklist == nil {
		t.Checklist = datatypes.JSONSlice[Checklist]{}
	}
	if t.Comments == nil {
		t.Comments = datatypes.JSONSlice[Comment]{}
	}
	if t.Attachments == nil {
		t.Attachments = datatypes.JSONSlice[Attachment]{}
	}
	return nil
}

func (t *Task) Archived() bool {
	return t.ArchivedAt != nil
}
