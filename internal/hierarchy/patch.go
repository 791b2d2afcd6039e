package hierarchy

import (
	"encoding/json"
	"time"

	"taskboard/internal/apperr"
	"taskboard/internal/model"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Nullable separates a field that was left out of a patch from one that was
// explicitly cleared.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

func Value[T any](v T) Nullable[T] {
	return Nullable[T]{Set: true, Value: &v}
}

func Null[T any]() Nullable[T] {
	return Nullable[T]{Set: true}
}

// BoardPatch lists every board field a client may change. Ownership and the
// list array are not part of it.
type BoardPatch struct {
	Title       *string
	Description *string
	Style       Nullable[model.BoardStyle]
	Starred     *bool
	ArchivedAt  Nullable[time.Time]
	Labels      *[]model.Label
}

func (p BoardPatch) columns() map[string]any {
	cols := map[string]any{}
	if p.Title != nil {
		cols["title"] = *p.Title
	}
	if p.Description != nil {
		cols["description"] = *p.Description
	}
	if p.Style.Set {
		cols["style"] = datatypes.NewJSONType(p.Style.Value)
	}
	if p.Starred != nil {
		cols["starred"] = *p.Starred
	}
	if p.ArchivedAt.Set {
		cols["archived_at"] = p.ArchivedAt.Value
	}
	if p.Labels != nil {
		cols["labels"] = jsonSlice(*p.Labels)
	}
	return cols
}

func (p BoardPatch) validate() error {
	if p.Title != nil && *p.Title == "" {
		return apperr.Invalid("title cannot be empty")
	}
	return nil
}

// ListPatch never carries the board reference: a list cannot change boards.
type ListPatch struct {
	Title      *string
	Position   *int
	ArchivedAt Nullable[time.Time]
	Style      Nullable[json.RawMessage]
}

func (p ListPatch) columns() map[string]any {
	cols := map[string]any{}
	if p.Title != nil {
		cols["title"] = *p.Title
	}
	if p.Position != nil {
		cols["position"] = *p.Position
	}
	if p.ArchivedAt.Set {
		cols["archived_at"] = p.ArchivedAt.Value
	}
	if p.Style.Set {
		var style datatypes.JSON
		if p.Style.Value != nil {
			style = datatypes.JSON(*p.Style.Value)
		}
		cols["style"] = style
	}
	return cols
}

func (p ListPatch) validate() error {
	if p.Title != nil && *p.Title == "" {
		return apperr.Invalid("title cannot be empty")
	}
	return nil
}

func (p ListPatch) relinks() bool {
	return p.Position != nil || (p.ArchivedAt.Set && p.ArchivedAt.Value == nil)
}

// TaskPatch covers the writable task fields. Board and list references move
// only through MoveTask.
type TaskPatch struct {
	Title       *string
	Description *string
	Position    *int
	Labels      *[]model.Label
	DueComplete *bool
	Members     *[]uuid.UUID
	StartDate   Nullable[time.Time]
	DueDate     Nullable[time.Time]
	Reminder    Nullable[time.Time]
	Coordinates Nullable[[]float64]
	Checklist   *[]model.Checklist
	Cover       Nullable[model.Cover]
	Comments    *[]model.Comment
	Attachments *[]model.Attachment
	Watching    *bool
	ArchivedAt  Nullable[time.Time]
}

func (p TaskPatch) columns() map[string]any {
	cols := map[string]any{}
	if p.Title != nil {
		cols["title"] = *p.Title
	}
	if p.Description != nil {
		cols["description"] = *p.Description
	}
	if p.Position != nil {
		cols["position"] = *p.Position
	}
	if p.Labels != nil {
		cols["labels"] = jsonSlice(*p.Labels)
	}
	if p.DueComplete != nil {
		cols["due_complete"] = *p.DueComplete
	}
	if p.Members != nil {
		cols["members"] = jsonSlice(*p.Members)
	}
	if p.StartDate.Set {
		cols["start_date"] = p.StartDate.Value
	}
	if p.DueDate.Set {
		cols["due_date"] = p.DueDate.Value
	}
	if p.Reminder.Set {
		cols["reminder"] = p.Reminder.Value
	}
	if p.Coordinates.Set {
		var coords []float64
		if p.Coordinates.Value != nil {
			coords = *p.Coordinates.Value
		}
		cols["coordinates"] = jsonSlice(coords)
	}
	if p.Checklist != nil {
		cols["checklist"] = jsonSlice(*p.Checklist)
	}
	if p.Cover.Set {
		cols["cover"] = datatypes.NewJSONType(p.Cover.Value)
	}
	if p.Comments != nil {
		cols["comments"] = jsonSlice(*p.Comments)
	}
	if p.Attachments != nil {
		cols["attachments"] = jsonSlice(*p.Attachments)
	}
	if p.Watching != nil {
		cols["watching"] = *p.Watching
	}
	if p.ArchivedAt.Set {
		cols["archived_at"] = p.ArchivedAt.Value
	}
	return cols
}

func (p TaskPatch) validate() error {
	if p.Title != nil && *p.Title == "" {
		return apperr.Invalid("title cannot be empty")
	}
	if p.Coordinates.Value != nil && len(*p.Coordinates.Value) != 2 {
		return apperr.Invalid("coordinates must be a [lat, lng] pair")
	}
	if p.Cover.Value != nil && p.Cover.Value.Type != "color" && p.Cover.Value.Type != "image" {
		return apperr.Invalid("cover type must be color or image")
	}
	return nil
}

func (p TaskPatch) relinks() bool {
	return p.Position != nil || (p.ArchivedAt.Set && p.ArchivedAt.Value == nil)
}

func jsonSlice[T any](v []T) datatypes.JSONSlice[T] {
	if v == nil {
		v = []T{}
	}
	return datatypes.NewJSONSlice(v)
}
