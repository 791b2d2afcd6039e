// Package journal keeps the append-only activity trail of boards, lists and
// tasks.
package journal

import (
	"context"
	"encoding/json"
	"log"

	"taskboard/internal/model"
	"taskboard/internal/repository"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	DefaultLimit = 30
	MaxLimit     = 100
)

// Entry describes one mutating action.
type Entry struct {
	BoardID    uuid.UUID
	UserID     uuid.UUID
	EntityKind string
	EntityID   uuid.UUID
	Action     string
	Payload    any
}

type Store interface {
	Create(ctx context.Context, a *model.Activity) error
	ListByBoard(ctx context.Context, boardID uuid.UUID, limit, offset int) ([]model.Activity, error)
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]repository.ActivityView, error)
	DeleteAll(ctx context.Context) (int64, error)
}

type Journal struct {
	store Store
}

func New(store Store) *Journal {
	return &Journal{store: store}
}

// Record appends e. Failures are logged and swallowed: the mutation that
// triggered the entry has already succeeded. The write is detached from the
// caller's cancellation.
func (j *Journal) Record(ctx context.Context, e Entry) {
	activity := &model.Activity{
		BoardID:    e.BoardID,
		UserID:     e.UserID,
		EntityKind: e.EntityKind,
		EntityID:   e.EntityID,
		Action:     e.Action,
	}
	if e.Payload != nil {
		raw, err := json.Marshal(e.Payload)
		if err != nil {
			log.Printf("[journal] dropping payload of %s on %s %s: %v", e.Action, e.EntityKind, e.EntityID, err)
		} else {
			activity.Payload = datatypes.JSON(raw)
		}
	}

	if err := j.store.Create(context.WithoutCancel(ctx), activity); err != nil {
		log.Printf("[journal] failed to record %s on %s %s: %v", e.Action, e.EntityKind, e.EntityID, err)
	}
}

// ListForBoard returns entries newest first. limit is clamped to
// [1, MaxLimit] with DefaultLimit for non-positive values; skip is at least 0.
func (j *Journal) ListForBoard(ctx context.Context, boardID uuid.UUID, limit, skip int) ([]model.Activity, error) {
	limit, skip = Clamp(limit, skip)
	return j.store.ListByBoard(ctx, boardID, limit, skip)
}

// ListForTask returns the task's entries newest first with the actor's name
// and avatar.
func (j *Journal) ListForTask(ctx context.Context, taskID uuid.UUID) ([]repository.ActivityView, error) {
	return j.store.ListByTask(ctx, taskID)
}

// WipeAll is the bulk wipe used by maintenance. It is the only path that
// removes entries outside a hard delete.
func (j *Journal) WipeAll(ctx context.Context) (int64, error) {
	return j.store.DeleteAll(ctx)
}

func Clamp(limit, skip int) (int, int) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if skip < 0 {
		skip = 0
	}
	return limit, skip
}
