package repository

import (
	"context"

	"taskboard/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ActivityView is an activity resolved with its actor's display data.
type ActivityView struct {
	model.Activity `gorm:"embedded"`
	UserName       string `json:"userName"`
	UserAvatar     string `json:"userAvatar"`
}

type ActivityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) Create(ctx context.Context, a *model.Activity) error {
	return classify(r.db.WithContext(ctx).Create(a).Error, "Activity")
}

// ListByBoard returns the board's entries newest first.
func (r *ActivityRepository) ListByBoard(ctx context.Context, boardID uuid.UUID, limit, offset int) ([]model.Activity, error) {
	var items []model.Activity
	err := r.db.WithContext(ctx).
		Where("board_id = ?", boardID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&items).Error
	return items, classify(err, "Activity")
}

// ListByTask returns the task's entries newest first, joined with the actor.
func (r *ActivityRepository) ListByTask(ctx context.Context, taskID uuid.UUID) ([]ActivityView, error) {
	var items []ActivityView
	err := r.db.WithContext(ctx).
		Table("activities").
		Select("activities.*, COALESCE(users.fullname, '') AS user_name, COALESCE(users.avatar, '') AS user_avatar").
		Joins("LEFT JOIN users ON users.id = activities.user_id").
		Where("activities.entity_kind = ? AND activities.entity_id = ?", model.EntityTask, taskID).
		Order("activities.created_at DESC").
		Scan(&items).Error
	return items, classify(err, "Activity")
}

func (r *ActivityRepository) DeleteByBoard(ctx context.Context, boardID uuid.UUID) error {
	return classify(r.db.WithContext(ctx).Where("board_id = ?", boardID).Delete(&model.Activity{}).Error, "Activity")
}

// DeleteByEntities removes every entry whose target is one of ids.
func (r *ActivityRepository) DeleteByEntities(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return classify(r.db.WithContext(ctx).Where("entity_id IN ?", ids).Delete(&model.Activity{}).Error, "Activity")
}

func (r *ActivityRepository) DeleteAll(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Where("1 = 1").Delete(&model.Activity{})
	return res.RowsAffected, classify(res.Error, "Activity")
}
