package repository

import (
	"context"
	"database/sql"

	"taskboard/internal/model"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ListRepository struct {
	db *gorm.DB
}

func NewListRepository(db *gorm.DB) *ListRepository {
	return &ListRepository{db: db}
}

func (r *ListRepository) Create(ctx context.Context, list *model.List) error {
	return classify(r.db.WithContext(ctx).Create(list).Error, "List")
}

// CreateBatch inserts all lists in a single statement.
func (r *ListRepository) CreateBatch(ctx context.Context, lists []*model.List) error {
	if len(lists) == 0 {
		return nil
	}
	return classify(r.db.WithContext(ctx).Create(&lists).Error, "List")
}

func (r *ListRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.List, error) {
	var list model.List
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&list).Error; err != nil {
		return nil, classify(err, "List")
	}
	return &list, nil
}

// ByBoard returns the board's lists in display order: position, then
// creation time for equal positions.
func (r *ListRepository) ByBoard(ctx context.Context, boardID uuid.UUID, includeArchived bool) ([]model.List, error) {
	var lists []model.List
	q := r.db.WithContext(ctx).Where("board_id = ?", boardID)
	if !includeArchived {
		q = q.Where("archived_at IS NULL")
	}
	err := q.Order("position ASC").Order("created_at ASC").Find(&lists).Error
	return lists, classify(err, "List")
}

// MaxPosition reports the highest position on the board; ok is false when
// the board has no lists yet.
func (r *ListRepository) MaxPosition(ctx context.Context, boardID uuid.UUID) (pos int, ok bool, err error) {
	var v sql.NullInt64
	err = r.db.WithContext(ctx).Model(&model.List{}).
		Select("MAX(position)").
		Where("board_id = ?", boardID).
		Row().Scan(&v)
	if err != nil {
		return 0, false, classify(err, "List")
	}
	return int(v.Int64), v.Valid, nil
}

func (r *ListRepository) Updates(ctx context.Context, id uuid.UUID, cols map[string]any) error {
	res := r.db.WithContext(ctx).Model(&model.List{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return classify(res.Error, "List")
	}
	if res.RowsAffected == 0 {
		return classify(gorm.ErrRecordNotFound, "List")
	}
	return nil
}

func (r *ListRepository) SetTaskIDs(ctx context.Context, id uuid.UUID, ids []uuid.UUID) error {
	return r.Updates(ctx, id, map[string]any{"task_ids": datatypes.NewJSONSlice(ids)})
}

// Reorder sets position = index for every id in one transaction.
func (r *ListRepository) Reorder(ctx context.Context, ids []uuid.UUID) error {
	return classify(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, id := range ids {
			if err := tx.Model(&model.List{}).Where("id = ?", id).
				Update("position", i).Error; err != nil {
				return err
			}
		}
		return nil
	}), "List")
}

func (r *ListRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return classify(r.db.WithContext(ctx).Delete(&model.List{}, "id = ?", id).Error, "List")
}

func (r *ListRepository) DeleteByBoard(ctx context.Context, boardID uuid.UUID) error {
	return classify(r.db.WithContext(ctx).Where("board_id = ?", boardID).Delete(&model.List{}).Error, "List")
}

func (r *ListRepository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return classify(r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&model.List{}).Error, "List")
}

func (r *ListRepository) DeleteAll(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Where("1 = 1").Delete(&model.List{})
	return res.RowsAffected, classify(res.Error, "List")
}
