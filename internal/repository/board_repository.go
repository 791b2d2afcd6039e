package repository

import (
	"context"

	"taskboard/internal/model"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type BoardRepository struct {
	db *gorm.DB
}

func NewBoardRepository(db *gorm.DB) *BoardRepository {
	return &BoardRepository{db: db}
}

func (r *BoardRepository) Create(ctx context.Context, board *model.Board) error {
	return classify(r.db.WithContext(ctx).Create(board).Error, "Board")
}

func (r *BoardRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Board, error) {
	var board model.Board
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&board).Error; err != nil {
		return nil, classify(err, "Board")
	}
	return &board, nil
}

// ListAccessible returns the active boards the user owns or was shared on,
// most recently touched first.
func (r *BoardRepository) ListAccessible(ctx context.Context, userID uuid.UUID) ([]model.Board, error) {
	var boards []model.Board
	shared := r.db.Model(&model.BoardShare{}).Select("board_id").Where("user_id = ?", userID)
	err := r.db.WithContext(ctx).
		Where("archived_at IS NULL").
		Where(r.db.Where("owner_id = ?", userID).Or("id IN (?)", shared)).
		Order("updated_at DESC").
		Find(&boards).Error
	return boards, classify(err, "Board")
}

// Updates writes the given columns. Unknown ids yield NotFound.
func (r *BoardRepository) Updates(ctx context.Context, id uuid.UUID, cols map[string]any) error {
	res := r.db.WithContext(ctx).Model(&model.Board{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return classify(res.Error, "Board")
	}
	if res.RowsAffected == 0 {
		return classify(gorm.ErrRecordNotFound, "Board")
	}
	return nil
}

func (r *BoardRepository) SetListIDs(ctx context.Context, id uuid.UUID, ids []uuid.UUID) error {
	return r.Updates(ctx, id, map[string]any{"list_ids": datatypes.NewJSONSlice(ids)})
}

func (r *BoardRepository) IDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.Board{}).Order("created_at").Pluck("id", &ids).Error
	return ids, classify(err, "Board")
}

func (r *BoardRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return classify(r.db.WithContext(ctx).Delete(&model.Board{}, "id = ?", id).Error, "Board")
}

func (r *BoardRepository) DeleteAll(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Where("1 = 1").Delete(&model.Board{})
	return res.RowsAffected, classify(res.Error, "Board")
}
