package repository

import (
	"context"

	"taskboard/internal/model"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// LabelRepository manages a board's label palette. Task labels are inline
// copies and are not touched here.
type LabelRepository struct {
	db *gorm.DB
}

func NewLabelRepository(db *gorm.DB) *LabelRepository {
	return &LabelRepository{db: db}
}

func (r *LabelRepository) GetByBoardID(ctx context.Context, boardID uuid.UUID) ([]model.Label, error) {
	var board model.Board
	if err := r.db.WithContext(ctx).Select("id", "labels").Where("id = ?", boardID).First(&board).Error; err != nil {
		return nil, classify(err, "Board")
	}
	return board.Labels, nil
}

func (r *LabelRepository) Replace(ctx context.Context, boardID uuid.UUID, labels []model.Label) error {
	res := r.db.WithContext(ctx).Model(&model.Board{}).Where("id = ?", boardID).
		Update("labels", datatypes.NewJSONSlice(labels))
	if res.Error != nil {
		return classify(res.Error, "Board")
	}
	if res.RowsAffected == 0 {
		return classify(gorm.ErrRecordNotFound, "Board")
	}
	return nil
}
