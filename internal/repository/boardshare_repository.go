package repository

import (
	"context"
	"errors"

	"taskboard/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BoardShareRepository struct {
	db *gorm.DB
}

func NewBoardShareRepository(db *gorm.DB) *BoardShareRepository {
	return &BoardShareRepository{db: db}
}

// ShareBoard добавляет пользователя к доске с указанной ролью
func (r *BoardShareRepository) ShareBoard(ctx context.Context, boardID, userID uuid.UUID, role string) error {
	share := model.BoardShare{
		BoardID: boardID,
		UserID:  userID,
		Role:    role,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.BoardShare
		err := tx.Where("board_id = ? AND user_id = ?", boardID, userID).First(&existing).Error

		// Запись уже существует: обновляем роль
		if err == nil {
			return tx.Model(&existing).Update("role", role).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return tx.Create(&share).Error
	})
	return classify(err, "Share")
}

// RemoveShare удаляет доступ пользователя к доске
func (r *BoardShareRepository) RemoveShare(ctx context.Context, boardID, userID uuid.UUID) error {
	return classify(r.db.WithContext(ctx).Where("board_id = ? AND user_id = ?", boardID, userID).Delete(&model.BoardShare{}).Error, "Share")
}

// GetBoardShares возвращает список пользователей с доступом к доске
func (r *BoardShareRepository) GetBoardShares(ctx context.Context, boardID uuid.UUID) ([]model.BoardShare, error) {
	var shares []model.BoardShare
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("board_id = ?", boardID).
		Find(&shares).Error
	return shares, classify(err, "Share")
}

// GetSharedBoards возвращает активные доски, к которым пользователь имеет доступ
func (r *BoardShareRepository) GetSharedBoards(ctx context.Context, userID uuid.UUID) ([]model.Board, error) {
	var boards []model.Board
	err := r.db.WithContext(ctx).
		Joins("JOIN board_shares ON board_shares.board_id = boards.id").
		Where("board_shares.user_id = ? AND boards.archived_at IS NULL", userID).
		Find(&boards).Error
	return boards, classify(err, "Board")
}

// CheckAccess reports whether the user may act on the board with at least
// requiredRole. The owner passes every check; RoleOwner admits only the owner.
func (r *BoardShareRepository) CheckAccess(ctx context.Context, boardID, userID uuid.UUID, requiredRole string) (bool, error) {
	var board model.Board
	err := r.db.WithContext(ctx).
		Select("id", "owner_id").
		Where("id = ?", boardID).
		First(&board).Error
	if err != nil {
		return false, classify(err, "Board")
	}
	if board.OwnerID == userID {
		return true, nil
	}
	if requiredRole == model.RoleOwner {
		return false, nil
	}

	var share model.BoardShare
	err = r.db.WithContext(ctx).
		Where("board_id = ? AND user_id = ?", boardID, userID).
		First(&share).Error

	// Нет доступа
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, classify(err, "Share")
	}

	if requiredRole == model.RoleViewer {
		return true, nil
	}
	return share.Role == model.RoleEditor, nil
}

func (r *BoardShareRepository) DeleteByBoard(ctx context.Context, boardID uuid.UUID) error {
	return classify(r.db.WithContext(ctx).Where("board_id = ?", boardID).Delete(&model.BoardShare{}).Error, "Share")
}

func (r *BoardShareRepository) DeleteAll(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Where("1 = 1").Delete(&model.BoardShare{})
	return res.RowsAffected, classify(res.Error, "Share")
}
