package repository

import (
	"context"
	"errors"

	"taskboard/internal/model"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *gorm.DB
}

type UserRepositoryInterface interface {
	Create(ctx context.Context, user *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

var _ UserRepositoryInterface = (*UserRepository)(nil)

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return classify(r.db.WithContext(ctx).Create(user).Error, "User")
}

// FindByEmail returns nil, nil when nobody is registered under email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(err, "User")
	}
	return &user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, classify(err, "User")
	}
	return &user, nil
}

func (r *UserRepository) List(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).Order("fullname").Find(&users).Error
	return users, classify(err, "User")
}

func (r *UserRepository) SetRecentBoards(ctx context.Context, id uuid.UUID, refs []model.BoardRef) error {
	return r.update(ctx, id, "recent_boards", datatypes.NewJSONSlice(refs))
}

func (r *UserRepository) SetStarredBoards(ctx context.Context, id uuid.UUID, refs []model.BoardRef) error {
	return r.update(ctx, id, "starred_boards", datatypes.NewJSONSlice(refs))
}

// ClearBoardRefs empties every user's recent and starred boards.
func (r *UserRepository) ClearBoardRefs(ctx context.Context) error {
	empty := datatypes.NewJSONSlice([]model.BoardRef{})
	err := r.db.WithContext(ctx).Model(&model.User{}).Where("1 = 1").
		Updates(map[string]any{"recent_boards": empty, "starred_boards": empty}).Error
	return classify(err, "User")
}

func (r *UserRepository) update(ctx context.Context, id uuid.UUID, column string, value any) error {
	res := r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return classify(res.Error, "User")
	}
	if res.RowsAffected == 0 {
		return classify(gorm.ErrRecordNotFound, "User")
	}
	return nil
}
