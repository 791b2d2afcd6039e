package repository

import "gorm.io/gorm"

// Store bundles the repositories that share one connection pool.
type Store struct {
	DB         *gorm.DB
	Boards     *BoardRepository
	Lists      *ListRepository
	Tasks      *TaskRepository
	Users      *UserRepository
	Activities *ActivityRepository
	Shares     *BoardShareRepository
	Labels     *LabelRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		DB:         db,
		Boards:     NewBoardRepository(db),
		Lists:      NewListRepository(db),
		Tasks:      NewTaskRepository(db),
		Users:      NewUserRepository(db),
		Activities: NewActivityRepository(db),
		Shares:     NewBoardShareRepository(db),
		Labels:     NewLabelRepository(db),
	}
}
