package repository

import (
	"context"
	"database/sql"

	"taskboard/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create adds a new task to the database
func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	return classify(r.db.WithContext(ctx).Create(task).Error, "Task")
}

// CreateBatch inserts all tasks in one statement
func (r *TaskRepository) CreateBatch(ctx context.Context, tasks []*model.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	return classify(r.db.WithContext(ctx).Create(&tasks).Error, "Task")
}

// GetByID retrieves a task by its ID, archived or not
func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).First(&task, "id = ?", id).Error; err != nil {
		return nil, classify(err, "Task")
	}
	return &task, nil
}

// ByList retrieves the tasks of a list sorted by position, ties by creation
func (r *TaskRepository) ByList(ctx context.Context, listID uuid.UUID, includeArchived bool) ([]model.Task, error) {
	var tasks []model.Task
	q := r.db.WithContext(ctx).Where("list_id = ?", listID)
	if !includeArchived {
		q = q.Where("archived_at IS NULL")
	}
	err := q.Order("position ASC").Order("created_at ASC").Find(&tasks).Error
	return tasks, classify(err, "Task")
}

// ByBoard retrieves every task on a board through the denormalized reference
func (r *TaskRepository) ByBoard(ctx context.Context, boardID uuid.UUID, includeArchived bool) ([]model.Task, error) {
	var tasks []model.Task
	q := r.db.WithContext(ctx).Where("board_id = ?", boardID)
	if !includeArchived {
		q = q.Where("archived_at IS NULL")
	}
	err := q.Order("position ASC").Order("created_at ASC").Find(&tasks).Error
	return tasks, classify(err, "Task")
}

func (r *TaskRepository) IDsByList(ctx context.Context, listID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.Task{}).Where("list_id = ?", listID).Pluck("id", &ids).Error
	return ids, classify(err, "Task")
}

// MaxPosition reports the highest position in the list; ok is false for an
// empty list
func (r *TaskRepository) MaxPosition(ctx context.Context, listID uuid.UUID) (pos int, ok bool, err error) {
	var v sql.NullInt64
	err = r.db.WithContext(ctx).Model(&model.Task{}).
		Select("MAX(position)").
		Where("list_id = ?", listID).
		Row().Scan(&v)
	if err != nil {
		return 0, false, classify(err, "Task")
	}
	return int(v.Int64), v.Valid, nil
}

// Updates writes the given columns of a task
func (r *TaskRepository) Updates(ctx context.Context, id uuid.UUID, cols map[string]any) error {
	res := r.db.WithContext(ctx).Model(&model.Task{}).Where("id = ?", id).Updates(cols)
	if res.Error != nil {
		return classify(res.Error, "Task")
	}
	if res.RowsAffected == 0 {
		return classify(gorm.ErrRecordNotFound, "Task")
	}
	return nil
}

// Move re-parents a task. The board reference always follows the list.
func (r *TaskRepository) Move(ctx context.Context, id, listID, boardID uuid.UUID, position int) error {
	return r.Updates(ctx, id, map[string]any{
		"list_id":  listID,
		"board_id": boardID,
		"position": position,
	})
}

// Reorder sets position = index for every id in one transaction
func (r *TaskRepository) Reorder(ctx context.Context, ids []uuid.UUID) error {
	return classify(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, id := range ids {
			if err := tx.Model(&model.Task{}).Where("id = ?", id).
				Update("position", i).Error; err != nil {
				return err
			}
		}
		return nil
	}), "Task")
}

// RealignBoard rewrites the board reference of every task in the list that
// drifted from the list's board.
func (r *TaskRepository) RealignBoard(ctx context.Context, listID, boardID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("list_id = ? AND board_id <> ?", listID, boardID).
		Update("board_id", boardID)
	return res.RowsAffected, classify(res.Error, "Task")
}

// Delete removes a task by its ID
func (r *TaskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return classify(r.db.WithContext(ctx).Delete(&model.Task{}, "id = ?", id).Error, "Task")
}

func (r *TaskRepository) DeleteByList(ctx context.Context, listID uuid.UUID) error {
	return classify(r.db.WithContext(ctx).Where("list_id = ?", listID).Delete(&model.Task{}).Error, "Task")
}

func (r *TaskRepository) DeleteByBoard(ctx context.Context, boardID uuid.UUID) error {
	return classify(r.db.WithContext(ctx).Where("board_id = ?", boardID).Delete(&model.Task{}).Error, "Task")
}

func (r *TaskRepository) DeleteByIDs(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return classify(r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&model.Task{}).Error, "Task")
}

func (r *TaskRepository) DeleteAll(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Where("1 = 1").Delete(&model.Task{})
	return res.RowsAffected, classify(res.Error, "Task")
}
