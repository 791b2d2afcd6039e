package hierarchy

import (
	"context"

	"taskboard/internal/model"

	"github.com/google/uuid"
)

// Snapshot is a board with its active lists and tasks inlined in display
// order. The inlined slices replace the id arrays in the JSON form.
type Snapshot struct {
	model.Board
	Lists []ListSnapshot `json:"lists"`
}

type ListSnapshot struct {
	model.List
	Tasks []model.Task `json:"tasks"`
}

// snapshot renders from child queries, sorted by position then creation
// time, so drift in the id arrays never hides a child.
func (m *Manager) snapshot(ctx context.Context, boardID uuid.UUID) (*Snapshot, error) {
	board, err := m.store.Boards.GetByID(ctx, boardID)
	if err != nil {
		return nil, err
	}
	lists, err := m.store.Lists.ByBoard(ctx, boardID, false)
	if err != nil {
		return nil, err
	}
	tasks, err := m.store.Tasks.ByBoard(ctx, boardID, false)
	if err != nil {
		return nil, err
	}

	byList := make(map[uuid.UUID][]model.Task, len(lists))
	for _, t := range tasks {
		byList[t.ListID] = append(byList[t.ListID], t)
	}

	snap := &Snapshot{Board: *board, Lists: make([]ListSnapshot, 0, len(lists))}
	for _, l := range lists {
		children := byList[l.ID]
		if children == nil {
			children = []model.Task{}
		}
		snap.Lists = append(snap.Lists, ListSnapshot{List: l, Tasks: children})
	}
	return snap, nil
}
