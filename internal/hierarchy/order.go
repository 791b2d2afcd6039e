package hierarchy

import (
	"sort"
	"time"

	"taskboard/internal/model"

	"github.com/google/uuid"
)

type child struct {
	id       uuid.UUID
	position int
	created  time.Time
	archived bool
}

func listChild(l *model.List) child {
	return child{id: l.ID, position: l.Position, created: l.CreatedAt, archived: l.Archived()}
}

func taskChild(t *model.Task) child {
	return child{id: t.ID, position: t.Position, created: t.CreatedAt, archived: t.Archived()}
}

func listChildren(lists []model.List) []child {
	out := make([]child, len(lists))
	for i := range lists {
		out[i] = listChild(&lists[i])
	}
	return out
}

func taskChildren(tasks []model.Task) []child {
	out := make([]child, len(tasks))
	for i := range tasks {
		out[i] = taskChild(&tasks[i])
	}
	return out
}

// ordered returns the ids of the active children by position, ties broken
// by creation time.
func ordered(children []child) []uuid.UUID {
	active := make([]child, 0, len(children))
	for _, c := range children {
		if !c.archived {
			active = append(active, c)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		if active[i].position != active[j].position {
			return active[i].position < active[j].position
		}
		return active[i].created.Before(active[j].created)
	})
	ids := make([]uuid.UUID, len(active))
	for i, c := range active {
		ids[i] = c.id
	}
	return ids
}

func positions(children []child) map[uuid.UUID]int {
	out := make(map[uuid.UUID]int, len(children))
	for _, c := range children {
		out[c.id] = c.position
	}
	return out
}

// placeID puts id into ids ahead of the first entry with a greater
// position. Entries with equal positions stay in front of it.
func placeID(ids []uuid.UUID, pos map[uuid.UUID]int, id uuid.UUID, at int) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids)+1)
	placed := false
	for _, existing := range ids {
		if existing == id {
			continue
		}
		if !placed {
			if p, ok := pos[existing]; ok && p > at {
				out = append(out, id)
				placed = true
			}
		}
		out = append(out, existing)
	}
	if !placed {
		out = append(out, id)
	}
	return out
}

func removeID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	for _, existing := range ids {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}

// sameSet reports whether got holds every id of want exactly once.
func sameSet(got, want []uuid.UUID) bool {
	if len(got) != len(want) {
		return false
	}
	seen := make(map[uuid.UUID]bool, len(want))
	for _, id := range want {
		seen[id] = false
	}
	for _, id := range got {
		used, ok := seen[id]
		if !ok || used {
			return false
		}
		seen[id] = true
	}
	return true
}
