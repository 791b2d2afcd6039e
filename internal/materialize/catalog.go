package materialize

import (
	"sort"
	"time"

	"taskboard/internal/model"
)

// CatalogEntry describes a fixed template.
type CatalogEntry struct {
	ID    string           `json:"id"`
	Name  string           `json:"name"`
	Style model.BoardStyle `json:"style"`
	Lists []string         `json:"lists"`
	build func(now time.Time) []ListBlock
}

func day(now time.Time, offset int) *time.Time {
	t := now.AddDate(0, 0, offset)
	return &t
}

var catalog = map[string]CatalogEntry{
	"1": {
		ID:    "1",
		Name:  "Basic kanban",
		Style: model.BoardStyle{Type: model.StyleColor, Color: "#FFEBEE"},
		Lists: []string{"To Do", "Doing", "Done"},
		build: func(now time.Time) []ListBlock {
			return []ListBlock{
				{Title: "To Do", Position: 0, Tasks: []TaskBlock{
					{Title: "Welcome to your new board!", Position: 0, DueDate: day(now, 2)},
				}},
				{Title: "Doing", Position: 1, Tasks: []TaskBlock{
					{Title: "This task is in progress", Position: 0, DueDate: day(now, 1)},
				}},
				{Title: "Done", Position: 2, Tasks: []TaskBlock{
					{Title: "Completed task example", Position: 0, DueDate: day(now, 0), DueComplete: true},
				}},
			}
		},
	},
	"2": {
		ID:    "2",
		Name:  "Sprint",
		Style: model.BoardStyle{Type: model.StyleColor, Color: "#E8F5E9"},
		Lists: []string{"Backlog", "Sprint", "Review", "Release"},
		build: func(now time.Time) []ListBlock {
			return []ListBlock{
				{Title: "Backlog", Position: 0, Tasks: []TaskBlock{
					{Title: "Define project scope", Position: 0, DueDate: day(now, 7)},
				}},
				{Title: "Sprint", Position: 1, Tasks: []TaskBlock{
					{Title: "Implement core feature", Position: 0, DueDate: day(now, 3)},
				}},
				{Title: "Review", Position: 2, Tasks: []TaskBlock{}},
				{Title: "Release", Position: 3, Tasks: []TaskBlock{}},
			}
		},
	},
	"3": {
		ID:    "3",
		Name:  "Product launch",
		Style: model.BoardStyle{Type: model.StyleColor, Color: "#E3F2FD"},
		Lists: []string{"Ideas", "Building", "Launch"},
		build: func(now time.Time) []ListBlock {
			return []ListBlock{
				{Title: "Ideas", Position: 0, Tasks: []TaskBlock{
					{
						Title:       "Collect customer interviews",
						Description: "Five calls with existing users before planning.",
						Position:    0,
						Labels:      []model.Label{{Color: "#579DFF", Title: "Research"}},
						Cover:       &model.Cover{Type: "color", Color: "#6CC3E0"},
					},
					{Title: "Pricing experiments", Position: 1, StartDate: day(now, 1), DueDate: day(now, 10)},
				}},
				{Title: "Building", Position: 1, Tasks: []TaskBlock{
					{
						Title:    "Landing page",
						Position: 0,
						DueDate:  day(now, 14),
						Labels:   []model.Label{{Color: "#F5CD47", Title: "Design"}},
						Checklist: []model.Checklist{{
							Title: "Sections",
							Items: []model.ChecklistItem{
								{Text: "Hero"},
								{Text: "Pricing table"},
								{Text: "FAQ"},
							},
						}},
						Watching: true,
					},
				}},
				{Title: "Launch", Position: 2, Tasks: []TaskBlock{
					{
						Title:    "Announcement post",
						Position: 0,
						DueDate:  day(now, 21),
						Reminder: day(now, 20),
						Cover:    &model.Cover{Type: "color", Color: "#F87168"},
						Labels:   []model.Label{{Color: "#4BCE97", Title: "Marketing"}},
					},
				}},
			}
		},
	},
}

// Catalog lists the fixed templates ordered by id.
func Catalog() []CatalogEntry {
	out := make([]CatalogEntry, 0, len(catalog))
	for _, e := range catalog {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// CatalogTemplate instantiates template id under title.
func CatalogTemplate(id, title string, now time.Time) (*Template, bool) {
	entry, ok := catalog[id]
	if !ok {
		return nil, false
	}
	style := entry.Style
	return &Template{
		Title: title,
		Style: &style,
		Lists: entry.build(now),
	}, true
}
