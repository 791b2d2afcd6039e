package materialize_test

import (
	"testing"
	"time"

	"taskboard/internal/apperr"
	"taskboard/internal/materialize"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func TestParseTemplate_SkipsMalformedBlocks(t *testing.T) {
	member := uuid.New()
	raw := []byte(`{
		"boardTitle":  "Launch",
		"description": "generated",
		"lists": [
			{"title": "Todo", "position": 0, "tasks": [
				{"title": "a", "position": 0, "members": [{"_id": "` + member.String() + `", "fullname": "Ann"}, {"_id": "not-an-id"}]},
				{"title": "b", "position": 1, "dueDate": "next tuesday"}
			]},
			{"title": "Doing", "position": "1", "tasks": []},
			{"title": "Review", "position": 2, "tasks": [
				{"title": "c"},
				{"position": 1},
				{"title": "d", "position": 2, "isWatching": true, "cover": {"coverType": "color", "coverColor": "#F87168"}}
			]},
			"junk",
			{"title": "Done", "position": 3}
		]
	}`)

	tpl, err := materialize.ParseTemplate(raw, now)
	require.NoError(t, err)

	assert.Equal(t, "Launch", tpl.Title)
	require.Len(t, tpl.Lists, 2)
	assert.Equal(t, "Todo", tpl.Lists[0].Title)
	assert.Equal(t, "Review", tpl.Lists[1].Title)
	assert.Equal(t, 3, tpl.TaskCount())
	assert.Len(t, tpl.Skipped, 5)

	a := tpl.Lists[0].Tasks[0]
	assert.Equal(t, []uuid.UUID{member}, a.Members)
	assert.Nil(t, tpl.Lists[0].Tasks[1].DueDate)

	d := tpl.Lists[1].Tasks[0]
	assert.True(t, d.Watching)
	require.NotNil(t, d.Cover)
	assert.Equal(t, "#F87168", d.Cover.Color)
}

func TestParseTemplate_FieldsAndDates(t *testing.T) {
	author := uuid.New()
	raw := []byte(`{
		"title": "Trip",
		"style": {"backgroundColor": "#FFEBEE"},
		"lists": [{"title": "Plan", "position": 0, "tasks": [{
			"title":          "Book flights",
			"position":       0,
			"startDate":      "2025-04-01",
			"reminder":       "2025-04-02T08:30:00Z",
			"dueDaysFromNow": 3,
			"coordinates":    [48.85, 2.35],
			"checklist":      [{"title": "Docs", "items": [{"text": "Passport", "done": true}, {"done": false}]}],
			"comments":       [{"userId": "` + author.String() + `", "text": "ok"}, {"userId": "ghost", "text": "dropped"}],
			"labels":         [{"color": "#4BCE97", "title": "Travel"}, {}],
			"attachments":    [{"name": "itinerary.pdf", "url": "https://files.example.com/i.pdf", "size": 2048}, {"name": "no url"}],
			"cover": {"type": "sparkles"}
		}]}]
	}`)

	tpl, err := materialize.ParseTemplate(raw, now)
	require.NoError(t, err)
	require.NotNil(t, tpl.Style)
	assert.Equal(t, "color", tpl.Style.Type)

	task := tpl.Lists[0].Tasks[0]
	require.NotNil(t, task.StartDate)
	assert.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), *task.StartDate)
	require.NotNil(t, task.Reminder)
	require.NotNil(t, task.DueDate)
	assert.Equal(t, now.AddDate(0, 0, 3), *task.DueDate)
	assert.Equal(t, []float64{48.85, 2.35}, task.Coordinates)
	require.Len(t, task.Checklist, 1)
	assert.Len(t, task.Checklist[0].Items, 1)
	require.Len(t, task.Comments, 1)
	assert.Equal(t, author, task.Comments[0].Author)
	assert.Equal(t, now, task.Comments[0].CreatedAt)
	assert.Len(t, task.Labels, 1)
	require.Len(t, task.Attachments, 1)
	assert.Equal(t, int64(2048), task.Attachments[0].Size)
	assert.Nil(t, task.Cover)
}

func TestParseTemplate_OutOfRangeNumbersCountAsMissing(t *testing.T) {
	raw := []byte(`{
		"title": "Edges",
		"lists": [
			{"title": "Huge", "position": 1e12, "tasks": []},
			{"title": "Half", "position": 0.5, "tasks": []},
			{"title": "Kept", "position": 0, "tasks": [
				{"title": "far", "position": 0, "dueDaysFromNow": 1e9},
				{"title": "past", "position": 1, "dueOffsetDays": -40000},
				{"title": "near", "position": 2, "dueDaysFromNow": 36500},
				{"title": "frac", "position": 3.25},
				{"title": "big", "position": -3000000000},
				{"title": "file", "position": 4, "attachments": [{"url": "https://files.example.com/a", "size": -5}]}
			]}
		]
	}`)

	tpl, err := materialize.ParseTemplate(raw, now)
	require.NoError(t, err)

	require.Len(t, tpl.Lists, 1)
	tasks := tpl.Lists[0].Tasks
	require.Len(t, tasks, 4)
	assert.Len(t, tpl.Skipped, 4)

	assert.Equal(t, "far", tasks[0].Title)
	assert.Nil(t, tasks[0].DueDate)
	assert.Nil(t, tasks[1].DueDate)
	require.NotNil(t, tasks[2].DueDate)
	assert.Equal(t, now.AddDate(0, 0, 36500), *tasks[2].DueDate)
	require.Len(t, tasks[3].Attachments, 1)
	assert.Zero(t, tasks[3].Attachments[0].Size)
}

func TestParseTemplate_RejectsRootProblems(t *testing.T) {
	for name, raw := range map[string]string{
		"not json":   `nope`,
		"array":      `[]`,
		"no title":   `{"lists": []}`,
		"bad lists":  `{"title": "x", "lists": {}}`,
		"null lists": `{"title": "x", "lists": null}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := materialize.ParseTemplate([]byte(raw), now)
			assert.ErrorIs(t, err, apperr.ErrInvalidInput)
		})
	}
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, materialize.StripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, materialize.StripFences("```\n{\"a\":1}```"))
	assert.Equal(t, `{"a":1}`, materialize.StripFences("  {\"a\":1}  "))
}

func TestCatalog(t *testing.T) {
	entries := materialize.Catalog()
	require.Len(t, entries, 3)
	assert.Equal(t, "1", entries[0].ID)
	assert.Equal(t, []string{"To Do", "Doing", "Done"}, entries[0].Lists)

	tpl, ok := materialize.CatalogTemplate("2", "Team sprint", now)
	require.True(t, ok)
	assert.Equal(t, "Team sprint", tpl.Title)
	assert.Len(t, tpl.Lists, 4)
	assert.Equal(t, now.AddDate(0, 0, 7), *tpl.Lists[0].Tasks[0].DueDate)

	_, ok = materialize.CatalogTemplate("42", "x", now)
	assert.False(t, ok)
}
