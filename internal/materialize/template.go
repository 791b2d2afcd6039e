// Package materialize builds a whole board graph from a template in one
// logical operation.
package materialize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"taskboard/internal/apperr"
	"taskboard/internal/model"

	"github.com/google/uuid"
)

const (
	maxPosition       = math.MaxInt32
	maxDueOffsetDays  = 100 * 366
	maxAttachmentSize = 1 << 53
)

// Template is a board tree. Lists and tasks that fail validation are left
// out and reported as Skips instead of failing the whole template.
type Template struct {
	Title       string
	Description string
	Style       *model.BoardStyle
	Labels      []model.Label
	Lists       []ListBlock
	Skipped     []Skip
}

type ListBlock struct {
	Title    string
	Position int
	Tasks    []TaskBlock
}

type TaskBlock struct {
	Title       string
	Description string
	Position    int
	DueDate     *time.Time
	StartDate   *time.Time
	Reminder    *time.Time
	ArchivedAt  *time.Time
	Coordinates []float64
	Members     []uuid.UUID
	Labels      []model.Label
	Checklist   []model.Checklist
	Cover       *model.Cover
	Comments    []model.Comment
	Attachments []model.Attachment
	Watching    bool
	DueComplete bool
}

// Skip records a dropped block. Task is -1 when the whole list was dropped.
type Skip struct {
	List   int    `json:"list"`
	Task   int    `json:"task"`
	Reason string `json:"reason"`
}

func (s Skip) Error() string {
	if s.Task < 0 {
		return fmt.Sprintf("list %d: %s", s.List, s.Reason)
	}
	return fmt.Sprintf("list %d task %d: %s", s.List, s.Task, s.Reason)
}

// TaskCount is the number of tasks that survived validation.
func (t *Template) TaskCount() int {
	n := 0
	for _, l := range t.Lists {
		n += len(l.Tasks)
	}
	return n
}

type object map[string]json.RawMessage

// ParseTemplate decodes a template payload. Only a payload that is not an
// object, has no title or has no lists array is rejected; anything below
// that is validated block by block. Relative due dates are resolved
// against now.
func ParseTemplate(raw []byte, now time.Time) (*Template, error) {
	var root object
	if err := json.Unmarshal(raw, &root); err != nil {
		return nil, apperr.Invalid("template must be a JSON object")
	}

	title, ok := root.str("title", "boardTitle")
	if !ok || strings.TrimSpace(title) == "" {
		return nil, apperr.Invalid("template needs a title")
	}
	var lists []json.RawMessage
	if err := json.Unmarshal(root["lists"], &lists); err != nil || lists == nil {
		return nil, apperr.Invalid("template needs a lists array")
	}

	tpl := &Template{Title: title}
	tpl.Description, _ = root.str("description")
	tpl.Style = root.style("style", "boardStyle")
	tpl.Labels = root.labels("labels")

	for i, rawList := range lists {
		block, skips := parseList(i, rawList, now)
		tpl.Skipped = append(tpl.Skipped, skips...)
		if block != nil {
			tpl.Lists = append(tpl.Lists, *block)
		}
	}
	for _, s := range tpl.Skipped {
		log.Printf("[materialize] %v: %s", apperr.ErrValidationSkipped, s.Error())
	}
	return tpl, nil
}

func parseList(index int, raw json.RawMessage, now time.Time) (*ListBlock, []Skip) {
	var obj object
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, []Skip{{List: index, Task: -1, Reason: "not an object"}}
	}
	title, ok := obj.str("title", "taskListTitle")
	if !ok || title == "" {
		return nil, []Skip{{List: index, Task: -1, Reason: "missing title"}}
	}
	pos, ok := obj.num(maxPosition, "position", "indexInBoard")
	if !ok {
		return nil, []Skip{{List: index, Task: -1, Reason: "missing numeric position"}}
	}
	var tasks []json.RawMessage
	if err := json.Unmarshal(obj["tasks"], &tasks); err != nil || tasks == nil {
		return nil, []Skip{{List: index, Task: -1, Reason: "missing tasks array"}}
	}

	block := &ListBlock{Title: title, Position: int(pos)}
	var skips []Skip
	for j, rawTask := range tasks {
		task, reason := parseTask(rawTask, now)
		if task == nil {
			skips = append(skips, Skip{List: index, Task: j, Reason: reason})
			continue
		}
		block.Tasks = append(block.Tasks, *task)
	}
	return block, skips
}

func parseTask(raw json.RawMessage, now time.Time) (*TaskBlock, string) {
	var obj object
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, "not an object"
	}
	title, ok := obj.str("title", "taskTitle")
	if !ok || title == "" {
		return nil, "missing title"
	}
	pos, ok := obj.num(maxPosition, "position")
	if !ok {
		return nil, "missing numeric position"
	}

	task := &TaskBlock{Title: title, Position: int(pos)}
	task.Description, _ = obj.str("description", "taskDescription")
	task.DueDate = obj.date("dueDate", "taskDueDate")
	if task.DueDate == nil {
		if days, ok := obj.num(maxDueOffsetDays, "dueDaysFromNow", "dueOffsetDays"); ok {
			due := now.AddDate(0, 0, int(days))
			task.DueDate = &due
		}
	}
	task.StartDate = obj.date("startDate", "taskStartDate")
	task.Reminder = obj.date("reminder")
	task.ArchivedAt = obj.date("archivedAt")
	task.Coordinates = obj.coordinates("coordinates", "taskCoordinates")
	task.Members = obj.members("members", "taskMembers")
	task.Labels = obj.labels("labels", "taskLabels")
	task.Checklist = obj.checklist("checklist")
	task.Cover = obj.cover("cover", "taskCover")
	task.Comments = obj.comments(now, "comments", "taskActivityComments")
	task.Attachments = obj.attachments(now, "attachments")
	task.Watching, _ = obj.boolean("watching", "isWatching")
	task.DueComplete, _ = obj.boolean("dueComplete", "isDueComplete")
	return task, ""
}

// field returns the first present, non-null key.
func (o object) field(keys ...string) (json.RawMessage, bool) {
	for _, k := range keys {
		raw, ok := o[k]
		if ok && !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return raw, true
		}
	}
	return nil, false
}

func (o object) str(keys ...string) (string, bool) {
	raw, ok := o.field(keys...)
	if !ok {
		return "", false
	}
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return "", false
	}
	return s, true
}

// num reads a whole number no larger than limit in magnitude. Fractions and
// out of range values count as missing.
func (o object) num(limit float64, keys ...string) (int64, bool) {
	raw, ok := o.field(keys...)
	if !ok {
		return 0, false
	}
	var f float64
	if json.Unmarshal(raw, &f) != nil {
		return 0, false
	}
	if f != math.Trunc(f) || math.Abs(f) > limit {
		return 0, false
	}
	return int64(f), true
}

func (o object) boolean(keys ...string) (bool, bool) {
	raw, ok := o.field(keys...)
	if !ok {
		return false, false
	}
	var b bool
	if json.Unmarshal(raw, &b) != nil {
		return false, false
	}
	return b, true
}

func (o object) date(keys ...string) *time.Time {
	s, ok := o.str(keys...)
	if !ok {
		return nil
	}
	return parseDate(s)
}

var dateLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

// parseDate yields nil for anything that is not a recognisable timestamp.
func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

func (o object) coordinates(keys ...string) []float64 {
	raw, ok := o.field(keys...)
	if !ok {
		return nil
	}
	var pair []float64
	if json.Unmarshal(raw, &pair) != nil || len(pair) != 2 {
		return nil
	}
	return pair
}

func (o object) style(keys ...string) *model.BoardStyle {
	raw, ok := o.field(keys...)
	if !ok {
		return nil
	}
	var obj object
	if json.Unmarshal(raw, &obj) != nil {
		return nil
	}
	style := &model.BoardStyle{}
	style.Color, _ = obj.str("color", "backgroundColor")
	style.Image, _ = obj.str("image", "backgroundImage")
	switch {
	case style.Image != "":
		style.Type = model.StyleImage
	case style.Color != "":
		style.Type = model.StyleColor
	default:
		return nil
	}
	return style
}

// members accepts plain id strings or objects carrying "_id" or "id".
// Entries that are not valid ids are dropped.
func (o object) members(keys ...string) []uuid.UUID {
	raw, ok := o.field(keys...)
	if !ok {
		return nil
	}
	var items []json.RawMessage
	if json.Unmarshal(raw, &items) != nil {
		return nil
	}
	var out []uuid.UUID
	for _, item := range items {
		var s string
		if json.Unmarshal(item, &s) != nil {
			var obj object
			if json.Unmarshal(item, &obj) != nil {
				continue
			}
			s, _ = obj.str("_id", "id")
		}
		if id, err := uuid.Parse(s); err == nil {
			out = append(out, id)
		}
	}
	return out
}

func (o object) labels(keys ...string) []model.Label {
	var out []model.Label
	for _, obj := range o.objects(keys...) {
		color, _ := obj.str("color")
		title, _ := obj.str("title")
		if color == "" && title == "" {
			continue
		}
		id, _ := obj.str("id", "_id")
		out = append(out, model.Label{ID: id, Color: color, Title: title})
	}
	return out
}

func (o object) checklist(keys ...string) []model.Checklist {
	var out []model.Checklist
	for _, obj := range o.objects(keys...) {
		title, _ := obj.str("title")
		list := model.Checklist{Title: title, Items: []model.ChecklistItem{}}
		for _, item := range obj.objects("items") {
			text, ok := item.str("text")
			if !ok {
				continue
			}
			done, _ := item.boolean("done")
			list.Items = append(list.Items, model.ChecklistItem{Text: text, Done: done})
		}
		out = append(out, list)
	}
	return out
}

func (o object) cover(keys ...string) *model.Cover {
	raw, ok := o.field(keys...)
	if !ok {
		return nil
	}
	var obj object
	if json.Unmarshal(raw, &obj) != nil {
		return nil
	}
	cover := &model.Cover{}
	cover.Type, _ = obj.str("type", "coverType")
	cover.Color, _ = obj.str("color", "coverColor")
	cover.ImageURL, _ = obj.str("imageUrl", "coverImg")
	if cover.Type != "color" && cover.Type != "image" {
		return nil
	}
	return cover
}

// comments drops entries whose author is not a valid id.
func (o object) comments(now time.Time, keys ...string) []model.Comment {
	var out []model.Comment
	for _, obj := range o.objects(keys...) {
		author, _ := obj.str("author", "userId")
		id, err := uuid.Parse(author)
		if err != nil {
			continue
		}
		text, _ := obj.str("text")
		created := now
		if t := obj.date("createdAt"); t != nil {
			created = *t
		}
		out = append(out, model.Comment{Author: id, Text: text, CreatedAt: created})
	}
	return out
}

func (o object) attachments(now time.Time, keys ...string) []model.Attachment {
	var out []model.Attachment
	for _, obj := range o.objects(keys...) {
		url, _ := obj.str("url")
		if url == "" {
			continue
		}
		a := model.Attachment{URL: url, CreatedAt: now}
		a.Name, _ = obj.str("name")
		a.ContentType, _ = obj.str("contentType")
		if size, ok := obj.num(maxAttachmentSize, "size"); ok && size >= 0 {
			a.Size = size
		}
		if t := obj.date("createdAt"); t != nil {
			a.CreatedAt = *t
		}
		out = append(out, a)
	}
	return out
}

// objects decodes an array of objects, skipping elements of any other kind.
func (o object) objects(keys ...string) []object {
	raw, ok := o.field(keys...)
	if !ok {
		return nil
	}
	var items []json.RawMessage
	if json.Unmarshal(raw, &items) != nil {
		return nil
	}
	out := make([]object, 0, len(items))
	for _, item := range items {
		var obj object
		if json.Unmarshal(item, &obj) == nil && obj != nil {
			out = append(out, obj)
		}
	}
	return out
}
