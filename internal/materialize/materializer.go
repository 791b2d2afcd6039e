package materialize

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"taskboard/internal/apperr"
	"taskboard/internal/model"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const compensateTimeout = 10 * time.Second

// Graph is the set of hierarchy primitives a materialization drives.
type Graph interface {
	CreateBoardRecord(ctx context.Context, actor uuid.UUID, board *model.Board) error
	BulkInsertLists(ctx context.Context, board *model.Board, lists []*model.List) error
	BulkInsertTasks(ctx context.Context, actor uuid.UUID, lists []*model.List, tasks []*model.Task) error
	Link(ctx context.Context, board *model.Board, lists []*model.List, tasks []*model.Task) error
	DropTasks(ctx context.Context, ids []uuid.UUID) error
	DropLists(ctx context.Context, ids []uuid.UUID) error
	DropBoard(ctx context.Context, id uuid.UUID) error
	Announce(ctx context.Context, actor uuid.UUID, board *model.Board, source string)
}

// Result is the created graph.
type Result struct {
	Board   *model.Board `json:"board"`
	ListIDs []uuid.UUID  `json:"lists"`
	TaskIDs []uuid.UUID  `json:"tasks"`
	Skipped []Skip       `json:"skipped,omitempty"`
}

type Materializer struct {
	graph     Graph
	generator Generator
	now       func() time.Time
}

// New builds a Materializer. generator may be nil, in which case prompt
// based boards are unavailable.
func New(graph Graph, generator Generator) *Materializer {
	return &Materializer{graph: graph, generator: generator, now: time.Now}
}

func (m *Materializer) FromCatalog(ctx context.Context, actor uuid.UUID, templateID, title string) (*Result, error) {
	if strings.TrimSpace(title) == "" {
		return nil, apperr.Invalid("Missing or invalid board title")
	}
	tpl, ok := CatalogTemplate(templateID, title, m.now())
	if !ok {
		return nil, apperr.NotFound("Template")
	}
	return m.Materialize(ctx, actor, tpl, "template:"+templateID)
}

func (m *Materializer) FromPayload(ctx context.Context, actor uuid.UUID, raw []byte) (*Result, error) {
	tpl, err := ParseTemplate(raw, m.now())
	if err != nil {
		return nil, err
	}
	return m.Materialize(ctx, actor, tpl, "payload")
}

// FromPrompt asks the generator for a payload and materializes it.
func (m *Materializer) FromPrompt(ctx context.Context, actor uuid.UUID, prompt string) (*Result, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, apperr.Invalid("prompt is required")
	}
	if m.generator == nil {
		return nil, apperr.Unavailable(errors.New("board generator is not configured"))
	}
	raw, err := m.generator.Generate(ctx, strings.TrimSpace(prompt))
	if err != nil {
		log.Printf("[materialize] generator failed: %v", err)
		return nil, apperr.Unavailable(err)
	}
	tpl, err := ParseTemplate(raw, m.now())
	if err != nil {
		return nil, err
	}
	return m.Materialize(ctx, actor, tpl, "generator")
}

// Materialize runs board, lists, tasks and linking as a saga. A failure to
// create the board is returned as is. Once the board exists any failure
// removes what was created in reverse order and returns
// MaterializationFailed.
func (m *Materializer) Materialize(ctx context.Context, actor uuid.UUID, tpl *Template, source string) (*Result, error) {
	board := &model.Board{
		Title:       tpl.Title,
		Description: tpl.Description,
		Style:       datatypes.NewJSONType(tpl.Style),
	}
	if len(tpl.Labels) > 0 {
		board.Labels = datatypes.NewJSONSlice(tpl.Labels)
	}
	lists, tasks := m.build(tpl)

	var undo []func(context.Context) error
	fail := func(step string, err error) (*Result, error) {
		log.Printf("[materialize] %s failed for board %q: %v", step, tpl.Title, err)
		return nil, apperr.MaterializationFailed(errors.Join(err, m.compensate(ctx, undo)))
	}

	if err := m.graph.CreateBoardRecord(ctx, actor, board); err != nil {
		log.Printf("[materialize] create board failed for %q: %v", tpl.Title, err)
		return nil, err
	}
	undo = append(undo, func(ctx context.Context) error { return m.graph.DropBoard(ctx, board.ID) })

	if err := m.graph.BulkInsertLists(ctx, board, lists); err != nil {
		return fail("insert lists", err)
	}
	listIDs := make([]uuid.UUID, len(lists))
	for i, l := range lists {
		listIDs[i] = l.ID
	}
	undo = append(undo, func(ctx context.Context) error { return m.graph.DropLists(ctx, listIDs) })

	if err := m.graph.BulkInsertTasks(ctx, actor, lists, tasks); err != nil {
		return fail("insert tasks", err)
	}
	taskIDs := make([]uuid.UUID, len(tasks))
	for i, t := range tasks {
		taskIDs[i] = t.ID
	}
	undo = append(undo, func(ctx context.Context) error { return m.graph.DropTasks(ctx, taskIDs) })

	if err := m.graph.Link(ctx, board, lists, tasks); err != nil {
		return fail("link", err)
	}

	m.graph.Announce(ctx, actor, board, source)
	log.Printf("[materialize] %s: %d lists, %d tasks, %d skipped", board.Title, len(lists), len(tasks), len(tpl.Skipped))
	return &Result{
		Board:   board,
		ListIDs: board.ListIDs,
		TaskIDs: taskIDs,
		Skipped: tpl.Skipped,
	}, nil
}

// compensate runs the undo steps newest first on a context that outlives
// the request.
func (m *Materializer) compensate(ctx context.Context, undo []func(context.Context) error) error {
	if len(undo) == 0 {
		return nil
	}
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensateTimeout)
	defer cancel()

	var errs []error
	for i := len(undo) - 1; i >= 0; i-- {
		if err := undo[i](cctx); err != nil {
			errs = append(errs, fmt.Errorf("compensate step %d: %w", i, err))
		}
	}
	if len(errs) > 0 {
		log.Printf("[materialize] compensation incomplete: %v", errors.Join(errs...))
	}
	return errors.Join(errs...)
}

func (m *Materializer) build(tpl *Template) ([]*model.List, []*model.Task) {
	lists := make([]*model.List, 0, len(tpl.Lists))
	tasks := make([]*model.Task, 0, tpl.TaskCount())
	for _, lb := range tpl.Lists {
		list := &model.List{ID: uuid.New(), Title: lb.Title, Position: lb.Position}
		lists = append(lists, list)
		for _, tb := range lb.Tasks {
			tasks = append(tasks, &model.Task{
				ID:          uuid.New(),
				ListID:      list.ID,
				Title:       tb.Title,
				Description: tb.Description,
				Position:    tb.Position,
				Labels:      datatypes.NewJSONSlice(tb.Labels),
				DueComplete: tb.DueComplete,
				Members:     datatypes.NewJSONSlice(tb.Members),
				StartDate:   tb.StartDate,
				DueDate:     tb.DueDate,
				Reminder:    tb.Reminder,
				Coordinates: datatypes.NewJSONSlice(tb.Coordinates),
				Checklist:   datatypes.NewJSONSlice(tb.Checklist),
				Cover:       datatypes.NewJSONType(tb.Cover),
				Comments:    datatypes.NewJSONSlice(tb.Comments),
				Attachments: datatypes.NewJSONSlice(tb.Attachments),
				Watching:    tb.Watching,
				ArchivedAt:  tb.ArchivedAt,
			})
		}
	}
	return lists, tasks
}
