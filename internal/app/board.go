package app

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/evanschultz/lanes/internal/domain"
	"github.com/google/uuid"
)

// maxIDAttempts bounds id regeneration after a collision.
const maxIDAttempts = 8

// IDGenerator returns unique identifiers for new entities.
type IDGenerator func() string

// BoardOptions holds optional Board settings.
type BoardOptions struct {
	Logger *log.Logger
}

// Board is the board controller: column/task lifecycle operations and drag handling on top
// of a Store.
type Board struct {
	store  *Store
	idGen  IDGenerator
	logger *log.Logger
	active domain.DragItem
}

// NewBoard constructs a controller over store. A nil store is a programming error and panics.
func NewBoard(store *Store, idGen IDGenerator, opts BoardOptions) *Board {
	if store == nil {
		panic("app: NewBoard requires a constructed Store")
	}
	if idGen == nil {
		idGen = uuid.NewString
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Board{
		store:  store,
		idGen:  idGen,
		logger: logger,
	}
}

// Store returns the underlying state store.
func (b *Board) Store() *Store {
	return b.store
}

// Columns lists columns in display order.
func (b *Board) Columns() []domain.Column {
	return b.store.Columns()
}

// Tasks lists all tasks in display order.
func (b *Board) Tasks() []domain.Task {
	return b.store.Tasks()
}

// TasksForColumn lists one column's tasks in display order.
func (b *Board) TasksForColumn(columnID domain.ID) []domain.Task {
	out := make([]domain.Task, 0)
	for _, task := range b.store.Tasks() {
		if task.ColumnID == columnID {
			out = append(out, task)
		}
	}
	return out
}

// CreateColumn appends a new untitled column.
func (b *Board) CreateColumn(ctx context.Context) (domain.Column, error) {
	id, err := b.newID()
	if err != nil {
		return domain.Column{}, err
	}
	column, err := domain.NewColumn(id)
	if err != nil {
		return domain.Column{}, err
	}
	err = b.store.SetColumns(ctx, func(prev []domain.Column) []domain.Column {
		return append(prev, column)
	})
	b.logger.Debug("column created", "column_id", column.ID)
	return column, err
}

// DeleteColumn removes a column and every task that belongs to it.
func (b *Board) DeleteColumn(ctx context.Context, columnID domain.ID) error {
	if indexOfColumn(b.store.Columns(), columnID) < 0 {
		return fmt.Errorf("delete column %q: %w", columnID, ErrNotFound)
	}
	removedTasks := 0
	err := b.store.Update(ctx,
		func(prev []domain.Column) []domain.Column {
			return slices.DeleteFunc(prev, func(c domain.Column) bool { return c.ID == columnID })
		},
		func(prev []domain.Task) []domain.Task {
			before := len(prev)
			out := slices.DeleteFunc(prev, func(t domain.Task) bool { return t.ColumnID == columnID })
			removedTasks = before - len(out)
			return out
		},
	)
	b.logger.Debug("column deleted", "column_id", columnID, "cascaded_tasks", removedTasks)
	return err
}

// RenameColumn replaces a column title.
func (b *Board) RenameColumn(ctx context.Context, columnID domain.ID, title string) error {
	if indexOfColumn(b.store.Columns(), columnID) < 0 {
		return fmt.Errorf("rename column %q: %w", columnID, ErrNotFound)
	}
	return b.store.SetColumns(ctx, func(prev []domain.Column) []domain.Column {
		for i := range prev {
			if prev[i].ID == columnID {
				prev[i].Rename(title)
			}
		}
		return prev
	})
}

// CreateTask appends an empty task to a column.
func (b *Board) CreateTask(ctx context.Context, columnID domain.ID) (domain.Task, error) {
	if indexOfColumn(b.store.Columns(), columnID) < 0 {
		return domain.Task{}, fmt.Errorf("create task in column %q: %w", columnID, ErrNotFound)
	}
	id, err := b.newID()
	if err != nil {
		return domain.Task{}, err
	}
	task, err := domain.NewTask(id, columnID)
	if err != nil {
		return domain.Task{}, err
	}
	err = b.store.SetTasks(ctx, func(prev []domain.Task) []domain.Task {
		return append(prev, task)
	})
	b.logger.Debug("task created", "task_id", task.ID, "column_id", columnID)
	return task, err
}

// DeleteTask removes one task.
func (b *Board) DeleteTask(ctx context.Context, taskID domain.ID) error {
	if indexOfTask(b.store.Tasks(), taskID) < 0 {
		return fmt.Errorf("delete task %q: %w", taskID, ErrNotFound)
	}
	return b.store.SetTasks(ctx, func(prev []domain.Task) []domain.Task {
		return slices.DeleteFunc(prev, func(t domain.Task) bool { return t.ID == taskID })
	})
}

// EditTask replaces a task's content.
func (b *Board) EditTask(ctx context.Context, taskID domain.ID, content string) error {
	if indexOfTask(b.store.Tasks(), taskID) < 0 {
		return fmt.Errorf("edit task %q: %w", taskID, ErrNotFound)
	}
	return b.store.SetTasks(ctx, func(prev []domain.Task) []domain.Task {
		for i := range prev {
			if prev[i].ID == taskID {
				prev[i].Edit(content)
			}
		}
		return prev
	})
}

// newID draws ids until one is unused on the board.
func (b *Board) newID() (domain.ID, error) {
	snap := b.store.Snapshot()
	for range maxIDAttempts {
		id := domain.ID(b.idGen())
		if id.IsZero() {
			return "", fmt.Errorf("generate id: %w", domain.ErrInvalidID)
		}
		if indexOfColumn(snap.Columns, id) < 0 && indexOfTask(snap.Tasks, id) < 0 {
			return id, nil
		}
		b.logger.Warn("generated id collided, retrying", "id", id)
	}
	return "", fmt.Errorf("generate id: no unique id after %d attempts", maxIDAttempts)
}

// indexOfColumn returns the position of id, or -1.
func indexOfColumn(columns []domain.Column, id domain.ID) int {
	return slices.IndexFunc(columns, func(c domain.Column) bool { return c.ID == id })
}

// indexOfTask returns the position of id, or -1.
func indexOfTask(tasks []domain.Task, id domain.ID) int {
	return slices.IndexFunc(tasks, func(t domain.Task) bool { return t.ID == id })
}
