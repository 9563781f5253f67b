package app

import (
	"context"

	"github.com/evanschultz/lanes/internal/domain"
)

// DragEvent carries the dragged item and the item under the pointer. Over is nil when the
// pointer is not above any drop target.
type DragEvent struct {
	Active domain.DragItem
	Over   domain.DragItem
}

// sameTarget reports whether the event has no target or targets the dragged item itself.
func (e DragEvent) sameTarget() bool {
	if e.Active == nil || e.Over == nil {
		return true
	}
	return e.Active.ID() == e.Over.ID()
}

// normalize replaces pointer variants with value variants and nil pointers with nil.
func (e DragEvent) normalize() DragEvent {
	return DragEvent{Active: valueItem(e.Active), Over: valueItem(e.Over)}
}

func valueItem(item domain.DragItem) domain.DragItem {
	if column, ok := domain.AsColumn(item); ok {
		return domain.ColumnItem{Column: column}
	}
	if task, ok := domain.AsTask(item); ok {
		return domain.TaskItem{Task: task}
	}
	return nil
}

// DragStart records the dragged item for overlay rendering. It does not touch board state.
func (b *Board) DragStart(item domain.DragItem) {
	b.active = valueItem(item)
	if b.active == nil {
		return
	}
	b.logger.Debug("drag start", "kind", b.active.Kind(), "id", b.active.ID())
}

// ActiveDrag returns the item being dragged, if any.
func (b *Board) ActiveDrag() (domain.DragItem, bool) {
	return b.active, b.active != nil
}

// DragOver repositions a dragged task while it hovers a task or a column. Column drags are
// only reordered on drop.
//
// Over a task in another column, the dragged task joins that column and is moved to the
// hovered task's index minus one. Over a task in the same column it takes the hovered task's
// index. Over a column it joins the column without changing position. Unknown ids are ignored.
func (b *Board) DragOver(ctx context.Context, ev DragEvent) error {
	ev = ev.normalize()
	if ev.sameTarget() {
		return nil
	}
	if _, ok := domain.AsTask(ev.Active); !ok {
		return nil
	}
	activeID := ev.Active.ID()
	tasks := b.store.Tasks()
	if indexOfTask(tasks, activeID) < 0 {
		return nil
	}

	if _, ok := domain.AsTask(ev.Over); ok {
		overID := ev.Over.ID()
		if indexOfTask(tasks, overID) < 0 {
			return nil
		}
		return b.store.SetTasks(ctx, func(prev []domain.Task) []domain.Task {
			activeIdx := indexOfTask(prev, activeID)
			overIdx := indexOfTask(prev, overID)
			if activeIdx < 0 || overIdx < 0 {
				return prev
			}
			if prev[activeIdx].ColumnID != prev[overIdx].ColumnID {
				prev[activeIdx].ColumnID = prev[overIdx].ColumnID
				b.logger.Debug("task crossed columns", "task_id", activeID, "column_id", prev[overIdx].ColumnID, "from", activeIdx, "to", overIdx-1)
				return MoveElement(prev, activeIdx, overIdx-1)
			}
			return MoveElement(prev, activeIdx, overIdx)
		})
	}

	if _, ok := domain.AsColumn(ev.Over); ok {
		columnID := ev.Over.ID()
		if indexOfColumn(b.store.Columns(), columnID) < 0 {
			return nil
		}
		return b.store.SetTasks(ctx, func(prev []domain.Task) []domain.Task {
			activeIdx := indexOfTask(prev, activeID)
			if activeIdx < 0 {
				return prev
			}
			prev[activeIdx].ColumnID = columnID
			return MoveElement(prev, activeIdx, activeIdx)
		})
	}
	return nil
}

// DragEnd clears the active drag and, for a column dropped on another column, moves it to
// that column's index. Task drops need no further work because DragOver already placed them.
func (b *Board) DragEnd(ctx context.Context, ev DragEvent) error {
	b.active = nil
	ev = ev.normalize()
	if ev.sameTarget() {
		return nil
	}
	if _, ok := domain.AsColumn(ev.Active); !ok {
		return nil
	}
	activeID := ev.Active.ID()
	overID := ev.Over.ID()
	columns := b.store.Columns()
	if indexOfColumn(columns, activeID) < 0 || indexOfColumn(columns, overID) < 0 {
		return nil
	}
	return b.store.SetColumns(ctx, func(prev []domain.Column) []domain.Column {
		from := indexOfColumn(prev, activeID)
		to := indexOfColumn(prev, overID)
		if from < 0 || to < 0 {
			return prev
		}
		b.logger.Debug("column moved", "column_id", activeID, "from", from, "to", to)
		return MoveElement(prev, from, to)
	})
}
