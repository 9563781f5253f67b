package domain

// DragKind names the variant carried by a DragItem.
type DragKind string

// DragKindColumn and DragKindTask are the two drag variants.
const (
	DragKindColumn DragKind = "Column"
	DragKindTask   DragKind = "Task"
)

// DragItem is the payload of a drag gesture: either a ColumnItem or a TaskItem.
// The variant is fixed when the drag starts and travels with every later event.
type DragItem interface {
	ID() ID
	Kind() DragKind
	dragItem()
}

// ColumnItem is a dragged or hovered column.
type ColumnItem struct {
	Column Column
}

// ID returns the column id.
func (c ColumnItem) ID() ID { return c.Column.ID }

// Kind returns DragKindColumn.
func (ColumnItem) Kind() DragKind { return DragKindColumn }

func (ColumnItem) dragItem() {}

// TaskItem is a dragged or hovered task.
type TaskItem struct {
	Task Task
}

// ID returns the task id.
func (t TaskItem) ID() ID { return t.Task.ID }

// Kind returns DragKindTask.
func (TaskItem) Kind() DragKind { return DragKindTask }

func (TaskItem) dragItem() {}

// AsTask returns the task payload when item is a TaskItem.
func AsTask(item DragItem) (Task, bool) {
	switch v := item.(type) {
	case TaskItem:
		return v.Task, true
	case *TaskItem:
		if v == nil {
			return Task{}, false
		}
		return v.Task, true
	default:
		return Task{}, false
	}
}

// AsColumn returns the column payload when item is a ColumnItem.
func AsColumn(item DragItem) (Column, bool) {
	switch v := item.(type) {
	case ColumnItem:
		return v.Column, true
	case *ColumnItem:
		if v == nil {
			return Column{}, false
		}
		return v.Column, true
	default:
		return Column{}, false
	}
}
