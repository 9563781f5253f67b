package domain

import "strings"

// Task is one card. ColumnID is reassigned when the task is dragged into another column.
type Task struct {
	ID       ID     `json:"id"`
	ColumnID ID     `json:"columnId"`
	Content  string `json:"content"`
}

// NewTask constructs an empty task bound to columnID.
func NewTask(id, columnID ID) (Task, error) {
	id = ID(strings.TrimSpace(string(id)))
	columnID = ID(strings.TrimSpace(string(columnID)))
	if id.IsZero() {
		return Task{}, ErrInvalidID
	}
	if columnID.IsZero() {
		return Task{}, ErrInvalidColumnID
	}
	return Task{ID: id, ColumnID: columnID}, nil
}

// Edit replaces the task content.
func (t *Task) Edit(content string) {
	t.Content = content
}

// Move reassigns the owning column.
func (t *Task) Move(columnID ID) error {
	if columnID.IsZero() {
		return ErrInvalidColumnID
	}
	t.ColumnID = columnID
	return nil
}
