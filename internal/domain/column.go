package domain

import "strings"

// Column is a named lane that holds tasks. Display order is the column's index on the board.
type Column struct {
	ID    ID     `json:"id"`
	Title string `json:"title"`
}

// NewColumn constructs a column with an empty title.
func NewColumn(id ID) (Column, error) {
	id = ID(strings.TrimSpace(string(id)))
	if id.IsZero() {
		return Column{}, ErrInvalidID
	}
	return Column{ID: id}, nil
}

// Rename replaces the title. Blank titles are allowed; the UI renders a placeholder for them.
func (c *Column) Rename(title string) {
	c.Title = title
}
