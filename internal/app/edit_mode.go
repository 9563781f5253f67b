package app

// EditMode is the transient editing flag of one rendered column or task. It is never persisted.
type EditMode struct {
	editing bool
}

// NewEditMode returns an edit-mode flag with the given initial value.
func NewEditMode(editing bool) EditMode {
	return EditMode{editing: editing}
}

// Editing reports whether the item is being edited.
func (e EditMode) Editing() bool {
	return e.editing
}

// CanDrag reports whether a drag may start; typing must not turn into a drag.
func (e EditMode) CanDrag() bool {
	return !e.editing
}

// Toggle flips the flag.
func (e *EditMode) Toggle() {
	e.editing = !e.editing
}

// Open enters edit mode.
func (e *EditMode) Open() {
	e.editing = true
}

// Close leaves edit mode.
func (e *EditMode) Close() {
	e.editing = false
}

// CloseOnKey leaves edit mode when key is enter and reports whether it did.
func (e *EditMode) CloseOnKey(key string) bool {
	if key != "enter" {
		return false
	}
	e.editing = false
	return true
}
