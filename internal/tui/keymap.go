package tui

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"charm.land/bubbles/v2/key"
)

// keyMap holds the board bindings.
type keyMap struct {
	quit       key.Binding
	toggleHelp key.Binding
	moveLeft   key.Binding
	moveRight  key.Binding
	moveUp     key.Binding
	moveDown   key.Binding
	newColumn  key.Binding
	newTask    key.Binding
	edit       key.Binding
	delete     key.Binding
	grab       key.Binding
	drop       key.Binding
	cancel     key.Binding
	copyTask   key.Binding
	preview    key.Binding
}

// newKeyMap constructs the default bindings.
func newKeyMap() keyMap {
	return keyMap{
		quit:       key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		toggleHelp: key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		moveLeft:   key.NewBinding(key.WithKeys("h", "left"), key.WithHelp("h/←", "column left")),
		moveRight:  key.NewBinding(key.WithKeys("l", "right"), key.WithHelp("l/→", "column right")),
		moveUp:     key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "up")),
		moveDown:   key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "down")),
		newColumn:  key.NewBinding(key.WithKeys("C", "shift+c"), key.WithHelp("C", "add column")),
		newTask:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "add task")),
		edit:       key.NewBinding(key.WithKeys("e", "enter"), key.WithHelp("e/enter", "edit")),
		delete:     key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "delete")),
		grab:       key.NewBinding(key.WithKeys("space"), key.WithHelp("space", "grab")),
		drop:       key.NewBinding(key.WithKeys("enter", "space"), key.WithHelp("enter", "drop")),
		cancel:     key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		copyTask:   key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy task")),
		preview:    key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "preview")),
	}
}

// applyConfig replaces bindings with configured single-key overrides.
func (k *keyMap) applyConfig(cfg KeyConfig) {
	configureBinding(&k.grab, cfg.Grab, "grab")
	configureBinding(&k.newColumn, cfg.NewColumn, "add column")
	configureBinding(&k.newTask, cfg.NewTask, "add task")
	configureBinding(&k.edit, cfg.Edit, "edit")
	configureBinding(&k.delete, cfg.Delete, "delete")
	if grab := k.grab.Keys(); len(grab) > 0 {
		k.drop.SetKeys(append([]string{"enter"}, grab...)...)
	}
}

// configureBinding rebinds b to raw unless raw is blank.
func configureBinding(b *key.Binding, raw, desc string) {
	keys, help := parseBindingKeys(raw)
	if len(keys) == 0 {
		return
	}
	b.SetKeys(keys...)
	b.SetHelp(help, desc)
}

// parseBindingKeys maps one configured key to key matcher strings and its help label.
func parseBindingKeys(raw string) ([]string, string) {
	switch {
	case raw == "":
		return nil, ""
	case raw == " " || strings.EqualFold(raw, "space"):
		return []string{"space"}, "space"
	}
	r, size := utf8.DecodeRuneInString(raw)
	if size == len(raw) && unicode.IsUpper(r) {
		return []string{raw, "shift+" + string(unicode.ToLower(r))}, raw
	}
	return []string{strings.ToLower(raw)}, raw
}

// ShortHelp returns the footer bindings.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.newColumn, k.newTask, k.edit, k.grab, k.delete, k.toggleHelp, k.quit,
	}
}

// FullHelp returns the grouped bindings for the help overlay.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.newColumn, k.newTask, k.edit, k.delete, k.copyTask, k.preview},
		{k.moveLeft, k.moveRight, k.moveUp, k.moveDown},
		{k.grab, k.drop, k.cancel, k.toggleHelp, k.quit},
	}
}
