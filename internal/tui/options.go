package tui

import (
	"context"

	"github.com/atotto/clipboard"
)

// BoardConfig controls board layout and drag behavior.
type BoardConfig struct {
	ColumnWidth int
	// DragDistance is how many cells the pointer must travel before a press becomes a drag.
	DragDistance   int
	RenderMarkdown bool
}

// KeyConfig holds single-key binding overrides. Blank fields keep the defaults.
type KeyConfig struct {
	Grab      string
	NewColumn string
	NewTask   string
	Edit      string
	Delete    string
}

type Option func(*Model)

func DefaultBoardConfig() BoardConfig {
	return BoardConfig{
		ColumnWidth:    28,
		DragDistance:   1,
		RenderMarkdown: true,
	}
}

func WithBoardConfig(cfg BoardConfig) Option {
	return func(m *Model) {
		if cfg.ColumnWidth > 0 {
			m.board.ColumnWidth = cfg.ColumnWidth
		}
		if cfg.DragDistance >= 0 {
			m.board.DragDistance = cfg.DragDistance
		}
		m.board.RenderMarkdown = cfg.RenderMarkdown
	}
}

func WithKeyConfig(cfg KeyConfig) Option {
	return func(m *Model) {
		m.keys.applyConfig(cfg)
	}
}

// WithClipboard replaces the system clipboard writer.
func WithClipboard(write func(string) error) Option {
	return func(m *Model) {
		if write != nil {
			m.copyText = write
		}
	}
}

// WithContext sets the context passed to board mutations.
func WithContext(ctx context.Context) Option {
	return func(m *Model) {
		if ctx != nil {
			m.ctx = ctx
		}
	}
}

// defaultClipboard writes to the system clipboard.
func defaultClipboard(text string) error {
	return clipboard.WriteAll(text)
}
