package tui

import (
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/glamour"
)

// minPreviewWrap is the narrowest wrap width handed to glamour.
const minPreviewWrap = 24

// markdownRenderer renders task content for the preview overlay. The glamour renderer is
// rebuilt only when the wrap width changes.
type markdownRenderer struct {
	width    int
	renderer *glamour.TermRenderer
}

// render returns content styled as markdown, or word-wrapped plain text when styled is false
// or glamour fails.
func (r *markdownRenderer) render(content string, width int, styled bool) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return ""
	}
	wrapWidth := max(width, minPreviewWrap)
	if !styled {
		return plainPreview(content, wrapWidth)
	}

	if r.renderer == nil || r.width != wrapWidth {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle("dark"),
			glamour.WithWordWrap(wrapWidth),
		)
		if err != nil {
			return plainPreview(content, wrapWidth)
		}
		r.renderer = renderer
		r.width = wrapWidth
	}

	rendered, err := r.renderer.Render(content)
	if err != nil {
		return plainPreview(content, wrapWidth)
	}
	return strings.TrimRight(rendered, "\n")
}

// plainPreview wraps content without markdown styling.
func plainPreview(content string, width int) string {
	return lipgloss.NewStyle().Width(width).Render(content)
}
