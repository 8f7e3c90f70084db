package tui

import (
	"fmt"

	"go.uber.org/zap"
)

// Theme captures optional formatting hints the driver can apply when printing
// messages. Keep minimal to avoid coupling renderer logic to ANSI specifics.
type Theme struct {
	InfoPrefix    string
	WarningPrefix string
	ErrorPrefix   string
	// Heading renders the page banner. index is zero based.
	Heading func(title string, index, total, progress int) string
}

func (t Theme) heading(title string, index, total, progress int) string {
	if t.Heading != nil {
		return t.Heading(title, index, total, progress)
	}
	return fmt.Sprintf("Page %d of %d: %s (%d%%)", index+1, total, title, progress)
}

// Option configures the TUI renderer.
type Option func(*Renderer)

// WithPromptDriver overrides the prompt driver used by the renderer.
func WithPromptDriver(driver PromptDriver) Option {
	return func(r *Renderer) {
		if driver != nil {
			r.driver = driver
		}
	}
}

// WithTheme applies optional message prefixes.
func WithTheme(theme Theme) Option {
	return func(r *Renderer) {
		r.theme = theme
	}
}

// WithLogger sets the logger used for prompt failures.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithDefaultDraftName sets the file name suggested by "Save draft" before
// the draft has a path.
func WithDefaultDraftName(name string) Option {
	return func(r *Renderer) {
		if name != "" {
			r.draftName = name
		}
	}
}
