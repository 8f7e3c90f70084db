// Package ui formats terminal output for the intake CLI: status messages,
// the home view and lint tables.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Level represents the severity of a message.
type Level int

const (
	LevelError Level = iota
	LevelWarning
	LevelInfo
	LevelSuccess
)

// Message is a titled block with optional detail lines and hints.
type Message struct {
	Level   Level
	Title   string
	Details []string
	Hints   []string
	NoColor bool
}

// Format renders m.
//
// Example output:
//
//	✗ Could not save draft
//	   open /drafts/client.mgd: permission denied
//
//	   → Choose another location with "Save draft"
func Format(m Message) string {
	var b strings.Builder

	var header, body *color.Color
	var symbol string
	switch m.Level {
	case LevelError:
		header, body, symbol = color.New(color.FgRed, color.Bold), color.New(color.FgRed), "✗"
	case LevelWarning:
		header, body, symbol = color.New(color.FgYellow, color.Bold), color.New(color.FgYellow), "!"
	case LevelSuccess:
		header, body, symbol = color.New(color.FgGreen, color.Bold), color.New(color.FgGreen), "✓"
	default:
		header, body, symbol = color.New(color.FgCyan, color.Bold), color.New(color.FgCyan), "i"
	}
	if m.NoColor {
		header.DisableColor()
		body.DisableColor()
	}

	header.Fprintf(&b, "%s %s\n", symbol, m.Title)
	for _, line := range m.Details {
		body.Fprintf(&b, "   %s\n", line)
	}
	if len(m.Hints) > 0 {
		b.WriteString("\n")
		gray := color.New(color.FgHiBlack)
		if m.NoColor {
			gray.DisableColor()
		}
		for _, hint := range m.Hints {
			gray.Fprintf(&b, "   → %s\n", hint)
		}
	}
	return b.String()
}

// Printer writes messages to one stream.
type Printer struct {
	W       io.Writer
	NoColor bool
}

// Error prints a failure with its cause.
func (p Printer) Error(title string, err error, hints ...string) {
	m := Message{Level: LevelError, Title: title, Hints: hints, NoColor: p.NoColor}
	if err != nil {
		m.Details = []string{err.Error()}
	}
	fmt.Fprint(p.W, Format(m))
}

// Failure prints an error block with detail lines.
func (p Printer) Failure(title string, details ...string) {
	fmt.Fprint(p.W, Format(Message{Level: LevelError, Title: title, Details: details, NoColor: p.NoColor}))
}

// Warning prints a non-blocking notice.
func (p Printer) Warning(title string, details ...string) {
	fmt.Fprint(p.W, Format(Message{Level: LevelWarning, Title: title, Details: details, NoColor: p.NoColor}))
}

// Info prints a neutral notice.
func (p Printer) Info(title string, details ...string) {
	fmt.Fprint(p.W, Format(Message{Level: LevelInfo, Title: title, Details: details, NoColor: p.NoColor}))
}

// Success prints a completion notice.
func (p Printer) Success(title string, details ...string) {
	fmt.Fprint(p.W, Format(Message{Level: LevelSuccess, Title: title, Details: details, NoColor: p.NoColor}))
}
