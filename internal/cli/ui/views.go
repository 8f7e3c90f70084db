package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"github.com/goliatone/go-intake/pkg/mru"
	"github.com/goliatone/go-intake/pkg/renderers/tui"
	"github.com/goliatone/go-intake/pkg/schema"
)

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true)
	subtleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
	missingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#999999")).Italic(true)
	progressStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50"))
	bannerStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#5B8DEF")).
			Padding(0, 1)
)

// Home renders the landing view: the app title and the recent drafts,
// newest first, with missing files marked.
func Home(title string, listings []mru.Listing) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")
	if len(listings) == 0 {
		b.WriteString(subtleStyle.Render("No recent drafts. Run `intake run` to start one."))
		b.WriteString("\n")
		return b.String()
	}
	b.WriteString(subtleStyle.Render("Recent drafts"))
	b.WriteString("\n")
	for idx, listing := range listings {
		name := listing.DisplayName()
		if listing.Missing {
			name = missingStyle.Render(name)
		}
		fmt.Fprintf(&b, "%2d. %s  %s\n", idx+1, name, subtleStyle.Render(listing.LastOpened))
		fmt.Fprintf(&b, "    %s\n", subtleStyle.Render(listing.Path))
	}
	return b.String()
}

// Heading renders the page banner shown above each wizard page.
func Heading(title string, index, total, progress int) string {
	bar := progressBar(progress, 20)
	line := fmt.Sprintf("%s\n%s %s", titleStyle.Render(title),
		progressStyle.Render(bar),
		subtleStyle.Render(fmt.Sprintf("Page %d of %d (%d%%)", index+1, total, progress)))
	return bannerStyle.Render(line)
}

func progressBar(progress, width int) string {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	filled := progress * width / 100
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// Theme returns the prompt theme used by the terminal renderer.
func Theme(noColor bool) tui.Theme {
	warn := color.New(color.FgYellow, color.Bold)
	fail := color.New(color.FgRed, color.Bold)
	info := color.New(color.FgCyan)
	if noColor {
		warn.DisableColor()
		fail.DisableColor()
		info.DisableColor()
	}
	return tui.Theme{
		InfoPrefix:    info.Sprint("i "),
		WarningPrefix: warn.Sprint("! "),
		ErrorPrefix:   fail.Sprint("✗ "),
		Heading:       Heading,
	}
}

// Issues renders lint findings as a table.
func Issues(w io.Writer, issues []schema.Issue, noColor bool) {
	headers := []string{"SEVERITY", "PAGE", "FIELD", "RULE", "MESSAGE"}
	rows := make([][]string, 0, len(issues))
	for _, issue := range issues {
		rows = append(rows, []string{string(issue.Severity), issue.Page, issue.Field, issue.Rule, issue.Message})
	}

	widths := make([]int, len(headers))
	for i, header := range headers {
		widths[i] = len(header)
	}
	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	bold := color.New(color.Bold, color.FgCyan)
	gray := color.New(color.FgHiBlack)
	if noColor {
		bold.DisableColor()
		gray.DisableColor()
	}
	for i, header := range headers {
		bold.Fprint(w, padRight(header, widths[i]))
		if i < len(headers)-1 {
			fmt.Fprint(w, "  ")
		}
	}
	fmt.Fprintln(w)
	for i, width := range widths {
		gray.Fprint(w, strings.Repeat("─", width))
		if i < len(widths)-1 {
			gray.Fprint(w, "  ")
		}
	}
	fmt.Fprintln(w)
	for _, row := range rows {
		for i, cell := range row {
			fmt.Fprint(w, padRight(cell, widths[i]))
			if i < len(row)-1 {
				fmt.Fprint(w, "  ")
			}
		}
		fmt.Fprintln(w)
	}
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}
