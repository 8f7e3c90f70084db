package report

import (
	"bytes"
	"embed"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/flosch/pongo2/v6"
	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-intake/internal/atomicfile"
)

//go:embed templates/*
var templateFS embed.FS

// Format selects the output flavour.
type Format string

const (
	FormatHTML Format = "html"
	FormatText Format = "text"
	FormatPDF  Format = "pdf"
)

// ParseFormat maps "html", "text" (also "txt") or "pdf" onto Format.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "html", "":
		return FormatHTML, nil
	case "text", "txt":
		return FormatText, nil
	case "pdf":
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("report: unknown format %q (want html, text or pdf)", raw)
	}
}

// Extension returns the file extension conventionally used for f.
func (f Format) Extension() string {
	switch f {
	case FormatText:
		return ".txt"
	case FormatPDF:
		return ".pdf"
	}
	return ".html"
}

var (
	setOnce   sync.Once
	set       *pongo2.TemplateSet
	templates = map[Format]string{
		FormatHTML: "templates/report.html",
		FormatText: "templates/report.txt",
	}

	policyOnce sync.Once
	policy     *bluemonday.Policy
)

func templateSet() *pongo2.TemplateSet {
	setOnce.Do(func() {
		set = pongo2.NewSet("report", pongo2.NewFSLoader(templateFS))
	})
	return set
}

func sanitizer() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.StrictPolicy()
	})
	return policy
}

// Render writes doc to w in the requested format. HTML output passes every
// string through a strict sanitizer first, so answers can never inject
// markup. PDF output is laid out directly and never interprets markup.
func Render(w io.Writer, doc Document, format Format) error {
	if format == FormatPDF {
		return renderPDF(w, doc, true)
	}
	name, ok := templates[format]
	if !ok {
		return fmt.Errorf("report: unknown format %q", format)
	}
	if format == FormatHTML {
		doc = sanitize(doc)
	}

	tmpl, err := templateSet().FromCache(name)
	if err != nil {
		return fmt.Errorf("report: load template %q: %w", name, err)
	}
	if err := tmpl.ExecuteWriter(pongo2.Context{"doc": doc}, w); err != nil {
		return fmt.Errorf("report: execute template %q: %w", name, err)
	}
	return nil
}

// WriteFile renders doc and atomically replaces path with the result.
func WriteFile(path string, doc Document, format Format) error {
	var buf bytes.Buffer
	if err := Render(&buf, doc, format); err != nil {
		return err
	}
	if err := atomicfile.Write(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("report: write %s: %w", path, err)
	}
	return nil
}

// sanitize returns a copy of doc with every string reduced to escaped text.
func sanitize(doc Document) Document {
	p := sanitizer()
	clean := func(s string) string { return p.Sanitize(s) }

	out := Document{
		Title:     clean(doc.Title),
		Generated: clean(doc.Generated),
		Footer:    clean(doc.Footer),
		Pages:     make([]Page, len(doc.Pages)),
	}
	for pi, page := range doc.Pages {
		cp := Page{Title: clean(page.Title), Blocks: make([]Block, len(page.Blocks))}
		for bi, block := range page.Blocks {
			cb := Block{Heading: clean(block.Heading), Note: clean(block.Note), Rows: make([]Row, len(block.Rows))}
			for ri, row := range block.Rows {
				cb.Rows[ri] = Row{Label: clean(row.Label), Value: clean(row.Value), Missing: row.Missing}
			}
			cp.Blocks[bi] = cb
		}
		out.Pages[pi] = cp
	}
	return out
}
