// Package report projects a finished intake into a human-readable document.
// Build turns the answers into a Document that mirrors every visible field,
// with "[Not provided]" for empty answers; Render writes it as HTML or plain
// text through pongo2 templates, or as a paginated PDF.
package report

import (
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-intake/pkg/schema"
	"github.com/goliatone/go-intake/pkg/state"
	"github.com/goliatone/go-intake/pkg/validators"
	"github.com/goliatone/go-intake/pkg/visibility"
)

// NotProvided stands in for empty answers.
const NotProvided = "[Not provided]"

// Document is the printable form of an intake.
type Document struct {
	Title     string
	Generated string
	Footer    string
	Pages     []Page
}

// Page mirrors one wizard page.
type Page struct {
	Title  string
	Blocks []Block
}

// Block is a run of rows under an optional heading. Repeating-group items
// get one block each ("Beneficiary 2"); an empty group gets a Note instead.
type Block struct {
	Heading string
	Rows    []Row
	Note    string
}

// Row is one labelled answer.
type Row struct {
	Label   string
	Value   string
	Missing bool
}

// Option configures Build.
type Option func(*builder)

// WithClock sets the clock used for the generation timestamp.
func WithClock(now func() time.Time) Option {
	return func(b *builder) {
		if now != nil {
			b.now = now
		}
	}
}

// WithTitle overrides the document title, which defaults to the catalog
// title.
func WithTitle(title string) Option {
	return func(b *builder) {
		if strings.TrimSpace(title) != "" {
			b.title = title
		}
	}
}

type builder struct {
	store *state.Store
	now   func() time.Time
	title string
}

// Build projects the answers in store onto their catalog.
func Build(store *state.Store, opts ...Option) Document {
	catalog := store.Catalog()
	b := &builder{store: store, now: time.Now, title: catalog.Title}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	if b.title == "" {
		b.title = "Client Intake"
	}

	doc := Document{
		Title:     b.title + " Form",
		Generated: b.now().Format("2006-01-02 15:04"),
		Footer:    b.title + " Form - Confidential",
	}
	for _, page := range catalog.Pages {
		out := Page{Title: page.Title}
		for _, section := range page.Sections {
			out.Blocks = append(out.Blocks, b.section(section)...)
		}
		doc.Pages = append(doc.Pages, out)
	}
	return doc
}

func (b *builder) section(section schema.Section) []Block {
	current := Block{Heading: section.Title}
	var blocks []Block
	flush := func() {
		if len(current.Rows) > 0 || current.Note != "" {
			blocks = append(blocks, current)
		}
		current = Block{}
	}

	var walk func(fields []schema.Field)
	walk = func(fields []schema.Field) {
		for _, field := range fields {
			if !visibility.Visible(field, b.store) {
				continue
			}
			switch field.Kind {
			case schema.KindLabel:
			case schema.KindGroup:
				walk(field.Fields)
			case schema.KindRepeatingGroup:
				flush()
				blocks = append(blocks, b.items(section, field)...)
			default:
				value, _ := b.store.Get(field.Name)
				current.Rows = append(current.Rows, row(field, value))
			}
		}
	}
	walk(section.Fields)
	flush()
	return blocks
}

func (b *builder) items(section schema.Section, group schema.Field) []Block {
	items := b.store.Items(group.Name)
	if len(items) == 0 {
		what := strings.ToLower(section.Title)
		if what == "" {
			what = "entries"
		}
		return []Block{{Heading: section.Title, Note: "No " + what + " specified"}}
	}

	label := group.ItemLabel
	if label == "" {
		label = group.DisplayLabel()
	}
	blocks := make([]Block, 0, len(items))
	for idx, item := range items {
		block := Block{Heading: label + " " + strconv.Itoa(idx+1)}
		for _, field := range leafFields(group.Fields, item) {
			block.Rows = append(block.Rows, row(field, item.Value(field.Name)))
		}
		blocks = append(blocks, block)
	}
	return blocks
}

// leafFields flattens the visible template fields of one item.
func leafFields(fields []schema.Field, item state.Item) []schema.Field {
	var out []schema.Field
	for _, field := range fields {
		if !visibility.Visible(field, item) {
			continue
		}
		switch field.Kind {
		case schema.KindGroup:
			out = append(out, leafFields(field.Fields, item)...)
		case schema.KindLabel, schema.KindRepeatingGroup:
		default:
			out = append(out, field)
		}
	}
	return out
}

func row(field schema.Field, value state.Value) Row {
	text := Display(field, value)
	return Row{Label: field.DisplayLabel(), Value: text, Missing: text == NotProvided}
}

// Display renders one answer for print: currency and percentages
// canonically, checkboxes as Yes or No, and NotProvided for empty or
// unparsable amounts.
func Display(field schema.Field, value state.Value) string {
	if field.Kind == schema.KindCheckbox {
		if value.Bool() {
			return "Yes"
		}
		return "No"
	}
	text := strings.TrimSpace(value.Text())
	if text == "" {
		return NotProvided
	}
	switch {
	case field.Validator == validators.USDCurrency:
		if cents, err := validators.ParseUSD(text); err == nil {
			return validators.FormatUSD(cents)
		}
		return NotProvided
	case field.Validator == validators.Percent || field.Validator == validators.PercentTwoDecimals:
		if pct, err := validators.ParsePercent(text); err == nil {
			return validators.FormatPercent(pct)
		}
		return NotProvided
	case field.Kind == schema.KindDate:
		if day, err := validators.ParseISODate(text); err == nil {
			return day.Format("2006-01-02")
		}
		return NotProvided
	}
	return text
}
