package schema

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-intake/pkg/visibility/expr"
)

// Kind is the closed set of field kinds a catalog may declare. Dispatch over
// Kind uses exhaustive switches; adding a kind means touching every switch.
type Kind int

const (
	KindText Kind = iota + 1
	KindNumber
	KindDate
	KindTextArea
	KindCheckbox
	KindRadio
	KindSelect
	KindLabel
	KindGroup
	KindRepeatingGroup
)

var kindNames = map[Kind]string{
	KindText:           "text",
	KindNumber:         "number",
	KindDate:           "date",
	KindTextArea:       "textarea",
	KindCheckbox:       "checkbox",
	KindRadio:          "radio",
	KindSelect:         "select",
	KindLabel:          "label",
	KindGroup:          "group",
	KindRepeatingGroup: "repeating_group",
}

// ParseKind maps the catalog spelling of a kind onto Kind.
func ParseKind(raw string) (Kind, error) {
	needle := strings.ToLower(strings.TrimSpace(raw))
	for kind, name := range kindNames {
		if name == needle {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("schema: unknown field type %q", raw)
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if _, ok := kindNames[k]; !ok {
		return nil, fmt.Errorf("schema: invalid kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// IsInput reports whether the kind stores an answer of its own.
func (k Kind) IsInput() bool {
	switch k {
	case KindText, KindNumber, KindDate, KindTextArea, KindCheckbox, KindRadio, KindSelect:
		return true
	case KindLabel, KindGroup, KindRepeatingGroup:
		return false
	default:
		return false
	}
}

// Options lists the choices of a select or radio. Either Values is set inline
// or Ref names a list registered on the Catalog (for example ISO_COUNTRIES).
type Options struct {
	Values []string
	Ref    string
}

// Empty reports whether neither inline values nor a reference are present.
func (o Options) Empty() bool {
	return len(o.Values) == 0 && strings.TrimSpace(o.Ref) == ""
}

// Field is one immutable entry of a section. Name is empty for labels and
// plain groups. Fields holds children of groups and the item template of
// repeating groups.
type Field struct {
	Name        string
	Kind        Kind
	Label       string
	Required    bool
	Validator   string
	Options     Options
	ShowIf      expr.Condition
	InputMask   string
	Placeholder string
	ItemLabel   string
	Fields      []Field
}

// DisplayLabel falls back to the field name when no label is set.
func (f Field) DisplayLabel() string {
	if strings.TrimSpace(f.Label) != "" {
		return f.Label
	}
	return f.Name
}

// YesNo reports whether a radio carries the Yes/No choice pair, which
// defaults to "No".
func (f Field) YesNo() bool {
	if f.Kind != KindRadio || len(f.Options.Values) != 2 {
		return false
	}
	return strings.EqualFold(f.Options.Values[0], "Yes") && strings.EqualFold(f.Options.Values[1], "No")
}

// Section groups fields under a title.
type Section struct {
	Title  string
	Fields []Field
}

// Page is one wizard step.
type Page struct {
	Key      string
	Title    string
	Sections []Section
}

// Fields returns the top-level fields of every section, in order.
func (p Page) Fields() []Field {
	var out []Field
	for _, section := range p.Sections {
		out = append(out, section.Fields...)
	}
	return out
}

// Names returns every input name declared on the page, including names nested
// in groups and repeating-group item templates. Cross-field rules use it to
// decide whether they apply to the page.
func (p Page) Names() map[string]struct{} {
	names := make(map[string]struct{})
	var walk func(fields []Field)
	walk = func(fields []Field) {
		for _, field := range fields {
			if field.Name != "" && field.Kind != KindLabel {
				names[field.Name] = struct{}{}
			}
			walk(field.Fields)
		}
	}
	walk(p.Fields())
	return names
}

// Defect is a non-fatal schema problem found while loading or linting.
type Defect struct {
	Page    string `json:"page,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (d Defect) String() string {
	location := strings.Trim(strings.Join([]string{d.Page, d.Field}, "."), ".")
	if location == "" {
		return d.Message
	}
	return location + ": " + d.Message
}

// Catalog is the ordered set of pages plus named option lists.
type Catalog struct {
	Title       string
	Version     string
	Pages       []Page
	OptionLists map[string][]string
	// Defects collects problems the loader degraded around, such as a
	// malformed show_if treated as always visible.
	Defects []Defect
}

// PageCount returns the number of wizard steps.
func (c *Catalog) PageCount() int {
	if c == nil {
		return 0
	}
	return len(c.Pages)
}

// PageIndex returns the position of the page with the given key.
func (c *Catalog) PageIndex(key string) (int, bool) {
	if c == nil {
		return -1, false
	}
	for idx, page := range c.Pages {
		if page.Key == key {
			return idx, true
		}
	}
	return -1, false
}

// ResolveOptions returns the concrete choices for a field, following Ref into
// OptionLists when set. Unknown references yield nil.
func (c *Catalog) ResolveOptions(field Field) []string {
	if len(field.Options.Values) > 0 {
		return append([]string(nil), field.Options.Values...)
	}
	ref := strings.TrimSpace(field.Options.Ref)
	if ref == "" || c == nil {
		return nil
	}
	return append([]string(nil), c.OptionLists[ref]...)
}

// Walk visits every field of every page depth-first. parent is the enclosing
// repeating group name, empty for fields outside repeating groups.
func (c *Catalog) Walk(fn func(page Page, field Field, parent string)) {
	if c == nil || fn == nil {
		return
	}
	var walk func(page Page, fields []Field, parent string)
	walk = func(page Page, fields []Field, parent string) {
		for _, field := range fields {
			fn(page, field, parent)
			switch field.Kind {
			case KindRepeatingGroup:
				walk(page, field.Fields, field.Name)
			case KindGroup:
				walk(page, field.Fields, parent)
			}
		}
	}
	for _, page := range c.Pages {
		walk(page, page.Fields(), "")
	}
}

// Field finds a top-level (non repeating-item) field by name.
func (c *Catalog) Field(name string) (Field, bool) {
	var (
		found Field
		ok    bool
	)
	c.Walk(func(_ Page, field Field, parent string) {
		if ok || parent != "" || field.Name != name || field.Kind == KindLabel {
			return
		}
		found, ok = field, true
	})
	return found, ok
}
