package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-intake/pkg/visibility/expr"
)

// ErrNoPages reports a catalog source without any page definitions.
var ErrNoPages = errors.New("schema: catalog defines no pages")

// LoadFS walks the provided filesystem and parses JSON/YAML catalog files in
// lexical path order. Pages accumulate across files, so a catalog can be split
// into one file per page (01_personal.yaml, 02_contact.yaml, ...). A source
// without pages is rejected with ErrNoPages.
func LoadFS(fsys fs.FS) (*Catalog, error) {
	catalog := &Catalog{OptionLists: make(map[string][]string)}
	if fsys == nil {
		return nil, ErrNoPages
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isCatalogFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("schema: read %s: %w", path, err)
		}
		doc, err := parseDocument(data, path)
		if err != nil {
			return err
		}
		return catalog.merge(doc, path)
	})
	if err != nil {
		return nil, err
	}

	if len(catalog.Pages) == 0 {
		return nil, ErrNoPages
	}

	seen := make(map[string]string, len(catalog.Pages))
	for _, page := range catalog.Pages {
		if prev, dup := seen[page.Key]; dup {
			return nil, fmt.Errorf("schema: duplicate page key %q (also in %s)", page.Key, prev)
		}
		seen[page.Key] = page.Key
	}
	return catalog, nil
}

// Parse decodes a single JSON or YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	doc, err := parseDocument(data, "catalog")
	if err != nil {
		return nil, err
	}
	catalog := &Catalog{OptionLists: make(map[string][]string)}
	if err := catalog.merge(doc, "catalog"); err != nil {
		return nil, err
	}
	return catalog, nil
}

type documentFile struct {
	Title       string              `json:"title" yaml:"title"`
	Version     string              `json:"version" yaml:"version"`
	OptionLists map[string][]string `json:"option_lists" yaml:"option_lists"`
	Pages       []pageFile          `json:"pages" yaml:"pages"`
}

type pageFile struct {
	Key      string        `json:"key" yaml:"key"`
	Title    string        `json:"title" yaml:"title"`
	Sections []sectionFile `json:"sections" yaml:"sections"`
}

type sectionFile struct {
	Title  string      `json:"title" yaml:"title"`
	Fields []fieldFile `json:"fields" yaml:"fields"`
}

type fieldFile struct {
	Name        string      `json:"name" yaml:"name"`
	Type        string      `json:"type" yaml:"type"`
	Label       string      `json:"label" yaml:"label"`
	Required    bool        `json:"required" yaml:"required"`
	Validate    string      `json:"validate" yaml:"validate"`
	Options     any         `json:"options" yaml:"options"`
	ShowIf      any         `json:"show_if" yaml:"show_if"`
	InputMask   string      `json:"input_mask" yaml:"input_mask"`
	Placeholder string      `json:"placeholder" yaml:"placeholder"`
	ItemLabel   string      `json:"item_label" yaml:"item_label"`
	Fields      []fieldFile `json:"fields" yaml:"fields"`
}

func parseDocument(data []byte, source string) (documentFile, error) {
	var doc documentFile
	if len(strings.TrimSpace(string(data))) == 0 {
		return documentFile{}, fmt.Errorf("schema: file %s is empty", source)
	}

	if err := json.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}

	doc = documentFile{}
	if err := yaml.Unmarshal(data, &doc); err == nil {
		return doc, nil
	}

	return documentFile{}, fmt.Errorf("schema: parse %s: invalid JSON or YAML", source)
}

func (c *Catalog) merge(doc documentFile, source string) error {
	if c.Title == "" {
		c.Title = strings.TrimSpace(doc.Title)
	}
	if c.Version == "" {
		c.Version = strings.TrimSpace(doc.Version)
	}
	for name, values := range doc.OptionLists {
		key := strings.TrimSpace(name)
		if key == "" {
			return fmt.Errorf("schema: file %s defines an unnamed option list", source)
		}
		c.OptionLists[key] = append([]string(nil), values...)
	}

	for _, rawPage := range doc.Pages {
		key := strings.TrimSpace(rawPage.Key)
		if key == "" {
			return fmt.Errorf("schema: file %s defines a page without key", source)
		}
		page := Page{Key: key, Title: strings.TrimSpace(rawPage.Title)}
		for _, rawSection := range rawPage.Sections {
			fields, err := c.normaliseFields(rawSection.Fields, key)
			if err != nil {
				return fmt.Errorf("schema: %s: %w", source, err)
			}
			page.Sections = append(page.Sections, Section{
				Title:  strings.TrimSpace(rawSection.Title),
				Fields: fields,
			})
		}
		c.Pages = append(c.Pages, page)
	}
	return nil
}

func (c *Catalog) normaliseFields(raw []fieldFile, pageKey string) ([]Field, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make([]Field, 0, len(raw))
	for _, entry := range raw {
		kind, err := ParseKind(entry.Type)
		if err != nil {
			return nil, fmt.Errorf("page %s field %q: %w", pageKey, entry.Name, err)
		}
		field := Field{
			Name:        strings.TrimSpace(entry.Name),
			Kind:        kind,
			Label:       entry.Label,
			Required:    entry.Required,
			Validator:   strings.TrimSpace(entry.Validate),
			InputMask:   strings.TrimSpace(entry.InputMask),
			Placeholder: entry.Placeholder,
			ItemLabel:   strings.TrimSpace(entry.ItemLabel),
		}

		options, err := normaliseOptions(entry.Options)
		if err != nil {
			c.Defects = append(c.Defects, Defect{Page: pageKey, Field: field.Name, Message: err.Error()})
		}
		field.Options = options

		cond, err := normaliseCondition(entry.ShowIf)
		if err != nil {
			// Malformed predicates degrade to "always visible".
			c.Defects = append(c.Defects, Defect{Page: pageKey, Field: field.Name, Message: err.Error()})
			cond = nil
		}
		field.ShowIf = cond

		if kind == KindGroup || kind == KindRepeatingGroup {
			children, err := c.normaliseFields(entry.Fields, pageKey)
			if err != nil {
				return nil, err
			}
			field.Fields = children
		}
		if kind == KindRepeatingGroup && field.Name == "" {
			return nil, fmt.Errorf("page %s: repeating_group requires a name", pageKey)
		}
		if kind.IsInput() && field.Name == "" {
			return nil, fmt.Errorf("page %s: %s field %q requires a name", pageKey, kind, field.Label)
		}
		out = append(out, field)
	}
	return out, nil
}

func normaliseOptions(raw any) (Options, error) {
	switch v := raw.(type) {
	case nil:
		return Options{}, nil
	case string:
		return Options{Ref: strings.TrimSpace(v)}, nil
	case []any:
		values := make([]string, 0, len(v))
		for _, item := range v {
			str, ok := item.(string)
			if !ok {
				return Options{}, fmt.Errorf("options must be strings, got %T", item)
			}
			values = append(values, str)
		}
		return Options{Values: values}, nil
	case []string:
		return Options{Values: append([]string(nil), v...)}, nil
	default:
		return Options{}, fmt.Errorf("unsupported options of type %T", raw)
	}
}

func normaliseCondition(raw any) (expr.Condition, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case string:
		return expr.Parse(v)
	case map[string]any:
		return expr.FromMap(v)
	default:
		return nil, fmt.Errorf("show_if must be a mapping or expression, got %T", raw)
	}
}

func isCatalogFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
