// Package draftschema describes the draft document as an OpenAPI 3 schema.
// The schema is derived from the catalog: one property per input field, an
// array of objects per repeating group. Extra keys are allowed because
// drafts keep keys the catalog does not know.
package draftschema

import (
	"errors"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-intake/pkg/schema"
)

// SchemaName is the component name of the draft schema.
const SchemaName = "Draft"

const datePattern = `^$|^\d{4}-\d{2}-\d{2}$`

// Issue is one shape problem found in a draft document.
type Issue struct {
	Path   string
	Reason string
}

func (i Issue) String() string {
	if i.Path == "" {
		return i.Reason
	}
	return i.Path + ": " + i.Reason
}

// Document wraps the draft schema into a standalone OpenAPI document.
func Document(catalog *schema.Catalog) *openapi3.T {
	title := catalog.Title
	if title == "" {
		title = "Client Intake"
	}
	version := catalog.Version
	if version == "" {
		version = "1"
	}
	return &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       title + " draft",
			Version:     version,
			Description: "Shape of the draft documents written by the intake wizard.",
		},
		Paths: openapi3.NewPaths(),
		Components: &openapi3.Components{
			Schemas: openapi3.Schemas{
				SchemaName: openapi3.NewSchemaRef("", Schema(catalog)),
			},
		},
	}
}

// Schema builds the object schema of a draft document.
func Schema(catalog *schema.Catalog) *openapi3.Schema {
	root := openapi3.NewObjectSchema()
	root.Description = "Intake draft"
	for _, page := range catalog.Pages {
		for _, section := range page.Sections {
			addFields(catalog, root, section.Fields)
		}
	}
	return root
}

func addFields(catalog *schema.Catalog, target *openapi3.Schema, fields []schema.Field) {
	for _, field := range fields {
		switch field.Kind {
		case schema.KindLabel:
		case schema.KindGroup:
			addFields(catalog, target, field.Fields)
		case schema.KindRepeatingGroup:
			item := openapi3.NewObjectSchema()
			addFields(catalog, item, field.Fields)
			array := openapi3.NewArraySchema().WithItems(item)
			array.Description = field.DisplayLabel()
			target.WithProperty(field.Name, array)
		default:
			if field.Name == "" {
				continue
			}
			target.WithProperty(field.Name, fieldSchema(catalog, field))
		}
	}
}

func fieldSchema(catalog *schema.Catalog, field schema.Field) *openapi3.Schema {
	var out *openapi3.Schema
	switch field.Kind {
	case schema.KindCheckbox:
		out = openapi3.NewBoolSchema()
	case schema.KindDate:
		out = openapi3.NewStringSchema().WithPattern(datePattern)
	case schema.KindRadio, schema.KindSelect:
		out = openapi3.NewStringSchema()
		if options := catalog.ResolveOptions(field); len(options) > 0 {
			enum := make([]any, 0, len(options)+1)
			enum = append(enum, "")
			for _, option := range options {
				enum = append(enum, option)
			}
			out = out.WithEnum(enum...)
		}
	default:
		out = openapi3.NewStringSchema()
	}
	out.Description = field.DisplayLabel()
	return out
}

// Check validates a decoded draft document against the catalog schema and
// returns every problem found, sorted by path. An empty result means the
// document already has the current shape.
func Check(catalog *schema.Catalog, doc map[string]any) []Issue {
	err := Schema(catalog).VisitJSON(doc, openapi3.MultiErrors())
	if err == nil {
		return nil
	}

	var issues []Issue
	collect(err, &issues)
	sort.SliceStable(issues, func(i, j int) bool { return issues[i].Path < issues[j].Path })
	return issues
}

func collect(err error, out *[]Issue) {
	var multi openapi3.MultiError
	if errors.As(err, &multi) {
		for _, inner := range multi {
			collect(inner, out)
		}
		return
	}
	var schemaErr *openapi3.SchemaError
	if errors.As(err, &schemaErr) {
		*out = append(*out, Issue{
			Path:   strings.Join(schemaErr.JSONPointer(), "/"),
			Reason: schemaErr.Reason,
		})
		return
	}
	*out = append(*out, Issue{Reason: err.Error()})
}
