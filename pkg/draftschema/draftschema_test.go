package draftschema_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-intake/pkg/draftschema"
	"github.com/goliatone/go-intake/pkg/state"
	"github.com/goliatone/go-intake/pkg/testsupport"
)

func TestDocumentIsValidOpenAPI(t *testing.T) {
	t.Parallel()
	doc := draftschema.Document(testsupport.Catalog(t))
	if err := doc.Validate(context.Background()); err != nil {
		t.Fatalf("generated document invalid: %v", err)
	}
	ref := doc.Components.Schemas[draftschema.SchemaName]
	if ref == nil || ref.Value == nil {
		t.Fatalf("draft schema missing")
	}
	for _, name := range []string{"full_name", "no_spouse", "beneficiaries", "pep_end"} {
		if _, ok := ref.Value.Properties[name]; !ok {
			t.Fatalf("property %s missing", name)
		}
	}
}

func TestCheckAcceptsStoreDocuments(t *testing.T) {
	t.Parallel()
	catalog := testsupport.Catalog(t)

	for name, store := range map[string]*state.Store{
		"defaults":   state.BuildDefault(catalog),
		"happy path": testsupport.HappyPath(t),
	} {
		raw, err := state.Encode(store)
		if err != nil {
			t.Fatalf("%s: encode: %v", name, err)
		}
		doc, err := state.Decode(raw)
		if err != nil {
			t.Fatalf("%s: decode: %v", name, err)
		}
		if issues := draftschema.Check(catalog, doc); len(issues) != 0 {
			t.Fatalf("%s: unexpected issues %v", name, issues)
		}
	}
}

func TestCheckReportsLegacyShapes(t *testing.T) {
	t.Parallel()
	catalog := testsupport.Catalog(t)

	doc := map[string]any{
		"full_name":      "Jane",
		"no_spouse":      "Yes",
		"dob":            "01/01/1980",
		"marital_status": "Complicated",
		"legacy_key":     42.0,
	}
	issues := draftschema.Check(catalog, doc)

	var paths []string
	for _, issue := range issues {
		paths = append(paths, issue.Path)
	}
	want := []string{"dob", "marital_status", "no_spouse"}
	if diff := cmp.Diff(want, paths); diff != "" {
		t.Fatalf("issue paths mismatch (-want +got):\n%s\nissues: %v", diff, issues)
	}
}
