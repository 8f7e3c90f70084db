package schema_test

import (
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-intake/pkg/schema"
	"github.com/goliatone/go-intake/pkg/visibility/expr"
)

func TestLoadFS_YAMLAndJSON(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"00_meta.yaml": {Data: []byte(`
title: Demo
version: "3"
option_lists:
  COLORS: [Red, Green]
`)},
		"01_first.yaml": {Data: []byte(`
pages:
  - key: first
    title: First
    sections:
      - title: Basics
        fields:
          - name: full_name
            type: text
            label: Full Name
            required: true
            validate: person_name
          - name: has_pet
            type: radio
            label: Pet?
            options: ["Yes", "No"]
          - type: group
            show_if: {has_pet: "Yes"}
            fields:
              - name: pet_color
                type: select
                label: Color
                options: COLORS
`)},
		"02_second.json": {Data: []byte(`{
  "pages": [{
    "key": "second",
    "title": "Second",
    "sections": [{"title": "Items", "fields": [
      {"name": "kids", "type": "repeating_group", "item_label": "Kid", "fields": [
        {"name": "name", "type": "text", "label": "Name"}
      ]}
    ]}]
  }]
}`)},
	}

	catalog, err := schema.LoadFS(fsys)
	if err != nil {
		t.Fatalf("LoadFS: %v", err)
	}

	if catalog.Title != "Demo" || catalog.Version != "3" {
		t.Fatalf("metadata mismatch: %q %q", catalog.Title, catalog.Version)
	}
	if got := catalog.PageCount(); got != 2 {
		t.Fatalf("expected 2 pages, got %d", got)
	}
	if idx, ok := catalog.PageIndex("second"); !ok || idx != 1 {
		t.Fatalf("PageIndex(second) = %d, %v", idx, ok)
	}

	first := catalog.Pages[0]
	fields := first.Fields()
	if fields[0].Kind != schema.KindText || !fields[0].Required || fields[0].Validator != "person_name" {
		t.Fatalf("unexpected first field: %#v", fields[0])
	}
	if !fields[1].YesNo() {
		t.Fatalf("expected has_pet to be a yes/no radio")
	}
	group := fields[2]
	if group.Kind != schema.KindGroup {
		t.Fatalf("expected group, got %s", group.Kind)
	}
	if diff := cmp.Diff(expr.Eq{Field: "has_pet", Value: "Yes"}, group.ShowIf); diff != "" {
		t.Fatalf("show_if mismatch (-want +got):\n%s", diff)
	}
	if got := catalog.ResolveOptions(group.Fields[0]); !cmp.Equal(got, []string{"Red", "Green"}) {
		t.Fatalf("ResolveOptions = %v", got)
	}

	kids := catalog.Pages[1].Fields()[0]
	if kids.Kind != schema.KindRepeatingGroup || kids.ItemLabel != "Kid" || len(kids.Fields) != 1 {
		t.Fatalf("unexpected repeating group: %#v", kids)
	}

	wantNames := map[string]struct{}{"full_name": {}, "has_pet": {}, "pet_color": {}}
	if diff := cmp.Diff(wantNames, first.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFS_MalformedShowIfDegrades(t *testing.T) {
	t.Parallel()

	fsys := fstest.MapFS{
		"page.yaml": {Data: []byte(`
pages:
  - key: p
    sections:
      - fields:
          - type: group
            show_if: "has_ffi == "
            fields:
              - name: bank
                type: text
`)},
	}

	catalog, err := schema.LoadFS(fsys)
	if err != nil {
		t.Fatalf("LoadFS: %v", err)
	}
	group := catalog.Pages[0].Fields()[0]
	if group.ShowIf != nil {
		t.Fatalf("expected malformed show_if to be dropped, got %v", group.ShowIf)
	}
	if len(catalog.Defects) != 1 {
		t.Fatalf("expected one defect, got %v", catalog.Defects)
	}
}

func TestLoadFS_Errors(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"unknown type": `
pages:
  - key: p
    sections:
      - fields:
          - name: x
            type: slider
`,
		"missing key": `
pages:
  - title: No key
`,
		"unnamed input": `
pages:
  - key: p
    sections:
      - fields:
          - type: text
            label: Nameless
`,
		"not yaml": "pages: [unterminated",
	}

	for name, body := range cases {
		body := body
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := schema.LoadFS(fstest.MapFS{"page.yaml": {Data: []byte(body)}})
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.HasPrefix(err.Error(), "schema:") {
				t.Fatalf("expected schema prefix, got %v", err)
			}
		})
	}
}

func TestLoadFS_DuplicatePageKey(t *testing.T) {
	t.Parallel()

	page := []byte("pages:\n  - key: same\n")
	_, err := schema.LoadFS(fstest.MapFS{
		"a.yaml": {Data: page},
		"b.yaml": {Data: page},
	})
	if err == nil || !strings.Contains(err.Error(), "duplicate page key") {
		t.Fatalf("expected duplicate page key error, got %v", err)
	}
}

func TestLoadFS_RejectsCatalogWithoutPages(t *testing.T) {
	t.Parallel()

	cases := map[string]fstest.MapFS{
		"no catalog files": {"README.md": {Data: []byte("# notes")}},
		"options only":     {"00_meta.yaml": {Data: []byte("title: Demo\noption_lists:\n  COLORS: [Red]\n")}},
	}
	for name, fsys := range cases {
		fsys := fsys
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			catalog, err := schema.LoadFS(fsys)
			if !errors.Is(err, schema.ErrNoPages) {
				t.Fatalf("expected ErrNoPages, got %v", err)
			}
			if catalog != nil {
				t.Fatalf("expected no catalog, got %d pages", catalog.PageCount())
			}
		})
	}
	if _, err := schema.LoadFS(nil); !errors.Is(err, schema.ErrNoPages) {
		t.Fatalf("nil fs: expected ErrNoPages, got %v", err)
	}
}

func TestKindText(t *testing.T) {
	t.Parallel()

	var kind schema.Kind
	if err := kind.UnmarshalText([]byte("Repeating_Group")); err != nil {
		t.Fatalf("UnmarshalText: %v", err)
	}
	if kind != schema.KindRepeatingGroup || kind.IsInput() {
		t.Fatalf("unexpected kind %v", kind)
	}
	if _, err := schema.Kind(99).MarshalText(); err == nil {
		t.Fatalf("expected error for invalid kind")
	}
}
