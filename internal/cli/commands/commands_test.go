package commands

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/goliatone/go-intake/pkg/mru"
	"github.com/goliatone/go-intake/pkg/renderers/tui"
	"github.com/goliatone/go-intake/pkg/schema"
	"github.com/goliatone/go-intake/pkg/state"
)

func init() {
	color.NoColor = true
}

type harness struct {
	t       *testing.T
	dir     string
	dataDir string
	config  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	dir := t.TempDir()
	config := filepath.Join(dir, "intake.yaml")
	if err := os.WriteFile(config, []byte("log_level: error\nautosave_interval: 0s\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return &harness{t: t, dir: dir, dataDir: filepath.Join(dir, "data"), config: config}
}

func (h *harness) execute(a *app, args ...string) (string, string, error) {
	h.t.Helper()
	if a == nil {
		a = &app{}
	}
	var stdout, stderr bytes.Buffer
	root := newRootCommand(a)
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append([]string{
		"--config", h.config,
		"--data-dir", h.dataDir,
		"--log-dir", filepath.Join(h.dir, "logs"),
		"--no-color",
	}, args...))
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func (h *harness) draft(name string, edit func(*state.Store)) string {
	h.t.Helper()
	store := state.BuildDefault(schema.MustDefault())
	if edit != nil {
		edit(store)
	}
	path := filepath.Join(h.dir, name)
	if err := state.Save(path, store); err != nil {
		h.t.Fatalf("save draft: %v", err)
	}
	return path
}

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	if cmd.Use != "intake" {
		t.Fatalf("expected Use to be 'intake', got %s", cmd.Use)
	}
	for _, expected := range []string{"version", "run", "home", "validate", "export", "lint", "schema"} {
		found := false
		for _, sub := range cmd.Commands() {
			if sub.Name() == expected {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected command %s to be registered", expected)
		}
	}
}

func TestVersionSkipsSetup(t *testing.T) {
	h := newHarness(t)
	stdout, _, err := h.execute(nil, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(stdout, "intake dev") {
		t.Fatalf("unexpected version output %q", stdout)
	}
}

func TestInvalidModeIsAConfigError(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.execute(nil, "--validation-mode", "lenient", "home")
	if err == nil || !strings.Contains(err.Error(), "validation_mode") {
		t.Fatalf("expected validation_mode error, got %v", err)
	}
}

func TestHomeListsAndPrunes(t *testing.T) {
	h := newHarness(t)
	kept := h.draft("kept.mgd", nil)
	gone := filepath.Join(h.dir, "gone.mgd")

	recent := mru.InDir(h.dataDir)
	if err := recent.Touch(gone); err != nil {
		t.Fatalf("touch: %v", err)
	}
	if err := recent.Touch(kept); err != nil {
		t.Fatalf("touch: %v", err)
	}

	stdout, _, err := h.execute(nil)
	if err != nil {
		t.Fatalf("home: %v", err)
	}
	if !strings.Contains(stdout, "1. kept.mgd") || !strings.Contains(stdout, "gone.mgd (missing)") {
		t.Fatalf("unexpected home view:\n%s", stdout)
	}

	stdout, _, err = h.execute(nil, "home", "--prune")
	if err != nil {
		t.Fatalf("home --prune: %v", err)
	}
	if !strings.Contains(stdout, "Removed 1 missing draft(s)") || strings.Contains(stdout, "gone.mgd") {
		t.Fatalf("expected pruned view:\n%s", stdout)
	}
	if entries := mru.InDir(h.dataDir).Entries(); len(entries) != 1 {
		t.Fatalf("expected one entry after prune, got %v", entries)
	}
}

func TestValidateHardModeFailsOnBlockedPages(t *testing.T) {
	h := newHarness(t)
	path := h.draft("client.mgd", nil)

	_, stderr, err := h.execute(nil, "validate", path)
	if !errors.Is(err, errReported) {
		t.Fatalf("expected reported failure, got %v", err)
	}
	if !strings.Contains(stderr, "Page 1: Personal Information") || !strings.Contains(stderr, "Full Legal Name") {
		t.Fatalf("expected page failures in stderr:\n%s", stderr)
	}
}

func TestValidateSoftModeWarns(t *testing.T) {
	h := newHarness(t)
	path := h.draft("client.mgd", nil)

	stdout, _, err := h.execute(nil, "--validation-mode", "soft", "validate", path)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(stdout, "! Page 1: Personal Information") || !strings.Contains(stdout, "Draft is valid") {
		t.Fatalf("expected warnings and success:\n%s", stdout)
	}
}

func TestValidateReportsShapeIssues(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(h.dir, "legacy.json")
	if err := os.WriteFile(path, []byte(`{"dob": 1990, "full_name": "Jane Doe"}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	stdout, _, _ := h.execute(nil, "--validation-mode", "soft", "validate", path)
	if !strings.Contains(stdout, "Draft shape issues") || !strings.Contains(stdout, "dob") {
		t.Fatalf("expected shape issue for dob:\n%s", stdout)
	}
}

func TestValidateRejectsUnknownExtension(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.execute(nil, "validate", filepath.Join(h.dir, "client.txt"))
	if err == nil || !strings.Contains(err.Error(), ".mgd or .json") {
		t.Fatalf("expected extension error, got %v", err)
	}
}

func TestExportTextToStdout(t *testing.T) {
	h := newHarness(t)
	path := h.draft("client.mgd", func(s *state.Store) {
		if err := s.SetText("full_name", "Jane Q. Public"); err != nil {
			t.Fatalf("set: %v", err)
		}
	})

	stdout, _, err := h.execute(nil, "export", path, "--format", "text")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	for _, want := range []string{"Client Intake Form", "Jane Q. Public", "[Not provided]", "Confidential"} {
		if !strings.Contains(stdout, want) {
			t.Fatalf("expected %q in report:\n%s", want, stdout)
		}
	}
}

func TestExportWritesFileByExtension(t *testing.T) {
	h := newHarness(t)
	path := h.draft("client.mgd", nil)
	out := filepath.Join(h.dir, "report.html")

	stdout, _, err := h.execute(nil, "export", path, "-o", out, "--title", "Acme Intake")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(stdout, "Report written") {
		t.Fatalf("unexpected output %q", stdout)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !strings.Contains(string(data), "<html") || !strings.Contains(string(data), "Acme Intake Form") {
		t.Fatalf("expected html report, got:\n%s", data)
	}
}

func TestExportPDFByExtension(t *testing.T) {
	h := newHarness(t)
	path := h.draft("client.mgd", nil)
	out := filepath.Join(h.dir, "report.pdf")

	if _, _, err := h.execute(nil, "export", path, "-o", out); err != nil {
		t.Fatalf("export: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatalf("expected a pdf document, got %q", data[:min(len(data), 16)])
	}
}

func TestFormatFromPath(t *testing.T) {
	cases := map[string]string{
		"a.html":  "html",
		"a.HTM":   "html",
		"a.txt":   "text",
		"a.PDF":   "pdf",
		"":        "fallback",
		"dir/a.b": "fallback",
	}
	for path, want := range cases {
		if got := formatFromPath(path, "fallback"); got != want {
			t.Errorf("formatFromPath(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestLintDefaultCatalogIsClean(t *testing.T) {
	h := newHarness(t)
	stdout, _, err := h.execute(nil, "lint")
	if err != nil {
		t.Fatalf("lint: %v", err)
	}
	if !strings.Contains(stdout, "Catalog is clean") || !strings.Contains(stdout, "14 pages") {
		t.Fatalf("unexpected lint output:\n%s", stdout)
	}
}

func TestLintExternalCatalogReportsIssues(t *testing.T) {
	h := newHarness(t)
	catalogDir := filepath.Join(h.dir, "catalog")
	if err := os.MkdirAll(catalogDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	page := `
pages:
  - key: one
    title: One
    sections:
      - fields:
          - name: email
            type: text
            validate: email_fancy
`
	if err := os.WriteFile(filepath.Join(catalogDir, "one.yaml"), []byte(page), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	stdout, _, err := h.execute(nil, "--catalog", catalogDir, "lint")
	if !errors.Is(err, errReported) {
		t.Fatalf("expected reported failure, got %v", err)
	}
	if !strings.Contains(stdout, "unknown-validator") || !strings.Contains(stdout, "email_fancy") {
		t.Fatalf("expected unknown validator issue:\n%s", stdout)
	}
}

func TestLintWatchNeedsExternalCatalog(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.execute(nil, "lint", "--watch")
	if err == nil || !strings.Contains(err.Error(), "external catalog") {
		t.Fatalf("expected watch error, got %v", err)
	}
}

func TestSchemaPrintsOpenAPI(t *testing.T) {
	h := newHarness(t)
	stdout, _, err := h.execute(nil, "schema")
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	if !strings.Contains(stdout, `"openapi": "3.0.3"`) || !strings.Contains(stdout, `"Draft"`) {
		t.Fatalf("unexpected schema output:\n%s", stdout)
	}
}

// abortDriver aborts every prompt, as Ctrl+C does in survey.
type abortDriver struct{}

func (abortDriver) Input(context.Context, tui.InputConfig) (string, error) { return "", tui.ErrAborted }
func (abortDriver) Confirm(context.Context, tui.ConfirmConfig) (bool, error) {
	return false, tui.ErrAborted
}
func (abortDriver) Select(context.Context, tui.SelectConfig) (int, error) { return 0, tui.ErrAborted }
func (abortDriver) TextArea(context.Context, tui.TextAreaConfig) (string, error) {
	return "", tui.ErrAborted
}
func (abortDriver) Info(context.Context, string) error { return tui.ErrAborted }

func TestRunInterruptedSavesOpenedDraft(t *testing.T) {
	h := newHarness(t)
	path := h.draft("client.mgd", nil)

	stdout, _, err := h.execute(&app{driver: abortDriver{}}, "run", path)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(stdout, "Interrupted; draft saved to "+path) {
		t.Fatalf("unexpected output:\n%s", stdout)
	}
	entries := mru.InDir(h.dataDir).Entries()
	if len(entries) != 1 || filepath.Base(entries[0].Path) != "client.mgd" {
		t.Fatalf("expected opened draft in recent list, got %v", entries)
	}
}

func TestRunMissingDraftFails(t *testing.T) {
	h := newHarness(t)
	_, stderr, err := h.execute(&app{driver: abortDriver{}}, "run", filepath.Join(h.dir, "nope.mgd"))
	if !errors.Is(err, errReported) {
		t.Fatalf("expected reported failure, got %v", err)
	}
	if !strings.Contains(stderr, "Could not open draft") {
		t.Fatalf("unexpected stderr:\n%s", stderr)
	}
}

func TestRunRejectsCatalogWithoutPages(t *testing.T) {
	h := newHarness(t)
	empty := filepath.Join(h.dir, "empty-catalog")
	if err := os.MkdirAll(empty, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(empty, "README.md"), []byte("notes"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, _, err := h.execute(&app{driver: abortDriver{}}, "--catalog", empty, "run")
	if !errors.Is(err, schema.ErrNoPages) {
		t.Fatalf("expected ErrNoPages, got %v", err)
	}
}
