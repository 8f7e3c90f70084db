package report_test

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-intake/pkg/report"
	"github.com/goliatone/go-intake/pkg/schema"
	"github.com/goliatone/go-intake/pkg/state"
	"github.com/goliatone/go-intake/pkg/testsupport"
)

func TestDisplay(t *testing.T) {
	t.Parallel()

	usd := schema.Field{Kind: schema.KindText, Validator: "usd_currency_0_1b"}
	pct := schema.Field{Kind: schema.KindNumber, Validator: "percent_0_100"}
	date := schema.Field{Kind: schema.KindDate, Validator: "date_optional"}
	box := schema.Field{Kind: schema.KindCheckbox}
	text := schema.Field{Kind: schema.KindText}

	cases := []struct {
		name  string
		field schema.Field
		value state.Value
		want  string
	}{
		{"usd canonical", usd, state.Text("1000"), "$1,000.00"},
		{"usd unparsable", usd, state.Text("lots"), report.NotProvided},
		{"percent", pct, state.Text("40"), "40.00%"},
		{"date", date, state.Text("1980-01-01"), "1980-01-01"},
		{"bad date", date, state.Text("01/01/1980"), report.NotProvided},
		{"checkbox on", box, state.Bool(true), "Yes"},
		{"checkbox off", box, state.Bool(false), "No"},
		{"empty text", text, state.Text("  "), report.NotProvided},
		{"text", text, state.Text("Acme"), "Acme"},
	}
	for _, tc := range cases {
		if got := report.Display(tc.field, tc.value); got != tc.want {
			t.Fatalf("%s: Format = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func findPage(t *testing.T, doc report.Document, title string) report.Page {
	t.Helper()
	for _, page := range doc.Pages {
		if page.Title == title {
			return page
		}
	}
	t.Fatalf("page %q not in report", title)
	return report.Page{}
}

func TestBuildMirrorsAnswers(t *testing.T) {
	t.Parallel()
	doc := report.Build(testsupport.HappyPath(t), report.WithClock(testsupport.Clock))

	if doc.Title != "Client Intake Form" || doc.Generated != "2024-06-15 09:30" {
		t.Fatalf("unexpected header %q / %q", doc.Title, doc.Generated)
	}
	if !strings.HasSuffix(doc.Footer, "Confidential") {
		t.Fatalf("footer = %q", doc.Footer)
	}
	if len(doc.Pages) != 14 {
		t.Fatalf("expected 14 pages, got %d", len(doc.Pages))
	}

	personal := findPage(t, doc, "Personal Information")
	wantRows := []report.Row{
		{Label: "Full Legal Name", Value: "Jane Q. Public"},
		{Label: "Date of Birth", Value: "1980-01-01"},
		{Label: "Social Security Number", Value: "123-45-6789"},
		{Label: "Citizenship Status", Value: "U.S. Citizen"},
		{Label: "Marital Status", Value: "Single"},
	}
	if diff := cmp.Diff(wantRows, personal.Blocks[0].Rows); diff != "" {
		t.Fatalf("personal rows mismatch (-want +got):\n%s", diff)
	}

	beneficiaries := findPage(t, doc, "Beneficiaries Information")
	var headings []string
	for _, block := range beneficiaries.Blocks {
		headings = append(headings, block.Heading)
	}
	if diff := cmp.Diff([]string{"Beneficiary 1", "Beneficiary 2"}, headings); diff != "" {
		t.Fatalf("beneficiary headings mismatch (-want +got):\n%s", diff)
	}
	for _, row := range beneficiaries.Blocks[0].Rows {
		if row.Label == "Allocation Percentage (%)" && row.Value != "60.00%" {
			t.Fatalf("allocation = %q", row.Value)
		}
	}

	dependents := findPage(t, doc, "Dependents Information")
	if len(dependents.Blocks) != 1 || dependents.Blocks[0].Note != "No dependents specified" {
		t.Fatalf("unexpected dependents blocks %+v", dependents.Blocks)
	}

	spouse := findPage(t, doc, "Spouse/Partner Information")
	if rows := spouse.Blocks[0].Rows; len(rows) != 1 || rows[0].Value != "Yes" {
		t.Fatalf("spouse group should be hidden, got %+v", rows)
	}
}

func TestRenderHTMLSanitizesAnswers(t *testing.T) {
	t.Parallel()
	store := testsupport.HappyPath(t)
	if err := store.SetText("employer_name", `<script>alert(1)</script>Acme & Sons`); err != nil {
		t.Fatalf("set: %v", err)
	}
	doc := report.Build(store, report.WithClock(testsupport.Clock))

	out := testsupport.CaptureOutput(t, func(w io.Writer) error {
		return report.Render(w, doc, report.FormatHTML)
	})
	if strings.Contains(out, "<script") {
		t.Fatalf("script survived sanitising")
	}
	for _, want := range []string{"Acme &amp; Sons", "Confidential", report.NotProvided, "<h3>Beneficiary 1</h3>"} {
		if !strings.Contains(out, want) {
			t.Fatalf("html output missing %q", want)
		}
	}
}

func TestRenderText(t *testing.T) {
	t.Parallel()
	doc := report.Build(testsupport.HappyPath(t), report.WithClock(testsupport.Clock))

	out := testsupport.CaptureOutput(t, func(w io.Writer) error {
		return report.Render(w, doc, report.FormatText)
	})
	for _, want := range []string{
		"Client Intake Form",
		"== Personal Information ==",
		"  Full Legal Name: Jane Q. Public",
		"Beneficiary 2",
		"  No dependents specified",
		"Client Intake Form - Confidential",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("text output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteFile(t *testing.T) {
	t.Parallel()
	doc := report.Build(testsupport.HappyPath(t), report.WithClock(testsupport.Clock))
	path := filepath.Join(t.TempDir(), "out", "client"+report.FormatText.Extension())

	if err := report.WriteFile(path, doc, report.FormatText); err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(data), "Jane Q. Public") {
		t.Fatalf("report missing answers")
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()
	for raw, want := range map[string]report.Format{"": report.FormatHTML, "HTML": report.FormatHTML, "txt": report.FormatText, " PDF ": report.FormatPDF} {
		got, err := report.ParseFormat(raw)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %q, %v", raw, got, err)
		}
	}
	if _, err := report.ParseFormat("docx"); err == nil {
		t.Fatalf("expected error for docx")
	}
	if got := report.FormatPDF.Extension(); got != ".pdf" {
		t.Fatalf("Extension = %q", got)
	}
}
