// Package testsupport provides fixtures shared by package tests: the embedded
// catalog, a fully answered intake store and a fixed clock.
package testsupport

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/goliatone/go-intake/pkg/schema"
	"github.com/goliatone/go-intake/pkg/state"
)

// Now is the fixed instant used by date-sensitive tests.
var Now = time.Date(2024, time.June, 15, 9, 30, 0, 0, time.UTC)

// Clock returns Now; pass it to validators.WithClock.
func Clock() time.Time { return Now }

// Catalog returns the embedded intake catalog, failing the test on error.
func Catalog(t testing.TB) *schema.Catalog {
	t.Helper()
	catalog, err := schema.Default()
	if err != nil {
		t.Fatalf("load embedded catalog: %v", err)
	}
	return catalog
}

// HappyPathAnswers are valid answers for every required field of the
// embedded catalog, with every conditional section left closed.
var HappyPathAnswers = map[string]state.Value{
	"full_name":            state.Text("Jane Q. Public"),
	"dob":                  state.Text("1980-01-01"),
	"ssn":                  state.Text("123-45-6789"),
	"citizenship_status":   state.Text("U.S. Citizen"),
	"marital_status":       state.Text("Single"),
	"email":                state.Text("jane@example.com"),
	"phone_mobile":         state.Text("(555) 123-4567"),
	"employment_status":    state.Text("Employed"),
	"employer_name":        state.Text("Acme Corp"),
	"annual_income":        state.Text("$120,000.00"),
	"risk_tolerance":       state.Text("Moderate"),
	"est_tax_bracket":      state.Text("24"),
	"inv_purpose_income":   state.Bool(true),
	"rank_income":          state.Text("1"),
	"rank_preservation":    state.Text("2"),
	"est_net_worth":        state.Text("$500,000.00"),
	"est_liquid_net_worth": state.Text("$100,000.00"),
	"no_spouse":            state.Bool(true),
	"ed_consent":           state.Text("Yes"),
}

// HappyPathBeneficiaries are the allocations of the happy-path beneficiaries.
var HappyPathBeneficiaries = []map[string]string{
	{"full_name": "John Public", "relationship": "Son", "allocation": "60"},
	{"full_name": "Ann Public", "relationship": "Daughter", "allocation": "40", "ssn": "987-65-4321"},
}

// HappyPath returns a store where every page of the embedded catalog
// validates.
func HappyPath(t testing.TB) *state.Store {
	t.Helper()
	store := state.BuildDefault(Catalog(t))
	for name, value := range HappyPathAnswers {
		if err := store.Set(name, value); err != nil {
			t.Fatalf("set %s: %v", name, err)
		}
	}
	for _, answers := range HappyPathBeneficiaries {
		handle, err := store.AddItem("beneficiaries")
		if err != nil {
			t.Fatalf("add beneficiary: %v", err)
		}
		for name, text := range answers {
			if err := store.SetItemValue("beneficiaries", handle, name, state.Text(text)); err != nil {
				t.Fatalf("set beneficiary %s: %v", name, err)
			}
		}
	}
	return store
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// CaptureOutput runs a render function that writes to an io.Writer and
// returns what it wrote.
func CaptureOutput(t testing.TB, render func(io.Writer) error) string {
	t.Helper()

	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	return buf.String()
}
