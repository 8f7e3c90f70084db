package validators_test

import (
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/goliatone/go-intake/pkg/schema"
	"github.com/goliatone/go-intake/pkg/state"
	"github.com/goliatone/go-intake/pkg/validators"
)

var fixedNow = time.Date(2024, time.June, 15, 9, 30, 0, 0, time.UTC)

func newRegistry(opts ...validators.Option) *validators.Registry {
	opts = append([]validators.Option{validators.WithClock(func() time.Time { return fixedNow })}, opts...)
	return validators.Default(opts...)
}

func TestBuiltinValidators(t *testing.T) {
	t.Parallel()
	reg := newRegistry()

	cases := []struct {
		id    string
		value string
		ok    bool
	}{
		{validators.PersonName, "Jane Q. Public", true},
		{validators.PersonName, "Mary-Kate O'Neil", true},
		{validators.PersonName, "R2-D2", false},
		{validators.OptionalPersonName, "", true},
		{validators.EmailBasic, "jane@example.com", true},
		{validators.EmailBasic, "jane@", false},
		{validators.PhoneUS, "(555) 123-4567", true},
		{validators.PhoneUS, "555.123.4567", true},
		{validators.PhoneUS, "+1 555 123 4567", true},
		{validators.PhoneUS, "123-4567", false},
		{validators.SSNMasked, "123-45-6789", true},
		{validators.SSNMasked, "***-**-6789", true},
		{validators.SSNMasked, "123456789", false},
		{validators.USDCurrency, "$250,000.00", true},
		{validators.USDCurrency, "lots", false},
		{validators.Percent, "35", true},
		{validators.Percent, "135", false},
		{validators.PercentTwoDecimals, "5.125", false},
		{validators.ISODate, "2024-02-29", true},
		{validators.ISODate, "2023-02-29", false},
		{validators.ISODate, "02/01/2024", false},
		{validators.DateOptional, "", true},
		{validators.DateOptional, "2020-13-01", false},
		{validators.Rank, "5", true},
		{validators.Rank, "0", false},
		{validators.Rank, "2.5", false},
		{validators.YearSince1900, "1999", true},
		{validators.YearSince1900, "1899", false},
		{validators.YearSince1900, "2025", false},
		{validators.CRD, "1234567", true},
		{validators.CRD, "12345678901", false},
		{validators.Ticker, "BRK.B", true},
		{validators.Ticker, "aapl", false},
	}

	for _, tc := range cases {
		err := reg.Check(tc.id, tc.value, nil)
		if tc.ok && err != nil {
			t.Fatalf("%s(%q) unexpected error: %v", tc.id, tc.value, err)
		}
		if !tc.ok {
			if err == nil {
				t.Fatalf("%s(%q) expected failure", tc.id, tc.value)
			}
			if !errors.Is(err, validators.ErrInvalid) {
				t.Fatalf("%s(%q) expected ErrInvalid, got %v", tc.id, tc.value, err)
			}
		}
	}
}

func TestDateAdultBoundary(t *testing.T) {
	t.Parallel()
	reg := newRegistry()

	exactly18 := fixedNow.AddDate(-18, 0, 0).Format("2006-01-02")
	if err := reg.Check(validators.DateAdult, exactly18, nil); err != nil {
		t.Fatalf("dob %s should be adult: %v", exactly18, err)
	}

	almost := fixedNow.AddDate(-18, 0, 1).Format("2006-01-02")
	if err := reg.Check(validators.DateAdult, almost, nil); err == nil {
		t.Fatalf("dob %s (17 years 364 days) should fail", almost)
	}
}

func TestAgeLeapDay(t *testing.T) {
	t.Parallel()

	dob := time.Date(2006, time.February, 28, 0, 0, 0, 0, time.UTC)
	leapToday := time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC)
	if got := validators.Age(dob, leapToday); got != 18 {
		t.Fatalf("Age = %d, want 18", got)
	}

	leapBorn := time.Date(2000, time.February, 29, 0, 0, 0, 0, time.UTC)
	if got := validators.Age(leapBorn, time.Date(2018, time.February, 28, 0, 0, 0, 0, time.UTC)); got != 17 {
		t.Fatalf("Age on Feb 28 = %d, want 17", got)
	}
	if got := validators.Age(leapBorn, time.Date(2018, time.March, 1, 0, 0, 0, 0, time.UTC)); got != 18 {
		t.Fatalf("Age on Mar 1 = %d, want 18", got)
	}
}

func TestDateOnOrAfterFactory(t *testing.T) {
	t.Parallel()
	reg := newRegistry()
	store := state.BuildDefault(schema.MustDefault())
	if err := store.SetText("pep_start", "2020-05-01"); err != nil {
		t.Fatalf("SetText: %v", err)
	}

	id := "iso_date>=pep_start"
	if !reg.Known(id) {
		t.Fatalf("expected %s to resolve through the factory", id)
	}
	if err := reg.Check(id, "2020-05-01", store); err != nil {
		t.Fatalf("same day should pass: %v", err)
	}
	if err := reg.Check(id, "2020-04-30", store); err == nil {
		t.Fatalf("earlier end should fail")
	}
	if reg.Known("iso_date>=") {
		t.Fatalf("empty reference must not resolve")
	}
}

func TestUnknownValidatorIsNoConstraint(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.WarnLevel)
	reg := newRegistry(validators.WithLogger(zap.New(core)))

	for i := 0; i < 3; i++ {
		if err := reg.Check("email_fancy", "anything", nil); err != nil {
			t.Fatalf("unknown id must pass, got %v", err)
		}
	}
	if got := logs.FilterMessage("unknown validator id treated as no constraint").Len(); got != 1 {
		t.Fatalf("expected one warning, got %d", got)
	}
}

func TestPanickingValidatorFailsClosed(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.ErrorLevel)
	reg := validators.NewRegistry(validators.WithLogger(zap.New(core)))
	reg.Register("explodes", validators.Func(func(string, validators.Form) error {
		panic("boom")
	}))

	err := reg.Check("explodes", "x", nil)
	if !errors.Is(err, validators.ErrPanicked) {
		t.Fatalf("expected ErrPanicked, got %v", err)
	}
	if logs.Len() != 1 {
		t.Fatalf("expected panic to be logged")
	}
}

func TestRegistryNamesAndRules(t *testing.T) {
	t.Parallel()
	reg := newRegistry()

	rules := reg.Rules()
	if len(rules) != 7 {
		t.Fatalf("expected 7 rules, got %d", len(rules))
	}
	for _, rule := range rules {
		if !reg.Known(rule.ID) {
			t.Fatalf("rule %s is not invocable as a validator", rule.ID)
		}
	}

	catalog := schema.MustDefault()
	result := schema.Lint(catalog, reg.Known)
	if !result.Clean {
		t.Fatalf("embedded catalog references unknown validators: %v", result.Issues)
	}
}
