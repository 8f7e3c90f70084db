package validators

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Built-in validator ids referenced by catalogs.
const (
	PersonName         = "person_name"
	OptionalPersonName = "optional_person_name"
	EmailBasic         = "email_basic"
	PhoneUS            = "phone_us"
	SSNMasked          = "ssn_masked"
	USDCurrency        = "usd_currency_0_1b"
	Percent            = "percent_0_100"
	PercentTwoDecimals = "pct_0_100_two_dec"
	ISODate            = "iso_date"
	DateAdult          = "date_adult"
	DateOptional       = "date_optional"
	Rank               = "rank_1_5"
	YearSince1900      = "year_1900_current"
	CRD                = "crd"
	Ticker             = "ticker"

	// DateOnOrAfterPrefix starts ids such as "iso_date>=pep_start".
	DateOnOrAfterPrefix = "iso_date>="
)

const isoLayout = "2006-01-02"

var (
	personNamePattern = regexp.MustCompile(`^[\p{L}][\p{L} '.\-]*$`)
	emailPattern      = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phonePattern      = regexp.MustCompile(`^(\+?1[\s.-]?)?(\(\d{3}\)|\d{3})[\s.-]?\d{3}[\s.-]?\d{4}$`)
	ssnPattern        = regexp.MustCompile(`^(\d{3}|\*{3}|X{3})-(\d{2}|\*{2}|X{2})-\d{4}$`)
	isoPattern        = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	yearPattern       = regexp.MustCompile(`^\d{4}$`)
	crdPattern        = regexp.MustCompile(`^\d{1,10}$`)
	tickerPattern     = regexp.MustCompile(`^[A-Z]{1,5}(\.[A-Z])?$`)
)

func (r *Registry) registerBuiltins() {
	r.Register(PersonName, Func(func(value string, _ Form) error {
		return matchPattern(personNamePattern, value, "name may contain letters, spaces, hyphens and apostrophes")
	}))
	r.Register(OptionalPersonName, Func(func(value string, _ Form) error {
		if strings.TrimSpace(value) == "" {
			return nil
		}
		return matchPattern(personNamePattern, value, "name may contain letters, spaces, hyphens and apostrophes")
	}))
	r.Register(EmailBasic, Func(func(value string, _ Form) error {
		return matchPattern(emailPattern, value, "expected an email address")
	}))
	r.Register(PhoneUS, Func(func(value string, _ Form) error {
		return matchPattern(phonePattern, value, "expected a US phone number")
	}))
	r.Register(SSNMasked, Func(func(value string, _ Form) error {
		return matchPattern(ssnPattern, value, "expected XXX-XX-XXXX")
	}))
	r.Register(USDCurrency, Func(func(value string, _ Form) error {
		if _, err := ParseUSD(value); err != nil {
			return invalid("%v", err)
		}
		return nil
	}))
	r.Register(Percent, Func(func(value string, _ Form) error {
		if _, err := ParsePercent(value); err != nil {
			return invalid("%v", err)
		}
		return nil
	}))
	r.Register(PercentTwoDecimals, Func(func(value string, _ Form) error {
		if _, err := ParsePercentTwoDecimals(value); err != nil {
			return invalid("%v", err)
		}
		return nil
	}))
	r.Register(ISODate, Func(func(value string, _ Form) error {
		_, err := ParseISODate(value)
		return err
	}))
	r.Register(DateOptional, Func(func(value string, _ Form) error {
		if strings.TrimSpace(value) == "" {
			return nil
		}
		_, err := ParseISODate(value)
		return err
	}))
	r.Register(DateAdult, Func(func(value string, _ Form) error {
		dob, err := ParseISODate(value)
		if err != nil {
			return err
		}
		if Age(dob, r.Now()) < 18 {
			return invalid("must be at least 18 years old")
		}
		return nil
	}))
	r.Register(Rank, Func(func(value string, _ Form) error {
		rank, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || rank < 1 || rank > 5 {
			return invalid("rank must be a whole number from 1 to 5")
		}
		return nil
	}))
	r.Register(YearSince1900, Func(func(value string, _ Form) error {
		text := strings.TrimSpace(value)
		if !yearPattern.MatchString(text) {
			return invalid("expected a four digit year")
		}
		year, _ := strconv.Atoi(text)
		if year < 1900 || year > r.Now().Year() {
			return invalid("year must be between 1900 and %d", r.Now().Year())
		}
		return nil
	}))
	r.Register(CRD, Func(func(value string, _ Form) error {
		return matchPattern(crdPattern, value, "CRD numbers are 1 to 10 digits")
	}))
	r.Register(Ticker, Func(func(value string, _ Form) error {
		return matchPattern(tickerPattern, value, "expected a ticker symbol such as BRK.B")
	}))
	r.RegisterFactory(dateOnOrAfter)
}

// dateOnOrAfter handles "iso_date>=<field>": the value must be an ISO date
// not earlier than the named field, when that field holds a valid date.
func dateOnOrAfter(id string) (Validator, bool) {
	other, ok := strings.CutPrefix(id, DateOnOrAfterPrefix)
	other = strings.TrimSpace(other)
	if !ok || other == "" {
		return nil, false
	}
	return Func(func(value string, form Form) error {
		end, err := ParseISODate(value)
		if err != nil {
			return err
		}
		if form == nil {
			return nil
		}
		ref, ok := form.Get(other)
		if !ok {
			return nil
		}
		start, err := ParseISODate(ref.Text())
		if err != nil {
			return nil
		}
		if end.Before(start) {
			return invalid("must be on or after %s", start.Format(isoLayout))
		}
		return nil
	}), true
}

// ParseISODate parses a strict YYYY-MM-DD date.
func ParseISODate(value string) (time.Time, error) {
	text := strings.TrimSpace(value)
	if !isoPattern.MatchString(text) {
		return time.Time{}, invalid("expected YYYY-MM-DD")
	}
	parsed, err := time.Parse(isoLayout, text)
	if err != nil {
		return time.Time{}, invalid("%q is not a calendar date", text)
	}
	return parsed, nil
}

// Age returns completed years between dob and now. A February 29 birthday
// completes its year on March 1 in common years.
func Age(dob, now time.Time) int {
	years := now.Year() - dob.Year()
	if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
		years--
	}
	return years
}

func matchPattern(pattern *regexp.Regexp, value, hint string) error {
	if !pattern.MatchString(strings.TrimSpace(value)) {
		return invalid("%s", hint)
	}
	return nil
}
