package validators

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MaxUSDCents is the upper bound accepted by usd_currency_0_1b ($1,000,000,000).
const MaxUSDCents int64 = 1_000_000_000 * 100

var (
	usdGrouped = regexp.MustCompile(`^\d{1,3}(,\d{3})+(\.\d{1,2})?$`)
	usdPlain   = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)
	twoDec     = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)
	decimal    = regexp.MustCompile(`^\d+(\.\d+)?$`)

	errEmpty = errors.New("empty value")
)

// ParseUSD parses a US-formatted currency string ("$1,234.50", "1234.5",
// "$ 100") into cents. Amounts outside [0, $1B] are rejected.
func ParseUSD(raw string) (int64, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return 0, errEmpty
	}
	text = strings.TrimSpace(strings.TrimPrefix(text, "$"))
	if !usdGrouped.MatchString(text) && !usdPlain.MatchString(text) {
		return 0, fmt.Errorf("%q is not a currency amount", raw)
	}
	whole, frac, _ := strings.Cut(strings.ReplaceAll(text, ",", ""), ".")
	for len(frac) < 2 {
		frac += "0"
	}
	dollars, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || dollars > MaxUSDCents/100 {
		return 0, fmt.Errorf("%q is out of range", raw)
	}
	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a currency amount", raw)
	}
	total := dollars*100 + cents
	if total > MaxUSDCents {
		return 0, fmt.Errorf("%q is out of range", raw)
	}
	return total, nil
}

// FormatUSD renders cents canonically, e.g. 123456 -> "$1,234.56".
func FormatUSD(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	whole := strconv.FormatInt(cents/100, 10)
	var grouped strings.Builder
	for idx, r := range whole {
		if idx > 0 && (len(whole)-idx)%3 == 0 {
			grouped.WriteByte(',')
		}
		grouped.WriteRune(r)
	}
	return fmt.Sprintf("%s$%s.%02d", sign, grouped.String(), cents%100)
}

// NormalizeUSD reformats a currency string canonically; ok is false when the
// input does not parse.
func NormalizeUSD(raw string) (string, bool) {
	cents, err := ParseUSD(raw)
	if err != nil {
		return "", false
	}
	return FormatUSD(cents), true
}

// ParsePercent parses "12.5", "12.5%" or " 40 % " into a value in [0, 100].
// Only plain decimal digits are accepted.
func ParsePercent(raw string) (float64, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return 0, errEmpty
	}
	text = strings.TrimSpace(strings.TrimSuffix(text, "%"))
	if !decimal.MatchString(text) {
		return 0, fmt.Errorf("%q is not a percentage", raw)
	}
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a percentage", raw)
	}
	if value < 0 || value > 100 {
		return 0, fmt.Errorf("%q is outside 0-100", raw)
	}
	return value, nil
}

// ParsePercentTwoDecimals is ParsePercent restricted to at most two decimal
// places.
func ParsePercentTwoDecimals(raw string) (float64, error) {
	value, err := ParsePercent(raw)
	if err != nil {
		return 0, err
	}
	text := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), "%"))
	if !twoDec.MatchString(text) {
		return 0, fmt.Errorf("%q has more than two decimal places", raw)
	}
	return value, nil
}

// FormatPercent renders a percentage with two decimals, e.g. "12.50%".
func FormatPercent(value float64) string {
	return strconv.FormatFloat(value, 'f', 2, 64) + "%"
}

// NormalizePercent reformats a percentage string canonically.
func NormalizePercent(raw string) (string, bool) {
	value, err := ParsePercent(raw)
	if err != nil {
		return "", false
	}
	return FormatPercent(value), true
}
