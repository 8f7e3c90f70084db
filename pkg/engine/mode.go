package engine

import (
	"fmt"
	"strings"
)

// Mode selects how an invalid verdict affects navigation.
type Mode int

const (
	// ModeHard blocks forward navigation while the page is invalid.
	ModeHard Mode = iota
	// ModeSoft always allows navigation and reports a warning instead.
	ModeSoft
)

// ParseMode maps "hard" or "soft" onto Mode. Anything else is an error so a
// deployment never runs with an ambiguous policy.
func ParseMode(raw string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "hard":
		return ModeHard, nil
	case "soft":
		return ModeSoft, nil
	default:
		return ModeHard, fmt.Errorf("engine: unknown validation mode %q (want hard or soft)", raw)
	}
}

func (m Mode) String() string {
	switch m {
	case ModeHard:
		return "hard"
	case ModeSoft:
		return "soft"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Allows reports whether forward navigation may proceed under the verdict.
func (m Mode) Allows(v Verdict) bool {
	if m == ModeSoft {
		return true
	}
	return v.Valid
}

// Warning returns the non-blocking message soft mode shows for an invalid
// verdict. It is empty for valid verdicts and in hard mode.
func (m Mode) Warning(v Verdict) string {
	if m != ModeSoft || v.Valid {
		return ""
	}
	return "Some fields need attention: " + strings.Join(v.FailingLabels(), ", ")
}
