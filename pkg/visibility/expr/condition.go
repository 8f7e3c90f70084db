package expr

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Scope resolves field names to their current answers. Implementations must
// report ok=false for unknown names rather than panicking.
type Scope interface {
	Lookup(name string) (any, bool)
}

// Values adapts a plain map into a Scope.
type Values map[string]any

// Lookup implements Scope.
func (v Values) Lookup(name string) (any, bool) {
	if v == nil {
		return nil, false
	}
	value, ok := v[name]
	return value, ok
}

// Condition is a visibility predicate evaluated against a Scope. Evaluation
// never fails: names missing from the scope compare as the empty string.
type Condition interface {
	Eval(scope Scope) bool
	// Fields lists the names the condition reads, in first-seen order.
	Fields() []string
	String() string
}

// Eq holds when the named field equals Value. Value is a string, bool,
// float64 or nil literal.
type Eq struct {
	Field string
	Value any
}

func (c Eq) Eval(scope Scope) bool {
	return compare(lookup(scope, c.Field), c.Value)
}

func (c Eq) Fields() []string { return []string{c.Field} }

func (c Eq) String() string { return fmt.Sprintf("%s == %s", c.Field, literalString(c.Value)) }

// Ne holds when the named field differs from Value.
type Ne struct {
	Field string
	Value any
}

func (c Ne) Eval(scope Scope) bool {
	return !compare(lookup(scope, c.Field), c.Value)
}

func (c Ne) Fields() []string { return []string{c.Field} }

func (c Ne) String() string { return fmt.Sprintf("%s != %s", c.Field, literalString(c.Value)) }

// Truthy holds when the named field is set to a non-empty, non-false value.
type Truthy struct {
	Field string
}

func (c Truthy) Eval(scope Scope) bool {
	value, ok := lookupRaw(scope, c.Field)
	if !ok {
		return false
	}
	return truthy(value)
}

func (c Truthy) Fields() []string { return []string{c.Field} }

func (c Truthy) String() string { return c.Field }

// Not negates its inner condition.
type Not struct {
	Inner Condition
}

func (c Not) Eval(scope Scope) bool {
	if c.Inner == nil {
		return false
	}
	return !c.Inner.Eval(scope)
}

func (c Not) Fields() []string {
	if c.Inner == nil {
		return nil
	}
	return c.Inner.Fields()
}

func (c Not) String() string {
	if c.Inner == nil {
		return "!()"
	}
	return "!(" + c.Inner.String() + ")"
}

// And holds when every member holds. An empty And holds.
type And []Condition

func (c And) Eval(scope Scope) bool {
	for _, inner := range c {
		if inner != nil && !inner.Eval(scope) {
			return false
		}
	}
	return true
}

func (c And) Fields() []string { return collectFields(c) }

func (c And) String() string { return joinConditions(c, " && ") }

// Or holds when any member holds. An empty Or does not hold.
type Or []Condition

func (c Or) Eval(scope Scope) bool {
	for _, inner := range c {
		if inner != nil && inner.Eval(scope) {
			return true
		}
	}
	return false
}

func (c Or) Fields() []string { return collectFields(c) }

func (c Or) String() string { return joinConditions(c, " || ") }

// FromMap converts the single-key equality form used by catalogs
// (`show_if: {has_ffi: "Yes"}`) into a Condition. Several keys are combined
// with And in key order so the result is deterministic. An empty map yields
// a nil Condition, meaning "always visible".
func FromMap(raw map[string]any) (Condition, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	keys := make([]string, 0, len(raw))
	for key := range raw {
		trimmed := strings.TrimSpace(key)
		if trimmed == "" {
			return nil, fmt.Errorf("visibility/expr: empty field name in condition")
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	conds := make(And, 0, len(keys))
	for _, key := range keys {
		value, err := normalizeLiteral(raw[key])
		if err != nil {
			return nil, fmt.Errorf("visibility/expr: field %q: %w", key, err)
		}
		conds = append(conds, Eq{Field: strings.TrimSpace(key), Value: value})
	}
	if len(conds) == 1 {
		return conds[0], nil
	}
	return conds, nil
}

func normalizeLiteral(value any) (any, error) {
	switch v := value.(type) {
	case nil, string, bool, float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case float32:
		return float64(v), nil
	default:
		return nil, fmt.Errorf("unsupported literal of type %T", value)
	}
}

func lookupRaw(scope Scope, name string) (any, bool) {
	if scope == nil {
		return nil, false
	}
	return scope.Lookup(strings.TrimSpace(name))
}

func lookup(scope Scope, name string) any {
	value, ok := lookupRaw(scope, name)
	if !ok {
		return ""
	}
	return value
}

func compare(got, want any) bool {
	switch w := want.(type) {
	case nil:
		return got == nil || got == ""
	case bool:
		b, _ := coerceBool(got)
		return b == w
	case float64:
		n, ok := coerceNumber(got)
		if !ok {
			return false
		}
		return n == w
	case string:
		return coerceString(got) == w
	default:
		return false
	}
}

func collectFields(conds []Condition) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, cond := range conds {
		if cond == nil {
			continue
		}
		for _, name := range cond.Fields() {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	return out
}

func joinConditions(conds []Condition, sep string) string {
	parts := make([]string, 0, len(conds))
	for _, cond := range conds {
		if cond == nil {
			continue
		}
		parts = append(parts, "("+cond.String()+")")
	}
	return strings.Join(parts, sep)
}

func literalString(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case string:
		return strconv.Quote(v)
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

func truthy(value any) bool {
	if value == nil {
		return false
	}
	switch v := value.(type) {
	case bool:
		return v
	case string:
		return strings.TrimSpace(v) != ""
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	case []any:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		return true
	}
}

func coerceBool(value any) (bool, bool) {
	if value == nil {
		return false, false
	}
	switch v := value.(type) {
	case bool:
		return v, true
	case string:
		trimmed := strings.TrimSpace(v)
		if parsed, err := strconv.ParseBool(trimmed); err == nil {
			return parsed, true
		}
		switch strings.ToLower(trimmed) {
		case "yes":
			return true, true
		case "no", "":
			return false, true
		}
		return true, true
	case int:
		return v != 0, true
	case int64:
		return v != 0, true
	case float64:
		return v != 0, true
	default:
		return truthy(value), true
	}
}

func coerceNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func coerceString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		// checkbox answers compare against catalog literals such as "Yes".
		if v {
			return "Yes"
		}
		return "No"
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(value)
	}
}
