package state

import (
	"sort"
	"strings"
)

// ValueKind discriminates the Value union.
type ValueKind uint8

const (
	KindText ValueKind = iota + 1
	KindBool
	KindItems
)

func (k ValueKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindBool:
		return "bool"
	case KindItems:
		return "items"
	default:
		return "invalid"
	}
}

// Value is the answer held for one field: text for text-like kinds (dates are
// ISO strings), a bool for checkboxes, or the items of a repeating group.
type Value struct {
	kind  ValueKind
	text  string
	flag  bool
	items []Item
}

// Text builds a text value.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Bool builds a checkbox value.
func Bool(b bool) Value { return Value{kind: KindBool, flag: b} }

// Items builds a repeating-group value.
func Items(items ...Item) Value {
	return Value{kind: KindItems, items: cloneItems(items)}
}

// Kind reports which variant the value holds. The zero Value has kind 0.
func (v Value) Kind() ValueKind { return v.kind }

// Text returns the text variant; checkbox values render as "Yes"/"No".
func (v Value) Text() string {
	switch v.kind {
	case KindText:
		return v.text
	case KindBool:
		if v.flag {
			return "Yes"
		}
		return "No"
	default:
		return ""
	}
}

// Bool returns the checkbox variant, false otherwise.
func (v Value) Bool() bool { return v.kind == KindBool && v.flag }

// Items returns a copy of the repeating-group items.
func (v Value) Items() []Item {
	if v.kind != KindItems {
		return nil
	}
	return cloneItems(v.items)
}

// Empty reports whether the value counts as unanswered: blank text, an
// unchecked box or no items.
func (v Value) Empty() bool {
	switch v.kind {
	case KindText:
		return strings.TrimSpace(v.text) == ""
	case KindBool:
		return !v.flag
	case KindItems:
		return len(v.items) == 0
	default:
		return true
	}
}

// Interface converts the value into its draft-document form.
func (v Value) Interface() any {
	switch v.kind {
	case KindText:
		return v.text
	case KindBool:
		return v.flag
	case KindItems:
		out := make([]any, 0, len(v.items))
		for _, item := range v.items {
			out = append(out, item.Document())
		}
		return out
	default:
		return nil
	}
}

// Equal compares values structurally. Item handles are ignored.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindText:
		return v.text == other.text
	case KindBool:
		return v.flag == other.flag
	case KindItems:
		if len(v.items) != len(other.items) {
			return false
		}
		for idx := range v.items {
			if !v.items[idx].equalValues(other.items[idx]) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

// Handle addresses a repeating-group item independently of its position.
// Handles are never reused within a Store.
type Handle uint32

// Item is one element of a repeating group.
type Item struct {
	Handle Handle
	Values map[string]Value
	// Extras keeps keys stored on the item that the template does not know.
	Extras map[string]any
}

// Value returns the named sub-field value.
func (i Item) Value(name string) Value {
	return i.Values[name]
}

// Lookup implements expr.Scope over the item's own values.
func (i Item) Lookup(name string) (any, bool) {
	value, ok := i.Values[name]
	if !ok {
		return nil, false
	}
	return value.Interface(), true
}

// HasData reports whether any sub-field carries an answer.
func (i Item) HasData() bool {
	for _, value := range i.Values {
		if !value.Empty() {
			return true
		}
	}
	return false
}

// Document converts the item into its draft-document form.
func (i Item) Document() map[string]any {
	out := make(map[string]any, len(i.Values)+len(i.Extras))
	for key, value := range i.Extras {
		out[key] = value
	}
	for name, value := range i.Values {
		out[name] = value.Interface()
	}
	return out
}

func (i Item) clone() Item {
	out := Item{Handle: i.Handle}
	if i.Values != nil {
		out.Values = make(map[string]Value, len(i.Values))
		for name, value := range i.Values {
			out.Values[name] = value
		}
	}
	if i.Extras != nil {
		out.Extras = make(map[string]any, len(i.Extras))
		for key, value := range i.Extras {
			out.Extras[key] = value
		}
	}
	return out
}

func (i Item) equalValues(other Item) bool {
	if len(i.Values) != len(other.Values) {
		return false
	}
	for name, value := range i.Values {
		if !value.Equal(other.Values[name]) {
			return false
		}
	}
	return true
}

func cloneItems(items []Item) []Item {
	if items == nil {
		return []Item{}
	}
	out := make([]Item, len(items))
	for idx, item := range items {
		out[idx] = item.clone()
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
