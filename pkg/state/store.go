package state

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/goliatone/go-intake/pkg/schema"
)

var (
	// ErrUnknownField is returned when a name is not declared by the catalog.
	ErrUnknownField = errors.New("state: unknown field")
	// ErrKindMismatch is returned when a value variant does not fit the field.
	ErrKindMismatch = errors.New("state: value kind does not match field")
	// ErrUnknownItem is returned when a handle does not address a live item.
	ErrUnknownItem = errors.New("state: unknown item")
)

// Store is the live answer document. It is total over the catalog: every
// non-repeating input has a value and every repeating group has a (possibly
// empty) item list. Keys read from older drafts that the catalog does not
// declare are kept as extras and written back on save.
type Store struct {
	catalog *schema.Catalog
	fields  map[string]schema.Field
	values  map[string]Value
	extras  map[string]any
	next    Handle
}

// BuildDefault returns a store with every catalog field at its default.
func BuildDefault(catalog *schema.Catalog) *Store {
	store := &Store{
		catalog: catalog,
		fields:  collectFields(catalog),
		extras:  make(map[string]any),
	}
	store.values = make(map[string]Value, len(store.fields))
	for name, field := range store.fields {
		store.values[name] = defaultValue(field)
	}
	return store
}

// Catalog returns the catalog the store is keyed by.
func (s *Store) Catalog() *schema.Catalog { return s.catalog }

// Names lists the catalog-declared keys in lexical order.
func (s *Store) Names() []string { return sortedKeys(s.fields) }

// Field returns the catalog field behind a key.
func (s *Store) Field(name string) (schema.Field, bool) {
	field, ok := s.fields[name]
	return field, ok
}

// Get returns the value for a catalog field.
func (s *Store) Get(name string) (Value, bool) {
	value, ok := s.values[name]
	if !ok {
		return Value{}, false
	}
	if value.kind == KindItems {
		return Items(value.items...), true
	}
	return value, true
}

// Text is shorthand for Get(name).Text().
func (s *Store) Text(name string) string {
	value, _ := s.Get(name)
	return value.Text()
}

// Bool is shorthand for Get(name).Bool().
func (s *Store) Bool(name string) bool {
	value, _ := s.Get(name)
	return value.Bool()
}

// Set replaces the value of a catalog field. Items without a handle receive
// a fresh one.
func (s *Store) Set(name string, value Value) error {
	field, ok := s.fields[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	if want := kindFor(field); value.kind != want {
		return fmt.Errorf("%w: %s wants %s, got %s", ErrKindMismatch, name, want, value.kind)
	}
	if value.kind == KindItems {
		items := cloneItems(value.items)
		for idx := range items {
			if items[idx].Handle == 0 {
				items[idx].Handle = s.allocate()
			} else if items[idx].Handle > s.next {
				s.next = items[idx].Handle
			}
		}
		value = Value{kind: KindItems, items: items}
	}
	s.values[name] = value
	return nil
}

// SetText sets a text-like field.
func (s *Store) SetText(name, text string) error { return s.Set(name, Text(text)) }

// SetBool sets a checkbox field.
func (s *Store) SetBool(name string, flag bool) error { return s.Set(name, Bool(flag)) }

// Items returns the items stored under a repeating group, in order.
func (s *Store) Items(group string) []Item {
	value, ok := s.values[group]
	if !ok || value.kind != KindItems {
		return nil
	}
	return cloneItems(value.items)
}

// Item returns one repeating-group item by handle.
func (s *Store) Item(group string, handle Handle) (Item, bool) {
	value, ok := s.values[group]
	if !ok || value.kind != KindItems {
		return Item{}, false
	}
	for _, item := range value.items {
		if item.Handle == handle {
			return item.clone(), true
		}
	}
	return Item{}, false
}

// AddItem appends an item with template defaults and returns its handle.
func (s *Store) AddItem(group string) (Handle, error) {
	field, err := s.repeating(group)
	if err != nil {
		return 0, err
	}
	item := newItem(field)
	item.Handle = s.allocate()
	value := s.values[group]
	value.items = append(value.items, item)
	s.values[group] = value
	return item.Handle, nil
}

// RemoveItem deletes the item with the given handle. Remaining items keep
// their order and handles.
func (s *Store) RemoveItem(group string, handle Handle) error {
	if _, err := s.repeating(group); err != nil {
		return err
	}
	value := s.values[group]
	for idx, item := range value.items {
		if item.Handle != handle {
			continue
		}
		items := make([]Item, 0, len(value.items)-1)
		items = append(items, value.items[:idx]...)
		items = append(items, value.items[idx+1:]...)
		s.values[group] = Value{kind: KindItems, items: items}
		return nil
	}
	return fmt.Errorf("%w: %s#%d", ErrUnknownItem, group, handle)
}

// SetItemValue updates one sub-field of a repeating-group item.
func (s *Store) SetItemValue(group string, handle Handle, name string, value Value) error {
	field, err := s.repeating(group)
	if err != nil {
		return err
	}
	template := templateFields(field)
	sub, ok := template[name]
	if !ok {
		return fmt.Errorf("%w: %s.%s", ErrUnknownField, group, name)
	}
	if want := kindFor(sub); value.kind != want {
		return fmt.Errorf("%w: %s.%s wants %s, got %s", ErrKindMismatch, group, name, want, value.kind)
	}
	current := s.values[group]
	for idx := range current.items {
		if current.items[idx].Handle != handle {
			continue
		}
		if current.items[idx].Values == nil {
			current.items[idx].Values = make(map[string]Value)
		}
		current.items[idx].Values[name] = value
		return nil
	}
	return fmt.Errorf("%w: %s#%d", ErrUnknownItem, group, handle)
}

// Lookup implements expr.Scope. Unknown names report ok=false.
func (s *Store) Lookup(name string) (any, bool) {
	value, ok := s.values[name]
	if !ok {
		return nil, false
	}
	return value.Interface(), true
}

// Extras returns a copy of the keys preserved from the loaded draft that the
// catalog does not declare.
func (s *Store) Extras() map[string]any {
	out := make(map[string]any, len(s.extras))
	for key, value := range s.extras {
		out[key] = value
	}
	return out
}

// Clone returns an independent copy sharing only the immutable catalog.
func (s *Store) Clone() *Store {
	out := &Store{
		catalog: s.catalog,
		fields:  s.fields,
		values:  make(map[string]Value, len(s.values)),
		extras:  s.Extras(),
		next:    s.next,
	}
	for name, value := range s.values {
		if value.kind == KindItems {
			value = Value{kind: KindItems, items: cloneItems(value.items)}
		}
		out.values[name] = value
	}
	return out
}

// Document converts the store into the draft document: catalog keys plus
// preserved extras.
func (s *Store) Document() map[string]any {
	doc := make(map[string]any, len(s.values)+len(s.extras))
	for key, value := range s.extras {
		doc[key] = value
	}
	for name, value := range s.values {
		doc[name] = value.Interface()
	}
	return doc
}

// Equal compares two stores by their documents.
func (s *Store) Equal(other *Store) bool {
	if s == nil || other == nil {
		return s == other
	}
	if len(s.values) != len(other.values) {
		return false
	}
	for name, value := range s.values {
		if !value.Equal(other.values[name]) {
			return false
		}
	}
	left, err := json.Marshal(s.extras)
	if err != nil {
		return false
	}
	right, err := json.Marshal(other.extras)
	if err != nil {
		return false
	}
	return string(left) == string(right)
}

// MarshalJSON encodes the draft document.
func (s *Store) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Document())
}

func (s *Store) allocate() Handle {
	s.next++
	return s.next
}

func (s *Store) repeating(group string) (schema.Field, error) {
	field, ok := s.fields[group]
	if !ok || field.Kind != schema.KindRepeatingGroup {
		return schema.Field{}, fmt.Errorf("%w: repeating group %q", ErrUnknownField, group)
	}
	return field, nil
}

// collectFields indexes the storage keys of a catalog: inputs outside
// repeating groups (including those nested in plain groups) and the repeating
// groups themselves.
func collectFields(catalog *schema.Catalog) map[string]schema.Field {
	out := make(map[string]schema.Field)
	catalog.Walk(func(_ schema.Page, field schema.Field, parent string) {
		if parent != "" || field.Name == "" {
			return
		}
		if field.Kind.IsInput() || field.Kind == schema.KindRepeatingGroup {
			out[field.Name] = field
		}
	})
	return out
}

// templateFields indexes the input fields of a repeating-group item template.
func templateFields(group schema.Field) map[string]schema.Field {
	out := make(map[string]schema.Field)
	var walk func(fields []schema.Field)
	walk = func(fields []schema.Field) {
		for _, field := range fields {
			switch field.Kind {
			case schema.KindGroup:
				walk(field.Fields)
			case schema.KindText, schema.KindNumber, schema.KindDate, schema.KindTextArea,
				schema.KindCheckbox, schema.KindRadio, schema.KindSelect:
				if field.Name != "" {
					out[field.Name] = field
				}
			case schema.KindLabel, schema.KindRepeatingGroup:
			}
		}
	}
	walk(group.Fields)
	return out
}

func newItem(group schema.Field) Item {
	template := templateFields(group)
	item := Item{Values: make(map[string]Value, len(template))}
	for name, field := range template {
		item.Values[name] = defaultValue(field)
	}
	return item
}

func kindFor(field schema.Field) ValueKind {
	switch field.Kind {
	case schema.KindCheckbox:
		return KindBool
	case schema.KindRepeatingGroup:
		return KindItems
	case schema.KindText, schema.KindNumber, schema.KindDate, schema.KindTextArea,
		schema.KindRadio, schema.KindSelect, schema.KindLabel, schema.KindGroup:
		return KindText
	default:
		return KindText
	}
}

// defaultValue is "" for text-likes, false for checkboxes, "No" for yes/no
// radios and no items for repeating groups.
func defaultValue(field schema.Field) Value {
	switch kindFor(field) {
	case KindBool:
		return Bool(false)
	case KindItems:
		return Items()
	default:
		if field.YesNo() {
			return Text("No")
		}
		return Text("")
	}
}
