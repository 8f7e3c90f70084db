// Package visibility decides which catalog fields are active for the current
// answers. Active fields are the ones rendered and validated; groups and
// repeating groups whose show_if fails hide every descendant, and repeating
// groups expand into one entry per stored item.
package visibility

import (
	"fmt"

	"github.com/goliatone/go-intake/pkg/schema"
	"github.com/goliatone/go-intake/pkg/state"
	"github.com/goliatone/go-intake/pkg/visibility/expr"
)

// Source is the read-only view of the answers the resolver needs.
// *state.Store satisfies it.
type Source interface {
	expr.Scope
	Get(name string) (state.Value, bool)
	Items(group string) []state.Item
}

// Active is one leaf field that is currently shown. Fields belonging to a
// repeating-group item carry the group name, the item handle and the item
// position. A synthetic item (Handle 0) stands in for an empty list.
type Active struct {
	Field     schema.Field
	Value     state.Value
	Group     string
	Item      state.Handle
	Index     int
	Synthetic bool
}

// InItem reports whether the field belongs to a repeating-group item.
func (a Active) InItem() bool { return a.Group != "" }

// Label is the user-facing identifier: the field label, suffixed with the
// one-based item number for repeating items.
func (a Active) Label() string {
	label := a.Field.DisplayLabel()
	if !a.InItem() {
		return label
	}
	return fmt.Sprintf("%s %d", label, a.Index+1)
}

// Key addresses the answer, e.g. "email" or "beneficiaries[1].allocation".
func (a Active) Key() string {
	if !a.InItem() {
		return a.Field.Name
	}
	return fmt.Sprintf("%s[%d].%s", a.Group, a.Index, a.Field.Name)
}

// Resolve returns the active leaf fields in depth-first order: section order,
// field order, repeating items in item order. Labels are never returned.
func Resolve(fields []schema.Field, src Source) []Active {
	var out []Active
	resolveInto(&out, fields, src, src, itemContext{Index: -1})
	return out
}

// Visible reports whether a single field's own predicate holds in scope. A nil
// predicate always holds; unknown names compare as the empty string.
func Visible(field schema.Field, scope expr.Scope) bool {
	if field.ShowIf == nil {
		return true
	}
	return field.ShowIf.Eval(scope)
}

type itemContext struct {
	Group     string
	Item      state.Item
	Index     int
	Synthetic bool
}

func resolveInto(out *[]Active, fields []schema.Field, src Source, scope expr.Scope, ctx itemContext) {
	for _, field := range fields {
		if !Visible(field, scope) {
			continue
		}
		switch field.Kind {
		case schema.KindLabel:
			continue
		case schema.KindGroup:
			resolveInto(out, field.Fields, src, scope, ctx)
		case schema.KindRepeatingGroup:
			if ctx.Group != "" {
				// Nested repeating groups are not addressable.
				continue
			}
			items := src.Items(field.Name)
			if len(items) == 0 {
				items = []state.Item{{}}
				resolveInto(out, field.Fields, src, items[0], itemContext{
					Group:     field.Name,
					Item:      items[0],
					Index:     0,
					Synthetic: true,
				})
				continue
			}
			for idx, item := range items {
				resolveInto(out, field.Fields, src, item, itemContext{
					Group: field.Name,
					Item:  item,
					Index: idx,
				})
			}
		case schema.KindText, schema.KindNumber, schema.KindDate, schema.KindTextArea,
			schema.KindCheckbox, schema.KindRadio, schema.KindSelect:
			*out = append(*out, activeFor(field, src, ctx))
		}
	}
}

func activeFor(field schema.Field, src Source, ctx itemContext) Active {
	if ctx.Group == "" {
		value, _ := src.Get(field.Name)
		return Active{Field: field, Value: value, Index: -1}
	}
	return Active{
		Field:     field,
		Value:     ctx.Item.Value(field.Name),
		Group:     ctx.Group,
		Item:      ctx.Item.Handle,
		Index:     ctx.Index,
		Synthetic: ctx.Synthetic,
	}
}
