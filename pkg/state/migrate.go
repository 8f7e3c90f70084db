package state

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-intake/pkg/schema"
)

// Option customises Migrate and Load.
type Option func(*options)

type options struct {
	aliases    AliasTable
	aliasesSet bool
}

// WithAliases overrides the embedded alias table.
func WithAliases(table AliasTable) Option {
	return func(o *options) {
		o.aliases = table
		o.aliasesSet = true
	}
}

func resolveOptions(opts []Option) options {
	var cfg options
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if !cfg.aliasesSet {
		// The embedded table is covered by tests; a parse failure leaves
		// the table empty rather than blocking draft loading.
		cfg.aliases, _ = DefaultAliases()
	}
	return cfg
}

// Migrate builds a store from a stored draft document of any historical
// shape. Aliased legacy keys are renamed first (only when the new key is
// absent); keys known to the catalog are copied with booleans coerced from
// legacy "yes"/"no" strings; missing keys are backfilled with defaults; every
// other key is preserved as an extra. The input document is not modified.
// Migrate is idempotent over its own Document output.
func Migrate(doc map[string]any, catalog *schema.Catalog, opts ...Option) *Store {
	cfg := resolveOptions(opts)

	working := make(map[string]any, len(doc))
	for key, value := range doc {
		working[key] = value
	}
	cfg.aliases.apply(working)

	store := BuildDefault(catalog)
	for key, raw := range working {
		field, ok := store.fields[key]
		if !ok {
			store.extras[key] = raw
			continue
		}
		if field.Kind == schema.KindRepeatingGroup {
			store.values[key] = Value{kind: KindItems, items: store.coerceItems(field, raw)}
			continue
		}
		store.values[key] = coerce(field, raw)
	}
	return store
}

func (s *Store) coerceItems(group schema.Field, raw any) []Item {
	list, ok := raw.([]any)
	if !ok {
		return []Item{}
	}
	template := templateFields(group)
	items := make([]Item, 0, len(list))
	for _, element := range list {
		entry, ok := element.(map[string]any)
		if !ok {
			continue
		}
		item := newItem(group)
		item.Handle = s.allocate()
		for key, value := range entry {
			sub, known := template[key]
			if !known {
				if item.Extras == nil {
					item.Extras = make(map[string]any)
				}
				item.Extras[key] = value
				continue
			}
			item.Values[key] = coerce(sub, value)
		}
		items = append(items, item)
	}
	return items
}

// coerce converts a raw document value into the variant the field expects.
func coerce(field schema.Field, raw any) Value {
	if raw == nil {
		return defaultValue(field)
	}
	switch kindFor(field) {
	case KindBool:
		return Bool(coerceBool(raw))
	case KindItems:
		return Items()
	default:
		return Text(coerceText(raw))
	}
}

func coerceBool(raw any) bool {
	switch v := raw.(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "yes", "true", "y", "1", "on":
			return true
		default:
			return false
		}
	case float64:
		return v != 0
	case int:
		return v != 0
	default:
		return false
	}
}

func coerceText(raw any) string {
	switch v := raw.(type) {
	case string:
		return v
	case bool:
		if v {
			return "Yes"
		}
		return "No"
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	default:
		return fmt.Sprint(v)
	}
}
