package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/goliatone/go-intake/internal/atomicfile"
	"github.com/goliatone/go-intake/pkg/schema"
)

// ErrMalformed reports a draft file whose content is not a JSON object.
var ErrMalformed = errors.New("state: malformed draft")

// Load reads a draft document. It always returns a usable store: a missing
// file yields the catalog defaults and malformed content is migrated as an
// empty document. The error describes the fallback taken, if any, so callers
// can decide whether to tell the user.
func Load(path string, catalog *schema.Catalog, opts ...Option) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return BuildDefault(catalog), fmt.Errorf("state: load %s: %w", path, err)
	}

	doc, err := Decode(data)
	if err != nil {
		return Migrate(nil, catalog, opts...), fmt.Errorf("state: load %s: %w", path, err)
	}
	return Migrate(doc, catalog, opts...), nil
}

// Decode parses a draft document into its generic form.
func Decode(data []byte) (map[string]any, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrMalformed)
	}
	var doc map[string]any
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: document is not an object", ErrMalformed)
	}
	return doc, nil
}

// Encode renders the draft document with stable two-space indentation.
func Encode(s *Store) ([]byte, error) {
	data, err := json.MarshalIndent(s.Document(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("state: encode: %w", err)
	}
	return append(data, '\n'), nil
}

// Save writes the draft atomically: the payload goes to a temporary file in
// the target directory which then replaces path.
func Save(path string, s *Store) error {
	data, err := Encode(s)
	if err != nil {
		return err
	}
	if err := atomicfile.Write(path, data, 0o644); err != nil {
		return fmt.Errorf("state: save %s: %w", path, err)
	}
	return nil
}
