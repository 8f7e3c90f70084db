// Package state holds the answers of an intake session. A Store is keyed by
// catalog field names, rejects unknown names and stays total over the catalog:
// every input has a value from BuildDefault onwards. Repeating-group items are
// addressed by stable handles. Drafts persist as indented JSON written
// atomically; Load and Migrate accept older draft shapes, including renamed
// keys listed in the embedded aliases.toml table.
package state
