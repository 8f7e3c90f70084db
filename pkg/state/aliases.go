package state

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
)

//go:embed aliases.toml
var aliasesTOML []byte

// Alias renames a legacy draft key. Since records the table version that
// introduced the entry.
type Alias struct {
	From  string `toml:"from"`
	To    string `toml:"to"`
	Since int    `toml:"since"`
}

// AliasTable is the versioned, ordered list of key renames applied by Migrate.
type AliasTable struct {
	Version int     `toml:"version"`
	Aliases []Alias `toml:"alias"`
}

var (
	defaultAliasesOnce sync.Once
	defaultAliases     AliasTable
	defaultAliasesErr  error
)

// DefaultAliases returns the embedded alias table.
func DefaultAliases() (AliasTable, error) {
	defaultAliasesOnce.Do(func() {
		defaultAliases, defaultAliasesErr = ParseAliases(aliasesTOML)
	})
	return defaultAliases, defaultAliasesErr
}

// ParseAliases decodes an alias table from TOML and rejects entries that
// would be ambiguous (empty names, self renames, two renames from one key).
func ParseAliases(data []byte) (AliasTable, error) {
	var table AliasTable
	if err := toml.Unmarshal(data, &table); err != nil {
		return AliasTable{}, fmt.Errorf("state: parsing alias table: %w", err)
	}
	seen := make(map[string]struct{}, len(table.Aliases))
	for idx, alias := range table.Aliases {
		from := strings.TrimSpace(alias.From)
		to := strings.TrimSpace(alias.To)
		if from == "" || to == "" {
			return AliasTable{}, fmt.Errorf("state: alias %d: from and to are required", idx)
		}
		if from == to {
			return AliasTable{}, fmt.Errorf("state: alias %q renames to itself", from)
		}
		if _, dup := seen[from]; dup {
			return AliasTable{}, fmt.Errorf("state: alias %q declared twice", from)
		}
		if alias.Since > table.Version {
			return AliasTable{}, fmt.Errorf("state: alias %q since %d is newer than table version %d", from, alias.Since, table.Version)
		}
		seen[from] = struct{}{}
		table.Aliases[idx] = Alias{From: from, To: to, Since: alias.Since}
	}
	return table, nil
}

// apply moves legacy keys onto their new names when the new key is absent.
// A legacy key whose replacement already exists is left alone and survives as
// an extra key.
func (t AliasTable) apply(doc map[string]any) {
	for _, alias := range t.Aliases {
		value, ok := doc[alias.From]
		if !ok {
			continue
		}
		if _, exists := doc[alias.To]; exists {
			continue
		}
		doc[alias.To] = value
		delete(doc, alias.From)
	}
}
