package schema

import (
	"embed"
	"io/fs"
	"sync"
)

//go:embed catalog/*.yaml
var catalogFS embed.FS

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// DefaultFS exposes the embedded intake catalog files.
func DefaultFS() fs.FS {
	sub, err := fs.Sub(catalogFS, "catalog")
	if err != nil {
		return catalogFS
	}
	return sub
}

// Default returns the embedded client-intake catalog. The catalog is parsed
// once and shared; callers must treat it as read-only.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = LoadFS(DefaultFS())
	})
	return defaultCatalog, defaultErr
}

// MustDefault is Default for callers that cannot recover from a broken build.
func MustDefault() *Catalog {
	catalog, err := Default()
	if err != nil {
		panic(err)
	}
	return catalog
}
