// Package schema describes the intake wizard declaratively: ordered pages of
// sections whose fields carry a closed Kind, required-ness, a validator id,
// options and an optional show_if predicate. Catalogs load from YAML or JSON
// files through LoadFS; the client-intake catalog ships embedded and is
// available through Default. Lint reports defects the runtime degrades around.
package schema
