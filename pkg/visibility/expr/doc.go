// Package expr models show_if predicates as a small expression tree. Catalogs
// use the single-key equality mapping (FromMap) or the string form accepted by
// Parse, e.g. `has_ffi == "Yes" && !no_spouse`.
package expr
