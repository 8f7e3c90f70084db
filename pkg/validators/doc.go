// Package validators holds the named checks catalogs reference by id and the
// cross-field rules evaluated per page. Every validator has the single shape
// Validate(value, form); value-only checks ignore form. Unknown ids are no
// constraint and a panicking validator fails closed.
package validators
