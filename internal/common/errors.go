// Package common defines sentinel errors shared by the catalog, store and
// extraction layers. Callers should match them with errors.Is.
package common

import "errors"

var (
	// repository specific errors
	ErrNotFound    = errors.New("not found")
	ErrTableExists = errors.New("table already exists")

	// input validation errors
	ErrInvalidTableName  = errors.New("invalid table name")
	ErrInvalidLocation   = errors.New("invalid location")
	ErrUnsupportedScheme = errors.New("unsupported scheme")
	ErrInvalidFilter     = errors.New("invalid filter")
	ErrInvalidSaveMode   = errors.New("invalid save mode")
	ErrCatalogMismatch   = errors.New("catalog does not match connected database")

	// ErrUnknownVariable is returned when a query references an undefined ${var}.
	ErrUnknownVariable = errors.New("unknown variable")
)
