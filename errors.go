package cachedict

import "errors"

// Sentinel error kinds. Callers classify failures with errors.Is against
// these, never against formatted message text.
var (
	// ErrUnsupportedSource is returned at construction when the source
	// does not support selective load by key list.
	ErrUnsupportedSource = errors.New("cachedict: source does not support selective load")

	// ErrUnknownAttribute is returned when a requested attribute name is
	// not present in the schema.
	ErrUnknownAttribute = errors.New("cachedict: unknown attribute")

	// ErrTypeMismatch is returned when the requested scalar type differs
	// from the attribute's declared kind, or when a source block's key
	// column is not uint64.
	ErrTypeMismatch = errors.New("cachedict: type mismatch")

	// ErrSourceFailure wraps an error returned by the source during a
	// refresh. Partial refresh results (cells already written before the
	// failure) remain valid.
	ErrSourceFailure = errors.New("cachedict: source failure")
)
