package db

import "errors"

// Sentinel errors for backend operations.
var (
	ErrKeyNotFound      = errors.New("db: key not found")
	ErrMissingIsolation = errors.New("db: query missing isolation clause")
)

// Op constants map to backend command names for error context.
const (
	OpSearch    = "FT.SEARCH"
	OpAggregate = "FT.AGGREGATE"
	OpGet       = "GET"
	OpSet       = "SET"
	OpDel       = "DEL"
	OpJSONGet   = "JSON.GET"
	OpJSONSet   = "JSON.SET"
	OpScan      = "SCAN"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
