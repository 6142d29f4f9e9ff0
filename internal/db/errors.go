package db

import (
	"errors"
	"strconv"
)

// Sentinel errors for database operations.
var (
	ErrKeyNotFound      = errors.New("db: key not found")
	ErrKeyExists        = errors.New("db: key already exists")
	ErrRevisionMismatch = errors.New("db: revision mismatch")
)

// Op constants map to Redis command names for error context.
const (
	OpPing    = "PING"
	OpDel     = "DEL"
	OpScan    = "SCAN"
	OpGet     = "GET"
	OpSet     = "SET"
	OpJSONSet = "JSON.SET"
	OpJSONGet = "JSON.GET"
	OpEval    = "EVALSHA"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// RevisionMismatch reports the revision found by a failed compare-and-set.
type RevisionMismatch struct {
	Current int
}

func (e *RevisionMismatch) Error() string {
	return ErrRevisionMismatch.Error() + ": current " + strconv.Itoa(e.Current)
}

func (e *RevisionMismatch) Unwrap() error { return ErrRevisionMismatch }
