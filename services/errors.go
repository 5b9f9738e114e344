package services

import (
	"errors"
	"fmt"
)

// ErrNotFound reports an unknown challenge or participant. Handlers map
// it to a 404.
var ErrNotFound = errors.New("record not found")

// ValidationError rejects a request before anything is persisted. Index
// is the position of the offending entry for array fields (-1 when the
// error is not entry-specific).
type ValidationError struct {
	Field  string
	Index  int
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("invalid %s[%d]: %s", e.Field, e.Index, e.Reason)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
