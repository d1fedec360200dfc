package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotFound is returned by writes addressed at an id that does not exist
var ErrNotFound = errors.New("entity not found")

// ValidationError rejects a write. Message is a human-readable summary;
// Fields optionally keys messages by input field.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

// Invalid builds a ValidationError from a format string
func Invalid(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// MissingRelation is the error for a relation id that does not resolve
func MissingRelation(target *Schema) *ValidationError {
	return Invalid("given %s does not exist", target.Singular)
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return e.Message + " (" + strings.Join(parts, ", ") + ")"
}

// Payload is the value rendered under the "errors" key
func (e *ValidationError) Payload() any {
	if len(e.Fields) > 0 {
		return e.Fields
	}
	return e.Message
}
