// Package framework holds struct validation shared by the services.
package framework

import (
	"strings"
)

// FieldError is used to indicate an error with a single field of a validated struct.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// ValidationError is returned by ValidateStruct when one or more fields fail validation.
type ValidationError struct {
	Fields []FieldError
}

func (err *ValidationError) Error() string {
	msgs := make([]string, 0, len(err.Fields))
	for _, f := range err.Fields {
		msgs = append(msgs, f.Error)
	}
	return "field validation error: " + strings.Join(msgs, "; ")
}

// FieldNames lists the names of the failing fields in validation order.
func (err *ValidationError) FieldNames() []string {
	names := make([]string, 0, len(err.Fields))
	for _, f := range err.Fields {
		names = append(names, f.Field)
	}
	return names
}
