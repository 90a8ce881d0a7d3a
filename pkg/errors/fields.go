package errors

import (
	"fmt"

	"go.uber.org/multierr"
)

// FieldError is a single field-level validation failure.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (f FieldError) Error() string {
	return fmt.Sprintf("%s: %s", f.Field, f.Reason)
}

// Fields accumulates validation failures so callers can report all of them at once.
type Fields struct {
	err error
}

// Add records a failure for field.
func (f *Fields) Add(field, reason string) {
	f.err = multierr.Append(f.err, FieldError{Field: field, Reason: reason})
}

// Check records a failure when ok is false.
func (f *Fields) Check(ok bool, field, reason string) {
	if !ok {
		f.Add(field, reason)
	}
}

func (f *Fields) Empty() bool {
	return f.err == nil
}

// Err returns a CodeValidation error listing every recorded field, or nil.
func (f *Fields) Err(message string) error {
	if f.err == nil {
		return nil
	}
	collected := multierr.Errors(f.err)
	details := make(map[string]string, len(collected))
	for _, item := range collected {
		if fe, ok := item.(FieldError); ok {
			details[fe.Field] = fe.Reason
		}
	}
	return Wrap(CodeValidation, f.err, message).WithDetails(details)
}
