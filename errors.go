package formz

import (
	"errors"
	"maps"
)

// Usage errors returned by the strict setters. They are wrapped with the
// offending path or key, so match them with errors.Is.
var (
	// ErrNoControls is returned when a value is set on a group or array
	// that has no children.
	ErrNoControls = errors.New("no form controls registered yet")

	// ErrControlMissing is returned when a value addresses a child that
	// does not exist.
	ErrControlMissing = errors.New("cannot find form control")

	// ErrValueMissing is returned by SetValue when a child has no entry in
	// the supplied value.
	ErrValueMissing = errors.New("must supply a value for form control")

	// ErrInvalidValue is returned when a value has the wrong shape for the
	// control, such as a scalar passed to a group.
	ErrInvalidValue = errors.New("invalid value for form control")

	// ErrListenerPanic wraps a panic recovered from a Channel listener.
	ErrListenerPanic = errors.New("listener panicked")

	// ErrUnknownValidator is returned by a Catalog for unregistered names.
	ErrUnknownValidator = errors.New("unknown validator")

	// ErrUnknownCondition is returned by a Catalog for unregistered names.
	ErrUnknownCondition = errors.New("unknown condition")
)

// ErrorAsyncValidationFailed is the error code recorded when an async
// validator reports a failure instead of a result. Its metadata is the error.
const ErrorAsyncValidationFailed = "asyncValidationFailed"

// Errors maps an error code to arbitrary metadata, for example
// {"required": true} or {"min": {"min": 5, "actual": 2}}.
// A nil or empty map means the control has no errors.
type Errors map[string]any

// Has reports whether code is present.
func (e Errors) Has(code string) bool {
	_, ok := e[code]
	return ok
}

// Get returns the metadata recorded for code, or nil.
func (e Errors) Get(code string) any {
	return e[code]
}

// Codes returns the error codes in no particular order.
func (e Errors) Codes() []string {
	codes := make([]string, 0, len(e))
	for code := range e {
		codes = append(codes, code)
	}
	return codes
}

// mergeErrors shallow-merges src into dst. Later keys win. The result is nil
// when nothing was merged.
func mergeErrors(dst, src Errors) Errors {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = make(Errors, len(src))
	}
	maps.Copy(dst, src)
	return dst
}

func normalizeErrors(e Errors) Errors {
	if len(e) == 0 {
		return nil
	}
	return e
}
