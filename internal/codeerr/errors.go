// Package codeerr defines the error kinds shared by the code understanding
// pipeline. Malformed source code is never an error here: parsers and
// extractors degrade and log. These types cover contract violations only.
package codeerr

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed input to a public contract, such as
// empty source handed to the parser or an invalid edge type.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Msg
}

// ResourceError reports a missing file or an exceeded resource limit
// (max file size, max files per walk).
type ResourceError struct {
	Path string
	Msg  string
}

func (e *ResourceError) Error() string {
	if e.Path == "" {
		return "resource: " + e.Msg
	}
	return fmt.Sprintf("resource: %s: %s", e.Path, e.Msg)
}

// Validationf builds a ValidationError with a formatted message.
func Validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// Resourcef builds a ResourceError for the given path.
func Resourcef(path, format string, args ...any) error {
	return &ResourceError{Path: path, Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsResource reports whether err is (or wraps) a ResourceError.
func IsResource(err error) bool {
	var re *ResourceError
	return errors.As(err, &re)
}
