package query

import (
	"errors"
	"fmt"
)

// Validation error codes (E200-E299)
const (
	ErrQueryShape       = "E201" // malformed top-level query
	ErrUnknownDataset   = "E202" // key references a dataset not in the registry
	ErrDatasetConflict  = "E203" // key references a second dataset
	ErrInvalidField     = "E204" // unknown field or wrong field kind for the context
	ErrFilterShape      = "E205" // malformed WHERE filter
	ErrTransformShape   = "E206" // malformed TRANSFORMATIONS
	ErrInvalidApplyKey  = "E207" // empty, malformed or duplicate apply key
	ErrOptionsShape     = "E208" // malformed OPTIONS
	ErrUnavailableKey   = "E209" // COLUMNS or ORDER references a key that is not visible
	ErrMisplacedPattern = "E210" // wildcard inside an IS pattern
)

// ErrInvalidQuery matches every *ValidationError via errors.Is.
var ErrInvalidQuery = errors.New("invalid query")

// ValidationError reports why a query document was rejected.
// It is the only error kind produced by parsing and validation.
type ValidationError struct {
	Code    string `json:"code"`
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Path, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Is reports whether target is ErrInvalidQuery.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidQuery
}

// Errorf builds a ValidationError.
func Errorf(code, path, format string, args ...any) *ValidationError {
	return &ValidationError{Code: code, Path: path, Message: fmt.Sprintf(format, args...)}
}
