// Package models defines the core data structures for basket analysis.
package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for session and pipeline state lookups.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
	ErrNoDataset       = errors.New("no dataset uploaded")
	ErrNoResults       = errors.New("no mining results available")
	ErrEmptyUsername   = errors.New("username cannot be empty")
)

// SchemaError reports a required column missing from an uploaded dataset.
// It is user-correctable: the run is aborted but the session stays usable.
type SchemaError struct {
	Column    string
	Available []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("required column %q not found in dataset (available: %v)", e.Column, e.Available)
}

// InvalidParameterError reports an out-of-range or unrecognized mining parameter.
type InvalidParameterError struct {
	Parameter string
	Value     string
	Reason    string
}

func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %s=%s: %s", e.Parameter, e.Value, e.Reason)
}

// NewInvalidParameter builds an InvalidParameterError with a formatted value.
func NewInvalidParameter(parameter string, value interface{}, reason string) *InvalidParameterError {
	return &InvalidParameterError{
		Parameter: parameter,
		Value:     fmt.Sprintf("%v", value),
		Reason:    reason,
	}
}
