package model

import (
	"fmt"
	"strings"
)

// The error taxonomy is deliberately small: configuration problems are caught
// at construction, shape problems at call boundaries, and the remaining two
// signal driver bugs. None of them are retried by the core.

// ConfigurationError reports invalid hyperparameters at construction time.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "invalid configuration: " + e.Reason
}

// Configf builds a ConfigurationError from a format string.
func Configf(format string, args ...any) error {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

// ShapeError reports mismatched array shapes or lengths between codes,
// scores and masks at a call boundary.
type ShapeError struct {
	Reason string
}

func (e *ShapeError) Error() string {
	return "shape mismatch: " + e.Reason
}

// Shapef builds a ShapeError from a format string.
func Shapef(format string, args ...any) error {
	return &ShapeError{Reason: fmt.Sprintf(format, args...)}
}

// MissingLayerError reports layers a scoring criterion requires but the
// subject state does not contain.
type MissingLayerError struct {
	Missing []string
}

func (e *MissingLayerError) Error() string {
	return "state is missing scored layers: " + strings.Join(e.Missing, ", ")
}

// HistoryEmptyError reports access to the latest entry of a session history
// before anything was appended to it.
type HistoryEmptyError struct {
	History string
}

func (e *HistoryEmptyError) Error() string {
	return "no " + e.History + " in history"
}
