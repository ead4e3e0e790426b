// Package errors defines the structured error taxonomy shared by the
// keymapgen pipeline: catalog inconsistencies, search exhaustion, emission
// failures and configuration problems. Every failure is fatal for a run; the
// types exist so the CLI can report the offending entry or search state.
package errors

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeCatalog    ErrorType = "catalog"
	ErrorTypeSearch     ErrorType = "search"
	ErrorTypeEmission   ErrorType = "emission"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeInternal   ErrorType = "internal"
)

// Common error codes.
const (
	ErrCodeDuplicateEventCode = "ERR_CATALOG_DUPLICATE_EVENT_CODE"
	ErrCodeCatalogInvalid     = "ERR_CATALOG_INVALID"
	ErrCodeCatalogLoad        = "ERR_CATALOG_LOAD"
	ErrCodeSearchExhausted    = "ERR_SEARCH_EXHAUSTED"
	ErrCodeSearchCancelled    = "ERR_SEARCH_CANCELLED"
	ErrCodeEmissionFailed     = "ERR_EMISSION_FAILED"
	ErrCodeRenderFailed       = "ERR_RENDER_FAILED"
	ErrCodeArtifactStale      = "ERR_ARTIFACT_STALE"
	ErrCodeConfigInvalid      = "ERR_CONFIG_INVALID"
	ErrCodeInternalError      = "ERR_INTERNAL"
)

// KeymapError is a structured error type with context.
type KeymapError struct {
	Type    ErrorType
	Code    string
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error renders "[CODE] message: cause", omitting the parts that are empty.
func (e *KeymapError) Error() string {
	var sb strings.Builder
	if e.Code != "" {
		sb.WriteString("[" + e.Code + "] ")
	}
	sb.WriteString(e.Message)
	if e.Cause != nil {
		sb.WriteString(": " + e.Cause.Error())
	}
	return sb.String()
}

func (e *KeymapError) Unwrap() error { return e.Cause }

// Is implements error comparison on type and code.
func (e *KeymapError) Is(target error) bool {
	var t *KeymapError
	return errors.As(target, &t) && e.Type == t.Type && e.Code == t.Code
}

// WithContext records key=value on the error and returns it for chaining.
func (e *KeymapError) WithContext(key string, value interface{}) *KeymapError {
	if e.Context == nil {
		e.Context = map[string]interface{}{}
	}
	e.Context[key] = value

	return e
}

// WithCause attaches the underlying cause.
func (e *KeymapError) WithCause(cause error) *KeymapError {
	e.Cause = cause

	return e
}

// Fields flattens the error into key/value pairs for structured logging.
// Context keys are sorted so log lines are stable.
func (e *KeymapError) Fields() []interface{} {
	fields := []interface{}{"type", string(e.Type), "code", e.Code}
	keys := make([]string, 0, len(e.Context))
	for k := range e.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fields = append(fields, k, e.Context[k])
	}
	return fields
}

// NewCatalogError creates a catalog inconsistency error.
func NewCatalogError(code, message string) *KeymapError {
	return &KeymapError{
		Type:    ErrorTypeCatalog,
		Code:    code,
		Message: message,
	}
}

// NewSearchError creates a perfect-hash search error.
func NewSearchError(code, message string, cause error) *KeymapError {
	return &KeymapError{
		Type:    ErrorTypeSearch,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewEmissionError creates an artifact emission error.
func NewEmissionError(code, message string, cause error) *KeymapError {
	return &KeymapError{
		Type:    ErrorTypeEmission,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *KeymapError {
	return &KeymapError{
		Type:    ErrorTypeConfig,
		Code:    code,
		Message: message,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *KeymapError {
	return &KeymapError{
		Type:    ErrorTypeInternal,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// TypeOf returns the ErrorType of err, or ErrorTypeInternal when err is not a
// KeymapError.
func TypeOf(err error) ErrorType {
	var ke *KeymapError
	if errors.As(err, &ke) {
		return ke.Type
	}
	return ErrorTypeInternal
}

// IsCatalogError checks if an error is a catalog inconsistency.
func IsCatalogError(err error) bool {
	var ke *KeymapError
	return errors.As(err, &ke) && ke.Type == ErrorTypeCatalog
}

// IsSearchError checks if an error comes from the hash search.
func IsSearchError(err error) bool {
	var ke *KeymapError
	return errors.As(err, &ke) && ke.Type == ErrorTypeSearch
}

// IsEmissionError checks if an error comes from writing the artifact.
func IsEmissionError(err error) bool {
	var ke *KeymapError
	return errors.As(err, &ke) && ke.Type == ErrorTypeEmission
}

// Logger is the subset of logging.Logger the handler needs.
type Logger interface {
	Error(ctx context.Context, err error, msg string, fields ...interface{})
	Fatal(ctx context.Context, err error, msg string, fields ...interface{})
}

// ErrorHandler provides centralized reporting of fatal errors.
type ErrorHandler struct {
	logger Logger
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle logs err with its structured context. It returns err unchanged so
// callers can keep propagating it to the exit path.
func (h *ErrorHandler) Handle(ctx context.Context, err error) error {
	if err == nil || h.logger == nil {
		return err
	}

	var ke *KeymapError
	if !errors.As(err, &ke) {
		h.logger.Error(ctx, err, "Command failed")
		return err
	}

	switch ke.Type {
	case ErrorTypeCatalog:
		h.logger.Fatal(ctx, err, "Catalog is inconsistent", ke.Fields()...)
	case ErrorTypeSearch:
		h.logger.Fatal(ctx, err, "Perfect hash search failed", ke.Fields()...)
	case ErrorTypeEmission:
		h.logger.Fatal(ctx, err, "Artifact could not be written", ke.Fields()...)
	case ErrorTypeConfig:
		h.logger.Fatal(ctx, err, "Configuration is invalid", ke.Fields()...)
	default:
		h.logger.Fatal(ctx, err, "Error occurred", ke.Fields()...)
	}
	return err
}

// FieldValidationError describes one invalid field, e.g. "keys[12].event".
type FieldValidationError struct {
	Field       string
	Value       interface{}
	Message     string
	Suggestions []string
}

func (f *FieldValidationError) Error() string {
	return f.Field + ": " + f.Message
}

// ValidationErrorCollection gathers every field problem found in one pass so
// a catalog or config file can be fixed in a single edit.
type ValidationErrorCollection struct {
	Errors []*FieldValidationError
}

func (c *ValidationErrorCollection) Error() string {
	switch len(c.Errors) {
	case 0:
		return "no invalid fields"
	case 1:
		return c.Errors[0].Error()
	}
	msgs := make([]string, 0, len(c.Errors))
	for _, f := range c.Errors {
		msgs = append(msgs, f.Error())
	}
	return fmt.Sprintf("%d invalid fields: %s", len(c.Errors), strings.Join(msgs, "; "))
}

// AddField records a problem with field; suggestions are shown as hints.
func (c *ValidationErrorCollection) AddField(field string, value interface{}, message string, suggestions ...string) {
	c.Errors = append(c.Errors, &FieldValidationError{
		Field:       field,
		Value:       value,
		Message:     message,
		Suggestions: suggestions,
	})
}

func (c *ValidationErrorCollection) HasErrors() bool { return len(c.Errors) > 0 }
