package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeymapErrorError(t *testing.T) {
	cause := errors.New("permission denied")
	err := NewEmissionError(ErrCodeEmissionFailed, "cannot write KeyboardMapping.h", cause)

	assert.Equal(t, "[ERR_EMISSION_FAILED] cannot write KeyboardMapping.h: permission denied", err.Error())
	assert.Equal(t, cause, errors.Unwrap(err))
}

func TestKeymapErrorIs(t *testing.T) {
	err := NewCatalogError(ErrCodeDuplicateEventCode, "duplicate event code \"KeyA\"")
	wrapped := fmt.Errorf("generate: %w", err)

	assert.True(t, errors.Is(wrapped, NewCatalogError(ErrCodeDuplicateEventCode, "")))
	assert.False(t, errors.Is(wrapped, NewCatalogError(ErrCodeCatalogInvalid, "")))
	assert.False(t, errors.Is(wrapped, NewSearchError(ErrCodeDuplicateEventCode, "", nil)))
}

func TestTypePredicates(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		want     ErrorType
		catalog  bool
		search   bool
		emission bool
	}{
		{"catalog", NewCatalogError(ErrCodeCatalogInvalid, "x"), ErrorTypeCatalog, true, false, false},
		{"search", NewSearchError(ErrCodeSearchExhausted, "x", nil), ErrorTypeSearch, false, true, false},
		{"emission", NewEmissionError(ErrCodeEmissionFailed, "x", nil), ErrorTypeEmission, false, false, true},
		{"config", NewConfigError(ErrCodeConfigInvalid, "x"), ErrorTypeConfig, false, false, false},
		{"plain", errors.New("x"), ErrorTypeInternal, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TypeOf(tt.err))
			assert.Equal(t, tt.catalog, IsCatalogError(tt.err))
			assert.Equal(t, tt.search, IsSearchError(tt.err))
			assert.Equal(t, tt.emission, IsEmissionError(tt.err))
		})
	}
}

func TestFieldsAreSorted(t *testing.T) {
	err := NewSearchError(ErrCodeSearchExhausted, "no parameters", nil).
		WithContext("trials", 10).
		WithContext("k1", "0x1").
		WithContext("k2", 3)

	assert.Equal(t, []interface{}{
		"type", "search", "code", ErrCodeSearchExhausted,
		"k1", "0x1", "k2", 3, "trials", 10,
	}, err.Fields())
}

type recordingLogger struct {
	msgs   []string
	fields [][]interface{}
}

func (r *recordingLogger) Error(_ context.Context, _ error, msg string, fields ...interface{}) {
	r.msgs = append(r.msgs, msg)
	r.fields = append(r.fields, fields)
}

func (r *recordingLogger) Fatal(_ context.Context, _ error, msg string, fields ...interface{}) {
	r.msgs = append(r.msgs, msg)
	r.fields = append(r.fields, fields)
}

func TestErrorHandler(t *testing.T) {
	logger := &recordingLogger{}
	h := NewErrorHandler(logger)
	ctx := context.Background()

	assert.NoError(t, h.Handle(ctx, nil))

	catalogErr := NewCatalogError(ErrCodeDuplicateEventCode, "dup").WithContext("event", "KeyA")
	assert.Equal(t, error(catalogErr), h.Handle(ctx, catalogErr))

	plain := errors.New("plain")
	assert.Equal(t, plain, h.Handle(ctx, plain))

	require.Len(t, logger.msgs, 2)
	assert.Equal(t, "Catalog is inconsistent", logger.msgs[0])
	assert.Contains(t, logger.fields[0], "KeyA")
	assert.Equal(t, "Command failed", logger.msgs[1])
}

func TestValidationErrorCollection(t *testing.T) {
	var vec ValidationErrorCollection
	assert.False(t, vec.HasErrors())
	assert.Equal(t, "no invalid fields", vec.Error())

	vec.AddField("keys[3].event", "", "event code is empty")
	assert.True(t, vec.HasErrors())
	assert.Equal(t, "keys[3].event: event code is empty", vec.Error())

	vec.AddField("keys[4].scancode", "", "scancode symbol is empty", "use the DOM_PK_ prefix")
	assert.Contains(t, vec.Error(), "2 invalid fields")
	assert.Equal(t, []string{"use the DOM_PK_ prefix"}, vec.Errors[1].Suggestions)
}
