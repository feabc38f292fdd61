package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validatorFor(t *testing.T) *Validator {
	t.Helper()
	s, err := NewSpace("users", []Field{
		{Name: "id", Type: TypeUnsigned},
		{Name: "name", Type: TypeString},
		{Name: "meta", Type: TypeAny},
	})
	require.NoError(t, err)
	v, err := NewValidator(s)
	require.NoError(t, err)
	return v
}

func TestValidatorAcceptsConformingDocument(t *testing.T) {
	v := validatorFor(t)
	err := v.ValidateDocument(map[string]any{
		"id":   42,
		"name": "Ann",
		"meta": []any{"anything", 1},
	})
	assert.NoError(t, err)
}

func TestValidatorAcceptsUndeclaredKeys(t *testing.T) {
	v := validatorFor(t)
	err := v.ValidateDocument(map[string]any{"id": 1, "name": "x", "extra": true})
	assert.NoError(t, err)
}

func TestValidatorRejectsWrongTypes(t *testing.T) {
	v := validatorFor(t)
	err := v.ValidateDocument(map[string]any{"id": "not-a-number", "name": 7})
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "users", verr.Space)
	assert.NotEmpty(t, verr.Details)
}

func TestValidatorRejectsNegativeUnsigned(t *testing.T) {
	v := validatorFor(t)
	err := v.ValidateDocument(map[string]any{"id": -1})
	assert.Error(t, err)
}

func TestNewValidatorNeedsSpace(t *testing.T) {
	_, err := NewValidator(nil)
	assert.Error(t, err)
}
