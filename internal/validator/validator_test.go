package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/timkado/api/daisi-crm-insights/internal/apperrors"
)

type sample struct {
	CustomerID string `json:"customer_id" validate:"required"`
	Title      string `json:"title" validate:"max=5"`
	Internal   string `json:"-" validate:"omitempty,oneof=a b"`
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(sample{CustomerID: "c1", Title: "ok"}))

	err := Validate(sample{Title: "too long"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Contains(t, err.Error(), "validation failed")
	assert.Contains(t, err.Error(), "field 'customer_id' failed validation: is required")
	assert.Contains(t, err.Error(), "field 'title' failed validation: must not exceed 5 characters")
}

func TestValidate_NonStruct(t *testing.T) {
	err := Validate("not a struct")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestValidateVar(t *testing.T) {
	assert.NoError(t, ValidateVar("abc", "required"))
	assert.Error(t, ValidateVar("", "required"))
}

func TestGet_Singleton(t *testing.T) {
	assert.Same(t, Get(), Get())
}
