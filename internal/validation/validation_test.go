package validation

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name" validate:"required,max=5"`
	Price string `json:"price" validate:"required,numeric"`
	Email string `json:"email" validate:"omitempty,email"`
}

func TestValidator_Struct(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.Struct(sample{Name: "ok", Price: "10.50"}))

	err := v.Struct(sample{Name: "toolong", Price: "abc", Email: "nope"})
	vErr, ok := As(err)
	require.True(t, ok)
	require.Len(t, vErr.Fields, 3)

	assert.Equal(t, FieldError{Field: "name", Code: "max", Message: "The name field must not be greater than 5 characters."}, vErr.Fields[0])
	assert.Equal(t, "numeric", vErr.Fields[1].Code)
	assert.Equal(t, "The price field must be a number.", vErr.Fields[1].Message)
	assert.Equal(t, "email", vErr.Fields[2].Field)
}

func TestValidator_Required(t *testing.T) {
	err := NewValidator().Struct(sample{})
	vErr, ok := As(err)
	require.True(t, ok)
	assert.True(t, vErr.Has("name"))
	assert.True(t, vErr.Has("price"))
	assert.Equal(t, "The name field is required.", vErr.Fields[0].Message)
}

func TestErrors(t *testing.T) {
	var e Errors
	assert.NoError(t, e.OrNil())

	e.Add("sku", "unique", "The sku has already been taken.")
	err := e.OrNil()
	require.Error(t, err)
	assert.Equal(t, "validation error: sku: unique", err.Error())

	wrapped := fmt.Errorf("create: %w", New("image", "mimes", "bad"))
	got, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, "image", got.Fields[0].Field)
}

func TestValidator_Partial(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.Partial(sample{Price: "12"}, "Price"))
	assert.NoError(t, v.Partial(sample{}))

	err := v.Partial(sample{Name: "", Price: "x"}, "Name")
	vErr, ok := As(err)
	require.True(t, ok)
	require.Len(t, vErr.Fields, 1)
	assert.Equal(t, "name", vErr.Fields[0].Field)
	assert.Equal(t, "required", vErr.Fields[0].Code)
}
