package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEmail_Valid(t *testing.T) {
	for _, in := range []string{"amy@example.com", "a@b", "John.Doe+tag@Mail.Example.ORG"} {
		e, err := ParseEmail(in)
		require.NoError(t, err, in)
		// Без нормализации
		assert.Equal(t, in, e.String())
	}
}

func TestParseEmail_Invalid(t *testing.T) {
	for _, in := range []string{"", "not-an-email", "@example.com", "amy@", "a@b@c", " amy@example.com", "amy @example.com"} {
		_, err := ParseEmail(in)
		require.Error(t, err, in)
		assert.True(t, errors.Is(err, ErrInvalidEmail), in)

		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "email", verr.Field)
		assert.Equal(t, in, verr.Value)
	}
}

func TestValidationError_Extensions(t *testing.T) {
	err := &ValidationError{Field: "name", Value: "", Err: ErrEmptyValue}
	assert.Equal(t, `name "": value cannot be empty`, err.Error())
	assert.Equal(t, "VALIDATION_ERROR", err.Extensions()["code"])
	assert.Equal(t, "name", err.Extensions()["field"])
}
