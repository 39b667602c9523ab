package model

import (
	"errors"
	"testing"

	"github.com/UkralStul/graphql-userlist-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmail_UnmarshalGraphQL(t *testing.T) {
	var e Email
	require.NoError(t, e.UnmarshalGraphQL("amy@example.com"))
	assert.Equal(t, Email("amy@example.com"), e)

	err := e.UnmarshalGraphQL("not-an-email")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidEmail))
	// Значение не меняется при ошибке
	assert.Equal(t, Email("amy@example.com"), e)

	assert.Error(t, e.UnmarshalGraphQL(42))
}

func TestEmail_ImplementsGraphQLType(t *testing.T) {
	assert.True(t, Email("").ImplementsGraphQLType("Email"))
	assert.False(t, Email("").ImplementsGraphQLType("String"))
}
