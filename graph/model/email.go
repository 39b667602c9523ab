package model

import (
	"fmt"

	"github.com/UkralStul/graphql-userlist-service/internal/domain"
)

// Email - GraphQL-скаляр Email. Невалидный ввод отклоняется при разборе аргументов,
// до вызова резолвера.
type Email string

func (Email) ImplementsGraphQLType(name string) bool {
	return name == "Email"
}

func (e *Email) UnmarshalGraphQL(input interface{}) error {
	s, ok := input.(string)
	if !ok {
		return fmt.Errorf("Email must be a string, got %T", input)
	}
	parsed, err := domain.ParseEmail(s)
	if err != nil {
		return err
	}
	*e = Email(parsed)
	return nil
}
