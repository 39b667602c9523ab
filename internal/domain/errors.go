package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidEmail = errors.New("invalid email")
	ErrEmptyValue   = errors.New("value cannot be empty")
)

// ValidationError возвращается, когда входное значение отклонено до изменения состояния.
type ValidationError struct {
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Extensions попадает в поле extensions ответа GraphQL.
func (e *ValidationError) Extensions() map[string]interface{} {
	return map[string]interface{}{
		"code":  "VALIDATION_ERROR",
		"field": e.Field,
	}
}
