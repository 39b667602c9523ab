package domain

import (
	"regexp"
)

// Notification - полезная нагрузка, которая уходит подписчикам через канал уведомлений.
// Для широковещательных топиков заполнен Entries (снимок списка),
// для адресных ответов - Name.
type Notification struct {
	Name    string   `json:"name,omitempty"`
	Entries []string `json:"entries,omitempty"`
}

// Email - строка, прошедшая проверку формата <local-part>@<domain>.
type Email string

// Ни локальная часть, ни домен не могут быть пустыми или содержать пробелы и второй '@'.
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+$`)

// ParseEmail проверяет формат адреса. Нормализация (регистр, пробелы) не выполняется.
func ParseEmail(input string) (Email, error) {
	if !emailPattern.MatchString(input) {
		return "", &ValidationError{Field: "email", Value: input, Err: ErrInvalidEmail}
	}
	return Email(input), nil
}

func (e Email) String() string {
	return string(e)
}
