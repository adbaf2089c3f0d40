// Package service реализует бизнес-логику сервиса продажи курсов.
package service

import "fmt"

// ValidationError описывает некорректное или отсутствующее поле входных данных.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
