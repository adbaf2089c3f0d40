// Package validation содержит функции валидации входных данных.
package validation

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	emailPattern   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	orderIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,63}$`)
)

// NormalizeEmail приводит адрес к нижнему регистру и убирает пробелы по краям.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsValidEmail выполняет базовую проверку формата адреса электронной почты.
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// IsValidOrderID проверяет, что идентификатор заказа является коротким кодом без пробелов.
func IsValidOrderID(id string) bool {
	return orderIDPattern.MatchString(id)
}

// NormalizePhone оставляет в номере только цифры, отбрасывая суффикс чата после '@'.
func NormalizePhone(phone string) string {
	if i := strings.IndexByte(phone, '@'); i >= 0 {
		phone = phone[:i]
	}
	// у мультиустройственных идентификаторов номер устройства идёт после ':'
	if i := strings.IndexByte(phone, ':'); i >= 0 {
		phone = phone[:i]
	}

	var b strings.Builder
	for _, r := range phone {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
