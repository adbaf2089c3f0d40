// Package extract разбирает полуструктурированный текст входящих сообщений чата.
package extract

import (
	"regexp"
	"strings"
)

// OrderMarker содержит фразу, которой веб-форма помечает уведомление о заказе.
const OrderMarker = "pedido confirmado desde el sitio"

// Candidate содержит поля заказа, найденные в тексте сообщения.
// Отсутствующая метка даёт пустое поле.
type Candidate struct {
	Email         string
	FullName      string
	Surname       string
	Course        string
	PaymentMethod string
	OrderID       string
	Proof         string
	Phone         string
	Price         string
	Date          string
}

type field int

const (
	fieldEmail field = iota
	fieldName
	fieldCourse
	fieldPaymentMethod
	fieldOrderID
	fieldProof
	fieldPhone
	fieldPrice
	fieldDate
)

var labels = map[field][]string{
	fieldEmail:         {"Correo:"},
	fieldName:          {"Nombre:"},
	fieldCourse:        {"Curso:"},
	fieldPaymentMethod: {"Método de Pago:", "Metodo de Pago:"},
	fieldOrderID:       {"ID Compra:"},
	fieldProof:         {"Comprobante:"},
	fieldPhone:         {"Teléfono:", "Telefono:"},
	fieldPrice:         {"Precio:"},
	fieldDate:          {"Fecha:"},
}

var patterns = compileLabels()

func compileLabels() map[field][]*regexp.Regexp {
	res := make(map[field][]*regexp.Regexp, len(labels))
	for f, names := range labels {
		for _, name := range names {
			res[f] = append(res[f], regexp.MustCompile(regexp.QuoteMeta(name)+`[ \t]*([^\r\n]*)`))
		}
	}
	return res
}

// IsOrderNotification сообщает, содержит ли текст маркер заказа с сайта.
func IsOrderNotification(text string) bool {
	return strings.Contains(strings.ToLower(text), OrderMarker)
}

// ParseOrder извлекает поля заказа по меткам. Регистр значений сохраняется.
func ParseOrder(text string) Candidate {
	c := Candidate{
		Email:         lookup(text, fieldEmail),
		FullName:      lookup(text, fieldName),
		Course:        lookup(text, fieldCourse),
		PaymentMethod: lookup(text, fieldPaymentMethod),
		OrderID:       lookup(text, fieldOrderID),
		Proof:         lookup(text, fieldProof),
		Phone:         lookup(text, fieldPhone),
		Price:         lookup(text, fieldPrice),
		Date:          lookup(text, fieldDate),
	}

	if parts := strings.Fields(c.FullName); len(parts) > 1 {
		c.Surname = parts[1]
	}

	return c
}

// FirstName возвращает первое слово полного имени.
func (c Candidate) FirstName() string {
	if parts := strings.Fields(c.FullName); len(parts) > 0 {
		return parts[0]
	}
	return ""
}

func lookup(text string, f field) string {
	for _, re := range patterns[f] {
		if m := re.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

var adminCommand = regexp.MustCompile(`(?i)^\s*/pago\s+verificado\s+(\S+)\s*$`)

// ParseAdminCommand распознаёт команду администратора «/pago verificado <id>».
func ParseAdminCommand(text string) (string, bool) {
	m := adminCommand.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}
