package service

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/cursos-bot/internal/model"
)

// checkPrice проверяет, что цена задана, неотрицательна, не превышает model.MaxPrice
// и содержит не больше model.PriceScale знаков после запятой.
func checkPrice(p *decimal.Decimal) *ValidationError {
	switch {
	case p == nil:
		return invalid("precio", "required")
	case p.IsNegative():
		return invalid("precio", "must not be negative")
	case p.GreaterThan(model.MaxPrice):
		return invalid("precio", "must not exceed "+model.MaxPrice.String())
	case !p.Equal(p.Round(model.PriceScale)):
		return invalid("precio", "at most 2 decimal places")
	}
	return nil
}

var priceNumber = regexp.MustCompile(`\d+(?:[.,]\d+)*`)

// parsePrice извлекает сумму из подписи цены вида «S/ 49.90», «$1,299.00» или «49,90 USD».
// Последний разделитель считается десятичным, если за ним не больше двух цифр.
func parsePrice(label string) (decimal.Decimal, bool) {
	raw := priceNumber.FindString(label)
	if raw == "" {
		return decimal.Decimal{}, false
	}

	if i := strings.LastIndexAny(raw, ".,"); i >= 0 && len(raw)-i-1 <= 2 {
		raw = strings.NewReplacer(".", "", ",", "").Replace(raw[:i]) + "." + raw[i+1:]
	} else {
		raw = strings.NewReplacer(".", "", ",", "").Replace(raw)
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}
