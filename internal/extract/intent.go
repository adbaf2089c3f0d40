package extract

import "strings"

// Intent описывает предполагаемую цель сообщения.
type Intent string

const (
	IntentOrder    Intent = "order"
	IntentPayment  Intent = "payment"
	IntentGreeting Intent = "greeting"
	IntentQuestion Intent = "question"
	IntentUnknown  Intent = "unknown"
)

// Emotion описывает эмоциональную окраску сообщения.
type Emotion string

const (
	EmotionNeutral  Emotion = "neutral"
	EmotionPositive Emotion = "positive"
	EmotionNegative Emotion = "negative"
)

var (
	paymentWords  = []string{"pago", "pagué", "pague", "transferencia", "comprobante", "yape", "plin"}
	greetingWords = []string{"hola", "buenas", "buenos días", "buenos dias", "buenas tardes", "buenas noches"}
	positiveWords = []string{"gracias", "genial", "excelente", "perfecto", "👍", "😊", "❤"}
	negativeWords = []string{"problema", "reclamo", "molesto", "no funciona", "estafa", "😡", "😠"}
)

// DetectIntent грубо классифицирует сообщение по ключевым словам.
func DetectIntent(text string) (Intent, Emotion) {
	lower := strings.ToLower(text)

	intent := IntentUnknown
	switch {
	case IsOrderNotification(text):
		intent = IntentOrder
	case containsAny(lower, paymentWords):
		intent = IntentPayment
	case strings.Contains(lower, "?") || strings.Contains(lower, "¿"):
		intent = IntentQuestion
	case containsAny(lower, greetingWords):
		intent = IntentGreeting
	}

	emotion := EmotionNeutral
	switch {
	case containsAny(lower, negativeWords):
		emotion = EmotionNegative
	case containsAny(lower, positiveWords):
		emotion = EmotionPositive
	}

	return intent, emotion
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
