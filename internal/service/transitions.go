package service

import "github.com/mmeshcher/cursos-bot/internal/model"

// transitions задаёт допустимые переходы статусов заказа: шаг вперёд или отмена
// до момента доставки.
var transitions = map[model.OrderStatus][]model.OrderStatus{
	model.OrderStatusPending:         {model.OrderStatusPaymentVerified, model.OrderStatusCancelled},
	model.OrderStatusPaymentVerified: {model.OrderStatusInProduction, model.OrderStatusCancelled},
	model.OrderStatusInProduction:    {model.OrderStatusPackaged, model.OrderStatusCancelled},
	model.OrderStatusPackaged:        {model.OrderStatusShipped, model.OrderStatusCancelled},
	model.OrderStatusShipped:         {model.OrderStatusInTransit, model.OrderStatusCancelled},
	model.OrderStatusInTransit:       {model.OrderStatusDelivered, model.OrderStatusCancelled},
	model.OrderStatusDelivered:       {model.OrderStatusReceived},
	model.OrderStatusReceived:        {},
	model.OrderStatusCancelled:       {},
}

// CanTransition сообщает, допустим ли переход. В нестрогом режиме разрешено всё,
// кроме отмены уже доставленного заказа.
func CanTransition(from, to model.OrderStatus, strict bool) bool {
	if to == model.OrderStatusCancelled &&
		(from == model.OrderStatusDelivered || from == model.OrderStatusReceived) {
		return false
	}

	if !strict {
		return true
	}

	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
