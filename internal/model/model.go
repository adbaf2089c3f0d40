// Package model содержит доменные сущности сервиса продажи курсов.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus описывает этап жизненного цикла заказа.
type OrderStatus string

const (
	OrderStatusPending         OrderStatus = "pending"
	OrderStatusPaymentVerified OrderStatus = "payment_verified"
	OrderStatusInProduction    OrderStatus = "in_production"
	OrderStatusPackaged        OrderStatus = "packaged"
	OrderStatusShipped         OrderStatus = "shipped"
	OrderStatusInTransit       OrderStatus = "in_transit"
	OrderStatusDelivered       OrderStatus = "delivered"
	OrderStatusReceived        OrderStatus = "received"
	OrderStatusCancelled       OrderStatus = "cancelled"
)

// OrderStatuses перечисляет статусы в порядке продвижения заказа.
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusPaymentVerified,
	OrderStatusInProduction,
	OrderStatusPackaged,
	OrderStatusShipped,
	OrderStatusInTransit,
	OrderStatusDelivered,
	OrderStatusReceived,
	OrderStatusCancelled,
}

// Valid сообщает, входит ли статус в известное перечисление.
func (s OrderStatus) Valid() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Channel описывает канал, через который поступил заказ.
type Channel string

const (
	ChannelWeb   Channel = "web"
	ChannelChat  Channel = "chat"
	ChannelOther Channel = "other"
)

// PaymentProof содержит сведения о подтверждении оплаты.
type PaymentProof struct {
	Reference string `json:"referencia,omitempty"`
	Date      string `json:"fecha,omitempty"`
}

// PriceScale задаёт число знаков после запятой в цене. Цены хранятся в центах.
const PriceScale = 2

// MaxPrice ограничивает цену заказа и товара каталога.
var MaxPrice = decimal.New(1, 9)

// Order описывает одну покупку курса или товара.
type Order struct {
	ID            string          `json:"id"`
	Title         string          `json:"titulo"`
	Price         decimal.Decimal `json:"precio"`
	PriceLabel    string          `json:"precioTexto"`
	Name          string          `json:"nombre"`
	Surname       string          `json:"apellido"`
	Email         string          `json:"correo"`
	Phone         string          `json:"telefono,omitempty"`
	Channel       Channel         `json:"canal"`
	PaymentMethod string          `json:"metodoPago,omitempty"`
	Proof         PaymentProof    `json:"comprobante"`
	Status        OrderStatus     `json:"estado"`
	Confirmed     bool            `json:"confirmado"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// PaymentStatus описывает состояние оплаты у контакта.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusVerified PaymentStatus = "verified"
)

// DefaultLeadName используется, когда имя контакта неизвестно.
const DefaultLeadName = "cliente"

// MaxInteractions ограничивает длину истории взаимодействий контакта.
const MaxInteractions = 20

// Interaction описывает одну запись истории общения с контактом.
type Interaction struct {
	At      time.Time `json:"at"`
	Emotion string    `json:"emotion"`
	Intent  string    `json:"intent"`
	Context string    `json:"context"`
}

// Lead хранит состояние переписки с контактом независимо от конкретного заказа.
type Lead struct {
	Phone                 string        `json:"telefono"`
	Name                  string        `json:"nombre"`
	FirstSeen             time.Time     `json:"primerContacto"`
	LastSeen              time.Time     `json:"ultimoContacto"`
	LastMessage           string        `json:"ultimoMensaje,omitempty"`
	History               []Interaction `json:"historial"`
	Emotion               string        `json:"emocion"`
	LastIntent            string        `json:"ultimaIntencion,omitempty"`
	ProductOfInterest     string        `json:"cursoInteres,omitempty"`
	ProductPurchased      string        `json:"cursoComprado,omitempty"`
	OrderID               string        `json:"idCompra,omitempty"`
	PaymentProof          string        `json:"comprobante,omitempty"`
	PaymentMethod         string        `json:"metodoPago,omitempty"`
	PaymentStatus         PaymentStatus `json:"estadoPago"`
	Email                 string        `json:"correo,omitempty"`
	Surname               string        `json:"apellido,omitempty"`
	AccessPassword        string        `json:"-"`
	AwaitingProof         bool          `json:"esperandoComprobante"`
	AwaitingPaymentMethod bool          `json:"esperandoMetodoPago"`
	Language              string        `json:"idioma,omitempty"`
	AccessNotifiedAt      *time.Time    `json:"accesoEnviado,omitempty"`
	CreatedAt             time.Time     `json:"createdAt"`
	UpdatedAt             time.Time     `json:"updatedAt"`
}

// LeadPatch содержит частичное обновление контакта: nil-поля не изменяются.
type LeadPatch struct {
	Name                  *string
	LastSeen              *time.Time
	LastMessage           *string
	Emotion               *string
	LastIntent            *string
	ProductOfInterest     *string
	ProductPurchased      *string
	OrderID               *string
	PaymentProof          *string
	PaymentMethod         *string
	PaymentStatus         *PaymentStatus
	Email                 *string
	Surname               *string
	AwaitingProof         *bool
	AwaitingPaymentMethod *bool
	Language              *string
}

// Verification описывает данные, фиксируемые при подтверждении оплаты.
type Verification struct {
	ProductLabel string
	Password     string
}

// Collection описывает именованную группу товаров каталога.
type Collection struct {
	ID        string    `json:"id"`
	Name      string    `json:"nombre"`
	Items     []Item    `json:"items"`
	CreatedAt time.Time `json:"createdAt"`
}

// Item описывает товар каталога.
type Item struct {
	ID           string          `json:"id"`
	CollectionID string          `json:"coleccionId"`
	Name         string          `json:"nombre"`
	Description  string          `json:"descripcion,omitempty"`
	Price        decimal.Decimal `json:"precio"`
	Image        string          `json:"imagen,omitempty"`
}

// ExchangeRate описывает курс валюты относительно доллара.
type ExchangeRate struct {
	Currency  string    `json:"moneda"`
	Rate      float64   `json:"tasa"`
	FetchedAt time.Time `json:"actualizado"`
	Stale     bool      `json:"desactualizado"`
}
