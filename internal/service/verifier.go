package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/mmeshcher/cursos-bot/internal/chat"
	"github.com/mmeshcher/cursos-bot/internal/extract"
	"github.com/mmeshcher/cursos-bot/internal/model"
	"github.com/mmeshcher/cursos-bot/internal/repository"
)

// PlaceholderEmail подставляется в сообщение с доступом, если почта клиента неизвестна.
const PlaceholderEmail = "sin-correo@cursos.local"

// Sender отправляет текстовое сообщение в чат.
type Sender interface {
	Send(ctx context.Context, to, text string) error
}

// PasswordGenerator создаёт пароль доступа из строки-затравки.
type PasswordGenerator interface {
	Generate(seed string) string
}

// OrderAdvancer переводит связанный заказ в следующий статус.
type OrderAdvancer interface {
	Advance(ctx context.Context, id string, from, to model.OrderStatus) (*model.Order, error)
}

// VerificationResult описывает итог подтверждения оплаты.
type VerificationResult struct {
	OrderID string `json:"idCompra"`
	Phone   string `json:"telefono"`
	Email   string `json:"correo"`
}

// Verifier подтверждает оплату: выдаёт пароль, сохраняет его и отправляет клиенту.
// Одновременные вызовы для одного идентификатора схлопываются в один.
type Verifier struct {
	leads     LeadRepository
	orders    OrderAdvancer
	sender    Sender
	passwords PasswordGenerator
	logger    *zap.Logger
	loginURL  string
	now       func() time.Time

	group singleflight.Group
}

// NewVerifier создаёт Verifier.
func NewVerifier(leads LeadRepository, orders OrderAdvancer, sender Sender, passwords PasswordGenerator, logger *zap.Logger, loginURL string) *Verifier {
	return &Verifier{
		leads:     leads,
		orders:    orders,
		sender:    sender,
		passwords: passwords,
		logger:    logger,
		loginURL:  loginURL,
		now:       time.Now,
	}
}

// Verify подтверждает оплату покупки orderID.
//
// Если контакт не найден, возвращается repository.ErrLeadNotFound и ничего не меняется.
// Если доступ уже доставлен, возвращается repository.ErrAlreadyVerified. Ошибка с
// chat.ErrSendFailed означает, что пароль сохранён, но не доставлен, и вызов можно повторить.
// Отмена ctx первого вызывающего не прерывает подтверждение, общее для всех ожидающих.
func (v *Verifier) Verify(ctx context.Context, orderID string) (*VerificationResult, error) {
	res, err, shared := v.group.Do(orderID, func() (any, error) {
		return v.verify(context.WithoutCancel(ctx), orderID)
	})
	if shared {
		v.logger.Info("verification call shared", zap.String("order", orderID))
	}
	if err != nil {
		return nil, err
	}
	return res.(*VerificationResult), nil
}

func (v *Verifier) verify(ctx context.Context, orderID string) (*VerificationResult, error) {
	// 1. контакт, оформивший покупку
	lead, err := v.leads.FindLeadByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrLeadNotFound) {
			v.logger.Warn("verification: no lead for order", zap.String("order", orderID))
		} else {
			v.logger.Error("verification: find lead", zap.String("order", orderID), zap.Error(err))
		}
		return nil, err
	}

	// 2. данные для сообщения
	name := firstNonEmpty(lead.Name, model.DefaultLeadName)
	email := firstNonEmpty(lead.Email, PlaceholderEmail)
	seed := lead.Surname
	if seed == "" {
		seed, _, _ = strings.Cut(email, "@")
	}

	// 3. пароль
	password := v.passwords.Generate(seed)

	// 4. сохранить до отправки
	product := firstNonEmpty(lead.ProductPurchased, lead.ProductOfInterest)
	if _, err := v.leads.MarkVerified(ctx, lead.Phone, model.Verification{
		ProductLabel: product,
		Password:     password,
	}); err != nil {
		v.logger.Error("verification: persist",
			zap.String("order", orderID), zap.String("phone", lead.Phone), zap.Error(err))
		return nil, err
	}

	v.advanceOrder(ctx, firstNonEmpty(lead.OrderID, orderID))

	// 5. уведомить клиента
	text := accessMessage(name, firstNonEmpty(product, orderID), email, password, v.loginURL)
	if err := v.sender.Send(ctx, chat.Address(lead.Phone), text); err != nil {
		v.logger.Error("verification: access message not delivered",
			zap.String("order", orderID), zap.String("phone", lead.Phone), zap.Error(err))
		return nil, fmt.Errorf("notify %s: %w", lead.Phone, err)
	}

	if err := v.leads.MarkAccessNotified(ctx, lead.Phone); err != nil {
		v.logger.Error("verification: mark notified",
			zap.String("order", orderID), zap.String("phone", lead.Phone), zap.Error(err))
	}

	if err := v.leads.AppendInteraction(ctx, lead.Phone, model.Interaction{
		At:      v.now().UTC(),
		Emotion: string(extract.EmotionNeutral),
		Intent:  string(extract.IntentPayment),
		Context: "payment verified for " + orderID,
	}); err != nil {
		v.logger.Warn("verification: append interaction", zap.String("phone", lead.Phone), zap.Error(err))
	}

	// 6.
	v.logger.Info("payment verified",
		zap.String("order", orderID), zap.String("phone", lead.Phone))

	return &VerificationResult{OrderID: orderID, Phone: lead.Phone, Email: email}, nil
}

// advanceOrder переводит связанный заказ из pending в payment_verified. Заказа может
// не быть, если покупка известна только по переписке.
func (v *Verifier) advanceOrder(ctx context.Context, orderID string) {
	if v.orders == nil {
		return
	}

	_, err := v.orders.Advance(ctx, orderID, model.OrderStatusPending, model.OrderStatusPaymentVerified)
	switch {
	case err == nil:
		v.logger.Info("order moved to payment_verified", zap.String("order", orderID))
	case errors.Is(err, repository.ErrOrderNotFound), errors.Is(err, repository.ErrOrderStatusChanged):
		v.logger.Debug("order not advanced", zap.String("order", orderID), zap.Error(err))
	default:
		v.logger.Warn("order not advanced", zap.String("order", orderID), zap.Error(err))
	}
}

func accessMessage(name, product, email, password, loginURL string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hola %s 👋\n\n", name)
	fmt.Fprintf(&b, "✅ Tu pago de *%s* fue verificado.\n\n", product)
	b.WriteString("Tus datos de acceso:\n")
	fmt.Fprintf(&b, "👤 Usuario: %s\n", email)
	fmt.Fprintf(&b, "🔑 Contraseña: %s\n\n", password)
	fmt.Fprintf(&b, "Ingresa aquí: %s", loginURL)
	return b.String()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
