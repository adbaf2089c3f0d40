package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/cursos-bot/internal/chat"
	"github.com/mmeshcher/cursos-bot/internal/extract"
	"github.com/mmeshcher/cursos-bot/internal/model"
	"github.com/mmeshcher/cursos-bot/internal/repository"
	"github.com/mmeshcher/cursos-bot/internal/validation"
)

// Outcome описывает, как бот обработал входящее сообщение.
type Outcome int

const (
	OutcomeIgnored Outcome = iota
	OutcomeAdminCommand
	OutcomeOrder
	OutcomeClarify
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeAdminCommand:
		return "admin_command"
	case OutcomeOrder:
		return "order"
	case OutcomeClarify:
		return "clarify"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Ответы бота.
const (
	replyClarify = "Hola 👋 No pude identificar tu pedido. " +
		"Por favor envía el mensaje de confirmación generado en nuestro sitio."
	replyRetryLater = "Lo sentimos, no pudimos registrar tu pedido en este momento. " +
		"Por favor intenta de nuevo en unos minutos."
)

// OrderCreator сохраняет заказ, пришедший из чата.
type OrderCreator interface {
	Create(ctx context.Context, in OrderInput) (*model.Order, error)
}

// PaymentVerifier запускает подтверждение оплаты.
type PaymentVerifier interface {
	Verify(ctx context.Context, orderID string) (*VerificationResult, error)
}

// Bot обрабатывает входящие сообщения чата.
type Bot struct {
	leads        LeadRepository
	orders       OrderCreator
	verifier     PaymentVerifier
	sender       Sender
	logger       *zap.Logger
	adminContact string
	now          func() time.Time
}

// NewBot создаёт Bot. В adminContact передаётся номер, от которого принимаются команды администратора.
func NewBot(leads LeadRepository, orders OrderCreator, verifier PaymentVerifier, sender Sender, logger *zap.Logger, adminContact string) *Bot {
	return &Bot{
		leads:        leads,
		orders:       orders,
		verifier:     verifier,
		sender:       sender,
		logger:       logger,
		adminContact: validation.NormalizePhone(adminContact),
		now:          time.Now,
	}
}

// HandleMessage обрабатывает одно сообщение. Паника при обработке перехватывается
// и возвращается как ошибка, чтобы не останавливать приём сообщений.
func (b *Bot) HandleMessage(ctx context.Context, msg chat.Message) (outcome Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("panic while handling chat message",
				zap.String("from", msg.From), zap.Any("panic", r), zap.Stack("stack"))
			outcome, err = OutcomeFailed, fmt.Errorf("panic: %v", r)
		}
	}()

	text := strings.TrimSpace(msg.Text())
	if msg.FromMe || !msg.IsPrivate() || text == "" {
		return OutcomeIgnored, nil
	}

	phone := validation.NormalizePhone(msg.From)
	if phone == "" {
		return OutcomeIgnored, nil
	}

	if b.adminContact != "" && phone == b.adminContact {
		if orderID, ok := extract.ParseAdminCommand(text); ok {
			return OutcomeAdminCommand, b.handleAdminCommand(ctx, phone, orderID)
		}
	}

	if extract.IsOrderNotification(text) {
		return b.handleOrder(ctx, phone, msg.PushName, text)
	}

	return OutcomeClarify, b.reply(ctx, phone, replyClarify)
}

func (b *Bot) handleAdminCommand(ctx context.Context, admin, orderID string) error {
	b.logger.Info("admin verification command", zap.String("order", orderID))

	res, err := b.verifier.Verify(ctx, orderID)

	var text string
	switch {
	case err == nil:
		text = fmt.Sprintf("✅ Pago verificado para %s. Acceso enviado a %s.", orderID, res.Phone)
	case errors.Is(err, repository.ErrLeadNotFound):
		text = fmt.Sprintf("❌ No encontré un cliente para la compra %s.", orderID)
	case errors.Is(err, repository.ErrAlreadyVerified):
		text = fmt.Sprintf("ℹ️ La compra %s ya fue verificada y el acceso ya fue enviado.", orderID)
	case errors.Is(err, chat.ErrSendFailed):
		text = fmt.Sprintf("⚠️ Pago de %s registrado, pero no pude enviar el acceso al cliente. Repite el comando.", orderID)
	default:
		text = fmt.Sprintf("⚠️ Error al verificar %s. Intenta de nuevo.", orderID)
	}

	return b.reply(ctx, admin, text)
}

func (b *Bot) handleOrder(ctx context.Context, phone, pushName, text string) (Outcome, error) {
	c := extract.ParseOrder(text)
	now := b.now().UTC()
	intent, emotion := extract.DetectIntent(text)

	name := firstNonEmpty(c.FirstName(), pushName, model.DefaultLeadName)
	if _, _, err := b.leads.UpsertLead(ctx, phone, model.LeadPatch{Name: &name, LastSeen: &now}); err != nil {
		return b.storageFailure(ctx, phone, "upsert lead", err)
	}

	patch := b.orderPatch(ctx, phone, c, text, now)
	if _, err := b.leads.UpdateLeadFields(ctx, phone, patch); err != nil {
		return b.storageFailure(ctx, phone, "update lead", err)
	}

	if err := b.leads.AppendInteraction(ctx, phone, model.Interaction{
		At:      now,
		Emotion: string(emotion),
		Intent:  string(intent),
		Context: "order notification " + c.OrderID,
	}); err != nil {
		b.logger.Warn("append interaction", zap.String("phone", phone), zap.Error(err))
	}

	b.recordOrder(ctx, phone, c)

	b.logger.Info("order notification handled",
		zap.String("phone", phone), zap.String("order", c.OrderID), zap.String("course", c.Course))

	return OutcomeOrder, b.reply(ctx, phone, confirmationMessage(name, c))
}

// orderPatch собирает обновление контакта по разобранному уведомлению. Если сообщение
// относится к новой покупке, статус оплаты сбрасывается в pending.
func (b *Bot) orderPatch(ctx context.Context, phone string, c extract.Candidate, text string, now time.Time) model.LeadPatch {
	p := model.LeadPatch{
		LastSeen:    &now,
		LastMessage: &text,
	}

	if name := c.FirstName(); name != "" {
		p.Name = &name
	}
	if c.Surname != "" {
		p.Surname = &c.Surname
	}
	if email := validation.NormalizeEmail(c.Email); email != "" {
		p.Email = &email
	}
	if c.Course != "" {
		p.ProductOfInterest = &c.Course
		p.ProductPurchased = &c.Course
	}
	if c.PaymentMethod != "" {
		p.PaymentMethod = &c.PaymentMethod
	}

	awaitingProof := c.Proof == ""
	p.AwaitingProof = &awaitingProof
	if !awaitingProof {
		p.PaymentProof = &c.Proof
	}
	awaitingMethod := c.PaymentMethod == ""
	p.AwaitingPaymentMethod = &awaitingMethod

	if c.OrderID != "" {
		p.OrderID = &c.OrderID

		current, err := b.leads.FindLead(ctx, phone)
		switch {
		case err != nil:
			b.logger.Warn("payment status not reset, lead lookup failed",
				zap.String("phone", phone), zap.String("order", c.OrderID), zap.Error(err))
		case current.OrderID != c.OrderID:
			pending := model.PaymentStatusPending
			p.PaymentStatus = &pending
		}
	}

	return p
}

// recordOrder сохраняет заказ в хранилище заказов. Уведомление без полного набора
// данных остаётся только в контакте.
func (b *Bot) recordOrder(ctx context.Context, phone string, c extract.Candidate) {
	if c.OrderID == "" || b.orders == nil {
		return
	}

	in := OrderInput{
		ID:            c.OrderID,
		Title:         c.Course,
		PriceLabel:    c.Price,
		Name:          c.FirstName(),
		Surname:       c.Surname,
		Email:         c.Email,
		Phone:         phone,
		Channel:       model.ChannelChat,
		PaymentMethod: c.PaymentMethod,
		Proof:         model.PaymentProof{Reference: c.Proof, Date: c.Date},
	}
	if price, ok := parsePrice(c.Price); ok {
		in.Price = &price
	}

	_, err := b.orders.Create(ctx, in)
	var verr *ValidationError
	switch {
	case err == nil:
		b.logger.Info("order created from chat", zap.String("order", c.OrderID), zap.String("phone", phone))
	case errors.Is(err, repository.ErrOrderExists):
		b.logger.Debug("order already stored", zap.String("order", c.OrderID))
	case errors.As(err, &verr):
		b.logger.Info("order kept on lead only",
			zap.String("order", c.OrderID), zap.String("field", verr.Field), zap.String("reason", verr.Message))
	default:
		b.logger.Error("create order from chat", zap.String("order", c.OrderID), zap.Error(err))
	}
}

func (b *Bot) storageFailure(ctx context.Context, phone, op string, err error) (Outcome, error) {
	b.logger.Error("chat order: "+op, zap.String("phone", phone), zap.Error(err))
	if rerr := b.reply(ctx, phone, replyRetryLater); rerr != nil {
		return OutcomeFailed, errors.Join(err, rerr)
	}
	return OutcomeFailed, err
}

func (b *Bot) reply(ctx context.Context, phone, text string) error {
	if err := b.sender.Send(ctx, chat.Address(phone), text); err != nil {
		b.logger.Warn("chat reply not delivered", zap.String("phone", phone), zap.Error(err))
		return err
	}
	return nil
}

func confirmationMessage(name string, c extract.Candidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "¡Gracias %s! 🙌 Recibimos tu pedido", name)
	if c.Course != "" {
		fmt.Fprintf(&b, " de *%s*", c.Course)
	}
	b.WriteString(".\n")
	if c.OrderID != "" {
		fmt.Fprintf(&b, "ID de compra: %s\n", c.OrderID)
	}
	if c.Proof == "" {
		b.WriteString("Cuando realices el pago, envíanos el comprobante por aquí.")
	} else {
		b.WriteString("Estamos verificando tu pago. Te enviaremos tus accesos en breve.")
	}
	return b.String()
}
