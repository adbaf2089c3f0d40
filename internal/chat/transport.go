package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmeshcher/cursos-bot/internal/validation"
)

// ErrSendFailed оборачивает любые ошибки доставки исходящего сообщения.
var ErrSendFailed = errors.New("chat message not delivered")

// Transport отправляет сообщения через активную сессию реестра.
type Transport struct {
	registry *Registry
}

// NewTransport создаёт транспорт поверх реестра сессий.
func NewTransport(r *Registry) *Transport {
	return &Transport{registry: r}
}

// Send отправляет текст получателю вида «<телефон>@s.whatsapp.net».
func (t *Transport) Send(ctx context.Context, to, text string) error {
	s, err := t.registry.Active()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSendFailed, err)
	}

	phone := validation.NormalizePhone(to)
	if phone == "" {
		return fmt.Errorf("%w: bad recipient %q", ErrSendFailed, to)
	}

	if err := s.SendText(ctx, phone, text); err != nil {
		return fmt.Errorf("%w: %w", ErrSendFailed, err)
	}
	return nil
}
