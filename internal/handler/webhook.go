package handler

import (
	"crypto/subtle"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/mmeshcher/cursos-bot/internal/chat"
)

const maxWebhookBody = 1 << 20

// ChatWebhook принимает события шлюза WhatsApp. Необработанные сообщения
// подтверждаются статусом 200, чтобы шлюз не повторял доставку.
func (h *Handler) ChatWebhook(w http.ResponseWriter, r *http.Request) {
	if h.options.WebhookToken != "" {
		token := r.URL.Query().Get("token")
		if subtle.ConstantTimeCompare([]byte(token), []byte(h.options.WebhookToken)) != 1 {
			h.writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
	}

	if h.services.Bot == nil {
		h.writeError(w, http.StatusServiceUnavailable, "chat disabled")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "cannot read body")
		return
	}

	msg, ok, err := chat.DecodeWebhook(body)
	if err != nil {
		if errors.Is(err, chat.ErrBadPayload) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.writeServiceError(w, err)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusOK)
		return
	}

	outcome, err := h.services.Bot.HandleMessage(r.Context(), msg)
	if err != nil {
		h.logger.Warn("chat message handling failed",
			zap.String("from", msg.From), zap.String("kind", msg.Kind.String()),
			zap.String("outcome", outcome.String()), zap.Error(err))
	} else {
		h.logger.Debug("chat message handled",
			zap.String("from", msg.From), zap.String("kind", msg.Kind.String()),
			zap.String("outcome", outcome.String()))
	}

	w.WriteHeader(http.StatusOK)
}
