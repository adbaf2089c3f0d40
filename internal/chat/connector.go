package chat

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Dialer устанавливает сессии чата и проверяет их состояние.
type Dialer interface {
	Connect(ctx context.Context) (Session, error)
	Alive(ctx context.Context, s Session) error
}

// Connector поддерживает активную сессию в реестре, переподключаясь с фиксированной задержкой.
type Connector struct {
	dialer         Dialer
	registry       *Registry
	logger         *zap.Logger
	reconnectDelay time.Duration
	healthInterval time.Duration
}

// NewConnector создаёт Connector.
func NewConnector(d Dialer, r *Registry, logger *zap.Logger, reconnectDelay, healthInterval time.Duration) *Connector {
	return &Connector{
		dialer:         d,
		registry:       r,
		logger:         logger,
		reconnectDelay: reconnectDelay,
		healthInterval: healthInterval,
	}
}

// Run держит соединение до отмены ctx.
func (c *Connector) Run(ctx context.Context) {
	for {
		s, err := c.dialer.Connect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Warn("chat connect failed", zap.Error(err), zap.Duration("retryIn", c.reconnectDelay))
			if !sleep(ctx, c.reconnectDelay) {
				return
			}
			continue
		}

		c.registry.SetActive(s)
		c.logger.Info("chat session active", zap.String("session", s.ID()))

		err = c.watch(ctx, s)
		c.registry.Clear(s)
		if ctx.Err() != nil {
			return
		}

		c.logger.Warn("chat session lost", zap.String("session", s.ID()), zap.Error(err))
		if !sleep(ctx, c.reconnectDelay) {
			return
		}
	}
}

func (c *Connector) watch(ctx context.Context, s Session) error {
	ticker := time.NewTicker(c.healthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := c.dialer.Alive(ctx, s); err != nil {
				return err
			}
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
