// Package main запускает HTTP-сервер и чат-бот сервиса продажи курсов.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/cursos-bot/internal/chat"
	"github.com/mmeshcher/cursos-bot/internal/config"
	"github.com/mmeshcher/cursos-bot/internal/credential"
	"github.com/mmeshcher/cursos-bot/internal/handler"
	"github.com/mmeshcher/cursos-bot/internal/middleware"
	"github.com/mmeshcher/cursos-bot/internal/rates"
	"github.com/mmeshcher/cursos-bot/internal/repository"
	"github.com/mmeshcher/cursos-bot/internal/service"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	repo, err := repository.NewPostgresRepository(cfg.DatabaseURI)
	if err != nil {
		sugar.Fatalw("database initialization error", "error", err.Error())
	}
	defer repo.Close()

	registry := chat.NewRegistry()
	transport := chat.NewTransport(registry)

	orders := service.NewOrders(repo, repo, cfg.StrictTransitions)
	verifier := service.NewVerifier(repo, orders, transport, credential.NewGenerator(), logger, cfg.LoginURL)
	bot := service.NewBot(repo, orders, verifier, transport, logger, cfg.Chat.AdminContact)

	services := handler.Services{
		Orders:   orders,
		Leads:    service.NewLeads(repo),
		Verifier: verifier,
		Catalog:  service.NewCatalog(repo),
		Bot:      bot,
	}
	if cfg.RatesURL != "" {
		services.Rates = rates.NewClient(cfg.RatesURL, cfg.RatesTTL)
	}

	authMiddleware := middleware.NewAuthMiddleware(cfg.AuthSecret)
	h := handler.NewHandler(services, handler.Options{
		AdminUser:     cfg.AdminUser,
		AdminPassword: cfg.AdminPassword,
		WebhookToken:  cfg.Chat.WebhookToken,
	}, logger, authMiddleware)

	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           h.SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Поддержание сессии со шлюзом WhatsApp
	if cfg.Chat.GatewayURL != "" {
		connector := chat.NewConnector(
			chat.NewGatewayClient(cfg.Chat.GatewayURL, cfg.Chat.GatewayToken),
			registry, logger, cfg.Chat.ReconnectDelay, cfg.Chat.HealthInterval,
		)
		g.Go(func() error {
			connector.Run(ctx)
			return nil
		})
	} else {
		sugar.Warn("CHAT_GATEWAY_URL is empty, outgoing chat messages are disabled")
	}

	g.Go(func() error {
		sugar.Infow("starting server", "addr", cfg.RunAddress, "strictTransitions", cfg.StrictTransitions)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
