// Package config содержит логику чтения конфигурации сервиса.
package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const defaultRunAddress = "localhost:8080"

// Config содержит параметры конфигурации сервиса.
type Config struct {
	RunAddress    string `env:"RUN_ADDRESS"`
	DatabaseURI   string `env:"DATABASE_URI"`
	AuthSecret    string `env:"AUTH_SECRET"`
	AdminUser     string `env:"ADMIN_USER"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
	RatesURL      string `env:"RATES_URL"`

	Chat ChatConfig

	LoginURL          string        `env:"LOGIN_URL" envDefault:"https://cursos.example.com/login"`
	RatesTTL          time.Duration `env:"RATES_TTL" envDefault:"1h"`
	StrictTransitions bool          `env:"STRICT_TRANSITIONS" envDefault:"true"`
}

// ChatConfig описывает подключение к шлюзу WhatsApp.
type ChatConfig struct {
	GatewayURL     string        `env:"CHAT_GATEWAY_URL"`
	GatewayToken   string        `env:"CHAT_GATEWAY_TOKEN"`
	WebhookToken   string        `env:"CHAT_WEBHOOK_TOKEN"`
	AdminContact   string        `env:"CHAT_ADMIN_CONTACT"`
	ReconnectDelay time.Duration `env:"CHAT_RECONNECT_DELAY" envDefault:"5s"`
	HealthInterval time.Duration `env:"CHAT_HEALTH_INTERVAL" envDefault:"30s"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Значения из окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	fromEnv := *cfg

	flag.StringVar(&cfg.RunAddress, "a", defaultRunAddress, "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.AuthSecret, "s", "", "secret for admin session cookie")
	flag.StringVar(&cfg.AdminUser, "u", "admin", "admin login")
	flag.StringVar(&cfg.AdminPassword, "p", "", "admin password")
	flag.StringVar(&cfg.Chat.GatewayURL, "g", "", "WhatsApp gateway address")
	flag.StringVar(&cfg.RatesURL, "r", "", "exchange rates service address")

	flag.Parse()

	override(&cfg.RunAddress, fromEnv.RunAddress)
	override(&cfg.DatabaseURI, fromEnv.DatabaseURI)
	override(&cfg.AuthSecret, fromEnv.AuthSecret)
	override(&cfg.AdminUser, fromEnv.AdminUser)
	override(&cfg.AdminPassword, fromEnv.AdminPassword)
	override(&cfg.Chat.GatewayURL, fromEnv.Chat.GatewayURL)
	override(&cfg.RatesURL, fromEnv.RatesURL)

	if cfg.RunAddress == "" {
		cfg.RunAddress = defaultRunAddress
	}

	return cfg, nil
}

func override(dst *string, envValue string) {
	if envValue != "" {
		*dst = envValue
	}
}
