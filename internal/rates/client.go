// Package rates предоставляет кешируемый клиент внешнего сервиса курсов валют.
package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/mmeshcher/cursos-bot/internal/model"
)

var (
	// ErrUnavailable возвращается, если курс не удалось получить и кеш пуст.
	ErrUnavailable = errors.New("exchange rates unavailable")
	// ErrUnknownCurrency возвращается, если сервис не знает запрошенную валюту.
	ErrUnknownCurrency = errors.New("unknown currency")
)

// Client запрашивает курсы к доллару и хранит последнюю удачную таблицу.
type Client struct {
	baseURL    string
	ttl        time.Duration
	httpClient *retryablehttp.Client
	now        func() time.Time

	mu        sync.RWMutex
	table     map[string]float64
	fetchedAt time.Time
}

type latestResponse struct {
	Rates map[string]float64 `json:"rates"`
}

// NewClient создаёт клиент с одним повтором и таймаутом 3 секунды на попытку.
func NewClient(baseURL string, ttl time.Duration) *Client {
	base := strings.TrimRight(baseURL, "/")
	if base != "" && !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}

	hc := retryablehttp.NewClient()
	hc.RetryMax = 1
	hc.RetryWaitMin = 100 * time.Millisecond
	hc.RetryWaitMax = 500 * time.Millisecond
	hc.HTTPClient.Timeout = 3 * time.Second
	hc.Logger = nil

	return &Client{
		baseURL:    base,
		ttl:        ttl,
		httpClient: hc,
		now:        time.Now,
	}
}

// Rate возвращает курс валюты. Если сервис недоступен, отдаёт последний
// удачный результат с признаком Stale.
func (c *Client) Rate(ctx context.Context, currency string) (model.ExchangeRate, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))

	table, fetchedAt, fresh := c.cached()
	stale := false
	if !fresh {
		var err error
		table, err = c.fetch(ctx)
		if err != nil {
			c.mu.RLock()
			table, fetchedAt = c.table, c.fetchedAt
			c.mu.RUnlock()

			if table == nil {
				return model.ExchangeRate{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
			}
			stale = true
		} else {
			fetchedAt = c.store(table)
		}
	}

	rate, ok := table[currency]
	if !ok {
		return model.ExchangeRate{}, fmt.Errorf("%w: %s", ErrUnknownCurrency, currency)
	}

	return model.ExchangeRate{
		Currency:  currency,
		Rate:      rate,
		FetchedAt: fetchedAt,
		Stale:     stale,
	}, nil
}

func (c *Client) cached() (map[string]float64, time.Time, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.table == nil || c.now().Sub(c.fetchedAt) > c.ttl {
		return nil, time.Time{}, false
	}
	return c.table, c.fetchedAt, true
}

func (c *Client) store(table map[string]float64) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.table = table
	c.fetchedAt = c.now()
	return c.fetchedAt
}

func (c *Client) fetch(ctx context.Context) (map[string]float64, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("rates client not configured")
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/latest/USD", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var result latestResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(result.Rates) == 0 {
		return nil, fmt.Errorf("empty rates table")
	}

	return result.Rates, nil
}
