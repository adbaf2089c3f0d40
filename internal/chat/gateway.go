package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"
)

// ErrDisconnected возвращается, если шлюз сообщает о разорванной сессии WhatsApp.
var ErrDisconnected = errors.New("chat gateway session disconnected")

// GatewayClient инкапсулирует HTTP-взаимодействие со шлюзом WhatsApp (API в стиле Wuzapi).
type GatewayClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	generation atomic.Int64
}

// NewGatewayClient создаёт клиент шлюза по указанному адресу и токену пользователя шлюза.
func NewGatewayClient(baseURL, token string) *GatewayClient {
	base := strings.TrimRight(baseURL, "/")
	if base != "" && !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}

	return &GatewayClient{
		baseURL: base,
		token:   token,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type gatewayResponse struct {
	Code    int             `json:"code"`
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

type statusData struct {
	Connected bool `json:"Connected"`
	LoggedIn  bool `json:"LoggedIn"`
}

func (c *GatewayClient) do(ctx context.Context, method, path string, payload any) (*gatewayResponse, error) {
	if c == nil || c.baseURL == "" {
		return nil, fmt.Errorf("chat gateway not configured")
	}

	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Token", c.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	var result gatewayResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK || !result.Success {
		return nil, fmt.Errorf("unexpected status: %d: %s", resp.StatusCode, result.Error)
	}

	return &result, nil
}

// Connect открывает сессию шлюза с подпиской на входящие сообщения.
func (c *GatewayClient) Connect(ctx context.Context) (Session, error) {
	_, err := c.do(ctx, http.MethodPost, "/session/connect", map[string]any{
		"Subscribe": []string{"Message"},
		"Immediate": true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect session: %w", err)
	}

	if err := c.checkStatus(ctx); err != nil {
		return nil, err
	}

	return &gatewaySession{
		id:     fmt.Sprintf("gateway-%d", c.generation.Add(1)),
		client: c,
	}, nil
}

// Alive проверяет, что сессия шлюза по-прежнему подключена.
func (c *GatewayClient) Alive(ctx context.Context, _ Session) error {
	return c.checkStatus(ctx)
}

func (c *GatewayClient) checkStatus(ctx context.Context) error {
	resp, err := c.do(ctx, http.MethodGet, "/session/status", nil)
	if err != nil {
		return fmt.Errorf("session status: %w", err)
	}

	var st statusData
	if err := json.Unmarshal(resp.Data, &st); err != nil {
		return fmt.Errorf("decode session status: %w", err)
	}
	if !st.Connected || !st.LoggedIn {
		return ErrDisconnected
	}
	return nil
}

func (c *GatewayClient) sendText(ctx context.Context, phone, text string) error {
	_, err := c.do(ctx, http.MethodPost, "/chat/send/text", map[string]string{
		"Phone": phone,
		"Body":  text,
	})
	if err != nil {
		return fmt.Errorf("send text: %w", err)
	}
	return nil
}

type gatewaySession struct {
	id     string
	client *GatewayClient
}

func (s *gatewaySession) ID() string {
	return s.id
}

func (s *gatewaySession) SendText(ctx context.Context, phone, body string) error {
	return s.client.sendText(ctx, phone, body)
}
