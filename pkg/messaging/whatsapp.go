package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/worldtek/canteen-backend/pkg/config"
	pkgerrors "github.com/worldtek/canteen-backend/pkg/errors"
)

const responseBodyReadLimit int64 = 1024

var errWhatsAppConfigRequired = errors.New("whatsapp base url, username and password are required")

// WhatsAppClient wraps the basic-auth session messaging API used for chatbot
// replies and order notifications.
type WhatsAppClient struct {
	httpClient *http.Client
	baseURL    string
	username   string
	password   string
	sourceAddr string
}

// WhatsAppOption configures optional client behavior.
type WhatsAppOption func(*WhatsAppClient)

// WithWhatsAppHTTPClient overrides the default HTTP client.
func WithWhatsAppHTTPClient(client *http.Client) WhatsAppOption {
	return func(c *WhatsAppClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewWhatsAppClient builds the WhatsApp client from configuration.
func NewWhatsAppClient(cfg config.WhatsAppConfig, opts ...WhatsAppOption) (*WhatsAppClient, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" || strings.TrimSpace(cfg.Username) == "" || cfg.Password == "" {
		return nil, errWhatsAppConfigRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &WhatsAppClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSpace(cfg.BaseURL),
		username:   strings.TrimSpace(cfg.Username),
		password:   cfg.Password,
		sourceAddr: strings.TrimSpace(cfg.SourceAddr),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

type sendTextRequest struct {
	SessionID string      `json:"sessionId"`
	To        string      `json:"to"`
	From      string      `json:"from"`
	Message   textMessage `json:"message"`
}

type textMessage struct {
	Text string `json:"text"`
}

// SendText delivers a plain-text message to the recipient number.
func (c *WhatsAppClient) SendText(ctx context.Context, to, text string) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "whatsapp client not configured")
	}
	if strings.TrimSpace(to) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient is required")
	}
	if text == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "message text is required")
	}

	payload := sendTextRequest{
		SessionID: uuid.NewString(),
		To:        to,
		From:      c.sourceAddr,
		Message:   textMessage{Text: text},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal whatsapp request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build whatsapp request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.username, c.password)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute whatsapp request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "whatsapp send failed")
	}

	return nil
}
