package messaging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/worldtek/canteen-backend/pkg/config"
	pkgerrors "github.com/worldtek/canteen-backend/pkg/errors"
)

var errSMSConfigRequired = errors.New("sms base url and api key are required")

// SMSClient wraps the transactional SMS gateway used for OTP delivery and
// order confirmations.
type SMSClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	senderID   string
}

// SMSOption configures optional client behavior.
type SMSOption func(*SMSClient)

// WithSMSHTTPClient overrides the default HTTP client.
func WithSMSHTTPClient(client *http.Client) SMSOption {
	return func(c *SMSClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewSMSClient builds the SMS client from configuration.
func NewSMSClient(cfg config.SMSConfig, opts ...SMSOption) (*SMSClient, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" || strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errSMSConfigRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &SMSClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSpace(cfg.BaseURL),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		senderID:   strings.TrimSpace(cfg.SenderID),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// Send delivers a templated message to the mobile number via the gateway's
// GET API.
func (c *SMSClient) Send(ctx context.Context, mobile, message, templateID string) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "sms client not configured")
	}
	if strings.TrimSpace(mobile) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "mobile is required")
	}
	if message == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "message is required")
	}

	params := url.Values{}
	params.Set("apikey", c.apiKey)
	params.Set("senderid", c.senderID)
	params.Set("username", c.senderID)
	params.Set("mobile", mobile)
	params.Set("message", message)
	if templateID != "" {
		params.Set("templateid", templateID)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build sms request")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute sms request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "sms send failed")
	}

	return nil
}
