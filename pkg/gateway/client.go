package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/worldtek/canteen-backend/pkg/config"
	pkgerrors "github.com/worldtek/canteen-backend/pkg/errors"
)

const (
	apiVersion     = "2023-08-01"
	linkStatusPaid = "PAID"

	responseBodyReadLimit int64 = 1024
)

var (
	errCredentialsRequired = errors.New("gateway client id and secret are required")
	paiseFactor            = decimal.NewFromInt(100)
)

// Client wraps the payment-link provider API used for online settlements.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	clientID     string
	clientSecret string
	linkPrefix   string
	returnURL    string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured provider base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewClient builds the payment-link client from configuration.
func NewClient(cfg config.GatewayConfig, opts ...Option) (*Client, error) {
	if strings.TrimSpace(cfg.ClientID) == "" || strings.TrimSpace(cfg.ClientSecret) == "" {
		return nil, errCredentialsRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &Client{
		httpClient:   &http.Client{Timeout: timeout},
		baseURL:      strings.TrimSpace(cfg.BaseURL),
		clientID:     strings.TrimSpace(cfg.ClientID),
		clientSecret: strings.TrimSpace(cfg.ClientSecret),
		linkPrefix:   cfg.LinkPrefix,
		returnURL:    strings.TrimSpace(cfg.ReturnURL),
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// LinkID derives the provider link identifier for a payment. The payment id is
// kept as the final underscore-separated segment so callbacks can recover it.
func (c *Client) LinkID(paymentID string, now time.Time) string {
	return fmt.Sprintf("%s%s_%s", c.linkPrefix, now.Format("02012006"), paymentID)
}

// PaymentIDFromLinkID extracts the payment id embedded in a link identifier.
func PaymentIDFromLinkID(linkID string) (string, error) {
	idx := strings.LastIndex(linkID, "_")
	if idx < 0 || idx == len(linkID)-1 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "malformed link id")
	}
	return linkID[idx+1:], nil
}

// CreateLinkInput describes a payment link to be created.
type CreateLinkInput struct {
	LinkID        string
	AmountPaise   int64
	Currency      string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
}

// PaymentLink is the provider handle returned on creation.
type PaymentLink struct {
	LinkID  string
	LinkURL string
}

// LinkDetails is the provider view of an existing link.
type LinkDetails struct {
	LinkID      string
	Status      string
	ReferenceID string
}

// Paid reports whether the link settled.
func (d LinkDetails) Paid() bool {
	return d.Status == linkStatusPaid
}

type createLinkRequest struct {
	LinkID          string          `json:"link_id"`
	LinkAmount      decimal.Decimal `json:"link_amount"`
	LinkCurrency    string          `json:"link_currency"`
	LinkPurpose     string          `json:"link_purpose"`
	CustomerDetails customerDetails `json:"customer_details"`
	LinkMeta        linkMeta        `json:"link_meta"`
	LinkNotify      linkNotify      `json:"link_notify"`
	PaymentMethods  []string        `json:"link_payment_methods"`
}

type customerDetails struct {
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email,omitempty"`
	CustomerPhone string `json:"customer_phone"`
}

type linkMeta struct {
	ReturnURL string `json:"return_url,omitempty"`
}

type linkNotify struct {
	SendSMS         bool `json:"send_sms"`
	SendEmail       bool `json:"send_email"`
	PaymentReceived bool `json:"payment_received"`
}

// CreatePaymentLink registers a UPI payment link for the given amount.
func (c *Client) CreatePaymentLink(ctx context.Context, in CreateLinkInput) (*PaymentLink, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeGateway, "gateway client not configured")
	}
	if in.LinkID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "link id is required")
	}
	if in.AmountPaise <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "link amount must be positive")
	}

	returnURL := c.returnURL
	if returnURL != "" {
		returnURL = fmt.Sprintf("%s?link_id=%s", returnURL, url.QueryEscape(in.LinkID))
	}

	payload := createLinkRequest{
		LinkID:       in.LinkID,
		LinkAmount:   decimal.NewFromInt(in.AmountPaise).Div(paiseFactor),
		LinkCurrency: in.Currency,
		LinkPurpose:  "Payment",
		CustomerDetails: customerDetails{
			CustomerName:  in.CustomerName,
			CustomerEmail: in.CustomerEmail,
			CustomerPhone: in.CustomerPhone,
		},
		LinkMeta:       linkMeta{ReturnURL: returnURL},
		LinkNotify:     linkNotify{},
		PaymentMethods: []string{"upi"},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "marshal link request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildURL("links"), bytes.NewReader(body))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "build link request")
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "execute link request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "create payment link failed")
	}

	var apiResp struct {
		LinkID  string `json:"link_id"`
		LinkURL string `json:"link_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "decode link response")
	}

	return &PaymentLink{LinkID: apiResp.LinkID, LinkURL: apiResp.LinkURL}, nil
}

// GetLink fetches the current state of a previously created link.
func (c *Client) GetLink(ctx context.Context, linkID string) (*LinkDetails, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeGateway, "gateway client not configured")
	}
	trimmed := strings.TrimSpace(linkID)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "link id is required")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL("links/"+url.PathEscape(trimmed)), nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "build link status request")
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "execute link status request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "fetch payment link failed")
	}

	var apiResp struct {
		LinkID     string      `json:"link_id"`
		LinkStatus string      `json:"link_status"`
		CFLinkID   json.Number `json:"cf_link_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeGateway, err, "decode link status response")
	}

	return &LinkDetails{
		LinkID:      apiResp.LinkID,
		Status:      apiResp.LinkStatus,
		ReferenceID: apiResp.CFLinkID.String(),
	}, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-client-id", c.clientID)
	req.Header.Set("x-client-secret", c.clientSecret)
	req.Header.Set("x-api-version", apiVersion)
}

func (c *Client) buildURL(path string) string {
	trimmed := strings.TrimRight(c.baseURL, "/")
	path = strings.TrimLeft(path, "/")
	return fmt.Sprintf("%s/%s", trimmed, path)
}
