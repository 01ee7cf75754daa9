// Package whatsapp wraps the WhatsApp Business Cloud API for PillSpark.
//
// It provides methods for sending text, image, and interactive messages
// through the Graph API messages endpoint.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/pillsparkai/pillspark-bot/internal/models"
)

// Constants for WhatsApp client configuration
const (
	// DefaultBaseURL is the Graph API root used when none is configured.
	DefaultBaseURL = "https://graph.facebook.com/v18.0"
	// DefaultRequestTimeout bounds each Graph API call.
	DefaultRequestTimeout = 15 * time.Second
	// ListFooterText is appended to interactive list messages.
	ListFooterText = "Powered by PillSpark"
)

// Sender is the interface for sending WhatsApp messages (for production and testing).
type Sender interface {
	SendText(ctx context.Context, to, body string) error
	SendImage(ctx context.Context, to, link, caption string) error
	SendInteractiveList(ctx context.Context, to, header, body, buttonLabel string, sections []models.ListSection) error
	SendInteractiveButtons(ctx context.Context, to, header, body string, buttons []models.Button) error
}

// Opts holds configuration options for the WhatsApp client.
type Opts struct {
	AccessToken   string
	PhoneNumberID string
	BaseURL       string
	HTTPClient    *http.Client
}

// Option defines a configuration option for the WhatsApp client.
type Option func(*Opts)

// WithAccessToken sets the Cloud API bearer token.
func WithAccessToken(token string) Option {
	return func(o *Opts) { o.AccessToken = token }
}

// WithPhoneNumberID sets the business phone number identifier.
func WithPhoneNumberID(id string) Option {
	return func(o *Opts) { o.PhoneNumberID = id }
}

// WithBaseURL overrides the Graph API root (tests point this at httptest servers).
func WithBaseURL(url string) Option {
	return func(o *Opts) { o.BaseURL = url }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *Opts) { o.HTTPClient = c }
}

// Client sends messages through the WhatsApp Cloud API.
type Client struct {
	accessToken   string
	phoneNumberID string
	baseURL       string
	httpClient    *http.Client
}

// NewClient creates a new WhatsApp Cloud API client, applying any provided options.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("WhatsApp NewClient options set",
		"accessToken_set", cfg.AccessToken != "",
		"phoneNumberID_set", cfg.PhoneNumberID != "",
		"baseURL", cfg.BaseURL)

	if cfg.AccessToken == "" {
		return nil, fmt.Errorf("whatsapp access token must be provided")
	}
	if cfg.PhoneNumberID == "" {
		return nil, fmt.Errorf("whatsapp phone number ID must be provided")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: DefaultRequestTimeout}
	}

	return &Client{
		accessToken:   cfg.AccessToken,
		phoneNumberID: cfg.PhoneNumberID,
		baseURL:       cfg.BaseURL,
		httpClient:    cfg.HTTPClient,
	}, nil
}

// SendText sends a plain text message.
func (c *Client) SendText(ctx context.Context, to, body string) error {
	if body == "" {
		return fmt.Errorf("message body cannot be empty")
	}
	payload := map[string]interface{}{
		"type": "text",
		"text": map[string]string{"body": body},
	}
	return c.post(ctx, to, payload)
}

// SendImage sends an image by URL with an optional caption.
func (c *Client) SendImage(ctx context.Context, to, link, caption string) error {
	if link == "" {
		return fmt.Errorf("image link cannot be empty")
	}
	payload := map[string]interface{}{
		"type": "image",
		"image": map[string]string{
			"link":    link,
			"caption": caption,
		},
	}
	return c.post(ctx, to, payload)
}

// SendInteractiveList sends a list message with selectable rows.
func (c *Client) SendInteractiveList(ctx context.Context, to, header, body, buttonLabel string, sections []models.ListSection) error {
	payload := map[string]interface{}{
		"type": "interactive",
		"interactive": map[string]interface{}{
			"type":   "list",
			"header": map[string]string{"type": "text", "text": header},
			"body":   map[string]string{"text": body},
			"footer": map[string]string{"text": ListFooterText},
			"action": map[string]interface{}{
				"button":   buttonLabel,
				"sections": sections,
			},
		},
	}
	return c.post(ctx, to, payload)
}

// SendInteractiveButtons sends a message with reply buttons. The header is an
// image URL when non-empty.
func (c *Client) SendInteractiveButtons(ctx context.Context, to, header, body string, buttons []models.Button) error {
	replies := make([]map[string]interface{}, 0, len(buttons))
	for _, b := range buttons {
		replies = append(replies, map[string]interface{}{
			"type":  "reply",
			"reply": map[string]string{"id": b.ID, "title": b.Title},
		})
	}
	interactive := map[string]interface{}{
		"type":   "button",
		"body":   map[string]string{"text": body},
		"footer": map[string]string{"text": ListFooterText},
		"action": map[string]interface{}{"buttons": replies},
	}
	if header != "" {
		interactive["header"] = map[string]interface{}{
			"type":  "image",
			"image": map[string]string{"link": header},
		}
	}
	payload := map[string]interface{}{
		"type":        "interactive",
		"interactive": interactive,
	}
	return c.post(ctx, to, payload)
}

// post sends one Graph API messages request.
func (c *Client) post(ctx context.Context, to string, payload map[string]interface{}) error {
	if to == "" {
		return models.ErrEmptyRecipient
	}
	payload["messaging_product"] = "whatsapp"
	payload["to"] = to

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneNumberID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	slog.Debug("WhatsApp Client posting message", "to", to, "payload_bytes", len(body))
	resp, err := c.httpClient.Do(req)
	if err != nil {
		slog.Error("WhatsApp Client request failed", "error", err, "to", to)
		return fmt.Errorf("failed to send message to %s: %w", to, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		slog.Error("WhatsApp Client received error response", "status", resp.StatusCode, "to", to, "body", string(respBody))
		return fmt.Errorf("whatsapp API returned status %d for %s", resp.StatusCode, to)
	}

	slog.Debug("WhatsApp message sent successfully", "to", to)
	return nil
}

// MockClient implements Sender but does nothing (for tests).
type MockClient struct{}

// NewMockClient creates a no-op Sender.
func NewMockClient() *MockClient {
	return &MockClient{}
}

func (m *MockClient) SendText(ctx context.Context, to, body string) error { return nil }

func (m *MockClient) SendImage(ctx context.Context, to, link, caption string) error { return nil }

func (m *MockClient) SendInteractiveList(ctx context.Context, to, header, body, buttonLabel string, sections []models.ListSection) error {
	return nil
}

func (m *MockClient) SendInteractiveButtons(ctx context.Context, to, header, body string, buttons []models.Button) error {
	return nil
}
