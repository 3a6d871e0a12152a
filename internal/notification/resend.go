package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/trackly/trackly-home/internal/household"
)

// DefaultResendURL is the Resend API base URL.
const DefaultResendURL = "https://api.resend.com"

// ErrNotConfigured is returned when a mailer is missing credentials.
var ErrNotConfigured = errors.New("email client not configured")

// ResendClient sends invite emails through the Resend HTTP API.
type ResendClient struct {
	apiKey     string
	from       string
	baseURL    string
	httpClient *http.Client
}

// Option configures a ResendClient.
type Option func(*ResendClient)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(rc *ResendClient) {
		rc.httpClient = c
	}
}

// WithBaseURL points the client at a different API host.
func WithBaseURL(u string) Option {
	return func(rc *ResendClient) {
		rc.baseURL = u
	}
}

// NewResendClient creates a Resend client.
func NewResendClient(apiKey, from string, opts ...Option) *ResendClient {
	c := &ResendClient{
		apiKey:     apiKey,
		from:       from,
		baseURL:    DefaultResendURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if both the API key and sender are set.
func (c *ResendClient) Configured() bool {
	return c.apiKey != "" && c.from != ""
}

type resendEmail struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
	Text    string   `json:"text"`
}

// SendInvite sends an invite email.
func (c *ResendClient) SendInvite(ctx context.Context, msg household.InviteEmail) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	subject, htmlBody, textBody := renderInvite(msg)
	body, err := json.Marshal(resendEmail{
		From:    c.from,
		To:      []string{msg.To},
		Subject: subject,
		HTML:    htmlBody,
		Text:    textBody,
	})
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("resend API error: status %d", resp.StatusCode)
	}
	return nil
}
