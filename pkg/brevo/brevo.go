// Package brevo is a small client for the Brevo (formerly Sendinblue)
// contacts and transactional email APIs.
package brevo

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
)

const (
	// DefaultBaseURL is the public Brevo API endpoint.
	DefaultBaseURL = "https://api.brevo.com"

	defaultTimeout = 10 * time.Second
	apiKeyHeader   = "api-key"

	// codeDuplicate is returned by POST /v3/contacts for known addresses.
	codeDuplicate = "duplicate_parameter"
)

var (
	// ErrMissingAPIKey is returned by New when no key is configured.
	ErrMissingAPIKey = errors.New("brevo: api key is required")
	// ErrMissingEmail is returned when a contact or recipient has no address.
	ErrMissingEmail = errors.New("brevo: email is required")
)

// APIError is a non-2xx response from Brevo.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code == "" && e.Message == "" {
		return fmt.Sprintf("brevo: status %d", e.Status)
	}
	return fmt.Sprintf("brevo: status %d: %s: %s", e.Status, e.Code, e.Message)
}

// Option configures the client.
type Option func(*config)

type config struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

// WithBaseURL points the client at another endpoint, typically an
// httptest server.
func WithBaseURL(base string) Option {
	return func(cfg *config) {
		if strings.TrimSpace(base) != "" {
			cfg.baseURL = base
		}
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(cfg *config) {
		if client != nil {
			cfg.httpClient = client
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(agent string) Option {
	return func(cfg *config) {
		cfg.userAgent = strings.TrimSpace(agent)
	}
}

// Client talks to the Brevo REST API. It is safe for concurrent use.
type Client struct {
	apiKey    string
	baseURL   string
	http      *http.Client
	userAgent string
}

// New constructs a client for apiKey.
func New(apiKey string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	cfg := config{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		userAgent:  "kivisai-site",
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return &Client{
		apiKey:    apiKey,
		baseURL:   strings.TrimRight(strings.TrimSpace(cfg.baseURL), "/"),
		http:      cfg.httpClient,
		userAgent: cfg.userAgent,
	}, nil
}

// Contact is a subscriber record.
type Contact struct {
	Email         string         `json:"email"`
	Attributes    map[string]any `json:"attributes,omitempty"`
	ListIDs       []int64        `json:"listIds,omitempty"`
	UpdateEnabled bool           `json:"updateEnabled,omitempty"`
}

// ContactResult reports the outcome of AddContact.
type ContactResult struct {
	ID int64
	// Existing is true when Brevo already knew the address.
	Existing bool
}

// AddContact creates a contact. An address that already exists is not an
// error; the result has Existing set instead.
func (c *Client) AddContact(ctx context.Context, contact Contact) (ContactResult, error) {
	contact.Email = strings.TrimSpace(contact.Email)
	if contact.Email == "" {
		return ContactResult{}, ErrMissingEmail
	}

	var payload struct {
		ID int64 `json:"id"`
	}
	err := c.post(ctx, []string{"v3", "contacts"}, contact, &payload)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Code == codeDuplicate {
			return ContactResult{Existing: true}, nil
		}
		return ContactResult{}, err
	}
	return ContactResult{ID: payload.ID}, nil
}

// Address is a named mailbox.
type Address struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

// Email is a transactional message. Either HTMLContent or TextContent must be
// set.
type Email struct {
	Sender      Address           `json:"sender"`
	To          []Address         `json:"to"`
	ReplyTo     *Address          `json:"replyTo,omitempty"`
	Subject     string            `json:"subject"`
	HTMLContent string            `json:"htmlContent,omitempty"`
	TextContent string            `json:"textContent,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
}

// SendEmail queues a transactional email and returns Brevo's message id.
func (c *Client) SendEmail(ctx context.Context, email Email) (string, error) {
	if strings.TrimSpace(email.Sender.Email) == "" || len(email.To) == 0 {
		return "", ErrMissingEmail
	}
	for _, to := range email.To {
		if strings.TrimSpace(to.Email) == "" {
			return "", ErrMissingEmail
		}
	}
	if email.HTMLContent == "" && email.TextContent == "" {
		return "", errors.New("brevo: email content is required")
	}

	var payload struct {
		MessageID string `json:"messageId"`
	}
	if err := c.post(ctx, []string{"v3", "smtp", "email"}, email, &payload); err != nil {
		return "", err
	}
	return payload.MessageID, nil
}

func (c *Client) post(ctx context.Context, path []string, body any, out any) error {
	endpoint, err := url.JoinPath(c.baseURL, path...)
	if err != nil {
		return fmt.Errorf("brevo: build url: %w", err)
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("brevo: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("brevo: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(apiKeyHeader, c.apiKey)
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("brevo: request %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("brevo: read response: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("brevo: decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if len(data) > 0 {
		if err := json.Unmarshal(data, apiErr); err != nil {
			apiErr.Message = strings.TrimSpace(string(data))
		}
	}
	return apiErr
}
