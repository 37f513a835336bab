package sparql

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	errors "github.com/c360studio/semstreams/pkg/errs"
)

const (
	contentTypeQuery  = "application/sparql-query"
	contentTypeUpdate = "application/sparql-update"
	acceptResults     = "application/sparql-results+json"

	maxResponseSize = 8 << 20
	defaultTimeout  = 30 * time.Second
)

// Connection executes queries and updates against a triple store.
type Connection interface {
	Query(ctx context.Context, query string) (*Results, error)
	Update(ctx context.Context, update string) error
}

// Client is a SPARQL 1.1 Protocol client.
type Client struct {
	queryURL   string
	updateURL  string
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithUpdateURL sets a separate update endpoint. Endpoints that serve both
// operations on one URL do not need it.
func WithUpdateURL(url string) ClientOption {
	return func(client *Client) {
		client.updateURL = url
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(client *Client) {
		client.logger = logger
	}
}

// WithTimeout sets the per-request timeout. A client passed with
// WithHTTPClient is copied rather than modified.
func WithTimeout(d time.Duration) ClientOption {
	return func(client *Client) {
		client.timeout = d
	}
}

// NewClient creates a client for the endpoint at url.
func NewClient(url string, opts ...ClientOption) (*Client, error) {
	if url == "" {
		return nil, errors.WrapInvalid(errors.ErrMissingConfig, "Client", "NewClient", "sparql endpoint url is required")
	}
	c := &Client{
		queryURL:  url,
		updateURL: url,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	switch {
	case c.httpClient == nil:
		timeout := c.timeout
		if timeout == 0 {
			timeout = defaultTimeout
		}
		c.httpClient = &http.Client{Timeout: timeout}
	case c.timeout > 0:
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	return c, nil
}

// Query runs a SELECT or ASK query.
func (c *Client) Query(ctx context.Context, query string) (*Results, error) {
	body, err := c.post(ctx, c.queryURL, contentTypeQuery, query)
	if err != nil {
		return nil, err
	}
	return ParseResults(body)
}

// Update runs an update request.
func (c *Client) Update(ctx context.Context, update string) error {
	_, err := c.post(ctx, c.updateURL, contentTypeUpdate, update)
	return err
}

func (c *Client) post(ctx context.Context, url, contentType, text string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(text))
	if err != nil {
		return nil, errors.WrapInvalid(err, "Client", "post", "create request")
	}
	req.Header.Set("Content-Type", contentType+"; charset=utf-8")
	req.Header.Set("Accept", acceptResults)

	c.logger.Debug("SPARQL request", "url", url, "content_type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.WrapTransient(err, "Client", "post", "sparql request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, errors.WrapTransient(err, "Client", "post", "read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, classifyHTTPError(resp.StatusCode, body)
	}
	return body, nil
}

// classifyHTTPError maps endpoint failures onto semstreams error classes.
func classifyHTTPError(statusCode int, body []byte) error {
	bodyStr := string(body)
	if len(bodyStr) > 200 {
		bodyStr = bodyStr[:200] + "..."
	}
	err := fmt.Errorf("sparql endpoint error (status %d): %s", statusCode, bodyStr)

	switch {
	case statusCode == http.StatusTooManyRequests, statusCode >= 500:
		return errors.WrapTransient(err, "Client", "post", "endpoint unavailable")
	default:
		return errors.WrapInvalid(err, "Client", "post", "request rejected")
	}
}
