// Package controld is the HTTP client for the external DNS-filtering
// provider's profile API. Profile documents are opaque to this service and
// are relayed verbatim.
package controld

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

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"

	"github.com/controld-portal/profile-manager/internal/core/domain"
	"github.com/controld-portal/profile-manager/pkg/metrics"
)

const (
	DefaultBaseURL = "https://api.controld.com"
	defaultTimeout = 10 * time.Second
	apiKeyHeader   = "X-API-Key"

	// maxBodyBytes bounds how much of an upstream response is read.
	maxBodyBytes = 4 << 20

	fetchFailed  = "Failed to fetch profile"
	updateFailed = "Failed to update profile"
)

// Config holds the connection settings for the profile API.
type Config struct {
	BaseURL string
	APIKey  string
	// Timeout applies to each attempt.
	Timeout time.Duration
	// ReadRetries is the number of extra attempts for GET requests on
	// transport errors and 5xx responses. Writes are never retried.
	ReadRetries  int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration
}

// Client implements ports.ProfileGateway.
type Client struct {
	baseURL string
	apiKey  string
	reads   *retryablehttp.Client
	writes  *retryablehttp.Client
}

// envelope is the provider's success shape: {"body": {...}}.
type envelope struct {
	Body json.RawMessage `json:"body"`
}

// errorBody is the provider's failure shape; message is optional.
type errorBody struct {
	Message string `json:"message"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func NewClient(cfg Config, log zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RetryWaitMin <= 0 {
		cfg.RetryWaitMin = 200 * time.Millisecond
	}
	if cfg.RetryWaitMax <= 0 {
		cfg.RetryWaitMax = 2 * time.Second
	}
	if cfg.ReadRetries < 0 {
		cfg.ReadRetries = 0
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		reads:   newHTTPClient(cfg, cfg.ReadRetries, log),
		writes:  newHTTPClient(cfg, 0, log),
	}
}

func newHTTPClient(cfg Config, retries int, log zerolog.Logger) *retryablehttp.Client {
	c := retryablehttp.NewClient()
	c.HTTPClient.Timeout = cfg.Timeout
	c.RetryMax = retries
	c.RetryWaitMin = cfg.RetryWaitMin
	c.RetryWaitMax = cfg.RetryWaitMax
	c.Logger = leveledLogger{log: log.With().Str("component", "controld").Logger()}
	// hand the final response back so the provider's message can be surfaced
	c.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return c
}

// FetchProfile reads GET /profiles/{endpointID}.
func (c *Client) FetchProfile(ctx context.Context, endpointID string) (domain.ProfileData, error) {
	return c.do(ctx, c.reads, "fetch", http.MethodGet, endpointID, nil, fetchFailed)
}

// UpdateProfile writes patch with PUT /profiles/{endpointID}.
func (c *Client) UpdateProfile(ctx context.Context, endpointID string, patch domain.ProfileData) (domain.ProfileData, error) {
	return c.do(ctx, c.writes, "update", http.MethodPut, endpointID, patch, updateFailed)
}

func (c *Client) do(
	ctx context.Context,
	hc *retryablehttp.Client,
	op, method, endpointID string,
	payload []byte,
	fallback string,
) (domain.ProfileData, error) {
	if endpointID == "" {
		return nil, domain.ErrNotTenant
	}

	start := time.Now()
	defer func() {
		metrics.UpstreamRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.profileURL(endpointID), body)
	if err != nil {
		return nil, c.fail(op, 0, fallback, err, "transport_error")
	}
	req.Header.Set(apiKeyHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// With the passthrough handler an exhausted 5xx comes back as both a
	// response and the retry policy's error; the response wins.
	resp, err := hc.Do(req)
	if resp == nil {
		return nil, c.fail(op, 0, fallback, err, "transport_error")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, c.fail(op, resp.StatusCode, fallback, err, "transport_error")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.fail(op, resp.StatusCode, upstreamMessage(raw, fallback), nil, "upstream_error")
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil || len(env.Body) == 0 {
		if err == nil {
			err = errors.New("response has no body field")
		}
		return nil, c.fail(op, resp.StatusCode, fallback, err, "upstream_error")
	}

	metrics.UpstreamRequestsTotal.WithLabelValues(op, "ok").Inc()
	return domain.ProfileData(env.Body), nil
}

func (c *Client) profileURL(endpointID string) string {
	return fmt.Sprintf("%s/profiles/%s", c.baseURL, url.PathEscape(endpointID))
}

func (c *Client) fail(op string, status int, msg string, cause error, outcome string) error {
	metrics.UpstreamRequestsTotal.WithLabelValues(op, outcome).Inc()
	return &domain.UpstreamError{Op: op, StatusCode: status, Message: msg, Err: cause}
}

// upstreamMessage extracts the provider's message, accepting both
// {"message": ...} and {"error": {"message": ...}}.
func upstreamMessage(raw []byte, fallback string) string {
	var eb errorBody
	if err := json.Unmarshal(raw, &eb); err != nil {
		return fallback
	}
	if m := strings.TrimSpace(eb.Message); m != "" {
		return m
	}
	if eb.Error != nil {
		if m := strings.TrimSpace(eb.Error.Message); m != "" {
			return m
		}
	}
	return fallback
}
