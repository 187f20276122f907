// Package rest implements the gateway ports against the external
// Horizon REST API. One HTTP call per store operation, a per-request
// timeout, and no automatic retries: failures surface to the stores as
// typed domain errors.
package rest

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

	"github.com/rs/zerolog"

	"github.com/peertask/horizon/internal/core/domain"
)

const defaultTimeout = 10 * time.Second

// Client is the shared HTTP plumbing for the gateway implementations.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient builds a Client for the API at baseURL (e.g.
// "http://localhost:3000/api/v1"). httpClient may be nil; timeout <= 0
// selects the default of 10s.
func NewClient(baseURL string, httpClient *http.Client, timeout time.Duration, log zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		log:        log,
	}
}

// APIError is a non-2xx response from the API, before translation into
// a domain error.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
}

// envelope is the canonical response shape: data on success, error on
// failure.
type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func (c *Client) get(ctx context.Context, path string, query url.Values, token string, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", domain.ErrNetwork, err)
	}
	return c.do(req, token, "", out)
}

func (c *Client) postJSON(ctx context.Context, path, token string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: build request: %v", domain.ErrNetwork, err)
	}
	return c.do(req, token, "application/json", out)
}

func (c *Client) postMultipart(ctx context.Context, path, token string, form *Form, out any) error {
	body, contentType, err := form.Encode()
	if err != nil {
		return fmt.Errorf("encode form: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", domain.ErrNetwork, err)
	}
	return c.do(req, token, contentType, out)
}

// do executes the request, unwraps the data envelope into out, and
// converts failures: transport problems and timeouts become ErrNetwork,
// non-2xx statuses become *APIError for the gateways to translate.
func (c *Client) do(req *http.Request, token, contentType string, out any) error {
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error().Err(err).Str("path", req.URL.Path).Msg("request failed")
		return fmt.Errorf("%w: %v", domain.ErrNetwork, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", domain.ErrNetwork, err)
	}

	var env envelope
	if len(raw) > 0 {
		// A non-JSON body is tolerated for error statuses.
		if err := json.Unmarshal(raw, &env); err != nil && resp.StatusCode < 300 {
			return fmt.Errorf("%w: decode response: %v", domain.ErrNetwork, err)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := env.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}

	if out != nil {
		if len(env.Data) == 0 {
			return fmt.Errorf("%w: empty data envelope", domain.ErrNetwork)
		}
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%w: decode data: %v", domain.ErrNetwork, err)
		}
	}
	return nil
}

// mapError applies the default status translation used when a gateway
// has no endpoint-specific mapping: 401/403 mean the credential was
// rejected, everything else unclassified is a network-class failure.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return err
	}
	switch apiErr.Status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return domain.ErrUnauthorized
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return domain.NewValidationError("request", apiErr.Message)
	default:
		return fmt.Errorf("%w: %s", domain.ErrNetwork, apiErr.Message)
	}
}
