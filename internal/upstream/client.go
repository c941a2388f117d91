// Package upstream provides REST clients for the media-management services the
// exporter polls: a movie collection manager, a TV series manager, and a media
// streaming server. Clients are stateless; every call performs a fresh HTTP
// request bounded by the caller's context and the client timeout.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Maximum JSON response size to prevent OOM from malformed/massive responses.
// Large movie libraries serialize to tens of megabytes.
const maxResponseBytes = 64 * 1024 * 1024 // 64MB

// Maximum raw payload bytes carried in a ParseError for logging.
const maxSnippetBytes = 200

// requestTimeout bounds each upstream request so a hung service cannot block
// the scrape indefinitely.
const requestTimeout = 10 * time.Second

// client is the shared HTTP plumbing for all service clients. It applies the
// base URL, the service's API key header, and the request timeout, and maps
// failures onto the TransportError/AuthError/ParseError taxonomy.
type client struct {
	service    string
	baseURL    string
	authHeader string
	apiKey     string
	httpClient *http.Client
	logger     *slog.Logger
}

func newClient(service, baseURL, authHeader, apiKey string, logger *slog.Logger) *client {
	if logger == nil {
		logger = slog.Default()
	}
	return &client{
		service:    service,
		baseURL:    strings.TrimRight(baseURL, "/"),
		authHeader: authHeader,
		apiKey:     apiKey,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		logger: logger,
	}
}

// getJSON issues an authenticated GET and decodes the JSON response into out.
func (c *client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpointURL(path, query), nil)
	if err != nil {
		return c.fail(path, &TransportError{Service: c.service, Endpoint: path, Err: err})
	}
	return c.do(req, path, out)
}

// postJSON issues an authenticated POST with a JSON body and decodes the JSON
// response into out.
func (c *client) postJSON(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return c.fail(path, &TransportError{Service: c.service, Endpoint: path, Err: err})
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpointURL(path, nil), bytes.NewReader(payload))
	if err != nil {
		return c.fail(path, &TransportError{Service: c.service, Endpoint: path, Err: err})
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, path, out)
}

func (c *client) do(req *http.Request, path string, out any) error {
	req.Header.Set(c.authHeader, c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.fail(path, &TransportError{Service: c.service, Endpoint: path, Err: err})
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return c.fail(path, &AuthError{Service: c.service, Endpoint: path, Status: resp.StatusCode})
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return c.fail(path, &TransportError{Service: c.service, Endpoint: path, Status: resp.StatusCode})
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return c.fail(path, &TransportError{Service: c.service, Endpoint: path, Err: err})
	}
	if len(payload) > maxResponseBytes {
		return c.fail(path, &TransportError{
			Service:  c.service,
			Endpoint: path,
			Err:      fmt.Errorf("response exceeds %d bytes", maxResponseBytes),
		})
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return c.fail(path, &ParseError{
			Service:  c.service,
			Endpoint: path,
			Snippet:  snippet(payload),
			Err:      err,
		})
	}

	return nil
}

// fail records the request failure at debug level and passes the error
// through. The orchestrator logs the per-cycle outcome; this line is the
// per-request detail for debugging a flapping service.
func (c *client) fail(path string, err error) error {
	c.logger.Debug("request_failed",
		"service", c.service,
		"endpoint", path,
		"error_kind", ErrorKind(err),
		"error", err,
	)
	return err
}

func (c *client) endpointURL(path string, query url.Values) string {
	u := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// snippet returns a bounded prefix of a raw payload for error messages.
func snippet(payload []byte) string {
	if len(payload) > maxSnippetBytes {
		payload = payload[:maxSnippetBytes]
	}
	return string(payload)
}
