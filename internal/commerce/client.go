package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultTimeout is the per-request deadline applied when Config.Timeout is
// zero. Elapsing it surfaces as a timeout error, distinct from a network one.
const DefaultTimeout = 30 * time.Second

// Config configures the commerce API client.
type Config struct {
	// BaseURL is the commerce service root, e.g. https://api.example.com.
	BaseURL string
	// APIKey is attached to every request; empty disables the header.
	APIKey string
	// ShopName scopes product listings to one shop.
	ShopName string
	// Timeout bounds each request end to end.
	Timeout time.Duration
}

// Client talks to the remote commerce service. It implements the catalog,
// shop, and cart gateway interfaces of the domain packages.
type Client struct {
	base     *url.URL
	apiKey   string
	shopName string
	timeout  time.Duration
	http     *http.Client
}

// NewClient validates the configuration and builds a Client with an
// instrumented transport.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("commerce base URL is required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse base URL")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		base:     base,
		apiKey:   cfg.APIKey,
		shopName: cfg.ShopName,
		timeout:  timeout,
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}, nil
}

// do issues one JSON request and decodes the response body into out (when
// out is non-nil). Failures are classified into the commerce error taxonomy.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "encode request body")
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return &Error{
				Kind:    KindTimeout,
				Message: method + " " + path + " exceeded " + c.timeout.String(),
				cause:   err,
			}
		}
		return &Error{
			Kind:    KindNetwork,
			Message: "request failed: " + err.Error(),
			cause:   err,
		}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return &Error{Kind: KindNetwork, Message: "read response: " + err.Error(), cause: err}
	}

	if resp.StatusCode >= 400 {
		return classifyResponse(resp.StatusCode, data)
	}

	if out == nil {
		return nil
	}
	// Raw targets get the body verbatim so callers can probe the shape
	// themselves (the product listing comes in several shapes).
	if raw, ok := out.(*json.RawMessage); ok {
		*raw = append((*raw)[:0], data...)
		return nil
	}
	if err := decodeEnvelope(data, out); err != nil {
		return &Error{
			Kind:    KindValidation,
			Status:  resp.StatusCode,
			Message: "decode response: " + err.Error(),
			cause:   err,
		}
	}
	return nil
}

// classifyResponse maps a non-2xx response to a commerce Error, pulling the
// message out of the common {message|error|detail} error body shapes.
func classifyResponse(status int, body []byte) *Error {
	msg := http.StatusText(status)

	var payload struct {
		Message string `json:"message"`
		Err     string `json:"error"`
		Detail  string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case payload.Message != "":
			msg = payload.Message
		case payload.Err != "":
			msg = payload.Err
		case payload.Detail != "":
			msg = payload.Detail
		}
	}

	kind := KindValidation
	switch {
	case status == http.StatusNotFound:
		kind = KindNotFound
	case status >= 500:
		kind = KindServer
	}
	return &Error{Kind: kind, Status: status, Message: msg}
}

// decodeEnvelope tolerates both bare payloads and the {"data": ...} wrapper
// the commerce API uses inconsistently across endpoints.
func decodeEnvelope(data []byte, out any) error {
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(data, &env); err == nil && len(env.Data) > 0 && string(env.Data) != "null" {
		return json.Unmarshal(env.Data, out)
	}
	return json.Unmarshal(data, out)
}
