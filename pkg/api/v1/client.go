package api

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

	"github.com/hashicorp-forge/pipeline-api/internal/pkg/helper"
	"github.com/hashicorp-forge/pipeline-api/internal/pkg/version"
)

const defaultAddress = "http://127.0.0.1:8080"

type Config struct {
	Address    string
	HTTPClient *http.Client
}

func DefaultConfig() *Config {
	return &Config{
		Address:    defaultAddress,
		HTTPClient: http.DefaultClient,
	}
}

type Client struct {
	address    string
	httpClient *http.Client
	userAgent  string
}

func NewClient(cfg *Config) *Client {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	c := &Client{
		address:    strings.TrimSuffix(cfg.Address, "/"),
		httpClient: cfg.HTTPClient,
		userAgent:  "pipeline-api/" + version.Get(),
	}

	if c.address == "" {
		c.address = defaultAddress
	}
	if c.httpClient == nil {
		c.httpClient = http.DefaultClient
	}

	return c
}

// RequestOption modifies a request before it is sent.
type RequestOption func(*http.Request)

// WithQueryParam sets a URL query parameter on the request. Empty values are
// ignored.
func WithQueryParam(key, value string) RequestOption {
	return func(r *http.Request) {
		if value == "" {
			return
		}
		q := r.URL.Query()
		q.Set(key, value)
		r.URL.RawQuery = q.Encode()
	}
}

// NewRequest builds an API request. The path is relative to the configured
// server address and body, if not nil, is JSON encoded.
func (c *Client) NewRequest(method, path string, body any, opts ...RequestOption) (*http.Request, error) {

	u, err := url.Parse(c.address + path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse request URL: %w", err)
	}

	var buf io.ReadWriter
	if body != nil {
		buf = &bytes.Buffer{}
		if err := json.NewEncoder(buf).Encode(body); err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	req, err := http.NewRequest(method, u.String(), buf)
	if err != nil {
		return nil, err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	for _, opt := range opts {
		opt(req)
	}

	return req, nil
}

// Response wraps the HTTP response of an API call.
type Response struct {
	*http.Response
}

// Do sends the request and decodes a successful JSON response into v, which
// may be nil. Responses with a status code of 300 or above are returned as a
// *ResponseError.
func (c *Client) Do(ctx context.Context, req *http.Request, v any) (*Response, error) {

	resp, err := c.bareDo(ctx, req)
	if err != nil {
		return resp, err
	}
	defer helper.IgnoreError(resp.Body.Close)

	if v == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp, nil
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return resp, fmt.Errorf("failed to decode response body: %w", err)
	}

	return resp, nil
}

func (c *Client) bareDo(ctx context.Context, req *http.Request) (*Response, error) {

	httpResp, err := c.httpClient.Do(req.WithContext(ctx))
	if err != nil {
		// Prefer the context error, as it is more useful to the caller than
		// the transport error it caused.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}

	resp := &Response{Response: httpResp}

	if err := checkResponse(httpResp); err != nil {
		_ = httpResp.Body.Close()
		return resp, err
	}

	return resp, nil
}

func checkResponse(r *http.Response) error {
	if r.StatusCode < http.StatusMultipleChoices {
		return nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return NewResponseError(fmt.Errorf("failed to read error response: %w", err), r.StatusCode)
	}

	var respErr ResponseError
	if err := json.Unmarshal(data, &respErr); err != nil || respErr.Msg == "" {
		msg := strings.TrimSpace(string(data))
		if msg == "" {
			msg = http.StatusText(r.StatusCode)
		}
		return &ResponseError{ErrorBody: ErrorBody{Msg: msg, Code: r.StatusCode}}
	}

	if respErr.Code == 0 {
		respErr.Code = r.StatusCode
	}
	return &respErr
}

type ResponseError struct {
	ErrorBody `json:"error"`
}

type ErrorBody struct {
	Msg  string `json:"message"`
	Code int    `json:"code"`
}

func NewResponseError(e error, c int) *ResponseError {
	return &ResponseError{
		ErrorBody: ErrorBody{
			Msg:  e.Error(),
			Code: c,
		},
	}
}

func (e *ResponseError) StatusCode() int { return e.Code }

func (e *ResponseError) Error() string { return e.Msg }

func (e *ResponseError) String() string { return e.Msg }
