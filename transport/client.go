package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

const (
	contentTypeForm = "application/x-www-form-urlencoded"
	contentTypeJSON = "application/json"
)

// Request describes a single call. Form is sent url-encoded, otherwise JSON
// (when non-nil) is sent as a JSON body.
type Request struct {
	Method string
	Form   url.Values
	JSON   any
	Header http.Header
}

// Response is a fully-read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("[Response Decode] failed to decode response: %w", err)
	}
	return nil
}

// NotModified reports whether the server answered a conditional request
// with 304.
func (r *Response) NotModified() bool {
	return r.StatusCode == http.StatusNotModified
}

// Doer sends a request and returns the response. It is the request function
// the orchestrator and schemes depend on.
type Doer interface {
	Do(ctx context.Context, endpoint string, req Request) (*Response, error)
}

// HeaderSetter controls the default headers attached to every request.
type HeaderSetter interface {
	SetHeader(name, value string)
	ClearHeader(name string)
}

// Transport is a Doer whose default headers can be changed, which is how a
// scheme attaches its credentials.
type Transport interface {
	Doer
	HeaderSetter
}

// Client is the net/http backed Transport.
type Client struct {
	httpClient *http.Client

	mu      sync.RWMutex
	headers http.Header
}

var _ Transport = (*Client)(nil)

// New creates a Client. A nil httpClient uses http.DefaultClient.
func New(httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient: httpClient,
		headers:    http.Header{},
	}
}

// SetHeader sets a default header. An empty value clears it. Last write wins.
func (c *Client) SetHeader(name, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if value == "" {
		c.headers.Del(name)
		return
	}
	c.headers.Set(name, value)
}

// ClearHeader removes a default header.
func (c *Client) ClearHeader(name string) {
	c.SetHeader(name, "")
}

// Header returns the current default value for name.
func (c *Client) Header(name string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.headers.Get(name)
}

// Do sends req to endpoint. Any status outside 2xx is returned as a
// *StatusError, except 304 in answer to a conditional request, which is
// returned as a normal response.
func (c *Client) Do(ctx context.Context, endpoint string, req Request) (*Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	contentType := ""
	switch {
	case req.Form != nil:
		body = strings.NewReader(req.Form.Encode())
		contentType = contentTypeForm
	case req.JSON != nil:
		b, err := json.Marshal(req.JSON)
		if err != nil {
			return nil, fmt.Errorf("[Client Do] failed to encode request: %w", err)
		}
		body = strings.NewReader(string(b))
		contentType = contentTypeJSON
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("[Client Do] failed to create request: %w", err)
	}

	c.mu.RLock()
	for k, vs := range c.headers {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	c.mu.RUnlock()
	for k, vs := range req.Header {
		httpReq.Header.Del(k)
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", contentTypeJSON)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("[Client Do] failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("[Client Do] failed to read response: %w", err)
	}

	out := &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: respBody}
	if resp.StatusCode == http.StatusNotModified && isConditional(httpReq.Header) {
		return out, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return out, &StatusError{Method: method, Endpoint: endpoint, StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return out, nil
}

func isConditional(h http.Header) bool {
	return h.Get("If-None-Match") != "" || h.Get("If-Modified-Since") != ""
}
