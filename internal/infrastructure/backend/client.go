// Package backend is the HTTP client for the remote customer REST API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/customer-portal/internal/core/domain"
	"github.com/99minutos/customer-portal/internal/core/ports"
)

const (
	maxBodyBytes    = 1 << 20
	defaultListSize = 20
)

// Client implements ports.AuthAPI and ports.CustomerAPI.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

type rawResponse struct {
	status      int
	contentType string
	body        []byte
}

func (r *rawResponse) ok() bool { return r.status >= 200 && r.status < 300 }

func (r *rawResponse) isJSON() bool {
	return strings.Contains(strings.ToLower(r.contentType), "application/json")
}

// envelope is the {status, data} wrapper every endpoint answers with.
type envelope struct {
	Status *ports.APIStatus `json:"status"`
	Data   json.RawMessage  `json:"data"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, token string, body any) (*rawResponse, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s %s: encode body: %w", method, path, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("%s %s: build request: %w", method, path, err)
	}
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w: %v", method, path, domain.ErrNetwork, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w: %v", method, path, domain.ErrNetwork, err)
	}

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("backend request")

	return &rawResponse{
		status:      resp.StatusCode,
		contentType: resp.Header.Get("Content-Type"),
		body:        payload,
	}, nil
}

func (c *Client) Login(ctx context.Context, in ports.LoginRequest) (*ports.LoginResponse, error) {
	raw, err := c.do(ctx, http.MethodPost, "/auth/login", nil, "", in)
	if err != nil {
		return nil, err
	}
	var out ports.LoginResponse
	if err := json.Unmarshal(raw.body, &out); err != nil {
		return nil, fmt.Errorf("login: %w: %v", domain.ErrDecodeFailure, err)
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, in ports.RegisterRequest) (*ports.RegisterResponse, error) {
	raw, err := c.do(ctx, http.MethodPost, "/auth/register", nil, "", in)
	if err != nil {
		return nil, err
	}

	out := &ports.RegisterResponse{StatusCode: raw.status}
	if !raw.isJSON() {
		out.RawBody = string(raw.body)
		return out, nil
	}

	var env envelope
	if err := json.Unmarshal(raw.body, &env); err != nil {
		return nil, fmt.Errorf("register: %w: %v", domain.ErrDecodeFailure, err)
	}
	out.IsJSON = true
	out.Status = env.Status
	out.Data = env.Data
	return out, nil
}

func (c *Client) ListCustomers(ctx context.Context, token string, p ports.ListCustomersParams) (*ports.ListResponse, error) {
	raw, err := c.do(ctx, http.MethodGet, "/customers", listQuery(p), token, nil)
	if err != nil {
		return nil, err
	}
	if raw.status == http.StatusUnauthorized {
		return nil, fmt.Errorf("list customers: %w", domain.ErrUnauthorized)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw.body, &env)
	if !raw.ok() {
		return nil, fmt.Errorf("list customers: %w: status %d: %s", domain.ErrBackend, raw.status, env.Status.MessageOr(http.StatusText(raw.status)))
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("list customers: %w: %v", domain.ErrDecodeFailure, decodeErr)
	}
	return &ports.ListResponse{Status: env.Status, Data: env.Data}, nil
}

// listQuery omits empty search/type/status; page and size are always sent.
func listQuery(p ports.ListCustomersParams) url.Values {
	q := url.Values{}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	if p.Type != "" {
		q.Set("type", p.Type)
	}
	if p.Status != "" {
		q.Set("status", p.Status)
	}
	q.Set("page", strconv.Itoa(p.Page))
	size := p.Size
	if size == 0 {
		size = defaultListSize
	}
	q.Set("size", strconv.Itoa(size))
	if p.CustomerSort != "" {
		q.Set("customerSort", p.CustomerSort)
	}
	return q
}

func (c *Client) CreateCustomer(ctx context.Context, token string, payload ports.CreateCustomerPayload) (*ports.MutationResponse, error) {
	return c.mutate(ctx, http.MethodPost, "/customers", token, payload)
}

func (c *Client) UpdateCustomer(ctx context.Context, token string, id int64, payload ports.UpdateCustomerPayload) (*ports.MutationResponse, error) {
	return c.mutate(ctx, http.MethodPut, "/customers/"+strconv.FormatInt(id, 10), token, payload)
}

func (c *Client) DeleteCustomer(ctx context.Context, token string, id int64) (*ports.MutationResponse, error) {
	return c.mutate(ctx, http.MethodDelete, "/customers/"+strconv.FormatInt(id, 10), token, nil)
}

// mutate returns a response for any HTTP status; only transport failures
// are errors. Empty or non-JSON bodies leave Decoded false.
func (c *Client) mutate(ctx context.Context, method, path, token string, body any) (*ports.MutationResponse, error) {
	raw, err := c.do(ctx, method, path, nil, token, body)
	if err != nil {
		return nil, err
	}

	out := &ports.MutationResponse{StatusCode: raw.status}
	if len(bytes.TrimSpace(raw.body)) == 0 {
		return out, nil
	}
	var env envelope
	if err := json.Unmarshal(raw.body, &env); err != nil {
		c.log.Debug().Err(err).Str("path", path).Int("status", raw.status).Msg("mutation response is not JSON")
		return out, nil
	}
	out.Decoded = true
	out.Status = env.Status
	out.Data = env.Data
	return out, nil
}
