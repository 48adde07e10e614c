// Package chatapi provides an HTTP client for the external chat service that
// owns owner/renter conversation threads.
package chatapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Strob0t/RentMatch/internal/domain"
	"github.com/Strob0t/RentMatch/internal/port/chat"
	"github.com/Strob0t/RentMatch/internal/resilience"
)

// maxErrorBody caps how much of an error response is kept in the error text.
const maxErrorBody = 512

// KeyFunc returns the current API key. It is called once per request so a
// reloaded secret takes effect without restarting.
type KeyFunc func() string

// Client talks to the chat service.
type Client struct {
	baseURL    string
	apiKey     KeyFunc
	httpClient *http.Client
	breaker    *resilience.Breaker
}

var _ chat.ThreadCreator = (*Client)(nil)

// NewClient creates a chat client. A zero timeout defaults to 5s.
func NewClient(baseURL string, apiKey KeyFunc, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if apiKey == nil {
		apiKey = func() string { return "" }
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SetBreaker attaches a circuit breaker to all outgoing HTTP calls.
func (c *Client) SetBreaker(b *resilience.Breaker) {
	c.breaker = b
}

type threadResponse struct {
	ThreadID string `json:"thread_id"`
	ID       string `json:"id"`
}

// CreateThread opens (or returns the existing) thread for a contact request.
// The contact id is sent as the Idempotency-Key.
func (c *Client) CreateThread(ctx context.Context, req chat.ThreadRequest) (string, error) {
	if req.ContactID == "" {
		return "", domain.Validationf("contact id is required")
	}
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal thread request: %w", err)
	}

	data, err := c.doRequest(ctx, http.MethodPost, "/threads", req.ContactID, body)
	if err != nil {
		return "", domain.Upstream("chat service unavailable", err)
	}

	var resp threadResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", domain.Upstream("chat service returned malformed response", err)
	}
	id := resp.ThreadID
	if id == "" {
		id = resp.ID
	}
	if id == "" {
		return "", domain.Upstream("chat service returned no thread id", nil)
	}
	return id, nil
}

// Health checks if the chat service is reachable.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.doRequest(ctx, http.MethodGet, "/health", "", nil)
	return err
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("chat API error %d: %s", e.Status, e.Body)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, status int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == status
}

func (c *Client) doRequest(ctx context.Context, method, path, idempotencyKey string, body []byte) ([]byte, error) {
	var result []byte
	call := func() error {
		var bodyReader io.Reader
		if body != nil {
			bodyReader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}

		req.Header.Set("Content-Type", "application/json")
		if key := c.apiKey(); key != "" {
			req.Header.Set("Authorization", "Bearer "+key)
		}
		if idempotencyKey != "" {
			req.Header.Set("Idempotency-Key", idempotencyKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("http request: %w", err)
		}
		defer func() { _ = resp.Body.Close() }()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}

		if resp.StatusCode >= 300 {
			if len(data) > maxErrorBody {
				data = data[:maxErrorBody]
			}
			return &StatusError{Status: resp.StatusCode, Body: string(data)}
		}

		result = data
		return nil
	}

	if c.breaker != nil {
		if err := c.breaker.Execute(call); err != nil {
			return nil, err
		}
		return result, nil
	}

	if err := call(); err != nil {
		return nil, err
	}
	return result, nil
}
