// Package helpers provides narrowly-scoped utilities for E2E testing.
package helpers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gti/pagekit/internal/models"
)

// APIKeyHeader carries the key for the protected /api routes.
const APIKeyHeader = "x-api-key"

// ErrUserExists is returned by CreateUser when the email is taken.
var ErrUserExists = errors.New("user already exists")

// Response is a raw reply from the sandbox API.
type Response struct {
	StatusCode int
	Body       []byte
	Headers    http.Header
}

// JSON decodes the body into v.
func (r *Response) JSON(v interface{}) error {
	return json.Unmarshal(r.Body, v)
}

// String returns the body as text, for failure messages.
func (r *Response) String() string {
	return string(r.Body)
}

// errorMessage returns the "error" field of a JSON error reply, or the raw
// body when it is not one.
func (r *Response) errorMessage() string {
	var body struct {
		Error string `json:"error"`
	}
	if err := r.JSON(&body); err == nil && body.Error != "" {
		return body.Error
	}
	return r.String()
}

// APIClient talks to the sandbox app's JSON API.
//
// Browser tests seed logins with CreateUser and probe readiness with
// Health. Call covers anything else, such as checking error statuses:
//
//	api := helpers.NewAPIClient(env.ServiceURL(), "test-api-key")
//	user, err := api.CreateUser(ctx, "alice@example.com", "alicepassword")
type APIClient struct {
	baseURL string
	headers map[string]string
	client  *http.Client
}

// NewAPIClient returns a client for the server at baseURL (no trailing
// slash). An empty apiKey leaves the protected routes answering 401.
func NewAPIClient(baseURL, apiKey string) *APIClient {
	c := &APIClient{
		baseURL: baseURL,
		headers: make(map[string]string),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
	if apiKey != "" {
		c.SetHeader(APIKeyHeader, apiKey)
	}
	return c
}

// SetHeader sets a header sent with every later request.
func (c *APIClient) SetHeader(key, value string) {
	c.headers[key] = value
}

// CreateUser registers a login through POST /api/users.
func (c *APIClient) CreateUser(ctx context.Context, email, password string) (*models.UserResponse, error) {
	resp, err := c.Call(ctx, http.MethodPost, "/api/users", models.CreateUserRequest{
		Email:    email,
		Password: password,
	})
	if err != nil {
		return nil, err
	}

	switch resp.StatusCode {
	case http.StatusCreated:
	case http.StatusConflict:
		return nil, fmt.Errorf("%s: %w", email, ErrUserExists)
	default:
		return nil, fmt.Errorf("failed to create user %s: status %d: %s", email, resp.StatusCode, resp.errorMessage())
	}

	var user models.UserResponse
	if err := resp.JSON(&user); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	return &user, nil
}

// Health calls GET /api/health. A degraded server answers with a body and
// an error.
func (c *APIClient) Health(ctx context.Context) (*models.HealthResponse, error) {
	resp, err := c.Call(ctx, http.MethodGet, "/api/health", nil)
	if err != nil {
		return nil, err
	}

	var health models.HealthResponse
	if err := resp.JSON(&health); err != nil {
		return nil, fmt.Errorf("failed to decode health: status %d: %w", resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		return &health, fmt.Errorf("service unhealthy: status %d, database %s", resp.StatusCode, health.Database)
	}
	return &health, nil
}

// Call sends body as JSON (nil sends none) and returns the reply.
// HTTP error statuses are not errors; check resp.StatusCode.
//
//	resp, err := api.Call(ctx, http.MethodPost, "/api/users", map[string]string{"email": "x"})
//	a.Equal(http.StatusBadRequest, resp.StatusCode)
func (c *APIClient) Call(ctx context.Context, method, path string, body interface{}) (*Response, error) {
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Body:       data,
		Headers:    resp.Header,
	}, nil
}
