// Package agent implements the client for the external agent execution
// service: create a session, deliver an instruction under a role, read the
// transcript back, abort. The service itself is an external collaborator;
// only its interface is consumed here.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/planloop/planloop/internal/domain"
)

// Ensure Client implements domain.AgentService.
var _ domain.AgentService = (*Client)(nil)

// Client is a JSON-over-HTTP implementation of domain.AgentService.
// Send awaits instruction completion server-side, so its timeout is the
// session wait bound (minutes); the other calls use a short timeout.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	token       string
	sendTimeout time.Duration
}

// shortTimeout bounds the non-waiting calls (create, list, abort).
const shortTimeout = 30 * time.Second

// NewClient creates a Client from service configuration.
func NewClient(cfg domain.ServiceConfig) *Client {
	timeout := time.Duration(cfg.TimeoutMinutes) * time.Minute
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &Client{
		httpClient:  &http.Client{},
		baseURL:     cfg.BaseURL,
		token:       cfg.Token,
		sendTimeout: timeout,
	}
}

type createSessionRequest struct {
	Title string `json:"title"`
}

type createSessionResponse struct {
	ID string `json:"id"`
}

type sendRequest struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

type listMessagesResponse struct {
	Messages []domain.Message `json:"messages"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// CreateSession creates a new session and returns its id.
func (c *Client) CreateSession(ctx context.Context, title string) (string, error) {
	var resp createSessionResponse
	err := c.do(ctx, http.MethodPost, "/v1/sessions", createSessionRequest{Title: title}, &resp, shortTimeout)
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	if resp.ID == "" {
		return "", fmt.Errorf("create session: service returned empty id")
	}
	return resp.ID, nil
}

// Send delivers text to a session under a role and awaits completion.
func (c *Client) Send(ctx context.Context, sessionID, role, text string) error {
	path := "/v1/sessions/" + sessionID + "/messages"
	if err := c.do(ctx, http.MethodPost, path, sendRequest{Role: role, Text: text}, nil, c.sendTimeout); err != nil {
		return fmt.Errorf("send to session %s: %w", sessionID, err)
	}
	return nil
}

// ListMessages returns the session transcript in order.
func (c *Client) ListMessages(ctx context.Context, sessionID string) ([]domain.Message, error) {
	var resp listMessagesResponse
	path := "/v1/sessions/" + sessionID + "/messages"
	if err := c.do(ctx, http.MethodGet, path, nil, &resp, shortTimeout); err != nil {
		return nil, fmt.Errorf("list messages for session %s: %w", sessionID, err)
	}
	return resp.Messages, nil
}

// Abort force-terminates a session.
func (c *Client) Abort(ctx context.Context, sessionID string) error {
	path := "/v1/sessions/" + sessionID + "/abort"
	if err := c.do(ctx, http.MethodPost, path, nil, nil, shortTimeout); err != nil {
		return fmt.Errorf("abort session %s: %w", sessionID, err)
	}
	return nil
}

// do executes one JSON request with a bounded timeout.
func (c *Client) do(ctx context.Context, method, path string, body, out any, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp errorResponse
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(data, &errResp) == nil && errResp.Error != "" {
			return fmt.Errorf("service error (%d): %s", resp.StatusCode, errResp.Error)
		}
		return fmt.Errorf("service error (%d)", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
