package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client is an HTTP client for the status API
type Client struct {
	baseURL    string
	httpClient *http.Client
	// streamClient has no overall timeout; event streams stay open
	streamClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		streamClient: &http.Client{},
	}
}

// APIError represents an error response from the API
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an API error
type ErrorResponse struct {
	Error APIError `json:"error"`
}

func (e *APIError) String() string {
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// Get performs a GET request and decodes the JSON body into result
func (c *Client) Get(path string, result any) error {
	req, err := http.NewRequest(http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	// Check for error responses
	if resp.StatusCode >= 400 {
		var errResp ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Code != "" {
			return fmt.Errorf("%s", errResp.Error.String())
		}
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}

// Health fetches the health check
func (c *Client) Health() (HealthResult, error) {
	var result HealthResult
	err := c.Get("/api/v1/health", &result)
	return result, err
}

// Rankings fetches the ordered leaderboard, cut to limit entries when limit > 0
func (c *Client) Rankings(limit int) (Rankings, error) {
	path := "/api/v1/rankings"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var result Rankings
	err := c.Get(path, &result)
	return result, err
}

// Tournaments fetches the active tournaments
func (c *Client) Tournaments() (Tournaments, error) {
	var result Tournaments
	err := c.Get("/api/v1/tournaments", &result)
	return result, err
}

// Tournament fetches one tournament by name
func (c *Client) Tournament(name string) (Tournament, error) {
	var result Tournament
	err := c.Get("/api/v1/tournaments/"+url.PathEscape(name), &result)
	return result, err
}

// Online fetches the usernames with a live session
func (c *Client) Online() (OnlinePlayers, error) {
	var result OnlinePlayers
	err := c.Get("/api/v1/players/online", &result)
	return result, err
}

// Player fetches one registered player
func (c *Client) Player(username string) (Player, error) {
	var result Player
	err := c.Get("/api/v1/players/"+url.PathEscape(username), &result)
	return result, err
}

// Event is one server-sent event
type Event struct {
	Name string          `json:"event"`
	Data json.RawMessage `json:"data"`
}

// Events streams server-sent events until ctx ends, the server closes the
// stream or fn returns an error. io.EOF from fn stops the stream cleanly.
func (c *Client) Events(ctx context.Context, fn func(Event) error) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v1/events", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	var name string
	var data []string
	lines := bufio.NewScanner(resp.Body)
	for lines.Scan() {
		line := lines.Text()
		switch {
		case line == "":
			if name != "" {
				ev := Event{Name: name, Data: json.RawMessage(strings.Join(data, "\n"))}
				if err := fn(ev); err != nil {
					if errors.Is(err, io.EOF) {
						return nil
					}
					return err
				}
			}
			name, data = "", nil
		case strings.HasPrefix(line, ":"):
			// keepalive comment
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = append(data, strings.TrimPrefix(line, "data: "))
		}
	}
	if err := lines.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("read event stream: %w", err)
	}
	return nil
}
