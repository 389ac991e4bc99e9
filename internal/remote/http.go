package remote

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

	"golang.org/x/time/rate"

	"github.com/kenny1934/tutordesk/internal/message"
)

// Config holds configuration for creating an HTTP client.
type Config struct {
	URL           string
	APIKey        string
	AllowInsecure bool
	Timeout       time.Duration
	RateQPS       int // max requests per second; 0 disables limiting
}

// HTTP implements Client against the center's REST API.
type HTTP struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Compile-time check that HTTP implements Client.
var _ Client = (*HTTP)(nil)

// New creates a new HTTP client.
func New(cfg Config) (*HTTP, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("remote URL is required")
	}

	parsedURL, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	// Enforce HTTPS unless AllowInsecure is set
	if parsedURL.Scheme == "http" && !cfg.AllowInsecure {
		return nil, fmt.Errorf("HTTPS required for remote connections\n\n"+
			"Options:\n"+
			"  1. Use HTTPS: [remote] url = %q\n"+
			"  2. For trusted networks: add 'allow_insecure = true' to [remote] in config.toml",
			"https://"+parsedURL.Host)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("URL scheme must be http or https, got: %s", parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return nil, fmt.Errorf("remote URL must include a host (e.g., https://csm.example.com)")
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	var limiter *rate.Limiter
	if cfg.RateQPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateQPS), cfg.RateQPS)
	}

	return &HTTP{
		baseURL:    strings.TrimSuffix(cfg.URL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
	}, nil
}

// Close is a no-op for the HTTP client.
func (c *HTTP) Close() error {
	return nil
}

// doRequest performs an authenticated, rate-limited HTTP request.
func (c *HTTP) doRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

// apiError represents an error response from the API.
type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// handleErrorResponse reads an error response and returns an appropriate error.
func handleErrorResponse(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		return fmt.Errorf("API error (%d): %s", resp.StatusCode, apiErr.Message)
	}
	return fmt.Errorf("API error (%d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
}

// doAck performs a request whose only interesting outcome is success.
func (c *HTTP) doAck(ctx context.Context, method, path string, body any) error {
	resp, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return handleErrorResponse(resp)
	}
	return nil
}

// FetchMessages implements Client.
func (c *HTTP) FetchMessages(ctx context.Context, f Filter) (*Page, error) {
	params := url.Values{}
	params.Set("owner", f.OwnerID)
	if f.Folder != "" {
		params.Set("folder", string(f.Folder))
	}
	if name := f.Category.APIName(); name != "" {
		params.Set("category", name)
	}
	if f.Query != "" {
		params.Set("q", f.Query)
	}
	if f.Page > 0 {
		params.Set("page", strconv.Itoa(f.Page))
		params.Set("page_size", strconv.Itoa(f.PageSize))
	}

	resp, err := c.doRequest(ctx, http.MethodGet, "/api/v1/messages?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, handleErrorResponse(resp)
	}

	var mr messagesResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return nil, fmt.Errorf("decode messages response: %w", err)
	}

	page := &Page{
		Messages: make([]message.Message, len(mr.Messages)),
		Total:    mr.TotalThreads,
		HasMore:  mr.HasMore,
	}
	for i, m := range mr.Messages {
		page.Messages[i] = toMessage(m)
	}
	return page, nil
}

// FetchUnreadCount implements Client.
func (c *HTTP) FetchUnreadCount(ctx context.Context, ownerID string) (int, error) {
	params := url.Values{}
	params.Set("owner", ownerID)

	resp, err := c.doRequest(ctx, http.MethodGet, "/api/v1/unread?"+params.Encode(), nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, handleErrorResponse(resp)
	}

	var ur struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&ur); err != nil {
		return 0, fmt.Errorf("decode unread response: %w", err)
	}
	return ur.Count, nil
}

// Send implements Client.
func (c *HTTP) Send(ctx context.Context, mc MessageCreate) (*message.Message, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/api/v1/messages", toCreateJSON(mc))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, handleErrorResponse(resp)
	}

	var mj messageJSON
	if err := json.NewDecoder(resp.Body).Decode(&mj); err != nil {
		return nil, fmt.Errorf("decode send response: %w", err)
	}
	sent := toMessage(mj)
	return &sent, nil
}

// SetReadState implements Client.
func (c *HTTP) SetReadState(ctx context.Context, messageID int64, read bool) error {
	path := "/api/v1/messages/" + strconv.FormatInt(messageID, 10) + "/read"
	return c.doAck(ctx, http.MethodPut, path, map[string]bool{"read": read})
}

// React implements Client.
func (c *HTTP) React(ctx context.Context, messageID int64, emoji string) error {
	path := "/api/v1/messages/" + strconv.FormatInt(messageID, 10) + "/reactions"
	return c.doAck(ctx, http.MethodPost, path, map[string]string{"emoji": emoji})
}

// Archive implements Client.
func (c *HTTP) Archive(ctx context.Context, threadIDs []int64) error {
	return c.doAck(ctx, http.MethodPost, "/api/v1/threads/archive", idsPayload(threadIDs))
}

// Unarchive implements Client.
func (c *HTTP) Unarchive(ctx context.Context, threadIDs []int64) error {
	return c.doAck(ctx, http.MethodPost, "/api/v1/threads/unarchive", idsPayload(threadIDs))
}

// Pin implements Client.
func (c *HTTP) Pin(ctx context.Context, threadIDs []int64) error {
	return c.doAck(ctx, http.MethodPost, "/api/v1/threads/pin", idsPayload(threadIDs))
}

// Unpin implements Client.
func (c *HTTP) Unpin(ctx context.Context, threadIDs []int64) error {
	return c.doAck(ctx, http.MethodPost, "/api/v1/threads/unpin", idsPayload(threadIDs))
}

// Delete implements Client.
func (c *HTTP) Delete(ctx context.Context, threadID int64) error {
	return c.doAck(ctx, http.MethodDelete, "/api/v1/threads/"+strconv.FormatInt(threadID, 10), nil)
}

func idsPayload(ids []int64) map[string][]int64 {
	return map[string][]int64{"ids": ids}
}
