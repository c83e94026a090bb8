// Package fetch retrieves web pages for the fetch tool. External fetch
// services are tried first, then pages are downloaded directly and reduced
// to readable text.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	apperrors "github.com/harunnryd/mcpilot/internal/errors"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultMaxLength = 10000

	maxBodyBytes int64 = 5 * 1024 * 1024
)

type Options struct {
	// UseExternal enables the external service chain before the direct download.
	UseExternal bool
	Services    []string
	Timeout     time.Duration
	UserAgent   string
	MaxLength   int
	HTTPClient  *http.Client
}

// Page is a fetched and reduced web page.
type Page struct {
	URL        string `json:"url"`
	Title      string `json:"title,omitempty"`
	Content    string `json:"content"`
	Truncated  bool   `json:"truncated,omitempty"`
	Source     string `json:"source"`
	StatusCode int    `json:"status_code,omitempty"`
}

type Client struct {
	mu          sync.RWMutex
	services    []string
	useExternal bool
	userAgent   string
	maxLength   int
	http        *http.Client
}

func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	maxLength := opts.MaxLength
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}

	return &Client{
		services:    append([]string(nil), opts.Services...),
		useExternal: opts.UseExternal,
		userAgent:   opts.UserAgent,
		maxLength:   maxLength,
		http:        httpClient,
	}
}

// AddService puts baseURL at the front of the external service list.
func (c *Client) AddService(baseURL string) {
	baseURL = strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, s := range c.services {
		if s == baseURL {
			return
		}
	}
	c.services = append([]string{baseURL}, c.services...)
	slog.Info("Added external fetch service", "url", baseURL)
}

// SetUseExternal toggles the external service chain.
func (c *Client) SetUseExternal(v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.useExternal = v
}

func (c *Client) Services() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.services...)
}

// Fetch returns the readable content of rawURL, at most maxLength characters.
// A non-positive maxLength uses the client default.
func (c *Client) Fetch(ctx context.Context, rawURL string, maxLength int) (*Page, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, apperrors.InvalidInput("url is required")
	}
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		rawURL = "https://" + rawURL
	}
	if maxLength <= 0 {
		maxLength = c.maxLength
	}

	c.mu.RLock()
	useExternal := c.useExternal
	c.mu.RUnlock()

	if useExternal {
		for _, svc := range c.Services() {
			content, err := c.fetchExternal(ctx, svc, rawURL)
			if err != nil {
				if ctx.Err() != nil {
					return nil, fmt.Errorf("fetch %s: %w: %w", rawURL, apperrors.ErrFetch, ctx.Err())
				}
				slog.Debug("External fetch service failed, trying next", "service", svc, "error", err)
				continue
			}
			page := &Page{URL: rawURL, Source: svc}
			page.Content, page.Truncated = truncate(content, maxLength)
			return page, nil
		}
		slog.Debug("All external fetch services failed, fetching directly", "url", rawURL)
	}

	return c.fetchDirect(ctx, rawURL, maxLength)
}

func (c *Client) fetchExternal(ctx context.Context, service, rawURL string) (string, error) {
	body, err := json.Marshal(map[string]string{"url": rawURL})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, service+"/functions/fetch", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("service returned status %d", resp.StatusCode)
	}

	var out struct {
		Result struct {
			Content string `json:"content"`
		} `json:"result"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&out); err != nil {
		return "", fmt.Errorf("decode service response: %w", err)
	}
	if out.Result.Content == "" {
		return "", fmt.Errorf("service returned no content")
	}
	return out.Result.Content, nil
}

func (c *Client) fetchDirect(ctx context.Context, rawURL string, maxLength int) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, apperrors.WrapWithCategory(err, "invalid url", apperrors.ErrInvalidInput)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w: %w", rawURL, apperrors.ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d: %w", rawURL, resp.StatusCode, apperrors.ErrFetch)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: read body: %w: %w", rawURL, apperrors.ErrFetch, err)
	}

	page := &Page{URL: rawURL, Source: "direct", StatusCode: resp.StatusCode}
	contentType := strings.ToLower(resp.Header.Get("Content-Type"))

	switch {
	case strings.Contains(contentType, "html") || looksLikeHTML(raw):
		page.Title, page.Content = ExtractText(raw)
	case utf8.Valid(raw):
		page.Content = string(raw)
	default:
		page.Content = fmt.Sprintf("binary content (%s), %d bytes", contentType, len(raw))
	}

	page.Content, page.Truncated = truncate(page.Content, maxLength)
	return page, nil
}

func looksLikeHTML(raw []byte) bool {
	head := strings.ToLower(strings.TrimSpace(string(raw[:min(len(raw), 512)])))
	return strings.HasPrefix(head, "<!doctype html") || strings.HasPrefix(head, "<html")
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) (string, bool) {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s, false
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i], true
		}
		count++
	}
	return s, false
}
