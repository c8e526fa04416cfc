// Package search provides web and feed search backends for news
// retrieval. The primary backend is the DuckDuckGo news vertical; RSS
// feeds act as a supplementary source when search under-delivers.
package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Client is a news search backend. Implementations return up to
// maxResults hits for the keyword string; region selects the result
// locale (e.g. "jp-jp", "us-en").
type Client interface {
	// Name returns the human-readable name of this backend.
	Name() string

	// News runs one news search query.
	News(ctx context.Context, keywords, region string, maxResults int) ([]Hit, error)
}

// Hit is one raw search result before any pipeline processing.
type Hit struct {
	Title  string
	URL    string
	Body   string
	Date   string
	Source string
}

// --- Sentinel errors ---

// ErrRateLimited is returned when the backend throttles the request.
// Callers back off and retry rather than failing the query round.
var ErrRateLimited = fmt.Errorf("rate limited by search backend")

// ErrNoResults is returned when a query completes but matches nothing.
var ErrNoResults = fmt.Errorf("no search results")

// ErrHTTP wraps an HTTP error with status code.
type ErrHTTP struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *ErrHTTP) Error() string {
	return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Status, e.Body)
}

// --- Shared HTTP client helpers ---

// DefaultUserAgent is the user agent string used for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// doGet performs a GET request and returns the response body. The
// caller closes the returned ReadCloser. Throttling status codes map
// to ErrRateLimited so callers can back off uniformly.
func doGet(ctx context.Context, client *http.Client, url string, headers map[string]string) (io.ReadCloser, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", DefaultUserAgent)
	req.Header.Set("Accept", "application/json, text/html, */*")
	req.Header.Set("Accept-Language", "ja,en-US;q=0.9,en;q=0.8")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("HTTP GET %s: %w", url, err)
	}

	// DuckDuckGo signals throttling with 202 as well as 429.
	if resp.StatusCode == http.StatusAccepted || resp.StatusCode == http.StatusTooManyRequests {
		resp.Body.Close()
		return nil, resp.StatusCode, fmt.Errorf("%s: %w", resp.Status, ErrRateLimited)
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, resp.StatusCode, &ErrHTTP{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
	}

	return resp.Body, resp.StatusCode, nil
}

// cleanHTML strips HTML tags from a string using goquery.
func cleanHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return s
	}
	return strings.TrimSpace(doc.Text())
}

// newHTTPClient builds the client shared by the backends.
func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout}
}
