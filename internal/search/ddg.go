package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/takumi-oda/kabusight/internal/infra"
)

// ddgPageSize is the number of results the news endpoint returns per
// page.
const ddgPageSize = 30

// vqdPattern extracts the session token embedded in the DuckDuckGo
// HTML page. The token must accompany every API request.
var vqdPattern = regexp.MustCompile(`vqd=['"]?([\d-]+)`)

// DuckDuckGo implements Client against the DuckDuckGo news vertical.
// The protocol is two-step: fetch the search page once to obtain a vqd
// session token for the query, then call the JSON news endpoint with
// it. Tokens are cached per query string.
type DuckDuckGo struct {
	httpClient *http.Client
	limiter    *infra.RateLimiter
	baseURL    string
	vqdCache   *infra.Cache
}

// DDGOption configures a DuckDuckGo client.
type DDGOption func(*DuckDuckGo)

// WithDDGHTTPClient sets a custom HTTP client (used by tests).
func WithDDGHTTPClient(c *http.Client) DDGOption {
	return func(d *DuckDuckGo) { d.httpClient = c }
}

// WithDDGBaseURL overrides the endpoint base URL (used by tests).
func WithDDGBaseURL(u string) DDGOption {
	return func(d *DuckDuckGo) { d.baseURL = u }
}

// WithDDGRateLimiter sets a custom rate limiter.
func WithDDGRateLimiter(rl *infra.RateLimiter) DDGOption {
	return func(d *DuckDuckGo) { d.limiter = rl }
}

// NewDuckDuckGo creates a DuckDuckGo news search client.
func NewDuckDuckGo(opts ...DDGOption) *DuckDuckGo {
	d := &DuckDuckGo{
		httpClient: newHTTPClient(30 * time.Second),
		limiter:    infra.NewRateLimiter(1, time.Second),
		baseURL:    "https://duckduckgo.com",
		vqdCache:   infra.NewCache(10 * time.Minute),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Name returns the backend name.
func (d *DuckDuckGo) Name() string { return "DuckDuckGo News" }

// News runs one news search query, paging until maxResults hits are
// collected or the backend runs dry.
func (d *DuckDuckGo) News(ctx context.Context, keywords, region string, maxResults int) ([]Hit, error) {
	if maxResults <= 0 {
		maxResults = ddgPageSize
	}

	vqd, err := d.token(ctx, keywords)
	if err != nil {
		return nil, err
	}

	var hits []Hit
	for offset := 0; len(hits) < maxResults; offset += ddgPageSize {
		page, err := d.fetchPage(ctx, keywords, region, vqd, offset)
		if err != nil {
			// Keep what an earlier page already yielded.
			if len(hits) > 0 {
				return hits, nil
			}
			return nil, err
		}
		if len(page) == 0 {
			break
		}
		hits = append(hits, page...)
		if len(page) < ddgPageSize {
			break
		}
	}

	if len(hits) == 0 {
		return nil, ErrNoResults
	}
	if len(hits) > maxResults {
		hits = hits[:maxResults]
	}
	return hits, nil
}

// token returns the vqd session token for a query, fetching the search
// page when the cache misses.
func (d *DuckDuckGo) token(ctx context.Context, keywords string) (string, error) {
	if cached, ok := d.vqdCache.Get(keywords); ok {
		return cached.(string), nil
	}

	if err := d.limiter.Wait(ctx); err != nil {
		return "", err
	}

	pageURL := fmt.Sprintf("%s/?q=%s&ia=news", d.baseURL, url.QueryEscape(keywords))
	body, _, err := doGet(ctx, d.httpClient, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("fetch session token: %w", err)
	}
	defer body.Close()

	data, err := io.ReadAll(io.LimitReader(body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read token page: %w", err)
	}

	m := vqdPattern.FindSubmatch(data)
	if m == nil {
		return "", fmt.Errorf("session token not found in response")
	}

	vqd := string(m[1])
	d.vqdCache.Set(keywords, vqd)
	return vqd, nil
}

// ddgNewsResponse mirrors the JSON shape of the news endpoint.
type ddgNewsResponse struct {
	Results []struct {
		Date         int64  `json:"date"`
		Excerpt      string `json:"excerpt"`
		RelativeTime string `json:"relative_time"`
		Source       string `json:"source"`
		Title        string `json:"title"`
		URL          string `json:"url"`
	} `json:"results"`
}

// fetchPage fetches one page of news results.
func (d *DuckDuckGo) fetchPage(ctx context.Context, keywords, region, vqd string, offset int) ([]Hit, error) {
	if err := d.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("l", region)
	params.Set("o", "json")
	params.Set("noamp", "1")
	params.Set("q", keywords)
	params.Set("vqd", vqd)
	if offset > 0 {
		params.Set("s", fmt.Sprintf("%d", offset))
	}

	endpoint := fmt.Sprintf("%s/news.js?%s", d.baseURL, params.Encode())
	body, _, err := doGet(ctx, d.httpClient, endpoint, map[string]string{
		"Referer": d.baseURL + "/",
	})
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var payload ddgNewsResponse
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode news response: %w", err)
	}

	hits := make([]Hit, 0, len(payload.Results))
	for _, r := range payload.Results {
		h := Hit{
			Title:  cleanHTML(r.Title),
			URL:    r.URL,
			Body:   cleanHTML(r.Excerpt),
			Source: r.Source,
		}
		if r.Date > 0 {
			h.Date = time.Unix(r.Date, 0).UTC().Format(time.RFC3339)
		} else if r.RelativeTime != "" {
			h.Date = r.RelativeTime
		}
		hits = append(hits, h)
	}
	return hits, nil
}
