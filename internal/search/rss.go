package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/takumi-oda/kabusight/internal/config"
	"github.com/takumi-oda/kabusight/internal/infra"
)

// FeedReader pulls supplementary news from configured RSS feeds. It is
// consulted when web search alone cannot reach the minimum item count.
type FeedReader struct {
	sources []config.FeedSource
	cache   *infra.Cache
	limiter *infra.RateLimiter
	parser  *gofeed.Parser
}

// NewFeedReader creates a feed reader over the given sources.
func NewFeedReader(sources []config.FeedSource) *FeedReader {
	return &FeedReader{
		sources: sources,
		cache:   infra.NewCache(10 * time.Minute),
		limiter: infra.NewRateLimiter(2, time.Second),
		parser:  gofeed.NewParser(),
	}
}

// Name returns the backend name.
func (f *FeedReader) Name() string { return "RSS Feeds" }

// News fetches all configured feeds, expands the {symbol} placeholder
// with the keyword string's first token, and keeps items mentioning any
// of the keywords. Failed feeds are skipped.
func (f *FeedReader) News(ctx context.Context, keywords, region string, maxResults int) ([]Hit, error) {
	fields := strings.Fields(keywords)
	if len(fields) == 0 {
		return nil, ErrNoResults
	}
	symbol := fields[0]

	var hits []Hit
	for _, src := range f.sources {
		items, err := f.fetchFeed(ctx, src, symbol)
		if err != nil {
			// Non-critical: skip failed sources.
			continue
		}
		for _, h := range items {
			if matchesAny(h.Title+" "+h.Body, fields) {
				hits = append(hits, h)
			}
		}
	}

	if len(hits) == 0 {
		return nil, ErrNoResults
	}
	if maxResults > 0 && len(hits) > maxResults {
		hits = hits[:maxResults]
	}
	return hits, nil
}

// fetchFeed parses one RSS feed, serving repeats from cache.
func (f *FeedReader) fetchFeed(ctx context.Context, src config.FeedSource, symbol string) ([]Hit, error) {
	feedURL := strings.ReplaceAll(src.URL, "{symbol}", symbol)

	if cached, ok := f.cache.Get(feedURL); ok {
		return cached.([]Hit), nil
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	feed, err := f.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse RSS %s: %w", src.Name, err)
	}

	hits := make([]Hit, 0, len(feed.Items))
	for _, item := range feed.Items {
		h := Hit{
			Title:  item.Title,
			URL:    item.Link,
			Body:   cleanHTML(item.Description),
			Source: src.Name,
		}
		if item.PublishedParsed != nil {
			h.Date = item.PublishedParsed.UTC().Format(time.RFC3339)
		} else {
			h.Date = item.Published
		}
		hits = append(hits, h)
	}

	f.cache.Set(feedURL, hits)
	return hits, nil
}

// matchesAny checks if text contains any of the keywords (case-insensitive).
func matchesAny(text string, keywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
