package search

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/takumi-oda/kabusight/internal/config"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Test Feed</title>
    <item>
      <title>日立製作所が決算を発表</title>
      <link>https://example.com/hitachi</link>
      <description>&lt;p&gt;日立製作所の決算記事。&lt;/p&gt;</description>
      <pubDate>Mon, 02 Jun 2025 09:00:00 GMT</pubDate>
    </item>
    <item>
      <title>Unrelated market wrap</title>
      <link>https://example.com/wrap</link>
      <description>Broad market summary.</description>
      <pubDate>Mon, 02 Jun 2025 08:00:00 GMT</pubDate>
    </item>
  </channel>
</rss>`

func TestFeedReaderNews(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		fmt.Fprint(w, sampleFeed)
	}))
	defer srv.Close()

	fr := NewFeedReader([]config.FeedSource{{Name: "Test Feed", URL: srv.URL}})
	hits, err := fr.News(context.Background(), "6501 日立製作所", "jp-jp", 10)
	if err != nil {
		t.Fatalf("News() error: %v", err)
	}

	// Only the item mentioning the company survives the filter.
	if len(hits) != 1 {
		t.Fatalf("got %d hits, want 1", len(hits))
	}
	if hits[0].Title != "日立製作所が決算を発表" {
		t.Errorf("Title: got %q", hits[0].Title)
	}
	if hits[0].Body != "日立製作所の決算記事。" {
		t.Errorf("Body should have HTML stripped, got %q", hits[0].Body)
	}
	if hits[0].Source != "Test Feed" {
		t.Errorf("Source: got %q", hits[0].Source)
	}
	if hits[0].Date == "" {
		t.Error("Date should carry the feed pubDate")
	}
}

func TestFeedReaderSymbolPlaceholder(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		fmt.Fprint(w, sampleFeed)
	}))
	defer srv.Close()

	fr := NewFeedReader([]config.FeedSource{{Name: "Param Feed", URL: srv.URL + "/rss?s={symbol}"}})
	fr.News(context.Background(), "6501.T 日立製作所", "jp-jp", 10)

	if gotPath != "/rss?s=6501.T" {
		t.Errorf("fetched %q, want /rss?s=6501.T", gotPath)
	}
}

func TestFeedReaderSkipsFailedSources(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, sampleFeed)
	}))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer bad.Close()

	fr := NewFeedReader([]config.FeedSource{
		{Name: "Bad", URL: bad.URL},
		{Name: "Good", URL: good.URL},
	})
	hits, err := fr.News(context.Background(), "日立製作所", "jp-jp", 10)
	if err != nil {
		t.Fatalf("News() error: %v", err)
	}
	if len(hits) != 1 {
		t.Errorf("got %d hits, want 1 from the healthy source", len(hits))
	}
}

func TestFeedReaderEmptyKeywords(t *testing.T) {
	fr := NewFeedReader(nil)
	_, err := fr.News(context.Background(), "   ", "jp-jp", 10)
	if !errors.Is(err, ErrNoResults) {
		t.Errorf("got %v, want ErrNoResults", err)
	}
}
