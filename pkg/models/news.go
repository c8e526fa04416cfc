// Package models defines the core data structures used throughout kabusight.
package models

import "time"

// NewsItem is a single news article collected by a retrieval session.
// The URL is the identity of the item: sessions deduplicate on it.
type NewsItem struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`

	// Published is the raw date string as returned by the search
	// backend. PublishedAt is the parsed form; nil when the raw string
	// could not be parsed (such items are treated as possibly current).
	Published   string     `json:"published,omitempty"`
	PublishedAt *time.Time `json:"-"`

	Source   string `json:"source,omitempty"`
	Language string `json:"language,omitempty"`

	// FullContentFetched is set by the content enricher when the
	// snippet has been replaced with the fetched article body.
	FullContentFetched bool `json:"full_content_fetched"`
}

// SearchQuery is one concrete query produced by the tiered planner.
type SearchQuery struct {
	Keywords   string `json:"keywords"`
	Region     string `json:"region"`
	MaxResults int    `json:"max_results"`
}
