// Package news implements the ranked, de-duplicated news retrieval
// pipeline: tiered query planning, recency filtering, shallow-article
// exclusion, relevance scoring, ranking, and best-effort full-text
// enrichment.
package news

import (
	"sync"

	"github.com/takumi-oda/kabusight/pkg/models"
)

// Session accumulates results across query rounds. Items are
// de-duplicated by exact URL; the first occurrence wins. Errors collect
// per-query failures without aborting the round.
type Session struct {
	mu     sync.Mutex
	seen   map[string]struct{}
	items  []models.NewsItem
	errors []string
}

// NewSession creates an empty retrieval session.
func NewSession() *Session {
	return &Session{seen: make(map[string]struct{})}
}

// Add appends an item unless its URL was already collected or the item
// lacks a URL or title. Reports whether the item was kept.
func (s *Session) Add(item models.NewsItem) bool {
	if item.URL == "" || item.Title == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.seen[item.URL]; dup {
		return false
	}
	s.seen[item.URL] = struct{}{}
	s.items = append(s.items, item)
	return true
}

// Len returns the number of collected items.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Items returns a copy of the collected items in arrival order.
func (s *Session) Items() []models.NewsItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.NewsItem, len(s.items))
	copy(out, s.items)
	return out
}

// RecordError stores a per-query failure message.
func (s *Session) RecordError(msg string) {
	s.mu.Lock()
	s.errors = append(s.errors, msg)
	s.mu.Unlock()
}

// Errors returns the recorded failure messages.
func (s *Session) Errors() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.errors))
	copy(out, s.errors)
	return out
}
