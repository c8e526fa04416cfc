package news

import (
	"sort"
	"time"

	"github.com/takumi-oda/kabusight/pkg/models"
)

// sortDate returns the item's publication time for ordering. Items
// without a usable date sort as oldest.
func sortDate(item models.NewsItem, now time.Time) time.Time {
	if item.PublishedAt != nil {
		return *item.PublishedAt
	}
	if item.Published != "" {
		if t, ok := ParseDate(item.Published, now); ok {
			return t
		}
	}
	return time.Unix(0, 0).UTC()
}

// Rank orders items by importance, then focus, then recency, all
// descending. The sort is stable so equally-scored items keep their
// arrival order.
func (sc *Scorer) Rank(items []models.NewsItem, companyName, symbol, query string, now time.Time) []models.NewsItem {
	type scored struct {
		item       models.NewsItem
		importance int
		focus      int
		date       time.Time
	}

	ranked := make([]scored, len(items))
	for i, item := range items {
		ranked[i] = scored{
			item:       item,
			importance: sc.Importance(item),
			focus:      sc.Focus(item, companyName, symbol, query),
			date:       sortDate(item, now),
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.importance != b.importance {
			return a.importance > b.importance
		}
		if a.focus != b.focus {
			return a.focus > b.focus
		}
		return a.date.After(b.date)
	})

	out := make([]models.NewsItem, len(ranked))
	for i, s := range ranked {
		out[i] = s.item
	}
	return out
}

// DropUnfocused removes items whose focus does not exceed minFocus
// unless their importance clears minImportance; high-signal events stay
// even when the scorer cannot tie them to the instrument by name.
func (sc *Scorer) DropUnfocused(items []models.NewsItem, companyName, symbol, query string, minFocus, minImportance int) []models.NewsItem {
	kept := make([]models.NewsItem, 0, len(items))
	for _, item := range items {
		focus := sc.Focus(item, companyName, symbol, query)
		if focus <= minFocus && sc.Importance(item) < minImportance {
			continue
		}
		kept = append(kept, item)
	}
	return kept
}
