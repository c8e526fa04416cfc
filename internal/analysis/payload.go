// Package analysis turns a market snapshot and collected news into a
// structured investment verdict. A run tries the configured AI
// providers in order and falls back to a statistics-only heuristic, so
// a verdict is always produced.
package analysis

import (
	"time"

	"github.com/takumi-oda/kabusight/pkg/models"
)

// BuildPayload assembles the record sent verbatim to AI providers.
// The resolved symbol takes precedence over the raw input symbol when
// the quote backend normalized it.
func BuildPayload(snap models.Snapshot, news []models.NewsItem) models.AnalysisPayload {
	symbol := snap.ResolvedSymbol
	if symbol == "" {
		symbol = snap.Symbol
	}
	ts := ""
	if !snap.MarketTime.IsZero() {
		ts = snap.MarketTime.Format(time.RFC3339)
	}
	return models.AnalysisPayload{
		Symbol:       symbol,
		CompanyName:  snap.CompanyName,
		Currency:     snap.Currency,
		Price:        snap.Price,
		DayChangePct: snap.DayChangePct,
		Analyst:      snap.Analyst,
		Metrics:      snap.Metrics,
		News:         news,
		Timestamp:    ts,
	}
}
