package models

import "time"

// Snapshot is a point-in-time view of a single instrument: last price,
// day move, analyst consensus, and valuation metrics. Optional numeric
// fields use pointers so "not available" survives JSON round-trips
// instead of degrading to zero.
type Snapshot struct {
	Symbol         string `json:"symbol"`
	ResolvedSymbol string `json:"resolved_symbol,omitempty"`
	CompanyName    string `json:"company_name"`
	Currency       string `json:"currency"`

	Price         *float64 `json:"price"`
	PreviousClose *float64 `json:"previous_close"`
	DayChange     *float64 `json:"day_change"`
	DayChangePct  *float64 `json:"day_change_pct"`

	Analyst AnalystSnapshot `json:"analyst"`
	Metrics KeyMetrics      `json:"key_metrics"`

	MarketTime time.Time `json:"market_time"`
}

// AnalystSnapshot carries the analyst-consensus slice of a Snapshot.
type AnalystSnapshot struct {
	RecommendationKey         string   `json:"recommendation_key,omitempty"`
	RecommendationMean        *float64 `json:"recommendation_mean,omitempty"`
	OpinionCount              *int     `json:"opinion_count,omitempty"`
	TargetMeanPrice           *float64 `json:"target_mean_price,omitempty"`
	TargetGapPct              *float64 `json:"target_gap_pct,omitempty"`
	InstitutionalOwnershipPct *float64 `json:"institutional_ownership_pct,omitempty"`
}

// KeyMetrics holds sanitized valuation metrics. JSON keys follow the
// upstream quote vendor's field names so payloads stay recognizable to
// prompt templates written against them.
type KeyMetrics struct {
	TrailingPE       *float64 `json:"trailingPE"`
	ForwardPE        *float64 `json:"forwardPE"`
	PEGRatio         *float64 `json:"pegRatio"`
	PriceToBook      *float64 `json:"priceToBook"`
	TrailingEPS      *float64 `json:"trailingEps"`
	DividendYieldPct *float64 `json:"dividendYield"`
	Beta             *float64 `json:"beta"`
	MarketCap        *float64 `json:"marketCap"`
}
