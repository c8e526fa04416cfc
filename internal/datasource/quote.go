package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/takumi-oda/kabusight/internal/infra"
	"github.com/takumi-oda/kabusight/internal/news"
	"github.com/takumi-oda/kabusight/pkg/models"
	"github.com/takumi-oda/kabusight/pkg/utils"
)

const quoteSummaryModules = "price,summaryDetail,financialData,defaultKeyStatistics"

// YahooClient fetches quote snapshots from the Yahoo Finance
// quoteSummary API.
type YahooClient struct {
	httpClient *http.Client
	baseURL    string
	cache      *infra.Cache
	limiter    *infra.RateLimiter
	resolver   *news.NameResolver
}

// YahooOption customizes a YahooClient.
type YahooOption func(*YahooClient)

// WithQuoteHTTPClient overrides the HTTP client.
func WithQuoteHTTPClient(c *http.Client) YahooOption {
	return func(y *YahooClient) { y.httpClient = c }
}

// WithQuoteBaseURL overrides the API base URL.
func WithQuoteBaseURL(u string) YahooOption {
	return func(y *YahooClient) { y.baseURL = strings.TrimSuffix(u, "/") }
}

// WithQuoteNameResolver sets the resolver used to localize company
// names for domestic instruments. Nil disables localization.
func WithQuoteNameResolver(r *news.NameResolver) YahooOption {
	return func(y *YahooClient) { y.resolver = r }
}

// NewYahooClient creates a Yahoo Finance quote client.
func NewYahooClient(opts ...YahooOption) *YahooClient {
	y := &YahooClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    "https://query1.finance.yahoo.com",
		cache:      infra.NewCache(15 * time.Minute),
		limiter:    infra.NewRateLimiter(5, time.Second), // 5 req/s
	}
	for _, opt := range opts {
		opt(y)
	}
	return y
}

// Name returns the data source name.
func (y *YahooClient) Name() string { return "Yahoo Finance" }

// --- Yahoo Finance quoteSummary types ---

type yfQuoteSummaryResponse struct {
	QuoteSummary struct {
		Result []yfQuoteSummaryResult `json:"result"`
		Error  *yfError               `json:"error"`
	} `json:"quoteSummary"`
}

type yfQuoteSummaryResult struct {
	Price                *yfPrice         `json:"price"`
	SummaryDetail        *yfSummaryDetail `json:"summaryDetail"`
	FinancialData        *yfFinancialData `json:"financialData"`
	DefaultKeyStatistics *yfKeyStatistics `json:"defaultKeyStatistics"`
}

type yfPrice struct {
	Symbol                     string   `json:"symbol"`
	ShortName                  string   `json:"shortName"`
	LongName                   string   `json:"longName"`
	Currency                   string   `json:"currency"`
	RegularMarketPrice         *yfValue `json:"regularMarketPrice"`
	RegularMarketPreviousClose *yfValue `json:"regularMarketPreviousClose"`
	RegularMarketTime          int64    `json:"regularMarketTime"`
	MarketCap                  *yfValue `json:"marketCap"`
}

type yfSummaryDetail struct {
	TrailingPE    *yfValue `json:"trailingPE"`
	ForwardPE     *yfValue `json:"forwardPE"`
	PriceToBook   *yfValue `json:"priceToBook"`
	DividendYield *yfValue `json:"dividendYield"`
	Beta          *yfValue `json:"beta"`
	MarketCap     *yfValue `json:"marketCap"`
}

type yfFinancialData struct {
	RecommendationKey       string   `json:"recommendationKey"`
	RecommendationMean      *yfValue `json:"recommendationMean"`
	NumberOfAnalystOpinions *yfValue `json:"numberOfAnalystOpinions"`
	TargetMeanPrice         *yfValue `json:"targetMeanPrice"`
	FinancialCurrency       string   `json:"financialCurrency"`
}

type yfKeyStatistics struct {
	ForwardPE               *yfValue `json:"forwardPE"`
	PegRatio                *yfValue `json:"pegRatio"`
	PriceToBook             *yfValue `json:"priceToBook"`
	TrailingEps             *yfValue `json:"trailingEps"`
	Beta                    *yfValue `json:"beta"`
	HeldPercentInstitutions *yfValue `json:"heldPercentInstitutions"`
}

// yfValue is the {raw, fmt} pair Yahoo wraps numeric fields in. Raw is
// a pointer so a field that is present but empty stays distinguishable
// from zero.
type yfValue struct {
	Raw *float64 `json:"raw"`
	Fmt string   `json:"fmt"`
}

func (v *yfValue) raw() *float64 {
	if v == nil {
		return nil
	}
	return v.Raw
}

type yfError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// --- Public methods ---

// Snapshot returns a sanitized point-in-time snapshot for the symbol.
// The symbol should already be normalized (see utils.NormalizeTicker).
func (y *YahooClient) Snapshot(ctx context.Context, symbol string) (models.Snapshot, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return models.Snapshot{}, fmt.Errorf("%w: empty symbol", ErrTickerNotFound)
	}

	cacheKey := "snapshot:" + symbol
	if cached, ok := y.cache.Get(cacheKey); ok {
		return cached.(models.Snapshot), nil
	}

	if err := y.limiter.Wait(ctx); err != nil {
		return models.Snapshot{}, err
	}

	url := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=%s", y.baseURL, symbol, quoteSummaryModules)
	body, status, err := doGet(ctx, y.httpClient, url, map[string]string{
		"Accept": "application/json",
	})
	if err != nil {
		if status == http.StatusNotFound {
			return models.Snapshot{}, fmt.Errorf("%w: %s", ErrTickerNotFound, symbol)
		}
		return models.Snapshot{}, fmt.Errorf("quote %s: %w", symbol, err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return models.Snapshot{}, fmt.Errorf("read response: %w", err)
	}

	var resp yfQuoteSummaryResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return models.Snapshot{}, fmt.Errorf("parse quote %s: %w", symbol, err)
	}

	if resp.QuoteSummary.Error != nil {
		return models.Snapshot{}, fmt.Errorf("quote API error: %s", resp.QuoteSummary.Error.Description)
	}
	if len(resp.QuoteSummary.Result) == 0 || resp.QuoteSummary.Result[0].Price == nil {
		return models.Snapshot{}, fmt.Errorf("%w: %s", ErrTickerNotFound, symbol)
	}

	snap := y.buildSnapshot(ctx, symbol, resp.QuoteSummary.Result[0])
	y.cache.Set(cacheKey, snap)
	return snap, nil
}

// --- Snapshot assembly ---

func (y *YahooClient) buildSnapshot(ctx context.Context, symbol string, r yfQuoteSummaryResult) models.Snapshot {
	price := r.Price

	snap := models.Snapshot{
		Symbol:         symbol,
		ResolvedSymbol: coalesce(price.Symbol, symbol),
		CompanyName:    coalesce(price.LongName, price.ShortName, symbol),
		Currency:       "USD",
	}

	if price.Currency != "" {
		snap.Currency = price.Currency
	} else if r.FinancialData != nil && r.FinancialData.FinancialCurrency != "" {
		snap.Currency = r.FinancialData.FinancialCurrency
	}

	snap.Price = sanitized(price.RegularMarketPrice.raw())
	snap.PreviousClose = sanitized(price.RegularMarketPreviousClose.raw())
	if snap.Price != nil && snap.PreviousClose != nil && *snap.PreviousClose != 0 {
		change := *snap.Price - *snap.PreviousClose
		pct := change / *snap.PreviousClose * 100
		snap.DayChange = &change
		snap.DayChangePct = &pct
	}

	if price.RegularMarketTime > 0 {
		snap.MarketTime = time.Unix(price.RegularMarketTime, 0).UTC()
	} else {
		snap.MarketTime = time.Now().UTC()
	}

	snap.Analyst = buildAnalyst(snap.Price, r.FinancialData, r.DefaultKeyStatistics)
	snap.Metrics = buildMetrics(r.Price, r.SummaryDetail, r.DefaultKeyStatistics)

	// Domestic instruments get their localized company name when one
	// can be resolved.
	if y.resolver != nil && utils.IsLocalSymbol(symbol) {
		if name := y.resolver.Resolve(ctx, symbol, snap.CompanyName); name != "" {
			snap.CompanyName = name
		}
	}

	return snap
}

func buildAnalyst(price *float64, fd *yfFinancialData, ks *yfKeyStatistics) models.AnalystSnapshot {
	var a models.AnalystSnapshot
	if fd != nil {
		a.RecommendationKey = fd.RecommendationKey
		a.RecommendationMean = sanitized(fd.RecommendationMean.raw())
		if n := sanitized(fd.NumberOfAnalystOpinions.raw()); n != nil {
			count := int(*n)
			a.OpinionCount = &count
		}
		a.TargetMeanPrice = sanitized(fd.TargetMeanPrice.raw())
		if a.TargetMeanPrice != nil && price != nil && *price != 0 {
			gap := (*a.TargetMeanPrice - *price) / *price * 100
			a.TargetGapPct = &gap
		}
	}
	if ks != nil {
		a.InstitutionalOwnershipPct = institutionPct(ks.HeldPercentInstitutions.raw())
	}
	return a
}

func buildMetrics(price *yfPrice, sd *yfSummaryDetail, ks *yfKeyStatistics) models.KeyMetrics {
	var m models.KeyMetrics
	if sd != nil {
		m.TrailingPE = nonNegative(sd.TrailingPE.raw())
		m.ForwardPE = nonNegative(sd.ForwardPE.raw())
		m.PriceToBook = nonNegative(sd.PriceToBook.raw())
		m.DividendYieldPct = dividendYieldPct(sd.DividendYield.raw())
		m.Beta = sanitized(sd.Beta.raw())
		m.MarketCap = nonNegative(sd.MarketCap.raw())
	}
	if ks != nil {
		if m.ForwardPE == nil {
			m.ForwardPE = nonNegative(ks.ForwardPE.raw())
		}
		if m.PriceToBook == nil {
			m.PriceToBook = nonNegative(ks.PriceToBook.raw())
		}
		if m.Beta == nil {
			m.Beta = sanitized(ks.Beta.raw())
		}
		m.PEGRatio = nonNegative(ks.PegRatio.raw())
		// Negative EPS is a real signal, so it survives sanitization.
		m.TrailingEPS = sanitized(ks.TrailingEps.raw())
	}
	if m.MarketCap == nil && price != nil {
		m.MarketCap = nonNegative(price.MarketCap.raw())
	}
	return m
}

// --- Value sanitization ---

// sanitized drops NaN and infinite values but keeps negatives.
func sanitized(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	return v
}

// nonNegative drops NaN, infinite, and negative values.
func nonNegative(v *float64) *float64 {
	v = sanitized(v)
	if v == nil || *v < 0 {
		return nil
	}
	return v
}

// dividendYieldPct converts the vendor's ratio to a percentage and
// drops values outside the plausible 0-100 window.
func dividendYieldPct(v *float64) *float64 {
	v = sanitized(v)
	if v == nil {
		return nil
	}
	pct := *v * 100
	if pct < 0 || pct > 100 {
		return nil
	}
	return &pct
}

// institutionPct normalizes institutional ownership to a percentage.
// Ratios in [0, 1] are scaled; values already above 1 are taken as
// percentages; negatives are invalid.
func institutionPct(v *float64) *float64 {
	v = sanitized(v)
	if v == nil || *v < 0 {
		return nil
	}
	if *v <= 1 {
		pct := *v * 100
		return &pct
	}
	return v
}

func coalesce(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
