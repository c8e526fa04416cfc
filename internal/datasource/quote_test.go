package datasource

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/takumi-oda/kabusight/internal/news"
)

const sampleQuoteSummary = `{
  "quoteSummary": {
    "result": [{
      "price": {
        "symbol": "6501.T",
        "shortName": "HITACHI LTD",
        "longName": "Hitachi, Ltd.",
        "currency": "JPY",
        "regularMarketPrice": {"raw": 3800.0, "fmt": "3,800"},
        "regularMarketPreviousClose": {"raw": 3846.15, "fmt": "3,846"},
        "regularMarketTime": 1749567600
      },
      "summaryDetail": {
        "trailingPE": {"raw": 18.4},
        "forwardPE": {"raw": 16.1},
        "dividendYield": {"raw": 0.0095},
        "beta": {"raw": 1.1},
        "marketCap": {"raw": 17500000000000}
      },
      "financialData": {
        "recommendationKey": "buy",
        "recommendationMean": {"raw": 1.8},
        "numberOfAnalystOpinions": {"raw": 14},
        "targetMeanPrice": {"raw": 4275.0},
        "financialCurrency": "JPY"
      },
      "defaultKeyStatistics": {
        "pegRatio": {"raw": 1.4},
        "priceToBook": {"raw": 2.1},
        "trailingEps": {"raw": 206.5},
        "heldPercentInstitutions": {"raw": 0.42}
      }
    }],
    "error": null
  }
}`

func newTestClient(t *testing.T, handler http.Handler, opts ...YahooOption) (*YahooClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	opts = append([]YahooOption{
		WithQuoteBaseURL(srv.URL),
		WithQuoteHTTPClient(srv.Client()),
	}, opts...)
	return NewYahooClient(opts...), srv
}

func TestSnapshot(t *testing.T) {
	var gotPath, gotModules string
	y, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotModules = r.URL.Query().Get("modules")
		fmt.Fprint(w, sampleQuoteSummary)
	}))

	snap, err := y.Snapshot(context.Background(), "6501.t")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	if gotPath != "/v10/finance/quoteSummary/6501.T" {
		t.Errorf("path: got %q", gotPath)
	}
	if gotModules != quoteSummaryModules {
		t.Errorf("modules: got %q", gotModules)
	}

	if snap.Symbol != "6501.T" || snap.ResolvedSymbol != "6501.T" {
		t.Errorf("symbols: got %q / %q", snap.Symbol, snap.ResolvedSymbol)
	}
	if snap.CompanyName != "Hitachi, Ltd." {
		t.Errorf("company: got %q", snap.CompanyName)
	}
	if snap.Currency != "JPY" {
		t.Errorf("currency: got %q", snap.Currency)
	}
	if snap.Price == nil || *snap.Price != 3800 {
		t.Errorf("price: got %v", snap.Price)
	}
	if snap.DayChange == nil || math.Abs(*snap.DayChange-(-46.15)) > 0.001 {
		t.Errorf("day change: got %v", snap.DayChange)
	}
	if snap.DayChangePct == nil || math.Abs(*snap.DayChangePct-(-1.2)) > 0.01 {
		t.Errorf("day change pct: got %v", snap.DayChangePct)
	}

	if snap.Analyst.RecommendationKey != "buy" {
		t.Errorf("recommendation: got %q", snap.Analyst.RecommendationKey)
	}
	if snap.Analyst.OpinionCount == nil || *snap.Analyst.OpinionCount != 14 {
		t.Errorf("opinion count: got %v", snap.Analyst.OpinionCount)
	}
	// (4275 - 3800) / 3800 * 100 = 12.5
	if snap.Analyst.TargetGapPct == nil || math.Abs(*snap.Analyst.TargetGapPct-12.5) > 0.001 {
		t.Errorf("target gap: got %v", snap.Analyst.TargetGapPct)
	}
	// 0.42 ratio -> 42%
	if v := snap.Analyst.InstitutionalOwnershipPct; v == nil || math.Abs(*v-42) > 0.001 {
		t.Errorf("institutional pct: got %v", v)
	}

	if snap.Metrics.TrailingPE == nil || *snap.Metrics.TrailingPE != 18.4 {
		t.Errorf("trailingPE: got %v", snap.Metrics.TrailingPE)
	}
	// 0.0095 ratio -> 0.95%
	if v := snap.Metrics.DividendYieldPct; v == nil || math.Abs(*v-0.95) > 0.0001 {
		t.Errorf("dividend yield: got %v", v)
	}
	if snap.Metrics.TrailingEPS == nil || *snap.Metrics.TrailingEPS != 206.5 {
		t.Errorf("trailingEps: got %v", snap.Metrics.TrailingEPS)
	}
	if snap.MarketTime.IsZero() || snap.MarketTime.Unix() != 1749567600 {
		t.Errorf("market time: got %v", snap.MarketTime)
	}
}

func TestSnapshotCached(t *testing.T) {
	calls := 0
	y, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, sampleQuoteSummary)
	}))

	for i := 0; i < 3; i++ {
		if _, err := y.Snapshot(context.Background(), "6501.T"); err != nil {
			t.Fatalf("Snapshot: %v", err)
		}
	}
	if calls != 1 {
		t.Errorf("got %d upstream calls, want 1", calls)
	}
}

func TestSnapshotNotFound(t *testing.T) {
	y, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"quoteSummary":{"result":null,"error":{"code":"Not Found","description":"Quote not found"}}}`)
	}))

	if _, err := y.Snapshot(context.Background(), "NOPE"); !errors.Is(err, ErrTickerNotFound) {
		t.Errorf("got %v, want ErrTickerNotFound", err)
	}
}

func TestSnapshotRateLimited(t *testing.T) {
	y, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	if _, err := y.Snapshot(context.Background(), "6501.T"); !errors.Is(err, ErrRateLimited) {
		t.Errorf("got %v, want ErrRateLimited", err)
	}
}

func TestSnapshotEmptySymbol(t *testing.T) {
	y := NewYahooClient()
	if _, err := y.Snapshot(context.Background(), "  "); !errors.Is(err, ErrTickerNotFound) {
		t.Errorf("got %v, want ErrTickerNotFound", err)
	}
}

func TestSnapshotDropsInvalidValues(t *testing.T) {
	body := `{
  "quoteSummary": {
    "result": [{
      "price": {
        "symbol": "XEMPL",
        "shortName": "Example Corp",
        "currency": "USD",
        "regularMarketPrice": {"raw": 50.0}
      },
      "summaryDetail": {
        "trailingPE": {"raw": -4.2},
        "dividendYield": {"raw": 2.5},
        "beta": {"raw": -0.3}
      },
      "defaultKeyStatistics": {
        "trailingEps": {"raw": -1.85},
        "heldPercentInstitutions": {"raw": -0.1}
      }
    }],
    "error": null
  }
}`
	y, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	}))

	snap, err := y.Snapshot(context.Background(), "XEMPL")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	if snap.Metrics.TrailingPE != nil {
		t.Errorf("negative trailingPE should be dropped, got %v", *snap.Metrics.TrailingPE)
	}
	// 2.5 ratio -> 250%, outside the plausible window.
	if snap.Metrics.DividendYieldPct != nil {
		t.Errorf("out-of-window dividend yield should be dropped, got %v", *snap.Metrics.DividendYieldPct)
	}
	// Negative beta and EPS are real signals.
	if snap.Metrics.Beta == nil || *snap.Metrics.Beta != -0.3 {
		t.Errorf("beta: got %v", snap.Metrics.Beta)
	}
	if snap.Metrics.TrailingEPS == nil || *snap.Metrics.TrailingEPS != -1.85 {
		t.Errorf("trailingEps: got %v", snap.Metrics.TrailingEPS)
	}
	if snap.Analyst.InstitutionalOwnershipPct != nil {
		t.Error("negative institutional pct should be dropped")
	}
	if snap.PreviousClose != nil || snap.DayChange != nil {
		t.Error("missing previous close should leave day change unset")
	}
	if snap.MarketTime.IsZero() {
		t.Error("market time should default to now")
	}
}

func TestSnapshotLocalizesCompanyName(t *testing.T) {
	quoteSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, sampleQuoteSummary)
	}))
	defer quoteSrv.Close()

	nameSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/quote/6501.T") {
			t.Errorf("name path: got %q", r.URL.Path)
		}
		fmt.Fprint(w, `<html><head><title>日立製作所(6501.T) - 株価</title></head><body><h1>日立製作所</h1></body></html>`)
	}))
	defer nameSrv.Close()

	resolver := news.NewNameResolver(
		news.WithNameBaseURL(nameSrv.URL),
		news.WithNameHTTPClient(nameSrv.Client()),
	)
	y := NewYahooClient(
		WithQuoteBaseURL(quoteSrv.URL),
		WithQuoteHTTPClient(quoteSrv.Client()),
		WithQuoteNameResolver(resolver),
	)

	snap, err := y.Snapshot(context.Background(), "6501.T")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.CompanyName != "日立製作所" {
		t.Errorf("company: got %q, want 日立製作所", snap.CompanyName)
	}
}

func TestYahooClientName(t *testing.T) {
	y := NewYahooClient()
	if y.Name() != "Yahoo Finance" {
		t.Errorf("Name() = %q", y.Name())
	}
}
