package news

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/takumi-oda/kabusight/internal/config"
	"github.com/takumi-oda/kabusight/internal/search"
	"github.com/takumi-oda/kabusight/pkg/models"
	"github.com/takumi-oda/kabusight/pkg/utils"
)

const (
	regionLocal   = "jp-ja"
	regionEnglish = "us-en"
)

// Service runs the full retrieval pipeline: tiered search with
// retries, supplementary feeds, recency and shallow filtering, ranking,
// focus exclusion, truncation, and enrichment.
type Service struct {
	cfg        *config.Config
	client     search.Client
	feeds      search.Client
	resolver   *NameResolver
	scorer     *Scorer
	classifier *Classifier
	enricher   *Enricher

	// sleep is swapped out in tests.
	sleep func(time.Duration)
	now   func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithFeeds adds a supplementary feed backend consulted when search
// under-delivers.
func WithFeeds(feeds search.Client) ServiceOption {
	return func(s *Service) { s.feeds = feeds }
}

// WithNameResolver sets a custom name resolver.
func WithNameResolver(r *NameResolver) ServiceOption {
	return func(s *Service) { s.resolver = r }
}

// WithEnricher sets a custom article enricher. Passing nil disables
// enrichment.
func WithEnricher(e *Enricher) ServiceOption {
	return func(s *Service) { s.enricher = e }
}

// WithSleepFunc replaces the pacing sleep (used by tests).
func WithSleepFunc(fn func(time.Duration)) ServiceOption {
	return func(s *Service) { s.sleep = fn }
}

// WithNowFunc replaces the clock (used by tests).
func WithNowFunc(fn func() time.Time) ServiceOption {
	return func(s *Service) { s.now = fn }
}

// NewService creates the retrieval service over a search backend.
func NewService(cfg *config.Config, client search.Client, opts ...ServiceOption) *Service {
	s := &Service{
		cfg:        cfg,
		client:     client,
		resolver:   NewNameResolver(),
		scorer:     NewScorer(cfg),
		classifier: NewClassifier(cfg),
		enricher:   NewEnricher(time.Duration(cfg.Search.ArticleFetchTimeoutSeconds) * time.Second),
		sleep:      time.Sleep,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FetchNews retrieves, filters, ranks, and enriches news for an
// instrument. query is the English company name (or free-form search
// subject), symbol the normalized ticker, nameHint an upstream company
// name used for localized name resolution. The result is capped at the
// configured maximum and ordered best-first. An empty result is not an
// error.
func (s *Service) FetchNews(ctx context.Context, query, symbol, nameHint string) ([]models.NewsItem, error) {
	if query == "" {
		return nil, nil
	}

	sc := s.cfg.Search
	local := s.isLocalSymbol(symbol)
	code := utils.StripLocalSuffix(symbol)

	var localName string
	if local && code != "" {
		localName = s.resolver.Resolve(ctx, symbol, nameHint)
	}

	session := NewSession()

	for attempt := 0; attempt < sc.MaxRetries; attempt++ {
		if attempt > 0 {
			s.sleep(time.Duration(sc.RetryDelaySeconds) * time.Second)
			log.Printf("news: retry %d/%d (collected: %d)", attempt, sc.MaxRetries-1, session.Len())
		}

		if local {
			s.runLocalTier(ctx, session, localName, code, query, attempt)
			if session.Len() < sc.MinRequiredResults {
				s.runFallbackTier(ctx, session, localName, code, query, attempt)
			}
		}

		if !local || session.Len() < sc.MinRequiredResults {
			s.runEnglishTier(ctx, session, query, attempt)
		}

		if session.Len() >= sc.MinRequiredResults {
			break
		}
		if ctx.Err() != nil {
			break
		}
	}

	if s.feeds != nil && session.Len() < sc.MinRequiredResults {
		s.runFeeds(ctx, session, localName, code, query)
	}

	if session.Len() < sc.MinRequiredResults {
		log.Printf("news: below minimum (%d): collected %d", sc.MinRequiredResults, session.Len())
	} else {
		log.Printf("news: collected %d items (minimum %d)", session.Len(), sc.MinRequiredResults)
	}
	if errs := session.Errors(); len(errs) > 0 && session.Len() == 0 {
		log.Printf("news: retrieval failed with %d errors", len(errs))
		for i, e := range errs {
			if i == 3 {
				break
			}
			log.Printf("news: %s", e)
		}
	}

	now := s.now()
	items := FilterRecent(session.Items(), s.cfg.Filtering.DateThresholdDays, now)

	kept := items[:0]
	shallow := 0
	for _, item := range items {
		if s.classifier.IsShallow(item, localName, symbol) {
			shallow++
			continue
		}
		kept = append(kept, item)
	}
	items = kept
	if shallow > 0 {
		log.Printf("news: excluded %d shallow articles", shallow)
	}

	rankName := localName
	if rankName == "" {
		rankName = query
	}
	items = s.scorer.Rank(items, rankName, symbol, query, now)
	items = s.scorer.DropUnfocused(items, rankName, symbol, query, s.cfg.Filtering.MinFocusScore, s.cfg.Filtering.MinImportanceWhenFocusZero)

	if len(items) > sc.MaxResults {
		items = items[:sc.MaxResults]
	}

	if s.enricher != nil {
		s.enricher.Enrich(ctx, items)
	}

	return items, ctx.Err()
}

// --- query tiers ---

// runLocalTier issues the templated Japanese queries: name templates,
// code templates, combined templates, then name templates against the
// English query as a last resort.
func (s *Service) runLocalTier(ctx context.Context, session *Session, localName, code, query string, attempt int) {
	kw := s.cfg.Keywords
	var queries []string

	if localName != "" {
		for _, tmpl := range kw.LocalSearchTemplates {
			queries = append(queries, expand(tmpl, localName, code, query))
		}
	}
	if isAllDigits(code) {
		for _, tmpl := range kw.LocalSymbolTemplates {
			queries = append(queries, expand(tmpl, localName, code, query))
		}
		if localName != "" {
			for _, tmpl := range kw.LocalCombinedTemplates {
				queries = append(queries, expand(tmpl, localName, code, query))
			}
		}
	}
	for _, tmpl := range kw.LocalSearchTemplates {
		queries = append(queries, expand(tmpl, query, code, query))
	}

	s.runQueries(ctx, session, queries, regionLocal, "ja",
		s.cfg.Search.Multipliers.InitialLocal, s.cfg.Search.MinCandidates.InitialLocal, attempt, 0)
}

// runFallbackTier issues broad single-term queries when the templated
// round under-delivers. It stops early once the session holds enough
// items to satisfy the fallback threshold.
func (s *Service) runFallbackTier(ctx context.Context, session *Session, localName, code, query string, attempt int) {
	var queries []string
	if localName != "" {
		queries = append(queries, localName)
	}
	if isAllDigits(code) {
		queries = append(queries, code)
	}
	queries = append(queries, query)

	sufficient := s.cfg.Search.MaxResults * s.cfg.Filtering.FallbackSufficientMultiplier
	s.runQueries(ctx, session, queries, regionLocal, "ja",
		s.cfg.Search.Multipliers.FallbackLocal, s.cfg.Search.MinCandidates.FallbackLocal, attempt, sufficient)
}

// runEnglishTier issues the English templated queries.
func (s *Service) runEnglishTier(ctx context.Context, session *Session, query string, attempt int) {
	var queries []string
	for _, tmpl := range s.cfg.Keywords.EnglishSearchTemplates {
		queries = append(queries, strings.ReplaceAll(tmpl, "{query}", query))
	}

	s.runQueries(ctx, session, queries, regionEnglish, "en",
		s.cfg.Search.Multipliers.English, s.cfg.Search.MinCandidates.English, attempt, 0)
}

// runQueries executes one query round. Each query asks the backend for
// max(maxResults*multiplier, minCandidates) hits; the round stops early
// once twice the minimum (or stopAt, when positive) is collected.
// Failures are recorded and the round continues.
func (s *Service) runQueries(ctx context.Context, session *Session, queries []string, region, language string, multiplier, minCandidates, attempt, stopAt int) {
	sc := s.cfg.Search

	want := sc.MaxResults * multiplier
	if want < minCandidates {
		want = minCandidates
	}

	for idx, q := range queries {
		if session.Len() >= sc.MinRequiredResults*2 {
			return
		}
		if ctx.Err() != nil {
			return
		}
		if idx > 0 {
			s.sleep(time.Duration(sc.QueryDelayMillis) * time.Millisecond)
		}

		hits, err := s.client.News(ctx, q, region, want)
		if err != nil {
			if errors.Is(err, search.ErrNoResults) {
				continue
			}
			if errors.Is(err, search.ErrRateLimited) {
				session.RecordError(fmt.Sprintf("query %q: rate limited", q))
				log.Printf("news: query %q rate limited, backing off", q)
				if attempt < sc.MaxRetries-1 {
					s.sleep(time.Duration(sc.RetryDelaySeconds*2) * time.Second)
				}
				continue
			}
			session.RecordError(fmt.Sprintf("query %q: %v", q, err))
			log.Printf("news: query %q failed: %v", q, err)
			continue
		}

		for _, h := range hits {
			session.Add(models.NewsItem{
				Title:     h.Title,
				URL:       h.URL,
				Snippet:   h.Body,
				Published: h.Date,
				Source:    h.Source,
				Language:  language,
			})
		}

		if stopAt > 0 && session.Len() >= stopAt {
			return
		}
	}
}

// runFeeds consults the supplementary feed backend.
func (s *Service) runFeeds(ctx context.Context, session *Session, localName, code, query string) {
	keywords := strings.TrimSpace(strings.Join([]string{code, localName, query}, " "))
	hits, err := s.feeds.News(ctx, keywords, regionLocal, s.cfg.Search.MaxResults)
	if err != nil {
		if !errors.Is(err, search.ErrNoResults) {
			log.Printf("news: feeds failed: %v", err)
		}
		return
	}
	for _, h := range hits {
		language := "en"
		if utils.ContainsJapanese(h.Title) {
			language = "ja"
		}
		session.Add(models.NewsItem{
			Title:     h.Title,
			URL:       h.URL,
			Snippet:   h.Body,
			Published: h.Date,
			Source:    h.Source,
			Language:  language,
		})
	}
}

// --- helpers ---

// isLocalSymbol applies the configured local-market policy.
func (s *Service) isLocalSymbol(symbol string) bool {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return false
	}
	for _, suffix := range s.cfg.Search.LocalSuffixes {
		if strings.HasSuffix(symbol, strings.ToUpper(suffix)) {
			return true
		}
	}
	if isAllDigits(symbol) &&
		len(symbol) >= s.cfg.Search.LocalCodeMinDigits &&
		len(symbol) <= s.cfg.Search.LocalCodeMaxDigits {
		return true
	}
	return false
}

// expand substitutes the query template placeholders.
func expand(tmpl, companyName, symbol, query string) string {
	out := strings.ReplaceAll(tmpl, "{company_name}", companyName)
	out = strings.ReplaceAll(out, "{symbol}", symbol)
	out = strings.ReplaceAll(out, "{query}", query)
	return out
}
