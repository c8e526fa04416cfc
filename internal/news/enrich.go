package news

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/sync/errgroup"

	"github.com/takumi-oda/kabusight/internal/infra"
	"github.com/takumi-oda/kabusight/pkg/models"
)

// articleSelectors lists body containers tried in order, tuned for
// Japanese news sites first.
var articleSelectors = []string{
	"article",
	".article-body",
	".article-content",
	".article-text",
	".news-body",
	".news-content",
	".content-body",
	"#article-body",
	"#article-content",
	"#main-content",
	"main article",
	"[role=article]",
	".post-content",
	".entry-content",
	"div.article",
	"div.content",
}

const (
	// A selector hit must carry at least this much text to count as
	// the article body.
	minSelectorTextLen = 100
	// Paragraphs shorter than this are navigation or boilerplate.
	minParagraphLen = 20
	// The final text must beat the snippet it replaces.
	minArticleLen = 200

	defaultEnrichConcurrency = 5
)

// Enricher replaces truncated snippets with full article text fetched
// from the item URL. Enrichment is best effort: a failed fetch keeps
// the original snippet and never fails the pipeline.
type Enricher struct {
	httpClient  *http.Client
	cache       *infra.Cache
	concurrency int
	userAgent   string
}

// EnricherOption configures an Enricher.
type EnricherOption func(*Enricher)

// WithEnrichHTTPClient sets a custom HTTP client (used by tests).
func WithEnrichHTTPClient(c *http.Client) EnricherOption {
	return func(e *Enricher) { e.httpClient = c }
}

// WithEnrichConcurrency bounds parallel article fetches.
func WithEnrichConcurrency(n int) EnricherOption {
	return func(e *Enricher) {
		if n > 0 {
			e.concurrency = n
		}
	}
}

// NewEnricher creates an article-content enricher. timeout applies per
// article fetch.
func NewEnricher(timeout time.Duration, opts ...EnricherOption) *Enricher {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	e := &Enricher{
		httpClient:  &http.Client{Timeout: timeout},
		cache:       infra.NewCache(time.Hour),
		concurrency: defaultEnrichConcurrency,
		userAgent:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enrich fetches full text for each item in place. Items without a URL
// or snippet are left alone. Fetches run concurrently with a bounded
// worker count.
func (e *Enricher) Enrich(ctx context.Context, items []models.NewsItem) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for i := range items {
		if items[i].URL == "" || items[i].Snippet == "" {
			continue
		}
		i := i
		g.Go(func() error {
			content, err := e.fetchArticle(ctx, items[i].URL)
			if err != nil {
				log.Printf("news/enrich: %s: %v", items[i].URL, err)
				return nil
			}
			if content != "" {
				items[i].Snippet = content
				items[i].FullContentFetched = true
			}
			return nil
		})
	}

	g.Wait()
}

// fetchArticle extracts the main body text of one article page.
// Returns empty text (no error) when the page yields nothing usable.
func (e *Enricher) fetchArticle(ctx context.Context, articleURL string) (string, error) {
	if cached, ok := e.cache.Get(articleURL); ok {
		return cached.(string), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, articleURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("parse HTML: %w", err)
	}

	text := extractArticleText(doc)
	e.cache.Set(articleURL, text)
	return text, nil
}

// extractArticleText tries the known body selectors, then falls back to
// collecting long paragraphs from the whole document.
func extractArticleText(doc *goquery.Document) string {
	var articleText string

	for _, selector := range articleSelectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		sel.Find("script, style, nav, header, footer, aside").Remove()
		text := strings.TrimSpace(sel.Text())
		if utf8.RuneCountInString(text) > minSelectorTextLen {
			articleText = text
			break
		}
	}

	if articleText == "" {
		var parts []string
		doc.Find("p").Each(func(_ int, p *goquery.Selection) {
			text := strings.TrimSpace(p.Text())
			if utf8.RuneCountInString(text) > minParagraphLen {
				parts = append(parts, text)
			}
		})
		articleText = strings.Join(parts, "\n")
	}

	// Collapse blank lines.
	var lines []string
	for _, line := range strings.Split(articleText, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			lines = append(lines, trimmed)
		}
	}
	articleText = strings.Join(lines, "\n")

	if utf8.RuneCountInString(articleText) > minArticleLen {
		return articleText
	}
	return ""
}
