package news

import (
	"strings"

	"github.com/takumi-oda/kabusight/internal/config"
	"github.com/takumi-oda/kabusight/pkg/models"
	"github.com/takumi-oda/kabusight/pkg/utils"
)

// Scorer computes the two relevance signals used for ranking and
// exclusion: focus (how strongly an article centers on the subject
// instrument) and importance (presence of high-signal event keywords).
type Scorer struct {
	focus      config.FocusWeights
	importance config.ImportanceWeights

	importantKeywords []string
	deepKeywords      []string
}

// NewScorer builds a scorer from the configured weights and
// vocabularies. Keywords are matched case-insensitively.
func NewScorer(cfg *config.Config) *Scorer {
	return &Scorer{
		focus:             cfg.Scoring.Focus,
		importance:        cfg.Scoring.Importance,
		importantKeywords: lowerAll(cfg.Vocab.Important.All()),
		deepKeywords:      lowerAll(cfg.Vocab.DeepAnalysis.All()),
	}
}

// Focus scores how strongly an article centers on the instrument.
// companyName is the localized name when resolved, symbol the raw
// ticker, query the caller-supplied (usually English) name.
func (sc *Scorer) Focus(item models.NewsItem, companyName, symbol, query string) int {
	title := strings.ToLower(item.Title)
	snippet := strings.ToLower(item.Snippet)
	text := title + " " + snippet

	score := 0

	if companyName != "" {
		name := strings.ToLower(companyName)
		if strings.Contains(title, name) {
			score += sc.focus.CompanyNameInTitle
		}
		if strings.Contains(snippet, name) {
			score += sc.focus.CompanyNameInSnippet
		}
		score += capped(strings.Count(text, name)*sc.focus.CompanyNameCountMultiplier, sc.focus.CompanyNameCountMax)
	}

	if symbol != "" {
		code := strings.ToLower(utils.StripLocalSuffix(symbol))
		if strings.Contains(title, code) {
			score += sc.focus.SymbolInTitle
		}
		if strings.Contains(snippet, code) {
			score += sc.focus.SymbolInSnippet
		}
		score += capped(strings.Count(text, code)*sc.focus.SymbolCountMultiplier, sc.focus.SymbolCountMax)
	}

	if query != "" {
		q := strings.ToLower(query)
		if strings.Contains(title, q) {
			score += sc.focus.QueryInTitle
		}
		if strings.Contains(snippet, q) {
			score += sc.focus.QueryInSnippet
		}
	}

	for _, kw := range sc.deepKeywords {
		if strings.Contains(text, kw) {
			score += sc.focus.DeepAnalysisBonus
		}
	}

	return score
}

// Importance scores event significance: each matched keyword from the
// important vocabulary adds the configured weight.
func (sc *Scorer) Importance(item models.NewsItem) int {
	text := strings.ToLower(item.Title) + " " + strings.ToLower(item.Snippet)

	score := 0
	for _, kw := range sc.importantKeywords {
		if strings.Contains(text, kw) {
			score += sc.importance.KeywordScore
		}
	}
	return score
}

func capped(v, max int) int {
	if v > max {
		return max
	}
	return v
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
