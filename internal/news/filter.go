package news

import (
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/takumi-oda/kabusight/internal/config"
	"github.com/takumi-oda/kabusight/pkg/models"
	"github.com/takumi-oda/kabusight/pkg/utils"
)

// digitRunPattern matches maximal digit runs; stockCodes narrows them
// to bare 4-digit security codes.
var digitRunPattern = regexp.MustCompile(`[0-9]+`)

// stockCodes extracts the 4-digit security codes in text. Word
// boundaries are Unicode-aware: a run glued to kanji is a price or a
// fiscal year ("3800円", "2024年"), not a code.
func stockCodes(text string) []string {
	var codes []string
	for _, ix := range digitRunPattern.FindAllStringIndex(text, -1) {
		start, end := ix[0], ix[1]
		if end-start != 4 {
			continue
		}
		if before, size := utf8.DecodeLastRuneInString(text[:start]); size > 0 && isWordRune(before) {
			continue
		}
		if after, size := utf8.DecodeRuneInString(text[end:]); size > 0 && isWordRune(after) {
			continue
		}
		codes = append(codes, text[start:end])
	}
	return codes
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// FilterRecent keeps items published within thresholdDays of now.
// Items with no date or an unparseable date are kept: they may be the
// freshest of all. Parsed dates are recorded on the item.
func FilterRecent(items []models.NewsItem, thresholdDays int, now time.Time) []models.NewsItem {
	if len(items) == 0 {
		return nil
	}

	cutoff := now.UTC().AddDate(0, 0, -thresholdDays)
	filtered := make([]models.NewsItem, 0, len(items))
	for _, item := range items {
		if item.Published == "" {
			filtered = append(filtered, item)
			continue
		}
		parsed, ok := ParseDate(item.Published, now)
		if !ok {
			filtered = append(filtered, item)
			continue
		}
		item.PublishedAt = &parsed
		if !parsed.Before(cutoff) {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

// Classifier flags shallow articles: rankings, market wraps, and
// multi-stock roundups that mention the instrument without covering it.
type Classifier struct {
	shallowKeywords []string
	minStockCodes   int
}

// NewClassifier builds a classifier from the configured vocabulary and
// thresholds.
func NewClassifier(cfg *config.Config) *Classifier {
	return &Classifier{
		shallowKeywords: lowerAll(cfg.Vocab.Shallow.All()),
		minStockCodes:   cfg.Filtering.MinStockCodes,
	}
}

// IsShallow reports whether an article is a shallow roundup rather
// than instrument-specific coverage. A shallow keyword alone is not
// enough when the title names the subject: a ranking article focused on
// the instrument still counts as coverage.
func (c *Classifier) IsShallow(item models.NewsItem, companyName, symbol string) bool {
	title := strings.ToLower(item.Title)
	snippet := strings.ToLower(item.Snippet)
	text := title + " " + snippet

	nameLower := strings.ToLower(companyName)
	codeLower := strings.ToLower(utils.StripLocalSuffix(symbol))

	for _, kw := range c.shallowKeywords {
		if !strings.Contains(text, kw) {
			continue
		}
		if nameLower != "" && strings.Contains(title, nameLower) {
			continue
		}
		if codeLower != "" && strings.Contains(title, codeLower) {
			continue
		}
		return true
	}

	// Many distinct security codes in one piece usually means a market
	// roundup, not coverage of this instrument.
	code := utils.StripLocalSuffix(symbol)
	if code != "" && isAllDigits(code) {
		codes := stockCodes(text)
		if len(codes) >= c.minStockCodes {
			if !containsString(codes, code) {
				return true
			}
			if distinctCount(codes) >= c.minStockCodes {
				return true
			}
		}
	}

	return false
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}

func distinctCount(list []string) int {
	seen := make(map[string]struct{}, len(list))
	for _, s := range list {
		seen[s] = struct{}{}
	}
	return len(seen)
}
