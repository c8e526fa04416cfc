package analysis

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/takumi-oda/kabusight/pkg/models"
)

const noNewsContext = "（最新ニュース情報は取得できませんでした）"

// BuildUserPrompt renders the user prompt template. The payload is
// embedded as JSON at {market_data} and the news items as a plain text
// digest at {news_context}.
func BuildUserPrompt(template string, payload models.AnalysisPayload) (string, error) {
	marketData, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("analysis: marshal payload: %w", err)
	}

	prompt := strings.ReplaceAll(template, "{market_data}", string(marketData))
	prompt = strings.ReplaceAll(prompt, "{news_context}", buildNewsContext(payload.News))
	return prompt, nil
}

func buildNewsContext(news []models.NewsItem) string {
	if len(news) == 0 {
		return noNewsContext
	}
	var b strings.Builder
	for _, n := range news {
		fmt.Fprintf(&b, "- Title: %s\n  Snippet: %s\n", n.Title, n.Snippet)
	}
	return b.String()
}
