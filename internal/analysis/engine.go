package analysis

import (
	"context"
	"log"

	"github.com/takumi-oda/kabusight/internal/config"
	"github.com/takumi-oda/kabusight/internal/llm"
	"github.com/takumi-oda/kabusight/pkg/models"
)

// Engine runs the provider fallback chain. Providers are attempted in
// the order given; the first one that returns a parseable result wins,
// and the heuristic backstops them all.
type Engine struct {
	providers []llm.Provider
	system    string
	template  string
}

// NewEngine builds an engine over the given providers. A nil provider
// is skipped, so callers can pass constructor results unconditionally.
func NewEngine(cfg *config.Config, providers ...llm.Provider) *Engine {
	e := &Engine{
		system:   cfg.Prompts.SystemPrompt,
		template: cfg.Prompts.UserTemplate,
	}
	for _, p := range providers {
		if p != nil {
			e.providers = append(e.providers, p)
		}
	}
	return e
}

// Generate produces a verdict for the snapshot and news. It never
// returns an error: provider failures are logged and the chain falls
// through to the heuristic.
func (e *Engine) Generate(ctx context.Context, snap models.Snapshot, news []models.NewsItem) models.AnalysisResult {
	payload := BuildPayload(snap, news)

	userPrompt, err := BuildUserPrompt(e.template, payload)
	if err != nil {
		log.Printf("analysis: build prompt: %v", err)
		return Heuristic(snap)
	}

	for _, p := range e.providers {
		if ctx.Err() != nil {
			break
		}
		req := llm.Request{
			System:      e.system,
			User:        userPrompt,
			Temperature: providerTemperature(p.Name()),
			JSONOnly:    true,
		}
		completion, err := p.Complete(ctx, req)
		if err != nil {
			log.Printf("analysis: %s: %v", p.Name(), err)
			continue
		}
		result, err := ParseModelJSON(completion)
		if err != nil {
			log.Printf("analysis: %s: %v", p.Name(), err)
			continue
		}
		return sanitize(result, sourceFor(p.Name()))
	}

	return Heuristic(snap)
}

// providerTemperature matches each provider's sweet spot for
// structured output.
func providerTemperature(name string) float64 {
	if name == llm.ProviderGemini {
		return 0.2
	}
	return 0
}

func sourceFor(name string) models.AnalysisSource {
	switch name {
	case llm.ProviderGemini:
		return models.SourceGemini
	case llm.ProviderOpenAI:
		return models.SourceOpenAI
	}
	return models.SourceHeuristic
}

func sanitize(r models.AnalysisResult, source models.AnalysisSource) models.AnalysisResult {
	if len(r.BulletPoints) > models.MaxBulletPoints {
		r.BulletPoints = r.BulletPoints[:models.MaxBulletPoints]
	}
	if r.Score < 0 {
		r.Score = 0
	}
	if r.Score > 100 {
		r.Score = 100
	}
	if r.Action == "" {
		r.Action = models.ActionHold
	}
	r.Source = source
	return r
}

// DescribeSource returns the user-facing label for an analysis source.
func DescribeSource(source models.AnalysisSource) string {
	switch source {
	case models.SourceGemini:
		return "Gemini (Google AI Studio)"
	case models.SourceOpenAI:
		return "OpenAI GPT"
	}
	return "ヒューリスティック（API未使用）"
}
