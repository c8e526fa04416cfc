// Package llm provides thin clients for the hosted model APIs used by
// the analysis engine. Providers share one small interface: a single
// system+user completion expected to come back as JSON text.
package llm

import (
	"context"
	"errors"
)

// Provider names for routing and result attribution.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Common errors returned by LLM providers.
var (
	ErrNoAPIKey        = errors.New("llm: API key not configured")
	ErrRateLimit       = errors.New("llm: rate limit exceeded")
	ErrProviderDown    = errors.New("llm: provider unavailable")
	ErrInvalidModel    = errors.New("llm: invalid model")
	ErrEmptyCompletion = errors.New("llm: empty completion")
)

// Request is a single completion request.
type Request struct {
	// System is the system instruction; may be empty.
	System string
	// User is the user prompt.
	User string
	// Model overrides the provider default when set.
	Model string
	// Temperature is passed through when positive.
	Temperature float64
	// JSONOnly asks the provider to constrain output to a JSON object
	// where the API supports it.
	JSONOnly bool
}

// Provider is the interface all model backends implement.
type Provider interface {
	// Name returns the provider identifier (e.g., "gemini").
	Name() string

	// Complete sends one request and returns the raw completion text.
	Complete(ctx context.Context, req Request) (string, error)

	// Ping checks if the provider is reachable and the API key is valid.
	Ping(ctx context.Context) error
}
