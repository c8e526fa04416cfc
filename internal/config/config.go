// Package config handles configuration loading for kabusight.
// Built-in defaults cover every key; an optional YAML file is merged
// over them key-by-key (nested sections recursively), and environment
// variables override both. A missing or malformed file is never fatal.
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the complete application configuration. The pipeline treats
// it as read-only for the duration of a run; it may be shared across
// concurrent runs without locking.
type Config struct {
	Search    SearchConfig    `mapstructure:"search"    yaml:"search"`
	Keywords  KeywordConfig   `mapstructure:"keywords"  yaml:"keywords"`
	Scoring   ScoringConfig   `mapstructure:"scoring"   yaml:"scoring"`
	Vocab     VocabConfig     `mapstructure:"vocab"     yaml:"vocab"`
	Filtering FilteringConfig `mapstructure:"filtering" yaml:"filtering"`
	Feeds     FeedsConfig     `mapstructure:"feeds"     yaml:"feeds"`
	LLM       LLMConfig       `mapstructure:"llm"       yaml:"llm"`
	Prompts   PromptConfig    `mapstructure:"prompts"   yaml:"prompts"`
}

// SearchConfig tunes the tiered retrieval session.
type SearchConfig struct {
	MaxResults         int `mapstructure:"max_results"          yaml:"max_results"`
	MinRequiredResults int `mapstructure:"min_required_results" yaml:"min_required_results"`
	MaxRetries         int `mapstructure:"max_retries"          yaml:"max_retries"`
	RetryDelaySeconds  int `mapstructure:"retry_delay_seconds"  yaml:"retry_delay_seconds"`
	// QueryDelayMillis paces consecutive queries within a round.
	QueryDelayMillis int `mapstructure:"query_delay_millis" yaml:"query_delay_millis"`

	Multipliers   TierValues `mapstructure:"multipliers"    yaml:"multipliers"`
	MinCandidates TierValues `mapstructure:"min_candidates" yaml:"min_candidates"`

	TimeoutSeconds             int `mapstructure:"timeout_seconds"               yaml:"timeout_seconds"`
	ArticleFetchTimeoutSeconds int `mapstructure:"article_fetch_timeout_seconds" yaml:"article_fetch_timeout_seconds"`

	// Local-market classification is policy, not a hard-coded rule:
	// a symbol is "local" when it carries one of the suffixes or is a
	// bare numeric code within the digit bounds.
	LocalSuffixes      []string `mapstructure:"local_suffixes"        yaml:"local_suffixes"`
	LocalCodeMinDigits int      `mapstructure:"local_code_min_digits" yaml:"local_code_min_digits"`
	LocalCodeMaxDigits int      `mapstructure:"local_code_max_digits" yaml:"local_code_max_digits"`
}

// TierValues holds a per-tier integer setting (result multipliers or
// candidate floors).
type TierValues struct {
	InitialLocal  int `mapstructure:"initial_local"  yaml:"initial_local"`
	FallbackLocal int `mapstructure:"fallback_local" yaml:"fallback_local"`
	English       int `mapstructure:"english"        yaml:"english"`
}

// KeywordConfig holds the query templates expanded by the planner.
// Local templates use {company_name} and {symbol} placeholders; English
// templates use {query}.
type KeywordConfig struct {
	LocalSearchTemplates   []string `mapstructure:"local_search_templates"   yaml:"local_search_templates"`
	LocalSymbolTemplates   []string `mapstructure:"local_symbol_templates"   yaml:"local_symbol_templates"`
	LocalCombinedTemplates []string `mapstructure:"local_combined_templates" yaml:"local_combined_templates"`
	EnglishSearchTemplates []string `mapstructure:"english_search_templates" yaml:"english_search_templates"`
}

// ScoringConfig holds the weight tables for the relevance scorer.
type ScoringConfig struct {
	Focus      FocusWeights      `mapstructure:"focus_score"      yaml:"focus_score"`
	Importance ImportanceWeights `mapstructure:"importance_score" yaml:"importance_score"`
}

// FocusWeights weights the focus score: how strongly an article centers
// on the subject instrument.
type FocusWeights struct {
	CompanyNameInTitle         int `mapstructure:"company_name_in_title"         yaml:"company_name_in_title"`
	CompanyNameInSnippet       int `mapstructure:"company_name_in_snippet"       yaml:"company_name_in_snippet"`
	CompanyNameCountMultiplier int `mapstructure:"company_name_count_multiplier" yaml:"company_name_count_multiplier"`
	CompanyNameCountMax        int `mapstructure:"company_name_count_max"        yaml:"company_name_count_max"`
	SymbolInTitle              int `mapstructure:"symbol_in_title"               yaml:"symbol_in_title"`
	SymbolInSnippet            int `mapstructure:"symbol_in_snippet"             yaml:"symbol_in_snippet"`
	SymbolCountMultiplier      int `mapstructure:"symbol_count_multiplier"       yaml:"symbol_count_multiplier"`
	SymbolCountMax             int `mapstructure:"symbol_count_max"              yaml:"symbol_count_max"`
	QueryInTitle               int `mapstructure:"query_in_title"                yaml:"query_in_title"`
	QueryInSnippet             int `mapstructure:"query_in_snippet"              yaml:"query_in_snippet"`
	DeepAnalysisBonus          int `mapstructure:"deep_analysis_bonus"           yaml:"deep_analysis_bonus"`
}

// ImportanceWeights weights the importance score.
type ImportanceWeights struct {
	KeywordScore int `mapstructure:"keyword_score" yaml:"keyword_score"`
}

// VocabConfig holds the bilingual keyword vocabularies used by the
// shallow classifier and the scorer.
type VocabConfig struct {
	Shallow      BilingualList `mapstructure:"shallow_article" yaml:"shallow_article"`
	Important    BilingualList `mapstructure:"important"       yaml:"important"`
	DeepAnalysis BilingualList `mapstructure:"deep_analysis"   yaml:"deep_analysis"`
}

// BilingualList is a pair of keyword lists, one per language tier.
type BilingualList struct {
	Japanese []string `mapstructure:"japanese" yaml:"japanese"`
	English  []string `mapstructure:"english"  yaml:"english"`
}

// All returns the concatenation of both language lists.
func (b BilingualList) All() []string {
	out := make([]string, 0, len(b.Japanese)+len(b.English))
	out = append(out, b.Japanese...)
	out = append(out, b.English...)
	return out
}

// FilteringConfig holds the exclusion thresholds applied after scoring.
type FilteringConfig struct {
	DateThresholdDays            int `mapstructure:"date_threshold_days"            yaml:"date_threshold_days"`
	MinStockCodes                int `mapstructure:"min_stock_codes"                yaml:"min_stock_codes"`
	MinFocusScore                int `mapstructure:"min_focus_score"                yaml:"min_focus_score"`
	MinImportanceWhenFocusZero   int `mapstructure:"min_importance_when_focus_zero" yaml:"min_importance_when_focus_zero"`
	FallbackSufficientMultiplier int `mapstructure:"fallback_sufficient_multiplier" yaml:"fallback_sufficient_multiplier"`
}

// FeedsConfig configures the supplementary RSS news sources consulted
// when web search alone cannot reach the minimum item count.
type FeedsConfig struct {
	Enabled  bool         `mapstructure:"enabled"  yaml:"enabled"`
	Japanese []FeedSource `mapstructure:"japanese" yaml:"japanese"`
	English  []FeedSource `mapstructure:"english"  yaml:"english"`
}

// FeedSource is one RSS feed. The URL may contain a {symbol}
// placeholder expanded per run.
type FeedSource struct {
	Name string `mapstructure:"name" yaml:"name"`
	URL  string `mapstructure:"url"  yaml:"url"`
}

// LLMConfig holds provider credentials and model selection for the
// analysis fallback chain.
type LLMConfig struct {
	OpenAIKey   string `mapstructure:"openai_key"   yaml:"openai_key"`
	GoogleKey   string `mapstructure:"google_key"   yaml:"google_key"`
	GeminiModel string `mapstructure:"gemini_model" yaml:"gemini_model"`
	OpenAIModel string `mapstructure:"openai_model" yaml:"openai_model"`
}

// PromptConfig holds the analysis prompts. Dir points at an optional
// directory with system_prompt.txt / user_prompt_template.txt overrides;
// the built-in defaults are used when the files are absent.
type PromptConfig struct {
	Dir          string `mapstructure:"dir"           yaml:"dir"`
	SystemPrompt string `mapstructure:"system_prompt" yaml:"system_prompt"`
	UserTemplate string `mapstructure:"user_template" yaml:"user_template"`
}

// googleKeyEnvOrder is the precedence order for the Gemini API key.
var googleKeyEnvOrder = []string{
	"GOOGLE_API_KEY",
	"GOOGLE_GENAI_API_KEY",
	"GENAI_API_KEY",
	"GEMINI_API_KEY",
}

// Load reads configuration from the default search paths and the
// environment. Config file search order:
//  1. ./config/config.yaml
//  2. ~/.kabusight/config.yaml
//
// Environment variables use the KABUSIGHT_ prefix, e.g.
// KABUSIGHT_LLM_OPENAI_KEY. A missing file falls back to defaults.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".kabusight"))

	v.SetEnvPrefix("KABUSIGHT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Malformed file: warn and continue on defaults.
			log.Printf("config: %v (using defaults)", err)
		}
	}

	return finish(v)
}

// LoadFromFile reads configuration from an explicit path. Unlike Load,
// an unreadable explicit file is reported to the caller.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("KABUSIGHT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	return finish(v)
}

func finish(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	overrideFromEnv(&cfg)
	loadPromptOverrides(&cfg)
	return &cfg, nil
}

// overrideFromEnv reads credential keys directly from the environment
// so they never need to live in a config file.
func overrideFromEnv(cfg *Config) {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.LLM.OpenAIKey = key
	}
	for _, name := range googleKeyEnvOrder {
		if key := os.Getenv(name); key != "" {
			cfg.LLM.GoogleKey = key
			break
		}
	}
	for _, name := range []string{"GOOGLE_GENAI_MODEL", "GEMINI_MODEL"} {
		if m := os.Getenv(name); m != "" {
			cfg.LLM.GeminiModel = m
			break
		}
	}
}

// loadPromptOverrides replaces the built-in prompts with the contents
// of prompt files when present. Read failures keep the defaults.
func loadPromptOverrides(cfg *Config) {
	if cfg.Prompts.Dir == "" {
		return
	}
	if text, ok := readPromptFile(filepath.Join(cfg.Prompts.Dir, "system_prompt.txt")); ok {
		cfg.Prompts.SystemPrompt = text
	}
	if text, ok := readPromptFile(filepath.Join(cfg.Prompts.Dir, "user_prompt_template.txt")); ok {
		cfg.Prompts.UserTemplate = text
	}
}

func readPromptFile(path string) (string, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("config: prompt file %s: %v (using default)", path, err)
		}
		return "", false
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", false
	}
	return text, true
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
