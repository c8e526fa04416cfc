package config

import (
	"os"
	"path/filepath"
	"testing"
)

var keyEnvVars = []string{
	"OPENAI_API_KEY",
	"GOOGLE_API_KEY", "GOOGLE_GENAI_API_KEY", "GENAI_API_KEY", "GEMINI_API_KEY",
	"GOOGLE_GENAI_MODEL", "GEMINI_MODEL",
}

func clearKeyEnv(t *testing.T) {
	t.Helper()
	for _, e := range keyEnvVars {
		os.Unsetenv(e)
	}
}

// ── Load / Defaults ──

func TestLoadReturnsDefaults(t *testing.T) {
	clearKeyEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// Search defaults
	if cfg.Search.MaxResults != 15 {
		t.Errorf("Search.MaxResults: got %d, want 15", cfg.Search.MaxResults)
	}
	if cfg.Search.MinRequiredResults != 5 {
		t.Errorf("Search.MinRequiredResults: got %d, want 5", cfg.Search.MinRequiredResults)
	}
	if cfg.Search.MaxRetries != 3 {
		t.Errorf("Search.MaxRetries: got %d, want 3", cfg.Search.MaxRetries)
	}
	if cfg.Search.Multipliers.InitialLocal != 8 {
		t.Errorf("Multipliers.InitialLocal: got %d, want 8", cfg.Search.Multipliers.InitialLocal)
	}
	if cfg.Search.Multipliers.FallbackLocal != 4 {
		t.Errorf("Multipliers.FallbackLocal: got %d, want 4", cfg.Search.Multipliers.FallbackLocal)
	}
	if cfg.Search.Multipliers.English != 5 {
		t.Errorf("Multipliers.English: got %d, want 5", cfg.Search.Multipliers.English)
	}
	if cfg.Search.MinCandidates.InitialLocal != 50 {
		t.Errorf("MinCandidates.InitialLocal: got %d, want 50", cfg.Search.MinCandidates.InitialLocal)
	}
	if cfg.Search.ArticleFetchTimeoutSeconds != 15 {
		t.Errorf("ArticleFetchTimeoutSeconds: got %d, want 15", cfg.Search.ArticleFetchTimeoutSeconds)
	}
	if cfg.Search.LocalCodeMinDigits != 4 || cfg.Search.LocalCodeMaxDigits != 5 {
		t.Errorf("local code digit bounds: got %d-%d, want 4-5",
			cfg.Search.LocalCodeMinDigits, cfg.Search.LocalCodeMaxDigits)
	}

	// Keyword templates
	if len(cfg.Keywords.LocalSearchTemplates) != 11 {
		t.Errorf("LocalSearchTemplates: got %d entries, want 11", len(cfg.Keywords.LocalSearchTemplates))
	}
	if len(cfg.Keywords.LocalSymbolTemplates) != 4 {
		t.Errorf("LocalSymbolTemplates: got %d entries, want 4", len(cfg.Keywords.LocalSymbolTemplates))
	}
	if len(cfg.Keywords.LocalCombinedTemplates) != 2 {
		t.Errorf("LocalCombinedTemplates: got %d entries, want 2", len(cfg.Keywords.LocalCombinedTemplates))
	}
	if len(cfg.Keywords.EnglishSearchTemplates) != 7 {
		t.Errorf("EnglishSearchTemplates: got %d entries, want 7", len(cfg.Keywords.EnglishSearchTemplates))
	}

	// Scoring weights
	if cfg.Scoring.Focus.CompanyNameInTitle != 10 {
		t.Errorf("Focus.CompanyNameInTitle: got %d, want 10", cfg.Scoring.Focus.CompanyNameInTitle)
	}
	if cfg.Scoring.Focus.SymbolInTitle != 8 {
		t.Errorf("Focus.SymbolInTitle: got %d, want 8", cfg.Scoring.Focus.SymbolInTitle)
	}
	if cfg.Scoring.Focus.DeepAnalysisBonus != 2 {
		t.Errorf("Focus.DeepAnalysisBonus: got %d, want 2", cfg.Scoring.Focus.DeepAnalysisBonus)
	}
	if cfg.Scoring.Importance.KeywordScore != 2 {
		t.Errorf("Importance.KeywordScore: got %d, want 2", cfg.Scoring.Importance.KeywordScore)
	}

	// Vocabularies
	if len(cfg.Vocab.Shallow.Japanese) == 0 || len(cfg.Vocab.Shallow.English) == 0 {
		t.Error("shallow vocab should have entries in both languages")
	}
	if len(cfg.Vocab.Important.All()) != len(cfg.Vocab.Important.Japanese)+len(cfg.Vocab.Important.English) {
		t.Error("BilingualList.All() should concatenate both lists")
	}

	// Filtering defaults
	if cfg.Filtering.DateThresholdDays != 365 {
		t.Errorf("Filtering.DateThresholdDays: got %d, want 365", cfg.Filtering.DateThresholdDays)
	}
	if cfg.Filtering.MinStockCodes != 3 {
		t.Errorf("Filtering.MinStockCodes: got %d, want 3", cfg.Filtering.MinStockCodes)
	}
	if cfg.Filtering.MinImportanceWhenFocusZero != 4 {
		t.Errorf("Filtering.MinImportanceWhenFocusZero: got %d, want 4", cfg.Filtering.MinImportanceWhenFocusZero)
	}
	if cfg.Filtering.FallbackSufficientMultiplier != 2 {
		t.Errorf("Filtering.FallbackSufficientMultiplier: got %d, want 2", cfg.Filtering.FallbackSufficientMultiplier)
	}

	// LLM defaults
	if cfg.LLM.GeminiModel != "gemini-2.5-flash-lite" {
		t.Errorf("LLM.GeminiModel: got %q", cfg.LLM.GeminiModel)
	}
	if cfg.LLM.OpenAIModel != "gpt-4o-mini" {
		t.Errorf("LLM.OpenAIModel: got %q", cfg.LLM.OpenAIModel)
	}

	// Prompt defaults
	if cfg.Prompts.SystemPrompt == "" {
		t.Error("Prompts.SystemPrompt should have a built-in default")
	}
	if cfg.Prompts.UserTemplate == "" {
		t.Error("Prompts.UserTemplate should have a built-in default")
	}
}

// ── LoadFromFile ──

func TestLoadFromFile(t *testing.T) {
	clearKeyEnv(t)

	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "test_config.yaml")
	content := []byte(`
search:
  max_results: 20
  multipliers:
    initial_local: 10
filtering:
  date_threshold_days: 90
llm:
  gemini_model: "gemini-2.0-flash"
`)
	if err := os.WriteFile(cfgPath, content, 0644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg, err := LoadFromFile(cfgPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}
	if cfg.Search.MaxResults != 20 {
		t.Errorf("Search.MaxResults: got %d, want 20", cfg.Search.MaxResults)
	}
	if cfg.Search.Multipliers.InitialLocal != 10 {
		t.Errorf("Multipliers.InitialLocal: got %d, want 10", cfg.Search.Multipliers.InitialLocal)
	}
	// Sibling keys not in the file keep their defaults.
	if cfg.Search.Multipliers.English != 5 {
		t.Errorf("Multipliers.English should keep default 5, got %d", cfg.Search.Multipliers.English)
	}
	if cfg.Search.MinRequiredResults != 5 {
		t.Errorf("Search.MinRequiredResults should keep default 5, got %d", cfg.Search.MinRequiredResults)
	}
	if cfg.Filtering.DateThresholdDays != 90 {
		t.Errorf("Filtering.DateThresholdDays: got %d, want 90", cfg.Filtering.DateThresholdDays)
	}
	if cfg.LLM.GeminiModel != "gemini-2.0-flash" {
		t.Errorf("LLM.GeminiModel: got %q", cfg.LLM.GeminiModel)
	}
}

func TestLoadFromFileNotFound(t *testing.T) {
	_, err := LoadFromFile("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("LoadFromFile() with nonexistent path should return error")
	}
}

// ── overrideFromEnv ──

func TestOverrideFromEnvGoogleKeyOrder(t *testing.T) {
	clearKeyEnv(t)
	os.Setenv("GEMINI_API_KEY", "key-from-gemini-env")
	os.Setenv("GOOGLE_API_KEY", "key-from-google-env")
	defer clearKeyEnv(t)

	cfg := &Config{}
	overrideFromEnv(cfg)

	// GOOGLE_API_KEY wins over GEMINI_API_KEY.
	if cfg.LLM.GoogleKey != "key-from-google-env" {
		t.Errorf("GoogleKey: got %q, want %q", cfg.LLM.GoogleKey, "key-from-google-env")
	}
}

func TestOverrideFromEnvFallbackName(t *testing.T) {
	clearKeyEnv(t)
	os.Setenv("GEMINI_API_KEY", "key-from-gemini-env")
	defer clearKeyEnv(t)

	cfg := &Config{}
	overrideFromEnv(cfg)

	if cfg.LLM.GoogleKey != "key-from-gemini-env" {
		t.Errorf("GoogleKey: got %q, want %q", cfg.LLM.GoogleKey, "key-from-gemini-env")
	}
}

func TestOverrideFromEnvNoEnvSet(t *testing.T) {
	clearKeyEnv(t)

	cfg := &Config{
		LLM: LLMConfig{OpenAIKey: "from-config", GoogleKey: "google-from-config"},
	}
	overrideFromEnv(cfg)

	if cfg.LLM.OpenAIKey != "from-config" {
		t.Errorf("OpenAIKey should stay as 'from-config' when env is unset, got %q", cfg.LLM.OpenAIKey)
	}
	if cfg.LLM.GoogleKey != "google-from-config" {
		t.Errorf("GoogleKey should stay as config value when env is unset, got %q", cfg.LLM.GoogleKey)
	}
}

func TestOverrideFromEnvModel(t *testing.T) {
	clearKeyEnv(t)
	os.Setenv("GEMINI_MODEL", "gemini-exp")
	defer clearKeyEnv(t)

	cfg := &Config{}
	overrideFromEnv(cfg)

	if cfg.LLM.GeminiModel != "gemini-exp" {
		t.Errorf("GeminiModel: got %q, want %q", cfg.LLM.GeminiModel, "gemini-exp")
	}
}

// ── prompt overrides ──

func TestLoadPromptOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	sysPath := filepath.Join(tmpDir, "system_prompt.txt")
	if err := os.WriteFile(sysPath, []byte("custom system prompt\n"), 0644); err != nil {
		t.Fatalf("write prompt file: %v", err)
	}

	cfg := &Config{
		Prompts: PromptConfig{
			Dir:          tmpDir,
			SystemPrompt: "default system",
			UserTemplate: "default template",
		},
	}
	loadPromptOverrides(cfg)

	if cfg.Prompts.SystemPrompt != "custom system prompt" {
		t.Errorf("SystemPrompt: got %q, want trimmed file contents", cfg.Prompts.SystemPrompt)
	}
	// user_prompt_template.txt is absent, the default stays.
	if cfg.Prompts.UserTemplate != "default template" {
		t.Errorf("UserTemplate should keep default, got %q", cfg.Prompts.UserTemplate)
	}
}

func TestLoadPromptOverridesEmptyFile(t *testing.T) {
	tmpDir := t.TempDir()
	sysPath := filepath.Join(tmpDir, "system_prompt.txt")
	if err := os.WriteFile(sysPath, []byte("  \n"), 0644); err != nil {
		t.Fatalf("write prompt file: %v", err)
	}

	cfg := &Config{
		Prompts: PromptConfig{Dir: tmpDir, SystemPrompt: "default system"},
	}
	loadPromptOverrides(cfg)

	if cfg.Prompts.SystemPrompt != "default system" {
		t.Errorf("blank prompt file should keep default, got %q", cfg.Prompts.SystemPrompt)
	}
}

// ── maskKey ──

func TestMaskKeyShort(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", "***"},
		{"a", "***"},
		{"abcd", "***"},
		{"12345678", "***"},
	}
	for _, tc := range tests {
		got := maskKey(tc.input)
		if got != tc.want {
			t.Errorf("maskKey(%q): got %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestMaskKeyLong(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"123456789", "123...789"},
		{"sk-abcdef1234567890xyz", "sk-...xyz"},
		{"ABCDEFGHIJKLMNOP", "ABC...NOP"},
	}
	for _, tc := range tests {
		got := maskKey(tc.input)
		if got != tc.want {
			t.Errorf("maskKey(%q): got %q, want %q", tc.input, got, tc.want)
		}
	}
}

// ── CheckAPIKeys / checkKey ──

func TestCheckAPIKeysAllEmpty(t *testing.T) {
	clearKeyEnv(t)

	cfg := &Config{}
	statuses := CheckAPIKeys(cfg)

	if len(statuses) != 2 {
		t.Fatalf("CheckAPIKeys: got %d statuses, want 2", len(statuses))
	}
	for _, s := range statuses {
		if s.IsSet {
			t.Errorf("Key %q should not be set", s.Name)
		}
		if s.Source != KeySourceNone {
			t.Errorf("Key %q source: got %q, want %q", s.Name, s.Source, KeySourceNone)
		}
	}
}

func TestCheckAPIKeysFromConfig(t *testing.T) {
	clearKeyEnv(t)

	cfg := &Config{
		LLM: LLMConfig{OpenAIKey: "sk-test-very-long-key-value"},
	}
	statuses := CheckAPIKeys(cfg)

	found := false
	for _, s := range statuses {
		if s.Name == "OpenAI API Key" {
			found = true
			if !s.IsSet {
				t.Error("OpenAI key should be set")
			}
			if s.Source != KeySourceConfig {
				t.Errorf("Source: got %q, want %q", s.Source, KeySourceConfig)
			}
			if s.Masked != "sk-...lue" {
				t.Errorf("Masked: got %q, want %q", s.Masked, "sk-...lue")
			}
		}
	}
	if !found {
		t.Error("OpenAI API Key status not found")
	}
}

func TestCheckAPIKeysFromEnv(t *testing.T) {
	clearKeyEnv(t)
	os.Setenv("GENAI_API_KEY", "genai-env-key-for-testing")
	defer clearKeyEnv(t)

	cfg := &Config{
		LLM: LLMConfig{GoogleKey: "genai-env-key-for-testing"},
	}
	statuses := CheckAPIKeys(cfg)

	for _, s := range statuses {
		if s.Name == "Google AI Studio API Key" {
			if s.Source != KeySourceEnv {
				t.Errorf("Source: got %q, want %q", s.Source, KeySourceEnv)
			}
		}
	}
}

// ── homeDir ──

func TestHomeDirReturnsNonEmpty(t *testing.T) {
	h := homeDir()
	if h == "" {
		t.Error("homeDir() should not return empty string")
	}
}
