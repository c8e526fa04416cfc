// kabusight — AI-assisted stock snapshot and news analysis for the
// Tokyo market (and beyond).
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/takumi-oda/kabusight/internal/analysis"
	"github.com/takumi-oda/kabusight/internal/config"
	"github.com/takumi-oda/kabusight/internal/datasource"
	"github.com/takumi-oda/kabusight/internal/llm"
	"github.com/takumi-oda/kabusight/internal/news"
	"github.com/takumi-oda/kabusight/internal/search"
	"github.com/takumi-oda/kabusight/pkg/models"
	"github.com/takumi-oda/kabusight/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config
var cfg *config.Config

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "kabusight",
	Short: "kabusight — AI-assisted stock and news analysis",
	Long: `kabusight (株 + insight)
Fetches a market snapshot and recent news for a stock, then produces a
structured Japanese investment verdict via Gemini or OpenAI, falling
back to a built-in heuristic when no AI key is configured. Domestic
instrument codes like "6501" resolve to the Tokyo market automatically.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(newsCmd)
	rootCmd.AddCommand(quoteCmd)
	rootCmd.AddCommand(statusCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("kabusight %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Analyze Command ---

var analyzeCmd = &cobra.Command{
	Use:   "analyze [ticker]",
	Short: "Fetch snapshot and news, then produce an investment verdict",
	Long: `Fetch a quote snapshot and recent news for a stock, then produce a
structured verdict. Gemini is tried first, then OpenAI, then the
built-in heuristic.

Examples:
  kabusight analyze 6501
  kabusight analyze AAPL --json
  kabusight analyze 7203 --query "トヨタ自動車" --max-news 5`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		queryOverride, _ := cmd.Flags().GetString("query")
		maxNews, _ := cmd.Flags().GetInt("max-news")
		skipNews, _ := cmd.Flags().GetBool("no-news")
		if maxNews > 0 {
			cfg.Search.MaxResults = maxNews
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 3*time.Minute)
		defer cancel()

		nt := utils.NormalizeTicker(args[0])
		if !asJSON && nt.ConversionNote != "" {
			fmt.Printf("ℹ️  %s\n", nt.ConversionNote)
		}

		resolver := news.NewNameResolver()
		yahoo := datasource.NewYahooClient(datasource.WithQuoteNameResolver(resolver))
		snap, err := yahoo.Snapshot(ctx, nt.QuerySymbol)
		if err != nil {
			return fmt.Errorf("fetch snapshot: %w", err)
		}

		var items []models.NewsItem
		if !skipNews {
			query := queryOverride
			if query == "" {
				query = snap.CompanyName
			}
			svc := newsService(cfg, resolver)
			items, err = svc.FetchNews(ctx, query, nt.QuerySymbol, snap.CompanyName)
			if err != nil {
				return fmt.Errorf("fetch news: %w", err)
			}
		}

		engine := analysis.NewEngine(cfg, buildProviders(cfg)...)
		result := engine.Generate(ctx, snap, items)

		if asJSON {
			return printJSON(analyzeOutput{
				Snapshot: snap,
				News:     items,
				Analysis: result,
				Source:   analysis.DescribeSource(result.Source),
			})
		}

		renderSnapshot(snap, nt.DisplaySymbol)
		renderAnalysis(result)
		renderNews(items)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().Bool("json", false, "print the full result as JSON")
	analyzeCmd.Flags().String("query", "", "news search subject (default: resolved company name)")
	analyzeCmd.Flags().Int("max-news", 0, "maximum number of news items to keep")
	analyzeCmd.Flags().Bool("no-news", false, "skip news retrieval")
}

// --- News Command ---

var newsCmd = &cobra.Command{
	Use:   "news [ticker]",
	Short: "Fetch and rank recent news for a stock",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		queryOverride, _ := cmd.Flags().GetString("query")
		maxNews, _ := cmd.Flags().GetInt("max-news")
		if maxNews > 0 {
			cfg.Search.MaxResults = maxNews
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 3*time.Minute)
		defer cancel()

		nt := utils.NormalizeTicker(args[0])
		resolver := news.NewNameResolver()

		query := queryOverride
		if query == "" {
			// Without a snapshot, the query falls back to the resolved
			// local name or the bare symbol.
			if name := resolver.Resolve(ctx, nt.QuerySymbol, ""); name != "" {
				query = name
			} else {
				query = nt.QuerySymbol
			}
		}

		svc := newsService(cfg, resolver)
		items, err := svc.FetchNews(ctx, query, nt.QuerySymbol, "")
		if err != nil {
			return fmt.Errorf("fetch news: %w", err)
		}

		if asJSON {
			return printJSON(items)
		}

		fmt.Printf("📰 News for %s (%d items)\n", nt.DisplaySymbol, len(items))
		renderNews(items)
		return nil
	},
}

func init() {
	newsCmd.Flags().Bool("json", false, "print news items as JSON")
	newsCmd.Flags().String("query", "", "news search subject (default: resolved company name)")
	newsCmd.Flags().Int("max-news", 0, "maximum number of news items to keep")
}

// --- Quote Command ---

var quoteCmd = &cobra.Command{
	Use:   "quote [ticker]",
	Short: "Fetch a quote snapshot for a stock",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
		defer cancel()

		nt := utils.NormalizeTicker(args[0])
		yahoo := datasource.NewYahooClient(
			datasource.WithQuoteNameResolver(news.NewNameResolver()))
		snap, err := yahoo.Snapshot(ctx, nt.QuerySymbol)
		if err != nil {
			return fmt.Errorf("fetch snapshot: %w", err)
		}

		if asJSON {
			return printJSON(snap)
		}
		renderSnapshot(snap, nt.DisplaySymbol)
		renderMetrics(snap)
		return nil
	},
}

func init() {
	quoteCmd.Flags().Bool("json", false, "print the snapshot as JSON")
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  kabusight — System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:       %s (%s)\n", version, commit)
		fmt.Println()

		fmt.Println("  Configuration:")
		fmt.Printf("    Gemini model:   %s\n", cfg.LLM.GeminiModel)
		fmt.Printf("    OpenAI model:   %s\n", cfg.LLM.OpenAIModel)
		fmt.Printf("    Max news:       %d (min required: %d)\n", cfg.Search.MaxResults, cfg.Search.MinRequiredResults)
		fmt.Printf("    Search retries: %d\n", cfg.Search.MaxRetries)
		fmt.Printf("    Feeds enabled:  %v\n", cfg.Feeds.Enabled)
		fmt.Println()

		fmt.Println("  API Keys:")
		keys := config.CheckAPIKeys(cfg)
		for _, k := range keys {
			status := "❌ not set"
			if k.IsSet {
				status = fmt.Sprintf("✅ set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Printf("    %-28s %s\n", k.Name+":", status)
		}

		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}

// --- Wiring helpers ---

func newsService(cfg *config.Config, resolver *news.NameResolver) *news.Service {
	opts := []news.ServiceOption{news.WithNameResolver(resolver)}
	if cfg.Feeds.Enabled {
		sources := append([]config.FeedSource{}, cfg.Feeds.Japanese...)
		sources = append(sources, cfg.Feeds.English...)
		opts = append(opts, news.WithFeeds(search.NewFeedReader(sources)))
	}
	return news.NewService(cfg, search.NewDuckDuckGo(), opts...)
}

// buildProviders assembles the fallback chain from configured keys.
// Gemini outranks OpenAI when both are set.
func buildProviders(cfg *config.Config) []llm.Provider {
	var providers []llm.Provider
	if gemini, err := llm.NewGeminiProvider(cfg.LLM.GoogleKey,
		llm.WithGeminiModel(cfg.LLM.GeminiModel)); err == nil {
		providers = append(providers, gemini)
	}
	if openai, err := llm.NewOpenAIProvider(cfg.LLM.OpenAIKey,
		llm.WithOpenAIModel(cfg.LLM.OpenAIModel)); err == nil {
		providers = append(providers, openai)
	}
	return providers
}

// --- Output ---

type analyzeOutput struct {
	Snapshot models.Snapshot       `json:"snapshot"`
	News     []models.NewsItem     `json:"news"`
	Analysis models.AnalysisResult `json:"analysis"`
	Source   string                `json:"analysis_source"`
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func renderSnapshot(snap models.Snapshot, display string) {
	fmt.Println()
	fmt.Printf("  %s · %s\n", display, snap.CompanyName)
	fmt.Printf("  %s", formatMoney(snap.Price, snap.Currency))
	if snap.DayChange != nil && snap.DayChangePct != nil {
		arrow := "▲"
		if *snap.DayChange < 0 {
			arrow = "▼"
		}
		fmt.Printf("  %s %s (%s)", arrow, formatMoney(snap.DayChange, snap.Currency), formatPct(snap.DayChangePct))
	}
	fmt.Println()
}

func renderAnalysis(r models.AnalysisResult) {
	fmt.Println()
	fmt.Printf("  [%s] %s — スコア %d/100\n", r.Action, r.VerdictShort, r.Score)
	for _, b := range r.BulletPoints {
		fmt.Printf("   • %s\n", b)
	}
	if r.Scenario.BullishCase != "" {
		fmt.Printf("\n  Bull: %s\n", r.Scenario.BullishCase)
		fmt.Printf("  Bear: %s\n", r.Scenario.BearishCase)
		fmt.Printf("  Moat: %s\n", r.Scenario.CompetitiveEdge)
	}
	if r.AnalysisComment != "" {
		fmt.Printf("\n  %s\n", r.AnalysisComment)
	}
	fmt.Printf("\n  分析ソース: %s\n", analysis.DescribeSource(r.Source))
}

func renderMetrics(snap models.Snapshot) {
	fmt.Println()
	fmt.Printf("  PER(実績):  %s\n", formatFloat(snap.Metrics.TrailingPE))
	fmt.Printf("  PER(予想):  %s\n", formatFloat(snap.Metrics.ForwardPE))
	fmt.Printf("  PBR:        %s\n", formatFloat(snap.Metrics.PriceToBook))
	fmt.Printf("  EPS:        %s\n", formatFloat(snap.Metrics.TrailingEPS))
	fmt.Printf("  配当利回り: %s\n", formatPct(snap.Metrics.DividendYieldPct))
	fmt.Printf("  β:          %s\n", formatFloat(snap.Metrics.Beta))
	if snap.Analyst.RecommendationKey != "" {
		fmt.Printf("  アナリスト: %s", strings.ToUpper(snap.Analyst.RecommendationKey))
		if snap.Analyst.TargetGapPct != nil {
			fmt.Printf(" (目標株価まで %s)", formatPct(snap.Analyst.TargetGapPct))
		}
		fmt.Println()
	}
}

func renderNews(items []models.NewsItem) {
	if len(items) == 0 {
		return
	}
	fmt.Println()
	for i, item := range items {
		fmt.Printf("  %2d. %s", i+1, item.Title)
		if item.Source != "" {
			fmt.Printf(" — %s", item.Source)
		}
		fmt.Println()
		fmt.Printf("      %s\n", item.URL)
	}
}

func formatMoney(v *float64, currency string) string {
	if v == nil {
		return "N/A"
	}
	switch strings.ToUpper(currency) {
	case "JPY":
		return fmt.Sprintf("¥%.0f", *v)
	case "USD":
		return fmt.Sprintf("$%.2f", *v)
	case "EUR":
		return fmt.Sprintf("€%.2f", *v)
	}
	return fmt.Sprintf("%.2f %s", *v, currency)
}

func formatPct(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.2f%%", *v)
}

func formatFloat(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", *v)
}
