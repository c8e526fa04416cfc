package config

import "github.com/spf13/viper"

// defaultSystemPrompt instructs the model to compare the quantitative
// snapshot against analyst consensus and answer in strict JSON.
const defaultSystemPrompt = "You are an equity strategist who writes concise Japanese summaries for busy executives. " +
	"Use the provided market snapshot to compare quantitative signals with analyst consensus. " +
	"Output JSON exactly with the requested schema."

// defaultUserTemplate carries {market_data} and {news_context}
// placeholders expanded per run. The JSON skeleton is literal text, not
// a template.
const defaultUserTemplate = "マーケットデータ:\n" +
	"{market_data}\n\n" +
	"最新ニュース:\n" +
	"{news_context}\n\n" +
	"出力フォーマット(JSON):\n" +
	"{\n" +
	"\"verdict_short\":\"\",\n" +
	"\"action\":\"Buy | Sell | Hold\",\n" +
	"\"score\":0,\n" +
	"\"bullet_points\":[\"\",\"\", \"\"],\n" +
	"\"scenario\":{\"bullish_case\":\"\",\"bearish_case\":\"\",\"competitive_edge\":\"\"},\n" +
	"\"analysis_comment\":\"\"\n" +
	"}"

// setDefaults installs every built-in value so a partial (or missing)
// config file still yields a complete Config.
func setDefaults(v *viper.Viper) {
	// --- search tuning ---
	v.SetDefault("search.max_results", 15)
	v.SetDefault("search.min_required_results", 5)
	v.SetDefault("search.max_retries", 3)
	v.SetDefault("search.retry_delay_seconds", 2)
	v.SetDefault("search.query_delay_millis", 300)
	v.SetDefault("search.multipliers.initial_local", 8)
	v.SetDefault("search.multipliers.fallback_local", 4)
	v.SetDefault("search.multipliers.english", 5)
	v.SetDefault("search.min_candidates.initial_local", 50)
	v.SetDefault("search.min_candidates.fallback_local", 30)
	v.SetDefault("search.min_candidates.english", 30)
	v.SetDefault("search.timeout_seconds", 30)
	v.SetDefault("search.article_fetch_timeout_seconds", 15)
	v.SetDefault("search.local_suffixes", []string{".T"})
	v.SetDefault("search.local_code_min_digits", 4)
	v.SetDefault("search.local_code_max_digits", 5)

	// --- query templates ---
	v.SetDefault("keywords.local_search_templates", []string{
		"{company_name} 決算 業績",
		"{company_name} 決算発表",
		"{company_name} 業績発表",
		"{company_name} IR 投資家向け説明会",
		"{company_name} 株主総会",
		"{company_name} M&A 買収 合併",
		"{company_name} 大型投資 戦略発表",
		"{company_name} 株価 ニュース",
		"{company_name} 株 最新",
		"{company_name} 企業 ニュース",
		"{company_name} 最新ニュース",
	})
	v.SetDefault("keywords.local_symbol_templates", []string{
		"{symbol} 株価",
		"{symbol} ニュース",
		"{symbol} 決算",
		"{symbol} 業績",
	})
	v.SetDefault("keywords.local_combined_templates", []string{
		"{symbol} {company_name}",
		"{company_name} {symbol}",
	})
	v.SetDefault("keywords.english_search_templates", []string{
		"{query} earnings results",
		"{query} quarterly results",
		"{query} financial results",
		"{query} acquisition merger",
		"{query} strategic announcement",
		"{query} stock news",
		"{query} stock",
	})

	// --- scoring weights ---
	v.SetDefault("scoring.focus_score.company_name_in_title", 10)
	v.SetDefault("scoring.focus_score.company_name_in_snippet", 5)
	v.SetDefault("scoring.focus_score.company_name_count_multiplier", 2)
	v.SetDefault("scoring.focus_score.company_name_count_max", 10)
	v.SetDefault("scoring.focus_score.symbol_in_title", 8)
	v.SetDefault("scoring.focus_score.symbol_in_snippet", 4)
	v.SetDefault("scoring.focus_score.symbol_count_multiplier", 2)
	v.SetDefault("scoring.focus_score.symbol_count_max", 8)
	v.SetDefault("scoring.focus_score.query_in_title", 6)
	v.SetDefault("scoring.focus_score.query_in_snippet", 3)
	v.SetDefault("scoring.focus_score.deep_analysis_bonus", 2)
	v.SetDefault("scoring.importance_score.keyword_score", 2)

	// --- keyword vocabularies ---
	v.SetDefault("vocab.shallow_article.japanese", []string{
		"ランキング", "トップ", "上位", "ベスト", "ワースト",
		"市場動向", "相場概況", "市況", "マーケットサマリー",
		"株価ランキング", "上昇ランキング", "下落ランキング",
		"注目銘柄", "人気銘柄", "急騰銘柄", "急落銘柄",
		"日経平均", "TOPIX", "ダウ平均", "ナスダック",
		"市場総括", "相場総括", "市況レポート",
		"複数銘柄", "多数銘柄", "各銘柄", "各社",
	})
	v.SetDefault("vocab.shallow_article.english", []string{
		"ranking", "top", "best", "worst", "list",
		"market overview", "market summary", "market wrap",
		"stock ranking", "gainers", "losers", "most active",
		"market movers", "market recap", "daily wrap",
		"multiple stocks", "several stocks", "various stocks",
	})
	v.SetDefault("vocab.important.japanese", []string{
		"決算", "業績", "業績発表", "決算発表", "決算説明会",
		"ir", "投資家向け説明会", "株主総会",
		"m&a", "買収", "合併", "統合", "提携",
		"大型投資", "戦略発表", "経営方針", "中期経営計画",
		"上場", "ipo", "増資", "減資", "配当",
		"不祥事", "コンプライアンス", "リコール",
	})
	v.SetDefault("vocab.important.english", []string{
		"earnings", "quarterly", "annual", "results", "financial results",
		"acquisition", "merger", "m&a", "partnership",
		"ipo", "dividend", "buyback", "strategic",
		"recall", "scandal", "compliance",
	})
	v.SetDefault("vocab.deep_analysis.japanese", []string{
		"戦略", "経営方針", "中期経営計画", "事業戦略",
		"業績分析", "財務分析", "投資判断", "投資評価",
		"競争力", "競合分析", "市場シェア", "事業展開",
		"IR説明会", "決算説明会", "投資家説明会",
	})
	v.SetDefault("vocab.deep_analysis.english", []string{
		"strategy", "business plan", "financial analysis",
		"investment thesis", "competitive", "market share",
		"earnings call", "investor day", "analyst meeting",
	})

	// --- filtering thresholds ---
	v.SetDefault("filtering.date_threshold_days", 365)
	v.SetDefault("filtering.min_stock_codes", 3)
	v.SetDefault("filtering.min_focus_score", 0)
	v.SetDefault("filtering.min_importance_when_focus_zero", 4)
	v.SetDefault("filtering.fallback_sufficient_multiplier", 2)

	// --- supplementary feeds ---
	v.SetDefault("feeds.enabled", true)
	v.SetDefault("feeds.japanese", []map[string]any{
		{"name": "Yahoo!ファイナンス", "url": "https://news.yahoo.co.jp/rss/topics/business.xml"},
	})
	v.SetDefault("feeds.english", []map[string]any{
		{"name": "Yahoo Finance", "url": "https://feeds.finance.yahoo.com/rss/2.0/headline?s={symbol}&region=US&lang=en-US"},
	})

	// --- llm providers ---
	v.SetDefault("llm.gemini_model", "gemini-2.5-flash-lite")
	v.SetDefault("llm.openai_model", "gpt-4o-mini")

	// --- prompts ---
	v.SetDefault("prompts.dir", "./prompts")
	v.SetDefault("prompts.system_prompt", defaultSystemPrompt)
	v.SetDefault("prompts.user_template", defaultUserTemplate)
}
