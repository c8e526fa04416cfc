package models

// Action is the investment verdict attached to an analysis result.
type Action string

const (
	ActionBuy  Action = "Buy"
	ActionSell Action = "Sell"
	ActionHold Action = "Hold"
)

// AnalysisSource identifies which stage of the provider fallback chain
// produced a result. Exactly one source is stamped per result.
type AnalysisSource string

const (
	SourceGemini    AnalysisSource = "gemini"
	SourceOpenAI    AnalysisSource = "openai"
	SourceHeuristic AnalysisSource = "heuristic"
)

// MaxBulletPoints is the hard cap on bullet points in a result.
const MaxBulletPoints = 3

// Scenario holds the qualitative bull/bear framing of a verdict.
type Scenario struct {
	BullishCase     string `json:"bullish_case"`
	BearishCase     string `json:"bearish_case"`
	CompetitiveEdge string `json:"competitive_edge"`
}

// AnalysisResult is the structured verdict produced once per run by the
// first successful stage of the fallback chain.
type AnalysisResult struct {
	VerdictShort    string         `json:"verdict_short"`
	Action          Action         `json:"action"`
	Score           int            `json:"score"`
	BulletPoints    []string       `json:"bullet_points"`
	Scenario        Scenario       `json:"scenario"`
	AnalysisComment string         `json:"analysis_comment"`
	Source          AnalysisSource `json:"source"`
}

// AnalysisPayload is the normalized record serialized and sent verbatim
// to whichever AI provider is attempted. Built once per run, immutable.
type AnalysisPayload struct {
	Symbol       string          `json:"symbol"`
	CompanyName  string          `json:"company_name"`
	Currency     string          `json:"currency"`
	Price        *float64        `json:"price"`
	DayChangePct *float64        `json:"day_change_pct"`
	Analyst      AnalystSnapshot `json:"analyst"`
	Metrics      KeyMetrics      `json:"metrics"`
	News         []NewsItem      `json:"news"`
	Timestamp    string          `json:"timestamp"`
}
