package analysis

import (
	"fmt"
	"math"
	"strings"

	"github.com/takumi-oda/kabusight/pkg/models"
)

var recommendationBonus = map[string]float64{
	"strong_buy":  12,
	"buy":         8,
	"hold":        0,
	"sell":        -10,
	"strong_sell": -15,
}

// Heuristic produces a verdict from snapshot numbers alone. It is the
// final stage of the fallback chain and never fails.
//
// The score starts at 55, rewards upside to the analyst target price
// (0.6 per percent, capped at ±20), penalizes a falling day move (0.3
// per percent, capped at 10; a rising day adds back half the capped
// amount), and applies a fixed bonus per recommendation key.
func Heuristic(snap models.Snapshot) models.AnalysisResult {
	targetGap := deref(snap.Analyst.TargetGapPct)
	dayMove := deref(snap.DayChangePct)
	reco := strings.ToLower(snap.Analyst.RecommendationKey)

	score := 55.0
	score += math.Max(math.Min(targetGap*0.6, 20), -20)

	momentum := math.Max(math.Min(math.Abs(dayMove)*0.3, 10), 0)
	if dayMove < 0 {
		score -= momentum
	} else {
		score += momentum * 0.5
	}

	score += recommendationBonus[reco]
	final := int(math.Round(math.Max(0, math.Min(100, score))))

	var action models.Action
	var verdict string
	switch {
	case final >= 66:
		action = models.ActionBuy
		verdict = "押し目買い好機"
	case final <= 40:
		action = models.ActionSell
		verdict = "リスク回避を優先"
	default:
		action = models.ActionHold
		verdict = "中立：様子見"
	}

	var bullets []string
	if snap.Analyst.TargetMeanPrice != nil && snap.Price != nil {
		bullets = append(bullets, fmt.Sprintf("目標株価まで %s の余地", formatPercent(snap.Analyst.TargetGapPct)))
	}
	if reco != "" {
		bullets = append(bullets, fmt.Sprintf("アナリスト評価: %s", strings.ToUpper(reco)))
	}
	if snap.Metrics.TrailingPE != nil {
		bullets = append(bullets, fmt.Sprintf("PER %.1f倍で取引中", *snap.Metrics.TrailingPE))
	}
	for len(bullets) < models.MaxBulletPoints {
		bullets = append(bullets, "市場ボラティリティに備えて分散を維持")
	}

	return models.AnalysisResult{
		VerdictShort: verdict,
		Action:       action,
		Score:        final,
		BulletPoints: bullets[:models.MaxBulletPoints],
		Scenario: models.Scenario{
			BullishCase:     "外部AIキー未設定のため、シンプル指標で強気シナリオを推定しています。",
			BearishCase:     "短期テクニカルの振れに注意しつつファンダ指標の確認が必要です。",
			CompetitiveEdge: "目標株価と機関投資家動向を主要な拠り所としています。",
		},
		AnalysisComment: "外部AIレスポンスを取得できなかったため統計ベースの暫定コメントです。",
		Source:          models.SourceHeuristic,
	}
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func formatPercent(v *float64) string {
	if v == nil || math.IsNaN(*v) {
		return "—"
	}
	return fmt.Sprintf("%.2f%%", *v)
}
