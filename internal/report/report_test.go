package report

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"VolSentinel/internal/model"
)

func TestBuildPartialFailure(t *testing.T) {
	summary := &model.RunSummary{
		Date: "2025-06-04",
		Outcomes: []model.AssetOutcome{
			{
				Asset: model.Asset{Name: "🏆 黄金 (Gold)", SpotSymbol: "GC=F"},
				Record: &model.PredictionRecord{
					Name: "🏆 黄金 (Gold)", Price: 2001.75, ImpliedVol: 0.16,
					LowPred: 1981.7325, HighPred: 2021.7675, IVSource: model.IVSourceOption,
				},
			},
			{
				Asset: model.Asset{Name: "🔥 天然气 (Nat Gas)", SpotSymbol: "NG=F"},
				Err:   errors.New("market data unavailable"),
			},
		},
		ResolvedWins: 1,
		ResolvedLoss: 0,
		PendingLeft:  2,
		Wins:         4,
		TotalResolved: 7,
	}

	text := Build(summary)

	assert.Contains(t, text, "全市场波动率日报")
	assert.Contains(t, text, "2025-06-04")
	assert.Contains(t, text, "2,001.75")
	assert.Contains(t, text, "IV: 16.0%")
	assert.Contains(t, text, "❌ 🔥 天然气 (Nat Gas): 数据获取失败")
	assert.Contains(t, text, "本次判定: 1 胜 0 负 | 待验证: 2 条")
	assert.Contains(t, text, "历史胜率: 57.1% (4/7)")

	// Failure of one asset never drops the other's lines.
	assert.Less(t, strings.Index(text, "黄金"), strings.Index(text, "天然气"))
}

func TestBuildNoResolvedHistory(t *testing.T) {
	summary := &model.RunSummary{Date: "2025-06-04"}
	text := Build(summary)
	assert.Contains(t, text, "历史胜率: 暂无已验证记录")
	assert.NotContains(t, text, "NaN")
}
