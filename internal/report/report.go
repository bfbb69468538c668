package report

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"VolSentinel/internal/model"
)

const divider = "➖➖➖➖➖➖➖➖➖➖"

// Build renders the daily report for Telegram (HTML parse mode).
// Per-asset failures become an explicit notice line; the report is
// built even when every asset failed.
func Build(summary *model.RunSummary) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>全市场波动率日报</b> | %s\n", summary.Date))

	for _, o := range summary.Outcomes {
		b.WriteString(divider + "\n")
		if o.Err != nil {
			b.WriteString(fmt.Sprintf("❌ %s: 数据获取失败 (%v)\n", o.Asset.Name, o.Err))
			continue
		}
		rec := o.Record
		b.WriteString(fmt.Sprintf("<b>%s</b>\n", rec.Name))
		b.WriteString(fmt.Sprintf("💰 标的现价: %s\n", money(rec.Price)))
		b.WriteString(fmt.Sprintf("%s IV: %.1f%% | 预期波幅: ±%.2f\n",
			sourceIcon(rec.IVSource), rec.ImpliedVol*100, (rec.HighPred-rec.LowPred)/2))
		b.WriteString(fmt.Sprintf("📉 %s  ~  📈 %s\n", money(rec.LowPred), money(rec.HighPred)))
	}

	b.WriteString(divider + "\n")
	b.WriteString("🎯 <b>预测战绩</b>\n")
	b.WriteString(fmt.Sprintf("本次判定: %d 胜 %d 负 | 待验证: %d 条\n",
		summary.ResolvedWins, summary.ResolvedLoss, summary.PendingLeft))
	if summary.TotalResolved > 0 {
		b.WriteString(fmt.Sprintf("历史胜率: %.1f%% (%d/%d)\n",
			summary.WinRate()*100, summary.Wins, summary.TotalResolved))
	} else {
		b.WriteString("历史胜率: 暂无已验证记录\n")
	}

	return b.String()
}

// sourceIcon mirrors the old bot's 方案A/方案B markers: option-chain
// derived IV vs. volatility-index derived IV.
func sourceIcon(src model.IVSource) string {
	if src == model.IVSourceIndex {
		return "🔸"
	}
	return "🔹"
}

func money(v float64) string {
	return humanize.CommafWithDigits(v, 2)
}
