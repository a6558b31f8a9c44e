package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/guregu/null/v6"

	"SwingScreener/internal/model"
)

func fmtOpt(v null.Float, format string) string {
	if !v.Valid {
		return "n/a"
	}
	return fmt.Sprintf(format, v.Float64)
}

// FormatTopStocks formats the ranked picks of a scan into a Telegram message.
func FormatTopStocks(summary *model.ScanSummary) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>Swing picks</b> | %s\n", summary.FinishedAt.Format("2006-01-02 15:04")))
	b.WriteString(fmt.Sprintf("Scanned %d, scored %d, failed %d in %s\n\n",
		summary.Requested, summary.Scored, len(summary.Failures),
		summary.FinishedAt.Sub(summary.StartedAt).Round(time.Second)))

	if len(summary.Top) == 0 {
		b.WriteString("No stock could be scored.")
		return b.String()
	}

	for i, r := range summary.Top {
		b.WriteString(fmt.Sprintf("%d. <b>%s</b> ₹%.2f | score <b>%.2f</b>/80\n",
			i+1, html.EscapeString(r.Symbol), r.Price, r.TotalScore))
		b.WriteString(fmt.Sprintf("   vol %s | RSI %s | ADX %s | OI %s\n",
			fmtOpt(r.VolumeRatio, "%.2fx"), fmtOpt(r.RSI, "%.0f"), fmtOpt(r.ADX, "%.0f"), oiLabel(r.OIPattern)))
	}
	return b.String()
}

// FormatStockDetail formats the factor breakdown of one symbol.
func FormatStockDetail(r *model.StockResult) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🔎 <b>%s</b> | %s\n", html.EscapeString(r.Symbol), r.Date.Format("2006-01-02")))
	b.WriteString(fmt.Sprintf("Close: ₹%.2f | EMA20 %s | EMA50 %s\n\n",
		r.Price, fmtOpt(r.EMA20, "%.2f"), fmtOpt(r.EMA50, "%.2f")))

	b.WriteString("📈 <b>Factors:</b>\n")
	for _, f := range r.Scores.Factors {
		b.WriteString(fmt.Sprintf("  %s (%s): %.0f × %.0f%% = %.2f\n",
			f.Name, html.EscapeString(f.Commentary), f.Score, f.Weight, f.Weighted))
	}
	b.WriteString("  ─────────────────\n")
	b.WriteString(fmt.Sprintf("  Total: %.2f / 80\n", r.TotalScore))
	if r.BarIssues > 0 {
		b.WriteString(fmt.Sprintf("\n⚠️ %d malformed bars skipped\n", r.BarIssues))
	}
	return b.String()
}

// FormatHelp lists the supported commands.
func FormatHelp() string {
	return "Commands:\n• /top - latest scan picks\n• /score SYMBOL - score one stock\n• /scan - run a scan now"
}

func oiLabel(p model.OIPattern) string {
	if p == model.OIUnavailable {
		return "n/a"
	}
	return string(p)
}
