package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"dealwatch/internal/domain/entity"
)

// FormatEvent renders an event as Telegram HTML.
func FormatEvent(e entity.Event) string {
	var sb strings.Builder

	d := e.Deal

	switch e.Kind {
	case entity.EventEntered:
		sb.WriteString("🟢 <b>Deal entered</b>\n\n")
		writeDealHeader(&sb, d)
		fmt.Fprintf(&sb, "💵 <b>Entry price:</b> %s\n", d.EntryPrice.String())
		fmt.Fprintf(&sb, "📦 <b>Volume:</b> %s\n", d.BoughtVolume.String())
	case entity.EventStep:
		fmt.Fprintf(&sb, "🔵 <b>Safety order #%d filled</b>\n\n", e.Step)
		writeDealHeader(&sb, d)
		fmt.Fprintf(&sb, "💵 <b>Average price:</b> %s\n", d.EntryPrice.String())
		fmt.Fprintf(&sb, "📦 <b>Volume:</b> %s\n", d.BoughtVolume.String())
	case entity.EventCompleted:
		sb.WriteString(completedTitle(d))
		writeDealHeader(&sb, d)
		fmt.Fprintf(&sb, "💰 <b>Profit:</b> %s (%s%%)\n", signed(d.ProfitAbs), signed(d.ProfitPercent))

		if duration := d.Duration(); duration > 0 {
			fmt.Fprintf(&sb, "⏱ <b>Duration:</b> %s\n", FormatDuration(duration))
		}

		sb.WriteString("\n")

		if e.Stats != nil {
			sb.WriteString(FormatStats(*e.Stats))
		} else {
			sb.WriteString("📊 <i>Bot statistics unavailable</i>\n")
		}
	default:
		fmt.Fprintf(&sb, "<b>%s</b>\n\n", html.EscapeString(string(e.Kind)))
		writeDealHeader(&sb, d)
	}

	return sb.String()
}

// FormatStats renders the performance block shared by completion
// notifications and the /stats command.
func FormatStats(s entity.BotStats) string {
	var sb strings.Builder

	sb.WriteString("📊 <b>Bot statistics</b>\n")
	fmt.Fprintf(&sb, "✅ <b>Completed deals:</b> %d\n", s.CompletedDeals)
	fmt.Fprintf(&sb, "💰 <b>Total profit:</b> %s\n", signed(s.TotalProfit))
	fmt.Fprintf(&sb, "🏦 <b>Balance:</b> %s\n", s.Balance.StringFixed(2))
	fmt.Fprintf(&sb, "📈 <b>ROI:</b> %s%%\n", signed(s.ROIPercent))
	fmt.Fprintf(&sb, "🗓 <b>Monthly:</b> %s%% | <b>Annual:</b> %s%%\n",
		signed(s.MonthlyReturnPercent), signed(s.AnnualReturnPercent))

	if s.Elapsed > 0 {
		fmt.Fprintf(&sb, "⏳ <b>Running for:</b> %s\n", FormatDuration(s.Elapsed))
	}

	return sb.String()
}

// FormatDuration renders d as "2d 4h 5m", dropping leading zero units.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}

	days := int(d / (24 * time.Hour))
	hours := int(d % (24 * time.Hour) / time.Hour)
	minutes := int(d % time.Hour / time.Minute)

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}

func writeDealHeader(sb *strings.Builder, d entity.Deal) {
	fmt.Fprintf(sb, "💱 <b>Pair:</b> %s\n", html.EscapeString(d.Pair))

	if d.BotName != "" {
		fmt.Fprintf(sb, "🤖 <b>Bot:</b> %s\n", html.EscapeString(d.BotName))
	}

	fmt.Fprintf(sb, "🆔 <b>Deal:</b> <code>%s</code>\n", html.EscapeString(d.ID))
}

func completedTitle(d entity.Deal) string {
	if d.ProfitAbs.IsNegative() {
		return "🔴 <b>Deal closed with loss</b>\n\n"
	}

	return "✅ <b>Deal completed</b>\n\n"
}

func signed(v decimal.Decimal) string {
	if v.IsPositive() {
		return "+" + v.String()
	}

	return v.String()
}
