package view

import (
	"fmt"
	"strings"
	"time"

	"dealwatch/internal/infrastructure/notifier"
	"dealwatch/internal/worker"
)

const StartMessage = `👋 <b>dealwatch</b>

I watch the 3Commas deals of this account and post a message when a deal is entered, fills a safety order or completes.

<b>Commands</b>
/status - poller state and last cycle
/stats - bot performance
/pause - stop polling
/resume - start polling again`

const (
	PollerAlreadyRunning = "Poller is already running."
	PollerNotRunning     = "Poller is not running."
	PollerResumed        = "▶️ Poller resumed."
	PollerPaused         = "⏸ Poller paused."
	PollerResumeFailed   = "Failed to resume poller: %v"
	StatsUnavailable     = "📊 Bot statistics are unavailable right now: %v"
)

type StatusData struct {
	Running   bool
	State     worker.State
	Interval  time.Duration
	Report    worker.CycleReport
	HasReport bool
	Now       time.Time
}

func Status(d StatusData) string {
	var sb strings.Builder

	sb.WriteString("📊 <b>Status</b>\n\n")

	if d.Running {
		fmt.Fprintf(&sb, "🔍 <b>Poller:</b> 🟢 running (%s)\n", d.State)
	} else {
		sb.WriteString("🔍 <b>Poller:</b> 🔴 paused\n")
	}

	fmt.Fprintf(&sb, "⏲ <b>Interval:</b> %s\n", d.Interval)

	if !d.HasReport {
		sb.WriteString("\n<i>No cycle finished yet.</i>\n")
		return sb.String()
	}

	r := d.Report

	fmt.Fprintf(&sb, "\n🕒 <b>Last cycle:</b> %s ago, took %s\n",
		notifier.FormatDuration(d.Now.Sub(r.StartedAt)),
		r.Duration.Round(time.Millisecond),
	)
	fmt.Fprintf(&sb, "📦 <b>Deals seen:</b> %d\n", r.DealsSeen)
	fmt.Fprintf(&sb, "🔔 <b>Events:</b> %d emitted, %d delivered\n", r.EventsEmitted, r.EventsDelivered)

	if r.FetchErrors > 0 || r.SendErrors > 0 {
		fmt.Fprintf(&sb, "⚠️ <b>Errors:</b> %d fetch, %d send\n", r.FetchErrors, r.SendErrors)
	}

	return sb.String()
}
