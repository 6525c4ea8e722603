package notifier

import (
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"SignalSentinel/internal/calculator"
	"SignalSentinel/internal/model"
)

func formatPrice(v, pip float64) string {
	places := calculator.PipPlaces(pip)
	return strconv.FormatFloat(calculator.Round(v, places), 'f', int(places), 64)
}

// FormatSignal renders a signal as a Telegram message:
//
//	SYMBOL
//	BUY NOW
//	Entry 1.10000
//	Stop Loss 1.09450
//	Take Profit 1.11100
//	Confidence 72%
//
//	analysis
//
// Prices use the precision implied by pip.
func FormatSignal(sig *model.Signal, pip float64) string {
	var b strings.Builder
	b.WriteString(html.EscapeString(sig.Symbol) + "\n")
	b.WriteString(string(sig.Direction) + " NOW\n")
	b.WriteString("Entry " + formatPrice(sig.EntryPrice, pip) + "\n")
	b.WriteString("Stop Loss " + formatPrice(sig.StopLoss, pip) + "\n")
	b.WriteString("Take Profit " + formatPrice(sig.TakeProfit, pip) + "\n")
	b.WriteString(fmt.Sprintf("Confidence %d%%\n\n", sig.Confidence))
	b.WriteString(html.EscapeString(sig.AnalysisText))
	if sig.Degraded {
		b.WriteString("\n\n⚠️ Degraded data: synthetic bars in window")
	}
	return b.String()
}

// FormatStatus formats the bot state for the /status command.
func FormatStatus(state model.BotState) string {
	var b strings.Builder
	status := "stopped"
	if state.Running {
		status = "running"
	}
	b.WriteString("📡 <b>SignalSentinel</b>\n\n")
	b.WriteString(fmt.Sprintf("Status: %s\n", status))
	b.WriteString(fmt.Sprintf("Market: %s\n", state.Settings.Market))
	b.WriteString(fmt.Sprintf("Symbols: %s\n", html.EscapeString(strings.Join(state.Settings.Symbols, ", "))))
	b.WriteString(fmt.Sprintf("Timeframes: %s\n", strings.Join(state.Settings.Timeframes, ", ")))
	b.WriteString(fmt.Sprintf("Risk:Reward: 1:%s\n", strconv.FormatFloat(state.Settings.RiskRewardRatio, 'f', -1, 64)))
	b.WriteString(fmt.Sprintf("Ticks: %d | Signals: %d\n", state.TicksRun, state.SignalsTotal))
	if !state.LastTickAt.IsZero() {
		b.WriteString(fmt.Sprintf("Last tick: %s\n", state.LastTickAt.Format(time.DateTime)))
	}
	return b.String()
}

// FormatSignalList formats recent signals one per line, newest first.
func FormatSignalList(sigs []model.Signal) string {
	if len(sigs) == 0 {
		return "No signals yet."
	}
	var b strings.Builder
	b.WriteString("🧾 <b>Recent signals</b>\n\n")
	for i := range sigs {
		s := &sigs[i]
		pip := model.MarketFor(s.Market).PipFor(s.Symbol)
		b.WriteString(fmt.Sprintf("%s %s %s @ %s (%d%%, %s) %s\n",
			s.Timestamp.Format("01-02 15:04"), html.EscapeString(s.Symbol), s.Direction,
			formatPrice(s.EntryPrice, pip), s.Confidence, s.RiskRewardLabel(), s.Timeframe))
	}
	return b.String()
}
