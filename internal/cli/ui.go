package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"tradedesk/internal/models"
	"tradedesk/internal/storage"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3B82F6"))

	panelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(1, 2).
			Width(80)

	buyStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#10B981"))
	sellStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#EF4444"))
	holdStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#F59E0B"))
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	errorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#EF4444"))
)

func signalStyle(sig models.Signal) lipgloss.Style {
	switch sig {
	case models.SignalBuy:
		return buyStyle
	case models.SignalSell:
		return sellStyle
	default:
		return holdStyle
	}
}

// RenderResult renders a finished run for the terminal.
func RenderResult(state *models.TradingState) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("%s (%s)", state.CompanyOfInterest, state.TradeDate)))
	b.WriteString("\n\n")

	var summary strings.Builder
	fmt.Fprintf(&summary, "Status: %s\n", renderStatus(state))
	if state.Signal != models.SignalNone {
		sig := signalStyle(state.Signal).Render(string(state.Signal))
		if state.SignalAmbiguous {
			sig += dimStyle.Render(" (ambiguous, defaulted)")
		}
		fmt.Fprintf(&summary, "Signal: %s\n", sig)
	}
	if state.FatalErr != "" {
		fmt.Fprintf(&summary, "Error: %s\n", errorStyle.Render(state.FatalErr))
	}
	b.WriteString(panelStyle.Render(strings.TrimSpace(summary.String())))
	b.WriteString("\n\n")

	for _, category := range state.AnalystOrder {
		if report := state.Reports[category]; report != "" {
			b.WriteString(sectionStyle.Render(fmt.Sprintf("%s report", capitalize(category))))
			b.WriteString("\n")
			b.WriteString(report)
			b.WriteString("\n\n")
		}
	}

	if h := state.InvestDebate.History(); h != "" {
		b.WriteString(sectionStyle.Render("Investment debate"))
		b.WriteString("\n")
		b.WriteString(h)
		b.WriteString("\n\n")
	}
	if v := state.InvestDebate.Verdict; v != "" {
		b.WriteString(sectionStyle.Render("Research manager verdict"))
		b.WriteString("\n")
		b.WriteString(v)
		b.WriteString("\n\n")
	}
	if state.TraderPlan != "" {
		b.WriteString(sectionStyle.Render("Trader plan"))
		b.WriteString("\n")
		b.WriteString(state.TraderPlan)
		b.WriteString("\n\n")
	}
	if h := state.RiskDebate.History(); h != "" {
		b.WriteString(sectionStyle.Render("Risk debate"))
		b.WriteString("\n")
		b.WriteString(h)
		b.WriteString("\n\n")
	}
	if state.FinalTradeDecision != "" {
		b.WriteString(sectionStyle.Render("Final trade decision"))
		b.WriteString("\n")
		b.WriteString(state.FinalTradeDecision)
		b.WriteString("\n")
	}

	return b.String()
}

func renderStatus(state *models.TradingState) string {
	switch state.Status {
	case models.RunCompleted:
		return buyStyle.Render(string(state.Status))
	case models.RunDegraded:
		return holdStyle.Render(string(state.Status))
	case models.RunAborted:
		return errorStyle.Render(string(state.Status))
	default:
		return dimStyle.Render(string(state.Status))
	}
}

// RenderRuns renders the persisted run list.
func RenderRuns(records []storage.RunRecord) string {
	if len(records) == 0 {
		return dimStyle.Render("no persisted runs")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-10s %-12s %-28s %-6s %s\n", "SYMBOL", "DATE", "STATUS", "SIGNAL", "CREATED")
	for _, r := range records {
		fmt.Fprintf(&b, "%-10s %-12s %-28s %-6s %s\n", r.Symbol, r.TradeDate, r.Status, r.Signal, r.CreatedAt)
	}
	return b.String()
}

// RenderSignalLine is the one-line batch output for a run.
func RenderSignalLine(d *models.TradingDecision) string {
	sig := string(d.Action)
	if sig == "" {
		sig = "-"
	}
	return fmt.Sprintf("%-10s %-12s %-28s %s",
		d.Symbol, d.TradeDate, d.Status, signalStyle(d.Action).Render(sig))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
