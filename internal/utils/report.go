package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tradedesk/internal/models"
)

// WriteReport writes a run's full transcript as markdown under
// dir/<symbol>/<trade_date>/report.md and returns the file path.
func WriteReport(dir string, state *models.TradingState) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return "", fmt.Errorf("results dir is required")
	}

	outDir := filepath.Join(dir, state.CompanyOfInterest, state.TradeDate)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	path := filepath.Join(outDir, "report.md")
	if err := os.WriteFile(path, []byte(renderReport(state)), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

func renderReport(state *models.TradingState) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s (%s)\n\n", state.CompanyOfInterest, state.TradeDate)
	fmt.Fprintf(&b, "- Status: %s\n", state.Status)
	if state.Signal != models.SignalNone {
		fmt.Fprintf(&b, "- Signal: %s", state.Signal)
		if state.SignalAmbiguous {
			b.WriteString(" (ambiguous, defaulted)")
		}
		b.WriteString("\n")
	}
	if state.FatalErr != "" {
		fmt.Fprintf(&b, "- Error: %s\n", state.FatalErr)
	}
	b.WriteString("\n")

	for _, category := range state.AnalystOrder {
		if report := state.Reports[category]; report != "" {
			fmt.Fprintf(&b, "## %s report\n\n%s\n\n", upperFirst(category), report)
		}
	}

	writeSection := func(title, body string) {
		if body != "" {
			fmt.Fprintf(&b, "## %s\n\n%s\n\n", title, body)
		}
	}
	writeSection("Investment debate", state.InvestDebate.History())
	writeSection("Research manager verdict", state.InvestDebate.Verdict)
	writeSection("Trader plan", state.TraderPlan)
	writeSection("Risk debate", state.RiskDebate.History())
	writeSection("Final trade decision", state.FinalTradeDecision)

	return b.String()
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
