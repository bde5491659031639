package utils

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradedesk/consts"
	"tradedesk/internal/config"
	"tradedesk/internal/models"
)

func TestWriteReport(t *testing.T) {
	state := models.NewTradingState("AAPL", time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), config.DefaultConfig())
	require.NoError(t, state.SetReport(consts.ReportMarket, "trend is up"))
	state.InvestDebate.AddTurn(consts.RoleBull, "Bull Analyst: buy it")
	state.TraderPlan = "buy half"
	state.FinalTradeDecision = "FINAL TRANSACTION PROPOSAL: **BUY**"
	state.Signal = models.SignalBuy
	state.Status = models.RunCompleted

	dir := t.TempDir()
	path, err := WriteReport(dir, state)
	require.NoError(t, err)
	assert.Contains(t, path, "AAPL")
	assert.Contains(t, path, "2026-03-02")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "# AAPL (2026-03-02)")
	assert.Contains(t, content, "Signal: BUY")
	assert.Contains(t, content, "## Market report")
	assert.Contains(t, content, "trend is up")
	assert.Contains(t, content, "## Trader plan")
	assert.NotContains(t, content, "ambiguous")
}

func TestWriteReportRequiresDir(t *testing.T) {
	state := models.NewTradingState("AAPL", time.Now(), config.DefaultConfig())
	_, err := WriteReport("  ", state)
	assert.Error(t, err)
}
