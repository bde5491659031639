package storage

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradedesk/consts"
	"tradedesk/internal/config"
	"tradedesk/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleState(symbol string, date time.Time) *models.TradingState {
	state := models.NewTradingState(symbol, date, config.DefaultConfig())
	_ = state.SetReport(consts.ReportMarket, "market looks fine")
	state.Signal = models.SignalBuy
	state.Status = models.RunCompleted
	state.FinalTradeDecision = "FINAL TRANSACTION PROPOSAL: **BUY**"
	return state
}

func TestSaveAndLoadRun(t *testing.T) {
	s := openTestStore(t)
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveRun(sampleState("AAPL", date)))

	got, err := s.LoadRun("AAPL", "2026-03-02")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", got.CompanyOfInterest)
	assert.Equal(t, models.SignalBuy, got.Signal)
	assert.Equal(t, models.RunCompleted, got.Status)
	assert.Equal(t, "market looks fine", got.Reports[consts.ReportMarket])
}

func TestSaveRunReplacesSameKey(t *testing.T) {
	s := openTestStore(t)
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveRun(sampleState("AAPL", date)))

	second := sampleState("AAPL", date)
	second.Signal = models.SignalSell
	require.NoError(t, s.SaveRun(second))

	got, err := s.LoadRun("AAPL", "2026-03-02")
	require.NoError(t, err)
	assert.Equal(t, models.SignalSell, got.Signal)

	records, err := s.ListRuns(10)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestLoadRunMissing(t *testing.T) {
	s := openTestStore(t)

	_, err := s.LoadRun("MSFT", "2026-01-01")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestListRuns(t *testing.T) {
	s := openTestStore(t)
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	for _, sym := range []string{"AAPL", "TSLA", "NVDA"} {
		require.NoError(t, s.SaveRun(sampleState(sym, date)))
	}

	records, err := s.ListRuns(2)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestMemoryRoundTrip(t *testing.T) {
	s := openTestStore(t)

	outcome := -0.03
	id1, err := s.AppendMemory(MemoryRow{
		Bank:      "bull_memory",
		Situation: "breakout on volume",
		Advice:    "wait for the retest",
		Embedding: []float64{0.1, 0.2},
	})
	require.NoError(t, err)
	id2, err := s.AppendMemory(MemoryRow{
		Bank:      "bull_memory",
		Situation: "gap up on earnings",
		Advice:    "fade the open",
		Outcome:   &outcome,
		Embedding: []float64{0.3, 0.4},
	})
	require.NoError(t, err)
	assert.Greater(t, id2, id1)

	// Other banks stay isolated.
	_, err = s.AppendMemory(MemoryRow{Bank: "bear_memory", Situation: "x", Advice: "y", Embedding: []float64{1}})
	require.NoError(t, err)

	rows, err := s.LoadMemories("bull_memory")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "breakout on volume", rows[0].Situation)
	assert.Nil(t, rows[0].Outcome)
	require.NotNil(t, rows[1].Outcome)
	assert.InDelta(t, -0.03, *rows[1].Outcome, 1e-9)
	assert.Equal(t, []float64{0.3, 0.4}, rows[1].Embedding)
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("  ")
	assert.Error(t, err)
}
