package researchers

import (
	"context"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradedesk/consts"
	"tradedesk/internal/config"
	"tradedesk/internal/models"
)

func newDebateState(t *testing.T, rounds int) *models.TradingState {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.MaxDebateRounds = rounds
	state := models.NewTradingState("AAPL", time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), cfg)
	require.NoError(t, state.SetReport(consts.ReportMarket, "uptrend on all timeframes"))
	require.NoError(t, state.SetReport(consts.ReportSocial, "retail chatter is bullish"))
	require.NoError(t, state.SetReport(consts.ReportNews, "earnings beat expectations"))
	require.NoError(t, state.SetReport(consts.ReportFundamentals, "insider buying picked up"))
	return state
}

func TestDebateAlternatesUntilManager(t *testing.T) {
	state := newDebateState(t, 2)
	bull := NewBullResearcher(nil)
	bear := NewBearResearcher(nil)

	next, err := bull.Apply(state, schema.AssistantMessage("growth is accelerating", nil))
	require.NoError(t, err)
	assert.Equal(t, consts.BearResearcher, next)

	next, err = bear.Apply(state, schema.AssistantMessage("valuation is stretched", nil))
	require.NoError(t, err)
	assert.Equal(t, consts.BullResearcher, next, "one round left")

	next, err = bull.Apply(state, schema.AssistantMessage("buybacks offset that", nil))
	require.NoError(t, err)
	assert.Equal(t, consts.BearResearcher, next)

	next, err = bear.Apply(state, schema.AssistantMessage("macro risk remains", nil))
	require.NoError(t, err)
	assert.Equal(t, consts.ResearchManager, next, "debate budget exhausted")
	assert.True(t, state.InvestDebate.Finished())
}

func TestApplyLabelsTurns(t *testing.T) {
	state := newDebateState(t, 1)
	bull := NewBullResearcher(nil)

	_, err := bull.Apply(state, schema.AssistantMessage("strong pipeline", nil))
	require.NoError(t, err)

	assert.Contains(t, state.InvestDebate.History(), "Bull Analyst: strong pipeline")
	assert.Equal(t, "Bull Analyst: strong pipeline", state.InvestDebate.Current[consts.RoleBull])
}

func TestApplyEmptyResponseFallback(t *testing.T) {
	state := newDebateState(t, 1)
	bear := NewBearResearcher(nil)

	// Bull speaks first so it is the bear's turn.
	state.InvestDebate.AddTurn(consts.RoleBull, "Bull Analyst: up")

	_, err := bear.Apply(state, schema.AssistantMessage("   ", nil))
	require.NoError(t, err)
	assert.Contains(t, state.InvestDebate.Current[consts.RoleBear], "(no argument provided)")
}

func TestLoadFillsPromptFromState(t *testing.T) {
	state := newDebateState(t, 1)
	state.InvestDebate.AddTurn(consts.RoleBull, "Bull Analyst: up and to the right")

	bear := NewBearResearcher(nil)
	msgs, err := bear.Load(context.Background(), state)
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	content := msgs[0].Content
	assert.Contains(t, content, "uptrend on all timeframes")
	assert.Contains(t, content, "earnings beat expectations")
	assert.Contains(t, content, "Bull Analyst: up and to the right")
	assert.Contains(t, content, "No past memories found.")
}
