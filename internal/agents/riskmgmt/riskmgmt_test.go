package riskmgmt

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

func newRiskState(t *testing.T, rounds int) *models.TradingState {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.MaxRiskDiscussRounds = rounds
	state := models.NewTradingState("NVDA", time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), cfg)
	require.NoError(t, state.SetReport(consts.ReportMarket, "parabolic move, stretched RSI"))
	state.TraderPlan = "Scale in over three days. FINAL TRANSACTION PROPOSAL: **BUY**"
	return state
}

func TestRiskDebateCyclesThreeStances(t *testing.T) {
	state := newRiskState(t, 1)
	risky := NewRiskyAnalyst()
	safe := NewSafeAnalyst()
	neutral := NewNeutralAnalyst()

	next, err := risky.Apply(state, schema.AssistantMessage("lever up", nil))
	require.NoError(t, err)
	assert.Equal(t, consts.SafeAnalyst, next)

	next, err = safe.Apply(state, schema.AssistantMessage("trim the size", nil))
	require.NoError(t, err)
	assert.Equal(t, consts.NeutralAnalyst, next)

	next, err = neutral.Apply(state, schema.AssistantMessage("split the difference", nil))
	require.NoError(t, err)
	assert.Equal(t, consts.RiskJudge, next, "one full cycle ends the single-round debate")
	assert.True(t, state.RiskDebate.Finished())
}

func TestRiskDebateSecondRoundReturnsToRisky(t *testing.T) {
	state := newRiskState(t, 2)
	neutral := NewNeutralAnalyst()

	state.RiskDebate.AddTurn(consts.RoleRisky, "Risky Analyst: go big")
	state.RiskDebate.AddTurn(consts.RoleSafe, "Safe Analyst: go small")

	next, err := neutral.Apply(state, schema.AssistantMessage("go medium", nil))
	require.NoError(t, err)
	assert.Equal(t, consts.RiskyAnalyst, next)
}

func TestRiskJudgeWritesFinalDecision(t *testing.T) {
	state := newRiskState(t, 1)
	judge := NewRiskJudge(nil)

	decision := "Reduce to a half position. FINAL TRANSACTION PROPOSAL: **HOLD**"
	next, err := judge.Apply(state, schema.AssistantMessage(decision, nil))
	require.NoError(t, err)

	assert.Equal(t, consts.SignalProcessor, next)
	assert.Equal(t, decision, state.FinalTradeDecision)
	assert.Equal(t, decision, state.RiskDebate.Verdict)
}

func TestDebaterLoadFillsPrompt(t *testing.T) {
	state := newRiskState(t, 1)
	state.RiskDebate.AddTurn(consts.RoleRisky, "Risky Analyst: double down")

	safe := NewSafeAnalyst()
	msgs, err := safe.Load(context.Background(), state)
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	content := msgs[0].Content
	assert.Contains(t, content, "Scale in over three days")
	assert.Contains(t, content, "parabolic move")
	assert.Contains(t, content, "Risky Analyst: double down")
}

func TestJudgeLoadIncludesMemories(t *testing.T) {
	state := newRiskState(t, 1)
	judge := NewRiskJudge(nil)

	msgs, err := judge.Load(context.Background(), state)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Content, "No past memories found.")
}
