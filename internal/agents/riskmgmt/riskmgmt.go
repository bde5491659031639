// Package riskmgmt builds the three-sided risk debate and its judge. The
// risky, safe, and neutral analysts cycle in fixed order over the trader's
// plan; the judge refines the plan into the final decision.
package riskmgmt

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"tradedesk/consts"
	"tradedesk/internal/agents"
	"tradedesk/internal/memory"
	"tradedesk/internal/models"
	"tradedesk/internal/utils"
)

type stance struct {
	node   string
	role   string
	label  string
	prompt string
}

var stances = map[string]stance{
	consts.RiskyAnalyst: {
		node:   consts.RiskyAnalyst,
		role:   consts.RoleRisky,
		label:  "Risky Analyst",
		prompt: "risk_mgmt/risky_analyst",
	},
	consts.SafeAnalyst: {
		node:   consts.SafeAnalyst,
		role:   consts.RoleSafe,
		label:  "Safe Analyst",
		prompt: "risk_mgmt/safe_analyst",
	},
	consts.NeutralAnalyst: {
		node:   consts.NeutralAnalyst,
		role:   consts.RoleNeutral,
		label:  "Neutral Analyst",
		prompt: "risk_mgmt/neutral_analyst",
	},
}

var roleNode = map[string]string{
	consts.RoleRisky:   consts.RiskyAnalyst,
	consts.RoleSafe:    consts.SafeAnalyst,
	consts.RoleNeutral: consts.NeutralAnalyst,
}

func NewRiskyAnalyst() *agents.Node   { return newDebater(stances[consts.RiskyAnalyst]) }
func NewSafeAnalyst() *agents.Node    { return newDebater(stances[consts.SafeAnalyst]) }
func NewNeutralAnalyst() *agents.Node { return newDebater(stances[consts.NeutralAnalyst]) }

func newDebater(s stance) *agents.Node {
	return &agents.Node{
		Name: s.node,
		Load: func(ctx context.Context, state *models.TradingState) ([]*schema.Message, error) {
			tplText, err := utils.LoadPrompt(s.prompt)
			if err != nil {
				return nil, err
			}

			debate := state.RiskDebate
			tpl := prompt.FromMessages(schema.FString, schema.UserMessage(tplText))
			return tpl.Format(ctx, map[string]any{
				"trader_plan":              state.TraderPlan,
				"situation":                state.CurrentSituation(),
				"history":                  debate.History(),
				"current_risky_response":   debate.Current[consts.RoleRisky],
				"current_safe_response":    debate.Current[consts.RoleSafe],
				"current_neutral_response": debate.Current[consts.RoleNeutral],
			})
		},
		Apply: func(state *models.TradingState, msg *schema.Message) (string, error) {
			argument := strings.TrimSpace(models.MessageText(msg))
			if argument == "" {
				argument = "(no argument provided)"
			}
			state.RiskDebate.AddTurn(s.role, s.label+": "+argument)

			if state.RiskDebate.Finished() {
				return consts.RiskJudge, nil
			}
			return roleNode[state.RiskDebate.NextSpeaker()], nil
		},
	}
}

// NewRiskJudge builds the node that closes the risk debate and writes the
// final trade decision.
func NewRiskJudge(mem *memory.SituationMemory) *agents.Node {
	return &agents.Node{
		Name: consts.RiskJudge,
		Load: func(ctx context.Context, state *models.TradingState) ([]*schema.Message, error) {
			tplText, err := utils.LoadPrompt("risk_mgmt/risk_judge")
			if err != nil {
				return nil, err
			}
			tpl := prompt.FromMessages(schema.FString, schema.UserMessage(tplText))
			return tpl.Format(ctx, map[string]any{
				"trader_plan":     state.TraderPlan,
				"history":         state.RiskDebate.History(),
				"past_memory_str": agents.RecallMemories(ctx, mem, state.CurrentSituation(), 2),
			})
		},
		Apply: func(state *models.TradingState, msg *schema.Message) (string, error) {
			decision := models.MessageText(msg)
			state.RiskDebate.Verdict = decision
			state.FinalTradeDecision = decision
			return consts.SignalProcessor, nil
		},
	}
}
