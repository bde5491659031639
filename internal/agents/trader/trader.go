// Package trader builds the agent that turns the research verdict into a
// concrete trading plan.
package trader

import (
	"context"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"tradedesk/consts"
	"tradedesk/internal/agents"
	"tradedesk/internal/memory"
	"tradedesk/internal/models"
	"tradedesk/internal/utils"
)

// NewTrader builds the trader node. Its plan is a draft: the risk debate
// still reviews it before the final decision is extracted.
func NewTrader(mem *memory.SituationMemory) *agents.Node {
	return &agents.Node{
		Name: consts.Trader,
		Load: func(ctx context.Context, state *models.TradingState) ([]*schema.Message, error) {
			tplText, err := utils.LoadPrompt("trader/trader")
			if err != nil {
				return nil, err
			}
			tpl := prompt.FromMessages(schema.FString, schema.UserMessage(tplText))
			return tpl.Format(ctx, map[string]any{
				"company_of_interest": state.CompanyOfInterest,
				"investment_plan":     state.InvestDebate.Verdict,
				"situation":           state.CurrentSituation(),
				"past_memory_str":     agents.RecallMemories(ctx, mem, state.CurrentSituation(), 2),
			})
		},
		Apply: func(state *models.TradingState, msg *schema.Message) (string, error) {
			state.TraderPlan = models.MessageText(msg)
			return consts.RiskyAnalyst, nil
		},
	}
}
