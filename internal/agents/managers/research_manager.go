// Package managers builds the research manager, the judge of the
// investment debate.
package managers

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

// NewResearchManager builds the node that weighs the bull and bear cases
// and issues the investment plan the trader works from.
func NewResearchManager(mem *memory.SituationMemory) *agents.Node {
	return &agents.Node{
		Name: consts.ResearchManager,
		Load: func(ctx context.Context, state *models.TradingState) ([]*schema.Message, error) {
			tplText, err := utils.LoadPrompt("managers/research_manager")
			if err != nil {
				return nil, err
			}
			tpl := prompt.FromMessages(schema.FString, schema.UserMessage(tplText))
			return tpl.Format(ctx, map[string]any{
				"history":         state.InvestDebate.History(),
				"past_memory_str": agents.RecallMemories(ctx, mem, state.CurrentSituation(), 2),
			})
		},
		Apply: func(state *models.TradingState, msg *schema.Message) (string, error) {
			state.InvestDebate.Verdict = models.MessageText(msg)
			return consts.Trader, nil
		},
	}
}
