// Package researchers builds the bull and bear sides of the investment
// debate. Both sides share one turn protocol; only the stance and the
// memory bank differ.
package researchers

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

type side struct {
	node     string
	role     string
	opposite string
	label    string
	prompt   string
}

var sides = map[string]side{
	consts.BullResearcher: {
		node:     consts.BullResearcher,
		role:     consts.RoleBull,
		opposite: consts.RoleBear,
		label:    "Bull Analyst",
		prompt:   "researchers/bull_researcher",
	},
	consts.BearResearcher: {
		node:     consts.BearResearcher,
		role:     consts.RoleBear,
		opposite: consts.RoleBull,
		label:    "Bear Analyst",
		prompt:   "researchers/bear_researcher",
	},
}

// roleNode maps a debate role back to its graph node.
var roleNode = map[string]string{
	consts.RoleBull: consts.BullResearcher,
	consts.RoleBear: consts.BearResearcher,
}

func NewBullResearcher(mem *memory.SituationMemory) *agents.Node {
	return newResearcher(sides[consts.BullResearcher], mem)
}

func NewBearResearcher(mem *memory.SituationMemory) *agents.Node {
	return newResearcher(sides[consts.BearResearcher], mem)
}

func newResearcher(s side, mem *memory.SituationMemory) *agents.Node {
	return &agents.Node{
		Name: s.node,
		Load: func(ctx context.Context, state *models.TradingState) ([]*schema.Message, error) {
			tplText, err := utils.LoadPrompt(s.prompt)
			if err != nil {
				return nil, err
			}

			debate := state.InvestDebate
			tpl := prompt.FromMessages(schema.FString, schema.UserMessage(tplText))
			return tpl.Format(ctx, map[string]any{
				"market_research_report": state.Reports[consts.ReportMarket],
				"social_media_report":    state.Reports[consts.ReportSocial],
				"news_report":            state.Reports[consts.ReportNews],
				"fundamentals_report":    state.Reports[consts.ReportFundamentals],
				"history":                debate.History(),
				"current_response":       debate.Current[s.opposite],
				"past_memory_str":        agents.RecallMemories(ctx, mem, state.CurrentSituation(), 2),
			})
		},
		Apply: func(state *models.TradingState, msg *schema.Message) (string, error) {
			argument := strings.TrimSpace(models.MessageText(msg))
			if argument == "" {
				argument = "(no argument provided)"
			}
			state.InvestDebate.AddTurn(s.role, s.label+": "+argument)

			if state.InvestDebate.Finished() {
				return consts.ResearchManager, nil
			}
			return roleNode[state.InvestDebate.NextSpeaker()], nil
		},
	}
}
