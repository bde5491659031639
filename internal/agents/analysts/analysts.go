// Package analysts builds the four data-gathering agents. Each one runs a
// tool loop over its declared feed set and writes exactly one report slot.
package analysts

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"tradedesk/consts"
	"tradedesk/internal/agents"
	"tradedesk/internal/models"
	"tradedesk/internal/tools"
	"tradedesk/internal/utils"
)

const systemTpl = `You are a helpful AI assistant, collaborating with other assistants on a trading desk.
Use the provided tools to progress towards answering the question.
If you are unable to fully answer, that's OK; another assistant with different tools
will help where you left off. Execute what you can to make progress.

{system_message}

For your reference, the current date is {current_date} and the trade date under
evaluation is {trade_date}. The company we want to look at is {ticker}.`

var promptPath = map[string]string{
	consts.MarketAnalyst:       "analysts/market_analyst",
	consts.SocialMediaAnalyst:  "analysts/social_media_analyst",
	consts.NewsAnalyst:         "analysts/news_analyst",
	consts.FundamentalsAnalyst: "analysts/fundamentals_analyst",
}

// New builds the analyst agent for a node key. The report slot it writes
// and the tool set it carries both follow from the key.
func New(analystNode string, tk *tools.Toolkit) (*agents.Node, error) {
	category, ok := consts.ReportForAnalyst[analystNode]
	if !ok {
		return nil, fmt.Errorf("unknown analyst node %q", analystNode)
	}
	path := promptPath[analystNode]

	tls, err := tk.ForAnalyst(analystNode)
	if err != nil {
		return nil, err
	}

	return &agents.Node{
		Name:  analystNode,
		Tools: tls,
		Load: func(ctx context.Context, state *models.TradingState) ([]*schema.Message, error) {
			sysPrompt, err := utils.LoadPrompt(path)
			if err != nil {
				return nil, err
			}
			tpl := prompt.FromMessages(schema.FString,
				schema.SystemMessage(systemTpl),
				schema.MessagesPlaceholder("user_input", true),
			)
			return tpl.Format(ctx, map[string]any{
				"system_message": sysPrompt,
				"current_date":   time.Now().Format("2006-01-02"),
				"trade_date":     state.TradeDate,
				"ticker":         state.CompanyOfInterest,
				"user_input": []*schema.Message{
					schema.UserMessage(fmt.Sprintf("Analyze %s for trading on %s.", state.CompanyOfInterest, state.TradeDate)),
				},
			})
		},
		Apply: func(state *models.TradingState, msg *schema.Message) (string, error) {
			if err := state.SetReport(category, models.MessageText(msg)); err != nil {
				return "", err
			}
			if next := state.NextUnwrittenAnalyst(); next != "" {
				return consts.AnalystForReport[next], nil
			}
			return consts.BullResearcher, nil
		},
	}, nil
}

// All builds the analysts for the configured report categories, in order.
func All(categories []string, tk *tools.Toolkit) ([]*agents.Node, error) {
	nodes := make([]*agents.Node, 0, len(categories))
	for _, c := range categories {
		node, ok := consts.AnalystForReport[c]
		if !ok {
			return nil, fmt.Errorf("unknown analyst category %q", c)
		}
		a, err := New(node, tk)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, a)
	}
	return nodes, nil
}
