// Package agents defines the desk's reasoning members. Every agent is a
// Node: a prompt loader, a model call, and an apply step that records the
// response on the shared state and names the next node. The orchestrator
// wires Nodes into the run graph; tests drive Load and Apply directly.
package agents

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"tradedesk/internal/config"
	"tradedesk/internal/models"
)

// Node is one agent of the pipeline.
type Node struct {
	// Name is the graph node key the routers address this agent by.
	Name string

	// Tools is the declared capability set; empty means a plain chat turn.
	Tools []tool.BaseTool

	// Load builds the prompt messages from the current state.
	Load func(ctx context.Context, state *models.TradingState) ([]*schema.Message, error)

	// Apply records the model's response on the state and returns the next
	// node key (or compose.END). It runs under the graph's state lock.
	Apply func(state *models.TradingState, msg *schema.Message) (string, error)
}

// Graph builds the load -> agent -> router sub-graph for this node. Model
// failures after retries degrade to a placeholder response instead of
// aborting the run.
func (n *Node) Graph(ctx context.Context, cm model.ToolCallingChatModel, cfg *config.Config, log *zap.Logger) (*compose.Graph[string, string], error) {
	gen, err := NewGenerator(ctx, cm, n.Tools, cfg)
	if err != nil {
		return nil, fmt.Errorf("create generator for %s: %w", n.Name, err)
	}

	g := compose.NewGraph[string, string]()

	load := func(ctx context.Context, _ string, _ ...any) (output []*schema.Message, err error) {
		perr := compose.ProcessState[*models.TradingState](ctx, func(ctx context.Context, state *models.TradingState) error {
			output, err = n.Load(ctx, state)
			return err
		})
		if perr != nil {
			return nil, perr
		}
		return output, nil
	}

	agentFn := func(ctx context.Context, input []*schema.Message, _ ...any) (*schema.Message, error) {
		msg, err := GenerateWithRetry(ctx, gen, input, cfg.ModelRetries, log)
		if err != nil {
			log.Error("model call failed, degrading", zap.String("agent", n.Name), zap.Error(err))
			msg = DegradedMessage(n.Name, err)
			if perr := compose.ProcessState[*models.TradingState](ctx, func(_ context.Context, state *models.TradingState) error {
				state.Degraded = true
				return nil
			}); perr != nil {
				return nil, perr
			}
		}
		return msg, nil
	}

	router := func(ctx context.Context, input *schema.Message, _ ...any) (output string, err error) {
		perr := compose.ProcessState[*models.TradingState](ctx, func(_ context.Context, state *models.TradingState) error {
			next, aerr := n.Apply(state, input)
			if aerr != nil {
				return aerr
			}
			if input != nil {
				state.Messages = append(state.Messages, input)
			}
			state.Goto = next
			output = next
			return nil
		})
		return output, perr
	}

	_ = g.AddLambdaNode("load", compose.InvokableLambdaWithOption(load))
	_ = g.AddLambdaNode("agent", compose.InvokableLambdaWithOption(agentFn))
	_ = g.AddLambdaNode("router", compose.InvokableLambdaWithOption(router))

	_ = g.AddEdge(compose.START, "load")
	_ = g.AddEdge("load", "agent")
	_ = g.AddEdge("agent", "router")
	_ = g.AddEdge("router", compose.END)
	return g, nil
}

// DegradedMessage is the placeholder response recorded when an agent's
// model call fails permanently.
func DegradedMessage(agentName string, err error) *schema.Message {
	return schema.AssistantMessage(fmt.Sprintf("analysis unavailable (%s): %v", agentName, err), nil)
}
