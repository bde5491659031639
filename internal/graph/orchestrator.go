package graph

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	"tradedesk/consts"
	"tradedesk/internal/models"
	"tradedesk/internal/processing"
)

// deepThinkNodes names the agents that get the heavyweight reasoning
// model. Everything else runs on the quick-think tier.
var deepThinkNodes = map[string]bool{
	consts.ResearchManager: true,
	consts.RiskJudge:       true,
}

// compile builds the run graph for one evaluation. The graph owns no
// state of its own: every node reads and writes the run's TradingState
// through the local-state mechanism, and every hop goes through the
// hand-off branch.
func (tg *TradingGraph) compile(ctx context.Context, state *models.TradingState, start string) (compose.Runnable[string, string], error) {
	g := compose.NewGraph[string, string](
		compose.WithGenLocalState(func(ctx context.Context) *models.TradingState {
			return state
		}),
	)

	outMap := make(map[string]bool, len(tg.nodeOrder)+2)
	for _, name := range tg.nodeOrder {
		outMap[name] = true
	}
	outMap[consts.SignalProcessor] = true
	outMap[compose.END] = true

	for _, name := range tg.nodeOrder {
		node := tg.nodes[name]
		cm := tg.quick
		if deepThinkNodes[name] {
			cm = tg.deep
		}
		sub, err := node.Graph(ctx, cm, tg.cfg, tg.log)
		if err != nil {
			return nil, fmt.Errorf("build node %s: %w", name, err)
		}
		if err := g.AddGraphNode(name, sub, compose.WithNodeName(name)); err != nil {
			return nil, fmt.Errorf("add node %s: %w", name, err)
		}
	}

	// Terminal step: extract the signal from the final decision. Runs
	// exactly once, then the graph ends.
	signalFn := func(ctx context.Context, _ string, _ ...any) (string, error) {
		perr := compose.ProcessState[*models.TradingState](ctx, func(_ context.Context, state *models.TradingState) error {
			sig, ambiguous := processing.ExtractSignal(state.FinalTradeDecision)
			state.Signal = sig
			state.SignalAmbiguous = ambiguous
			state.Goto = compose.END
			return nil
		})
		return compose.END, perr
	}
	if err := g.AddLambdaNode(consts.SignalProcessor, compose.InvokableLambdaWithOption(signalFn)); err != nil {
		return nil, fmt.Errorf("add signal processor: %w", err)
	}
	if err := g.AddEdge(consts.SignalProcessor, compose.END); err != nil {
		return nil, err
	}

	// Branches can only target nodes that already exist, so they go in
	// after the full node set.
	for _, name := range tg.nodeOrder {
		if err := g.AddBranch(name, compose.NewGraphBranch(agentHandOff, outMap)); err != nil {
			return nil, fmt.Errorf("add branch %s: %w", name, err)
		}
	}

	if err := g.AddEdge(compose.START, start); err != nil {
		return nil, fmt.Errorf("add start edge to %s: %w", start, err)
	}

	return g.Compile(ctx,
		compose.WithGraphName("tradedesk"),
		compose.WithNodeTriggerMode(compose.AnyPredecessor),
	)
}
