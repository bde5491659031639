package graph

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	"tradedesk/internal/models"
)

// agentHandOff routes to the node the previous router named in state.Goto.
// Every hop counts against the recursion limit; a run that exceeds it is
// aborted with no signal rather than left spinning.
func agentHandOff(ctx context.Context, _ string) (next string, err error) {
	perr := compose.ProcessState[*models.TradingState](ctx, func(_ context.Context, state *models.TradingState) error {
		if state.Goto == "" || state.Goto == compose.END {
			next = compose.END
			return nil
		}

		state.Transitions++
		if state.Transitions > state.Config.MaxRecurLimit {
			state.Status = models.RunAborted
			state.FatalErr = fmt.Sprintf("transition limit %d exceeded at node %s", state.Config.MaxRecurLimit, state.Goto)
			state.Signal = models.SignalNone
			next = compose.END
			return nil
		}

		next = state.Goto
		return nil
	})
	return next, perr
}
