package agents

import (
	"context"
	"fmt"
	"strings"

	"tradedesk/internal/memory"
)

// RecallMemories renders past lessons relevant to the situation for
// inclusion in a prompt. A nil bank or a failed query degrades to an empty
// recall; advice quality is never worth failing a run over.
func RecallMemories(ctx context.Context, mem *memory.SituationMemory, situation string, k int) string {
	if mem == nil || strings.TrimSpace(situation) == "" {
		return "No past memories found."
	}
	matches, err := mem.Query(ctx, situation, k)
	if err != nil || len(matches) == 0 {
		return "No past memories found."
	}

	var sb strings.Builder
	for i, m := range matches {
		fmt.Fprintf(&sb, "%d. %s\n\n", i+1, m.Entry.Advice)
	}
	return strings.TrimSpace(sb.String())
}
