// Package processing turns free-form decision text into the pipeline's
// terminal BUY/SELL/HOLD signal. Extraction is pure and deterministic:
// the same text always yields the same signal.
package processing

import (
	"regexp"
	"strings"

	"tradedesk/internal/models"
)

var (
	// markerRe matches the explicit proposal line agents are instructed to
	// end with, tolerating markdown emphasis around the verdict.
	markerRe = regexp.MustCompile(`(?i)FINAL\s+TRANSACTION\s+PROPOSAL\s*:?\s*\**\s*(BUY|SELL|HOLD)`)

	// tokenRe counts standalone verdict words; substrings like "buyer" or
	// "household" do not match.
	tokenRe = regexp.MustCompile(`(?i)\b(BUY|SELL|HOLD)\b`)
)

// ExtractSignal parses a decision text. The last explicit proposal marker
// wins outright; without one, the most frequent standalone verdict word
// decides. Ties and verdict-free text fall back to HOLD with the ambiguous
// flag set, so a fallback HOLD is distinguishable from a reasoned one.
func ExtractSignal(decision string) (models.Signal, bool) {
	if markers := markerRe.FindAllStringSubmatch(decision, -1); len(markers) > 0 {
		return toSignal(markers[len(markers)-1][1]), false
	}

	counts := map[models.Signal]int{}
	for _, m := range tokenRe.FindAllStringSubmatch(decision, -1) {
		counts[toSignal(m[1])]++
	}

	var best models.Signal
	bestCount := 0
	tied := false
	for _, s := range []models.Signal{models.SignalBuy, models.SignalSell, models.SignalHold} {
		switch {
		case counts[s] > bestCount:
			best, bestCount, tied = s, counts[s], false
		case counts[s] == bestCount && counts[s] > 0:
			tied = true
		}
	}

	if bestCount == 0 || tied {
		return models.SignalHold, true
	}
	return best, false
}

func toSignal(word string) models.Signal {
	switch strings.ToUpper(word) {
	case "BUY":
		return models.SignalBuy
	case "SELL":
		return models.SignalSell
	default:
		return models.SignalHold
	}
}
