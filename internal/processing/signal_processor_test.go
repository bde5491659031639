package processing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"tradedesk/internal/models"
)

func TestExtractSignalMarkerWins(t *testing.T) {
	text := "The debate leaned sell, sell, sell. FINAL TRANSACTION PROPOSAL: **BUY**"
	sig, ambiguous := ExtractSignal(text)
	assert.Equal(t, models.SignalBuy, sig)
	assert.False(t, ambiguous)
}

func TestExtractSignalLastMarkerWins(t *testing.T) {
	text := "FINAL TRANSACTION PROPOSAL: **SELL**\nOn reflection:\nFINAL TRANSACTION PROPOSAL: **HOLD**"
	sig, ambiguous := ExtractSignal(text)
	assert.Equal(t, models.SignalHold, sig)
	assert.False(t, ambiguous)
}

func TestExtractSignalMarkerCaseAndSpacing(t *testing.T) {
	sig, ambiguous := ExtractSignal("final transaction proposal: sell")
	assert.Equal(t, models.SignalSell, sig)
	assert.False(t, ambiguous)
}

func TestExtractSignalCountsTokens(t *testing.T) {
	sig, ambiguous := ExtractSignal("I would buy. Definitely buy, not sell.")
	assert.Equal(t, models.SignalBuy, sig)
	assert.False(t, ambiguous)
}

func TestExtractSignalWordBoundaries(t *testing.T) {
	// "buyer" and "household" must not count as verdicts.
	sig, ambiguous := ExtractSignal("Every buyer in the household agrees to sell.")
	assert.Equal(t, models.SignalSell, sig)
	assert.False(t, ambiguous)
}

func TestExtractSignalTieDefaultsToHold(t *testing.T) {
	sig, ambiguous := ExtractSignal("buy or sell, hard to say")
	assert.Equal(t, models.SignalHold, sig)
	assert.True(t, ambiguous)
}

func TestExtractSignalEmptyDefaultsToHold(t *testing.T) {
	for _, text := range []string{"", "no verdict words at all"} {
		sig, ambiguous := ExtractSignal(text)
		assert.Equal(t, models.SignalHold, sig)
		assert.True(t, ambiguous)
	}
}

func TestExtractSignalCommonPhrasings(t *testing.T) {
	sig, ambiguous := ExtractSignal("I recommend BUY")
	assert.Equal(t, models.SignalBuy, sig)
	assert.False(t, ambiguous)

	sig, ambiguous = ExtractSignal("hold the position")
	assert.Equal(t, models.SignalHold, sig)
	assert.False(t, ambiguous)

	sig, ambiguous = ExtractSignal("unclear thoughts")
	assert.Equal(t, models.SignalHold, sig)
	assert.True(t, ambiguous)
}

func TestExtractSignalIdempotentOverOwnOutput(t *testing.T) {
	// Re-extracting from a rendered verdict yields the same signal.
	for _, text := range []string{
		"I recommend BUY",
		"sell into strength, then sell more",
		"unclear thoughts",
		"FINAL TRANSACTION PROPOSAL: **SELL**",
	} {
		sig, _ := ExtractSignal(text)
		again, ambiguous := ExtractSignal("FINAL TRANSACTION PROPOSAL: **" + string(sig) + "**")
		assert.Equal(t, sig, again, text)
		assert.False(t, ambiguous, text)
	}
}

func TestExtractSignalDeterministic(t *testing.T) {
	text := strings.Repeat("hold the line, then buy. ", 3) + "FINAL TRANSACTION PROPOSAL: **SELL**"
	first, firstAmb := ExtractSignal(text)
	for i := 0; i < 5; i++ {
		sig, amb := ExtractSignal(text)
		assert.Equal(t, first, sig)
		assert.Equal(t, firstAmb, amb)
	}
}
