package tools

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradedesk/internal/models"
)

func barsFromCloses(closes []float64) []models.MarketBar {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]models.MarketBar, len(closes))
	for i, c := range closes {
		d := decimal.NewFromFloat(c)
		bars[i] = models.MarketBar{
			Symbol: "TEST",
			Date:   start.AddDate(0, 0, i).Format("2006-01-02"),
			Open:   d,
			High:   d.Add(decimal.NewFromInt(1)),
			Low:    d.Sub(decimal.NewFromInt(1)),
			Close:  d,
			Volume: 1000,
		}
	}
	return bars
}

func TestSMA(t *testing.T) {
	out := sma([]float64{1, 2, 3, 4, 5}, 3)
	assert.True(t, math.IsNaN(out[0]))
	assert.True(t, math.IsNaN(out[1]))
	assert.InDelta(t, 2.0, out[2], 1e-9)
	assert.InDelta(t, 3.0, out[3], 1e-9)
	assert.InDelta(t, 4.0, out[4], 1e-9)
}

func TestSMATooFewValues(t *testing.T) {
	out := sma([]float64{1, 2}, 5)
	for _, v := range out {
		assert.True(t, math.IsNaN(v))
	}
}

func TestEMASeededWithSMA(t *testing.T) {
	out := ema([]float64{2, 4, 6, 8}, 3)
	assert.True(t, math.IsNaN(out[0]))
	assert.InDelta(t, 4.0, out[2], 1e-9)
	// k = 2/(3+1) = 0.5 so next value is 8*0.5 + 4*0.5 = 6.
	assert.InDelta(t, 6.0, out[3], 1e-9)
}

func TestRSIAllGainsIsHundred(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = float64(100 + i)
	}
	out := rsi(closes, 14)
	assert.True(t, math.IsNaN(out[13]))
	assert.InDelta(t, 100.0, out[14], 1e-9)
	assert.InDelta(t, 100.0, out[19], 1e-9)
}

func TestBollingerBandsSurroundMiddle(t *testing.T) {
	closes := make([]float64, 25)
	for i := range closes {
		closes[i] = 50 + float64(i%5)
	}
	mid, upper, lower := bollinger(closes, 20, 2)
	i := len(closes) - 1
	require.False(t, math.IsNaN(mid[i]))
	assert.Greater(t, upper[i], mid[i])
	assert.Less(t, lower[i], mid[i])
}

func TestATRConstantRange(t *testing.T) {
	// Every bar has high-low = 2 and closes flat, so TR is constant.
	bars := barsFromCloses(make([]float64, 20))
	for i := range bars {
		bars[i].Close = decimal.NewFromInt(100)
		bars[i].High = decimal.NewFromInt(101)
		bars[i].Low = decimal.NewFromInt(99)
	}
	out := atr(bars, 14)
	assert.InDelta(t, 2.0, out[14], 1e-9)
	assert.InDelta(t, 2.0, out[19], 1e-9)
}

func TestComputeIndicatorUnsupported(t *testing.T) {
	_, err := computeIndicator("vwap", barsFromCloses([]float64{1, 2, 3}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported indicator")
	assert.Contains(t, err.Error(), "rsi")
}

func TestComputeIndicatorNotEnoughData(t *testing.T) {
	report, err := computeIndicator("close_200_sma", barsFromCloses([]float64{1, 2, 3}))
	require.NoError(t, err)
	assert.Contains(t, report, "not enough data points")
}

func TestComputeIndicatorRendersRecentValues(t *testing.T) {
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	bars := barsFromCloses(closes)

	report, err := computeIndicator("close_10_ema", bars)
	require.NoError(t, err)
	assert.Contains(t, report, "## close_10_ema")
	assert.Contains(t, report, bars[len(bars)-1].Date)
	// Ten most recent values, newest first.
	assert.Contains(t, report, fmt.Sprintf("%s:", bars[len(bars)-10].Date))
	assert.NotContains(t, report, fmt.Sprintf("%s:", bars[len(bars)-11].Date))
}

func TestSupportedIndicatorsCoverGuide(t *testing.T) {
	names := SupportedIndicators()
	assert.Len(t, names, len(indicatorGuide))
	for _, n := range names {
		_, ok := indicatorGuide[n]
		assert.True(t, ok, n)
	}
}
