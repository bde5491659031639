package tools

import (
	"fmt"
	"math"
	"strings"

	"tradedesk/internal/models"
)

// indicatorGuide describes every supported indicator. The descriptions are
// surfaced to the model so it can pick indicators sensibly.
var indicatorGuide = map[string]string{
	"close_50_sma":  "50 SMA: medium-term trend direction, dynamic support/resistance. Lags price.",
	"close_200_sma": "200 SMA: long-term trend benchmark, golden/death cross setups. Reacts slowly.",
	"close_10_ema":  "10 EMA: responsive short-term average for momentum shifts. Noisy in choppy markets.",
	"macd":          "MACD: momentum via EMA differences. Crossovers and divergence signal trend changes.",
	"macds":         "MACD Signal: EMA smoothing of the MACD line; crossovers with MACD trigger trades.",
	"rsi":           "RSI: momentum with 70/30 overbought/oversold thresholds. Can stay extreme in strong trends.",
	"boll":          "Bollinger Middle: 20 SMA basis of the bands, a dynamic price benchmark.",
	"boll_ub":       "Bollinger Upper Band: ~2 std devs above middle; overbought and breakout zones.",
	"boll_lb":       "Bollinger Lower Band: ~2 std devs below middle; potential oversold conditions.",
	"atr":           "ATR: averaged true range for volatility, stop-loss placement and position sizing.",
}

// SupportedIndicators lists the indicator names tools accept.
func SupportedIndicators() []string {
	names := make([]string, 0, len(indicatorGuide))
	for name := range indicatorGuide {
		names = append(names, name)
	}
	return names
}

// computeIndicator renders an indicator series over the bars as a compact
// text report. Bars must be oldest first.
func computeIndicator(name string, bars []models.MarketBar) (string, error) {
	desc, ok := indicatorGuide[name]
	if !ok {
		return "", fmt.Errorf("unsupported indicator %q, supported: %s", name, strings.Join(SupportedIndicators(), ", "))
	}

	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i], _ = b.Close.Float64()
	}

	var series []float64
	switch name {
	case "close_50_sma":
		series = sma(closes, 50)
	case "close_200_sma":
		series = sma(closes, 200)
	case "close_10_ema":
		series = ema(closes, 10)
	case "macd":
		series, _ = macd(closes)
	case "macds":
		_, series = macd(closes)
	case "rsi":
		series = rsi(closes, 14)
	case "boll":
		series, _, _ = bollinger(closes, 20, 2)
	case "boll_ub":
		_, series, _ = bollinger(closes, 20, 2)
	case "boll_lb":
		_, _, series = bollinger(closes, 20, 2)
	case "atr":
		series = atr(bars, 14)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s\n%s\n\n", name, desc)

	shown := 0
	for i := len(series) - 1; i >= 0 && shown < 10; i-- {
		if math.IsNaN(series[i]) {
			break
		}
		fmt.Fprintf(&sb, "%s: %.4f\n", bars[i].Date, series[i])
		shown++
	}
	if shown == 0 {
		fmt.Fprintf(&sb, "not enough data points (%d bars)\n", len(bars))
	}
	return sb.String(), nil
}

// sma returns the n-period simple moving average, NaN until warmed up.
func sma(values []float64, n int) []float64 {
	out := nanSeries(len(values))
	if n <= 0 || len(values) < n {
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		if i >= n {
			sum -= values[i-n]
		}
		if i >= n-1 {
			out[i] = sum / float64(n)
		}
	}
	return out
}

// ema returns the n-period exponential moving average, seeded with the
// first n-period SMA.
func ema(values []float64, n int) []float64 {
	out := nanSeries(len(values))
	if n <= 0 || len(values) < n {
		return out
	}
	var seed float64
	for _, v := range values[:n] {
		seed += v
	}
	out[n-1] = seed / float64(n)

	k := 2.0 / float64(n+1)
	for i := n; i < len(values); i++ {
		out[i] = values[i]*k + out[i-1]*(1-k)
	}
	return out
}

// macd returns the MACD line (EMA12 - EMA26) and its 9-period signal line.
func macd(values []float64) (line, signal []float64) {
	fast := ema(values, 12)
	slow := ema(values, 26)

	line = nanSeries(len(values))
	for i := range values {
		if !math.IsNaN(fast[i]) && !math.IsNaN(slow[i]) {
			line[i] = fast[i] - slow[i]
		}
	}

	signal = nanSeries(len(values))
	first := firstValid(line)
	if first < 0 || len(line)-first < 9 {
		return line, signal
	}
	sub := ema(line[first:], 9)
	copy(signal[first:], sub)
	return line, signal
}

// rsi returns the n-period relative strength index using Wilder smoothing.
func rsi(values []float64, n int) []float64 {
	out := nanSeries(len(values))
	if len(values) <= n {
		return out
	}

	var gain, loss float64
	for i := 1; i <= n; i++ {
		diff := values[i] - values[i-1]
		if diff > 0 {
			gain += diff
		} else {
			loss -= diff
		}
	}
	avgGain, avgLoss := gain/float64(n), loss/float64(n)
	out[n] = rsiValue(avgGain, avgLoss)

	for i := n + 1; i < len(values); i++ {
		diff := values[i] - values[i-1]
		var g, l float64
		if diff > 0 {
			g = diff
		} else {
			l = -diff
		}
		avgGain = (avgGain*float64(n-1) + g) / float64(n)
		avgLoss = (avgLoss*float64(n-1) + l) / float64(n)
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	return 100 - 100/(1+avgGain/avgLoss)
}

// bollinger returns the middle band (n SMA) and the bands k standard
// deviations around it.
func bollinger(values []float64, n int, k float64) (mid, upper, lower []float64) {
	mid = sma(values, n)
	upper = nanSeries(len(values))
	lower = nanSeries(len(values))

	for i := n - 1; i < len(values); i++ {
		var variance float64
		for j := i - n + 1; j <= i; j++ {
			d := values[j] - mid[i]
			variance += d * d
		}
		sd := math.Sqrt(variance / float64(n))
		upper[i] = mid[i] + k*sd
		lower[i] = mid[i] - k*sd
	}
	return mid, upper, lower
}

// atr returns the n-period average true range with Wilder smoothing.
func atr(bars []models.MarketBar, n int) []float64 {
	out := nanSeries(len(bars))
	if len(bars) <= n {
		return out
	}

	tr := make([]float64, len(bars))
	for i := 1; i < len(bars); i++ {
		high, _ := bars[i].High.Float64()
		low, _ := bars[i].Low.Float64()
		prevClose, _ := bars[i-1].Close.Float64()
		tr[i] = math.Max(high-low, math.Max(math.Abs(high-prevClose), math.Abs(low-prevClose)))
	}

	var sum float64
	for i := 1; i <= n; i++ {
		sum += tr[i]
	}
	out[n] = sum / float64(n)
	for i := n + 1; i < len(bars); i++ {
		out[i] = (out[i-1]*float64(n-1) + tr[i]) / float64(n)
	}
	return out
}

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func firstValid(values []float64) int {
	for i, v := range values {
		if !math.IsNaN(v) {
			return i
		}
	}
	return -1
}
