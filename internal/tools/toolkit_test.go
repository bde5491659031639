package tools

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/tool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradedesk/consts"
	"tradedesk/internal/config"
	"tradedesk/internal/models"
)

// fakeFlows serves canned data, or fails every call when fail is set.
type fakeFlows struct {
	fail bool
}

var errFeedDown = errors.New("upstream timeout")

func (f *fakeFlows) Quote(_ context.Context, symbol string) (*models.MarketBar, error) {
	if f.fail {
		return nil, errFeedDown
	}
	bars := barsFromCloses([]float64{101})
	bars[0].Symbol = symbol
	return &bars[0], nil
}

func (f *fakeFlows) MarketWindow(_ context.Context, symbol string, _ time.Time, days int) ([]models.MarketBar, error) {
	if f.fail {
		return nil, errFeedDown
	}
	closes := make([]float64, days)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	bars := barsFromCloses(closes)
	for i := range bars {
		bars[i].Symbol = symbol
	}
	return bars, nil
}

func (f *fakeFlows) CompanyNews(_ context.Context, _ string, _, _ time.Time) ([]models.NewsArticle, error) {
	if f.fail {
		return nil, errFeedDown
	}
	return []models.NewsArticle{{Title: "Earnings beat", Source: "wire", PublishedAt: time.Now()}}, nil
}

func (f *fakeFlows) GlobalNews(_ context.Context, _ string, _, _ time.Time, _ int) ([]models.NewsArticle, error) {
	if f.fail {
		return nil, errFeedDown
	}
	return nil, nil
}

func (f *fakeFlows) InsiderSentiment(_ context.Context, _ string, _, _ time.Time) ([]models.InsiderSentiment, error) {
	if f.fail {
		return nil, errFeedDown
	}
	return []models.InsiderSentiment{{Symbol: "AAPL", Year: 2026, Month: 2, Change: 1200, MSPR: 34.5}}, nil
}

func newTestToolkit(fail bool) *Toolkit {
	cfg := config.DefaultConfig()
	return NewToolkit(cfg, &fakeFlows{fail: fail}, nil)
}

func invoke(t *testing.T, bt tool.BaseTool, args string) string {
	t.Helper()
	inv, ok := bt.(tool.InvokableTool)
	require.True(t, ok)
	out, err := inv.InvokableRun(context.Background(), args)
	require.NoError(t, err)
	return out
}

func TestForAnalystToolSets(t *testing.T) {
	tk := newTestToolkit(false)

	for node, want := range map[string]int{
		consts.MarketAnalyst:       3,
		consts.SocialMediaAnalyst:  2,
		consts.NewsAnalyst:         2,
		consts.FundamentalsAnalyst: 2,
	} {
		tls, err := tk.ForAnalyst(node)
		require.NoError(t, err, node)
		assert.Len(t, tls, want, node)
	}

	_, err := tk.ForAnalyst(consts.Trader)
	assert.Error(t, err)
}

func TestMarketDataToolFormatsBars(t *testing.T) {
	tk := newTestToolkit(false)

	out := invoke(t, tk.MarketDataTool(), `{"symbol":"AAPL","look_back_days":5}`)
	assert.Contains(t, out, "AAPL daily OHLCV")
	assert.False(t, tk.Degraded())
}

func TestToolFailureDegradesInsteadOfErroring(t *testing.T) {
	tk := newTestToolkit(true)

	out := invoke(t, tk.QuoteTool(), `{"symbol":"AAPL"}`)
	assert.Contains(t, out, "data unavailable")
	assert.Contains(t, out, "upstream timeout")
	assert.True(t, tk.Degraded())

	tk.ResetDegraded()
	assert.False(t, tk.Degraded())
}

func TestIndicatorToolBadNameDoesNotDegrade(t *testing.T) {
	tk := newTestToolkit(false)

	out := invoke(t, tk.IndicatorTool(), `{"symbol":"AAPL","indicator":"vwap"}`)
	assert.Contains(t, out, "unsupported indicator")
	assert.False(t, tk.Degraded(), "a model mistake must not mark the run degraded")
}

func TestIndicatorToolComputes(t *testing.T) {
	tk := newTestToolkit(false)

	out := invoke(t, tk.IndicatorTool(), `{"symbol":"AAPL","indicator":"close_10_ema","look_back_days":40}`)
	assert.Contains(t, out, "close_10_ema")
	assert.False(t, tk.Degraded())
}

func TestInsiderSentimentToolFormats(t *testing.T) {
	tk := newTestToolkit(false)

	out := invoke(t, tk.InsiderSentimentTool(), `{"symbol":"AAPL"}`)
	assert.Contains(t, out, "MSPR")
	assert.Contains(t, out, "2026-02")
}

func TestGlobalNewsToolEmptyWindow(t *testing.T) {
	tk := newTestToolkit(false)

	out := invoke(t, tk.GlobalNewsTool(), `{"symbol":"AAPL"}`)
	assert.Contains(t, out, "no articles found")
}
