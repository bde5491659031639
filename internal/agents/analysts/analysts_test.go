package analysts

import (
	"context"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradedesk/consts"
	"tradedesk/internal/config"
	"tradedesk/internal/dataflows"
	"tradedesk/internal/models"
	"tradedesk/internal/tools"
)

// stubFlows satisfies dataflows.Service with empty results; the routing
// tests never invoke the tools.
type stubFlows struct{}

func (stubFlows) Quote(context.Context, string) (*models.MarketBar, error) { return nil, nil }
func (stubFlows) MarketWindow(context.Context, string, time.Time, int) ([]models.MarketBar, error) {
	return nil, nil
}
func (stubFlows) CompanyNews(context.Context, string, time.Time, time.Time) ([]models.NewsArticle, error) {
	return nil, nil
}
func (stubFlows) GlobalNews(context.Context, string, time.Time, time.Time, int) ([]models.NewsArticle, error) {
	return nil, nil
}
func (stubFlows) InsiderSentiment(context.Context, string, time.Time, time.Time) ([]models.InsiderSentiment, error) {
	return nil, nil
}

var _ dataflows.Service = stubFlows{}

func newToolkit() *tools.Toolkit {
	return tools.NewToolkit(config.DefaultConfig(), stubFlows{}, nil)
}

func TestAnalystsChainInConfiguredOrder(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Analysts = []string{"news", "market"}
	state := models.NewTradingState("AAPL", time.Now(), cfg)

	news, err := New(consts.NewsAnalyst, newToolkit())
	require.NoError(t, err)
	market, err := New(consts.MarketAnalyst, newToolkit())
	require.NoError(t, err)

	next, err := news.Apply(state, schema.AssistantMessage("news report", nil))
	require.NoError(t, err)
	assert.Equal(t, consts.MarketAnalyst, next)

	next, err = market.Apply(state, schema.AssistantMessage("market report", nil))
	require.NoError(t, err)
	assert.Equal(t, consts.BullResearcher, next, "last analyst hands off to the research debate")

	assert.Equal(t, "news report", state.Reports[consts.ReportNews])
	assert.Equal(t, "market report", state.Reports[consts.ReportMarket])
}

func TestAnalystApplyRejectsDoubleWrite(t *testing.T) {
	state := models.NewTradingState("AAPL", time.Now(), config.DefaultConfig())

	market, err := New(consts.MarketAnalyst, newToolkit())
	require.NoError(t, err)

	_, err = market.Apply(state, schema.AssistantMessage("first", nil))
	require.NoError(t, err)
	_, err = market.Apply(state, schema.AssistantMessage("second", nil))
	assert.Error(t, err)
}

func TestNewUnknownNode(t *testing.T) {
	_, err := New("portfolio_manager", newToolkit())
	assert.Error(t, err)
}

func TestAllBuildsConfiguredAnalysts(t *testing.T) {
	nodes, err := All([]string{"market", "fundamentals"}, newToolkit())
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, consts.MarketAnalyst, nodes[0].Name)
	assert.Equal(t, consts.FundamentalsAnalyst, nodes[1].Name)
	assert.NotEmpty(t, nodes[0].Tools)

	_, err = All([]string{"macro"}, newToolkit())
	assert.Error(t, err)
}

func TestLoadFormatsSystemAndUserMessages(t *testing.T) {
	state := models.NewTradingState("TSLA", time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), config.DefaultConfig())

	market, err := New(consts.MarketAnalyst, newToolkit())
	require.NoError(t, err)

	msgs, err := market.Load(context.Background(), state)
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	assert.Equal(t, schema.System, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "TSLA")
	assert.Contains(t, msgs[0].Content, "2026-03-02")
	assert.Equal(t, schema.User, msgs[1].Role)
	assert.Contains(t, msgs[1].Content, "Analyze TSLA for trading on 2026-03-02.")
}
