// Package tools exposes the data feeds to the analyst agents as eino
// tools. Fetch failures never surface as tool errors: the model receives a
// "data unavailable" result and the run is marked degraded instead, so one
// dead feed cannot abort an evaluation.
package tools

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/components/tool"
	t_utils "github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"tradedesk/consts"
	"tradedesk/internal/config"
	"tradedesk/internal/dataflows"
	"tradedesk/internal/models"
)

// Toolkit builds the per-analyst tool sets for one run and tracks whether
// any tool had to degrade.
type Toolkit struct {
	cfg   *config.Config
	flows dataflows.Service
	log   *zap.Logger

	mu       sync.Mutex
	degraded bool
}

func NewToolkit(cfg *config.Config, flows dataflows.Service, log *zap.Logger) *Toolkit {
	if log == nil {
		log = zap.NewNop()
	}
	return &Toolkit{cfg: cfg, flows: flows, log: log}
}

// Degraded reports whether any tool call fell back to a placeholder result
// since the last reset.
func (tk *Toolkit) Degraded() bool {
	tk.mu.Lock()
	defer tk.mu.Unlock()
	return tk.degraded
}

// ResetDegraded clears the flag at the start of a run.
func (tk *Toolkit) ResetDegraded() {
	tk.mu.Lock()
	defer tk.mu.Unlock()
	tk.degraded = false
}

func (tk *Toolkit) markDegraded(toolName string, err error) string {
	tk.mu.Lock()
	tk.degraded = true
	tk.mu.Unlock()
	tk.log.Warn("tool degraded", zap.String("tool", toolName), zap.Error(err))
	return fmt.Sprintf("data unavailable: %v", err)
}

// ForAnalyst returns the tool set declared for an analyst node. A node
// asking for tools outside its declared set is a configuration error.
func (tk *Toolkit) ForAnalyst(analystNode string) ([]tool.BaseTool, error) {
	switch analystNode {
	case consts.MarketAnalyst:
		return []tool.BaseTool{tk.MarketDataTool(), tk.IndicatorTool(), tk.QuoteTool()}, nil
	case consts.SocialMediaAnalyst:
		return []tool.BaseTool{tk.GlobalNewsTool(), tk.InsiderSentimentTool()}, nil
	case consts.NewsAnalyst:
		return []tool.BaseTool{tk.CompanyNewsTool(), tk.GlobalNewsTool()}, nil
	case consts.FundamentalsAnalyst:
		return []tool.BaseTool{tk.InsiderSentimentTool(), tk.QuoteTool()}, nil
	default:
		return nil, fmt.Errorf("no tool set declared for node %q", analystNode)
	}
}

func (tk *Toolkit) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, tk.cfg.ToolTimeout)
}

// MarketDataTool returns recent OHLCV candles.
func (tk *Toolkit) MarketDataTool() tool.BaseTool {
	return t_utils.NewTool(
		&schema.ToolInfo{
			Name: "get_market_data",
			Desc: "Get daily OHLCV market data for a stock symbol over a look-back window",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"symbol": {
					Type:     "string",
					Desc:     "The stock symbol",
					Required: true,
				},
				"look_back_days": {
					Type:     "integer",
					Desc:     "Number of days to retrieve (default: 30)",
					Required: false,
				},
			}),
		},
		func(ctx context.Context, input models.MarketDataInput) (*models.MarketDataOutput, error) {
			if input.Symbol == "" {
				return nil, fmt.Errorf("symbol parameter is required")
			}
			days := input.LookBackDays
			if days <= 0 {
				days = 30
			}

			ctx, cancel := tk.callCtx(ctx)
			defer cancel()

			bars, err := tk.flows.MarketWindow(ctx, input.Symbol, time.Now(), days)
			if err != nil {
				return &models.MarketDataOutput{Result: tk.markDegraded("get_market_data", err)}, nil
			}
			return &models.MarketDataOutput{Result: formatBars(input.Symbol, bars)}, nil
		},
	)
}

// IndicatorTool computes a technical indicator over recent candles.
func (tk *Toolkit) IndicatorTool() tool.BaseTool {
	return t_utils.NewTool(
		&schema.ToolInfo{
			Name: "get_technical_indicators",
			Desc: "Compute a technical indicator (" + strings.Join(SupportedIndicators(), ", ") + ") for a symbol",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"symbol": {
					Type:     "string",
					Desc:     "The stock symbol",
					Required: true,
				},
				"indicator": {
					Type:     "string",
					Desc:     "Indicator name, e.g. close_50_sma, macd, rsi, atr",
					Required: true,
				},
				"curr_date": {
					Type:     "string",
					Desc:     "Evaluation date in YYYY-MM-DD (default: today)",
					Required: false,
				},
				"look_back_days": {
					Type:     "integer",
					Desc:     "Window size in days (default: 250)",
					Required: false,
				},
			}),
		},
		func(ctx context.Context, input models.IndicatorInput) (*models.IndicatorOutput, error) {
			if input.Symbol == "" || input.Indicator == "" {
				return nil, fmt.Errorf("symbol and indicator parameters are required")
			}
			days := input.LookBackDays
			if days <= 0 {
				days = 250
			}
			end := time.Now()
			if input.CurrDate != "" {
				if t, err := dataflows.ParseDate(input.CurrDate); err == nil {
					end = t
				}
			}

			ctx, cancel := tk.callCtx(ctx)
			defer cancel()

			bars, err := tk.flows.MarketWindow(ctx, input.Symbol, end, days)
			if err != nil {
				return &models.IndicatorOutput{Result: tk.markDegraded("get_technical_indicators", err)}, nil
			}
			report, err := computeIndicator(input.Indicator, bars)
			if err != nil {
				// Bad indicator name is the model's mistake, not a feed
				// outage; report it back without degrading the run.
				return &models.IndicatorOutput{Result: err.Error()}, nil
			}
			return &models.IndicatorOutput{Result: report}, nil
		},
	)
}

// QuoteTool returns the latest quote.
func (tk *Toolkit) QuoteTool() tool.BaseTool {
	return t_utils.NewTool(
		&schema.ToolInfo{
			Name: "get_quote",
			Desc: "Get the latest price quote for a stock symbol",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"symbol": {
					Type:     "string",
					Desc:     "The stock symbol",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, input models.QuoteInput) (*models.QuoteOutput, error) {
			if input.Symbol == "" {
				return nil, fmt.Errorf("symbol parameter is required")
			}

			ctx, cancel := tk.callCtx(ctx)
			defer cancel()

			bar, err := tk.flows.Quote(ctx, input.Symbol)
			if err != nil {
				return &models.QuoteOutput{Result: tk.markDegraded("get_quote", err)}, nil
			}
			return &models.QuoteOutput{
				Result: fmt.Sprintf("%s %s: open %s high %s low %s close %s volume %d",
					bar.Symbol, bar.Date, bar.Open, bar.High, bar.Low, bar.Close, bar.Volume),
			}, nil
		},
	)
}

// CompanyNewsTool returns recent news about the company.
func (tk *Toolkit) CompanyNewsTool() tool.BaseTool {
	return t_utils.NewTool(
		&schema.ToolInfo{
			Name: "get_company_news",
			Desc: "Get recent news articles about a specific company",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"symbol": {
					Type:     "string",
					Desc:     "The stock symbol",
					Required: true,
				},
				"curr_date": {
					Type:     "string",
					Desc:     "Evaluation date in YYYY-MM-DD (default: today)",
					Required: false,
				},
				"look_back_days": {
					Type:     "integer",
					Desc:     "Number of days to look back (default: 7)",
					Required: false,
				},
			}),
		},
		func(ctx context.Context, input models.NewsInput) (*models.NewsOutput, error) {
			if input.Symbol == "" {
				return nil, fmt.Errorf("symbol parameter is required")
			}
			end := time.Now()
			if input.CurrDate != "" {
				if t, err := dataflows.ParseDate(input.CurrDate); err == nil {
					end = t
				}
			}
			days := input.LookBackDays
			if days <= 0 {
				days = 7
			}

			ctx, cancel := tk.callCtx(ctx)
			defer cancel()

			articles, err := tk.flows.CompanyNews(ctx, input.Symbol, end.AddDate(0, 0, -days), end)
			if err != nil {
				return &models.NewsOutput{Result: tk.markDegraded("get_company_news", err)}, nil
			}
			return &models.NewsOutput{Result: formatArticles(articles)}, nil
		},
	)
}

// GlobalNewsTool searches broader news and social coverage.
func (tk *Toolkit) GlobalNewsTool() tool.BaseTool {
	return t_utils.NewTool(
		&schema.ToolInfo{
			Name: "get_global_news",
			Desc: "Search recent global news and public discussion for a topic or company",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"symbol": {
					Type:     "string",
					Desc:     "The stock symbol or search topic",
					Required: true,
				},
				"curr_date": {
					Type:     "string",
					Desc:     "Evaluation date in YYYY-MM-DD (default: today)",
					Required: false,
				},
				"look_back_days": {
					Type:     "integer",
					Desc:     "Number of days to look back (default: 7)",
					Required: false,
				},
			}),
		},
		func(ctx context.Context, input models.NewsInput) (*models.NewsOutput, error) {
			if input.Symbol == "" {
				return nil, fmt.Errorf("symbol parameter is required")
			}
			end := time.Now()
			if input.CurrDate != "" {
				if t, err := dataflows.ParseDate(input.CurrDate); err == nil {
					end = t
				}
			}
			days := input.LookBackDays
			if days <= 0 {
				days = 7
			}

			ctx, cancel := tk.callCtx(ctx)
			defer cancel()

			articles, err := tk.flows.GlobalNews(ctx, input.Symbol, end.AddDate(0, 0, -days), end, 20)
			if err != nil {
				return &models.NewsOutput{Result: tk.markDegraded("get_global_news", err)}, nil
			}
			return &models.NewsOutput{Result: formatArticles(articles)}, nil
		},
	)
}

// InsiderSentimentTool returns monthly insider sentiment aggregates.
func (tk *Toolkit) InsiderSentimentTool() tool.BaseTool {
	return t_utils.NewTool(
		&schema.ToolInfo{
			Name: "get_insider_sentiment",
			Desc: "Get monthly insider trading sentiment aggregates for a company",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"symbol": {
					Type:     "string",
					Desc:     "The stock symbol",
					Required: true,
				},
				"curr_date": {
					Type:     "string",
					Desc:     "Evaluation date in YYYY-MM-DD (default: today)",
					Required: false,
				},
			}),
		},
		func(ctx context.Context, input models.InsiderInput) (*models.InsiderOutput, error) {
			if input.Symbol == "" {
				return nil, fmt.Errorf("symbol parameter is required")
			}
			end := time.Now()
			if input.CurrDate != "" {
				if t, err := dataflows.ParseDate(input.CurrDate); err == nil {
					end = t
				}
			}

			ctx, cancel := tk.callCtx(ctx)
			defer cancel()

			sentiments, err := tk.flows.InsiderSentiment(ctx, input.Symbol, end.AddDate(0, -3, 0), end)
			if err != nil {
				return &models.InsiderOutput{Result: tk.markDegraded("get_insider_sentiment", err)}, nil
			}
			return &models.InsiderOutput{Result: formatInsiderSentiment(sentiments)}, nil
		},
	)
}

func formatBars(symbol string, bars []models.MarketBar) string {
	if len(bars) == 0 {
		return fmt.Sprintf("no market data available for %s", symbol)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s daily OHLCV (%d bars)\ndate, open, high, low, close, volume\n", symbol, len(bars))
	for _, b := range bars {
		fmt.Fprintf(&sb, "%s, %s, %s, %s, %s, %d\n", b.Date, b.Open, b.High, b.Low, b.Close, b.Volume)
	}
	return sb.String()
}

func formatArticles(articles []models.NewsArticle) string {
	if len(articles) == 0 {
		return "no articles found for the requested window"
	}
	var sb strings.Builder
	for _, a := range articles {
		fmt.Fprintf(&sb, "### %s (%s, %s)\n", a.Title, a.Source, a.PublishedAt.Format("2006-01-02"))
		if a.Summary != "" {
			sb.WriteString(a.Summary)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func formatInsiderSentiment(sentiments []models.InsiderSentiment) string {
	if len(sentiments) == 0 {
		return "no insider sentiment data for the requested window"
	}
	var sb strings.Builder
	sb.WriteString("## Monthly insider sentiment (MSPR: -100 worst to 100 best)\n")
	for _, s := range sentiments {
		fmt.Fprintf(&sb, "%d-%02d: net change %.0f shares, MSPR %.2f\n", s.Year, s.Month, s.Change, s.MSPR)
	}
	return sb.String()
}
