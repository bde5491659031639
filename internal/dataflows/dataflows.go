// Package dataflows provides the market, news, and sentiment feeds the
// analyst tools draw on. Each upstream client caches to disk and retries
// with backoff; the Service interface is what the rest of the pipeline
// programs against.
package dataflows

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"tradedesk/internal/config"
	"tradedesk/internal/models"
)

// Service is the read-only data surface exposed to agent tools.
type Service interface {
	Quote(ctx context.Context, symbol string) (*models.MarketBar, error)
	MarketWindow(ctx context.Context, symbol string, end time.Time, days int) ([]models.MarketBar, error)
	CompanyNews(ctx context.Context, symbol string, from, to time.Time) ([]models.NewsArticle, error)
	GlobalNews(ctx context.Context, query string, from, to time.Time, maxResults int) ([]models.NewsArticle, error)
	InsiderSentiment(ctx context.Context, symbol string, from, to time.Time) ([]models.InsiderSentiment, error)
}

// Flows wires the concrete upstream clients behind Service.
type Flows struct {
	yahoo   *YahooClient
	finnhub *FinnhubClient
	news    *GoogleNewsClient
}

func New(cfg *config.Config) *Flows {
	return &Flows{
		yahoo:   NewYahooClient(cfg),
		finnhub: NewFinnhubClient(cfg),
		news:    NewGoogleNewsClient(cfg),
	}
}

func (f *Flows) Quote(ctx context.Context, symbol string) (*models.MarketBar, error) {
	return f.yahoo.Quote(ctx, symbol)
}

func (f *Flows) MarketWindow(ctx context.Context, symbol string, end time.Time, days int) ([]models.MarketBar, error) {
	return f.yahoo.Window(ctx, symbol, end, days)
}

func (f *Flows) CompanyNews(ctx context.Context, symbol string, from, to time.Time) ([]models.NewsArticle, error) {
	return f.finnhub.CompanyNews(ctx, symbol, from, to)
}

func (f *Flows) GlobalNews(ctx context.Context, query string, from, to time.Time, maxResults int) ([]models.NewsArticle, error) {
	return f.news.Search(ctx, query, from, to, maxResults)
}

func (f *Flows) InsiderSentiment(ctx context.Context, symbol string, from, to time.Time) ([]models.InsiderSentiment, error) {
	return f.finnhub.InsiderSentiment(ctx, symbol, from, to)
}

// Prefetch warms the caches for one (symbol, date) run so the analysts'
// tool calls hit disk instead of the network. Failures are returned but a
// partial warm is still useful; callers typically log and continue.
func (f *Flows) Prefetch(ctx context.Context, symbol, tradeDate string) error {
	end, err := ParseDate(tradeDate)
	if err != nil {
		end = time.Now()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := f.MarketWindow(ctx, symbol, end, 30)
		return err
	})
	g.Go(func() error {
		_, err := f.CompanyNews(ctx, symbol, end.AddDate(0, 0, -7), end)
		return err
	})
	g.Go(func() error {
		_, err := f.InsiderSentiment(ctx, symbol, end.AddDate(0, 0, -30), end)
		return err
	})
	return g.Wait()
}
