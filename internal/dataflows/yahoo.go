package dataflows

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/quote"
	"github.com/shopspring/decimal"

	"tradedesk/internal/config"
	"tradedesk/internal/models"
)

// YahooClient fetches quotes and daily candles from Yahoo Finance.
type YahooClient struct {
	cache *Cache
	retry *RetryConfig
}

func NewYahooClient(cfg *config.Config) *YahooClient {
	return &YahooClient{
		cache: NewCache(filepath.Join(cfg.DataCacheDir, "yahoo"), 24*time.Hour, cfg.CacheEnabled),
		retry: DefaultRetryConfig(),
	}
}

// Quote returns the latest quote as a single bar.
func (yc *YahooClient) Quote(ctx context.Context, symbol string) (*models.MarketBar, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	var cached models.MarketBar
	if yc.cache.Get("quote", symbol, &cached) {
		return &cached, nil
	}

	var result *models.MarketBar
	err := WithRetry(ctx, yc.retry, func() error {
		q, err := quote.Get(symbol)
		if err != nil {
			return fmt.Errorf("get quote for %s: %w", symbol, err)
		}
		result = &models.MarketBar{
			Symbol:   symbol,
			Date:     time.Now().Format(dateLayout),
			Open:     decimal.NewFromFloat(q.RegularMarketOpen),
			High:     decimal.NewFromFloat(q.RegularMarketDayHigh),
			Low:      decimal.NewFromFloat(q.RegularMarketDayLow),
			Close:    decimal.NewFromFloat(q.RegularMarketPrice),
			AdjClose: decimal.NewFromFloat(q.RegularMarketPrice),
			Volume:   int64(q.RegularMarketVolume),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	yc.cache.Set("quote", symbol, result)
	return result, nil
}

// Historical returns daily candles in [start, end], oldest first.
func (yc *YahooClient) Historical(ctx context.Context, symbol string, start, end time.Time) ([]models.MarketBar, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	params := map[string]string{
		"symbol": symbol,
		"start":  start.Format(dateLayout),
		"end":    end.Format(dateLayout),
	}

	var cached []models.MarketBar
	if yc.cache.Get("historical", params, &cached) {
		return cached, nil
	}

	var result []models.MarketBar
	err := WithRetry(ctx, yc.retry, func() error {
		iter := chart.Get(&chart.Params{
			Symbol:   symbol,
			Start:    datetime.New(&start),
			End:      datetime.New(&end),
			Interval: datetime.OneDay,
		})

		result = result[:0]
		for iter.Next() {
			bar := iter.Bar()
			result = append(result, models.MarketBar{
				Symbol:   symbol,
				Date:     time.Unix(int64(bar.Timestamp), 0).Format(dateLayout),
				Open:     bar.Open,
				High:     bar.High,
				Low:      bar.Low,
				Close:    bar.Close,
				AdjClose: bar.AdjClose,
				Volume:   int64(bar.Volume),
			})
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("get historical data for %s: %w", symbol, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	yc.cache.Set("historical", params, result)
	return result, nil
}

// Window returns candles for the look-back window ending at end.
func (yc *YahooClient) Window(ctx context.Context, symbol string, end time.Time, days int) ([]models.MarketBar, error) {
	return yc.Historical(ctx, symbol, end.AddDate(0, 0, -days), end)
}
