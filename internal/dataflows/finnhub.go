package dataflows

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"

	"tradedesk/internal/config"
	"tradedesk/internal/models"
)

const finnhubBaseURL = "https://finnhub.io/api/v1"

// FinnhubClient fetches company news and insider sentiment.
type FinnhubClient struct {
	client *resty.Client
	cache  *Cache
	retry  *RetryConfig
	apiKey string
}

func NewFinnhubClient(cfg *config.Config) *FinnhubClient {
	client := resty.New().
		SetBaseURL(finnhubBaseURL).
		SetTimeout(30 * time.Second)

	return &FinnhubClient{
		client: client,
		cache:  NewCache(filepath.Join(cfg.DataCacheDir, "finnhub"), 6*time.Hour, cfg.CacheEnabled),
		retry:  DefaultRetryConfig(),
		apiKey: cfg.FinnhubAPIKey,
	}
}

type finnhubNews struct {
	Category string `json:"category"`
	DateTime int64  `json:"datetime"`
	Headline string `json:"headline"`
	Source   string `json:"source"`
	Summary  string `json:"summary"`
	URL      string `json:"url"`
}

// CompanyNews returns articles about a company in [from, to].
func (fc *FinnhubClient) CompanyNews(ctx context.Context, symbol string, from, to time.Time) ([]models.NewsArticle, error) {
	if fc.apiKey == "" {
		return nil, fmt.Errorf("finnhub api key not configured")
	}
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	params := map[string]string{
		"symbol": symbol,
		"from":   from.Format(dateLayout),
		"to":     to.Format(dateLayout),
	}

	var cached []models.NewsArticle
	if fc.cache.Get("company_news", params, &cached) {
		return cached, nil
	}

	var result []models.NewsArticle
	err := WithRetry(ctx, fc.retry, func() error {
		resp, err := fc.client.R().
			SetContext(ctx).
			SetQueryParams(params).
			SetQueryParam("token", fc.apiKey).
			Get("/company-news")
		if err != nil {
			return fmt.Errorf("fetch news for %s: %w", symbol, err)
		}
		if resp.StatusCode() != 200 {
			return fmt.Errorf("finnhub error %d: %s", resp.StatusCode(), resp.String())
		}

		var raw []finnhubNews
		if err := json.Unmarshal(resp.Body(), &raw); err != nil {
			return fmt.Errorf("parse news response: %w", err)
		}

		result = result[:0]
		for _, n := range raw {
			result = append(result, models.NewsArticle{
				Title:       n.Headline,
				Summary:     n.Summary,
				URL:         n.URL,
				Source:      n.Source,
				PublishedAt: time.Unix(n.DateTime, 0),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	fc.cache.Set("company_news", params, result)
	return result, nil
}

// InsiderSentiment returns Finnhub's monthly insider sentiment aggregates
// for [from, to].
func (fc *FinnhubClient) InsiderSentiment(ctx context.Context, symbol string, from, to time.Time) ([]models.InsiderSentiment, error) {
	if fc.apiKey == "" {
		return nil, fmt.Errorf("finnhub api key not configured")
	}
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	params := map[string]string{
		"symbol": symbol,
		"from":   from.Format(dateLayout),
		"to":     to.Format(dateLayout),
	}

	var cached []models.InsiderSentiment
	if fc.cache.Get("insider_sentiment", params, &cached) {
		return cached, nil
	}

	var result []models.InsiderSentiment
	err := WithRetry(ctx, fc.retry, func() error {
		resp, err := fc.client.R().
			SetContext(ctx).
			SetQueryParams(params).
			SetQueryParam("token", fc.apiKey).
			Get("/stock/insider-sentiment")
		if err != nil {
			return fmt.Errorf("fetch insider sentiment for %s: %w", symbol, err)
		}
		if resp.StatusCode() != 200 {
			return fmt.Errorf("finnhub error %d: %s", resp.StatusCode(), resp.String())
		}

		var apiResp struct {
			Data []models.InsiderSentiment `json:"data"`
		}
		if err := json.Unmarshal(resp.Body(), &apiResp); err != nil {
			return fmt.Errorf("parse insider sentiment response: %w", err)
		}
		result = apiResp.Data
		return nil
	})
	if err != nil {
		return nil, err
	}

	fc.cache.Set("insider_sentiment", params, result)
	return result, nil
}
