package dataflows

import (
	"context"
	"encoding/xml"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"tradedesk/internal/config"
	"tradedesk/internal/models"
)

const googleNewsRSS = "https://news.google.com/rss/search"

// GoogleNewsClient searches the Google News RSS feed.
type GoogleNewsClient struct {
	client *resty.Client
	cache  *Cache
	retry  *RetryConfig
}

func NewGoogleNewsClient(cfg *config.Config) *GoogleNewsClient {
	client := resty.New().
		SetTimeout(30 * time.Second).
		SetHeader("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")

	return &GoogleNewsClient{
		client: client,
		cache:  NewCache(filepath.Join(cfg.DataCacheDir, "google_news"), 30*time.Minute, cfg.CacheEnabled),
		retry:  DefaultRetryConfig(),
	}
}

type newsRSS struct {
	XMLName xml.Name `xml:"rss"`
	Channel struct {
		Items []struct {
			Title       string `xml:"title"`
			Link        string `xml:"link"`
			Description string `xml:"description"`
			PubDate     string `xml:"pubDate"`
			Source      struct {
				Text string `xml:",chardata"`
			} `xml:"source"`
		} `xml:"item"`
	} `xml:"channel"`
}

// Search queries the feed, keeping only items published in [from, to].
// Items with unparseable dates are kept; the window is a filter, not a
// guarantee of the upstream feed.
func (gc *GoogleNewsClient) Search(ctx context.Context, query string, from, to time.Time, maxResults int) ([]models.NewsArticle, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("search query cannot be empty")
	}
	if maxResults <= 0 {
		maxResults = 20
	}

	params := map[string]string{
		"query": query,
		"from":  from.Format(dateLayout),
		"to":    to.Format(dateLayout),
	}

	var cached []models.NewsArticle
	if gc.cache.Get("search", params, &cached) {
		return limitArticles(cached, maxResults), nil
	}

	var result []models.NewsArticle
	err := WithRetry(ctx, gc.retry, func() error {
		resp, err := gc.client.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"q":  fmt.Sprintf("%s after:%s before:%s", query, from.Format(dateLayout), to.Format(dateLayout)),
				"hl": "en-US",
				"gl": "US",
			}).
			Get(googleNewsRSS)
		if err != nil {
			return fmt.Errorf("fetch google news for %q: %w", query, err)
		}
		if resp.StatusCode() != 200 {
			return fmt.Errorf("google news error %d", resp.StatusCode())
		}

		var feed newsRSS
		if err := xml.Unmarshal(resp.Body(), &feed); err != nil {
			return fmt.Errorf("parse rss feed: %w", err)
		}

		result = result[:0]
		for _, item := range feed.Channel.Items {
			published, perr := ParseDate(item.PubDate)
			if perr == nil && (published.Before(from) || published.After(to.AddDate(0, 0, 1))) {
				continue
			}
			result = append(result, models.NewsArticle{
				Title:       item.Title,
				Summary:     stripHTML(item.Description),
				URL:         item.Link,
				Source:      item.Source.Text,
				PublishedAt: published,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	gc.cache.Set("search", params, result)
	return limitArticles(result, maxResults), nil
}

func limitArticles(articles []models.NewsArticle, max int) []models.NewsArticle {
	if len(articles) > max {
		return articles[:max]
	}
	return articles
}

// stripHTML flattens the anchor-heavy description markup the feed emits.
func stripHTML(s string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return strings.TrimSpace(doc.Text())
}
