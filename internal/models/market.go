package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MarketBar is one OHLCV candle.
type MarketBar struct {
	Symbol   string          `json:"symbol"`
	Date     string          `json:"date"`
	Open     decimal.Decimal `json:"open"`
	High     decimal.Decimal `json:"high"`
	Low      decimal.Decimal `json:"low"`
	Close    decimal.Decimal `json:"close"`
	AdjClose decimal.Decimal `json:"adj_close"`
	Volume   int64           `json:"volume"`
}

// NewsArticle is one fetched news item.
type NewsArticle struct {
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
}

// InsiderSentiment is Finnhub's monthly insider sentiment aggregate.
type InsiderSentiment struct {
	Symbol string  `json:"symbol"`
	Year   int     `json:"year"`
	Month  int     `json:"month"`
	Change float64 `json:"change"`
	MSPR   float64 `json:"mspr"`
}

// Tool argument and result shapes. Field tags drive the JSON schema the
// model sees, so names stay snake_case.

type MarketDataInput struct {
	Symbol       string `json:"symbol"`
	LookBackDays int    `json:"look_back_days"`
}

type MarketDataOutput struct {
	Result string `json:"result"`
}

type IndicatorInput struct {
	Symbol       string `json:"symbol"`
	Indicator    string `json:"indicator"`
	CurrDate     string `json:"curr_date"`
	LookBackDays int    `json:"look_back_days"`
}

type IndicatorOutput struct {
	Result string `json:"result"`
}

type NewsInput struct {
	Symbol       string `json:"symbol"`
	CurrDate     string `json:"curr_date"`
	LookBackDays int    `json:"look_back_days"`
}

type NewsOutput struct {
	Result string `json:"result"`
}

type InsiderInput struct {
	Symbol   string `json:"symbol"`
	CurrDate string `json:"curr_date"`
}

type InsiderOutput struct {
	Result string `json:"result"`
}

type QuoteInput struct {
	Symbol string `json:"symbol"`
}

type QuoteOutput struct {
	Result string `json:"result"`
}
