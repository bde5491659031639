package dataflows

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCacheRoundTrip(t *testing.T) {
	c := NewCache(t.TempDir(), time.Hour, true)

	params := map[string]string{"symbol": "AAPL"}
	require.NoError(t, c.Set("quote", params, map[string]int{"price": 123}))

	var got map[string]int
	require.True(t, c.Get("quote", params, &got))
	assert.Equal(t, 123, got["price"])

	// Different params miss.
	assert.False(t, c.Get("quote", map[string]string{"symbol": "TSLA"}, &got))
}

func TestCacheExpiry(t *testing.T) {
	c := NewCache(t.TempDir(), time.Nanosecond, true)

	require.NoError(t, c.Set("quote", "AAPL", "stale"))
	time.Sleep(10 * time.Millisecond)

	var got string
	assert.False(t, c.Get("quote", "AAPL", &got))
}

func TestCacheDisabledIsNoOp(t *testing.T) {
	c := NewCache(t.TempDir(), time.Hour, false)

	require.NoError(t, c.Set("quote", "AAPL", "value"))
	var got string
	assert.False(t, c.Get("quote", "AAPL", &got))
}

func TestWithRetrySucceedsAfterFailures(t *testing.T) {
	cfg := &RetryConfig{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2}

	calls := 0
	err := WithRetry(context.Background(), cfg, func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetryExhausted(t *testing.T) {
	cfg := &RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 2}

	permanent := errors.New("feed down")
	err := WithRetry(context.Background(), cfg, func() error { return permanent })
	require.Error(t, err)
	assert.ErrorIs(t, err, permanent)
}

func TestWithRetryHonorsContext(t *testing.T) {
	cfg := &RetryConfig{MaxRetries: 5, BaseDelay: time.Hour, MaxDelay: time.Hour, Multiplier: 1}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithRetry(ctx, cfg, func() error { return errors.New("transient") })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseDate(t *testing.T) {
	for _, s := range []string{
		"2026-03-02",
		"2026-03-02 15:04:05",
		"Mon, 02 Mar 2026 15:04:05 GMT",
		"2026-03-02T15:04:05Z",
	} {
		got, err := ParseDate(s)
		require.NoError(t, err, s)
		assert.Equal(t, 2026, got.Year(), s)
		assert.Equal(t, time.March, got.Month(), s)
	}

	_, err := ParseDate("March the second")
	assert.Error(t, err)
}

func TestValidateSymbol(t *testing.T) {
	assert.NoError(t, ValidateSymbol("AAPL"))
	assert.Error(t, ValidateSymbol(""))
	assert.Error(t, ValidateSymbol("WAYTOOLONGSYM"))
	assert.Equal(t, "AAPL", NormalizeSymbol("  aapl "))
}
