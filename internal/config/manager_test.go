package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManagerCreatesConfigFile(t *testing.T) {
	dir := t.TempDir()

	mgr, err := NewManager(WithConfigDir(dir))
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, "config.json"))
	cfg := mgr.Get()
	assert.Equal(t, "openai", cfg.LLMProvider)
	assert.GreaterOrEqual(t, cfg.MaxDebateRounds, 1)
}

func TestNewManagerLoadsExistingConfig(t *testing.T) {
	dir := t.TempDir()

	initial := DefaultConfig()
	initial.MaxDebateRounds = 3
	_, err := NewManager(WithConfigDir(dir), WithInitialConfig(initial))
	require.NoError(t, err)

	mgr, err := NewManager(WithConfigDir(dir))
	require.NoError(t, err)
	assert.Equal(t, 3, mgr.Get().MaxDebateRounds)
}

func TestManagerUpdatePersists(t *testing.T) {
	dir := t.TempDir()

	mgr, err := NewManager(WithConfigDir(dir))
	require.NoError(t, err)

	cfg := mgr.Get()
	cfg.MaxRiskDiscussRounds = 2
	require.NoError(t, mgr.Update(cfg))
	assert.Equal(t, 2, mgr.Get().MaxRiskDiscussRounds)

	reloaded, err := NewManager(WithConfigDir(dir))
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.Get().MaxRiskDiscussRounds)
}

func TestManagerUpdateRejectsInvalid(t *testing.T) {
	mgr, err := NewManager(WithConfigDir(t.TempDir()))
	require.NoError(t, err)

	cfg := mgr.Get()
	cfg.MaxDebateRounds = 0
	assert.Error(t, mgr.Update(cfg))
}

func TestManagerUpdateFromJSON(t *testing.T) {
	mgr, err := NewManager(WithConfigDir(t.TempDir()))
	require.NoError(t, err)

	assert.Error(t, mgr.UpdateFromJSON("{not json"))
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	bad := DefaultConfig()
	bad.Analysts = nil
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.Analysts = []string{"market", "market"}
	assert.Error(t, bad.Validate())

	bad = DefaultConfig()
	bad.MaxRecurLimit = 0
	assert.Error(t, bad.Validate())
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("TRADEDESK_LLM_PROVIDER", "deepseek")
	t.Setenv("TRADEDESK_MAX_DEBATE_ROUNDS", "4")
	t.Setenv("FINNHUB_API_KEY", "fh-test")

	cfg := DefaultConfig()
	cfg.ApplyEnv()

	assert.Equal(t, "deepseek", cfg.LLMProvider)
	assert.Equal(t, 4, cfg.MaxDebateRounds)
	assert.Equal(t, "fh-test", cfg.FinnhubAPIKey)
}

func TestApplyEnvIgnoresUnset(t *testing.T) {
	require.NoError(t, os.Unsetenv("TRADEDESK_BACKEND_URL"))

	cfg := DefaultConfig()
	before := cfg.BackendURL
	cfg.ApplyEnv()
	assert.Equal(t, before, cfg.BackendURL)
}
