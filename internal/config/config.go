package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config carries every tunable for one pipeline run. It is constructed once
// and passed by reference into the orchestrator and every agent node; there
// is no ambient global configuration.
type Config struct {
	ProjectDir   string `json:"project_dir"`
	ResultsDir   string `json:"results_dir"`
	DataDir      string `json:"data_dir"`
	DataCacheDir string `json:"data_cache_dir"`
	DBPath       string `json:"db_path"`

	LLMProvider   string `json:"llm_provider"`
	DeepThinkLLM  string `json:"deep_think_llm"`
	QuickThinkLLM string `json:"quick_think_llm"`
	BackendURL    string `json:"backend_url"`
	APIKey        string `json:"api_key"`

	EmbeddingBackendURL string `json:"embedding_backend_url"`
	EmbeddingModel      string `json:"embedding_model"`
	EmbeddingAPIKey     string `json:"embedding_api_key"`

	MaxDebateRounds      int `json:"max_debate_rounds"`
	MaxRiskDiscussRounds int `json:"max_risk_discuss_rounds"`
	MaxRecurLimit        int `json:"max_recur_limit"`

	// ModelRetries bounds re-generation attempts on malformed or empty model
	// output before a degraded placeholder is inserted.
	ModelRetries int `json:"model_retries"`
	// ToolTimeout is the per-call budget for a data-provider tool invocation.
	ToolTimeout time.Duration `json:"tool_timeout"`
	// MaxAgentSteps bounds the tool-call sub-cycle inside a single analyst.
	MaxAgentSteps int `json:"max_agent_steps"`

	// Analysts lists the report slots for this run, in transcript order.
	Analysts []string `json:"analysts"`
	// ParallelAnalysts fans the analyst phase out over goroutines; the
	// orchestrator joins on all of them before the research debate starts.
	ParallelAnalysts bool `json:"parallel_analysts"`

	OnlineTools  bool `json:"online_tools"`
	CacheEnabled bool `json:"cache_enabled"`
	Debug        bool `json:"debug"`

	FinnhubAPIKey string `json:"finnhub_api_key"`
}

func DefaultConfig() *Config {
	currentDir, _ := os.Getwd()

	return &Config{
		ProjectDir:   currentDir,
		ResultsDir:   filepath.Join(currentDir, "results"),
		DataDir:      filepath.Join(currentDir, "data"),
		DataCacheDir: filepath.Join(currentDir, "data", "cache"),
		DBPath:       filepath.Join(currentDir, "data", "tradedesk.db"),

		LLMProvider:   "openai",
		DeepThinkLLM:  "o4-mini",
		QuickThinkLLM: "gpt-4o-mini",
		BackendURL:    "https://api.openai.com/v1",

		EmbeddingBackendURL: "https://api.openai.com/v1",
		EmbeddingModel:      "text-embedding-3-small",

		MaxDebateRounds:      1,
		MaxRiskDiscussRounds: 1,
		MaxRecurLimit:        100,

		ModelRetries:  2,
		ToolTimeout:   8 * time.Second,
		MaxAgentSteps: 10,

		Analysts: []string{"market", "social", "news", "fundamentals"},

		ParallelAnalysts: true,
		OnlineTools:      true,
		CacheEnabled:     true,
		Debug:            false,
	}
}

// ApplyEnv overlays environment variables onto c. Only variables that are
// actually set override the current values.
func (c *Config) ApplyEnv() {
	setStr := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(dst *int, key string) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	setStr(&c.LLMProvider, "TRADEDESK_LLM_PROVIDER")
	setStr(&c.BackendURL, "TRADEDESK_BACKEND_URL")
	setStr(&c.DeepThinkLLM, "TRADEDESK_DEEP_THINK_LLM")
	setStr(&c.QuickThinkLLM, "TRADEDESK_QUICK_THINK_LLM")
	setStr(&c.APIKey, "OPENAI_API_KEY")
	setStr(&c.APIKey, "DEEPSEEK_API_KEY")
	setStr(&c.EmbeddingAPIKey, "OPENAI_API_KEY")
	setStr(&c.FinnhubAPIKey, "FINNHUB_API_KEY")
	setInt(&c.MaxDebateRounds, "TRADEDESK_MAX_DEBATE_ROUNDS")
	setInt(&c.MaxRiskDiscussRounds, "TRADEDESK_MAX_RISK_ROUNDS")
	setInt(&c.MaxRecurLimit, "TRADEDESK_MAX_RECUR_LIMIT")
}

// Validate rejects configurations the router cannot run with. These are
// protocol errors: they abort before a run starts rather than mid-flight.
func (c *Config) Validate() error {
	if len(c.Analysts) == 0 {
		return fmt.Errorf("config: at least one analyst must be configured")
	}
	if c.MaxDebateRounds < 1 {
		return fmt.Errorf("config: max_debate_rounds must be >= 1, got %d", c.MaxDebateRounds)
	}
	if c.MaxRiskDiscussRounds < 1 {
		return fmt.Errorf("config: max_risk_discuss_rounds must be >= 1, got %d", c.MaxRiskDiscussRounds)
	}
	if c.MaxRecurLimit < 1 {
		return fmt.Errorf("config: max_recur_limit must be >= 1, got %d", c.MaxRecurLimit)
	}
	seen := map[string]bool{}
	for _, a := range c.Analysts {
		if seen[a] {
			return fmt.Errorf("config: duplicate analyst %q", a)
		}
		seen[a] = true
	}
	return nil
}

func (c *Config) EnsureDirectories() error {
	dirs := []string{c.ResultsDir, c.DataDir, c.DataCacheDir}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}
