// Package config provides configuration management for the cycle finder.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jonasrmichel/solana-cycles/pkg/attribute"
	"github.com/jonasrmichel/solana-cycles/pkg/feed"
	"github.com/jonasrmichel/solana-cycles/pkg/graph"
	"github.com/jonasrmichel/solana-cycles/pkg/jupiter"
	"github.com/jonasrmichel/solana-cycles/pkg/logging"
	"github.com/jonasrmichel/solana-cycles/pkg/mints"
	"github.com/jonasrmichel/solana-cycles/pkg/notifier"
	"github.com/jonasrmichel/solana-cycles/pkg/quote"
	"github.com/jonasrmichel/solana-cycles/pkg/search"
	"github.com/jonasrmichel/solana-cycles/pkg/solana"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds the complete configuration.
type Config struct {
	Jupiter JupiterSettings      `yaml:"jupiter"`
	Solana  SolanaSettings       `yaml:"solana"`
	Quote   quote.Constraints    `yaml:"quote"`
	Refresh RefreshSettings      `yaml:"refresh"`
	Search  SearchSettings       `yaml:"search"`
	Logging logging.Config       `yaml:"logging"`
	Server  ServerSettings       `yaml:"server"`
	Slack   notifier.SlackConfig `yaml:"slack"`

	Tokens []mints.Token `yaml:"tokens"`
	Routes []mints.Route `yaml:"routes"` // Each route adds both directions
}

// JupiterSettings configures the quote API client.
type JupiterSettings struct {
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
}

// SolanaSettings configures the RPC endpoint used to verify token mints.
type SolanaSettings struct {
	RPCURL     string `yaml:"rpc_url"`
	Commitment string `yaml:"commitment"`
}

// RefreshSettings configures the edge refresher.
type RefreshSettings struct {
	StalenessThreshold time.Duration `yaml:"staleness_threshold"`
	MaxConcurrency     int           `yaml:"max_concurrency"`
	Interval           time.Duration `yaml:"interval"`
	Amount             uint64        `yaml:"amount"` // Base units of each edge's input token
}

// SearchSettings configures cycle searches.
type SearchSettings struct {
	StartSymbol string        `yaml:"start_symbol"`
	Amount      uint64        `yaml:"amount"`
	MaxDepth    int           `yaml:"max_depth"`
	UseCache    bool          `yaml:"use_cache"`
	CacheMaxAge time.Duration `yaml:"cache_max_age"`
	Every       time.Duration `yaml:"every"`  // Period of searches while refreshing
	Output      string        `yaml:"output"` // text, json or csv
}

// ServerSettings configures the admin HTTP server.
type ServerSettings struct {
	Enabled        bool          `yaml:"enabled"`
	Addr           string        `yaml:"addr"`
	FeedSendBuffer int           `yaml:"feed_send_buffer"`
	FeedPing       time.Duration `yaml:"feed_ping"`
}

// DefaultConfig returns the default configuration: six mainnet tokens and
// twelve bidirectional routes between them.
func DefaultConfig() *Config {
	return &Config{
		Jupiter: JupiterSettings{
			BaseURL: jupiter.DefaultBaseURL,
			Timeout: jupiter.DefaultTimeout,
		},
		Solana: SolanaSettings{
			RPCURL:     "https://api.mainnet-beta.solana.com",
			Commitment: "finalized",
		},
		Refresh: RefreshSettings{
			StalenessThreshold: 50 * time.Millisecond,
			MaxConcurrency:     50,
			Interval:           10 * time.Millisecond,
			Amount:             1_000_000_000,
		},
		Search: SearchSettings{
			StartSymbol: "WSOL",
			Amount:      1_000_000_000, // 1 SOL in lamports
			MaxDepth:    4,
			UseCache:    true,
			CacheMaxAge: time.Second,
			Every:       5 * time.Second,
			Output:      "text",
		},
		Logging: logging.Config{
			Level: "info",
		},
		Server: ServerSettings{
			Enabled:        true,
			Addr:           ":9090",
			FeedSendBuffer: 64,
			FeedPing:       30 * time.Second,
		},
		Slack: notifier.SlackConfig{
			Cooldown: time.Minute,
		},
		Tokens: mints.DefaultTokens(),
		Routes: mints.DefaultRoutes(),
	}
}

// LoadFromFile loads configuration from a YAML file over the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Override with environment variables
	cfg.applyEnvOverrides()

	return cfg, nil
}

// LoadFromEnv loads the defaults with environment variable overrides.
func LoadFromEnv() *Config {
	cfg := DefaultConfig()
	cfg.applyEnvOverrides()
	return cfg
}

// Load reads path when it is set, the environment otherwise.
func Load(path string) (*Config, error) {
	if path == "" {
		return LoadFromEnv(), nil
	}
	return LoadFromFile(path)
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	// Jupiter
	if v := os.Getenv("CYCLES_JUPITER_BASE_URL"); v != "" {
		c.Jupiter.BaseURL = v
	}
	if v := os.Getenv("JUPITER_API_KEY"); v != "" {
		c.Jupiter.APIKey = v
	}
	if v := os.Getenv("SOLANA_RPC_URL"); v != "" {
		c.Solana.RPCURL = v
	}

	// Refresh settings
	if v := os.Getenv("CYCLES_REFRESH_STALENESS"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Refresh.StalenessThreshold = d
		}
	}
	if v := os.Getenv("CYCLES_REFRESH_MAX_CONCURRENCY"); v != "" {
		if val, err := parseInt(v); err == nil {
			c.Refresh.MaxConcurrency = val
		}
	}
	if v := os.Getenv("CYCLES_REFRESH_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Refresh.Interval = d
		}
	}

	// Search settings
	if v := os.Getenv("CYCLES_SEARCH_START"); v != "" {
		c.Search.StartSymbol = v
	}
	if v := os.Getenv("CYCLES_SEARCH_MAX_DEPTH"); v != "" {
		if val, err := parseInt(v); err == nil {
			c.Search.MaxDepth = val
		}
	}
	if v := os.Getenv("CYCLES_SEARCH_AMOUNT"); v != "" {
		if val, err := parseUint(v); err == nil {
			c.Search.Amount = val
		}
	}
	if v := os.Getenv("CYCLES_SEARCH_USE_CACHE"); v != "" {
		c.Search.UseCache = strings.ToLower(v) == "true"
	}

	// Slack
	if v := os.Getenv("SLACK_API_TOKEN"); v != "" {
		c.Slack.APIToken = v
	}
	if v := os.Getenv("SLACK_CHANNEL"); v != "" {
		c.Slack.Channel = v
	}
	if v := os.Getenv("SLACK_ENABLED"); v != "" {
		c.Slack.Enabled = strings.ToLower(v) == "true"
	}

	// Logging and server
	if v := os.Getenv("CYCLES_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("CYCLES_LOG_PRETTY"); v != "" {
		c.Logging.Pretty = strings.ToLower(v) == "true"
	}
	if v := os.Getenv("CYCLES_HTTP_ADDR"); v != "" {
		c.Server.Addr = v
	}
}

// SaveToFile saves the configuration to a YAML file.
func (c *Config) SaveToFile(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration, including every token mint and
// route endpoint.
func (c *Config) Validate() error {
	if c.Refresh.MaxConcurrency < 1 {
		return fmt.Errorf("%w: refresh.max_concurrency must be at least 1", ErrInvalidConfig)
	}
	if c.Refresh.StalenessThreshold < 0 {
		return fmt.Errorf("%w: refresh.staleness_threshold cannot be negative", ErrInvalidConfig)
	}
	if c.Refresh.Interval <= 0 {
		return fmt.Errorf("%w: refresh.interval must be positive", ErrInvalidConfig)
	}
	if c.Refresh.Amount == 0 {
		return fmt.Errorf("%w: refresh.amount must be positive", ErrInvalidConfig)
	}
	if c.Search.Amount == 0 {
		return fmt.Errorf("%w: search.amount must be positive", ErrInvalidConfig)
	}
	if c.Search.MaxDepth < 1 {
		return fmt.Errorf("%w: search.max_depth must be at least 1", ErrInvalidConfig)
	}
	if c.Search.Every <= 0 {
		return fmt.Errorf("%w: search.every must be positive", ErrInvalidConfig)
	}
	if c.Search.UseCache && c.Search.CacheMaxAge <= 0 {
		return fmt.Errorf("%w: search.cache_max_age must be positive when use_cache is set", ErrInvalidConfig)
	}
	if c.Server.Enabled && c.Server.Addr == "" {
		return fmt.Errorf("%w: server.addr is required when the server is enabled", ErrInvalidConfig)
	}
	if len(c.Routes) == 0 {
		return fmt.Errorf("%w: at least 1 route is required", ErrInvalidConfig)
	}

	reg, _, err := c.BuildGraph()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := reg.SymbolID(c.Search.StartSymbol); err != nil {
		return fmt.Errorf("%w: search.start_symbol: %w", ErrInvalidConfig, err)
	}

	return nil
}

// BuildGraph builds the token registry and the swap topology.
func (c *Config) BuildGraph() (*mints.Registry, *graph.Topology, error) {
	reg, err := mints.NewRegistry(c.Tokens)
	if err != nil {
		return nil, nil, err
	}
	topo, err := reg.BuildTopology(c.Routes)
	if err != nil {
		return nil, nil, err
	}
	return reg, topo, nil
}

// ToClientConfig converts to jupiter.ClientConfig.
func (c *Config) ToClientConfig() *jupiter.ClientConfig {
	return &jupiter.ClientConfig{
		BaseURL: c.Jupiter.BaseURL,
		APIKey:  c.Jupiter.APIKey,
		Timeout: c.Jupiter.Timeout,
	}
}

// Constraints returns the quote constraints, or nil when none are set.
func (c *Config) Constraints() *quote.Constraints {
	if !hasConstraints(c.Quote) {
		return nil
	}
	constraints := c.Quote
	return &constraints
}

// ToSolanaConfig converts to solana.ClientConfig.
func (c *Config) ToSolanaConfig() *solana.ClientConfig {
	return &solana.ClientConfig{
		RPCURL:     c.Solana.RPCURL,
		Commitment: c.Solana.Commitment,
	}
}

// ToRefresherConfig converts to attribute.Config.
func (c *Config) ToRefresherConfig() *attribute.Config {
	return &attribute.Config{
		StalenessThreshold: c.Refresh.StalenessThreshold,
		MaxConcurrency:     c.Refresh.MaxConcurrency,
		Interval:           c.Refresh.Interval,
		Amount:             c.Refresh.Amount,
		Constraints:        c.Constraints(),
	}
}

// ToSearchConfig converts to search.Config. cache is only attached when
// search.use_cache is set.
func (c *Config) ToSearchConfig(cache *attribute.Cache) *search.Config {
	cfg := &search.Config{Constraints: c.Constraints()}
	if c.Search.UseCache && cache != nil {
		cfg.Cache = cache
		cfg.CacheMaxAge = c.Search.CacheMaxAge
	}
	return cfg
}

// ToHubConfig converts to feed.HubConfig.
func (c *Config) ToHubConfig() *feed.HubConfig {
	return &feed.HubConfig{
		SendBuffer:   c.Server.FeedSendBuffer,
		PingInterval: c.Server.FeedPing,
	}
}

func hasConstraints(q quote.Constraints) bool {
	return q.SlippageBps != 0 || q.SwapMode != "" ||
		len(q.Dexes) > 0 || len(q.ExcludeDexes) > 0 ||
		q.RestrictIntermediateTokens || q.OnlyDirectRoutes || q.AsLegacyTransaction ||
		q.PlatformFeeBps != 0 || q.MaxAccounts != 0 || q.DynamicSlippage
}

// Helper functions
func parseInt(s string) (int, error) {
	var v int
	_, err := fmt.Sscanf(s, "%d", &v)
	return v, err
}

func parseUint(s string) (uint64, error) {
	var v uint64
	_, err := fmt.Sscanf(s, "%d", &v)
	return v, err
}
