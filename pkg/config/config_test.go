package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonasrmichel/solana-cycles/pkg/attribute"
	"github.com/jonasrmichel/solana-cycles/pkg/mints"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	reg, topo, err := cfg.BuildGraph()
	require.NoError(t, err)
	assert.Equal(t, 6, reg.NodeCount())
	assert.Equal(t, 24, topo.EdgeCount())
	assert.Nil(t, cfg.Constraints())

	rc := cfg.ToRefresherConfig()
	assert.Equal(t, 50*time.Millisecond, rc.StalenessThreshold)
	assert.Equal(t, 50, rc.MaxConcurrency)
	assert.Equal(t, 10*time.Millisecond, rc.Interval)
	assert.Equal(t, uint64(1_000_000_000), rc.Amount)
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
quote:
  slippage_bps: 30
  only_direct_routes: true
  exclude_dexes: [Obric V2]
refresh:
  staleness_threshold: 250ms
  max_concurrency: 8
search:
  start_symbol: usdc
  max_depth: 3
  every: 2s
tokens:
  - symbol: WSOL
    mint: So11111111111111111111111111111111111111112
    decimals: 9
  - symbol: USDC
    mint: EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v
    decimals: 6
routes:
  - {a: WSOL, b: USDC}
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 250*time.Millisecond, cfg.Refresh.StalenessThreshold)
	assert.Equal(t, 8, cfg.Refresh.MaxConcurrency)
	assert.Equal(t, 10*time.Millisecond, cfg.Refresh.Interval, "unset keys keep defaults")
	assert.Equal(t, 3, cfg.Search.MaxDepth)
	assert.Equal(t, 2*time.Second, cfg.Search.Every)
	assert.Len(t, cfg.Tokens, 2)
	assert.Equal(t, []mints.Route{{A: "WSOL", B: "USDC"}}, cfg.Routes)

	c := cfg.Constraints()
	require.NotNil(t, c)
	assert.Equal(t, 30, c.SlippageBps)
	assert.True(t, c.OnlyDirectRoutes)
	assert.Equal(t, []string{"Obric V2"}, c.ExcludeDexes)
	assert.Equal(t, c, cfg.ToRefresherConfig().Constraints)
}

func TestLoadFromFile_Errors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadFromFile(writeConfig(t, "refresh: [not, a, map]"))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("JUPITER_API_KEY", "secret")
	t.Setenv("SOLANA_RPC_URL", "http://localhost:8899")
	t.Setenv("SLACK_API_TOKEN", "xoxb-1")
	t.Setenv("SLACK_CHANNEL", "#cycles")
	t.Setenv("SLACK_ENABLED", "true")
	t.Setenv("CYCLES_REFRESH_STALENESS", "1s")
	t.Setenv("CYCLES_REFRESH_MAX_CONCURRENCY", "12")
	t.Setenv("CYCLES_SEARCH_START", "USDT")
	t.Setenv("CYCLES_SEARCH_MAX_DEPTH", "not-a-number")
	t.Setenv("CYCLES_SEARCH_USE_CACHE", "false")
	t.Setenv("CYCLES_HTTP_ADDR", "127.0.0.1:9999")

	cfg := LoadFromEnv()

	assert.Equal(t, "secret", cfg.Jupiter.APIKey)
	assert.Equal(t, "secret", cfg.ToClientConfig().APIKey)
	assert.Equal(t, "http://localhost:8899", cfg.ToSolanaConfig().RPCURL)
	assert.Equal(t, "xoxb-1", cfg.Slack.APIToken)
	assert.Equal(t, "#cycles", cfg.Slack.Channel)
	assert.True(t, cfg.Slack.Enabled)
	assert.Equal(t, time.Minute, cfg.Slack.Cooldown)
	assert.Equal(t, time.Second, cfg.Refresh.StalenessThreshold)
	assert.Equal(t, 12, cfg.Refresh.MaxConcurrency)
	assert.Equal(t, "USDT", cfg.Search.StartSymbol)
	assert.Equal(t, 4, cfg.Search.MaxDepth, "unparsable values are ignored")
	assert.False(t, cfg.Search.UseCache)
	assert.Equal(t, "127.0.0.1:9999", cfg.Server.Addr)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero concurrency", func(c *Config) { c.Refresh.MaxConcurrency = 0 }},
		{"negative staleness", func(c *Config) { c.Refresh.StalenessThreshold = -time.Second }},
		{"zero interval", func(c *Config) { c.Refresh.Interval = 0 }},
		{"zero search amount", func(c *Config) { c.Search.Amount = 0 }},
		{"zero depth", func(c *Config) { c.Search.MaxDepth = 0 }},
		{"no cache age", func(c *Config) { c.Search.CacheMaxAge = 0 }},
		{"no addr", func(c *Config) { c.Server.Addr = "" }},
		{"no routes", func(c *Config) { c.Routes = nil }},
		{"unknown start", func(c *Config) { c.Search.StartSymbol = "BONK" }},
		{"unknown route symbol", func(c *Config) { c.Routes = append(c.Routes, mints.Route{A: "WSOL", B: "BONK"}) }},
		{"bad mint", func(c *Config) { c.Tokens[0].Mint = "not-base58!" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
		})
	}
}

func TestSaveToFile_RoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Search.MaxDepth = 5
	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 5, loaded.Search.MaxDepth)
	assert.Equal(t, cfg.Refresh, loaded.Refresh)
	assert.Equal(t, cfg.Tokens, loaded.Tokens)
}

func TestToSearchConfig(t *testing.T) {
	cfg := DefaultConfig()
	cache := attribute.NewCache(24)

	sc := cfg.ToSearchConfig(cache)
	assert.Same(t, cache, sc.Cache)
	assert.Equal(t, time.Second, sc.CacheMaxAge)

	cfg.Search.UseCache = false
	assert.Nil(t, cfg.ToSearchConfig(cache).Cache)
}
