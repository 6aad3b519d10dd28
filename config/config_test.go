package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eqtlab/ledger-syncer/pkg/envjson"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := parse(context.Background(), envconfig.MapLookuper(map[string]string{
		"DB_URL": "postgres://localhost/ledger",
	}))
	require.NoError(t, err)

	assert.False(t, cfg.Debug)
	assert.Equal(t, "postgres://localhost/ledger", cfg.DB.URL)
	assert.True(t, cfg.DB.Migrate)
	assert.Equal(t, "production", cfg.Plaid.Environment)
	assert.Equal(t, envjson.StringList{"US"}, cfg.Plaid.CountryCodes)
	assert.EqualValues(t, 500, cfg.Plaid.PageSize)
	assert.EqualValues(t, 365, cfg.Plaid.DaysRequested)
	assert.Empty(t, cfg.Tokens)
	assert.False(t, cfg.Coinbase.Enabled())
	assert.Equal(t, "https://api.coinbase.com", cfg.Coinbase.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Coinbase.Timeout)
	assert.True(t, cfg.Syncer.RefreshAccounts)
	assert.Empty(t, cfg.Syncer.DumpDir)
	assert.True(t, cfg.Export.Enabled)
	assert.Equal(t, "TX_DATABASE.csv", cfg.Export.Path)
	assert.Equal(t, "2023-09-01", cfg.Export.CryptoSince)

	assert.ErrorIs(t, cfg.RequirePlaid(), ErrInvalidConfig)
	assert.ErrorIs(t, cfg.RequireTokens(), ErrInvalidConfig)
}

func TestParse_Full(t *testing.T) {
	cfg, err := parse(context.Background(), envconfig.MapLookuper(map[string]string{
		"APP_DEBUG":                       "true",
		"DB_URL":                          "postgres://localhost/ledger",
		"DB_MIGRATE":                      "false",
		"PLAID_CLIENT_ID":                 "client",
		"PLAID_SECRET":                    "secret",
		"PLAID_ENV":                       "sandbox",
		"TOKENS":                          `["access-1","access-2"]`,
		"COINBASE_API_KEY":                "key",
		"COINBASE_API_SECRET":             "cb-secret",
		"COINBASE_TRACKED_CURRENCY_CODES": `["BTC","ETH"]`,
		"SYNCER_REFRESH_ACCOUNTS":         "false",
		"SYNCER_DUMP_DIR":                 "/tmp/dumps",
		"EXPORT_ENABLED":                  "false",
		"EXPORT_PATH":                     "out.csv",
	}))
	require.NoError(t, err)

	assert.True(t, cfg.Debug)
	assert.False(t, cfg.DB.Migrate)
	assert.Equal(t, "sandbox", cfg.Plaid.Environment)
	assert.Equal(t, envjson.StringList{"access-1", "access-2"}, cfg.Tokens)
	assert.True(t, cfg.Coinbase.Enabled())
	assert.True(t, cfg.Coinbase.TrackedCurrencyCodes.Contains("ETH"))
	assert.False(t, cfg.Syncer.RefreshAccounts)
	assert.Equal(t, "/tmp/dumps", cfg.Syncer.DumpDir)
	assert.False(t, cfg.Export.Enabled)
	assert.Equal(t, "out.csv", cfg.Export.Path)

	assert.NoError(t, cfg.RequirePlaid())
	assert.NoError(t, cfg.RequireTokens())
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{
			name: "missing db url",
			env:  map[string]string{},
		},
		{
			name: "malformed token list",
			env:  map[string]string{"DB_URL": "postgres://x", "TOKENS": "access-1,access-2"},
		},
		{
			name: "coinbase key without secret",
			env:  map[string]string{"DB_URL": "postgres://x", "COINBASE_API_KEY": "key", "COINBASE_TRACKED_CURRENCY_CODES": `["BTC"]`},
		},
		{
			name: "coinbase without tracked currencies",
			env:  map[string]string{"DB_URL": "postgres://x", "COINBASE_API_KEY": "key", "COINBASE_API_SECRET": "s"},
		},
		{
			name: "bad export date",
			env:  map[string]string{"DB_URL": "postgres://x", "EXPORT_CRYPTO_SINCE": "yesterday"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parse(context.Background(), envconfig.MapLookuper(tt.env))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("LEDGER_SYNCER_TEST_VAR=from-file\n"), 0o600))
	t.Setenv("LEDGER_SYNCER_TEST_VAR", "")
	require.NoError(t, os.Unsetenv("LEDGER_SYNCER_TEST_VAR"))

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv("LEDGER_SYNCER_TEST_VAR"))
}

func TestParse_ExchangeNotConfigured(t *testing.T) {
	cfg, err := parse(context.Background(), envconfig.MapLookuper(map[string]string{
		"DB_URL":          "postgres://localhost/ledger",
		"PLAID_CLIENT_ID": "client",
		"PLAID_SECRET":    "secret",
		"TOKENS":          `["access-1"]`,
	}))
	require.NoError(t, err)

	assert.False(t, cfg.Coinbase.Enabled())
	assert.Empty(t, cfg.Coinbase.TrackedCurrencyCodes)
	assert.Equal(t, envjson.StringList{"access-1"}, cfg.Tokens)
}
