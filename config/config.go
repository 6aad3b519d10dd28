package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"

	"github.com/eqtlab/ledger-syncer/export"
	"github.com/eqtlab/ledger-syncer/pkg/coinbase"
	"github.com/eqtlab/ledger-syncer/pkg/envjson"
	"github.com/eqtlab/ledger-syncer/pkg/plaid"
	"github.com/eqtlab/ledger-syncer/pkg/postgres"
	"github.com/eqtlab/ledger-syncer/syncer"
)

// ErrInvalidConfig is returned for missing credentials and malformed values.
var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Debug    bool               `env:"APP_DEBUG"`
	DB       postgres.Config    `env:",prefix=DB_"`
	Plaid    plaid.Config       `env:",prefix=PLAID_"`
	Tokens   envjson.StringList `env:"TOKENS"` // Access tokens to onboard with the init command
	Coinbase coinbase.Config    `env:",prefix=COINBASE_"`
	Syncer   syncer.Config      `env:",prefix=SYNCER_"`
	Export   export.Config      `env:",prefix=EXPORT_"`
}

// LoadDotEnv copies variables from a .env file into the process environment.
// Variables that are already set win, and a missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func ParseEnv(ctx context.Context) (Config, error) {
	return parse(ctx, envconfig.OsLookuper())
}

func parse(ctx context.Context, l envconfig.Lookuper) (Config, error) {
	cfg := Config{}
	if err := envconfig.ProcessWith(ctx, &cfg, l); err != nil {
		return cfg, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate checks the settings every command relies on.
func (c Config) Validate() error {
	if (c.Coinbase.APIKey == "") != (c.Coinbase.APISecret == "") {
		return fmt.Errorf("%w: COINBASE_API_KEY and COINBASE_API_SECRET must be set together", ErrInvalidConfig)
	}

	if c.Coinbase.Enabled() && len(c.Coinbase.TrackedCurrencyCodes) == 0 {
		return fmt.Errorf("%w: COINBASE_TRACKED_CURRENCY_CODES is empty", ErrInvalidConfig)
	}

	if _, err := c.Export.Since(); err != nil {
		return fmt.Errorf("%w: EXPORT_CRYPTO_SINCE: %w", ErrInvalidConfig, err)
	}

	return nil
}

// RequirePlaid fails when the aggregation provider credentials are missing.
func (c Config) RequirePlaid() error {
	if c.Plaid.ClientID == "" || c.Plaid.Secret == "" {
		return fmt.Errorf("%w: PLAID_CLIENT_ID and PLAID_SECRET are required", ErrInvalidConfig)
	}
	return nil
}

// RequireTokens fails when there is nothing to onboard.
func (c Config) RequireTokens() error {
	if len(c.Tokens) == 0 {
		return fmt.Errorf("%w: TOKENS is empty", ErrInvalidConfig)
	}
	return nil
}
