// Package coinbase is a read-only client for the Coinbase v2 API signed with an API key.
package coinbase

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/eqtlab/ledger-syncer/ledger"
	"github.com/eqtlab/ledger-syncer/pkg/envjson"
)

const apiVersion = "2015-07-22"

type Config struct {
	APIKey               string             `env:"API_KEY"`
	APISecret            string             `env:"API_SECRET"`
	TrackedCurrencyCodes envjson.StringList `env:"TRACKED_CURRENCY_CODES"`
	BaseURL              string             `env:"BASE_URL, default=https://api.coinbase.com"`
	Timeout              time.Duration      `env:"TIMEOUT, default=30s"`
}

// Enabled reports whether both credentials are present.
func (c Config) Enabled() bool {
	return c.APIKey != "" && c.APISecret != ""
}

type Client struct {
	cfg  Config
	http *http.Client
	now  func() time.Time
}

func New(cfg Config) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		now:  time.Now,
	}
}

// APIError is a non-2xx response.
type APIError struct {
	StatusCode int
	Messages   []string
}

func (e *APIError) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("coinbase api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("coinbase api: status %d: %s", e.StatusCode, strings.Join(e.Messages, "; "))
}

type pagination struct {
	NextURI string `json:"next_uri"`
}

type page[T any] struct {
	Pagination *pagination `json:"pagination"`
	Data       []T         `json:"data"`
}

type errorBody struct {
	Errors []struct {
		ID      string `json:"id"`
		Message string `json:"message"`
	} `json:"errors"`
}

// ListTrackedAccounts returns the accounts whose currency code is in TrackedCurrencyCodes.
func (c *Client) ListTrackedAccounts(ctx context.Context) ([]ledger.ExchangeAccount, error) {
	accounts, err := getAll[ledger.ExchangeAccount](ctx, c, "/v2/accounts")
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	tracked := make([]ledger.ExchangeAccount, 0, len(accounts))
	for _, acct := range accounts {
		if c.cfg.TrackedCurrencyCodes.Contains(acct.CurrencyCode()) {
			tracked = append(tracked, acct)
		}
	}

	return tracked, nil
}

// ListAccountTransactions follows pagination until the account's history is exhausted.
func (c *Client) ListAccountTransactions(ctx context.Context, accountID string) ([]ledger.RawCryptoTransaction, error) {
	txs, err := getAll[ledger.RawCryptoTransaction](ctx, c, "/v2/accounts/"+accountID+"/transactions")
	if err != nil {
		return nil, fmt.Errorf("list transactions of account %s: %w", accountID, err)
	}

	return txs, nil
}

func getAll[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	var all []T

	for next := path; next != ""; {
		var p page[T]
		if err := c.get(ctx, next, &p); err != nil {
			return nil, err
		}
		all = append(all, p.Data...)

		next = ""
		if p.Pagination != nil {
			next = p.Pagination.NextURI
		}
	}

	return all, nil
}

func (c *Client) get(ctx context.Context, requestPath string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(c.cfg.BaseURL, "/")+requestPath, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	timestamp := strconv.FormatInt(c.now().Unix(), 10)
	req.Header.Set("CB-ACCESS-KEY", c.cfg.APIKey)
	req.Header.Set("CB-ACCESS-SIGN", sign(c.cfg.APISecret, timestamp, http.MethodGet, requestPath, ""))
	req.Header.Set("CB-ACCESS-TIMESTAMP", timestamp)
	req.Header.Set("CB-VERSION", apiVersion)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var eb errorBody
		if json.Unmarshal(body, &eb) == nil {
			for _, e := range eb.Errors {
				apiErr.Messages = append(apiErr.Messages, e.ID+": "+e.Message)
			}
		}
		return apiErr
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

// sign is the hex HMAC-SHA256 of timestamp+method+path+body keyed by the API secret.
func sign(secret, timestamp, method, requestPath, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp + method + requestPath + body))
	return hex.EncodeToString(mac.Sum(nil))
}
