// Package plaid adapts the Plaid API client to the syncer.Aggregator contract.
package plaid

import (
	"context"
	"errors"
	"fmt"

	"github.com/plaid/plaid-go/v29/plaid"

	"github.com/eqtlab/ledger-syncer/ledger"
	"github.com/eqtlab/ledger-syncer/pkg/envjson"
)

const (
	EnvProduction = "production"
	EnvSandbox    = "sandbox"
)

type Config struct {
	ClientID      string             `env:"CLIENT_ID"`
	Secret        string             `env:"SECRET"`
	Environment   string             `env:"ENV, default=production"`
	CountryCodes  envjson.StringList `env:"COUNTRY_CODES, default=[\"US\"]"`
	PageSize      int32              `env:"PAGE_SIZE, default=500"`
	DaysRequested int32              `env:"DAYS_REQUESTED, default=365"`
}

var ErrUnknownEnvironment = errors.New("unknown plaid environment")

type Client struct {
	api *plaid.PlaidApiService
	cfg Config
}

func New(cfg Config) (*Client, error) {
	env, err := environment(cfg.Environment)
	if err != nil {
		return nil, err
	}

	conf := plaid.NewConfiguration()
	conf.AddDefaultHeader("PLAID-CLIENT-ID", cfg.ClientID)
	conf.AddDefaultHeader("PLAID-SECRET", cfg.Secret)
	conf.UseEnvironment(env)

	return &Client{
		api: plaid.NewAPIClient(conf).PlaidApi,
		cfg: cfg,
	}, nil
}

func environment(name string) (plaid.Environment, error) {
	switch name {
	case EnvProduction, "":
		return plaid.Production, nil
	case EnvSandbox:
		return plaid.Sandbox, nil
	default:
		return plaid.Production, fmt.Errorf("%w: %q", ErrUnknownEnvironment, name)
	}
}

func (c *Client) countryCodes() []plaid.CountryCode {
	if len(c.cfg.CountryCodes) == 0 {
		return []plaid.CountryCode{plaid.COUNTRYCODE_US}
	}

	codes := make([]plaid.CountryCode, 0, len(c.cfg.CountryCodes))
	for _, code := range c.cfg.CountryCodes {
		codes = append(codes, plaid.CountryCode(code))
	}
	return codes
}

func (c *Client) ListInstitutionAccounts(ctx context.Context, accessToken string) (*ledger.AccountsSnapshot, error) {
	req := plaid.NewAccountsGetRequest(accessToken)

	resp, _, err := c.api.AccountsGet(ctx).AccountsGetRequest(*req).Execute()
	if err != nil {
		return nil, fmt.Errorf("get accounts: %w", apiError(err))
	}

	item := resp.GetItem()
	snapshot := &ledger.AccountsSnapshot{
		InstitutionID: item.GetInstitutionId(),
	}
	for _, acct := range resp.GetAccounts() {
		snapshot.Accounts = append(snapshot.Accounts, toRawAccount(acct))
	}

	return snapshot, nil
}

func (c *Client) GetInstitution(ctx context.Context, institutionID string) (*ledger.InstitutionMeta, error) {
	req := plaid.NewInstitutionsGetByIdRequest(institutionID, c.countryCodes())

	resp, _, err := c.api.InstitutionsGetById(ctx).InstitutionsGetByIdRequest(*req).Execute()
	if err != nil {
		return nil, fmt.Errorf("get institution: %w", apiError(err))
	}

	inst := resp.GetInstitution()
	return &ledger.InstitutionMeta{
		InstitutionID: inst.GetInstitutionId(),
		Name:          inst.GetName(),
	}, nil
}

func (c *Client) FetchTransactionDelta(ctx context.Context, accessToken string, cursor *string) (*ledger.DeltaPage, error) {
	opts := plaid.NewTransactionsSyncRequestOptions()
	opts.SetIncludeOriginalDescription(true)
	opts.SetDaysRequested(c.cfg.DaysRequested)

	req := plaid.NewTransactionsSyncRequest(accessToken)
	req.SetCount(c.cfg.PageSize)
	req.SetOptions(*opts)
	if cursor != nil {
		req.SetCursor(*cursor)
	}

	resp, _, err := c.api.TransactionsSync(ctx).TransactionsSyncRequest(*req).Execute()
	if err != nil {
		return nil, fmt.Errorf("sync transactions: %w", apiError(err))
	}

	page := &ledger.DeltaPage{
		HasMore:    resp.GetHasMore(),
		NextCursor: resp.GetNextCursor(),
	}
	for _, tx := range resp.GetAdded() {
		page.Added = append(page.Added, toRawTransaction(tx))
	}
	for _, tx := range resp.GetModified() {
		page.Modified = append(page.Modified, toRawTransaction(tx))
	}
	for _, removed := range resp.GetRemoved() {
		page.Removed = append(page.Removed, removed.GetTransactionId())
	}

	return page, nil
}

// APIError carries the Plaid error code, the request never leaks into it.
type APIError struct {
	Type    string
	Code    string
	Message string
	Err     error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("plaid %s %s: %s", e.Type, e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func apiError(err error) error {
	plaidErr, convErr := plaid.ToPlaidError(err)
	if convErr != nil {
		return err
	}

	return &APIError{
		Type:    string(plaidErr.GetErrorType()),
		Code:    plaidErr.GetErrorCode(),
		Message: plaidErr.GetErrorMessage(),
		Err:     err,
	}
}
