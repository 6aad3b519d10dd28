package syncer

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/eqtlab/ledger-syncer/ledger"
)

// ReconcileInstitution fetches the institution and accounts behind accessToken and upserts them.
// Calling it again with unchanged upstream data leaves the storage unchanged.
func (s *Syncer) ReconcileInstitution(ctx context.Context, accessToken string) (*ledger.Institution, error) {
	institution, _, err := s.reconcile(ctx, accessToken)
	if err != nil {
		return nil, err
	}
	return institution, nil
}

func (s *Syncer) reconcile(ctx context.Context, accessToken string) (*ledger.Institution, []ledger.Account, error) {
	snapshot, err := s.aggregator.ListInstitutionAccounts(ctx, accessToken)
	if err != nil {
		return nil, nil, &FetchError{Op: "accounts", Err: err}
	}

	if snapshot.InstitutionID == "" {
		return nil, nil, ErrNoInstitution
	}

	meta, err := s.aggregator.GetInstitution(ctx, snapshot.InstitutionID)
	if err != nil {
		return nil, nil, &FetchError{Op: "institution", ID: snapshot.InstitutionID, Err: err}
	}

	institution := ledger.Institution{
		InstitutionID: meta.InstitutionID,
		Name:          meta.Name,
		AccessToken:   accessToken,
	}

	accounts := make([]ledger.Account, 0, len(snapshot.Accounts))
	for _, raw := range snapshot.Accounts {
		accounts = append(accounts, ledger.NormalizeAccount(raw, institution.InstitutionID))
	}

	if err := s.storage.SaveInstitution(ctx, institution, accounts); err != nil {
		return nil, nil, fmt.Errorf("save institution %s: %w", institution.InstitutionID, err)
	}

	s.logger.Info(
		"institution reconciled",
		zap.Object("institution", institution),
		zap.Int("accounts", len(accounts)),
	)

	return &institution, accounts, nil
}

// OnboardInstitutions reconciles every access token. A failing token doesn't stop the others.
func (s *Syncer) OnboardInstitutions(ctx context.Context, tokens []string) ([]ledger.Institution, error) {
	var (
		institutions []ledger.Institution
		errs         []error
	)

	for i, token := range tokens {
		institution, err := s.ReconcileInstitution(ctx, token)
		if err != nil {
			// tokens are secrets, refer to them by position
			s.logger.Error("failed to onboard institution", zap.Int("token_index", i), zap.Error(err))
			errs = append(errs, fmt.Errorf("token #%d: %w", i, err))
			continue
		}
		institutions = append(institutions, *institution)
	}

	return institutions, errors.Join(errs...)
}

// RefreshBalances reconciles every stored institution and logs the balance of each account.
func (s *Syncer) RefreshBalances(ctx context.Context) ([]ledger.Account, error) {
	institutions, err := s.storage.ListInstitutions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list institutions: %w", err)
	}

	var (
		all  []ledger.Account
		errs []error
	)

	for _, inst := range institutions {
		_, accounts, err := s.reconcile(ctx, inst.AccessToken)
		if err != nil {
			s.logger.Error("failed to refresh balances", zap.Object("institution", inst), zap.Error(err))
			errs = append(errs, fmt.Errorf("institution %s: %w", inst.InstitutionID, err))
			continue
		}

		for _, acct := range accounts {
			s.logger.Info(
				"account balance",
				zap.String("institution_id", inst.InstitutionID),
				zap.String("account_id", acct.AccountID),
				zap.String("name", acct.Name),
				zap.String("available", formatNull(acct.Available)),
				zap.String("current", formatNull(acct.Current)),
				zap.String("limit", formatNull(acct.Limit)),
			)
		}
		all = append(all, accounts...)
	}

	return all, errors.Join(errs...)
}

func formatNull(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}
