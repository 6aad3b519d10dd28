package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/eqtlab/ledger-syncer/ledger"
	"github.com/eqtlab/ledger-syncer/pkg/db"
)

var accountColumns = []string{
	"account_id",
	"institution_id",
	"name",
	"type",
	"iso_currency_code",
	"mask",
	"balance_available",
	"balance_current",
	"balance_limit",
}

func upsertAccounts(ctx context.Context, conn *db.DB, accounts []ledger.Account) error {
	accounts = dedupe(accounts, func(a ledger.Account) string { return a.AccountID })
	if len(accounts) == 0 {
		return nil
	}

	for _, batch := range batches(accounts, maxBatchRows) {
		query := sq.
			Insert("accounts").
			Columns(accountColumns...).
			Suffix("on conflict (account_id) do update set " + excludedSet(accountColumns[1:]))

		for _, acct := range batch {
			query = query.Values(
				acct.AccountID,
				acct.InstitutionID,
				acct.Name,
				acct.Type,
				acct.ISOCurrencyCode,
				acct.Mask,
				acct.Available,
				acct.Current,
				acct.Limit,
			)
		}

		if _, err := conn.Exec(ctx, query); err != nil {
			return fmt.Errorf("db insert: %w", err)
		}
	}

	return nil
}

func (s *Storage) ListAccounts(ctx context.Context) ([]ledger.Account, error) {
	query := sq.
		Select(accountColumns...).
		From("accounts").
		OrderBy("id")

	var accounts []ledger.Account
	err := s.db.Select(ctx, query, db.ScanAll(&accounts, func(a *ledger.Account) db.ScanArgs {
		return db.ScanArgs{
			&a.AccountID,
			&a.InstitutionID,
			&a.Name,
			&a.Type,
			&a.ISOCurrencyCode,
			&a.Mask,
			&a.Available,
			&a.Current,
			&a.Limit,
		}
	}))
	if db.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("db select: %w", err)
	}

	return accounts, nil
}
