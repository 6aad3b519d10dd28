package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/eqtlab/ledger-syncer/ledger"
	"github.com/eqtlab/ledger-syncer/pkg/db"
)

var transactionColumns = []string{
	"transaction_id",
	"account_id",
	"amount",
	"iso_currency_code",
	"primary_category",
	"detailed_category",
	"confidence_level",
	"date",
	"datetime",
	"authorized_date",
	"authorized_datetime",
	"name",
	"merchant_name",
	"payment_channel",
	"payment_processor",
	"address",
	"city",
	"region",
	"postal_code",
	"country",
	"pending",
}

func insertTransactions(txs []ledger.Transaction) sq.InsertBuilder {
	query := sq.
		Insert("transactions").
		Columns(transactionColumns...)

	for _, tx := range txs {
		query = query.Values(
			tx.TransactionID,
			tx.AccountID,
			tx.Amount,
			tx.ISOCurrencyCode,
			tx.PrimaryCategory,
			tx.DetailedCategory,
			tx.ConfidenceLevel,
			tx.Date,
			tx.Datetime,
			tx.AuthorizedDate,
			tx.AuthorizedDatetime,
			tx.Name,
			tx.MerchantName,
			tx.PaymentChannel,
			tx.PaymentProcessor,
			tx.Address,
			tx.City,
			tx.Region,
			tx.PostalCode,
			tx.Country,
			tx.Pending,
		)
	}

	return query
}

// CreateTransactions returns the number of rows actually inserted.
func (s *Storage) CreateTransactions(ctx context.Context, txs []ledger.Transaction) (int64, error) {
	if len(txs) == 0 {
		return 0, nil
	}

	var inserted int64
	for _, batch := range batches(txs, maxBatchRows) {
		query := insertTransactions(batch).Suffix("on conflict do nothing")

		n, err := s.db.Exec(ctx, query)
		if err != nil {
			return inserted, fmt.Errorf("insert transactions: %w", err)
		}
		inserted += n
	}

	return inserted, nil
}

func (s *Storage) UpsertTransactions(ctx context.Context, txs []ledger.Transaction) error {
	txs = dedupe(txs, func(tx ledger.Transaction) string { return tx.TransactionID })
	if len(txs) == 0 {
		return nil
	}

	for _, batch := range batches(txs, maxBatchRows) {
		query := insertTransactions(batch).
			Suffix("on conflict (transaction_id) do update set " + excludedSet(transactionColumns[1:]))

		if _, err := s.db.Exec(ctx, query); err != nil {
			return fmt.Errorf("upsert transactions: %w", err)
		}
	}

	return nil
}

// DeleteTransactions returns the number of rows deleted, ids that don't exist are skipped.
func (s *Storage) DeleteTransactions(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	var deleted int64
	for _, batch := range batches(ids, maxBatchRows) {
		query := sq.
			Delete("transactions").
			Where(sq.Eq{"transaction_id": batch})

		n, err := s.db.Exec(ctx, query)
		if err != nil {
			return deleted, fmt.Errorf("delete transactions: %w", err)
		}
		deleted += n
	}

	return deleted, nil
}

func (s *Storage) ListTransactions(ctx context.Context) ([]ledger.Transaction, error) {
	query := sq.
		Select(transactionColumns...).
		From("transactions").
		OrderBy("id")

	var txs []ledger.Transaction
	err := s.db.Select(ctx, query, db.ScanAll(&txs, func(tx *ledger.Transaction) db.ScanArgs {
		return db.ScanArgs{
			&tx.TransactionID,
			&tx.AccountID,
			&tx.Amount,
			&tx.ISOCurrencyCode,
			&tx.PrimaryCategory,
			&tx.DetailedCategory,
			&tx.ConfidenceLevel,
			&tx.Date,
			&tx.Datetime,
			&tx.AuthorizedDate,
			&tx.AuthorizedDatetime,
			&tx.Name,
			&tx.MerchantName,
			&tx.PaymentChannel,
			&tx.PaymentProcessor,
			&tx.Address,
			&tx.City,
			&tx.Region,
			&tx.PostalCode,
			&tx.Country,
			&tx.Pending,
		}
	}))
	if db.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("db select: %w", err)
	}

	for i := range txs {
		txs[i].Date = txs[i].Date.UTC()
		txs[i].Datetime = utcPtr(txs[i].Datetime)
		txs[i].AuthorizedDate = utcPtr(txs[i].AuthorizedDate)
		txs[i].AuthorizedDatetime = utcPtr(txs[i].AuthorizedDatetime)
	}

	return txs, nil
}
