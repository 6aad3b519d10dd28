package postgres

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/eqtlab/ledger-syncer/ledger"
	"github.com/eqtlab/ledger-syncer/pkg/db"
)

var cryptoColumns = []string{
	"transaction_id",
	"currency",
	"amount",
	"native_currency",
	"native_amount",
	"transaction_type",
	"primary_category",
	"detailed_category",
	"date",
	"datetime",
	"name",
}

func insertCryptoTransactions(txs []ledger.CryptoTransaction) sq.InsertBuilder {
	query := sq.
		Insert("coinbase_transactions").
		Columns(cryptoColumns...).
		Suffix("on conflict do nothing")

	for _, tx := range txs {
		query = query.Values(
			tx.TransactionID,
			tx.Currency,
			tx.Amount,
			tx.NativeCurrency,
			tx.NativeAmount,
			tx.TransactionType,
			tx.PrimaryCategory,
			tx.DetailedCategory,
			tx.Date,
			tx.Datetime,
			tx.Name,
		)
	}

	return query
}

// CreateCryptoTransactions never updates stored rows and returns the number inserted.
func (s *Storage) CreateCryptoTransactions(ctx context.Context, txs []ledger.CryptoTransaction) (int64, error) {
	var inserted int64
	for _, batch := range batches(txs, maxBatchRows) {
		n, err := s.db.Exec(ctx, insertCryptoTransactions(batch))
		if err != nil {
			return inserted, fmt.Errorf("insert crypto transactions: %w", err)
		}
		inserted += n
	}

	return inserted, nil
}

// ListCryptoTransactions returns transactions created at or after since, in insertion order.
func (s *Storage) ListCryptoTransactions(ctx context.Context, since time.Time) ([]ledger.CryptoTransaction, error) {
	query := sq.
		Select(cryptoColumns...).
		From("coinbase_transactions").
		Where(sq.GtOrEq{"datetime": since}).
		OrderBy("id")

	var txs []ledger.CryptoTransaction
	err := s.db.Select(ctx, query, db.ScanAll(&txs, func(tx *ledger.CryptoTransaction) db.ScanArgs {
		return db.ScanArgs{
			&tx.TransactionID,
			&tx.Currency,
			&tx.Amount,
			&tx.NativeCurrency,
			&tx.NativeAmount,
			&tx.TransactionType,
			&tx.PrimaryCategory,
			&tx.DetailedCategory,
			&tx.Date,
			&tx.Datetime,
			&tx.Name,
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
		txs[i].Datetime = txs[i].Datetime.UTC()
	}

	return txs, nil
}
