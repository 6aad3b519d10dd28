package syncer

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/eqtlab/ledger-syncer/ledger"
)

type CryptoResult struct {
	Accounts int
	Fetched  int
	Inserted int64
}

// SyncCrypto refetches the full history of every tracked exchange account and inserts the
// completed transactions that aren't stored yet. Stored rows are never updated or deleted.
// A transaction type missing from the taxonomy fails the whole run before anything is inserted.
func (s *Syncer) SyncCrypto(ctx context.Context) (*CryptoResult, error) {
	if s.exchange == nil {
		s.logger.Info("exchange is not configured, skipping crypto sync")
		return &CryptoResult{}, nil
	}

	accounts, err := s.exchange.ListTrackedAccounts(ctx)
	if err != nil {
		return nil, &FetchError{Op: "exchange accounts", Err: err}
	}

	result := &CryptoResult{Accounts: len(accounts)}

	var txs []ledger.CryptoTransaction
	for _, acct := range accounts {
		log := s.logger.With(zap.String("exchange_account_id", acct.ID), zap.String("currency", acct.CurrencyCode()))

		raws, err := s.exchange.ListAccountTransactions(ctx, acct.ID)
		if err != nil {
			return nil, &FetchError{Op: "exchange transactions", ID: acct.ID, Err: err}
		}
		result.Fetched += len(raws)

		s.dump("exchange_"+acct.ID, raws)

		completed := 0
		for _, raw := range raws {
			if raw.Status != ledger.StatusCompleted {
				continue
			}

			tx, err := ledger.NormalizeCryptoTransaction(raw)
			if err != nil {
				return nil, fmt.Errorf("normalize exchange account %s: %w", acct.ID, err)
			}
			txs = append(txs, tx)
			completed++
		}

		log.Info("exchange account fetched", zap.Int("transactions", len(raws)), zap.Int("completed", completed))
	}

	if len(txs) > 0 {
		result.Inserted, err = s.storage.CreateCryptoTransactions(ctx, txs)
		if err != nil {
			return nil, fmt.Errorf("create crypto transactions: %w", err)
		}
	}

	s.logger.Info(
		"crypto sync finished",
		zap.Int("accounts", result.Accounts),
		zap.Int("fetched", result.Fetched),
		zap.Int("completed", len(txs)),
		zap.Int64("inserted", result.Inserted),
	)

	return result, nil
}
