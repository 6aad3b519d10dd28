package syncer

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/eqtlab/ledger-syncer/ledger"
	"github.com/eqtlab/ledger-syncer/pkg/dump"
)

// Syncer pulls institutions, accounts and transactions from the aggregation provider and the
// exchange into the storage. Everything runs sequentially on the caller's goroutine.
type Syncer struct {
	cfg        Config
	storage    Storage
	aggregator Aggregator
	exchange   Exchange
	dumper     *dump.Dumper
	logger     *zap.Logger
}

// CursorStore persists the per-institution sync checkpoint.
type CursorStore interface {
	// GetCursor returns nil when the institution has never completed a pass
	GetCursor(ctx context.Context, institutionID string) (*string, error)
	// SetCursor stores the cursor to resume from on the next pass
	SetCursor(ctx context.Context, institutionID string, cursor string) error
}

type Storage interface {
	CursorStore
	// ListInstitutions returns every onboarded institution including its access token
	ListInstitutions(ctx context.Context) ([]ledger.Institution, error)
	// SaveInstitution upserts the institution and its accounts by external id, leaving the cursor untouched
	SaveInstitution(ctx context.Context, institution ledger.Institution, accounts []ledger.Account) error
	// CreateTransactions inserts transactions, skipping ids that already exist
	CreateTransactions(ctx context.Context, txs []ledger.Transaction) (int64, error)
	// UpsertTransactions overwrites existing transactions and inserts missing ones
	UpsertTransactions(ctx context.Context, txs []ledger.Transaction) error
	// DeleteTransactions removes transactions by id, absent ids are ignored
	DeleteTransactions(ctx context.Context, ids []string) (int64, error)
	// CreateCryptoTransactions inserts exchange transactions, skipping ids that already exist
	CreateCryptoTransactions(ctx context.Context, txs []ledger.CryptoTransaction) (int64, error)
}

// Aggregator is the bank-aggregation provider.
type Aggregator interface {
	ListInstitutionAccounts(ctx context.Context, accessToken string) (*ledger.AccountsSnapshot, error)
	GetInstitution(ctx context.Context, institutionID string) (*ledger.InstitutionMeta, error)
	// FetchTransactionDelta returns one page of changes since cursor, nil cursor means full history
	FetchTransactionDelta(ctx context.Context, accessToken string, cursor *string) (*ledger.DeltaPage, error)
}

// Exchange is the crypto exchange.
type Exchange interface {
	// ListTrackedAccounts returns only accounts whose currency is tracked
	ListTrackedAccounts(ctx context.Context) ([]ledger.ExchangeAccount, error)
	// ListAccountTransactions returns the account's full history, all pages
	ListAccountTransactions(ctx context.Context, accountID string) ([]ledger.RawCryptoTransaction, error)
}

type Config struct {
	RefreshAccounts bool   `env:"REFRESH_ACCOUNTS, default=true"` // Reconcile accounts of an institution before its transaction pass
	DumpDir         string `env:"DUMP_DIR"`                       // Write raw provider pages as JSON here when set
}

// New builds a Syncer. exchange may be nil when the exchange is not configured.
func New(
	s Storage,
	a Aggregator,
	e Exchange,
	l *zap.Logger,
	cfg Config,
) *Syncer {
	return &Syncer{
		cfg:        cfg,
		storage:    s,
		aggregator: a,
		exchange:   e,
		dumper:     dump.New(cfg.DumpDir),
		logger:     l,
	}
}

var (
	ErrNoInstitution      = errors.New("item is not linked to an institution")
	ErrUnknownInstitution = errors.New("unknown institution")
)

// FetchError is a failed call to a provider. The pass it belongs to is aborted and
// its checkpoint is left as it was, so the next run retries from there.
type FetchError struct {
	Op  string
	ID  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s %s: %v", e.Op, e.ID, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

func (s *Syncer) dump(name string, v any) {
	if err := s.dumper.Dump(name, v); err != nil {
		s.logger.Warn("failed to write diagnostic dump", zap.String("name", name), zap.Error(err))
	}
}
