// Package export renders the stored bank and exchange transactions as one CSV ledger.
package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/eqtlab/ledger-syncer/ledger"
)

const (
	exchangeAccount    = "Coinbase"
	exchangeConfidence = "HIGH"
	exchangeChannel    = "online"
)

type Config struct {
	Enabled     bool   `env:"ENABLED, default=true"`
	Path        string `env:"PATH, default=TX_DATABASE.csv"`
	CryptoSince string `env:"CRYPTO_SINCE, default=2023-09-01"` // Exchange transactions before this date are left out
}

// Since parses CryptoSince as a UTC calendar date.
func (c Config) Since() (time.Time, error) {
	since, err := time.Parse(ledger.DateLayout, c.CryptoSince)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse crypto since %q: %w", c.CryptoSince, err)
	}
	return since, nil
}

type Storage interface {
	ListAccounts(ctx context.Context) ([]ledger.Account, error)
	// ListTransactions returns bank transactions in insertion order
	ListTransactions(ctx context.Context) ([]ledger.Transaction, error)
	// ListCryptoTransactions returns exchange transactions created at or after since, in insertion order
	ListCryptoTransactions(ctx context.Context, since time.Time) ([]ledger.CryptoTransaction, error)
}

// Row is one line of the exported ledger. Bank and exchange transactions share this shape.
type Row struct {
	TransactionID      string
	Account            string
	Amount             decimal.Decimal
	ISOCurrencyCode    string
	PrimaryCategory    string
	DetailedCategory   string
	ConfidenceLevel    string
	Date               time.Time
	Datetime           *time.Time
	AuthorizedDate     *time.Time
	AuthorizedDatetime *time.Time
	Name               string
	MerchantName       string
	PaymentChannel     string
	PaymentProcessor   string
	Address            string
	City               string
	Region             string
	PostalCode         string
	Country            string
	Pending            bool
}

type Exporter struct {
	storage Storage
	since   time.Time
	logger  *zap.Logger
}

func New(s Storage, since time.Time, l *zap.Logger) *Exporter {
	return &Exporter{
		storage: s,
		since:   since,
		logger:  l,
	}
}

// Rows returns every bank transaction followed by the exchange transactions since the cutoff.
func (e *Exporter) Rows(ctx context.Context) ([]Row, error) {
	accounts, err := e.storage.ListAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	txs, err := e.storage.ListTransactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	cryptoTxs, err := e.storage.ListCryptoTransactions(ctx, e.since)
	if err != nil {
		return nil, fmt.Errorf("list crypto transactions: %w", err)
	}

	names := make(map[string]string, len(accounts))
	for _, acct := range accounts {
		names[acct.AccountID] = acct.Name
	}

	rows := make([]Row, 0, len(txs)+len(cryptoTxs))
	for _, tx := range txs {
		name, ok := names[tx.AccountID]
		if !ok {
			e.logger.Warn("transaction references an unknown account", zap.String("transaction_id", tx.TransactionID), zap.String("account_id", tx.AccountID))
		}
		rows = append(rows, bankRow(tx, name))
	}
	for _, tx := range cryptoTxs {
		rows = append(rows, cryptoRow(tx))
	}

	return rows, nil
}

// Export writes the header and all rows to w and returns the number of rows written.
func (e *Exporter) Export(ctx context.Context, w io.Writer) (int, error) {
	rows, err := e.Rows(ctx)
	if err != nil {
		return 0, err
	}

	if err := WriteRows(w, rows); err != nil {
		return 0, err
	}

	return len(rows), nil
}

// ExportFile replaces the file at path with a fresh export. The previous file is left
// untouched unless the new one has been written in full.
func (e *Exporter) ExportFile(ctx context.Context, path string) (int, error) {
	rows, err := e.Rows(ctx)
	if err != nil {
		return 0, err
	}

	f, err := os.CreateTemp(filepath.Dir(path), ".export-*.csv")
	if err != nil {
		return 0, fmt.Errorf("create export file: %w", err)
	}
	tmp := f.Name()

	err = WriteRows(f, rows)
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = fmt.Errorf("close export file: %w", closeErr)
	}
	if err == nil {
		if renameErr := os.Rename(tmp, path); renameErr != nil {
			err = fmt.Errorf("replace export file: %w", renameErr)
		}
	}
	if err != nil {
		_ = os.Remove(tmp)
		return 0, err
	}

	e.logger.Info("export written", zap.String("path", path), zap.Int("rows", len(rows)))

	return len(rows), nil
}

func bankRow(tx ledger.Transaction, accountName string) Row {
	return Row{
		TransactionID:      tx.TransactionID,
		Account:            accountName,
		Amount:             tx.Amount,
		ISOCurrencyCode:    deref(tx.ISOCurrencyCode),
		PrimaryCategory:    deref(tx.PrimaryCategory),
		DetailedCategory:   deref(tx.DetailedCategory),
		ConfidenceLevel:    deref(tx.ConfidenceLevel),
		Date:               tx.Date,
		Datetime:           tx.Datetime,
		AuthorizedDate:     tx.AuthorizedDate,
		AuthorizedDatetime: tx.AuthorizedDatetime,
		Name:               tx.Name,
		MerchantName:       deref(tx.MerchantName),
		PaymentChannel:     tx.PaymentChannel,
		PaymentProcessor:   deref(tx.PaymentProcessor),
		Address:            deref(tx.Address),
		City:               deref(tx.City),
		Region:             deref(tx.Region),
		PostalCode:         deref(tx.PostalCode),
		Country:            deref(tx.Country),
		Pending:            tx.Pending,
	}
}

// cryptoRow flips the sign: the exchange reports inflows as positive, the bank ledger as negative.
func cryptoRow(tx ledger.CryptoTransaction) Row {
	datetime := tx.Datetime
	return Row{
		TransactionID:    tx.TransactionID,
		Account:          exchangeAccount,
		Amount:           tx.NativeAmount.Neg(),
		ISOCurrencyCode:  tx.NativeCurrency,
		PrimaryCategory:  tx.PrimaryCategory,
		DetailedCategory: tx.DetailedCategory,
		ConfidenceLevel:  exchangeConfidence,
		Date:             tx.Date,
		Datetime:         &datetime,
		Name:             tx.Name,
		MerchantName:     "Coinbase " + tx.Currency + " Wallet",
		PaymentChannel:   exchangeChannel,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
