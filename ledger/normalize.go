package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const DateLayout = "2006-01-02"

// NormalizeBankTransaction maps a provider transaction onto the stored shape.
// Optional nested structures that are absent produce nil fields.
func NormalizeBankTransaction(raw RawBankTransaction) (Transaction, error) {
	date, err := time.Parse(DateLayout, raw.Date)
	if err != nil {
		return Transaction{}, fmt.Errorf("parse date %q of transaction %s: %w", raw.Date, raw.TransactionID, err)
	}

	tx := Transaction{
		TransactionID:      raw.TransactionID,
		AccountID:          raw.AccountID,
		Amount:             decimal.NewFromFloat(raw.Amount),
		ISOCurrencyCode:    raw.ISOCurrencyCode,
		Date:               date,
		Datetime:           utc(raw.Datetime),
		AuthorizedDatetime: utc(raw.AuthorizedDatetime),
		Name:               raw.Name,
		MerchantName:       raw.MerchantName,
		PaymentChannel:     raw.PaymentChannel,
		Pending:            raw.Pending,
	}

	if raw.AuthorizedDate != nil && *raw.AuthorizedDate != "" {
		authorized, err := time.Parse(DateLayout, *raw.AuthorizedDate)
		if err != nil {
			return Transaction{}, fmt.Errorf("parse authorized date %q of transaction %s: %w", *raw.AuthorizedDate, raw.TransactionID, err)
		}
		tx.AuthorizedDate = &authorized
	}

	if c := raw.PersonalFinanceCategory; c != nil {
		tx.PrimaryCategory = nonEmpty(c.Primary)
		tx.DetailedCategory = nonEmpty(c.Detailed)
		tx.ConfidenceLevel = c.ConfidenceLevel
	}

	if raw.PaymentMeta != nil {
		tx.PaymentProcessor = raw.PaymentMeta.PaymentProcessor
	}

	if l := raw.Location; l != nil {
		tx.Address = l.Address
		tx.City = l.City
		tx.Region = l.Region
		tx.PostalCode = l.PostalCode
		tx.Country = l.Country
	}

	return tx, nil
}

// NormalizeBankTransactions stops at the first record that can't be normalized.
func NormalizeBankTransactions(raws []RawBankTransaction) ([]Transaction, error) {
	out := make([]Transaction, 0, len(raws))
	for _, raw := range raws {
		tx, err := NormalizeBankTransaction(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, tx)
	}
	return out, nil
}

// NormalizeCryptoTransaction fails with *UnknownTaxonomyError when the type is not mapped.
func NormalizeCryptoTransaction(raw RawCryptoTransaction) (CryptoTransaction, error) {
	category, err := LookupTaxonomy(raw.Type)
	if err != nil {
		return CryptoTransaction{}, fmt.Errorf("transaction %s: %w", raw.ID, err)
	}

	createdAt, err := time.Parse(time.RFC3339, raw.CreatedAt)
	if err != nil {
		return CryptoTransaction{}, fmt.Errorf("parse created_at %q of transaction %s: %w", raw.CreatedAt, raw.ID, err)
	}

	// the calendar date is the date part of created_at as reported, not shifted to UTC
	datePart, _, _ := strings.Cut(raw.CreatedAt, "T")
	date, err := time.Parse(DateLayout, datePart)
	if err != nil {
		return CryptoTransaction{}, fmt.Errorf("parse date of transaction %s: %w", raw.ID, err)
	}

	tx := CryptoTransaction{
		TransactionID:    raw.ID,
		TransactionType:  raw.Type,
		PrimaryCategory:  category.Primary,
		DetailedCategory: category.Detailed,
		Date:             date,
		Datetime:         createdAt.UTC(),
	}

	if raw.Amount != nil {
		tx.Currency = raw.Amount.Currency
		if tx.Amount, err = parseAmount(raw.Amount.Amount); err != nil {
			return CryptoTransaction{}, fmt.Errorf("parse amount of transaction %s: %w", raw.ID, err)
		}
	}

	if raw.NativeAmount != nil {
		tx.NativeCurrency = raw.NativeAmount.Currency
		if tx.NativeAmount, err = parseAmount(raw.NativeAmount.Amount); err != nil {
			return CryptoTransaction{}, fmt.Errorf("parse native amount of transaction %s: %w", raw.ID, err)
		}
	}

	if raw.Details != nil {
		tx.Name = raw.Details.Title + " - " + raw.Details.Subtitle
	}

	return tx, nil
}

// NormalizeAccount maps a provider account onto the stored shape.
func NormalizeAccount(raw RawAccount, institutionID string) Account {
	acct := Account{
		AccountID:     raw.AccountID,
		InstitutionID: institutionID,
		Name:          raw.Name,
		Type:          raw.Type,
		Mask:          raw.Mask,
	}

	if b := raw.Balances; b != nil {
		acct.ISOCurrencyCode = b.ISOCurrencyCode
		acct.Available = nullDecimal(b.Available)
		acct.Current = nullDecimal(b.Current)
		acct.Limit = nullDecimal(b.Limit)
	}

	return acct
}

func parseAmount(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func nullDecimal(f *float64) decimal.NullDecimal {
	if f == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(*f))
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
