package ledger

import (
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap/zapcore"
)

// Institution is a provider linkage reachable with one access token.
// Cursor is nil until the first successful sync pass.
type Institution struct {
	InstitutionID string
	Name          string
	AccessToken   string
	Cursor        *string
}

// String never includes the access token.
func (i Institution) String() string {
	return i.Name + " (" + i.InstitutionID + ")"
}

// MarshalLogObject makes institutions safe to pass to zap.Object.
func (i Institution) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("institution_id", i.InstitutionID)
	enc.AddString("name", i.Name)
	enc.AddBool("has_cursor", i.Cursor != nil)
	return nil
}

type Account struct {
	AccountID       string
	InstitutionID   string
	Name            string
	Type            string
	ISOCurrencyCode *string
	Mask            *string
	Available       decimal.NullDecimal
	Current         decimal.NullDecimal
	Limit           decimal.NullDecimal
}

// Transaction is the normalized bank transaction snapshot stored per TransactionID.
type Transaction struct {
	TransactionID      string
	AccountID          string
	Amount             decimal.Decimal
	ISOCurrencyCode    *string
	PrimaryCategory    *string
	DetailedCategory   *string
	ConfidenceLevel    *string
	Date               time.Time
	Datetime           *time.Time
	AuthorizedDate     *time.Time
	AuthorizedDatetime *time.Time
	Name               string
	MerchantName       *string
	PaymentChannel     string
	PaymentProcessor   *string
	Address            *string
	City               *string
	Region             *string
	PostalCode         *string
	Country            *string
	Pending            bool
}

// CryptoTransaction is a completed exchange transaction. Rows are insert-only.
type CryptoTransaction struct {
	TransactionID    string
	Currency         string
	Amount           decimal.Decimal
	NativeCurrency   string
	NativeAmount     decimal.Decimal
	TransactionType  string
	PrimaryCategory  string
	DetailedCategory string
	Date             time.Time
	Datetime         time.Time
	Name             string
}

// Category is a two-level classification.
type Category struct {
	Primary  string
	Detailed string
}

// InstitutionMeta is the provider's description of an institution.
type InstitutionMeta struct {
	InstitutionID string
	Name          string
}

// AccountsSnapshot is the current set of accounts behind one access token.
type AccountsSnapshot struct {
	InstitutionID string
	Accounts      []RawAccount
}

// DeltaPage is one page of an incremental transaction sync.
type DeltaPage struct {
	Added      []RawBankTransaction `json:"added"`
	Modified   []RawBankTransaction `json:"modified"`
	Removed    []string             `json:"removed"`
	HasMore    bool                 `json:"has_more"`
	NextCursor string               `json:"next_cursor"`
}
