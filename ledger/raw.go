package ledger

import "time"

// Raw records mirror provider payloads. Nested optional structures are pointers
// so that a missing level is representable and normalization never dereferences nil.

type RawBankTransaction struct {
	TransactionID           string          `json:"transaction_id"`
	AccountID               string          `json:"account_id"`
	Amount                  float64         `json:"amount"`
	ISOCurrencyCode         *string         `json:"iso_currency_code"`
	PersonalFinanceCategory *RawCategory    `json:"personal_finance_category"`
	Date                    string          `json:"date"`
	Datetime                *time.Time      `json:"datetime"`
	AuthorizedDate          *string         `json:"authorized_date"`
	AuthorizedDatetime      *time.Time      `json:"authorized_datetime"`
	Name                    string          `json:"name"`
	MerchantName            *string         `json:"merchant_name"`
	PaymentChannel          string          `json:"payment_channel"`
	PaymentMeta             *RawPaymentMeta `json:"payment_meta"`
	Location                *RawLocation    `json:"location"`
	Pending                 bool            `json:"pending"`
}

type RawCategory struct {
	Primary         string  `json:"primary"`
	Detailed        string  `json:"detailed"`
	ConfidenceLevel *string `json:"confidence_level"`
}

type RawPaymentMeta struct {
	PaymentProcessor *string `json:"payment_processor"`
}

type RawLocation struct {
	Address    *string `json:"address"`
	City       *string `json:"city"`
	Region     *string `json:"region"`
	PostalCode *string `json:"postal_code"`
	Country    *string `json:"country"`
}

type RawAccount struct {
	AccountID string       `json:"account_id"`
	Name      string       `json:"name"`
	Type      string       `json:"type"`
	Mask      *string      `json:"mask"`
	Balances  *RawBalances `json:"balances"`
}

type RawBalances struct {
	Available       *float64 `json:"available"`
	Current         *float64 `json:"current"`
	Limit           *float64 `json:"limit"`
	ISOCurrencyCode *string  `json:"iso_currency_code"`
}

// StatusCompleted is the only exchange transaction status that is synced.
const StatusCompleted = "completed"

// RawCryptoTransaction is an exchange transaction as returned by the Coinbase v2 API.
type RawCryptoTransaction struct {
	ID           string      `json:"id"`
	Type         string      `json:"type"`
	Status       string      `json:"status"`
	Amount       *RawMoney   `json:"amount"`
	NativeAmount *RawMoney   `json:"native_amount"`
	CreatedAt    string      `json:"created_at"`
	Details      *RawDetails `json:"details"`
}

type RawMoney struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

type RawDetails struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
}

// ExchangeAccount is a wallet, fiat account or vault on the exchange.
type ExchangeAccount struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Type     string       `json:"type"`
	Currency *RawCurrency `json:"currency"`
}

type RawCurrency struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// CurrencyCode returns an empty string when the currency is absent.
func (a ExchangeAccount) CurrencyCode() string {
	if a.Currency == nil {
		return ""
	}
	return a.Currency.Code
}
