package plaid

import (
	"time"

	"github.com/plaid/plaid-go/v29/plaid"

	"github.com/eqtlab/ledger-syncer/ledger"
)

func toRawTransaction(tx plaid.Transaction) ledger.RawBankTransaction {
	raw := ledger.RawBankTransaction{
		TransactionID:      tx.GetTransactionId(),
		AccountID:          tx.GetAccountId(),
		Amount:             tx.GetAmount(),
		ISOCurrencyCode:    optString(tx.GetIsoCurrencyCodeOk()),
		Date:               tx.GetDate(),
		Datetime:           optTime(tx.GetDatetimeOk()),
		AuthorizedDate:     optString(tx.GetAuthorizedDateOk()),
		AuthorizedDatetime: optTime(tx.GetAuthorizedDatetimeOk()),
		Name:               tx.GetName(),
		MerchantName:       optString(tx.GetMerchantNameOk()),
		PaymentChannel:     tx.GetPaymentChannel(),
		Pending:            tx.GetPending(),
	}

	if pfc, ok := tx.GetPersonalFinanceCategoryOk(); ok && pfc != nil {
		raw.PersonalFinanceCategory = &ledger.RawCategory{
			Primary:         pfc.GetPrimary(),
			Detailed:        pfc.GetDetailed(),
			ConfidenceLevel: optString(pfc.GetConfidenceLevelOk()),
		}
	}

	if meta, ok := tx.GetPaymentMetaOk(); ok && meta != nil {
		raw.PaymentMeta = &ledger.RawPaymentMeta{
			PaymentProcessor: optString(meta.GetPaymentProcessorOk()),
		}
	}

	if loc, ok := tx.GetLocationOk(); ok && loc != nil {
		raw.Location = &ledger.RawLocation{
			Address:    optString(loc.GetAddressOk()),
			City:       optString(loc.GetCityOk()),
			Region:     optString(loc.GetRegionOk()),
			PostalCode: optString(loc.GetPostalCodeOk()),
			Country:    optString(loc.GetCountryOk()),
		}
	}

	return raw
}

func toRawAccount(acct plaid.AccountBase) ledger.RawAccount {
	raw := ledger.RawAccount{
		AccountID: acct.GetAccountId(),
		Name:      acct.GetName(),
		Type:      string(acct.GetType()),
		Mask:      optString(acct.GetMaskOk()),
	}

	if b, ok := acct.GetBalancesOk(); ok && b != nil {
		raw.Balances = &ledger.RawBalances{
			Available:       optFloat(b.GetAvailableOk()),
			Current:         optFloat(b.GetCurrentOk()),
			Limit:           optFloat(b.GetLimitOk()),
			ISOCurrencyCode: optString(b.GetIsoCurrencyCodeOk()),
		}
	}

	return raw
}

// optString copies the value so the result doesn't alias the API model.
func optString(v *string, ok bool) *string {
	if !ok || v == nil {
		return nil
	}
	s := *v
	return &s
}

func optFloat(v *float64, ok bool) *float64 {
	if !ok || v == nil {
		return nil
	}
	f := *v
	return &f
}

func optTime(v *time.Time, ok bool) *time.Time {
	if !ok || v == nil {
		return nil
	}
	t := *v
	return &t
}
