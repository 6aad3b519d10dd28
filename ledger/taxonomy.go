package ledger

import (
	"errors"
	"fmt"
)

var ErrUnknownTaxonomy = errors.New("unknown transaction type")

// UnknownTaxonomyError is returned for an exchange transaction type missing from the taxonomy.
type UnknownTaxonomyError struct {
	Type string
}

func (e *UnknownTaxonomyError) Error() string {
	return fmt.Sprintf("%s: %q", ErrUnknownTaxonomy, e.Type)
}

func (e *UnknownTaxonomyError) Is(target error) bool {
	return target == ErrUnknownTaxonomy
}

// cryptoTaxonomy maps exchange transaction types onto the bank category taxonomy.
var cryptoTaxonomy = map[string]Category{
	"advanced_trade_fill": {"TRANSFER_OUT", "TRANSFER_OUT_INVESTMENT_AND_RETIREMENT_FUNDS"},
	"interest":            {"INCOME", "INCOME_INTEREST_EARNED"},
	"buy":                 {"TRANSFER_IN", "TRANSFER_IN_INVESTMENT_AND_RETIREMENT_FUNDS"},
	"fiat_deposit":        {"TRANSFER_IN", "TRANSFER_IN_DEPOSIT"},
	"fiat_withdrawal":     {"TRANSFER_OUT", "TRANSFER_OUT_WITHDRAWAL"},
	"receive":             {"TRANSFER_IN", "TRANSFER_IN_INVESTMENT_AND_RETIREMENT_FUNDS"},
	"request":             {"TRANSFER_IN", "TRANSFER_IN_INVESTMENT_AND_RETIREMENT_FUNDS"},
	"sell":                {"TRANSFER_IN", "TRANSFER_IN_INVESTMENT_AND_RETIREMENT_FUNDS"},
	"send":                {"INCOME", "INCOME_OTHER_INCOME"},
	"trade":               {"TRANSFER_OUT", "TRANSFER_OUT_INVESTMENT_AND_RETIREMENT_FUNDS"},
	"transfer":            {"TRANSFER_OUT", "TRANSFER_OUT_ACCOUNT_TRANSFER"},
	"vault_withdrawal":    {"TRANSFER_OUT", "TRANSFER_OUT_WITHDRAWAL"},
}

// LookupTaxonomy returns the category for an exchange transaction type.
func LookupTaxonomy(txType string) (Category, error) {
	category, ok := cryptoTaxonomy[txType]
	if !ok {
		return Category{}, &UnknownTaxonomyError{Type: txType}
	}
	return category, nil
}
