package ledger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupTaxonomy_Table(t *testing.T) {
	tests := []struct {
		txType   string
		primary  string
		detailed string
	}{
		{"advanced_trade_fill", "TRANSFER_OUT", "TRANSFER_OUT_INVESTMENT_AND_RETIREMENT_FUNDS"},
		{"interest", "INCOME", "INCOME_INTEREST_EARNED"},
		{"buy", "TRANSFER_IN", "TRANSFER_IN_INVESTMENT_AND_RETIREMENT_FUNDS"},
		{"fiat_deposit", "TRANSFER_IN", "TRANSFER_IN_DEPOSIT"},
		{"fiat_withdrawal", "TRANSFER_OUT", "TRANSFER_OUT_WITHDRAWAL"},
		{"receive", "TRANSFER_IN", "TRANSFER_IN_INVESTMENT_AND_RETIREMENT_FUNDS"},
		{"request", "TRANSFER_IN", "TRANSFER_IN_INVESTMENT_AND_RETIREMENT_FUNDS"},
		{"sell", "TRANSFER_IN", "TRANSFER_IN_INVESTMENT_AND_RETIREMENT_FUNDS"},
		{"send", "INCOME", "INCOME_OTHER_INCOME"},
		{"trade", "TRANSFER_OUT", "TRANSFER_OUT_INVESTMENT_AND_RETIREMENT_FUNDS"},
		{"transfer", "TRANSFER_OUT", "TRANSFER_OUT_ACCOUNT_TRANSFER"},
		{"vault_withdrawal", "TRANSFER_OUT", "TRANSFER_OUT_WITHDRAWAL"},
	}

	require.Len(t, cryptoTaxonomy, len(tests))

	for _, tt := range tests {
		t.Run(tt.txType, func(t *testing.T) {
			category, err := LookupTaxonomy(tt.txType)
			require.NoError(t, err)
			assert.Equal(t, tt.primary, category.Primary)
			assert.Equal(t, tt.detailed, category.Detailed)

			tx, err := NormalizeCryptoTransaction(RawCryptoTransaction{
				ID:        "id-" + tt.txType,
				Type:      tt.txType,
				CreatedAt: "2024-01-01T00:00:00Z",
			})
			require.NoError(t, err)
			assert.Equal(t, tt.primary, tx.PrimaryCategory)
			assert.Equal(t, tt.detailed, tx.DetailedCategory)
		})
	}
}

func TestLookupTaxonomy_Unknown(t *testing.T) {
	for _, txType := range []string{"", "BUY", "staking_reward"} {
		_, err := LookupTaxonomy(txType)
		assert.True(t, errors.Is(err, ErrUnknownTaxonomy), "type %q", txType)
	}
}
