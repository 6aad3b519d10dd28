package postgres

import (
	"fmt"
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eqtlab/ledger-syncer/ledger"
)

func TestDedupe(t *testing.T) {
	type item struct{ id, v string }

	got := dedupe([]item{{"a", "1"}, {"b", "1"}, {"a", "2"}, {"c", "1"}, {"b", "2"}}, func(i item) string { return i.id })
	assert.Equal(t, []item{{"a", "2"}, {"b", "2"}, {"c", "1"}}, got)

	assert.Empty(t, dedupe(nil, func(i item) string { return i.id }))
}

func TestExcludedSet(t *testing.T) {
	assert.Equal(t, "name = excluded.name, mask = excluded.mask", excludedSet([]string{"name", "mask"}))
}

func TestSchema(t *testing.T) {
	for _, table := range []string{"institutions", "accounts", "transactions", "coinbase_transactions"} {
		assert.Contains(t, Schema, "create table if not exists "+table+" (")
	}
}

func TestBatches(t *testing.T) {
	items := make([]int, 2*maxBatchRows+1)
	for i := range items {
		items[i] = i
	}

	got := batches(items, maxBatchRows)
	require.Len(t, got, 3)
	assert.Len(t, got[0], maxBatchRows)
	assert.Len(t, got[1], maxBatchRows)
	assert.Equal(t, []int{2 * maxBatchRows}, got[2])
	assert.Equal(t, maxBatchRows, got[1][0])

	assert.Empty(t, batches([]int{}, maxBatchRows))
	assert.Equal(t, [][]int{{1, 2}}, batches([]int{1, 2}, maxBatchRows))
}

// pgMaxParams is the bind parameter limit of one statement in the Postgres wire protocol.
const pgMaxParams = 65535

func TestBatchFitsParameterLimit(t *testing.T) {
	for name, columns := range map[string][]string{
		"accounts":              accountColumns,
		"transactions":          transactionColumns,
		"coinbase_transactions": cryptoColumns,
	} {
		assert.LessOrEqual(t, maxBatchRows*len(columns), pgMaxParams, name)
	}
}

func TestInsertCryptoTransactions_LargeHistorySplits(t *testing.T) {
	txs := make([]ledger.CryptoTransaction, 6000)
	for i := range txs {
		txs[i] = ledger.CryptoTransaction{TransactionID: fmt.Sprintf("c%d", i)}
	}

	var rows int
	for _, batch := range batches(txs, maxBatchRows) {
		_, args, err := insertCryptoTransactions(batch).PlaceholderFormat(sq.Dollar).ToSql()
		require.NoError(t, err)
		assert.LessOrEqual(t, len(args), pgMaxParams)
		rows += len(args) / len(cryptoColumns)
	}
	assert.Equal(t, len(txs), rows)
}

func TestInsertTransactions_FullBatchFitsParameterLimit(t *testing.T) {
	txs := make([]ledger.Transaction, maxBatchRows)
	_, args, err := insertTransactions(txs).PlaceholderFormat(sq.Dollar).ToSql()
	require.NoError(t, err)
	assert.Len(t, args, maxBatchRows*len(transactionColumns))
	assert.LessOrEqual(t, len(args), pgMaxParams)
}
