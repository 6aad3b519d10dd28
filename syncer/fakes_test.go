package syncer

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/eqtlab/ledger-syncer/ledger"
)

// memStorage is an in-memory Storage keeping insertion order like a serial id column would.
type memStorage struct {
	institutions map[string]ledger.Institution
	instOrder    []string
	accounts     map[string]ledger.Account
	txs          map[string]ledger.Transaction
	txOrder      []string
	crypto       map[string]ledger.CryptoTransaction
	cryptoOrder  []string

	setCursorErr error
	setCursors   int
}

func newMemStorage() *memStorage {
	return &memStorage{
		institutions: map[string]ledger.Institution{},
		accounts:     map[string]ledger.Account{},
		txs:          map[string]ledger.Transaction{},
		crypto:       map[string]ledger.CryptoTransaction{},
	}
}

func (m *memStorage) addInstitution(inst ledger.Institution) {
	if _, ok := m.institutions[inst.InstitutionID]; !ok {
		m.instOrder = append(m.instOrder, inst.InstitutionID)
	}
	m.institutions[inst.InstitutionID] = inst
}

func (m *memStorage) cursor(institutionID string) *string {
	return m.institutions[institutionID].Cursor
}

func (m *memStorage) transactions() []ledger.Transaction {
	out := make([]ledger.Transaction, 0, len(m.txOrder))
	for _, id := range m.txOrder {
		out = append(out, m.txs[id])
	}
	return out
}

func (m *memStorage) GetCursor(_ context.Context, institutionID string) (*string, error) {
	inst, ok := m.institutions[institutionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownInstitution, institutionID)
	}
	return inst.Cursor, nil
}

func (m *memStorage) SetCursor(_ context.Context, institutionID string, cursor string) error {
	if m.setCursorErr != nil {
		return m.setCursorErr
	}
	inst, ok := m.institutions[institutionID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownInstitution, institutionID)
	}
	inst.Cursor = &cursor
	m.institutions[institutionID] = inst
	m.setCursors++
	return nil
}

func (m *memStorage) ListInstitutions(context.Context) ([]ledger.Institution, error) {
	out := make([]ledger.Institution, 0, len(m.instOrder))
	for _, id := range m.instOrder {
		out = append(out, m.institutions[id])
	}
	return out, nil
}

func (m *memStorage) SaveInstitution(_ context.Context, institution ledger.Institution, accounts []ledger.Account) error {
	if existing, ok := m.institutions[institution.InstitutionID]; ok {
		institution.Cursor = existing.Cursor
	} else {
		institution.Cursor = nil
	}
	m.addInstitution(institution)
	for _, acct := range accounts {
		m.accounts[acct.AccountID] = acct
	}
	return nil
}

func (m *memStorage) CreateTransactions(_ context.Context, txs []ledger.Transaction) (int64, error) {
	var inserted int64
	for _, tx := range txs {
		if _, ok := m.txs[tx.TransactionID]; ok {
			continue
		}
		m.txs[tx.TransactionID] = tx
		m.txOrder = append(m.txOrder, tx.TransactionID)
		inserted++
	}
	return inserted, nil
}

func (m *memStorage) UpsertTransactions(_ context.Context, txs []ledger.Transaction) error {
	for _, tx := range txs {
		if _, ok := m.txs[tx.TransactionID]; !ok {
			m.txOrder = append(m.txOrder, tx.TransactionID)
		}
		m.txs[tx.TransactionID] = tx
	}
	return nil
}

func (m *memStorage) DeleteTransactions(_ context.Context, ids []string) (int64, error) {
	var deleted int64
	for _, id := range ids {
		if _, ok := m.txs[id]; !ok {
			continue
		}
		delete(m.txs, id)
		for i, existing := range m.txOrder {
			if existing == id {
				m.txOrder = append(m.txOrder[:i], m.txOrder[i+1:]...)
				break
			}
		}
		deleted++
	}
	return deleted, nil
}

func (m *memStorage) CreateCryptoTransactions(_ context.Context, txs []ledger.CryptoTransaction) (int64, error) {
	var inserted int64
	for _, tx := range txs {
		if _, ok := m.crypto[tx.TransactionID]; ok {
			continue
		}
		m.crypto[tx.TransactionID] = tx
		m.cryptoOrder = append(m.cryptoOrder, tx.TransactionID)
		inserted++
	}
	return inserted, nil
}

// fakeAggregator serves delta pages keyed by access token and input cursor.
type fakeAggregator struct {
	snapshots    map[string]*ledger.AccountsSnapshot
	institutions map[string]ledger.InstitutionMeta
	pages        map[string]map[string]*ledger.DeltaPage
	errs         map[string]map[string]error
	panics       map[string]bool

	cursorsSeen map[string][]string
}

func newFakeAggregator() *fakeAggregator {
	return &fakeAggregator{
		snapshots:    map[string]*ledger.AccountsSnapshot{},
		institutions: map[string]ledger.InstitutionMeta{},
		pages:        map[string]map[string]*ledger.DeltaPage{},
		errs:         map[string]map[string]error{},
		panics:       map[string]bool{},
		cursorsSeen:  map[string][]string{},
	}
}

const nilCursor = "<nil>"

func cursorKey(cursor *string) string {
	if cursor == nil {
		return nilCursor
	}
	return *cursor
}

func (f *fakeAggregator) page(token string, cursor *string, page ledger.DeltaPage) {
	if f.pages[token] == nil {
		f.pages[token] = map[string]*ledger.DeltaPage{}
	}
	f.pages[token][cursorKey(cursor)] = &page
}

func (f *fakeAggregator) fail(token string, cursor *string, err error) {
	if f.errs[token] == nil {
		f.errs[token] = map[string]error{}
	}
	f.errs[token][cursorKey(cursor)] = err
}

func (f *fakeAggregator) ListInstitutionAccounts(_ context.Context, accessToken string) (*ledger.AccountsSnapshot, error) {
	snapshot, ok := f.snapshots[accessToken]
	if !ok {
		return nil, errors.New("INVALID_ACCESS_TOKEN")
	}
	return snapshot, nil
}

func (f *fakeAggregator) GetInstitution(_ context.Context, institutionID string) (*ledger.InstitutionMeta, error) {
	meta, ok := f.institutions[institutionID]
	if !ok {
		return nil, errors.New("INVALID_INSTITUTION")
	}
	return &meta, nil
}

func (f *fakeAggregator) FetchTransactionDelta(_ context.Context, accessToken string, cursor *string) (*ledger.DeltaPage, error) {
	key := cursorKey(cursor)
	f.cursorsSeen[accessToken] = append(f.cursorsSeen[accessToken], key)

	if f.panics[accessToken] {
		panic("provider client exploded")
	}
	if err := f.errs[accessToken][key]; err != nil {
		return nil, err
	}
	page, ok := f.pages[accessToken][key]
	if !ok {
		return nil, fmt.Errorf("no page for cursor %s", key)
	}
	return page, nil
}

type fakeExchange struct {
	accounts    []ledger.ExchangeAccount
	accountsErr error
	txs         map[string][]ledger.RawCryptoTransaction
	txsErr      map[string]error
}

func (f *fakeExchange) ListTrackedAccounts(context.Context) ([]ledger.ExchangeAccount, error) {
	return f.accounts, f.accountsErr
}

func (f *fakeExchange) ListAccountTransactions(_ context.Context, accountID string) ([]ledger.RawCryptoTransaction, error) {
	if err := f.txsErr[accountID]; err != nil {
		return nil, err
	}
	return f.txs[accountID], nil
}

func newTestSyncer(s Storage, a Aggregator, e Exchange, cfg Config) *Syncer {
	return New(s, a, e, zap.NewNop(), cfg)
}

func strPtr(s string) *string { return &s }

func rawTx(id string, amount float64) ledger.RawBankTransaction {
	return ledger.RawBankTransaction{
		TransactionID:   id,
		AccountID:       "acc-1",
		Amount:          amount,
		ISOCurrencyCode: strPtr("USD"),
		PersonalFinanceCategory: &ledger.RawCategory{
			Primary:         "GENERAL_MERCHANDISE",
			Detailed:        "GENERAL_MERCHANDISE_OTHER_GENERAL_MERCHANDISE",
			ConfidenceLevel: strPtr("HIGH"),
		},
		Date:           "2024-02-10",
		Name:           "Purchase " + id,
		MerchantName:   strPtr("Shop"),
		PaymentChannel: "online",
	}
}
