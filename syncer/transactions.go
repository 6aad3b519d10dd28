package syncer

import (
	"context"
	"errors"
	"fmt"

	"github.com/sourcegraph/conc/panics"
	"go.uber.org/zap"

	"github.com/eqtlab/ledger-syncer/ledger"
)

// PassResult summarizes one institution's sync pass.
type PassResult struct {
	InstitutionID string
	StartCursor   *string
	Cursor        string
	Pages         int
	Added         int
	Modified      int
	Removed       int
}

// SyncInstitutions runs a pass for every stored institution, one after another.
// A failing (or panicking) institution is logged and skipped; the errors are joined and
// returned after all institutions had their turn.
func (s *Syncer) SyncInstitutions(ctx context.Context) ([]*PassResult, error) {
	institutions, err := s.storage.ListInstitutions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list institutions: %w", err)
	}

	var (
		results []*PassResult
		errs    []error
	)

	for _, inst := range institutions {
		result, err := s.syncIsolated(ctx, inst)
		if err != nil {
			s.logger.Error("institution sync failed", zap.Object("institution", inst), zap.Error(err)) // if one fail we continue
			errs = append(errs, fmt.Errorf("institution %s: %w", inst.InstitutionID, err))
			continue
		}
		results = append(results, result)
	}

	return results, errors.Join(errs...)
}

func (s *Syncer) syncIsolated(ctx context.Context, inst ledger.Institution) (result *PassResult, err error) {
	var pc panics.Catcher
	pc.Try(func() {
		if s.cfg.RefreshAccounts {
			// new accounts must exist before their transactions are exported
			if _, err = s.ReconcileInstitution(ctx, inst.AccessToken); err != nil {
				err = fmt.Errorf("refresh accounts: %w", err)
				return
			}
		}
		result, err = s.SyncInstitution(ctx, inst)
	})
	if recoveredErr := pc.Recovered().AsError(); recoveredErr != nil {
		return nil, recoveredErr
	}
	return result, err
}

// SyncInstitution drains the institution's transaction delta starting at its stored cursor.
// Every page is applied as soon as it is fetched; the cursor is stored only after the last
// page (HasMore == false) was applied. On error the stored cursor is left unchanged and
// the next pass re-delivers the pages applied so far, which is safe because applying a page
// is idempotent.
//
// The loop ends only when the provider clears HasMore.
func (s *Syncer) SyncInstitution(ctx context.Context, inst ledger.Institution) (*PassResult, error) {
	log := s.logger.With(zap.String("institution_id", inst.InstitutionID), zap.String("institution", inst.Name))

	cursor, err := s.storage.GetCursor(ctx, inst.InstitutionID)
	if err != nil {
		return nil, fmt.Errorf("get cursor: %w", err)
	}

	result := &PassResult{InstitutionID: inst.InstitutionID, StartCursor: cursor}
	log.Info("sync pass started", zap.Bool("full_history", cursor == nil))

	for {
		page, err := s.aggregator.FetchTransactionDelta(ctx, inst.AccessToken, cursor)
		if err != nil {
			return result, &FetchError{Op: "transaction delta", ID: inst.InstitutionID, Err: err}
		}
		result.Pages++

		s.dump(fmt.Sprintf("%s_page%d", inst.InstitutionID, result.Pages), page)

		if err := s.applyPage(ctx, log, page, result); err != nil {
			return result, fmt.Errorf("apply page %d: %w", result.Pages, err)
		}

		next := page.NextCursor
		cursor = &next

		if !page.HasMore {
			break
		}
	}

	if err := s.storage.SetCursor(ctx, inst.InstitutionID, *cursor); err != nil {
		return result, fmt.Errorf("set cursor: %w", err)
	}
	result.Cursor = *cursor

	log.Info(
		"sync pass finished",
		zap.Int("pages", result.Pages),
		zap.Int("added", result.Added),
		zap.Int("modified", result.Modified),
		zap.Int("removed", result.Removed),
	)

	return result, nil
}

// applyPage normalizes the whole page first so a bad record leaves the page unapplied.
// Removals go first: a provider that reissues an id as removed+added in the same page
// gets the reissued record stored.
func (s *Syncer) applyPage(ctx context.Context, log *zap.Logger, page *ledger.DeltaPage, result *PassResult) error {
	added, err := ledger.NormalizeBankTransactions(page.Added)
	if err != nil {
		return fmt.Errorf("normalize added: %w", err)
	}

	modified, err := ledger.NormalizeBankTransactions(page.Modified)
	if err != nil {
		return fmt.Errorf("normalize modified: %w", err)
	}

	if len(page.Removed) > 0 {
		deleted, err := s.storage.DeleteTransactions(ctx, page.Removed)
		if err != nil {
			return fmt.Errorf("delete removed transactions: %w", err)
		}
		if deleted < int64(len(page.Removed)) {
			log.Debug("some removed transactions were already absent", zap.Int("removed", len(page.Removed)), zap.Int64("deleted", deleted))
		}
	}

	if len(added) > 0 {
		inserted, err := s.storage.CreateTransactions(ctx, added)
		if err != nil {
			return fmt.Errorf("create added transactions: %w", err)
		}
		if inserted < int64(len(added)) {
			log.Debug("some added transactions already existed", zap.Int("added", len(added)), zap.Int64("inserted", inserted))
		}
	}

	if len(modified) > 0 {
		if err := s.storage.UpsertTransactions(ctx, modified); err != nil {
			return fmt.Errorf("upsert modified transactions: %w", err)
		}
	}

	for _, tx := range added {
		log.Debug("added", txFields(tx)...)
	}
	for _, tx := range modified {
		log.Debug("modified", txFields(tx)...)
	}

	result.Added += len(added)
	result.Modified += len(modified)
	result.Removed += len(page.Removed)

	return nil
}

func txFields(tx ledger.Transaction) []zap.Field {
	fields := []zap.Field{
		zap.String("transaction_id", tx.TransactionID),
		zap.String("account_id", tx.AccountID),
		zap.String("date", tx.Date.Format(ledger.DateLayout)),
		zap.String("amount", tx.Amount.String()),
	}
	if tx.MerchantName != nil {
		fields = append(fields, zap.String("merchant", *tx.MerchantName))
	}
	return fields
}
