package postgres

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/eqtlab/ledger-syncer/ledger"
	"github.com/eqtlab/ledger-syncer/pkg/db"
	"github.com/eqtlab/ledger-syncer/syncer"
)

func (s *Storage) ListInstitutions(ctx context.Context) ([]ledger.Institution, error) {
	query := sq.
		Select("institution_id", "name", "access_token", "cursor").
		From("institutions").
		OrderBy("id")

	var institutions []ledger.Institution
	err := s.db.Select(ctx, query, db.ScanAll(&institutions, func(inst *ledger.Institution) db.ScanArgs {
		return db.ScanArgs{&inst.InstitutionID, &inst.Name, &inst.AccessToken, &inst.Cursor}
	}))
	if db.IsNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("db select: %w", err)
	}

	return institutions, nil
}

// SaveInstitution upserts the institution and its accounts in one transaction.
// The stored cursor is never touched here.
func (s *Storage) SaveInstitution(ctx context.Context, institution ledger.Institution, accounts []ledger.Account) error {
	return s.db.RunInTransaction(ctx, func(ctx context.Context, txDB *db.DB) error {
		query := sq.
			Insert("institutions").
			Columns("institution_id", "name", "access_token").
			Values(institution.InstitutionID, institution.Name, institution.AccessToken).
			Suffix("on conflict (institution_id) do update set name = excluded.name, access_token = excluded.access_token")

		if _, err := txDB.Exec(ctx, query); err != nil {
			return fmt.Errorf("upsert institution: %w", err)
		}

		if err := upsertAccounts(ctx, txDB, accounts); err != nil {
			return fmt.Errorf("upsert accounts: %w", err)
		}

		return nil
	})
}

func (s *Storage) GetCursor(ctx context.Context, institutionID string) (*string, error) {
	query := sq.
		Select("cursor").
		From("institutions").
		Where(sq.Eq{"institution_id": institutionID})

	var cursor *string
	err := s.db.Select(ctx, query, db.ScanOnce(&cursor))
	if db.IsNoRows(err) {
		return nil, fmt.Errorf("%w: %s", syncer.ErrUnknownInstitution, institutionID)
	}
	if err != nil {
		return nil, fmt.Errorf("db select: %w", err)
	}

	return cursor, nil
}

func (s *Storage) SetCursor(ctx context.Context, institutionID string, cursor string) error {
	query := sq.
		Update("institutions").
		Set("cursor", cursor).
		Where(sq.Eq{"institution_id": institutionID})

	affected, err := s.db.Exec(ctx, query)
	if err != nil {
		return fmt.Errorf("db update: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", syncer.ErrUnknownInstitution, institutionID)
	}

	return nil
}
