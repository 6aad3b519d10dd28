package postgres

import (
	_ "embed"

	"github.com/eqtlab/ledger-syncer/pkg/db"
)

// Schema creates every table the storage needs. It is safe to apply repeatedly.
//
//go:embed migrations/schema.sql
var Schema string

// Storage implements syncer.Storage and export.Storage via PostgreSQL
type Storage struct {
	db *db.DB
}

func New(db *db.DB) *Storage {
	return &Storage{
		db: db,
	}
}
