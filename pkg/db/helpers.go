package db

import (
	"github.com/jackc/pgx/v5"
)

// RowScanner handles a single row of a query result.
type RowScanner func(rows pgx.Rows) error

// ScanOnce scans the single expected row into dest.
func ScanOnce(dest ...any) RowScanner {
	var scanner RowScanner

	if len(dest) > 0 {
		scanner = func(rows pgx.Rows) error {
			return rows.Scan(dest...)
		}
	}

	return scanner
}

type ScanArgs []any

// ScanAll appends one T per row to objs, in result order.
func ScanAll[T any](objs *[]T, getArgs func(obj *T) ScanArgs) RowScanner {
	return func(rows pgx.Rows) error {
		var obj T

		if err := rows.Scan(getArgs(&obj)...); err != nil {
			return err
		}

		*objs = append(*objs, obj)

		return nil
	}
}
