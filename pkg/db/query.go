package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type conn interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func NewDB(pool *pgxpool.Pool, log *zap.Logger) *DB {
	return &DB{
		log:  log,
		pool: pool,
		conn: pool,
	}
}

// DB runs squirrel-built statements on a pool or, inside RunInTransaction, on a transaction.
type DB struct {
	log  *zap.Logger
	pool *pgxpool.Pool
	conn conn
}

// Select returns pgx.ErrNoRows when handler is set and the query yields nothing.
func (db *DB) Select(ctx context.Context, query squirrel.SelectBuilder, handler RowScanner) error {
	sql, args, err := query.PlaceholderFormat(squirrel.Dollar).ToSql()
	if err != nil {
		return fmt.Errorf("build select query: %w", err)
	}

	if err := db.query(ctx, sql, args, handler); err != nil {
		return fmt.Errorf("exec select query: %w", err)
	}

	return nil
}

// Exec runs an insert, update or delete and returns the number of affected rows.
func (db *DB) Exec(ctx context.Context, query squirrel.Sqlizer) (int64, error) {
	sql, args, err := toSQL(query)
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	start := time.Now()
	tag, err := db.conn.Exec(ctx, sql, args...)
	db.logQuery(time.Since(start), sql, args)
	if err != nil {
		return 0, fmt.Errorf("exec query: %w", err)
	}

	return tag.RowsAffected(), nil
}

func (db *DB) RawQuery(ctx context.Context, handler RowScanner, sql string, args ...any) error {
	return db.query(ctx, sql, args, handler)
}

func (db *DB) query(ctx context.Context, sql string, args []any, scanner RowScanner) error {
	start := time.Now()
	defer func() {
		db.logQuery(time.Since(start), sql, args)
	}()

	rows, err := db.conn.Query(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("exec query: %w", err)
	}
	defer rows.Close()

	var isAnyRowProcessed bool
	for rows.Next() {
		if scanner == nil {
			continue
		}

		if err = scanner(rows); err != nil {
			return fmt.Errorf("handle row: %w", err)
		}

		isAnyRowProcessed = true
	}

	// Err must only be called after the Rows is closed (either by calling Close or by Next returning false)
	if err = rows.Err(); err != nil {
		return fmt.Errorf("reading query result: %w", err)
	}

	if scanner != nil && !isAnyRowProcessed {
		return pgx.ErrNoRows
	}

	return nil
}

// RunInTransaction commits when f returns nil and rolls back otherwise.
func (db *DB) RunInTransaction(ctx context.Context, f func(ctx context.Context, txDB *DB) error) error {
	err := pgx.BeginTxFunc(ctx, db.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		txDB := &DB{
			log:  db.log,
			pool: db.pool,
			conn: tx,
		}

		return f(ctx, txDB)
	})
	if err != nil {
		return fmt.Errorf("run in transaction: %w", err)
	}

	return nil
}

// IsNoRows reports whether err means the query returned nothing.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func toSQL(query squirrel.Sqlizer) (string, []any, error) {
	switch q := query.(type) {
	case squirrel.InsertBuilder:
		return q.PlaceholderFormat(squirrel.Dollar).ToSql()
	case squirrel.UpdateBuilder:
		return q.PlaceholderFormat(squirrel.Dollar).ToSql()
	case squirrel.DeleteBuilder:
		return q.PlaceholderFormat(squirrel.Dollar).ToSql()
	default:
		return query.ToSql()
	}
}

func (db *DB) logQuery(dur time.Duration, sql string, args []any) {
	if !db.log.Core().Enabled(zap.DebugLevel) {
		return
	}

	sql = strings.ReplaceAll(sql, "\t", " ")
	sql = strings.ReplaceAll(sql, "\n", " ")
	sql = strings.Trim(sql, " ")

	fields := []zap.Field{
		zap.String("sql", sql),
		zap.Int("args", len(args)),
		zap.Duration("dur", dur),
	}
	if db.pool != nil {
		stat := db.pool.Stat()
		fields = append(fields,
			zap.Int32("conn_limit", stat.MaxConns()),
			zap.Int32("conn_used", stat.TotalConns()),
		)
	}

	db.log.Debug("db request", fields...)
}
