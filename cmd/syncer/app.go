package main

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/eqtlab/ledger-syncer/config"
	"github.com/eqtlab/ledger-syncer/export"
	"github.com/eqtlab/ledger-syncer/pkg/coinbase"
	"github.com/eqtlab/ledger-syncer/pkg/db"
	"github.com/eqtlab/ledger-syncer/pkg/logger"
	"github.com/eqtlab/ledger-syncer/pkg/plaid"
	"github.com/eqtlab/ledger-syncer/pkg/postgres"
	storage "github.com/eqtlab/ledger-syncer/storage/postgres"
	"github.com/eqtlab/ledger-syncer/syncer"
)

// app holds what every command needs: configuration, logger and storage.
type app struct {
	cfg   config.Config
	log   *zap.Logger
	pool  *pgxpool.Pool
	store *storage.Storage
}

func newApp(ctx context.Context, envFile string) (*app, error) {
	if err := config.LoadDotEnv(envFile); err != nil {
		return nil, err
	}

	cfg, err := config.ParseEnv(ctx)
	if err != nil {
		return nil, fmt.Errorf("parse configuration: %w", err)
	}

	log := logger.New(cfg.Debug).With(zap.String("run_id", uuid.NewString()))

	if cfg.DB.Migrate {
		if err := postgres.Migrate(ctx, cfg.DB, storage.Schema); err != nil {
			return nil, fmt.Errorf("migrate db: %w", err)
		}
	}

	pool, err := postgres.Connect(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("connect to db: %w", err)
	}

	return &app{
		cfg:   cfg,
		log:   log,
		pool:  pool,
		store: storage.New(db.NewDB(pool, log)),
	}, nil
}

func (a *app) Close() {
	a.pool.Close()
	_ = a.log.Sync()
}

func (a *app) syncer() (*syncer.Syncer, error) {
	if err := a.cfg.RequirePlaid(); err != nil {
		return nil, err
	}

	aggregator, err := plaid.New(a.cfg.Plaid)
	if err != nil {
		return nil, fmt.Errorf("create plaid client: %w", err)
	}

	// left as a nil interface when the exchange is not configured
	var exchange syncer.Exchange
	if a.cfg.Coinbase.Enabled() {
		exchange = coinbase.New(a.cfg.Coinbase)
	}

	return syncer.New(a.store, aggregator, exchange, a.log, a.cfg.Syncer), nil
}

func (a *app) exporter() (*export.Exporter, error) {
	since, err := a.cfg.Export.Since()
	if err != nil {
		return nil, err
	}
	return export.New(a.store, since, a.log), nil
}
