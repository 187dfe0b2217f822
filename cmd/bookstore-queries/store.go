package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver

	"github.com/AntonStoeckl/bookstore-queries-go/bookstore"
	"github.com/AntonStoeckl/bookstore-queries-go/bookstore/memoryengine"
	"github.com/AntonStoeckl/bookstore-queries-go/bookstore/mongoengine"
	"github.com/AntonStoeckl/bookstore-queries-go/bookstore/postgresengine"
	"github.com/AntonStoeckl/bookstore-queries-go/runner"
	"github.com/AntonStoeckl/bookstore-queries-go/testutil/fixtures"
)

const postgresDriverName = "postgres"

// storeOpener returns the runner.OpenStoreFunc for the configured engine.
func storeOpener(cfg Config, obs Observability) runner.OpenStoreFunc {
	switch cfg.Engine {
	case EnginePostgres:
		return func(ctx context.Context) (bookstore.Store, error) {
			return openPostgresStore(ctx, cfg, obs)
		}
	case EngineMemory:
		return func(context.Context) (bookstore.Store, error) {
			return openMemoryStore(cfg, obs)
		}
	default:
		return func(ctx context.Context) (bookstore.Store, error) {
			return openMongoStore(ctx, cfg, obs)
		}
	}
}

func openMongoStore(ctx context.Context, cfg Config, obs Observability) (bookstore.Store, error) {
	options := []mongoengine.Option{
		mongoengine.WithCollectionName(cfg.Collection),
		mongoengine.WithLogger(obs.Logger),
	}

	if obs.ContextualLogger != nil {
		options = append(options, mongoengine.WithContextualLogger(obs.ContextualLogger))
	}

	if obs.MetricsCollector != nil {
		options = append(options, mongoengine.WithMetrics(obs.MetricsCollector))
	}

	if obs.TracingCollector != nil {
		options = append(options, mongoengine.WithTracing(obs.TracingCollector))
	}

	store, err := mongoengine.Connect(ctx, cfg.MongoURI, cfg.Database, options...)
	if err != nil {
		return nil, err
	}

	return store, nil
}

func openPostgresStore(ctx context.Context, cfg Config, obs Observability) (bookstore.Store, error) {
	options := []postgresengine.Option{
		postgresengine.WithTableName(cfg.Collection),
		postgresengine.WithLogger(obs.Logger),
	}

	if obs.ContextualLogger != nil {
		options = append(options, postgresengine.WithContextualLogger(obs.ContextualLogger))
	}

	if obs.MetricsCollector != nil {
		options = append(options, postgresengine.WithMetrics(obs.MetricsCollector))
	}

	if obs.TracingCollector != nil {
		options = append(options, postgresengine.WithTracing(obs.TracingCollector))
	}

	var (
		store *postgresengine.Store
		err   error
	)

	switch cfg.PostgresAdapter {
	case AdapterSQLDB:
		store, err = connectSQLDB(ctx, cfg.PostgresDSN, options)
	case AdapterSQLX:
		store, err = connectSQLX(ctx, cfg.PostgresDSN, options)
	default:
		store, err = connectPGXPool(ctx, cfg.PostgresDSN, options)
	}

	if err != nil {
		return nil, err
	}

	if err = store.EnsureCollection(ctx); err != nil {
		return nil, errors.Join(err, store.Close(ctx))
	}

	return store, nil
}

func connectPGXPool(ctx context.Context, dsn string, options []postgresengine.Option) (*postgresengine.Store, error) {
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", bookstore.ErrConnectingFailed, err)
	}

	return postgresengine.Connect(ctx, poolConfig, options...)
}

func connectSQLDB(ctx context.Context, dsn string, options []postgresengine.Option) (*postgresengine.Store, error) {
	db, err := sql.Open(postgresDriverName, dsn)
	if err != nil {
		return nil, errors.Join(bookstore.ErrConnectingFailed, err)
	}

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Join(bookstore.ErrConnectingFailed, err)
	}

	store, err := postgresengine.NewStoreFromSQLDB(db, append(options, postgresengine.WithOwnedConnection())...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func connectSQLX(ctx context.Context, dsn string, options []postgresengine.Option) (*postgresengine.Store, error) {
	db, err := sqlx.ConnectContext(ctx, postgresDriverName, dsn)
	if err != nil {
		return nil, errors.Join(bookstore.ErrConnectingFailed, err)
	}

	store, err := postgresengine.NewStoreFromSQLX(db, append(options, postgresengine.WithOwnedConnection())...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func openMemoryStore(cfg Config, obs Observability) (bookstore.Store, error) {
	options := []memoryengine.Option{memoryengine.WithLogger(obs.Logger)}

	if obs.ContextualLogger != nil {
		options = append(options, memoryengine.WithContextualLogger(obs.ContextualLogger))
	}

	if obs.MetricsCollector != nil {
		options = append(options, memoryengine.WithMetrics(obs.MetricsCollector))
	}

	if obs.TracingCollector != nil {
		options = append(options, memoryengine.WithTracing(obs.TracingCollector))
	}

	if cfg.SeedMemory {
		options = append(options, memoryengine.WithBooks(fixtures.Books()))
	}

	store, err := memoryengine.NewStore(options...)
	if err != nil {
		return nil, err
	}

	return store, nil
}
