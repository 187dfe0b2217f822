package postgreswrapper

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/AntonStoeckl/bookstore-queries-go/bookstore/postgresengine" //nolint:revive
	"github.com/AntonStoeckl/bookstore-queries-go/testutil/config"
)

// AdapterTypeEnvVar selects the database adapter the integration tests run on.
const AdapterTypeEnvVar = "ADAPTER_TYPE"

// Adapter type constants
const (
	typePGXPool = "pgxpool"
	typeSQLDB   = "sqldb"
	typeSQLX    = "sqlx"
)

// Wrapper interface to abstract over different adapter types
type Wrapper interface {
	GetStore() *Store
	Close()
}

// PGXPoolWrapper wraps pgxpool-based testing
type PGXPoolWrapper struct {
	pool  *pgxpool.Pool
	store *Store
}

func (w *PGXPoolWrapper) GetStore() *Store {
	return w.store
}

func (w *PGXPoolWrapper) Close() {
	w.pool.Close()
}

// SQLDBWrapper wraps sql.DB-based testing
type SQLDBWrapper struct {
	db    *sql.DB
	store *Store
}

func (w *SQLDBWrapper) GetStore() *Store {
	return w.store
}

func (w *SQLDBWrapper) Close() {
	_ = w.db.Close() // ignore error
}

// SQLXWrapper wraps sqlx.DB-based testing
type SQLXWrapper struct {
	db    *sqlx.DB
	store *Store
}

func (w *SQLXWrapper) GetStore() *Store {
	return w.store
}

func (w *SQLXWrapper) Close() {
	_ = w.db.Close() // ignore error
}

// CreateWrapperWithTestConfig creates the wrapper selected by ADAPTER_TYPE and makes sure the documents table exists.
func CreateWrapperWithTestConfig(t testing.TB, options ...Option) Wrapper {
	t.Helper()

	var wrapper Wrapper

	adapterTypeFromEnv := strings.ToLower(os.Getenv(AdapterTypeEnvVar))

	switch adapterTypeFromEnv {
	case typePGXPool, "":
		connPool, err := pgxpool.NewWithConfig(context.Background(), config.PostgresPGXPoolConfig())
		require.NoError(t, err, "error connecting to DB pool in test setup")
		store, err := NewStoreFromPGXPool(connPool, options...)
		require.NoError(t, err, "error creating store in test setup")

		wrapper = &PGXPoolWrapper{pool: connPool, store: store}

	case typeSQLDB:
		db := config.PostgresSQLDBConfig()
		store, err := NewStoreFromSQLDB(db, options...)
		require.NoError(t, err, "error creating store in test setup")

		wrapper = &SQLDBWrapper{db: db, store: store}

	case typeSQLX:
		db := config.PostgresSQLXConfig()
		store, err := NewStoreFromSQLX(db, options...)
		require.NoError(t, err, "error creating store in test setup")

		wrapper = &SQLXWrapper{db: db, store: store}

	default: // neither one of the known types nor empty
		panic(fmt.Sprintf("unsupported wrapper type from env: %s", adapterTypeFromEnv))
	}

	require.NoError(t, wrapper.GetStore().EnsureCollection(context.Background()), "error creating the documents table")

	return wrapper
}

// CleanUp removes all documents from the table of the wrapped store.
func CleanUp(t testing.TB, wrapper Wrapper) {
	t.Helper()

	_, err := wrapper.GetStore().DeleteAll(context.Background())
	assert.NoError(t, err, "error cleaning up the documents table")
}

// CountDocumentsInDB counts the rows of the documents table directly, bypassing the store.
func CountDocumentsInDB(t testing.TB, wrapper Wrapper) int64 {
	t.Helper()

	var count int64
	var err error

	query := fmt.Sprintf(`SELECT COUNT(*) FROM %q`, wrapper.GetStore().TableName())

	switch w := wrapper.(type) {
	case *PGXPoolWrapper:
		err = w.pool.QueryRow(context.Background(), query).Scan(&count)

	case *SQLDBWrapper:
		err = w.db.QueryRow(query).Scan(&count)

	case *SQLXWrapper:
		err = w.db.QueryRow(query).Scan(&count)

	default:
		panic(fmt.Sprintf("unsupported wrapper type: %T", w))
	}

	assert.NoError(t, err, "error counting documents")

	return count
}
