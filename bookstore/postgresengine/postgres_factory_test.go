package postgresengine_test

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/lib/pq" // postgres driver
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/bookstore-queries-go/bookstore"
	"github.com/AntonStoeckl/bookstore-queries-go/bookstore/postgresengine"
	"github.com/AntonStoeckl/bookstore-queries-go/testutil/config"
)

// sql.Open does not connect, so these tests need no running database.
func givenLazySQLDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("postgres", config.PostgresDSN())
	require.NoError(t, err)

	return db
}

func Test_FactoryFunctions_NewStore_ShouldFail_WithNilDatabaseConnection(t *testing.T) {
	testCases := []struct {
		name        string
		factoryFunc func() (*postgresengine.Store, error)
	}{
		{
			name: "NewStoreFromPGXPool with nil",
			factoryFunc: func() (*postgresengine.Store, error) {
				return postgresengine.NewStoreFromPGXPool(nil)
			},
		},
		{
			name: "NewStoreFromSQLDB with nil",
			factoryFunc: func() (*postgresengine.Store, error) {
				return postgresengine.NewStoreFromSQLDB(nil)
			},
		},
		{
			name: "NewStoreFromSQLX with nil",
			factoryFunc: func() (*postgresengine.Store, error) {
				return postgresengine.NewStoreFromSQLX(nil)
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// act
			_, err := tc.factoryFunc()

			// assert
			assert.ErrorIs(t, err, bookstore.ErrNilDatabaseConnection)
		})
	}
}

func Test_FactoryFunctions_WithTableName(t *testing.T) {
	testCases := []struct {
		name        string
		tableName   string
		expectedErr error
	}{
		{name: "empty table name", tableName: "", expectedErr: bookstore.ErrEmptyTableName},
		{name: "table name with quote", tableName: `books"; DROP TABLE books; --`, expectedErr: bookstore.ErrInvalidTableName},
		{name: "table name with upper case", tableName: "Books", expectedErr: bookstore.ErrInvalidTableName},
		{name: "valid table name", tableName: "library_books"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			db := givenLazySQLDB(t)
			defer func() { _ = db.Close() }()

			// act
			store, err := postgresengine.NewStoreFromSQLDB(db, postgresengine.WithTableName(tc.tableName))

			// assert
			if tc.expectedErr != nil {
				assert.ErrorIs(t, err, tc.expectedErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.tableName, store.TableName())
		})
	}
}

func Test_FactoryFunctions_DefaultTableName(t *testing.T) {
	db := givenLazySQLDB(t)
	defer func() { _ = db.Close() }()

	store, err := postgresengine.NewStoreFromSQLDB(db)

	require.NoError(t, err)
	assert.Equal(t, "books", store.TableName())
}

func Test_Close_ClosesOnlyOwnedConnections(t *testing.T) {
	ctx := context.Background()

	t.Run("borrowed connection stays open", func(t *testing.T) {
		db := givenLazySQLDB(t)
		defer func() { _ = db.Close() }()

		store, err := postgresengine.NewStoreFromSQLDB(db)
		require.NoError(t, err)

		require.NoError(t, store.Close(ctx))

		// a closed sql.DB refuses new connections with this message, an open one tries to connect
		pingErr := db.PingContext(ctx)
		if pingErr != nil {
			assert.NotContains(t, pingErr.Error(), "database is closed")
		}
	})

	t.Run("owned connection is closed", func(t *testing.T) {
		db := givenLazySQLDB(t)

		store, err := postgresengine.NewStoreFromSQLDB(db, postgresengine.WithOwnedConnection())
		require.NoError(t, err)

		require.NoError(t, store.Close(ctx))

		assert.ErrorContains(t, db.PingContext(ctx), "database is closed")
	})

	t.Run("closing twice is a no-op", func(t *testing.T) {
		db := givenLazySQLDB(t)

		store, err := postgresengine.NewStoreFromSQLDB(db, postgresengine.WithOwnedConnection())
		require.NoError(t, err)

		assert.NoError(t, store.Close(ctx))
		assert.NoError(t, store.Close(ctx))
	})
}

func Test_Operations_ShouldFail_AfterClose(t *testing.T) {
	ctx := context.Background()
	db := givenLazySQLDB(t)
	defer func() { _ = db.Close() }()

	store, err := postgresengine.NewStoreFromSQLDB(db)
	require.NoError(t, err)
	require.NoError(t, store.Close(ctx))

	_, err = store.Find(ctx, bookstore.MatchAll())
	assert.ErrorIs(t, err, bookstore.ErrStoreClosed)

	_, err = store.UpdateOne(ctx, bookstore.MatchAll(), bookstore.BuildUpdate().Set(bookstore.FieldPrice, 1.0).Finalize())
	assert.ErrorIs(t, err, bookstore.ErrStoreClosed)

	_, err = store.DeleteOne(ctx, bookstore.MatchAll())
	assert.ErrorIs(t, err, bookstore.ErrStoreClosed)

	_, err = store.Aggregate(ctx, bookstore.BuildPipeline().GroupByField(bookstore.FieldGenre).Count("count").Finalize())
	assert.ErrorIs(t, err, bookstore.ErrStoreClosed)

	_, err = store.CreateIndex(ctx, bookstore.NewIndexModel(bookstore.Asc(bookstore.FieldTitle)))
	assert.ErrorIs(t, err, bookstore.ErrStoreClosed)
}

func Test_Operations_ShouldFail_WithInvalidInput_BeforeTouchingTheDatabase(t *testing.T) {
	ctx := context.Background()
	db := givenLazySQLDB(t)
	defer func() { _ = db.Close() }()

	store, err := postgresengine.NewStoreFromSQLDB(db)
	require.NoError(t, err)

	_, err = store.Find(ctx, bookstore.BuildFilter().Eq("bad field", 1).Finalize())
	assert.ErrorIs(t, err, bookstore.ErrInvalidFieldName)

	_, err = store.UpdateOne(ctx, bookstore.MatchAll(), bookstore.BuildUpdate().Finalize())
	assert.ErrorIs(t, err, bookstore.ErrEmptyUpdate)

	_, err = store.Aggregate(ctx, bookstore.BuildPipeline().Finalize())
	assert.ErrorIs(t, err, bookstore.ErrInvalidPipeline)

	_, err = store.CreateIndex(ctx, bookstore.IndexModel{})
	assert.ErrorIs(t, err, bookstore.ErrInvalidIndex)
}
