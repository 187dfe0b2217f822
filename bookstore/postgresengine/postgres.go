package postgresengine

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/AntonStoeckl/bookstore-queries-go/bookstore"
	"github.com/AntonStoeckl/bookstore-queries-go/bookstore/internal/observe"
	"github.com/AntonStoeckl/bookstore-queries-go/bookstore/postgresengine/internal/adapters"
)

const (
	engineName            = "postgres"
	defaultTableName      = "books"
	logMsgCloseRowsFailed = "failed to close database rows"
	logActionEnsure       = "ensure_collection"
)

// Store represents a storage for book documents backed by a PostgreSQL JSONB table.
type Store struct {
	db           adapters.DBAdapter
	queryBuilder queryBuilder
	ownsDB       bool
	closed       atomic.Bool
	observer     observe.Observer
}

// NewStoreFromPGXPool creates a new Store using a pgx Pool with optional configuration.
func NewStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (*Store, error) {
	if db == nil {
		return nil, bookstore.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewPGXAdapter(db), options...)
}

// NewStoreFromSQLDB creates a new Store using a sql.DB with optional configuration.
func NewStoreFromSQLDB(db *sql.DB, options ...Option) (*Store, error) {
	if db == nil {
		return nil, bookstore.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLAdapter(db), options...)
}

// NewStoreFromSQLX creates a new Store using a sqlx.DB with optional configuration.
func NewStoreFromSQLX(db *sqlx.DB, options ...Option) (*Store, error) {
	if db == nil {
		return nil, bookstore.ErrNilDatabaseConnection
	}

	return newStore(adapters.NewSQLXAdapter(db), options...)
}

// Connect creates a pgx Pool from the given config, verifies it with a ping,
// and returns a Store that closes the pool on Close.
func Connect(ctx context.Context, config *pgxpool.Config, options ...Option) (*Store, error) {
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, errors.Join(bookstore.ErrConnectingFailed, err)
	}

	if err = pool.Ping(ctx); err != nil {
		pool.Close()

		return nil, errors.Join(bookstore.ErrConnectingFailed, err)
	}

	s, err := NewStoreFromPGXPool(pool, append(options, WithOwnedConnection())...)
	if err != nil {
		pool.Close()

		return nil, err
	}

	return s, nil
}

func newStore(db adapters.DBAdapter, options ...Option) (*Store, error) {
	s := &Store{
		db:           db,
		queryBuilder: queryBuilder{tableName: defaultTableName},
		observer:     observe.Observer{Engine: engineName},
	}

	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// EnsureCollection creates the documents table if it does not exist.
func (s *Store) EnsureCollection(ctx context.Context) error {
	if _, err := s.exec(ctx, logActionEnsure, s.queryBuilder.buildCreateTableQuery()); err != nil {
		return errors.Join(bookstore.ErrCreatingIndexFailed, err)
	}

	return nil
}

// Find returns the matching documents decoded as books.
func (s *Store) Find(ctx context.Context, filter bookstore.Filter, options ...bookstore.FindOption) (bookstore.Books, error) {
	ctx, op := s.observer.Start(ctx, observe.OperationFind)

	rows, errType, err := s.selectRows(ctx, observe.OperationFind, filter, options...)
	if err != nil {
		return nil, op.Fail(errType, err)
	}

	books := make(bookstore.Books, 0, len(rows))
	for _, row := range rows {
		book := bookstore.Book{}
		if err = jsonAPI.UnmarshalFromString(row.doc, &book); err != nil {
			return nil, op.Fail(observe.ErrorTypeDecode, errors.Join(bookstore.ErrDecodingDocumentFailed, err))
		}

		books = append(books, book)
	}

	op.Succeed(len(books))

	return books, nil
}

// FindDocuments returns the matching documents restricted by the projection.
func (s *Store) FindDocuments(
	ctx context.Context,
	filter bookstore.Filter,
	projection bookstore.Projection,
	options ...bookstore.FindOption,
) (bookstore.Documents, error) {

	ctx, op := s.observer.Start(ctx, observe.OperationFindDocuments)

	if err := projection.Validate(); err != nil {
		return nil, op.Fail(observe.ErrorTypeInvalidInput, err)
	}

	rows, errType, err := s.selectRows(ctx, observe.OperationFindDocuments, filter, options...)
	if err != nil {
		return nil, op.Fail(errType, err)
	}

	docs := make(bookstore.Documents, 0, len(rows))
	for _, row := range rows {
		doc, decodeErr := decodeDocument(row.doc)
		if decodeErr != nil {
			return nil, op.Fail(observe.ErrorTypeDecode, errors.Join(bookstore.ErrDecodingDocumentFailed, decodeErr))
		}

		doc[bookstore.FieldID] = row.id
		docs = append(docs, projection.Apply(doc))
	}

	op.Succeed(len(docs))

	return docs, nil
}

type documentRow struct {
	id  string
	doc string
}

func (s *Store) selectRows(
	ctx context.Context,
	action string,
	filter bookstore.Filter,
	options ...bookstore.FindOption,
) ([]documentRow, string, error) {

	findOptions := bookstore.NewFindOptions(options...)

	if err := errors.Join(filter.Validate(), findOptions.Validate()); err != nil {
		return nil, observe.ErrorTypeInvalidInput, err
	}

	if s.closed.Load() {
		return nil, observe.ErrorTypeClosed, bookstore.ErrStoreClosed
	}

	sqlQuery, err := s.queryBuilder.buildSelectQuery(filter, findOptions)
	if err != nil {
		return nil, observe.ErrorTypeBuildQuery, err
	}

	rows, err := s.query(ctx, action, sqlQuery)
	if err != nil {
		return nil, observe.ErrorTypeDatabase, errors.Join(bookstore.ErrQueryingFailed, err)
	}
	defer s.closeRows(ctx, rows)

	result := make([]documentRow, 0)
	for rows.Next() {
		row := documentRow{}
		if err = rows.Scan(&row.id, &row.doc); err != nil {
			return nil, observe.ErrorTypeScan, errors.Join(bookstore.ErrScanningDBRowFailed, err)
		}

		result = append(result, row)
	}

	if err = rows.Err(); err != nil {
		return nil, observe.ErrorTypeDatabase, errors.Join(bookstore.ErrQueryingFailed, err)
	}

	return result, "", nil
}

// UpdateOne merges the assigned fields into the first matching document in insertion order.
func (s *Store) UpdateOne(ctx context.Context, filter bookstore.Filter, update bookstore.Update) (bookstore.UpdateResult, error) {
	ctx, op := s.observer.Start(ctx, observe.OperationUpdateOne)

	if err := errors.Join(filter.Validate(), update.Validate()); err != nil {
		return bookstore.UpdateResult{}, op.Fail(observe.ErrorTypeInvalidInput, err)
	}

	if s.closed.Load() {
		return bookstore.UpdateResult{}, op.Fail(observe.ErrorTypeClosed, bookstore.ErrStoreClosed)
	}

	sqlQuery, err := s.queryBuilder.buildUpdateOneQuery(filter, update)
	if err != nil {
		return bookstore.UpdateResult{}, op.Fail(observe.ErrorTypeBuildQuery, err)
	}

	rows, err := s.query(ctx, observe.OperationUpdateOne, sqlQuery)
	if err != nil {
		return bookstore.UpdateResult{}, op.Fail(observe.ErrorTypeDatabase, errors.Join(bookstore.ErrUpdatingFailed, err))
	}
	defer s.closeRows(ctx, rows)

	result := bookstore.UpdateResult{}
	if rows.Next() {
		if err = rows.Scan(&result.MatchedCount, &result.ModifiedCount); err != nil {
			return bookstore.UpdateResult{}, op.Fail(observe.ErrorTypeScan, errors.Join(bookstore.ErrScanningDBRowFailed, err))
		}
	}

	if err = rows.Err(); err != nil {
		return bookstore.UpdateResult{}, op.Fail(observe.ErrorTypeDatabase, errors.Join(bookstore.ErrUpdatingFailed, err))
	}

	op.Succeed(int(result.ModifiedCount))

	return result, nil
}

// DeleteOne removes the first matching document in insertion order.
func (s *Store) DeleteOne(ctx context.Context, filter bookstore.Filter) (int64, error) {
	ctx, op := s.observer.Start(ctx, observe.OperationDeleteOne)

	if err := filter.Validate(); err != nil {
		return 0, op.Fail(observe.ErrorTypeInvalidInput, err)
	}

	if s.closed.Load() {
		return 0, op.Fail(observe.ErrorTypeClosed, bookstore.ErrStoreClosed)
	}

	sqlQuery, err := s.queryBuilder.buildDeleteOneQuery(filter)
	if err != nil {
		return 0, op.Fail(observe.ErrorTypeBuildQuery, err)
	}

	deleted, err := s.exec(ctx, observe.OperationDeleteOne, sqlQuery)
	if err != nil {
		return 0, op.Fail(observe.ErrorTypeDatabase, errors.Join(bookstore.ErrDeletingFailed, err))
	}

	op.Succeed(int(deleted))

	return deleted, nil
}

// Aggregate groups all documents as described by the pipeline.
func (s *Store) Aggregate(ctx context.Context, pipeline bookstore.Pipeline) (bookstore.GroupRows, error) {
	ctx, op := s.observer.Start(ctx, observe.OperationAggregate)

	if err := pipeline.Validate(); err != nil {
		return nil, op.Fail(observe.ErrorTypeInvalidInput, err)
	}

	if s.closed.Load() {
		return nil, op.Fail(observe.ErrorTypeClosed, bookstore.ErrStoreClosed)
	}

	sqlQuery, err := s.queryBuilder.buildAggregateQuery(pipeline)
	if err != nil {
		return nil, op.Fail(observe.ErrorTypeBuildQuery, err)
	}

	rows, err := s.query(ctx, observe.OperationAggregate, sqlQuery)
	if err != nil {
		return nil, op.Fail(observe.ErrorTypeDatabase, errors.Join(bookstore.ErrAggregatingFailed, err))
	}
	defer s.closeRows(ctx, rows)

	result := make(bookstore.GroupRows, 0)
	for rows.Next() {
		var keyJSON string
		row := bookstore.GroupRow{}

		if err = rows.Scan(&keyJSON, &row.Value); err != nil {
			return nil, op.Fail(observe.ErrorTypeScan, errors.Join(bookstore.ErrScanningDBRowFailed, err))
		}

		if row.Key, err = decodeValue(keyJSON); err != nil {
			return nil, op.Fail(observe.ErrorTypeDecode, errors.Join(bookstore.ErrDecodingDocumentFailed, err))
		}

		if pipeline.GroupKey().Kind == bookstore.GroupByFieldBucket {
			if number, ok := row.Key.(float64); ok {
				row.Key = int64(number)
			}
		}

		result = append(result, row)
	}

	if err = rows.Err(); err != nil {
		return nil, op.Fail(observe.ErrorTypeDatabase, errors.Join(bookstore.ErrAggregatingFailed, err))
	}

	op.Succeed(len(result))

	return result, nil
}

// CreateIndex creates an expression index on the JSONB fields, creating an existing index again is a no-op.
func (s *Store) CreateIndex(ctx context.Context, index bookstore.IndexModel) (string, error) {
	ctx, op := s.observer.Start(ctx, observe.OperationCreateIndex)

	if err := index.Validate(); err != nil {
		return "", op.Fail(observe.ErrorTypeInvalidInput, err)
	}

	if s.closed.Load() {
		return "", op.Fail(observe.ErrorTypeClosed, bookstore.ErrStoreClosed)
	}

	if _, err := s.exec(ctx, observe.OperationCreateIndex, s.queryBuilder.buildCreateIndexQuery(index)); err != nil {
		return "", op.Fail(observe.ErrorTypeDatabase, errors.Join(bookstore.ErrCreatingIndexFailed, err))
	}

	name := index.Name()
	op.Succeed(-1, "index", name)

	return name, nil
}

// InsertMany inserts the books, each with a new UUIDv7 id.
func (s *Store) InsertMany(ctx context.Context, books bookstore.Books) error {
	ctx, op := s.observer.Start(ctx, observe.OperationInsertMany)

	if s.closed.Load() {
		return op.Fail(observe.ErrorTypeClosed, bookstore.ErrStoreClosed)
	}

	if len(books) == 0 {
		op.Succeed(0)
		return nil
	}

	ids := make([]string, 0, len(books))
	for range books {
		id, err := uuid.NewV7()
		if err != nil {
			return op.Fail(observe.ErrorTypeBuildQuery, errors.Join(bookstore.ErrInsertingFailed, err))
		}

		ids = append(ids, id.String())
	}

	sqlQuery, err := s.queryBuilder.buildInsertQuery(ids, books)
	if err != nil {
		return op.Fail(observe.ErrorTypeBuildQuery, err)
	}

	if _, err = s.exec(ctx, observe.OperationInsertMany, sqlQuery); err != nil {
		return op.Fail(observe.ErrorTypeDatabase, errors.Join(bookstore.ErrInsertingFailed, err))
	}

	op.Succeed(len(books))

	return nil
}

// DeleteAll removes every document.
func (s *Store) DeleteAll(ctx context.Context) (int64, error) {
	ctx, op := s.observer.Start(ctx, observe.OperationDeleteAll)

	if s.closed.Load() {
		return 0, op.Fail(observe.ErrorTypeClosed, bookstore.ErrStoreClosed)
	}

	sqlQuery, err := s.queryBuilder.buildDeleteAllQuery()
	if err != nil {
		return 0, op.Fail(observe.ErrorTypeBuildQuery, err)
	}

	deleted, err := s.exec(ctx, observe.OperationDeleteAll, sqlQuery)
	if err != nil {
		return 0, op.Fail(observe.ErrorTypeDatabase, errors.Join(bookstore.ErrDeletingFailed, err))
	}

	op.Succeed(int(deleted))

	return deleted, nil
}

// Close closes the database connection if the Store owns it. Closing twice is a no-op.
func (s *Store) Close(ctx context.Context) error {
	_, op := s.observer.Start(ctx, observe.OperationClose)

	if !s.closed.CompareAndSwap(false, true) {
		op.Succeed(-1)
		return nil
	}

	if s.ownsDB {
		if err := s.db.Close(); err != nil {
			return op.Fail(observe.ErrorTypeDatabase, errors.Join(bookstore.ErrClosingFailed, err))
		}
	}

	op.Succeed(-1)

	return nil
}

// TableName returns the name of the documents table.
func (s *Store) TableName() string {
	return s.queryBuilder.tableName
}

func (s *Store) query(ctx context.Context, action string, sqlQuery string) (adapters.DBRows, error) {
	start := time.Now()
	rows, err := s.db.Query(ctx, sqlQuery)
	s.observer.LogQuery(ctx, action, sqlQuery, time.Since(start))

	return rows, err
}

func (s *Store) exec(ctx context.Context, action string, sqlQuery string) (int64, error) {
	start := time.Now()
	result, err := s.db.Exec(ctx, sqlQuery)
	s.observer.LogQuery(ctx, action, sqlQuery, time.Since(start))

	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

// closeRows safely closes database rows and logs any errors.
func (s *Store) closeRows(ctx context.Context, rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		s.observer.Warn(ctx, logMsgCloseRowsFailed, closeErr)
	}
}

// decodeDocument decodes a JSONB document, whole numbers become int64 and all other numbers float64.
func decodeDocument(raw string) (bookstore.Document, error) {
	val, err := decodeValue(raw)
	if err != nil {
		return nil, err
	}

	doc, ok := val.(map[string]any)
	if !ok {
		return nil, errors.New("stored document is not a JSON object")
	}

	return doc, nil
}

func decodeValue(raw string) (any, error) {
	decoder := jsonAPI.NewDecoder(strings.NewReader(raw))
	decoder.UseNumber()

	var val any
	if err := decoder.Decode(&val); err != nil {
		return nil, err
	}

	return plainNumbers(val), nil
}

func plainNumbers(val any) any {
	switch v := val.(type) {
	case json.Number:
		if i, err := strconv.ParseInt(string(v), 10, 64); err == nil {
			return i
		}

		f, _ := v.Float64()

		return f
	case map[string]any:
		for key, nested := range v {
			v[key] = plainNumbers(nested)
		}

		return v
	case []any:
		for i, nested := range v {
			v[i] = plainNumbers(nested)
		}

		return v
	default:
		return v
	}
}

// Ensure Store implements bookstore.Store and bookstore.Seeder.
var _ bookstore.Store = (*Store)(nil)
var _ bookstore.Seeder = (*Store)(nil)
