package bookstore

import (
	"errors"
)

var ErrNilDatabaseConnection = errors.New("nil database connection supplied")
var ErrEmptyTableName = errors.New("empty table name supplied")
var ErrInvalidTableName = errors.New("invalid table name supplied")
var ErrEmptyDatabaseName = errors.New("empty database name supplied")
var ErrEmptyCollectionName = errors.New("empty collection name supplied")
var ErrStoreClosed = errors.New("store is closed")
var ErrConnectingFailed = errors.New("connecting to database failed")

var ErrInvalidFieldName = errors.New("invalid field name")
var ErrUnsupportedValueType = errors.New("unsupported value type")
var ErrInvalidFindOptions = errors.New("invalid find options")
var ErrEmptyUpdate = errors.New("update must set at least one field")
var ErrInvalidPipeline = errors.New("invalid aggregation pipeline")
var ErrInvalidIndex = errors.New("invalid index model")

var ErrBuildingQueryFailed = errors.New("building query failed")
var ErrQueryingFailed = errors.New("querying documents failed")
var ErrScanningDBRowFailed = errors.New("scanning db row failed")
var ErrDecodingDocumentFailed = errors.New("decoding document failed")
var ErrUpdatingFailed = errors.New("updating document failed")
var ErrDeletingFailed = errors.New("deleting document failed")
var ErrAggregatingFailed = errors.New("aggregating documents failed")
var ErrCreatingIndexFailed = errors.New("creating index failed")
var ErrInsertingFailed = errors.New("inserting documents failed")
var ErrClosingFailed = errors.New("closing store failed")
