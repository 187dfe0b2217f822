package observe

// Operation names used in log messages, metric labels, and span names.
const (
	OperationFind          = "find"
	OperationFindDocuments = "find_documents"
	OperationUpdateOne     = "update_one"
	OperationDeleteOne     = "delete_one"
	OperationAggregate     = "aggregate"
	OperationCreateIndex   = "create_index"
	OperationInsertMany    = "insert_many"
	OperationDeleteAll     = "delete_all"
	OperationClose         = "close"
)

// Error types used as metric labels and span attributes.
const (
	ErrorTypeInvalidInput = "invalid_input"
	ErrorTypeBuildQuery   = "build_query_error"
	ErrorTypeDatabase     = "database_error"
	ErrorTypeScan         = "row_scan_error"
	ErrorTypeDecode       = "decode_error"
	ErrorTypeClosed       = "store_closed"
)
