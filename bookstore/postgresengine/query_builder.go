package postgresengine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect import
	"github.com/doug-martin/goqu/v9/exp"
	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/bookstore-queries-go/bookstore"
)

const (
	dialectPostgres = "postgres"
	colID           = "id"
	colDoc          = "doc"
	aliasGroupKey   = "group_key"
	aliasValue      = "value"
	aliasMatched    = "matched"
	aliasModified   = "modified"
	cteTarget       = "target"
	cteUpdated      = "updated"
	castJsonb       = "?::jsonb"
	selectIDText    = "id::text"
	selectDocText   = "doc::text"
	firstSeenOrder  = "MIN(id::text)"
	jsonTypeNumber  = "number"
	jsonTypeString  = "string"
	jsonTypeBoolean = "boolean"
)

var comparisonOperators = map[bookstore.Operator]string{
	bookstore.OpGt:  ">",
	bookstore.OpGte: ">=",
	bookstore.OpLt:  "<",
	bookstore.OpLte: "<=",
}

// Floats must round-trip exactly, so not ConfigFastest.
var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

type sqlQueryString = string

// queryBuilder renders the engine-neutral descriptions as PostgreSQL statements on a (id uuid, doc jsonb) table.
type queryBuilder struct {
	tableName string
}

func (qb queryBuilder) dialect() goqu.DialectWrapper {
	return goqu.Dialect(dialectPostgres)
}

func (qb queryBuilder) buildSelectQuery(filter bookstore.Filter, findOptions bookstore.FindOptions) (sqlQueryString, error) {
	where, err := qb.whereExpressions(filter)
	if err != nil {
		return "", err
	}

	selectStmt := withWhere(qb.dialect().
		From(qb.tableName).
		Select(goqu.L(selectIDText), goqu.L(selectDocText)),
		where,
	)

	orderBy := make([]exp.OrderedExpression, 0, len(findOptions.Sort)+1)
	for _, sortField := range findOptions.Sort {
		// missing fields sort first ascending and last descending
		if sortField.Direction == bookstore.Descending {
			orderBy = append(orderBy, goqu.L("doc->?", sortField.Field).Desc().NullsLast())
		} else {
			orderBy = append(orderBy, goqu.L("doc->?", sortField.Field).Asc().NullsFirst())
		}
	}

	selectStmt = selectStmt.Order(append(orderBy, goqu.C(colID).Asc())...)

	if findOptions.Skip > 0 {
		selectStmt = selectStmt.Offset(uint(findOptions.Skip))
	}

	if findOptions.Limit > 0 {
		selectStmt = selectStmt.Limit(uint(findOptions.Limit))
	}

	return qb.toSQL(selectStmt)
}

// buildUpdateOneQuery returns a query yielding one row with the matched and the modified count.
// A document that already contains all assigned values counts as matched but not modified.
func (qb queryBuilder) buildUpdateOneQuery(filter bookstore.Filter, update bookstore.Update) (sqlQueryString, error) {
	where, err := qb.whereExpressions(filter)
	if err != nil {
		return "", err
	}

	patch, err := jsonAPI.MarshalToString(update.Fields())
	if err != nil {
		return "", errors.Join(bookstore.ErrBuildingQueryFailed, err)
	}

	builder := qb.dialect()

	targetStmt := withWhere(builder.From(qb.tableName).Select(colID, colDoc), where).
		Order(goqu.C(colID).Asc()).
		Limit(1)

	updateStmt := builder.
		Update(qb.tableName).
		Set(goqu.Record{colDoc: goqu.L("? || "+castJsonb, goqu.I(qb.tableName+"."+colDoc), patch)}).
		From(cteTarget).
		Where(
			goqu.I(qb.tableName+"."+colID).Eq(goqu.I(cteTarget+"."+colID)),
			goqu.L("NOT (? @> "+castJsonb+")", goqu.I(cteTarget+"."+colDoc), patch),
		).
		Returning(goqu.I(qb.tableName + "." + colID))

	countStmt := builder.
		Select(
			goqu.L(fmt.Sprintf("(SELECT COUNT(*) FROM %s)", cteTarget)).As(aliasMatched),
			goqu.L(fmt.Sprintf("(SELECT COUNT(*) FROM %s)", cteUpdated)).As(aliasModified),
		).
		With(cteTarget, targetStmt).
		With(cteUpdated, updateStmt)

	return qb.toSQL(countStmt)
}

func (qb queryBuilder) buildDeleteOneQuery(filter bookstore.Filter) (sqlQueryString, error) {
	where, err := qb.whereExpressions(filter)
	if err != nil {
		return "", err
	}

	builder := qb.dialect()

	targetStmt := withWhere(builder.From(qb.tableName).Select(colID), where).
		Order(goqu.C(colID).Asc()).
		Limit(1)

	deleteStmt := builder.
		Delete(qb.tableName).
		Where(goqu.C(colID).Eq(targetStmt))

	sqlQuery, _, toSQLErr := deleteStmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(bookstore.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func (qb queryBuilder) buildDeleteAllQuery() (sqlQueryString, error) {
	sqlQuery, _, toSQLErr := qb.dialect().Delete(qb.tableName).ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(bookstore.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

// buildAggregateQuery groups in first-seen order unless the pipeline sorts.
func (qb queryBuilder) buildAggregateQuery(pipeline bookstore.Pipeline) (sqlQueryString, error) {
	groupKey := pipeline.GroupKey()
	accumulator := pipeline.Accumulator()

	keyExpr := goqu.L("doc->?", groupKey.Field)
	if groupKey.Kind == bookstore.GroupByFieldBucket {
		keyExpr = goqu.L(
			"to_jsonb((doc->>?)::numeric - mod((doc->>?)::numeric, ?))",
			groupKey.Field, groupKey.Field, groupKey.Width,
		)
	}

	var valueExpr exp.LiteralExpression
	switch accumulator.Kind {
	case bookstore.AccumulateAverage:
		valueExpr = goqu.L(
			"COALESCE(AVG(CASE WHEN jsonb_typeof(doc->?) = ? THEN (doc->>?)::float8 END), 0)::float8",
			accumulator.Field, jsonTypeNumber, accumulator.Field,
		)
	case bookstore.AccumulateCount:
		valueExpr = goqu.L("COUNT(*)::float8")
	default:
		return "", fmt.Errorf("%w: unknown accumulator", bookstore.ErrInvalidPipeline)
	}

	selectStmt := qb.dialect().
		From(qb.tableName).
		Select(
			goqu.L("COALESCE((?)::text, 'null')", keyExpr).As(aliasGroupKey),
			valueExpr.As(aliasValue),
		).
		GroupBy(keyExpr)

	orderBy := make([]exp.OrderedExpression, 0, 2)
	if pipelineSort, ok := pipeline.Sort(); ok {
		var sortExpr exp.Orderable = keyExpr
		if pipelineSort.Target == bookstore.SortTargetValue {
			sortExpr = goqu.C(aliasValue)
		}

		if pipelineSort.Direction == bookstore.Descending {
			orderBy = append(orderBy, sortExpr.Desc().NullsLast())
		} else {
			orderBy = append(orderBy, sortExpr.Asc().NullsFirst())
		}
	}

	selectStmt = selectStmt.Order(append(orderBy, goqu.L(firstSeenOrder).Asc())...)

	if limit := pipeline.Limit(); limit > 0 {
		selectStmt = selectStmt.Limit(uint(limit))
	}

	return qb.toSQL(selectStmt)
}

func (qb queryBuilder) buildInsertQuery(ids []string, books bookstore.Books) (sqlQueryString, error) {
	rows := make([]any, 0, len(books))

	for i, book := range books {
		doc, err := jsonAPI.MarshalToString(book)
		if err != nil {
			return "", errors.Join(bookstore.ErrBuildingQueryFailed, err)
		}

		rows = append(rows, goqu.Record{colID: goqu.L("?::uuid", ids[i]), colDoc: goqu.L(castJsonb, doc)})
	}

	sqlQuery, _, toSQLErr := qb.dialect().Insert(qb.tableName).Rows(rows...).ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(bookstore.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

// buildCreateIndexQuery renders DDL, which goqu does not cover. All identifiers are validated field names.
func (qb queryBuilder) buildCreateIndexQuery(index bookstore.IndexModel) sqlQueryString {
	keys := make([]string, 0, len(index.Keys))
	for _, key := range index.Keys {
		keys = append(keys, fmt.Sprintf("(doc->'%s') %s", key.Field, strings.ToUpper(key.Direction.String())))
	}

	return fmt.Sprintf(
		"CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
		quoteIdentifier(qb.tableName+"_"+index.Name()),
		quoteIdentifier(qb.tableName),
		strings.Join(keys, ", "),
	)
}

func (qb queryBuilder) buildCreateTableQuery() sqlQueryString {
	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (%s uuid PRIMARY KEY, %s jsonb NOT NULL)",
		quoteIdentifier(qb.tableName), colID, colDoc,
	)
}

func (qb queryBuilder) whereExpressions(filter bookstore.Filter) ([]exp.Expression, error) {
	expressions := make([]exp.Expression, 0, len(filter.Conditions()))

	for _, condition := range filter.Conditions() {
		if condition.Operator() == bookstore.OpEq {
			containment, err := jsonAPI.MarshalToString(map[string]any{condition.Field(): condition.Value()})
			if err != nil {
				return nil, errors.Join(bookstore.ErrBuildingQueryFailed, err)
			}

			expressions = append(expressions, goqu.L("doc @> "+castJsonb, containment))

			continue
		}

		sqlOperator, ok := comparisonOperators[condition.Operator()]
		if !ok {
			return nil, fmt.Errorf("%w: unknown operator %q", bookstore.ErrBuildingQueryFailed, condition.Operator())
		}

		expressions = append(expressions, rangeExpression(condition.Field(), sqlOperator, condition.Value()))
	}

	return expressions, nil
}

// rangeExpression compares only values of the same JSON type, like a document store does.
func rangeExpression(field, sqlOperator string, value any) exp.Expression {
	var jsonType, operand string

	switch value.(type) {
	case string:
		jsonType, operand = jsonTypeString, `(doc->>?) COLLATE "C"`
	case bool:
		jsonType, operand = jsonTypeBoolean, "(doc->>?)::boolean"
	default:
		jsonType, operand = jsonTypeNumber, "(doc->>?)::numeric"
	}

	return goqu.L(
		fmt.Sprintf("CASE WHEN jsonb_typeof(doc->?) = ? THEN %s %s ? ELSE false END", operand, sqlOperator),
		field, jsonType, field, value,
	)
}

// withWhere adds the conditions combined with AND, an empty filter adds no WHERE clause.
func withWhere(selectStmt *goqu.SelectDataset, where []exp.Expression) *goqu.SelectDataset {
	if len(where) == 0 {
		return selectStmt
	}

	return selectStmt.Where(where...)
}

func (qb queryBuilder) toSQL(selectStmt *goqu.SelectDataset) (sqlQueryString, error) {
	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		return "", errors.Join(bookstore.ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
