package mongoengine

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AntonStoeckl/bookstore-queries-go/bookstore"
)

const (
	opSet      = "$set"
	opGroup    = "$group"
	opSort     = "$sort"
	opLimit    = "$limit"
	opAvg      = "$avg"
	opSum      = "$sum"
	opSubtract = "$subtract"
	opMod      = "$mod"
)

var comparisonOperators = map[bookstore.Operator]string{
	bookstore.OpEq:  "$eq",
	bookstore.OpGt:  "$gt",
	bookstore.OpGte: "$gte",
	bookstore.OpLt:  "$lt",
	bookstore.OpLte: "$lte",
}

// translateFilter builds the query document. Conditions on the same field are merged into one
// operator document, a single equality stays in the short {field: value} form.
func translateFilter(filter bookstore.Filter) bson.D {
	query := bson.D{}
	byField := make(map[string]int)
	conditionsPerField := make(map[string][]bookstore.Condition)

	for _, condition := range filter.Conditions() {
		if _, ok := byField[condition.Field()]; !ok {
			byField[condition.Field()] = len(query)
			query = append(query, bson.E{Key: condition.Field()})
		}

		conditionsPerField[condition.Field()] = append(conditionsPerField[condition.Field()], condition)
	}

	for field, position := range byField {
		conditions := conditionsPerField[field]

		if len(conditions) == 1 && conditions[0].Operator() == bookstore.OpEq {
			query[position].Value = conditions[0].Value()
			continue
		}

		operators := bson.D{}
		for _, condition := range conditions {
			operators = append(operators, bson.E{Key: comparisonOperators[condition.Operator()], Value: condition.Value()})
		}

		query[position].Value = operators
	}

	return query
}

func translateFindOptions(findOptions bookstore.FindOptions) *options.FindOptions {
	opts := options.Find()

	if len(findOptions.Sort) > 0 {
		sort := bson.D{}
		for _, sortField := range findOptions.Sort {
			sort = append(sort, bson.E{Key: sortField.Field, Value: int(sortField.Direction)})
		}

		opts.SetSort(sort)
	}

	if findOptions.Skip > 0 {
		opts.SetSkip(findOptions.Skip)
	}

	if findOptions.Limit > 0 {
		opts.SetLimit(findOptions.Limit)
	}

	return opts
}

// translateProjection returns the projection document and whether there is anything to project.
func translateProjection(projection bookstore.Projection) (bson.D, bool) {
	doc := bson.D{}

	for _, field := range projection.Fields() {
		if field == bookstore.FieldID {
			continue
		}

		doc = append(doc, bson.E{Key: field, Value: 1})
	}

	if projection.ExcludesID() {
		doc = append(doc, bson.E{Key: bookstore.FieldID, Value: 0})
	}

	return doc, len(doc) > 0
}

func translateUpdate(update bookstore.Update) bson.D {
	set := bson.D{}
	for _, assignment := range update.Assignments() {
		set = append(set, bson.E{Key: assignment.Field, Value: assignment.Value})
	}

	return bson.D{{Key: opSet, Value: set}}
}

func translatePipeline(pipeline bookstore.Pipeline) mongo.Pipeline {
	groupKey := pipeline.GroupKey()
	accumulator := pipeline.Accumulator()

	var key any = "$" + groupKey.Field
	if groupKey.Kind == bookstore.GroupByFieldBucket {
		fieldRef := "$" + groupKey.Field
		key = bson.D{{Key: opSubtract, Value: bson.A{fieldRef, bson.D{{Key: opMod, Value: bson.A{fieldRef, groupKey.Width}}}}}}
	}

	var accumulated bson.D
	switch accumulator.Kind {
	case bookstore.AccumulateAverage:
		accumulated = bson.D{{Key: opAvg, Value: "$" + accumulator.Field}}
	case bookstore.AccumulateCount:
		accumulated = bson.D{{Key: opSum, Value: 1}}
	}

	stages := mongo.Pipeline{
		{{Key: opGroup, Value: bson.D{
			{Key: bookstore.FieldID, Value: key},
			{Key: accumulator.Name, Value: accumulated},
		}}},
	}

	if pipelineSort, ok := pipeline.Sort(); ok {
		sortKey := bookstore.FieldID
		if pipelineSort.Target == bookstore.SortTargetValue {
			sortKey = accumulator.Name
		}

		stages = append(stages, bson.D{{Key: opSort, Value: bson.D{{Key: sortKey, Value: int(pipelineSort.Direction)}}}})
	}

	if limit := pipeline.Limit(); limit > 0 {
		stages = append(stages, bson.D{{Key: opLimit, Value: limit}})
	}

	return stages
}

func translateIndex(index bookstore.IndexModel) mongo.IndexModel {
	keys := bson.D{}
	for _, key := range index.Keys {
		keys = append(keys, bson.E{Key: key.Field, Value: int(key.Direction)})
	}

	return mongo.IndexModel{
		Keys:    keys,
		Options: options.Index().SetName(index.Name()),
	}
}

// documentFromBSON converts a decoded document into a bookstore.Document with plain Go values.
func documentFromBSON(raw bson.M) bookstore.Document {
	doc := make(bookstore.Document, len(raw))
	for key, val := range raw {
		doc[key] = plainValue(val)
	}

	return doc
}

func groupRowFromBSON(raw bson.M, pipeline bookstore.Pipeline) bookstore.GroupRow {
	key := plainValue(raw[bookstore.FieldID])

	if pipeline.GroupKey().Kind == bookstore.GroupByFieldBucket {
		if number, ok := toFloat(key); ok {
			key = int64(number)
		}
	}

	value, _ := toFloat(plainValue(raw[pipeline.Accumulator().Name]))

	return bookstore.GroupRow{Key: key, Value: value}
}

func plainValue(val any) any {
	switch v := val.(type) {
	case primitive.ObjectID:
		return v.Hex()
	case int32:
		return int64(v)
	case primitive.Null, primitive.Undefined:
		return nil
	default:
		return v
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
