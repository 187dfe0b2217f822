package memoryengine

import (
	"fmt"
	"sort"

	"github.com/AntonStoeckl/bookstore-queries-go/bookstore"
)

// Type ranks follow MongoDB's comparison order for the value types a document can hold here.
const (
	rankNull = iota
	rankNumber
	rankString
	rankBool
)

func documentFromBook(id string, book bookstore.Book) bookstore.Document {
	return bookstore.Document{
		bookstore.FieldID:            id,
		bookstore.FieldTitle:         book.Title,
		bookstore.FieldAuthor:        book.Author,
		bookstore.FieldGenre:         book.Genre,
		bookstore.FieldPublishedYear: int64(book.PublishedYear),
		bookstore.FieldPrice:         book.Price,
		bookstore.FieldInStock:       book.InStock,
	}
}

func bookFromDocument(doc bookstore.Document) bookstore.Book {
	book := bookstore.Book{}

	book.Title, _ = doc[bookstore.FieldTitle].(string)
	book.Author, _ = doc[bookstore.FieldAuthor].(string)
	book.Genre, _ = doc[bookstore.FieldGenre].(string)
	book.InStock, _ = doc[bookstore.FieldInStock].(bool)

	if year, ok := toFloat(doc[bookstore.FieldPublishedYear]); ok {
		book.PublishedYear = int(year)
	}

	if price, ok := toFloat(doc[bookstore.FieldPrice]); ok {
		book.Price = price
	}

	return book
}

func copyDocument(doc bookstore.Document) bookstore.Document {
	copied := make(bookstore.Document, len(doc))
	for key, val := range doc {
		copied[key] = val
	}

	return copied
}

// matches reports whether every condition of the filter holds for doc.
// A condition on a missing field or on a value of a different type never holds.
func matches(doc bookstore.Document, filter bookstore.Filter) bool {
	for _, condition := range filter.Conditions() {
		val, exists := doc[condition.Field()]
		if !exists {
			return false
		}

		cmp, comparable := compareValues(val, condition.Value())
		if !comparable {
			return false
		}

		switch condition.Operator() {
		case bookstore.OpEq:
			if cmp != 0 {
				return false
			}
		case bookstore.OpGt:
			if cmp <= 0 {
				return false
			}
		case bookstore.OpGte:
			if cmp < 0 {
				return false
			}
		case bookstore.OpLt:
			if cmp >= 0 {
				return false
			}
		case bookstore.OpLte:
			if cmp > 0 {
				return false
			}
		default:
			return false
		}
	}

	return true
}

func lessBySort(a, b bookstore.Document, sortFields []bookstore.SortField) bool {
	for _, sortField := range sortFields {
		cmp := compareForSort(a[sortField.Field], b[sortField.Field])
		if cmp == 0 {
			continue
		}

		if sortField.Direction == bookstore.Descending {
			return cmp > 0
		}

		return cmp < 0
	}

	return false
}

// compareForSort orders values of different types by type rank, so missing fields sort first ascending.
func compareForSort(a, b any) int {
	rankA, rankB := typeRank(a), typeRank(b)
	if rankA != rankB {
		if rankA < rankB {
			return -1
		}

		return 1
	}

	cmp, _ := compareValues(a, b)

	return cmp
}

func typeRank(v any) int {
	switch v.(type) {
	case int, int32, int64, float32, float64:
		return rankNumber
	case string:
		return rankString
	case bool:
		return rankBool
	default:
		return rankNull
	}
}

// compareValues compares two values of the same type bracket.
func compareValues(a, b any) (int, bool) {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		if !ok {
			return 0, false
		}

		return compareOrdered(fa, fb), true
	}

	switch va := a.(type) {
	case string:
		vb, ok := b.(string)
		if !ok {
			return 0, false
		}

		return compareOrdered(va, vb), true

	case bool:
		vb, ok := b.(bool)
		if !ok {
			return 0, false
		}

		return compareOrdered(boolRank(va), boolRank(vb)), true

	case nil:
		if b == nil {
			return 0, true
		}
	}

	return 0, false
}

func sameValue(a, b any) bool {
	cmp, comparable := compareValues(a, b)

	return comparable && cmp == 0 && typeRank(a) == typeRank(b)
}

func compareOrdered[T int | float64 | string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func boolRank(b bool) int {
	if b {
		return 1
	}

	return 0
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

type group struct {
	key   any
	sum   float64
	count int64
	seen  int64
}

// aggregate evaluates the group stage in first-seen key order, then the optional sort and limit stages.
func aggregate(docs []bookstore.Document, pipeline bookstore.Pipeline) (bookstore.GroupRows, error) {
	groupKey := pipeline.GroupKey()
	accumulator := pipeline.Accumulator()

	groups := make([]*group, 0)
	byKey := make(map[any]*group)

	for _, doc := range docs {
		key, err := keyOf(doc, groupKey)
		if err != nil {
			return nil, err
		}

		g, ok := byKey[key]
		if !ok {
			g = &group{key: key}
			byKey[key] = g
			groups = append(groups, g)
		}

		g.seen++

		if accumulator.Kind == bookstore.AccumulateAverage {
			// $avg ignores non-numeric values
			if val, ok := toFloat(doc[accumulator.Field]); ok {
				g.sum += val
				g.count++
			}
		}
	}

	rows := make(bookstore.GroupRows, 0, len(groups))
	for _, g := range groups {
		row := bookstore.GroupRow{Key: g.key}

		switch accumulator.Kind {
		case bookstore.AccumulateAverage:
			if g.count > 0 {
				row.Value = g.sum / float64(g.count)
			}
		case bookstore.AccumulateCount:
			row.Value = float64(g.seen)
		}

		rows = append(rows, row)
	}

	if pipelineSort, ok := pipeline.Sort(); ok {
		sort.SliceStable(rows, func(i, j int) bool {
			var cmp int
			if pipelineSort.Target == bookstore.SortTargetValue {
				cmp = compareOrdered(rows[i].Value, rows[j].Value)
			} else {
				cmp = compareForSort(rows[i].Key, rows[j].Key)
			}

			if pipelineSort.Direction == bookstore.Descending {
				return cmp > 0
			}

			return cmp < 0
		})
	}

	if limit := pipeline.Limit(); limit > 0 && limit < int64(len(rows)) {
		rows = rows[:limit]
	}

	return rows, nil
}

func keyOf(doc bookstore.Document, groupKey bookstore.GroupKey) (any, error) {
	val, exists := doc[groupKey.Field]
	if !exists {
		return nil, nil
	}

	if groupKey.Kind == bookstore.GroupByFieldValue {
		return val, nil
	}

	if val == nil {
		return nil, nil
	}

	number, ok := toFloat(val)
	if !ok {
		return nil, fmt.Errorf("cannot bucket non-numeric value %v of field %q", val, groupKey.Field)
	}

	return bookstore.BucketKey(int64(number), groupKey.Width), nil
}
