package bookstore

import (
	"errors"
	"fmt"
)

// GroupKeyKind tells how the grouping key is derived from a document.
type GroupKeyKind int

const (
	// GroupByFieldValue groups by the value of a field.
	GroupByFieldValue GroupKeyKind = iota + 1
	// GroupByFieldBucket groups by field - (field mod width), e.g. the decade of a year.
	GroupByFieldBucket
)

// GroupKey is the _id expression of a group stage.
type GroupKey struct {
	Kind  GroupKeyKind
	Field string
	Width int64
}

// AccumulatorKind is the aggregation function of a group stage.
type AccumulatorKind int

const (
	AccumulateAverage AccumulatorKind = iota + 1
	AccumulateCount
)

// Accumulator computes one value per group and stores it under Name.
type Accumulator struct {
	Kind  AccumulatorKind
	Field string // unused for AccumulateCount
	Name  string
}

// SortTarget selects what a pipeline sort stage orders by.
type SortTarget int

const (
	SortTargetKey SortTarget = iota + 1
	SortTargetValue
)

// PipelineSort is the optional sort stage after grouping.
type PipelineSort struct {
	Target    SortTarget
	Direction Direction
}

// Pipeline is a group stage with exactly one accumulator, optionally followed by a sort stage and a limit stage.
type Pipeline struct {
	groupKey    GroupKey
	accumulator Accumulator
	sort        *PipelineSort
	limit       int64
	errs        []error
}

func (p Pipeline) GroupKey() GroupKey {
	return p.groupKey
}

func (p Pipeline) Accumulator() Accumulator {
	return p.accumulator
}

// Sort returns the sort stage and whether there is one.
func (p Pipeline) Sort() (PipelineSort, bool) {
	if p.sort == nil {
		return PipelineSort{}, false
	}

	return *p.sort, true
}

// Limit returns the limit stage, 0 means none.
func (p Pipeline) Limit() int64 {
	return p.limit
}

// Validate checks that the pipeline has a group key and an accumulator with valid fields.
func (p Pipeline) Validate() error {
	errs := append([]error{}, p.errs...)

	if p.groupKey.Kind == 0 {
		errs = append(errs, fmt.Errorf("%w: missing group key", ErrInvalidPipeline))
	}

	if p.accumulator.Kind == 0 {
		errs = append(errs, fmt.Errorf("%w: missing accumulator", ErrInvalidPipeline))
	}

	if p.limit < 0 {
		errs = append(errs, fmt.Errorf("%w: negative limit %d", ErrInvalidPipeline, p.limit))
	}

	return errors.Join(errs...)
}

// PipelineBuilder builds a Pipeline.
type PipelineBuilder struct {
	pipeline Pipeline
}

// BuildPipeline creates a PipelineBuilder which must eventually be finalized with Finalize().
func BuildPipeline() PipelineBuilder {
	return PipelineBuilder{}
}

// GroupByField groups documents by the value of field.
func (pb PipelineBuilder) GroupByField(field string) PipelineBuilder {
	pb.pipeline.errs = pb.checkField(field)
	pb.pipeline.groupKey = GroupKey{Kind: GroupByFieldValue, Field: field}

	return pb
}

// GroupByBucket groups documents by field - (field mod width).
func (pb PipelineBuilder) GroupByBucket(field string, width int64) PipelineBuilder {
	pb.pipeline.errs = pb.checkField(field)

	if width < 1 {
		pb.pipeline.errs = append(pb.pipeline.errs, fmt.Errorf("%w: bucket width %d", ErrInvalidPipeline, width))
	}

	pb.pipeline.groupKey = GroupKey{Kind: GroupByFieldBucket, Field: field, Width: width}

	return pb
}

// Average computes the mean of field per group, stored as name.
func (pb PipelineBuilder) Average(field string, name string) PipelineBuilder {
	pb.pipeline.errs = append(pb.checkField(field), pb.checkName(name)...)
	pb.pipeline.accumulator = Accumulator{Kind: AccumulateAverage, Field: field, Name: name}

	return pb
}

// Count counts the documents per group, stored as name.
func (pb PipelineBuilder) Count(name string) PipelineBuilder {
	pb.pipeline.errs = append(pb.pipeline.errs, pb.checkName(name)...)
	pb.pipeline.accumulator = Accumulator{Kind: AccumulateCount, Name: name}

	return pb
}

// SortByKey sorts the groups by their key.
func (pb PipelineBuilder) SortByKey(direction Direction) PipelineBuilder {
	pb.pipeline.sort = &PipelineSort{Target: SortTargetKey, Direction: direction}
	return pb
}

// SortByValue sorts the groups by their accumulated value.
func (pb PipelineBuilder) SortByValue(direction Direction) PipelineBuilder {
	pb.pipeline.sort = &PipelineSort{Target: SortTargetValue, Direction: direction}
	return pb
}

// Limit keeps the first n groups.
func (pb PipelineBuilder) Limit(n int64) PipelineBuilder {
	pb.pipeline.limit = n
	return pb
}

// Finalize returns the Pipeline.
func (pb PipelineBuilder) Finalize() Pipeline {
	return pb.pipeline
}

func (pb PipelineBuilder) checkField(field string) []error {
	errs := append([]error{}, pb.pipeline.errs...)
	if err := ValidateFieldName(field); err != nil {
		errs = append(errs, err)
	}

	return errs
}

func (pb PipelineBuilder) checkName(name string) []error {
	if name == FieldID {
		return []error{fmt.Errorf("%w: accumulator must not be named %s", ErrInvalidPipeline, FieldID)}
	}

	if err := ValidateFieldName(name); err != nil {
		return []error{err}
	}

	return nil
}

/***** Results *****/

// GroupRow is one group of an aggregation result.
//
// Key holds the group key: the field's value for GroupByFieldValue (nil if the field was missing)
// and an int64 for GroupByFieldBucket. Value holds the accumulated value.
type GroupRow struct {
	Key   any     `json:"_id"`
	Value float64 `json:"value"`
}

// GroupRows is an alias type for a slice of GroupRow.
type GroupRows = []GroupRow

// BucketKey computes the bucket of value for the given width, the same way $subtract/$mod do.
func BucketKey(value int64, width int64) int64 {
	return value - value%width
}
