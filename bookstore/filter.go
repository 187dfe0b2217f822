package bookstore

import (
	"errors"
	"fmt"
)

type FilterFieldString = string
type FilterValue = any

/***** Operator *****/

// Operator is a comparison operator of a Condition.
type Operator string

const (
	OpEq  Operator = "eq"
	OpGt  Operator = "gt"
	OpGte Operator = "gte"
	OpLt  Operator = "lt"
	OpLte Operator = "lte"
)

/***** Condition *****/

// Condition compares one document field with a value.
type Condition struct {
	field    FilterFieldString
	operator Operator
	value    FilterValue
}

func (c Condition) Field() FilterFieldString {
	return c.field
}

func (c Condition) Operator() Operator {
	return c.operator
}

func (c Condition) Value() FilterValue {
	return c.value
}

/***** Filter *****/

// Filter matches documents for which ALL conditions hold. An empty Filter matches every document.
type Filter struct {
	conditions []Condition
	errs       []error
}

// MatchAll returns the empty Filter.
func MatchAll() Filter {
	return Filter{}
}

func (f Filter) Conditions() []Condition {
	return f.conditions
}

// IsEmpty reports whether the Filter has no conditions.
func (f Filter) IsEmpty() bool {
	return len(f.conditions) == 0
}

// Validate reports the problems recorded while building the Filter.
func (f Filter) Validate() error {
	return errors.Join(f.errs...)
}

/***** FilterBuilder *****/

// FilterBuilder builds a generic document filter to be used in engine-specific implementations to build queries for
// the specific query language, e.g.: MongoDB, Postgres JSONB, ...
//
// Multiple conditions on different fields are combined with AND, which is the only combination the
// batch of queries needs.
type FilterBuilder struct {
	filter Filter
}

// BuildFilter creates a FilterBuilder which must eventually be finalized with Finalize().
func BuildFilter() FilterBuilder {
	return FilterBuilder{}
}

// Eq adds an equality condition.
func (fb FilterBuilder) Eq(field FilterFieldString, value FilterValue) FilterBuilder {
	return fb.add(field, OpEq, value)
}

// Gt adds a greater-than condition.
func (fb FilterBuilder) Gt(field FilterFieldString, value FilterValue) FilterBuilder {
	return fb.add(field, OpGt, value)
}

// Gte adds a greater-than-or-equal condition.
func (fb FilterBuilder) Gte(field FilterFieldString, value FilterValue) FilterBuilder {
	return fb.add(field, OpGte, value)
}

// Lt adds a less-than condition.
func (fb FilterBuilder) Lt(field FilterFieldString, value FilterValue) FilterBuilder {
	return fb.add(field, OpLt, value)
}

// Lte adds a less-than-or-equal condition.
func (fb FilterBuilder) Lte(field FilterFieldString, value FilterValue) FilterBuilder {
	return fb.add(field, OpLte, value)
}

// Finalize returns the Filter. Problems with field names or values are reported by Filter.Validate.
func (fb FilterBuilder) Finalize() Filter {
	return fb.filter
}

func (fb FilterBuilder) add(field FilterFieldString, operator Operator, value FilterValue) FilterBuilder {
	conditions := make([]Condition, len(fb.filter.conditions), len(fb.filter.conditions)+1)
	copy(conditions, fb.filter.conditions)
	errs := append([]error{}, fb.filter.errs...)

	if err := ValidateFieldName(field); err != nil {
		errs = append(errs, err)
	}

	normalized, err := NormalizeValue(value)
	if err != nil {
		errs = append(errs, fmt.Errorf("field %q: %w", field, err))
	}

	fb.filter = Filter{
		conditions: append(conditions, Condition{field: field, operator: operator, value: normalized}),
		errs:       errs,
	}

	return fb
}

// NormalizeValue converts the supported scalar types into string, bool, int64 or float64.
func NormalizeValue(value any) (any, error) {
	switch v := value.(type) {
	case string, bool, int64, float64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case float32:
		return float64(v), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedValueType, value)
	}
}
