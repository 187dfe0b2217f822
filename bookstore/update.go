package bookstore

import (
	"errors"
	"fmt"
)

// FieldAssignment sets one field to a value.
type FieldAssignment struct {
	Field string
	Value any
}

// Update describes field assignments applied to a matched document, like MongoDB's $set.
type Update struct {
	set  []FieldAssignment
	errs []error
}

// UpdateResult reports how many documents matched and how many were changed.
type UpdateResult struct {
	MatchedCount  int64
	ModifiedCount int64
}

// UpdateBuilder builds an Update.
type UpdateBuilder struct {
	update Update
}

// BuildUpdate creates an UpdateBuilder which must eventually be finalized with Finalize().
func BuildUpdate() UpdateBuilder {
	return UpdateBuilder{}
}

// Set assigns value to field. A later Set of the same field wins.
func (ub UpdateBuilder) Set(field string, value any) UpdateBuilder {
	set := make([]FieldAssignment, 0, len(ub.update.set)+1)
	for _, assignment := range ub.update.set {
		if assignment.Field != field {
			set = append(set, assignment)
		}
	}

	errs := append([]error{}, ub.update.errs...)

	if err := ValidateFieldName(field); err != nil {
		errs = append(errs, err)
	}

	if field == FieldID {
		errs = append(errs, fmt.Errorf("%w: %s is immutable", ErrInvalidFieldName, FieldID))
	}

	normalized, err := NormalizeValue(value)
	if err != nil {
		errs = append(errs, fmt.Errorf("field %q: %w", field, err))
	}

	ub.update = Update{
		set:  append(set, FieldAssignment{Field: field, Value: normalized}),
		errs: errs,
	}

	return ub
}

// Finalize returns the Update.
func (ub UpdateBuilder) Finalize() Update {
	return ub.update
}

func (u Update) Assignments() []FieldAssignment {
	return u.set
}

// Validate reports an empty update and invalid assignments.
func (u Update) Validate() error {
	if len(u.set) == 0 {
		return ErrEmptyUpdate
	}

	return errors.Join(u.errs...)
}

// Fields returns the assignments as a Document.
func (u Update) Fields() Document {
	doc := make(Document, len(u.set))
	for _, assignment := range u.set {
		doc[assignment.Field] = assignment.Value
	}

	return doc
}
