package bookstore

import (
	"errors"
	"fmt"
)

// Direction is a sort or index direction.
type Direction int

const (
	Ascending  Direction = 1
	Descending Direction = -1
)

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}

	return "asc"
}

// SortField is one key of a sort specification.
type SortField struct {
	Field     string
	Direction Direction
}

// FindOptions holds the cursor modifiers of a find operation.
//
// It should only be constructed with NewFindOptions from FindOption(s).
type FindOptions struct {
	Sort  []SortField
	Skip  int64
	Limit int64 // 0 means no limit
	errs  []error
}

// FindOption configures FindOptions.
type FindOption func(*FindOptions)

// NewFindOptions applies the given FindOption(s) in order.
func NewFindOptions(options ...FindOption) FindOptions {
	fo := FindOptions{}
	for _, option := range options {
		option(&fo)
	}

	return fo
}

// Validate reports invalid sort fields and negative skip or limit values.
func (fo FindOptions) Validate() error {
	errs := fo.errs

	if fo.Skip < 0 {
		errs = append(errs, fmt.Errorf("%w: negative skip %d", ErrInvalidFindOptions, fo.Skip))
	}

	if fo.Limit < 0 {
		errs = append(errs, fmt.Errorf("%w: negative limit %d", ErrInvalidFindOptions, fo.Limit))
	}

	return errors.Join(errs...)
}

// SortBy appends a sort key. Calling it multiple times builds a compound sort.
func SortBy(field string, direction Direction) FindOption {
	return func(fo *FindOptions) {
		if err := ValidateFieldName(field); err != nil {
			fo.errs = append(fo.errs, err)
		}

		if direction != Ascending && direction != Descending {
			fo.errs = append(fo.errs, fmt.Errorf("%w: sort direction %d", ErrInvalidFindOptions, direction))
		}

		fo.Sort = append(fo.Sort, SortField{Field: field, Direction: direction})
	}
}

// Skip sets the number of documents to skip.
func Skip(n int64) FindOption {
	return func(fo *FindOptions) {
		fo.Skip = n
	}
}

// Limit sets the maximum number of documents to return.
func Limit(n int64) FindOption {
	return func(fo *FindOptions) {
		fo.Limit = n
	}
}

// Page selects the 1-based page of the given size, i.e. skips (page-1)*pageSize and limits to pageSize.
func Page(page, pageSize int64) FindOption {
	return func(fo *FindOptions) {
		if page < 1 || pageSize < 1 {
			fo.errs = append(fo.errs, fmt.Errorf("%w: page %d with page size %d", ErrInvalidFindOptions, page, pageSize))
			return
		}

		fo.Skip = (page - 1) * pageSize
		fo.Limit = pageSize
	}
}

/***** Projection *****/

// Projection restricts the fields of returned documents.
//
// An empty include list returns all fields. The _id field is returned unless ExcludeID is set.
type Projection struct {
	include   []string
	excludeID bool
}

// Include creates a Projection returning only the given fields (and _id).
func Include(fields ...string) Projection {
	return Projection{include: fields}
}

// ExcludeID returns a copy of the Projection that omits the _id field.
func (p Projection) ExcludeID() Projection {
	p.excludeID = true
	return p
}

func (p Projection) Fields() []string {
	return p.include
}

func (p Projection) ExcludesID() bool {
	return p.excludeID
}

// Validate checks the projected field names.
func (p Projection) Validate() error {
	errs := make([]error, 0)
	for _, field := range p.include {
		if err := ValidateFieldName(field); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Apply returns a new Document containing only the projected fields of doc.
// Fields missing in doc stay missing, as a document store would return them.
func (p Projection) Apply(doc Document) Document {
	projected := make(Document, len(p.include)+1)

	if len(p.include) == 0 {
		for key, val := range doc {
			projected[key] = val
		}
	} else {
		for _, field := range p.include {
			if val, ok := doc[field]; ok {
				projected[field] = val
			}
		}

		if id, ok := doc[FieldID]; ok {
			projected[FieldID] = id
		}
	}

	if p.excludeID {
		delete(projected, FieldID)
	}

	return projected
}
