package bookstore

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// IndexKey is one field of an index, in order.
type IndexKey struct {
	Field     string
	Direction Direction
}

// IndexModel describes a single-field or compound index.
type IndexModel struct {
	Keys []IndexKey
}

// NewIndexModel creates an IndexModel from the given keys, preserving their order.
func NewIndexModel(key IndexKey, keys ...IndexKey) IndexModel {
	return IndexModel{Keys: append([]IndexKey{key}, keys...)}
}

// Asc is shorthand for an ascending IndexKey.
func Asc(field string) IndexKey {
	return IndexKey{Field: field, Direction: Ascending}
}

// Desc is shorthand for a descending IndexKey.
func Desc(field string) IndexKey {
	return IndexKey{Field: field, Direction: Descending}
}

// Name returns the index name the way MongoDB derives it, e.g. "author_1_published_year_-1".
func (im IndexModel) Name() string {
	parts := make([]string, 0, len(im.Keys)*2)
	for _, key := range im.Keys {
		parts = append(parts, key.Field, strconv.Itoa(int(key.Direction)))
	}

	return strings.Join(parts, "_")
}

// Validate rejects empty models, invalid field names, unknown directions and repeated fields.
func (im IndexModel) Validate() error {
	if len(im.Keys) == 0 {
		return fmt.Errorf("%w: no keys", ErrInvalidIndex)
	}

	errs := make([]error, 0)
	seen := make(map[string]struct{}, len(im.Keys))

	for _, key := range im.Keys {
		if err := ValidateFieldName(key.Field); err != nil {
			errs = append(errs, err)
		}

		if key.Direction != Ascending && key.Direction != Descending {
			errs = append(errs, fmt.Errorf("%w: direction %d for %q", ErrInvalidIndex, key.Direction, key.Field))
		}

		if _, ok := seen[key.Field]; ok {
			errs = append(errs, fmt.Errorf("%w: field %q repeated", ErrInvalidIndex, key.Field))
		}

		seen[key.Field] = struct{}{}
	}

	return errors.Join(errs...)
}
