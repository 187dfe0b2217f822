package bookstore_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/bookstore-queries-go/bookstore"
)

func Test_NewFindOptions(t *testing.T) {
	fo := bookstore.NewFindOptions(
		bookstore.SortBy(bookstore.FieldAuthor, bookstore.Ascending),
		bookstore.SortBy(bookstore.FieldPublishedYear, bookstore.Descending),
		bookstore.Limit(5),
	)

	assert.NoError(t, fo.Validate())
	assert.Equal(t, []bookstore.SortField{
		{Field: bookstore.FieldAuthor, Direction: bookstore.Ascending},
		{Field: bookstore.FieldPublishedYear, Direction: bookstore.Descending},
	}, fo.Sort)
	assert.Equal(t, int64(0), fo.Skip)
	assert.Equal(t, int64(5), fo.Limit)
}

func Test_Page_ComputesSkipAndLimit(t *testing.T) {
	tests := []struct {
		page, size    int64
		skip, limited int64
	}{
		{page: 1, size: 5, skip: 0, limited: 5},
		{page: 2, size: 5, skip: 5, limited: 5},
		{page: 3, size: 10, skip: 20, limited: 10},
	}

	for _, tt := range tests {
		fo := bookstore.NewFindOptions(bookstore.Page(tt.page, tt.size))
		assert.NoError(t, fo.Validate())
		assert.Equal(t, tt.skip, fo.Skip)
		assert.Equal(t, tt.limited, fo.Limit)
	}
}

func Test_FindOptions_Validate_RejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name    string
		options []bookstore.FindOption
	}{
		{name: "page_zero", options: []bookstore.FindOption{bookstore.Page(0, 5)}},
		{name: "page_size_zero", options: []bookstore.FindOption{bookstore.Page(2, 0)}},
		{name: "negative_skip", options: []bookstore.FindOption{bookstore.Skip(-1)}},
		{name: "negative_limit", options: []bookstore.FindOption{bookstore.Limit(-1)}},
		{name: "unknown_direction", options: []bookstore.FindOption{bookstore.SortBy(bookstore.FieldPrice, 0)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, bookstore.NewFindOptions(tt.options...).Validate(), bookstore.ErrInvalidFindOptions)
		})
	}

	assert.ErrorIs(t,
		bookstore.NewFindOptions(bookstore.SortBy("Price", bookstore.Ascending)).Validate(),
		bookstore.ErrInvalidFieldName,
	)
}

func Test_Direction_String(t *testing.T) {
	assert.Equal(t, "asc", bookstore.Ascending.String())
	assert.Equal(t, "desc", bookstore.Descending.String())
}

func Test_Projection_Apply(t *testing.T) {
	doc := bookstore.Document{
		bookstore.FieldID:     "abc",
		bookstore.FieldTitle:  "1984",
		bookstore.FieldAuthor: "George Orwell",
		bookstore.FieldPrice:  10.99,
	}

	tests := []struct {
		name       string
		projection bookstore.Projection
		expected   bookstore.Document
	}{
		{
			name:       "include_fields_keeps_id",
			projection: bookstore.Include(bookstore.FieldTitle, bookstore.FieldAuthor),
			expected:   bookstore.Document{bookstore.FieldID: "abc", bookstore.FieldTitle: "1984", bookstore.FieldAuthor: "George Orwell"},
		},
		{
			name:       "include_fields_without_id",
			projection: bookstore.Include(bookstore.FieldTitle, bookstore.FieldAuthor).ExcludeID(),
			expected:   bookstore.Document{bookstore.FieldTitle: "1984", bookstore.FieldAuthor: "George Orwell"},
		},
		{
			name:       "missing_fields_stay_missing",
			projection: bookstore.Include(bookstore.FieldGenre).ExcludeID(),
			expected:   bookstore.Document{},
		},
		{
			name:       "empty_projection_returns_everything",
			projection: bookstore.Projection{},
			expected:   doc,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NoError(t, tt.projection.Validate())
			assert.Equal(t, tt.expected, tt.projection.Apply(doc))
		})
	}

	assert.ErrorIs(t, bookstore.Include("Title").Validate(), bookstore.ErrInvalidFieldName)
}
