package bookstore_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/bookstore-queries-go/bookstore"
)

func Test_FilterBuilder_ValidCombinations(t *testing.T) {
	tests := []struct {
		name     string
		build    func() bookstore.Filter
		validate func(t *testing.T, f bookstore.Filter)
	}{
		{
			name:  "match_all_is_empty",
			build: bookstore.MatchAll,
			validate: func(t *testing.T, f bookstore.Filter) {
				assert.True(t, f.IsEmpty())
				assert.Empty(t, f.Conditions())
			},
		},
		{
			name: "single_equality",
			build: func() bookstore.Filter {
				return bookstore.BuildFilter().Eq(bookstore.FieldGenre, "Fiction").Finalize()
			},
			validate: func(t *testing.T, f bookstore.Filter) {
				require.Len(t, f.Conditions(), 1)
				assert.Equal(t, bookstore.FieldGenre, f.Conditions()[0].Field())
				assert.Equal(t, bookstore.OpEq, f.Conditions()[0].Operator())
				assert.Equal(t, "Fiction", f.Conditions()[0].Value())
			},
		},
		{
			name: "int_values_are_normalized_to_int64",
			build: func() bookstore.Filter {
				return bookstore.BuildFilter().Gt(bookstore.FieldPublishedYear, 1950).Finalize()
			},
			validate: func(t *testing.T, f bookstore.Filter) {
				require.Len(t, f.Conditions(), 1)
				assert.Equal(t, bookstore.OpGt, f.Conditions()[0].Operator())
				assert.Equal(t, int64(1950), f.Conditions()[0].Value())
			},
		},
		{
			name: "conditions_keep_their_order",
			build: func() bookstore.Filter {
				return bookstore.BuildFilter().
					Eq(bookstore.FieldInStock, true).
					Gt(bookstore.FieldPublishedYear, 1980).
					Lte(bookstore.FieldPrice, float32(20)).
					Finalize()
			},
			validate: func(t *testing.T, f bookstore.Filter) {
				require.Len(t, f.Conditions(), 3)
				assert.Equal(t, bookstore.FieldInStock, f.Conditions()[0].Field())
				assert.Equal(t, bookstore.FieldPublishedYear, f.Conditions()[1].Field())
				assert.Equal(t, bookstore.FieldPrice, f.Conditions()[2].Field())
				assert.Equal(t, float64(20), f.Conditions()[2].Value())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := tt.build()
			assert.NoError(t, f.Validate())
			tt.validate(t, f)
		})
	}
}

func Test_FilterBuilder_RecordsInvalidInput(t *testing.T) {
	tests := []struct {
		name        string
		filter      bookstore.Filter
		expectedErr error
	}{
		{
			name:        "field_name_with_operator_characters",
			filter:      bookstore.BuildFilter().Eq("$where", "x").Finalize(),
			expectedErr: bookstore.ErrInvalidFieldName,
		},
		{
			name:        "dotted_field_name",
			filter:      bookstore.BuildFilter().Gte("author.name", "x").Finalize(),
			expectedErr: bookstore.ErrInvalidFieldName,
		},
		{
			name:        "unsupported_value_type",
			filter:      bookstore.BuildFilter().Lt(bookstore.FieldPrice, []int{1}).Finalize(),
			expectedErr: bookstore.ErrUnsupportedValueType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.filter.Validate(), tt.expectedErr)
		})
	}
}

func Test_FilterBuilder_BranchesDoNotShareState(t *testing.T) {
	base := bookstore.BuildFilter().Eq(bookstore.FieldGenre, "Fiction")

	invalid := base.Eq("Bad Field", 1).Finalize()
	valid := base.Gt(bookstore.FieldPrice, 10.0).Finalize()

	assert.Error(t, invalid.Validate())
	assert.NoError(t, valid.Validate())
	assert.Len(t, valid.Conditions(), 2)
	assert.Len(t, base.Finalize().Conditions(), 1)
}

func Test_NormalizeValue(t *testing.T) {
	tests := []struct {
		in       any
		expected any
	}{
		{in: "x", expected: "x"},
		{in: true, expected: true},
		{in: 7, expected: int64(7)},
		{in: int32(7), expected: int64(7)},
		{in: int64(7), expected: int64(7)},
		{in: float32(1.5), expected: 1.5},
		{in: 11.99, expected: 11.99},
	}

	for _, tt := range tests {
		got, err := bookstore.NormalizeValue(tt.in)
		assert.NoError(t, err)
		assert.Equal(t, tt.expected, got)
	}

	_, err := bookstore.NormalizeValue(nil)
	assert.ErrorIs(t, err, bookstore.ErrUnsupportedValueType)
}
