package runner_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/bookstore-queries-go/bookstore"
	"github.com/AntonStoeckl/bookstore-queries-go/runner"
)

func Test_DefaultConfig_IsValid(t *testing.T) {
	cfg := runner.DefaultConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "Fiction", cfg.Genre)
	assert.Equal(t, 1950, cfg.PublishedAfter)
	assert.Equal(t, "George Orwell", cfg.Author)
	assert.Equal(t, "1984", cfg.UpdateTitle)
	assert.InDelta(t, 11.99, cfg.UpdatePrice, 0)
	assert.Equal(t, "Moby Dick", cfg.DeleteTitle)
	assert.Equal(t, int64(2), cfg.Page)
	assert.Equal(t, int64(5), cfg.PageSize)
}

func Test_Config_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*runner.Config)
	}{
		{name: "empty genre", mutate: func(c *runner.Config) { c.Genre = "" }},
		{name: "empty author", mutate: func(c *runner.Config) { c.Author = "" }},
		{name: "empty update title", mutate: func(c *runner.Config) { c.UpdateTitle = "" }},
		{name: "empty delete title", mutate: func(c *runner.Config) { c.DeleteTitle = "" }},
		{name: "negative projection preview", mutate: func(c *runner.Config) { c.ProjectionPreview = -1 }},
		{name: "zero sort limit", mutate: func(c *runner.Config) { c.SortLimit = 0 }},
		{name: "zero page", mutate: func(c *runner.Config) { c.Page = 0 }},
		{name: "zero page size", mutate: func(c *runner.Config) { c.PageSize = 0 }},
		{name: "zero decade width", mutate: func(c *runner.Config) { c.DecadeWidth = 0 }},
		{name: "negative timeout", mutate: func(c *runner.Config) { c.OperationTimeout = -time.Second }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := runner.DefaultConfig()
			tc.mutate(&cfg)

			assert.ErrorIs(t, cfg.Validate(), runner.ErrInvalidConfig)
		})
	}
}

func Test_Config_Validate_ReportsEveryProblem(t *testing.T) {
	cfg := runner.DefaultConfig()
	cfg.Genre = ""
	cfg.Page = 0

	err := cfg.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty genre")
	assert.Contains(t, err.Error(), "page 0 must be at least 1")
}

func Test_New_RejectsInvalidInput(t *testing.T) {
	open := func(context.Context) (bookstore.Store, error) { return nil, nil }

	_, err := runner.New(nil, runner.DefaultConfig())
	assert.ErrorIs(t, err, runner.ErrNilOpener)

	invalid := runner.DefaultConfig()
	invalid.PageSize = 0
	_, err = runner.New(open, invalid)
	assert.ErrorIs(t, err, runner.ErrInvalidConfig)

	_, err = runner.New(open, runner.DefaultConfig(), runner.WithOutput(nil))
	assert.ErrorIs(t, err, runner.ErrNilOutput)
}

func Test_New_GeneratesRunID(t *testing.T) {
	open := func(context.Context) (bookstore.Store, error) { return nil, nil }

	first, err := runner.New(open, runner.DefaultConfig())
	require.NoError(t, err)
	second, err := runner.New(open, runner.DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, 7, int(first.RunID().Version()))
	assert.NotEqual(t, first.RunID(), second.RunID())
}

func Test_Steps_AreNumberedAndSectioned(t *testing.T) {
	r, err := runner.New(func(context.Context) (bookstore.Store, error) { return nil, nil }, runner.DefaultConfig())
	require.NoError(t, err)

	steps := r.Steps()
	require.Len(t, steps, 15)

	sections := make(map[string]int)
	for i, step := range steps {
		assert.Equal(t, i+1, step.Number)
		assert.NotEmpty(t, step.Name)
		sections[step.Section]++
	}

	assert.Equal(t, map[string]int{
		runner.SectionBasicQueries:    5,
		runner.SectionAdvancedQueries: 5,
		runner.SectionAggregation:     3,
		runner.SectionIndexing:        2,
	}, sections)
}
