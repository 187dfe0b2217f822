package postgresengine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/bookstore-queries-go/bookstore"
	"github.com/AntonStoeckl/bookstore-queries-go/testutil/fixtures"
	. "github.com/AntonStoeckl/bookstore-queries-go/testutil/helper"                 //nolint:revive
	. "github.com/AntonStoeckl/bookstore-queries-go/testutil/helper/postgreswrapper" //nolint:revive
)

func Benchmark_Find_And_Aggregate_On_The_Sample_Books(b *testing.B) {
	// setup
	SkipUnlessIntegration(b)
	ctx := context.Background()
	wrapper := CreateWrapperWithTestConfig(b)
	defer wrapper.Close()
	store := wrapper.GetStore()

	// arrange
	CleanUp(b, wrapper)
	require.NoError(b, store.InsertMany(ctx, fixtures.Books()))

	genreFilter := bookstore.BuildFilter().Eq(bookstore.FieldGenre, fixtures.GenreFiction).Finalize()
	decades := bookstore.BuildPipeline().
		GroupByBucket(bookstore.FieldPublishedYear, 10).
		Count("count").
		SortByKey(bookstore.Ascending).
		Finalize()

	// act
	b.Run("find by genre", func(b *testing.B) {
		b.ResetTimer()
		var queryTime time.Duration

		for i := 0; i < b.N; i++ {
			start := time.Now()
			books, err := store.Find(ctx, genreFilter)
			queryTime += time.Since(start)

			assert.NoError(b, err)
			assert.Len(b, books, fixtures.FictionCount)
		}

		b.ReportMetric(float64(queryTime.Microseconds())/float64(b.N), "µs/find-op")
	})

	b.Run("aggregate by decade", func(b *testing.B) {
		b.ResetTimer()
		var queryTime time.Duration

		for i := 0; i < b.N; i++ {
			start := time.Now()
			rows, err := store.Aggregate(ctx, decades)
			queryTime += time.Since(start)

			assert.NoError(b, err)
			assert.NotEmpty(b, rows)
		}

		b.ReportMetric(float64(queryTime.Microseconds())/float64(b.N), "µs/aggregate-op")
	})
}
