package runner_test

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/bookstore-queries-go/bookstore"
	"github.com/AntonStoeckl/bookstore-queries-go/bookstore/memoryengine"
	"github.com/AntonStoeckl/bookstore-queries-go/runner"
	"github.com/AntonStoeckl/bookstore-queries-go/testutil/fixtures"
)

func Benchmark_Run_On_The_Memory_Engine(b *testing.B) {
	open := func(context.Context) (bookstore.Store, error) {
		return memoryengine.NewStore(memoryengine.WithBooks(fixtures.Books()))
	}

	r, err := runner.New(open, runner.DefaultConfig(), runner.WithOutput(io.Discard))
	require.NoError(b, err)

	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		_, runErr := r.Run(context.Background())
		require.NoError(b, runErr)
	}
}
