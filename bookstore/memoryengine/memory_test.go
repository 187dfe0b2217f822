package memoryengine_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/bookstore-queries-go/bookstore"
	"github.com/AntonStoeckl/bookstore-queries-go/bookstore/memoryengine"
	"github.com/AntonStoeckl/bookstore-queries-go/testutil/fixtures"
	. "github.com/AntonStoeckl/bookstore-queries-go/testutil/helper" //nolint:revive
)

func givenSeededStore(t testing.TB, options ...memoryengine.Option) *memoryengine.Store {
	t.Helper()

	store, err := memoryengine.NewStore(append([]memoryengine.Option{memoryengine.WithBooks(fixtures.Books())}, options...)...)
	require.NoError(t, err)

	return store
}

func Test_Find_WithEmptyFilter_ReturnsAllInInsertionOrder(t *testing.T) {
	store := givenSeededStore(t)

	books, err := store.Find(context.Background(), bookstore.MatchAll())

	require.NoError(t, err)
	assert.Equal(t, fixtures.Books(), books)
}

func Test_Find_ByEquality(t *testing.T) {
	store := givenSeededStore(t)

	books, err := store.Find(context.Background(), bookstore.BuildFilter().Eq(bookstore.FieldGenre, fixtures.GenreFiction).Finalize())

	require.NoError(t, err)
	assert.Len(t, books, fixtures.FictionCount)
	assert.Equal(t,
		[]string{"To Kill a Mockingbird", "The Great Gatsby", "The Catcher in the Rye", "The Alchemist"},
		bookstore.Titles(books),
	)
}

func Test_Find_ByRange_IsStrict(t *testing.T) {
	store := givenSeededStore(t)

	books, err := store.Find(context.Background(), bookstore.BuildFilter().Gt(bookstore.FieldPublishedYear, 1950).Finalize())

	require.NoError(t, err)
	assert.Len(t, books, fixtures.PublishedAfter1950)
	for _, book := range books {
		assert.Greater(t, book.PublishedYear, 1950)
	}

	books, err = store.Find(context.Background(), bookstore.BuildFilter().Gte(bookstore.FieldPublishedYear, 1951).Finalize())
	require.NoError(t, err)
	assert.Len(t, books, fixtures.PublishedAfter1950)
}

func Test_Find_WithCombinedConditions(t *testing.T) {
	store := givenSeededStore(t)

	filter := bookstore.BuildFilter().
		Eq(bookstore.FieldInStock, true).
		Gt(bookstore.FieldPublishedYear, 1980).
		Finalize()

	books, err := store.Find(context.Background(), filter)

	require.NoError(t, err)
	assert.Equal(t, []string{"The Alchemist"}, bookstore.Titles(books))
}

func Test_Find_TypeMismatchNeverMatches(t *testing.T) {
	store := givenSeededStore(t)

	books, err := store.Find(context.Background(), bookstore.BuildFilter().Eq(bookstore.FieldPublishedYear, "1949").Finalize())

	require.NoError(t, err)
	assert.Empty(t, books)
}

func Test_Find_SortedByPriceDescendingWithLimit(t *testing.T) {
	store := givenSeededStore(t)

	books, err := store.Find(context.Background(), bookstore.MatchAll(),
		bookstore.SortBy(bookstore.FieldPrice, bookstore.Descending),
		bookstore.Limit(5),
	)

	require.NoError(t, err)
	require.Len(t, books, 5)
	assert.Equal(t,
		[]string{"The Lord of the Rings", "The Hobbit", "To Kill a Mockingbird", "Moby Dick", "Brave New World"},
		bookstore.Titles(books),
	)

	for i := 1; i < len(books); i++ {
		assert.GreaterOrEqual(t, books[i-1].Price, books[i].Price)
	}
}

func Test_Find_WithCompoundSort(t *testing.T) {
	store := givenSeededStore(t)

	books, err := store.Find(context.Background(), bookstore.MatchAll(),
		bookstore.SortBy(bookstore.FieldAuthor, bookstore.Ascending),
		bookstore.SortBy(bookstore.FieldPublishedYear, bookstore.Descending),
	)

	require.NoError(t, err)
	require.Len(t, books, fixtures.BookCount)

	for i := 1; i < len(books); i++ {
		prev, cur := books[i-1], books[i]
		assert.LessOrEqual(t, prev.Author, cur.Author)

		if prev.Author == cur.Author {
			assert.GreaterOrEqual(t, prev.PublishedYear, cur.PublishedYear)
		}
	}

	// newest first within one author
	titles := bookstore.Titles(books)
	assert.Less(t, indexOf(titles, "1984"), indexOf(titles, "Animal Farm"))
}

func Test_Find_Page2_ReturnsOffsets5To9(t *testing.T) {
	store := givenSeededStore(t)

	all, err := store.Find(context.Background(), bookstore.MatchAll())
	require.NoError(t, err)

	page, err := store.Find(context.Background(), bookstore.MatchAll(), bookstore.Page(2, 5))

	require.NoError(t, err)
	assert.Equal(t, all[5:10], page)
}

func Test_Find_PageBeyondEnd_IsEmpty(t *testing.T) {
	store := givenSeededStore(t)

	page, err := store.Find(context.Background(), bookstore.MatchAll(), bookstore.Page(4, 5))

	require.NoError(t, err)
	assert.Empty(t, page)
}

func Test_Find_WithInvalidInput_Fails(t *testing.T) {
	store := givenSeededStore(t)

	_, err := store.Find(context.Background(), bookstore.BuildFilter().Eq("Genre", "x").Finalize())
	assert.ErrorIs(t, err, bookstore.ErrInvalidFieldName)

	_, err = store.Find(context.Background(), bookstore.MatchAll(), bookstore.Page(0, 5))
	assert.ErrorIs(t, err, bookstore.ErrInvalidFindOptions)
}

func Test_FindDocuments_ProjectsTitleAndAuthorWithoutID(t *testing.T) {
	store := givenSeededStore(t)

	docs, err := store.FindDocuments(context.Background(),
		bookstore.MatchAll(),
		bookstore.Include(bookstore.FieldTitle, bookstore.FieldAuthor).ExcludeID(),
	)

	require.NoError(t, err)
	require.Len(t, docs, fixtures.BookCount)

	for _, doc := range docs {
		assert.Len(t, doc, 2)
		assert.Contains(t, doc, bookstore.FieldTitle)
		assert.Contains(t, doc, bookstore.FieldAuthor)
	}

	assert.Equal(t, bookstore.Document{bookstore.FieldTitle: "To Kill a Mockingbird", bookstore.FieldAuthor: "Harper Lee"}, docs[0])
}

func Test_FindDocuments_KeepsIDByDefault(t *testing.T) {
	store := givenSeededStore(t)

	docs, err := store.FindDocuments(context.Background(), bookstore.MatchAll(), bookstore.Include(bookstore.FieldTitle), bookstore.Limit(1))

	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.NotEmpty(t, docs[0][bookstore.FieldID])
}

func Test_UpdateOne_SetsPriceOfMatchingBook(t *testing.T) {
	store := givenSeededStore(t)
	ctx := context.Background()
	filter := bookstore.BuildFilter().Eq(bookstore.FieldTitle, fixtures.TitleNineteenEightyFour).Finalize()

	result, err := store.UpdateOne(ctx, filter, bookstore.BuildUpdate().Set(bookstore.FieldPrice, 11.99).Finalize())

	require.NoError(t, err)
	assert.Equal(t, bookstore.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, result)

	books, err := store.Find(ctx, filter)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, 11.99, books[0].Price)
}

func Test_UpdateOne_WithSameValue_MatchesButDoesNotModify(t *testing.T) {
	store := givenSeededStore(t)
	filter := bookstore.BuildFilter().Eq(bookstore.FieldTitle, fixtures.TitleNineteenEightyFour).Finalize()

	result, err := store.UpdateOne(context.Background(), filter, bookstore.BuildUpdate().Set(bookstore.FieldPrice, 10.99).Finalize())

	require.NoError(t, err)
	assert.Equal(t, bookstore.UpdateResult{MatchedCount: 1, ModifiedCount: 0}, result)
}

func Test_UpdateOne_WithoutMatch_ChangesNothing(t *testing.T) {
	store := givenSeededStore(t)
	filter := bookstore.BuildFilter().Eq(bookstore.FieldTitle, "Dune").Finalize()

	result, err := store.UpdateOne(context.Background(), filter, bookstore.BuildUpdate().Set(bookstore.FieldPrice, 1.0).Finalize())

	require.NoError(t, err)
	assert.Equal(t, bookstore.UpdateResult{}, result)

	books, err := store.Find(context.Background(), bookstore.MatchAll())
	require.NoError(t, err)
	assert.Equal(t, fixtures.Books(), books)
}

func Test_UpdateOne_WithEmptyUpdate_Fails(t *testing.T) {
	store := givenSeededStore(t)

	_, err := store.UpdateOne(context.Background(), bookstore.MatchAll(), bookstore.BuildUpdate().Finalize())

	assert.ErrorIs(t, err, bookstore.ErrEmptyUpdate)
}

func Test_DeleteOne_RemovesOnlyTheFirstMatch(t *testing.T) {
	store := givenSeededStore(t)
	ctx := context.Background()

	deleted, err := store.DeleteOne(ctx, bookstore.BuildFilter().Eq(bookstore.FieldTitle, fixtures.TitleMobyDick).Finalize())
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	deleted, err = store.DeleteOne(ctx, bookstore.BuildFilter().Eq(bookstore.FieldTitle, fixtures.TitleMobyDick).Finalize())
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)

	deleted, err = store.DeleteOne(ctx, bookstore.BuildFilter().Eq(bookstore.FieldAuthor, fixtures.AuthorGeorgeOrwell).Finalize())
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	books, err := store.Find(ctx, bookstore.MatchAll())
	require.NoError(t, err)
	assert.Len(t, books, fixtures.BookCount-2)
	assert.NotContains(t, bookstore.Titles(books), fixtures.TitleMobyDick)
	assert.NotContains(t, bookstore.Titles(books), fixtures.TitleNineteenEightyFour)
	assert.Contains(t, bookstore.Titles(books), "Animal Farm")
}

func Test_Aggregate_AveragePriceByGenre(t *testing.T) {
	store := givenSeededStore(t)

	rows, err := store.Aggregate(context.Background(), bookstore.BuildPipeline().
		GroupByField(bookstore.FieldGenre).
		Average(bookstore.FieldPrice, "avg_price").
		Finalize())

	require.NoError(t, err)
	assert.Len(t, rows, 7)

	byGenre := make(map[any]float64, len(rows))
	for _, row := range rows {
		byGenre[row.Key] = row.Value
	}

	assert.InDelta(t, 10.74, byGenre[fixtures.GenreFiction], 1e-9)
	assert.InDelta(t, 11.245, byGenre["Dystopian"], 1e-9)
	assert.InDelta(t, 17.49, byGenre["Fantasy"], 1e-9)
}

func Test_Aggregate_TopAuthorByCount(t *testing.T) {
	store := givenSeededStore(t)

	rows, err := store.Aggregate(context.Background(), bookstore.BuildPipeline().
		GroupByField(bookstore.FieldAuthor).
		Count("count").
		SortByValue(bookstore.Descending).
		Limit(1).
		Finalize())

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, float64(2), rows[0].Value)
	assert.Contains(t, []any{fixtures.AuthorGeorgeOrwell, "J.R.R. Tolkien"}, rows[0].Key)
}

func Test_Aggregate_CountByDecade(t *testing.T) {
	store, err := memoryengine.NewStore(memoryengine.WithBooks(fixtures.BooksPublishedIn(1945, 1951, 1959, 1984)))
	require.NoError(t, err)

	rows, err := store.Aggregate(context.Background(), bookstore.BuildPipeline().
		GroupByBucket(bookstore.FieldPublishedYear, 10).
		Count("count").
		SortByKey(bookstore.Ascending).
		Finalize())

	require.NoError(t, err)
	assert.Equal(t, bookstore.GroupRows{
		{Key: int64(1940), Value: 1},
		{Key: int64(1950), Value: 2},
		{Key: int64(1980), Value: 1},
	}, rows)
}

func Test_Aggregate_OnEmptyStore_ReturnsNoRows(t *testing.T) {
	store, err := memoryengine.NewStore()
	require.NoError(t, err)

	rows, err := store.Aggregate(context.Background(), bookstore.BuildPipeline().
		GroupByField(bookstore.FieldGenre).
		Average(bookstore.FieldPrice, "avg_price").
		Finalize())

	require.NoError(t, err)
	assert.Empty(t, rows)
}

func Test_CreateIndex_IsIdempotent(t *testing.T) {
	store := givenSeededStore(t)
	ctx := context.Background()

	name, err := store.CreateIndex(ctx, bookstore.NewIndexModel(bookstore.Asc(bookstore.FieldTitle)))
	require.NoError(t, err)
	assert.Equal(t, "title_1", name)

	name, err = store.CreateIndex(ctx, bookstore.NewIndexModel(bookstore.Asc(bookstore.FieldTitle)))
	require.NoError(t, err)
	assert.Equal(t, "title_1", name)

	name, err = store.CreateIndex(ctx, bookstore.NewIndexModel(bookstore.Asc(bookstore.FieldAuthor), bookstore.Desc(bookstore.FieldPublishedYear)))
	require.NoError(t, err)
	assert.Equal(t, "author_1_published_year_-1", name)

	assert.Equal(t, []string{"title_1", "author_1_published_year_-1"}, store.Indexes())
}

func Test_Seeder_InsertManyAndDeleteAll(t *testing.T) {
	store, err := memoryengine.NewStore()
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.InsertMany(ctx, fixtures.Books()))

	docs, err := store.FindDocuments(ctx, bookstore.MatchAll(), bookstore.Include(bookstore.FieldTitle))
	require.NoError(t, err)
	require.Len(t, docs, fixtures.BookCount)

	ids := make(map[any]struct{}, len(docs))
	for _, doc := range docs {
		ids[doc[bookstore.FieldID]] = struct{}{}
	}
	assert.Len(t, ids, fixtures.BookCount)

	deleted, err := store.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(fixtures.BookCount), deleted)

	books, err := store.Find(ctx, bookstore.MatchAll())
	require.NoError(t, err)
	assert.Empty(t, books)
}

func Test_Close_IsIdempotentAndRejectsFurtherOperations(t *testing.T) {
	store := givenSeededStore(t)
	ctx := context.Background()

	require.NoError(t, store.Close(ctx))
	require.NoError(t, store.Close(ctx))

	_, err := store.Find(ctx, bookstore.MatchAll())
	assert.ErrorIs(t, err, bookstore.ErrStoreClosed)

	_, err = store.DeleteOne(ctx, bookstore.MatchAll())
	assert.ErrorIs(t, err, bookstore.ErrStoreClosed)

	_, err = store.CreateIndex(ctx, bookstore.NewIndexModel(bookstore.Asc(bookstore.FieldTitle)))
	assert.ErrorIs(t, err, bookstore.ErrStoreClosed)
}

func Test_Find_WithCanceledContext_Fails(t *testing.T) {
	store := givenSeededStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Find(ctx, bookstore.MatchAll())

	assert.ErrorIs(t, err, bookstore.ErrQueryingFailed)
	assert.ErrorIs(t, err, context.Canceled)
}

func Test_Store_ReportsOperationsToObservers(t *testing.T) {
	logSpy := NewLogHandlerSpy(false)
	metricsSpy := NewMetricsCollectorSpy()
	tracingSpy := NewTracingCollectorSpy()

	store := givenSeededStore(t,
		memoryengine.WithLogger(NewSpyLogger(logSpy)),
		memoryengine.WithMetrics(metricsSpy),
		memoryengine.WithTracing(tracingSpy),
	)

	_, err := store.Find(context.Background(), bookstore.BuildFilter().Eq(bookstore.FieldGenre, fixtures.GenreFiction).Finalize())
	require.NoError(t, err)

	assert.True(t, logSpy.HasLogWithMessage(slog.LevelInfo, "bookstore operation: find").WithAttr("engine", "memory").Assert())
	assert.True(t, metricsSpy.HasValueRecordFor("bookstore_documents_returned", fixtures.FictionCount, map[string]string{"operation": "find"}))

	_, found := tracingSpy.FindSpan("bookstore.find")
	assert.True(t, found)
}

func indexOf(values []string, value string) int {
	for i, v := range values {
		if v == value {
			return i
		}
	}

	return -1
}
