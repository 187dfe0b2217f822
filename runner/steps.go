package runner

import (
	"context"
	"fmt"
	"strconv"

	"github.com/AntonStoeckl/bookstore-queries-go/bookstore"
)

const (
	SectionBasicQueries    = "Task 2: Basic Queries"
	SectionAdvancedQueries = "Task 3: Advanced Queries"
	SectionAggregation     = "Task 4: Aggregation Pipeline"
	SectionIndexing        = "Task 5: Indexing"

	accumulatorAvgPrice  = "avg_price"
	accumulatorBookCount = "book_count"
	accumulatorCount     = "count"
)

// Step is one query of the batch.
type Step struct {
	Number  int
	Section string
	Name    string
	run     stepFunc
}

type stepFunc func(ctx context.Context, store bookstore.Store) (stepOutcome, error)

// stepOutcome is the printed message and the value recorded in the Report.
type stepOutcome struct {
	message string
	result  any
}

// buildSteps returns the batch in execution order.
func buildSteps(cfg Config) []Step {
	steps := []Step{
		{Section: SectionBasicQueries, Name: "find_by_genre", run: findByGenre(cfg)},
		{Section: SectionBasicQueries, Name: "find_published_after", run: findPublishedAfter(cfg)},
		{Section: SectionBasicQueries, Name: "find_titles_by_author", run: findTitlesByAuthor(cfg)},
		{Section: SectionBasicQueries, Name: "update_price", run: updatePrice(cfg)},
		{Section: SectionBasicQueries, Name: "delete_by_title", run: deleteByTitle(cfg)},
		{Section: SectionAdvancedQueries, Name: "find_in_stock_published_after", run: findInStockPublishedAfter(cfg)},
		{Section: SectionAdvancedQueries, Name: "project_without_id", run: projectWithoutID(cfg)},
		{Section: SectionAdvancedQueries, Name: "sort_by_price_ascending", run: sortByPrice(cfg, bookstore.Ascending)},
		{Section: SectionAdvancedQueries, Name: "sort_by_price_descending", run: sortByPrice(cfg, bookstore.Descending)},
		{Section: SectionAdvancedQueries, Name: "paginate", run: paginate(cfg)},
		{Section: SectionAggregation, Name: "average_price_by_genre", run: averagePriceByGenre()},
		{Section: SectionAggregation, Name: "author_with_most_books", run: authorWithMostBooks()},
		{Section: SectionAggregation, Name: "count_by_decade", run: countByDecade(cfg)},
		{Section: SectionIndexing, Name: "create_title_index", run: createTitleIndex()},
		{Section: SectionIndexing, Name: "create_author_year_index", run: createAuthorYearIndex()},
	}

	for i := range steps {
		steps[i].Number = i + 1
	}

	return steps
}

/***** Task 2: Basic Queries *****/

func findByGenre(cfg Config) stepFunc {
	return func(ctx context.Context, store bookstore.Store) (stepOutcome, error) {
		books, err := store.Find(ctx, bookstore.BuildFilter().Eq(bookstore.FieldGenre, cfg.Genre).Finalize())
		if err != nil {
			return stepOutcome{}, err
		}

		return stepOutcome{
			message: fmt.Sprintf("Books in %s genre: %d", cfg.Genre, len(books)),
			result:  len(books),
		}, nil
	}
}

func findPublishedAfter(cfg Config) stepFunc {
	return func(ctx context.Context, store bookstore.Store) (stepOutcome, error) {
		books, err := store.Find(ctx, bookstore.BuildFilter().Gt(bookstore.FieldPublishedYear, cfg.PublishedAfter).Finalize())
		if err != nil {
			return stepOutcome{}, err
		}

		return stepOutcome{
			message: fmt.Sprintf("Books published after %d: %d", cfg.PublishedAfter, len(books)),
			result:  len(books),
		}, nil
	}
}

func findTitlesByAuthor(cfg Config) stepFunc {
	return func(ctx context.Context, store bookstore.Store) (stepOutcome, error) {
		docs, err := store.FindDocuments(
			ctx,
			bookstore.BuildFilter().Eq(bookstore.FieldAuthor, cfg.Author).Finalize(),
			bookstore.Include(bookstore.FieldTitle).ExcludeID(),
		)
		if err != nil {
			return stepOutcome{}, err
		}

		titles := make([]string, 0, len(docs))
		for _, doc := range docs {
			title, _ := doc[bookstore.FieldTitle].(string)
			titles = append(titles, title)
		}

		return stepOutcome{
			message: fmt.Sprintf("Books by %s: %s", cfg.Author, renderJSON(titles)),
			result:  titles,
		}, nil
	}
}

func updatePrice(cfg Config) stepFunc {
	return func(ctx context.Context, store bookstore.Store) (stepOutcome, error) {
		result, err := store.UpdateOne(
			ctx,
			bookstore.BuildFilter().Eq(bookstore.FieldTitle, cfg.UpdateTitle).Finalize(),
			bookstore.BuildUpdate().Set(bookstore.FieldPrice, cfg.UpdatePrice).Finalize(),
		)
		if err != nil {
			return stepOutcome{}, err
		}

		return stepOutcome{
			message: fmt.Sprintf("Updated price for %q", cfg.UpdateTitle),
			result:  result,
		}, nil
	}
}

func deleteByTitle(cfg Config) stepFunc {
	return func(ctx context.Context, store bookstore.Store) (stepOutcome, error) {
		deleted, err := store.DeleteOne(ctx, bookstore.BuildFilter().Eq(bookstore.FieldTitle, cfg.DeleteTitle).Finalize())
		if err != nil {
			return stepOutcome{}, err
		}

		return stepOutcome{
			message: fmt.Sprintf("Deleted %q", cfg.DeleteTitle),
			result:  deleted,
		}, nil
	}
}

/***** Task 3: Advanced Queries *****/

func findInStockPublishedAfter(cfg Config) stepFunc {
	return func(ctx context.Context, store bookstore.Store) (stepOutcome, error) {
		books, err := store.Find(ctx, bookstore.BuildFilter().
			Eq(bookstore.FieldInStock, true).
			Gt(bookstore.FieldPublishedYear, cfg.InStockPublishedAfter).
			Finalize(),
		)
		if err != nil {
			return stepOutcome{}, err
		}

		titles := bookstore.Titles(books)

		return stepOutcome{
			message: fmt.Sprintf("In-stock books published after %d: %s", cfg.InStockPublishedAfter, renderJSON(titles)),
			result:  titles,
		}, nil
	}
}

func projectWithoutID(cfg Config) stepFunc {
	return func(ctx context.Context, store bookstore.Store) (stepOutcome, error) {
		docs, err := store.FindDocuments(
			ctx,
			bookstore.MatchAll(),
			bookstore.Include(bookstore.FieldTitle, bookstore.FieldAuthor, bookstore.FieldPrice).ExcludeID(),
		)
		if err != nil {
			return stepOutcome{}, err
		}

		preview := docs[:min(len(docs), cfg.ProjectionPreview)]

		return stepOutcome{
			message: fmt.Sprintf("Projected book data (first %d): %s", cfg.ProjectionPreview, renderJSON(preview)),
			result:  preview,
		}, nil
	}
}

func sortByPrice(cfg Config, direction bookstore.Direction) stepFunc {
	label := "ascending"
	if direction == bookstore.Descending {
		label = "descending"
	}

	return func(ctx context.Context, store bookstore.Store) (stepOutcome, error) {
		books, err := store.Find(
			ctx,
			bookstore.MatchAll(),
			bookstore.SortBy(bookstore.FieldPrice, direction),
			bookstore.Limit(cfg.SortLimit),
		)
		if err != nil {
			return stepOutcome{}, err
		}

		labels := priceLabels(books)

		return stepOutcome{
			message: fmt.Sprintf("Books sorted by price (%s, first %d): %s", label, cfg.SortLimit, renderJSON(labels)),
			result:  labels,
		}, nil
	}
}

func paginate(cfg Config) stepFunc {
	return func(ctx context.Context, store bookstore.Store) (stepOutcome, error) {
		books, err := store.Find(ctx, bookstore.MatchAll(), bookstore.Page(cfg.Page, cfg.PageSize))
		if err != nil {
			return stepOutcome{}, err
		}

		titles := bookstore.Titles(books)

		return stepOutcome{
			message: fmt.Sprintf("Paginated books (Page %d): %s", cfg.Page, renderJSON(titles)),
			result:  titles,
		}, nil
	}
}

/***** Task 4: Aggregation Pipeline *****/

func averagePriceByGenre() stepFunc {
	pipeline := bookstore.BuildPipeline().
		GroupByField(bookstore.FieldGenre).
		Average(bookstore.FieldPrice, accumulatorAvgPrice).
		Finalize()

	return aggregateStep("Average price by genre", pipeline)
}

func authorWithMostBooks() stepFunc {
	pipeline := bookstore.BuildPipeline().
		GroupByField(bookstore.FieldAuthor).
		Count(accumulatorBookCount).
		SortByValue(bookstore.Descending).
		Limit(1).
		Finalize()

	return aggregateStep("Author with the most books", pipeline)
}

func countByDecade(cfg Config) stepFunc {
	pipeline := bookstore.BuildPipeline().
		GroupByBucket(bookstore.FieldPublishedYear, cfg.DecadeWidth).
		Count(accumulatorCount).
		SortByKey(bookstore.Ascending).
		Finalize()

	return aggregateStep("Books grouped by decade", pipeline)
}

func aggregateStep(caption string, pipeline bookstore.Pipeline) stepFunc {
	return func(ctx context.Context, store bookstore.Store) (stepOutcome, error) {
		rows, err := store.Aggregate(ctx, pipeline)
		if err != nil {
			return stepOutcome{}, err
		}

		return stepOutcome{
			message: fmt.Sprintf("%s: %s", caption, renderJSON(groupDocuments(rows, pipeline.Accumulator().Name))),
			result:  rows,
		}, nil
	}
}

/***** Task 5: Indexing *****/

func createTitleIndex() stepFunc {
	index := bookstore.NewIndexModel(bookstore.Asc(bookstore.FieldTitle))

	return func(ctx context.Context, store bookstore.Store) (stepOutcome, error) {
		name, err := store.CreateIndex(ctx, index)
		if err != nil {
			return stepOutcome{}, err
		}

		return stepOutcome{
			message: fmt.Sprintf("Created index on %q", bookstore.FieldTitle),
			result:  name,
		}, nil
	}
}

func createAuthorYearIndex() stepFunc {
	index := bookstore.NewIndexModel(bookstore.Asc(bookstore.FieldAuthor), bookstore.Desc(bookstore.FieldPublishedYear))

	return func(ctx context.Context, store bookstore.Store) (stepOutcome, error) {
		name, err := store.CreateIndex(ctx, index)
		if err != nil {
			return stepOutcome{}, err
		}

		return stepOutcome{
			message: fmt.Sprintf("Created compound index on %q and %q", bookstore.FieldAuthor, bookstore.FieldPublishedYear),
			result:  name,
		}, nil
	}
}

/***** rendering *****/

// priceLabels formats books as "Title: $price".
func priceLabels(books bookstore.Books) []string {
	labels := make([]string, 0, len(books))
	for _, book := range books {
		labels = append(labels, book.Title+": $"+strconv.FormatFloat(book.Price, 'f', -1, 64))
	}

	return labels
}

// groupDocuments turns rows into documents shaped like the group stage output, e.g. {"_id": "Fiction", "avg_price": 10.74}.
func groupDocuments(rows bookstore.GroupRows, valueName string) bookstore.Documents {
	docs := make(bookstore.Documents, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, bookstore.Document{bookstore.FieldID: row.Key, valueName: row.Value})
	}

	return docs
}
