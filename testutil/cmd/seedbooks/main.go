// Command seedbooks loads the sample books into MongoDB or PostgreSQL, and can write them to a CSV file.
//
//	go run ./testutil/cmd/seedbooks -engine mongo -reset
//	go run ./testutil/cmd/seedbooks -engine postgres -csv testutil/fixtures/books.csv
package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/AntonStoeckl/bookstore-queries-go/bookstore"
	"github.com/AntonStoeckl/bookstore-queries-go/bookstore/mongoengine"
	"github.com/AntonStoeckl/bookstore-queries-go/bookstore/postgresengine"
	"github.com/AntonStoeckl/bookstore-queries-go/testutil/config"
	"github.com/AntonStoeckl/bookstore-queries-go/testutil/fixtures"
)

const (
	EngineMongo    = "mongo"
	EnginePostgres = "postgres"

	defaultDatabase   = "plp_bookstore"
	defaultCollection = "books"
	seedTimeout       = 30 * time.Second
)

// seedStore is a store the sample books can be loaded into.
type seedStore interface {
	bookstore.Seeder
	Close(ctx context.Context) error
}

type flags struct {
	engine      string
	mongoURI    string
	database    string
	collection  string
	postgresDSN string
	reset       bool
	csvPath     string
}

func main() {
	if err := seedBooks(parseFlags()); err != nil {
		log.Fatalf("Error seeding books: %v", err)
	}
}

func parseFlags() flags {
	f := flags{}

	flag.StringVar(&f.engine, "engine", EngineMongo, "Store engine: mongo or postgres")
	flag.StringVar(&f.mongoURI, "mongo-uri", config.MongoURI(), "MongoDB connection URI")
	flag.StringVar(&f.database, "database", defaultDatabase, "MongoDB database name")
	flag.StringVar(&f.collection, "collection", defaultCollection, "Collection (MongoDB) or table (PostgreSQL) name")
	flag.StringVar(&f.postgresDSN, "postgres-dsn", config.PostgresDSN(), "PostgreSQL DSN")
	flag.BoolVar(&f.reset, "reset", false, "Delete all documents before seeding")
	flag.StringVar(&f.csvPath, "csv", "", "Also write the sample books to this CSV file")

	flag.Parse()

	return f
}

// seedBooks inserts the sample books. With reset it empties the collection first, so the
// query batch sees exactly the sample data.
func seedBooks(f flags) (err error) {
	ctx, cancel := context.WithTimeout(context.Background(), seedTimeout)
	defer cancel()

	store, err := openSeedStore(ctx, f)
	if err != nil {
		return err
	}

	defer func() {
		err = errors.Join(err, store.Close(ctx))
	}()

	if f.reset {
		deleted, deleteErr := store.DeleteAll(ctx)
		if deleteErr != nil {
			return deleteErr
		}

		fmt.Printf("Deleted %d existing documents\n", deleted)
	}

	books := fixtures.Books()
	if err = store.InsertMany(ctx, books); err != nil {
		return err
	}

	fmt.Printf("Successfully inserted %d books into %s (%s)\n", len(books), f.collection, f.engine)

	if f.csvPath != "" {
		if err = writeCSV(f.csvPath, books); err != nil {
			return err
		}

		fmt.Printf("Successfully wrote %d books to %s\n", len(books), f.csvPath)
	}

	return nil
}

func openSeedStore(ctx context.Context, f flags) (seedStore, error) {
	switch f.engine {
	case EngineMongo:
		store, err := mongoengine.Connect(ctx, f.mongoURI, f.database, mongoengine.WithCollectionName(f.collection))
		if err != nil {
			return nil, err
		}

		return store, nil

	case EnginePostgres:
		poolConfig, err := pgxpool.ParseConfig(f.postgresDSN)
		if err != nil {
			return nil, err
		}

		store, err := postgresengine.Connect(ctx, poolConfig, postgresengine.WithTableName(f.collection))
		if err != nil {
			return nil, err
		}

		if err = store.EnsureCollection(ctx); err != nil {
			return nil, errors.Join(err, store.Close(ctx))
		}

		return store, nil

	default:
		return nil, fmt.Errorf("unknown engine %q", f.engine)
	}
}

func writeCSV(path string, books bookstore.Books) error {
	csvFile, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}

	csvWriter := csv.NewWriter(csvFile)

	records := [][]string{{
		bookstore.FieldTitle,
		bookstore.FieldAuthor,
		bookstore.FieldGenre,
		bookstore.FieldPublishedYear,
		bookstore.FieldPrice,
		bookstore.FieldInStock,
	}}

	for _, book := range books {
		records = append(records, []string{
			book.Title,
			book.Author,
			book.Genre,
			strconv.Itoa(book.PublishedYear),
			strconv.FormatFloat(book.Price, 'f', -1, 64),
			strconv.FormatBool(book.InStock),
		})
	}

	if err = csvWriter.WriteAll(records); err != nil {
		_ = csvFile.Close() // makes no sense to handle this
		return fmt.Errorf("failed to write CSV records: %w", err)
	}

	return csvFile.Close()
}
