package bookstore

import (
	"fmt"
	"regexp"
)

// Field names as they appear in stored documents.
const (
	FieldID            = "_id"
	FieldTitle         = "title"
	FieldAuthor        = "author"
	FieldGenre         = "genre"
	FieldPublishedYear = "published_year"
	FieldPrice         = "price"
	FieldInStock       = "in_stock"
)

var fieldNamePattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Book is the document shape of the books collection.
//
// The store is schema-less, so documents that lack a field decode to its zero value.
type Book struct {
	Title         string  `bson:"title" json:"title"`
	Author        string  `bson:"author" json:"author"`
	Genre         string  `bson:"genre" json:"genre"`
	PublishedYear int     `bson:"published_year" json:"published_year"`
	Price         float64 `bson:"price" json:"price"`
	InStock       bool    `bson:"in_stock" json:"in_stock"`
}

// Books is an alias type for a slice of Book.
type Books = []Book

// Titles returns the titles of the books in their current order.
func Titles(books Books) []string {
	titles := make([]string, 0, len(books))
	for _, book := range books {
		titles = append(titles, book.Title)
	}

	return titles
}

// Document is a raw stored document, as returned by projections.
type Document = map[string]any

// Documents is an alias type for a slice of Document.
type Documents = []Document

// ValidateFieldName returns ErrInvalidFieldName unless name is a plain lower_snake_case field name or "_id".
// Engines interpolate field names into their query language, so nothing else is accepted.
func ValidateFieldName(name string) error {
	if !fieldNamePattern.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidFieldName, name)
	}

	return nil
}
