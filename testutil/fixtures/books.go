package fixtures

import (
	"github.com/AntonStoeckl/bookstore-queries-go/bookstore"
)

const (
	TitleNineteenEightyFour = "1984"
	TitleMobyDick           = "Moby Dick"
	GenreFiction            = "Fiction"
	AuthorGeorgeOrwell      = "George Orwell"

	FictionCount       = 4
	PublishedAfter1950 = 4
	BookCount          = 12
)

// Books returns the sample collection in insertion order.
func Books() bookstore.Books {
	return bookstore.Books{
		{Title: "To Kill a Mockingbird", Author: "Harper Lee", Genre: "Fiction", PublishedYear: 1960, Price: 12.99, InStock: true},
		{Title: "1984", Author: "George Orwell", Genre: "Dystopian", PublishedYear: 1949, Price: 10.99, InStock: true},
		{Title: "The Great Gatsby", Author: "F. Scott Fitzgerald", Genre: "Fiction", PublishedYear: 1925, Price: 9.99, InStock: true},
		{Title: "Brave New World", Author: "Aldous Huxley", Genre: "Dystopian", PublishedYear: 1932, Price: 11.50, InStock: false},
		{Title: "The Hobbit", Author: "J.R.R. Tolkien", Genre: "Fantasy", PublishedYear: 1937, Price: 14.99, InStock: true},
		{Title: "The Catcher in the Rye", Author: "J.D. Salinger", Genre: "Fiction", PublishedYear: 1951, Price: 8.99, InStock: false},
		{Title: "Pride and Prejudice", Author: "Jane Austen", Genre: "Romance", PublishedYear: 1813, Price: 7.99, InStock: true},
		{Title: "The Lord of the Rings", Author: "J.R.R. Tolkien", Genre: "Fantasy", PublishedYear: 1954, Price: 19.99, InStock: true},
		{Title: "Animal Farm", Author: "George Orwell", Genre: "Political Satire", PublishedYear: 1945, Price: 8.50, InStock: false},
		{Title: "The Alchemist", Author: "Paulo Coelho", Genre: "Fiction", PublishedYear: 1988, Price: 10.99, InStock: true},
		{Title: "Moby Dick", Author: "Herman Melville", Genre: "Adventure", PublishedYear: 1851, Price: 12.50, InStock: false},
		{Title: "Wuthering Heights", Author: "Emily Brontë", Genre: "Gothic Fiction", PublishedYear: 1847, Price: 9.99, InStock: true},
	}
}

// BooksPublishedIn returns one book per given year, titled by position, for decade bucket assertions.
func BooksPublishedIn(years ...int) bookstore.Books {
	books := make(bookstore.Books, 0, len(years))
	for i, year := range years {
		books = append(books, bookstore.Book{
			Title:         "Book " + string(rune('A'+i)),
			Author:        "Author " + string(rune('A'+i)),
			Genre:         GenreFiction,
			PublishedYear: year,
			Price:         10,
			InStock:       true,
		})
	}

	return books
}
