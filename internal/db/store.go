package db

import (
	"context"
	"errors"
	"fmt"

	"storyswap/internal/models"
)

// ErrNotFound is returned when an operation targets a book that does not
// exist in the collection.
var ErrNotFound = errors.New("book not found")

// Store is the document collection holding book records. Implementations
// assign the document identifier on insert and merge it back into records
// on read.
type Store interface {
	AddBook(ctx context.Context, book models.Book) (string, error)
	BooksByOwner(ctx context.Context, ownerID string) ([]models.Book, error)
	UpdateBook(ctx context.Context, id string, patch models.BookPatch) error
	DeleteBook(ctx context.Context, id string) error
	Close() error
}

// Open connects the store engine selected by driver. The dsn is a file path
// for sqlite and a connection string for postgres.
func Open(driver string, dsn string) (Store, error) {
	switch driver {
	case "", "sqlite":
		return OpenSQLite(dsn)
	case "postgres":
		return OpenPostgres(dsn)
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
