package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect import
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // driver import

	"storyswap/internal/models"
)

const (
	dialectPostgres = "postgres"
	tableBooks      = "books"
)

// PostgresStore holds the same book collection in Postgres, for deployments
// that already run one. Row shape matches the sqlite engine.
type PostgresStore struct {
	db *sqlx.DB
}

func OpenPostgres(dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn is empty")
	}

	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	schema := `
CREATE TABLE IF NOT EXISTS books (
	id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL,
	doc JSONB NOT NULL,
	created_at TIMESTAMPTZ DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_books_owner_id ON books(owner_id);
`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *PostgresStore) AddBook(ctx context.Context, book models.Book) (string, error) {
	id := uuid.NewString()
	doc, err := encodeBook(book)
	if err != nil {
		return "", err
	}

	query, args, err := goqu.Dialect(dialectPostgres).
		Insert(tableBooks).
		Rows(goqu.Record{"id": id, "owner_id": book.OwnerID, "doc": doc}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return "", fmt.Errorf("build insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return "", fmt.Errorf("insert book: %w", err)
	}
	return id, nil
}

func (s *PostgresStore) BooksByOwner(ctx context.Context, ownerID string) ([]models.Book, error) {
	query, args, err := goqu.Dialect(dialectPostgres).
		From(tableBooks).
		Select("id", "doc").
		Where(goqu.Ex{"owner_id": ownerID}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}
	defer rows.Close()

	var books []models.Book
	for rows.Next() {
		var id, doc string
		if err := rows.Scan(&id, &doc); err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		book, err := decodeBook(doc)
		if err != nil {
			return nil, err
		}
		book.ID = id
		books = append(books, book)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return books, nil
}

func (s *PostgresStore) UpdateBook(ctx context.Context, id string, patch models.BookPatch) error {
	query, args, err := goqu.Dialect(dialectPostgres).
		From(tableBooks).
		Select("doc").
		Where(goqu.Ex{"id": id}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build select: %w", err)
	}

	var doc string
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&doc); err != nil {
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return fmt.Errorf("load book: %w", err)
	}

	book, err := decodeBook(doc)
	if err != nil {
		return err
	}
	patch.Apply(&book)

	updated, err := encodeBook(book)
	if err != nil {
		return err
	}

	query, args, err = goqu.Dialect(dialectPostgres).
		Update(tableBooks).
		Set(goqu.Record{"doc": updated, "owner_id": book.OwnerID}).
		Where(goqu.Ex{"id": id}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update book: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteBook(ctx context.Context, id string) error {
	query, args, err := goqu.Dialect(dialectPostgres).
		Delete(tableBooks).
		Where(goqu.Ex{"id": id}).
		Prepared(true).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete book: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
