package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"storyswap/internal/models"
)

// SQLiteStore keeps book documents in a local sqlite file. Each book is one
// row: a generated id, the owner id lifted out for the equality query, and
// the rest of the document as JSON.
type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path is empty")
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragma := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA foreign_keys = ON;",
		"PRAGMA busy_timeout = 5000;",
	}

	for _, stmt := range pragma {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("pragma: %w", err)
		}
	}
	return nil
}

func migrate(db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS books (
	id TEXT PRIMARY KEY,
	owner_id TEXT NOT NULL,
	doc TEXT NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_books_owner_id ON books(owner_id);
`

	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (s *SQLiteStore) AddBook(ctx context.Context, book models.Book) (string, error) {
	id := uuid.NewString()
	doc, err := encodeBook(book)
	if err != nil {
		return "", err
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO books (id, owner_id, doc)
VALUES (?, ?, ?)
`, id, book.OwnerID, doc)
	if err != nil {
		return "", fmt.Errorf("insert book: %w", err)
	}
	return id, nil
}

func (s *SQLiteStore) BooksByOwner(ctx context.Context, ownerID string) ([]models.Book, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, doc FROM books WHERE owner_id = ?
`, ownerID)
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

func (s *SQLiteStore) UpdateBook(ctx context.Context, id string, patch models.BookPatch) error {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM books WHERE id = ?`, id).Scan(&doc)
	if err != nil {
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

	_, err = s.db.ExecContext(ctx, `
UPDATE books SET doc = ?, owner_id = ? WHERE id = ?
`, updated, book.OwnerID, id)
	if err != nil {
		return fmt.Errorf("update book: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteBook(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id)
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
