package catalog

import (
	"context"
	"errors"
	"time"

	"storyswap/internal/db"
	"storyswap/internal/models"
)

// Validation failures, mapped to 400 responses at the boundary.
var (
	ErrMissingFields  = errors.New("missing book fields")
	ErrMissingOwnerID = errors.New("missing ownerId")
)

const defaultAvailability = "Available"

// Service owns the book collection: validation, defaults and the server
// timestamp live here, persistence in the store.
type Service struct {
	store db.Store
	now   func() time.Time
}

func NewService(store db.Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Add inserts a new book. Every descriptive field is required; availability
// defaults to "Available" when the caller leaves it empty. Add never checks
// for duplicates, it always inserts.
func (s *Service) Add(ctx context.Context, book models.Book) (string, error) {
	if book.Title == "" || book.Author == "" || book.Genre == "" ||
		book.Condition == "" || book.Description == "" ||
		book.CoverImage == "" || book.OwnerID == "" {
		return "", ErrMissingFields
	}

	if book.Availability == "" {
		book.Availability = defaultAvailability
	}
	book.CreatedAt = s.now().UTC()
	book.ID = ""

	return s.store.AddBook(ctx, book)
}

// ListByOwner returns every book the owner has listed.
func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]models.Book, error) {
	if ownerID == "" {
		return nil, ErrMissingOwnerID
	}
	return s.store.BooksByOwner(ctx, ownerID)
}

// Update forwards only the fields present in the patch. A book that does not
// exist yields db.ErrNotFound.
func (s *Service) Update(ctx context.Context, id string, patch models.BookPatch) error {
	return s.store.UpdateBook(ctx, id, patch)
}

// Delete removes the book, or db.ErrNotFound when it is absent.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.DeleteBook(ctx, id)
}
