package models

import "time"

// Book is the document persisted in the store. JSON field names match the
// wire format the frontend sends and expects back.
type Book struct {
	ID           string    `json:"id,omitempty"`
	Title        string    `json:"title"`
	Author       string    `json:"author"`
	Genre        string    `json:"genre"`
	Condition    string    `json:"condition"`
	Description  string    `json:"description"`
	CoverImage   string    `json:"coverImage"`
	OwnerID      string    `json:"ownerId"`
	Availability string    `json:"availability"`
	CreatedAt    time.Time `json:"createdAt"`
}

// BookPatch is a partial update. A nil pointer means "leave unchanged".
// JSON null also decodes to nil, so null never clears a field.
type BookPatch struct {
	Title        *string `json:"title"`
	Author       *string `json:"author"`
	Genre        *string `json:"genre"`
	Condition    *string `json:"condition"`
	Description  *string `json:"description"`
	CoverImage   *string `json:"coverImage"`
	Availability *string `json:"availability"`
}

// IsEmpty reports whether the patch carries no fields at all.
func (p BookPatch) IsEmpty() bool {
	return p.Title == nil && p.Author == nil && p.Genre == nil &&
		p.Condition == nil && p.Description == nil &&
		p.CoverImage == nil && p.Availability == nil
}

// Apply merges the present fields of the patch into the book.
func (p BookPatch) Apply(b *Book) {
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Author != nil {
		b.Author = *p.Author
	}
	if p.Genre != nil {
		b.Genre = *p.Genre
	}
	if p.Condition != nil {
		b.Condition = *p.Condition
	}
	if p.Description != nil {
		b.Description = *p.Description
	}
	if p.CoverImage != nil {
		b.CoverImage = *p.CoverImage
	}
	if p.Availability != nil {
		b.Availability = *p.Availability
	}
}
