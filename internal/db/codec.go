package db

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"storyswap/internal/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// encodeBook serializes the document body. The store-assigned id lives in
// its own column, never inside the document.
func encodeBook(book models.Book) (string, error) {
	book.ID = ""
	data, err := json.Marshal(book)
	if err != nil {
		return "", fmt.Errorf("encode book: %w", err)
	}
	return string(data), nil
}

func decodeBook(doc string) (models.Book, error) {
	var book models.Book
	if err := json.Unmarshal([]byte(doc), &book); err != nil {
		return models.Book{}, fmt.Errorf("decode book: %w", err)
	}
	return book, nil
}
