package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

// DefaultBookImage is the cover used when a book has no image of its own
const DefaultBookImage = "bookgh.jpg"

// Book represents a catalog entry as stored under the "books" key.
// Title and author together (case-insensitive) identify a book.
type Book struct {
	Title      string  `json:"title"`
	Author     string  `json:"author"`
	Image      string  `json:"image"`
	BorrowedBy *string `json:"borrowed_by"` // lowercase username, nil when available

	// Extra holds keys of the stored record this application does not use; they are written back unchanged.
	Extra map[string]json.RawMessage `json:"-"`
}

// bookKeys are the record keys owned by Book
var bookKeys = []string{"title", "author", "image", "borrowed_by"}

// MarshalJSON encodes the book together with its Extra keys
func (b Book) MarshalJSON() ([]byte, error) {
	type plain Book
	data, err := json.Marshal(plain(b))
	if err != nil || len(b.Extra) == 0 {
		return data, err
	}

	fields := make(map[string]json.RawMessage, len(b.Extra)+len(bookKeys))
	for k, v := range b.Extra {
		fields[k] = v
	}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return json.Marshal(fields)
}

// BookV0 is the unversioned stored shape of a book. Older records may lack
// the "image" and "borrowed_by" keys entirely.
type BookV0 struct {
	Title      string          `json:"title"`
	Author     string          `json:"author"`
	Image      *string         `json:"image,omitempty"`
	BorrowedBy json.RawMessage `json:"borrowed_by,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// UnmarshalJSON decodes a stored record, collecting keys Book does not own into Extra
func (b *BookV0) UnmarshalJSON(data []byte) error {
	type plain BookV0
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	for _, k := range bookKeys {
		delete(fields, k)
	}
	if len(fields) > 0 {
		p.Extra = fields
	}

	*b = BookV0(p)
	return nil
}

// IsBorrowed reports whether somebody currently holds the book
func (b Book) IsBorrowed() bool {
	return b.BorrowedBy != nil && *b.BorrowedBy != ""
}

// Borrower returns the current borrower or an empty string
func (b Book) Borrower() string {
	if b.BorrowedBy == nil {
		return ""
	}
	return *b.BorrowedBy
}

// Matches compares title and author case-insensitively
func (b Book) Matches(title, author string) bool {
	return strings.EqualFold(b.Title, title) && strings.EqualFold(b.Author, author)
}

// MigrateBook upgrades a stored record to the current Book shape.
//
// A missing "borrowed_by" key becomes null and a missing or blank image becomes DefaultBookImage.
// Keys Book does not know are carried over in Extra.
// The returned flag is true when the record had to be changed and should be persisted again.
func MigrateBook(old BookV0) (Book, bool) {
	changed := false
	book := Book{
		Title:  old.Title,
		Author: old.Author,
		Extra:  old.Extra,
	}

	if old.Image == nil || strings.TrimSpace(*old.Image) == "" {
		book.Image = DefaultBookImage
		changed = true
	} else {
		book.Image = *old.Image
	}

	if old.BorrowedBy == nil {
		changed = true
	} else if !bytes.Equal(bytes.TrimSpace(old.BorrowedBy), []byte("null")) {
		var borrower string
		if err := json.Unmarshal(old.BorrowedBy, &borrower); err != nil {
			// Not a string: the record cannot name a borrower, so the book is available.
			changed = true
		} else {
			book.BorrowedBy = &borrower
		}
	}

	return book, changed
}
