package repositories

import (
	"context"
	"strings"

	"github.com/bookshelf/backend/internal/models"
	"github.com/bookshelf/backend/internal/storage"
	"go.uber.org/zap"
)

// DocumentStore is the interface that wraps whole-document reads and writes of the key-value store.
type DocumentStore interface {
	// Method Load decodes the collection stored under "key" into "dst".
	//
	// A missing, unreadable or malformed document leaves "dst" as an empty collection.
	Load(ctx context.Context, key string, dst any)
	// Method Save overwrites the collection stored under "key" with "v".
	//
	// Write failures are logged by the store and not reported to the caller.
	Save(ctx context.Context, key string, v any)
}

type booksRepository struct {
	store  DocumentStore
	logger *zap.Logger
}

// NewBooksRepository creates a new instance of the BooksRepository interface
func NewBooksRepository(store DocumentStore, logger *zap.Logger) *booksRepository {
	return &booksRepository{
		store:  store,
		logger: logger,
	}
}

// Method Load is a BooksRepository implementation for reading the whole catalog.
//
// Every stored record is migrated to the current Book shape; if any record changed,
// the migrated catalog is saved back right away so the next load is a no-op.
func (r *booksRepository) Load(ctx context.Context) []models.Book {
	var stored []models.BookV0
	r.store.Load(ctx, storage.BooksKey, &stored)

	books := make([]models.Book, 0, len(stored))
	migrated := 0
	for _, old := range stored {
		book, changed := models.MigrateBook(old)
		if changed {
			migrated++
		}
		books = append(books, book)
	}

	if migrated > 0 {
		r.logger.Info("migrated stored books", zap.Int("count", migrated))
		r.store.Save(ctx, storage.BooksKey, books)
	}
	return books
}

// Method Save is a BooksRepository implementation for overwriting the whole catalog.
func (r *booksRepository) Save(ctx context.Context, books []models.Book) {
	if books == nil {
		books = []models.Book{}
	}
	r.store.Save(ctx, storage.BooksKey, books)
}

// Search returns the books whose title or author contains query, ignoring case.
// An empty query returns books unchanged; whitespace is matched literally. Catalog order is preserved.
func Search(books []models.Book, query string) []models.Book {
	if query == "" {
		return books
	}
	q := strings.ToLower(query)

	result := make([]models.Book, 0)
	for _, b := range books {
		if strings.Contains(strings.ToLower(b.Title), q) || strings.Contains(strings.ToLower(b.Author), q) {
			result = append(result, b)
		}
	}
	return result
}

// FindBook returns the index of the first book matching title and author, or -1
func FindBook(books []models.Book, title, author string) int {
	for i := range books {
		if books[i].Matches(title, author) {
			return i
		}
	}
	return -1
}
