package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/bookshelf/backend/internal/metrics"
	"github.com/bookshelf/backend/internal/models"
	"github.com/bookshelf/backend/internal/repositories"
	"go.uber.org/zap"
)

// BooksRepository is the interface that wraps methods for the "books" document
type BooksRepository interface {
	// Method Load retrieves the whole catalog in stored order, migrating legacy records on the way.
	//
	// An unreadable document yields an empty slice, never an error.
	Load(ctx context.Context) []models.Book
	// Method Save overwrites the whole catalog with "books".
	//
	// Write failures are logged by the store; the caller is not told about them.
	Save(ctx context.Context, books []models.Book)
}

// catalogService implements CatalogService.
//
// Every mutation is a full load-modify-save of the catalog without locking,
// so concurrent mutations can overwrite each other (last save wins).
type catalogService struct {
	bookRepo BooksRepository
	logger   *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(bookRepo BooksRepository, logger *zap.Logger) *catalogService {
	return &catalogService{
		bookRepo: bookRepo,
		logger:   logger,
	}
}

// List returns the catalog filtered by query (see repositories.Search)
func (s *catalogService) List(ctx context.Context, query string) []models.Book {
	return repositories.Search(s.bookRepo.Load(ctx), query)
}

// Add appends a new available book.
//
// Title and author are trimmed and must not be empty; a blank image falls back to the default cover.
// A book with the same title and author (ignoring case) makes the call fail with ErrDuplicateBook.
func (s *catalogService) Add(ctx context.Context, title, author, image string) error {
	title = strings.TrimSpace(title)
	author = strings.TrimSpace(author)
	image = strings.TrimSpace(image)
	if title == "" || author == "" {
		return fmt.Errorf("title and author are required: %w", models.ErrInvalidInput)
	}
	if image == "" {
		image = models.DefaultBookImage
	}

	books := s.bookRepo.Load(ctx)
	if repositories.FindBook(books, title, author) >= 0 {
		metrics.RecordCatalogOperation("add", "duplicate")
		return models.ErrDuplicateBook
	}

	books = append(books, models.Book{
		Title:  title,
		Author: author,
		Image:  image,
	})
	s.bookRepo.Save(ctx, books)

	metrics.RecordCatalogOperation("add", "ok")
	s.logger.Info("book added", zap.String("title", title), zap.String("author", author))
	return nil
}

// Delete removes every book matching title and author and saves the catalog even when nothing matched.
// It returns the number of removed books.
func (s *catalogService) Delete(ctx context.Context, title, author string) int {
	books := s.bookRepo.Load(ctx)

	kept := make([]models.Book, 0, len(books))
	for _, b := range books {
		if !b.Matches(title, author) {
			kept = append(kept, b)
		}
	}
	s.bookRepo.Save(ctx, kept)

	removed := len(books) - len(kept)
	metrics.RecordCatalogOperation("delete", "ok")
	s.logger.Info("book deleted", zap.String("title", title), zap.String("author", author), zap.Int("removed", removed))
	return removed
}

// Borrow marks the first book matching title and author as held by username.
func (s *catalogService) Borrow(ctx context.Context, title, author, username string) error {
	username = models.NormalizeUsername(username)
	books := s.bookRepo.Load(ctx)

	i := repositories.FindBook(books, title, author)
	if i < 0 {
		metrics.RecordCatalogOperation("borrow", "not_found")
		return models.ErrBookNotFound
	}
	if books[i].IsBorrowed() {
		metrics.RecordCatalogOperation("borrow", "already_borrowed")
		return models.ErrAlreadyBorrowed
	}

	books[i].BorrowedBy = &username
	s.bookRepo.Save(ctx, books)

	metrics.RecordCatalogOperation("borrow", "ok")
	s.logger.Info("book borrowed", zap.String("title", books[i].Title), zap.String("username", username))
	return nil
}

// Return makes the first book matching title and author available again,
// provided username is the one holding it.
func (s *catalogService) Return(ctx context.Context, title, author, username string) error {
	username = models.NormalizeUsername(username)
	books := s.bookRepo.Load(ctx)

	i := repositories.FindBook(books, title, author)
	if i < 0 {
		metrics.RecordCatalogOperation("return", "not_found")
		return models.ErrBookNotFound
	}
	if !books[i].IsBorrowed() || books[i].Borrower() != username {
		metrics.RecordCatalogOperation("return", "not_borrower")
		return models.ErrNotBorrowedByCaller
	}

	books[i].BorrowedBy = nil
	s.bookRepo.Save(ctx, books)

	metrics.RecordCatalogOperation("return", "ok")
	s.logger.Info("book returned", zap.String("title", books[i].Title), zap.String("username", username))
	return nil
}
