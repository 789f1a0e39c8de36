package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/bookshelf/backend/internal/middleware"
	"github.com/bookshelf/backend/internal/models"
	"github.com/bookshelf/backend/internal/views"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Notices shown by the catalog pages
const (
	noticeDuplicateBook    = "Book already exists!"
	noticeBookAdded        = "Book added successfully!"
	noticeMissingBookInfo  = "Title and author are required"
	noticeBookDeleted      = "Book deleted successfully!"
	noticeAlreadyBorrowed  = "Book is already borrowed!"
	noticeBookBorrowed     = "Book borrowed successfully!"
	noticeBookReturned     = "Book returned successfully!"
	noticeNotBorrowedByYou = "You did not borrow this book!"
)

// CatalogService is the interface that wraps methods for catalog business logic.
type CatalogService interface {
	// Method List retrieve the catalog in stored order.
	//
	// A non-empty "query" keeps only books whose title or author contains it, ignoring case.
	List(ctx context.Context, query string) []models.Book
	// Method Add appends an available book.
	//
	// A blank "image" falls back to the default cover.
	// models.ErrInvalidInput is returned for an empty title or author, models.ErrDuplicateBook when the title and author are already present.
	Add(ctx context.Context, title, author, image string) error
	// Method Delete removes every book matching "title" and "author" (ignoring case) and returns how many were removed.
	//
	// Deleting a missing book is not an error.
	Delete(ctx context.Context, title, author string) int
	// Method Borrow marks the matching book as held by "username".
	//
	// models.ErrBookNotFound is returned when nothing matches, models.ErrAlreadyBorrowed when somebody holds the book.
	Borrow(ctx context.Context, title, author, username string) error
	// Method Return makes the matching book available again.
	//
	// models.ErrBookNotFound is returned when nothing matches, models.ErrNotBorrowedByCaller when "username" is not the holder.
	Return(ctx context.Context, title, author, username string) error
}

// BooksHandler handles catalog requests
type BooksHandler struct {
	BaseHandler
	service CatalogService
}

// NewBooksHandler creates a new books handler
func NewBooksHandler(svc CatalogService, renderer PageRenderer, notices NoticeStore, logger *zap.Logger) *BooksHandler {
	return &BooksHandler{
		BaseHandler: BaseHandler{logger: logger, views: renderer, notices: notices},
		service:     svc,
	}
}

// RegisterRoutes registers all books handler routes.
// Listing and circulation need a session; adding and deleting need the admin role.
func (h *BooksHandler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireSession)
		r.Get("/home", h.Home)
		r.Post("/borrow/{title}/{author}", h.Borrow)
		r.Post("/return/{title}/{author}", h.Return)
	})
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireRole(models.RoleAdmin, h.notices))
		r.Get("/add", h.AddForm)
		r.Post("/add", h.Add)
		r.Get("/delete/{title}/{author}", h.Delete)
	})
}

// Home handles GET /home
func (h *BooksHandler) Home(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())
	query := r.URL.Query().Get("q")

	h.render(w, r, http.StatusOK, views.PageHome, &views.Page{
		Books:       h.service.List(r.Context(), query),
		Query:       query,
		CurrentUser: models.NormalizeUsername(sess.Username),
	})
}

// AddForm handles GET /add
func (h *BooksHandler) AddForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, views.PageAddBook, &views.Page{})
}

// Add handles POST /add
func (h *BooksHandler) Add(w http.ResponseWriter, r *http.Request) {
	err := h.service.Add(r.Context(), r.PostFormValue("title"), r.PostFormValue("author"), r.PostFormValue("image"))
	switch {
	case err == nil:
		h.redirectWithNotice(w, r, "/home", models.NoticeSuccess, noticeBookAdded)
	case errors.Is(err, models.ErrDuplicateBook):
		h.redirectWithNotice(w, r, "/add", models.NoticeError, noticeDuplicateBook)
	case errors.Is(err, models.ErrInvalidInput):
		h.redirectWithNotice(w, r, "/add", models.NoticeError, noticeMissingBookInfo)
	default:
		h.logger.Error("failed to add book", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// Delete handles GET /delete/{title}/{author}
func (h *BooksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	h.service.Delete(r.Context(), pathParam(r, "title"), pathParam(r, "author"))
	h.redirectWithNotice(w, r, "/home", models.NoticeSuccess, noticeBookDeleted)
}

// Borrow handles POST /borrow/{title}/{author}.
// A title and author that match nothing redirect without a notice.
func (h *BooksHandler) Borrow(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())

	err := h.service.Borrow(r.Context(), pathParam(r, "title"), pathParam(r, "author"), sess.Username)
	switch {
	case err == nil:
		h.redirectWithNotice(w, r, "/home", models.NoticeSuccess, noticeBookBorrowed)
	case errors.Is(err, models.ErrAlreadyBorrowed):
		h.redirectWithNotice(w, r, "/home", models.NoticeError, noticeAlreadyBorrowed)
	case errors.Is(err, models.ErrBookNotFound):
		h.redirect(w, r, "/home")
	default:
		h.logger.Error("failed to borrow book", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// Return handles POST /return/{title}/{author}
func (h *BooksHandler) Return(w http.ResponseWriter, r *http.Request) {
	sess := middleware.GetSession(r.Context())

	err := h.service.Return(r.Context(), pathParam(r, "title"), pathParam(r, "author"), sess.Username)
	switch {
	case err == nil:
		h.redirectWithNotice(w, r, "/home", models.NoticeSuccess, noticeBookReturned)
	case errors.Is(err, models.ErrNotBorrowedByCaller):
		h.redirectWithNotice(w, r, "/home", models.NoticeError, noticeNotBorrowedByYou)
	case errors.Is(err, models.ErrBookNotFound):
		h.redirect(w, r, "/home")
	default:
		h.logger.Error("failed to return book", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}
