package handlers

import (
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/bookshelf/backend/internal/middleware"
	"github.com/bookshelf/backend/internal/models"
	"github.com/bookshelf/backend/internal/views"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// PageRenderer is the interface that wraps the method for writing an HTML page
type PageRenderer interface {
	// Method Render executes the page "name" with "data" and writes it with "status".
	//
	// Nothing is written to "w" when an error is returned.
	Render(w http.ResponseWriter, status int, name string, data *views.Page) error
}

// NoticeStore is the interface that wraps methods for one-shot notices
type NoticeStore interface {
	// Method Add queues a notice for the next rendered page.
	Add(w http.ResponseWriter, r *http.Request, notice models.Notice)
	// Method Pop returns the queued notices in order and forgets them.
	Pop(w http.ResponseWriter, r *http.Request) []models.Notice
}

type BaseHandler struct {
	logger  *zap.Logger
	views   PageRenderer
	notices NoticeStore
}

// render writes a page with pending notices and the current session filled in.
// Notices already set on page are shown after the pending ones.
func (h *BaseHandler) render(w http.ResponseWriter, r *http.Request, status int, name string, page *views.Page) {
	page.Notices = append(h.notices.Pop(w, r), page.Notices...)
	if page.Session == nil {
		page.Session = middleware.GetSession(r.Context())
	}

	if err := h.views.Render(w, status, name, page); err != nil {
		h.logger.Error("failed to render page",
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.String("page", name),
			zap.Error(err),
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// redirect sends the client to target with a 302, the way form posts are answered
func (h *BaseHandler) redirect(w http.ResponseWriter, r *http.Request, target string) {
	http.Redirect(w, r, target, http.StatusFound)
}

// redirectWithNotice queues a notice and redirects to target
func (h *BaseHandler) redirectWithNotice(w http.ResponseWriter, r *http.Request, target string, category models.NoticeCategory, message string) {
	h.notices.Add(w, r, models.Notice{Category: category, Message: message})
	h.redirect(w, r, target)
}

// respondJSON sends a JSON response
func (h *BaseHandler) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// pathParam returns a decoded URL parameter.
// chi matches on the escaped path when the request carried one, so "%2F" in a title survives routing.
func pathParam(r *http.Request, key string) string {
	value := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return value
	}
	if decoded, err := url.PathUnescape(value); err == nil {
		return decoded
	}
	return value
}
