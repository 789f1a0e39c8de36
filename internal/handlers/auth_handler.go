package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/bookshelf/backend/internal/models"
	"github.com/bookshelf/backend/internal/views"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Notices shown by the account pages
const (
	noticeInvalidCredentials = "Invalid credentials"
	noticeDuplicateUser      = "Username already exists"
	noticeAccountCreated     = "Account created! Please log in."
	noticeMissingCredentials = "Username and password are required"
	noticePasswordTooLong    = "Password must be at most 72 bytes long"
)

// AuthService is the interface that wraps methods for account business logic.
type AuthService interface {
	// Method Signup creates a regular account.
	//
	// "username" is trimmed and lowercased before use.
	// models.ErrInvalidInput is returned for an empty username or password (models.ErrPasswordTooLong, which wraps it,
	// for a password bcrypt cannot hash), models.ErrDuplicateUser when the name is taken (ignoring case).
	Signup(ctx context.Context, username, password string) error
	// Method Login verifies the credentials.
	//
	// On success the session to attach to the client is returned; otherwise models.ErrInvalidCredentials and "nil".
	Login(ctx context.Context, username, password string) (*models.Session, error)
}

// SessionIssuer is the interface that wraps methods for attaching a session to a client.
type SessionIssuer interface {
	// Method Generate signs a token for "sess".
	Generate(sess *models.Session) (string, error)
	// Method SetSessionCookie writes the token cookie.
	SetSessionCookie(w http.ResponseWriter, token string)
	// Method ClearSessionCookie expires the token cookie.
	ClearSessionCookie(w http.ResponseWriter)
}

// AuthHandler handles the landing page and account requests
type AuthHandler struct {
	BaseHandler
	service AuthService
	tokens  SessionIssuer
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(svc AuthService, tokens SessionIssuer, renderer PageRenderer, notices NoticeStore, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler: BaseHandler{logger: logger, views: renderer, notices: notices},
		service:     svc,
		tokens:      tokens,
	}
}

// RegisterRoutes registers all auth handler routes
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Landing)
	r.Get("/login", h.LoginForm)
	r.Post("/login", h.Login)
	r.Get("/signup", h.SignupForm)
	r.Post("/signup", h.Signup)
	r.Get("/logout", h.Logout)
}

// Landing handles GET /
func (h *AuthHandler) Landing(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, views.PageLanding, &views.Page{HideNav: true})
}

// LoginForm handles GET /login
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, views.PageLogin, &views.Page{HideNav: true})
}

// Login handles POST /login.
// Bad credentials re-render the form instead of redirecting.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	sess, err := h.service.Login(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
	if err != nil {
		if !errors.Is(err, models.ErrInvalidCredentials) {
			h.logger.Error("failed to log in", zap.Error(err))
		}
		h.render(w, r, http.StatusOK, views.PageLogin, &views.Page{
			HideNav: true,
			Notices: []models.Notice{{Category: models.NoticeError, Message: noticeInvalidCredentials}},
		})
		return
	}

	token, err := h.tokens.Generate(sess)
	if err != nil {
		h.logger.Error("failed to generate session token", zap.String("username", sess.Username), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.tokens.SetSessionCookie(w, token)
	h.redirect(w, r, "/home")
}

// SignupForm handles GET /signup
func (h *AuthHandler) SignupForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, views.PageSignup, &views.Page{HideNav: true})
}

// Signup handles POST /signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	err := h.service.Signup(r.Context(), r.PostFormValue("username"), r.PostFormValue("password"))
	switch {
	case err == nil:
		h.redirectWithNotice(w, r, "/login", models.NoticeSuccess, noticeAccountCreated)
	case errors.Is(err, models.ErrDuplicateUser):
		h.redirectWithNotice(w, r, "/signup", models.NoticeError, noticeDuplicateUser)
	case errors.Is(err, models.ErrPasswordTooLong):
		h.redirectWithNotice(w, r, "/signup", models.NoticeError, noticePasswordTooLong)
	case errors.Is(err, models.ErrInvalidInput):
		h.redirectWithNotice(w, r, "/signup", models.NoticeError, noticeMissingCredentials)
	default:
		h.logger.Error("failed to sign up", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// Logout handles GET /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.tokens.ClearSessionCookie(w)
	h.redirect(w, r, "/")
}
