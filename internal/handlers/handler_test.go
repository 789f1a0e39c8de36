package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/bookshelf/backend/internal/middleware"
	"github.com/bookshelf/backend/internal/models"
	"github.com/bookshelf/backend/internal/views"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockRenderer is a mock implementation of PageRenderer
type mockRenderer struct {
	name   string
	status int
	page   *views.Page
	err    error
}

func (m *mockRenderer) Render(w http.ResponseWriter, status int, name string, data *views.Page) error {
	if m.err != nil {
		return m.err
	}
	m.name = name
	m.status = status
	m.page = data
	w.WriteHeader(status)
	return nil
}

// mockNoticeStore is a mock implementation of NoticeStore
type mockNoticeStore struct {
	pending []models.Notice
	added   []models.Notice
}

func (m *mockNoticeStore) Add(w http.ResponseWriter, r *http.Request, notice models.Notice) {
	m.added = append(m.added, notice)
}

func (m *mockNoticeStore) Pop(w http.ResponseWriter, r *http.Request) []models.Notice {
	out := m.pending
	m.pending = nil
	return out
}

// mockAuthService is a mock implementation of AuthService
type mockAuthService struct {
	session   *models.Session
	loginErr  error
	signupErr error
}

func (m *mockAuthService) Signup(ctx context.Context, username, password string) error {
	return m.signupErr
}

func (m *mockAuthService) Login(ctx context.Context, username, password string) (*models.Session, error) {
	if m.loginErr != nil {
		return nil, m.loginErr
	}
	return m.session, nil
}

// mockSessionIssuer is a mock implementation of SessionIssuer
type mockSessionIssuer struct {
	token    string
	err      error
	setToken string
	cleared  bool
}

func (m *mockSessionIssuer) Generate(sess *models.Session) (string, error) {
	return m.token, m.err
}

func (m *mockSessionIssuer) SetSessionCookie(w http.ResponseWriter, token string) {
	m.setToken = token
}

func (m *mockSessionIssuer) ClearSessionCookie(w http.ResponseWriter) {
	m.cleared = true
}

// mockCatalogService is a mock implementation of CatalogService
type mockCatalogService struct {
	books     []models.Book
	err       error
	lastQuery string
	lastArgs  []string
}

func (m *mockCatalogService) List(ctx context.Context, query string) []models.Book {
	m.lastQuery = query
	return m.books
}

func (m *mockCatalogService) Add(ctx context.Context, title, author, image string) error {
	m.lastArgs = []string{title, author, image}
	return m.err
}

func (m *mockCatalogService) Delete(ctx context.Context, title, author string) int {
	m.lastArgs = []string{title, author}
	return 1
}

func (m *mockCatalogService) Borrow(ctx context.Context, title, author, username string) error {
	m.lastArgs = []string{title, author, username}
	return m.err
}

func (m *mockCatalogService) Return(ctx context.Context, title, author, username string) error {
	m.lastArgs = []string{title, author, username}
	return m.err
}

var (
	aliceSession = &models.Session{Username: "alice", Role: models.RoleUser}
	adminSession = &models.Session{Username: "superuser1", Role: models.RoleAdmin}
)

// withSession attaches sess to every request, standing in for the session middleware
func withSession(sess *models.Session, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sess != nil {
			r = r.WithContext(middleware.WithSession(r.Context(), sess))
		}
		next.ServeHTTP(w, r)
	})
}

func postForm(target string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestAuthHandler_Login(t *testing.T) {
	tests := []struct {
		name             string
		service          *mockAuthService
		issuer           *mockSessionIssuer
		expectedStatus   int
		expectedLocation string
		expectedNotices  []models.Notice
		expectedToken    string
	}{
		{
			name:             "success",
			service:          &mockAuthService{session: aliceSession},
			issuer:           &mockSessionIssuer{token: "tok"},
			expectedStatus:   http.StatusFound,
			expectedLocation: "/home",
			expectedToken:    "tok",
		},
		{
			name:            "invalid credentials re-render the form",
			service:         &mockAuthService{loginErr: models.ErrInvalidCredentials},
			issuer:          &mockSessionIssuer{},
			expectedStatus:  http.StatusOK,
			expectedNotices: []models.Notice{{Category: models.NoticeError, Message: "Invalid credentials"}},
		},
		{
			name:           "token failure",
			service:        &mockAuthService{session: aliceSession},
			issuer:         &mockSessionIssuer{err: errors.New("sign failed")},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			renderer := &mockRenderer{}
			h := NewAuthHandler(tt.service, tt.issuer, renderer, &mockNoticeStore{}, zap.NewNop())
			r := chi.NewRouter()
			h.RegisterRoutes(r)
			rec := httptest.NewRecorder()

			r.ServeHTTP(rec, postForm("/login", url.Values{"username": {"alice"}, "password": {"pw"}}))

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Equal(t, tt.expectedLocation, rec.Header().Get("Location"))
			assert.Equal(t, tt.expectedToken, tt.issuer.setToken)
			if tt.expectedNotices != nil {
				require.NotNil(t, renderer.page)
				assert.Equal(t, views.PageLogin, renderer.name)
				assert.Equal(t, tt.expectedNotices, renderer.page.Notices)
			}
		})
	}
}

func TestAuthHandler_Signup(t *testing.T) {
	tests := []struct {
		name             string
		err              error
		expectedStatus   int
		expectedLocation string
		expectedNotice   *models.Notice
	}{
		{
			name:             "success",
			expectedStatus:   http.StatusFound,
			expectedLocation: "/login",
			expectedNotice:   &models.Notice{Category: models.NoticeSuccess, Message: "Account created! Please log in."},
		},
		{
			name:             "duplicate",
			err:              models.ErrDuplicateUser,
			expectedStatus:   http.StatusFound,
			expectedLocation: "/signup",
			expectedNotice:   &models.Notice{Category: models.NoticeError, Message: "Username already exists"},
		},
		{
			name:             "missing fields",
			err:              models.ErrInvalidInput,
			expectedStatus:   http.StatusFound,
			expectedLocation: "/signup",
			expectedNotice:   &models.Notice{Category: models.NoticeError, Message: "Username and password are required"},
		},
		{
			name:             "password too long",
			err:              models.ErrPasswordTooLong,
			expectedStatus:   http.StatusFound,
			expectedLocation: "/signup",
			expectedNotice:   &models.Notice{Category: models.NoticeError, Message: "Password must be at most 72 bytes long"},
		},
		{
			name:           "unexpected error",
			err:            errors.New("hash failed"),
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notices := &mockNoticeStore{}
			h := NewAuthHandler(&mockAuthService{signupErr: tt.err}, &mockSessionIssuer{}, &mockRenderer{}, notices, zap.NewNop())
			r := chi.NewRouter()
			h.RegisterRoutes(r)
			rec := httptest.NewRecorder()

			r.ServeHTTP(rec, postForm("/signup", url.Values{"username": {"alice"}, "password": {"pw"}}))

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Equal(t, tt.expectedLocation, rec.Header().Get("Location"))
			if tt.expectedNotice != nil {
				assert.Equal(t, []models.Notice{*tt.expectedNotice}, notices.added)
			} else {
				assert.Empty(t, notices.added)
			}
		})
	}
}

func TestAuthHandler_Pages(t *testing.T) {
	tests := []struct {
		path         string
		expectedPage string
	}{
		{path: "/", expectedPage: views.PageLanding},
		{path: "/login", expectedPage: views.PageLogin},
		{path: "/signup", expectedPage: views.PageSignup},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			renderer := &mockRenderer{}
			notices := &mockNoticeStore{pending: []models.Notice{{Category: models.NoticeSuccess, Message: "hello"}}}
			h := NewAuthHandler(&mockAuthService{}, &mockSessionIssuer{}, renderer, notices, zap.NewNop())
			r := chi.NewRouter()
			h.RegisterRoutes(r)
			rec := httptest.NewRecorder()

			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.expectedPage, renderer.name)
			assert.True(t, renderer.page.HideNav)
			assert.Equal(t, []models.Notice{{Category: models.NoticeSuccess, Message: "hello"}}, renderer.page.Notices)
		})
	}
}

func TestAuthHandler_RenderFailure(t *testing.T) {
	renderer := &mockRenderer{err: errors.New("template broken")}
	h := NewAuthHandler(&mockAuthService{}, &mockSessionIssuer{}, renderer, &mockNoticeStore{}, zap.NewNop())
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	rec := httptest.NewRecorder()

	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAuthHandler_Logout(t *testing.T) {
	issuer := &mockSessionIssuer{}
	h := NewAuthHandler(&mockAuthService{}, issuer, &mockRenderer{}, &mockNoticeStore{}, zap.NewNop())
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	rec := httptest.NewRecorder()

	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/logout", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.True(t, issuer.cleared)
}

func newBooksRouter(svc CatalogService, renderer PageRenderer, notices NoticeStore, sess *models.Session) http.Handler {
	h := NewBooksHandler(svc, renderer, notices, zap.NewNop())
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return withSession(sess, r)
}

func TestBooksHandler_Home(t *testing.T) {
	t.Run("lists books for the session", func(t *testing.T) {
		svc := &mockCatalogService{books: []models.Book{{Title: "Dune", Author: "Herbert", Image: models.DefaultBookImage}}}
		renderer := &mockRenderer{}
		h := newBooksRouter(svc, renderer, &mockNoticeStore{}, aliceSession)
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/home?q=dun", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "dun", svc.lastQuery)
		require.NotNil(t, renderer.page)
		assert.Equal(t, views.PageHome, renderer.name)
		assert.Equal(t, svc.books, renderer.page.Books)
		assert.Equal(t, "dun", renderer.page.Query)
		assert.Equal(t, "alice", renderer.page.CurrentUser)
		assert.Equal(t, aliceSession, renderer.page.Session)
	})

	t.Run("anonymous is sent to login", func(t *testing.T) {
		h := newBooksRouter(&mockCatalogService{}, &mockRenderer{}, &mockNoticeStore{}, nil)
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/home", nil))

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
	})
}

func TestBooksHandler_Add(t *testing.T) {
	tests := []struct {
		name             string
		sess             *models.Session
		err              error
		expectedStatus   int
		expectedLocation string
		expectedNotice   models.Notice
		expectCall       bool
	}{
		{
			name:             "success",
			sess:             adminSession,
			expectedStatus:   http.StatusFound,
			expectedLocation: "/home",
			expectedNotice:   models.Notice{Category: models.NoticeSuccess, Message: "Book added successfully!"},
			expectCall:       true,
		},
		{
			name:             "duplicate",
			sess:             adminSession,
			err:              models.ErrDuplicateBook,
			expectedStatus:   http.StatusFound,
			expectedLocation: "/add",
			expectedNotice:   models.Notice{Category: models.NoticeError, Message: "Book already exists!"},
			expectCall:       true,
		},
		{
			name:             "missing fields",
			sess:             adminSession,
			err:              models.ErrInvalidInput,
			expectedStatus:   http.StatusFound,
			expectedLocation: "/add",
			expectedNotice:   models.Notice{Category: models.NoticeError, Message: "Title and author are required"},
			expectCall:       true,
		},
		{
			name:             "non-admin",
			sess:             aliceSession,
			expectedStatus:   http.StatusFound,
			expectedLocation: "/home",
			expectedNotice:   models.Notice{Category: models.NoticeError, Message: "Unauthorized"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockCatalogService{err: tt.err}
			notices := &mockNoticeStore{}
			h := newBooksRouter(svc, &mockRenderer{}, notices, tt.sess)
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, postForm("/add", url.Values{"title": {"1984"}, "author": {"Orwell"}, "image": {""}}))

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Equal(t, tt.expectedLocation, rec.Header().Get("Location"))
			assert.Equal(t, []models.Notice{tt.expectedNotice}, notices.added)
			if tt.expectCall {
				assert.Equal(t, []string{"1984", "Orwell", ""}, svc.lastArgs)
			} else {
				assert.Nil(t, svc.lastArgs)
			}
		})
	}
}

func TestBooksHandler_Delete(t *testing.T) {
	t.Run("admin deletes with decoded params", func(t *testing.T) {
		svc := &mockCatalogService{}
		notices := &mockNoticeStore{}
		h := newBooksRouter(svc, &mockRenderer{}, notices, adminSession)
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/delete/AC%2FDC/Some%20Band", nil))

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/home", rec.Header().Get("Location"))
		assert.Equal(t, []string{"AC/DC", "Some Band"}, svc.lastArgs)
		assert.Equal(t, []models.Notice{{Category: models.NoticeSuccess, Message: "Book deleted successfully!"}}, notices.added)
	})

	t.Run("non-admin is unauthorized", func(t *testing.T) {
		svc := &mockCatalogService{}
		notices := &mockNoticeStore{}
		h := newBooksRouter(svc, &mockRenderer{}, notices, aliceSession)
		rec := httptest.NewRecorder()

		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/delete/Dune/Herbert", nil))

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/home", rec.Header().Get("Location"))
		assert.Nil(t, svc.lastArgs)
		assert.Equal(t, []models.Notice{{Category: models.NoticeError, Message: "Unauthorized"}}, notices.added)
	})
}

func TestBooksHandler_Circulation(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		err            error
		expectedNotice []models.Notice
	}{
		{
			name:           "borrow",
			path:           "/borrow/Dune/Herbert",
			expectedNotice: []models.Notice{{Category: models.NoticeSuccess, Message: "Book borrowed successfully!"}},
		},
		{
			name:           "borrow already borrowed",
			path:           "/borrow/Dune/Herbert",
			err:            models.ErrAlreadyBorrowed,
			expectedNotice: []models.Notice{{Category: models.NoticeError, Message: "Book is already borrowed!"}},
		},
		{
			name: "borrow missing book is silent",
			path: "/borrow/Dune/Herbert",
			err:  models.ErrBookNotFound,
		},
		{
			name:           "return",
			path:           "/return/Dune/Herbert",
			expectedNotice: []models.Notice{{Category: models.NoticeSuccess, Message: "Book returned successfully!"}},
		},
		{
			name:           "return by someone else",
			path:           "/return/Dune/Herbert",
			err:            models.ErrNotBorrowedByCaller,
			expectedNotice: []models.Notice{{Category: models.NoticeError, Message: "You did not borrow this book!"}},
		},
		{
			name: "return missing book is silent",
			path: "/return/Dune/Herbert",
			err:  models.ErrBookNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockCatalogService{err: tt.err}
			notices := &mockNoticeStore{}
			h := newBooksRouter(svc, &mockRenderer{}, notices, aliceSession)
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, tt.path, nil))

			assert.Equal(t, http.StatusFound, rec.Code)
			assert.Equal(t, "/home", rec.Header().Get("Location"))
			assert.Equal(t, []string{"Dune", "Herbert", "alice"}, svc.lastArgs)
			assert.Equal(t, tt.expectedNotice, notices.added)
		})
	}
}

func TestBooksHandler_Circulation_RequiresSession(t *testing.T) {
	svc := &mockCatalogService{}
	h := newBooksRouter(svc, &mockRenderer{}, &mockNoticeStore{}, nil)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/borrow/Dune/Herbert", nil))

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.Nil(t, svc.lastArgs)
}

// mockPinger is a mock implementation of Pinger
type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(ctx context.Context) error {
	return m.err
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
		expectedBody   string
	}{
		{name: "ok", expectedStatus: http.StatusOK, expectedBody: `{"status":"ok"}`},
		{name: "store down", err: errors.New("connection refused"), expectedStatus: http.StatusServiceUnavailable, expectedBody: `{"status":"unavailable"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(&mockPinger{err: tt.err}, zap.NewNop())
			r := chi.NewRouter()
			h.RegisterRoutes(r)
			rec := httptest.NewRecorder()

			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.JSONEq(t, tt.expectedBody, rec.Body.String())
		})
	}
}
