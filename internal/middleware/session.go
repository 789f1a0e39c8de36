package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/bookshelf/backend/internal/models"
	"github.com/bookshelf/backend/internal/session"
	"go.uber.org/zap"
)

// UnauthorizedNotice is shown when a client without the required role hits a protected page
const UnauthorizedNotice = "Unauthorized"

// SessionReader is the interface that wraps methods for reading the session cookie
type SessionReader interface {
	// Method SessionFromRequest returns the session carried by the request.
	//
	// session.ErrNoSession is returned when there is no cookie; any other error means the cookie is unusable.
	SessionFromRequest(r *http.Request) (*models.Session, error)
	// Method ClearSessionCookie expires the session cookie.
	ClearSessionCookie(w http.ResponseWriter)
}

// NoticeWriter is the interface that wraps the method for queueing a notice
type NoticeWriter interface {
	// Method Add queues a notice for the next rendered page.
	Add(w http.ResponseWriter, r *http.Request, notice models.Notice)
}

// SessionMiddleware attaches the session from the cookie to the request context.
// It never rejects a request: an unusable cookie is cleared and the request continues anonymously.
func SessionMiddleware(tokens SessionReader, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := tokens.SessionFromRequest(r)
			if err != nil {
				if !errors.Is(err, session.ErrNoSession) {
					logger.Debug("discarding invalid session cookie",
						zap.String("request_id", GetRequestID(r.Context())),
						zap.Error(err),
					)
					tokens.ClearSessionCookie(w)
				}
				next.ServeHTTP(w, r)
				return
			}

			setRequestUser(r.Context(), sess.Username)

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

// RequireSession redirects anonymous clients to the login page
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetSession(r.Context()) == nil {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole lets through only sessions with the given role.
// Everybody else, anonymous clients included, gets the "Unauthorized" notice and is sent to /home.
func RequireRole(role models.Role, notices NoticeWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := GetSession(r.Context())
			if sess == nil || sess.Role != role {
				notices.Add(w, r, models.Notice{Category: models.NoticeError, Message: UnauthorizedNotice})
				http.Redirect(w, r, "/home", http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetSession retrieves the session from context, nil for anonymous requests
func GetSession(ctx context.Context) *models.Session {
	sess, _ := ctx.Value(sessionKey).(*models.Session)
	return sess
}

// WithSession returns a copy of ctx carrying sess
func WithSession(ctx context.Context, sess *models.Session) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}
