package session

import (
	"encoding/gob"
	"net/http"

	"github.com/bookshelf/backend/internal/models"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

// FlashCookieName is the cookie carrying pending notices
const FlashCookieName = "bookshelf_flash"

func init() {
	gob.Register(models.Notice{})
}

// FlashStore queues notices for the next rendered page
type FlashStore struct {
	store  *sessions.CookieStore
	logger *zap.Logger
}

// NewFlashStore creates a flash store whose cookie is signed with secret
func NewFlashStore(secret string, logger *zap.Logger) *FlashStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	return &FlashStore{
		store:  store,
		logger: logger,
	}
}

// Add queues a notice. Notices survive until the next Pop.
func (f *FlashStore) Add(w http.ResponseWriter, r *http.Request, notice models.Notice) {
	// A cookie that fails to decode still yields a fresh, usable session.
	sess, _ := f.store.Get(r, FlashCookieName)
	sess.AddFlash(notice)
	if err := sess.Save(r, w); err != nil {
		f.logger.Error("failed to save flash notice", zap.String("message", notice.Message), zap.Error(err))
	}
}

// Pop returns the queued notices in the order they were added and clears them
func (f *FlashStore) Pop(w http.ResponseWriter, r *http.Request) []models.Notice {
	sess, _ := f.store.Get(r, FlashCookieName)
	flashes := sess.Flashes()
	if len(flashes) == 0 {
		return nil
	}

	if err := sess.Save(r, w); err != nil {
		f.logger.Error("failed to clear flash notices", zap.Error(err))
	}

	notices := make([]models.Notice, 0, len(flashes))
	for _, v := range flashes {
		if n, ok := v.(models.Notice); ok {
			notices = append(notices, n)
		}
	}
	return notices
}
