package repositories

import (
	"context"
	"strings"

	"github.com/bookshelf/backend/internal/models"
	"github.com/bookshelf/backend/internal/storage"
	"go.uber.org/zap"
)

type usersRepository struct {
	store  DocumentStore
	logger *zap.Logger
}

// NewUsersRepository creates a new instance of the UsersRepository interface
func NewUsersRepository(store DocumentStore, logger *zap.Logger) *usersRepository {
	return &usersRepository{
		store:  store,
		logger: logger,
	}
}

// Method Load is a UsersRepository implementation for reading all accounts.
func (r *usersRepository) Load(ctx context.Context) []models.User {
	var users []models.User
	r.store.Load(ctx, storage.UsersKey, &users)
	return users
}

// Method Save is a UsersRepository implementation for overwriting all accounts.
func (r *usersRepository) Save(ctx context.Context, users []models.User) {
	if users == nil {
		users = []models.User{}
	}
	r.store.Save(ctx, storage.UsersKey, users)
}

// FindByCredentials returns the first user whose username matches (ignoring case)
// and whose password hash verifies against password (see VerifyPassword), or nil.
func FindByCredentials(users []models.User, username, password string) *models.User {
	for i := range users {
		if !strings.EqualFold(users[i].Username, username) {
			continue
		}
		if VerifyPassword(users[i].PasswordHash, password) {
			return &users[i]
		}
	}
	return nil
}

// Exists reports whether an account with username exists, ignoring case
func Exists(users []models.User, username string) bool {
	for i := range users {
		if strings.EqualFold(users[i].Username, username) {
			return true
		}
	}
	return false
}
