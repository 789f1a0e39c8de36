package services

import (
	"context"
	"fmt"

	"github.com/bookshelf/backend/internal/models"
	"github.com/bookshelf/backend/internal/repositories"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// UsersRepository is the interface that wraps methods for the "users" document
type UsersRepository interface {
	// Method Load retrieves every account.
	//
	// An unreadable document yields an empty slice, never an error.
	Load(ctx context.Context) []models.User
	// Method Save overwrites every account with "users".
	//
	// Write failures are logged by the store; the caller is not told about them.
	Save(ctx context.Context, users []models.User)
}

// authService implements AuthService
type authService struct {
	userRepo      UsersRepository
	logger        *zap.Logger
	adminUsername string
	adminPassword string
	hashCost      int
}

// NewAuthService creates a new auth service.
//
// "adminUsername" and "adminPassword" are the credentials SeedAdmin creates when no such account exists.
func NewAuthService(userRepo UsersRepository, logger *zap.Logger, adminUsername, adminPassword string) *authService {
	return &authService{
		userRepo:      userRepo,
		logger:        logger,
		adminUsername: models.NormalizeUsername(adminUsername),
		adminPassword: adminPassword,
		hashCost:      bcrypt.DefaultCost,
	}
}

// SeedAdmin creates the administrator account unless a user with the same name already exists.
// It returns true when the account was created.
func (s *authService) SeedAdmin(ctx context.Context) (bool, error) {
	if s.adminUsername == "" || s.adminPassword == "" {
		return false, fmt.Errorf("admin credentials are not configured: %w", models.ErrInvalidInput)
	}
	if len(s.adminPassword) > models.MaxPasswordBytes {
		return false, fmt.Errorf("admin password: %w", models.ErrPasswordTooLong)
	}

	users := s.userRepo.Load(ctx)
	if repositories.Exists(users, s.adminUsername) {
		return false, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(s.adminPassword), s.hashCost)
	if err != nil {
		return false, fmt.Errorf("failed to hash admin password: %w", err)
	}

	users = append(users, models.User{
		Username:     s.adminUsername,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
	})
	s.userRepo.Save(ctx, users)

	s.logger.Info("admin user created", zap.String("username", s.adminUsername))
	return true, nil
}

// Signup creates a regular account. The username is trimmed and lowercased before it is stored.
func (s *authService) Signup(ctx context.Context, username, password string) error {
	username = models.NormalizeUsername(username)
	if username == "" || password == "" {
		return fmt.Errorf("username and password are required: %w", models.ErrInvalidInput)
	}
	if len(password) > models.MaxPasswordBytes {
		return models.ErrPasswordTooLong
	}

	users := s.userRepo.Load(ctx)
	if repositories.Exists(users, username) {
		return models.ErrDuplicateUser
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	users = append(users, models.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         models.RoleUser,
	})
	s.userRepo.Save(ctx, users)

	s.logger.Info("user signed up", zap.String("username", username))
	return nil
}

// Login verifies the credentials and returns the session to attach to the client
func (s *authService) Login(ctx context.Context, username, password string) (*models.Session, error) {
	username = models.NormalizeUsername(username)
	if username == "" {
		return nil, models.ErrInvalidCredentials
	}

	users := s.userRepo.Load(ctx)
	user := repositories.FindByCredentials(users, username, password)
	if user == nil {
		return nil, models.ErrInvalidCredentials
	}

	if repositories.IsLegacyHash(user.PasswordHash) {
		s.upgradeHash(ctx, users, user, password)
	}

	s.logger.Info("user logged in", zap.String("username", username), zap.String("role", string(user.Role)))
	return &models.Session{
		Username: username,
		Role:     user.Role,
	}, nil
}

// upgradeHash replaces a werkzeug hash with a bcrypt one after a successful login.
// A password bcrypt cannot hash keeps its old hash.
func (s *authService) upgradeHash(ctx context.Context, users []models.User, user *models.User, password string) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		s.logger.Warn("keeping legacy password hash", zap.String("username", user.Username), zap.Error(err))
		return
	}
	user.PasswordHash = string(hash)
	s.userRepo.Save(ctx, users)
	s.logger.Info("upgraded legacy password hash", zap.String("username", user.Username))
}
