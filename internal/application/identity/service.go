// Package identity handles management console authentication.
package identity

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/zava/retail-backend/internal/infrastructure/auth"
	"github.com/zava/retail-backend/internal/infrastructure/logger"
	"github.com/zava/retail-backend/internal/infrastructure/persistence/models"
)

// ErrInvalidCredentials is returned when the username is unknown or the
// password does not match.
var ErrInvalidCredentials = errors.New("identity: invalid username or password")

// UserRepository loads accounts by username.
type UserRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
}

// StoreNamer resolves a store ID to its display name.
type StoreNamer interface {
	GetName(ctx context.Context, storeID int) (string, error)
}

// LoginResult is what a successful login returns to the client.
type LoginResult struct {
	AccessToken string  `json:"access_token"`
	TokenType   string  `json:"token_type"`
	UserRole    string  `json:"user_role"`
	StoreID     *int    `json:"store_id"`
	StoreName   *string `json:"store_name"`
}

// Service authenticates users and issues bearer tokens.
type Service struct {
	users  UserRepository
	stores StoreNamer
	tokens *auth.JWTService
}

// NewService returns an identity service.
func NewService(users UserRepository, stores StoreNamer, tokens *auth.JWTService) *Service {
	return &Service{users: users, stores: stores, tokens: tokens}
}

// Login verifies the credentials and returns a signed bearer token. Store
// managers additionally get their store's name resolved for the UI header.
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, _, err := s.tokens.GenerateToken(user.Username, user.Role, user.StoreID)
	if err != nil {
		return nil, err
	}

	var storeName *string
	if user.StoreID != nil {
		name, err := s.stores.GetName(ctx, *user.StoreID)
		if err == nil && name != "" {
			storeName = &name
		}
	}

	logger.L(ctx).Info("user logged in",
		zap.String("username", user.Username),
		zap.String("role", user.Role))

	return &LoginResult{
		AccessToken: token,
		TokenType:   "bearer",
		UserRole:    user.Role,
		StoreID:     user.StoreID,
		StoreName:   storeName,
	}, nil
}
