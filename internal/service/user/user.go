// Package user handles registration, login and session resolution. A user
// has exactly one live session: each login rotates the stored session id,
// so tokens issued earlier stop resolving.
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Yoyzhao/CampusIdle/internal/domain/models"
	"github.com/Yoyzhao/CampusIdle/internal/lib/jwt"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type UserStore interface {
	SaveUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateUser(ctx context.Context, user *models.User) error
	UpdateSessionID(ctx context.Context, userID, sessionID string) error
}

type Service struct {
	store      UserStore
	logger     *slog.Logger
	jwtSecret  string
	sessionTTL time.Duration
}

func New(store UserStore, logger *slog.Logger, jwtSecret string, sessionTTL time.Duration) *Service {
	return &Service{store: store, logger: logger, jwtSecret: jwtSecret, sessionTTL: sessionTTL}
}

// Register creates a user with a bcrypt-hashed credential and an empty
// cart/likes/history, and opens their first session. Usernames are unique,
// compared case-sensitively.
func (s *Service) Register(ctx context.Context, username, password string) (*models.User, string, error) {
	if username == "" || password == "" {
		return nil, "", fmt.Errorf("username and password are required: %w", models.ErrValidation)
	}

	if _, err := s.store.GetUserByUsername(ctx, username); err == nil {
		return nil, "", fmt.Errorf("username %q: %w", username, models.ErrConflict)
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, "", err
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.Error("Failed to hash password", "error", err)
		return nil, "", err
	}

	user := &models.User{
		ID:              uuid.NewString(),
		Username:        username,
		PasswordHash:    string(passHash),
		Avatar:          avatarURL(username),
		SessionID:       uuid.NewString(),
		Cart:            []models.CartItem{},
		Likes:           []string{},
		PurchaseHistory: []models.CartItem{},
		CreatedAt:       time.Now(),
	}

	if err := s.store.SaveUser(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := jwt.NewToken(user, s.jwtSecret, s.sessionTTL)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("Registered new user", slog.String("username", username))

	return user, token, nil
}

// Login verifies the credential and rotates the session id, invalidating
// any token issued for a previous session.
func (s *Service) Login(ctx context.Context, username, password string) (*models.User, string, error) {
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, "", fmt.Errorf("unknown user %q: %w", username, models.ErrAuthentication)
		}
		return nil, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, "", fmt.Errorf("password mismatch: %w", models.ErrAuthentication)
	}

	user.SessionID = uuid.NewString()
	if err := s.store.UpdateSessionID(ctx, user.ID, user.SessionID); err != nil {
		return nil, "", err
	}

	token, err := jwt.NewToken(user, s.jwtSecret, s.sessionTTL)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// ResolveSession maps a bearer token to its user. The token's sid must
// match the user's current session id.
func (s *Service) ResolveSession(ctx context.Context, token string) (*models.User, error) {
	claims, err := jwt.ParseToken(token, s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("bad token: %w", models.ErrAuthentication)
	}

	uid, _ := claims["uid"].(string)
	sid, _ := claims["sid"].(string)
	if uid == "" || sid == "" {
		return nil, fmt.Errorf("malformed claims: %w", models.ErrAuthentication)
	}

	user, err := s.store.GetUserByID(ctx, uid)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("unknown session user: %w", models.ErrAuthentication)
		}
		return nil, err
	}

	if user.SessionID != sid {
		return nil, fmt.Errorf("session superseded: %w", models.ErrAuthentication)
	}

	return user, nil
}

// Logout clears the current session id so the outstanding token stops
// resolving.
func (s *Service) Logout(ctx context.Context, userID string) error {
	return s.store.UpdateSessionID(ctx, userID, "")
}

func (s *Service) Get(ctx context.Context, id string) (*models.User, error) {
	return s.store.GetUserByID(ctx, id)
}

// UpdateCartLikes applies a client-side cart/likes sync. Purchase history
// is server-owned and never taken from the client.
func (s *Service) UpdateCartLikes(ctx context.Context, user *models.User, cart []models.CartItem, likes []string) error {
	if cart == nil {
		cart = []models.CartItem{}
	}
	if likes == nil {
		likes = []string{}
	}
	user.Cart = cart
	user.Likes = likes

	return s.store.UpdateUser(ctx, user)
}

func avatarURL(username string) string {
	return "https://api.dicebear.com/7.x/avataaars/svg?seed=" + username
}
