package service

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"circles/internal/identity/device"
	"circles/internal/identity/models"
	"circles/internal/identity/store"
	"circles/internal/platform/metrics"
	"circles/internal/platform/middleware"
	dErrors "circles/pkg/domain-errors"
)

// TokenIssuer abstracts the JWT layer so tests can swap it out.
type TokenIssuer interface {
	Generate(userID int64, username string) (string, error)
	ValidateToken(tokenString string) (*middleware.TokenClaims, error)
}

// Service owns registration, login and token resolution. The realtime core
// consumes it through the Authenticate method only.
type Service struct {
	users   store.UserStore
	tokens  TokenIssuer
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func New(users store.UserStore, tokens TokenIssuer, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		users:   users,
		tokens:  tokens,
		metrics: m,
		logger:  logger.With(slog.String("component", "identity_service")),
	}
}

// Credentials is the register/login response shape.
type Credentials struct {
	Token    string `json:"token"`
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

// Register creates a user with a bcrypt-hashed password and issues a token.
func (s *Service) Register(ctx context.Context, username, password, email string, termsAccepted bool) (Credentials, error) {
	if username == "" || password == "" {
		return Credentials{}, dErrors.New(dErrors.CodeBadRequest, "username and password required")
	}
	if !termsAccepted {
		return Credentials{}, dErrors.New(dErrors.CodeBadRequest, "you must accept the terms")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Credentials{}, dErrors.Wrap(err, dErrors.CodeInternal, "hash password")
	}

	user := &models.User{Username: username, Email: email, PasswordHash: string(hash)}
	if err := s.users.Create(ctx, user); err != nil {
		return Credentials{}, err
	}
	if err := s.users.SaveProfile(ctx, models.Profile{UserID: user.ID, TermsAccepted: true}); err != nil {
		return Credentials{}, err
	}
	if s.metrics != nil {
		s.metrics.UsersRegistered.Inc()
	}

	return s.issue(*user)
}

// Login verifies the password and issues a token. The caller's User-Agent is
// recorded on the profile as a readable device name.
func (s *Service) Login(ctx context.Context, username, password, userAgent string) (Credentials, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Credentials{}, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return Credentials{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return Credentials{}, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
	}

	profile, err := s.users.FindProfile(ctx, user.ID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return Credentials{}, err
	}
	profile.UserID = user.ID
	profile.LastLoginDevice = device.ParseUserAgent(userAgent)
	if err := s.users.SaveProfile(ctx, profile); err != nil {
		s.logger.WarnContext(ctx, "failed to record login device", "error", err, "user_id", user.ID)
	}

	return s.issue(user)
}

// Authenticate resolves an opaque bearer token into a verified identity.
// This is the handshake entry point for the realtime core: it must succeed
// before any group join is attempted.
func (s *Service) Authenticate(ctx context.Context, tokenString string) (models.User, error) {
	if tokenString == "" {
		return models.User{}, dErrors.New(dErrors.CodeUnauthorized, "missing token")
	}
	claims, err := s.tokens.ValidateToken(tokenString)
	if err != nil {
		return models.User{}, err
	}
	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.User{}, dErrors.New(dErrors.CodeUnauthorized, "unknown identity")
		}
		return models.User{}, err
	}
	return user, nil
}

// Get returns a user by ID.
func (s *Service) Get(ctx context.Context, id int64) (models.User, error) {
	return s.users.FindByID(ctx, id)
}

// ProfileUpdate carries the optional fields of a profile edit.
type ProfileUpdate struct {
	Username *string
	Email    *string
	Password *string
}

// UpdateProfile applies a partial update to the caller's account.
func (s *Service) UpdateProfile(ctx context.Context, userID int64, update ProfileUpdate) (models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return models.User{}, err
	}

	if update.Username != nil && *update.Username != "" {
		user.Username = *update.Username
	}
	if update.Email != nil {
		user.Email = *update.Email
	}
	if update.Password != nil && *update.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(*update.Password), bcrypt.DefaultCost)
		if err != nil {
			return models.User{}, dErrors.Wrap(err, dErrors.CodeInternal, "hash password")
		}
		user.PasswordHash = string(hash)
	}

	if err := s.users.Update(ctx, user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

// ValidateToken implements middleware.TokenValidator for the REST layer.
func (s *Service) ValidateToken(tokenString string) (*middleware.TokenClaims, error) {
	return s.tokens.ValidateToken(tokenString)
}

func (s *Service) issue(user models.User) (Credentials, error) {
	tok, err := s.tokens.Generate(user.ID, user.Username)
	if err != nil {
		return Credentials{}, dErrors.Wrap(err, dErrors.CodeInternal, "issue token")
	}
	return Credentials{Token: tok, UserID: user.ID, Username: user.Username}, nil
}
