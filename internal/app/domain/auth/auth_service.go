package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/moodatlas/mood-atlas/internal/app/middleware"
	"github.com/moodatlas/mood-atlas/internal/app/models"
	"github.com/moodatlas/mood-atlas/internal/pkg/config"
)

var _ AuthService = (*AuthServiceImpl)(nil)

// AuthService defines the business logic contract.
type AuthService interface {
	Login(ctx context.Context, email, password string) (accessToken string, refreshToken string, err error)
	Logout(ctx context.Context, refreshToken string) error
	RefreshSession(ctx context.Context, refreshToken string) (accessToken string, newRefreshToken string, err error)
	Register(ctx context.Context, username, email, password string) (string, error)
	UpdatePassword(ctx context.Context, userID, oldPassword, newPassword string) error
	InvalidateAllUserRefreshTokens(ctx context.Context, userID string) error
	GetUserByID(ctx context.Context, userID string) (*models.UserAuth, error)
}

// AuthServiceImpl provides the implementation for AuthService.
type AuthServiceImpl struct {
	logger *zap.Logger
	repo   AuthRepo
	cfg    *config.Config
}

func NewAuthService(repo AuthRepo, cfg *config.Config, logger *zap.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{logger: logger, repo: repo, cfg: cfg}
}

// Login validates credentials, generates tokens, stores the refresh token.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (string, string, error) {
	l := s.logger.With(zap.String("method", "Login"), zap.String("email", email))
	l.Debug("Attempting login")

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		l.Warn("GetUserByEmail failed")
		// Don't reveal whether the user exists or the password is wrong
		return "", "", fmt.Errorf("invalid credentials: %w", models.ErrUnauthenticated)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		l.Warn("Password comparison failed", zap.String("userID", user.ID))
		return "", "", fmt.Errorf("invalid credentials: %w", models.ErrUnauthenticated)
	}

	accessToken, refreshToken, err := s.generateTokens(user)
	if err != nil {
		l.Error("Failed to generate tokens", zap.String("userID", user.ID), zap.Error(err))
		return "", "", fmt.Errorf("app error generating tokens: %w", err)
	}

	refreshExpiresAt := time.Now().Add(s.getRefreshTTL())
	if err := s.repo.StoreRefreshToken(ctx, user.ID, refreshToken, refreshExpiresAt); err != nil {
		l.Error("Failed to store refresh token", zap.String("userID", user.ID), zap.Error(err))
		return "", "", fmt.Errorf("app error storing session: %w", err)
	}

	l.Info("Login successful")
	return accessToken, refreshToken, nil
}

func (s *AuthServiceImpl) Register(ctx context.Context, username, email, password string) (string, error) {
	l := s.logger.With(zap.String("method", "Register"), zap.String("email", email))
	l.Debug("Attempting registration")

	ctx, span := otel.Tracer("AuthService").Start(ctx, "Register", trace.WithAttributes(
		attribute.String("username", username),
	))
	defer span.End()

	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		l.Error("Failed to hash password", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Password hashing failed")
		return "", fmt.Errorf("could not process password")
	}

	userID, err := s.repo.Register(ctx, username, email, string(hashedPasswordBytes))
	if err != nil {
		l.Error("Repository registration failed", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Repository registration failed")
		return "", fmt.Errorf("registration failed: %w", err)
	}

	l.Info("Registration successful", zap.String("userID", userID))
	span.SetStatus(codes.Ok, "User registered")
	return userID, nil
}

// RefreshSession validates the refresh token, generates new tokens, and
// rotates the refresh token.
func (s *AuthServiceImpl) RefreshSession(ctx context.Context, refreshToken string) (string, string, error) {
	l := s.logger.With(zap.String("method", "RefreshSession"))
	l.Debug("Attempting token refresh")

	userID, err := s.repo.ValidateRefreshTokenAndGetUserID(ctx, refreshToken)
	if err != nil {
		l.Warn("Refresh token validation failed", zap.Error(err))
		return "", "", fmt.Errorf("invalid or expired refresh token: %w", err)
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		l.Error("Failed to get user after refresh token validation", zap.String("userID", userID), zap.Error(err))
		if err := s.repo.InvalidateRefreshToken(ctx, refreshToken); err != nil {
			return "", "", fmt.Errorf("invalid or expired refresh token: %w", models.ErrUnauthenticated)
		}
		return "", "", fmt.Errorf("app error retrieving user during refresh: %w", models.ErrUnauthenticated)
	}

	newAccessToken, newRefreshToken, err := s.generateTokens(user)
	if err != nil {
		l.Error("Failed to generate new tokens", zap.String("userID", user.ID), zap.Error(err))
		return "", "", fmt.Errorf("app error generating tokens: %w", err)
	}

	refreshExpiresAt := time.Now().Add(s.getRefreshTTL())
	if err := s.repo.StoreRefreshToken(ctx, user.ID, newRefreshToken, refreshExpiresAt); err != nil {
		l.Error("Failed to store new refresh token", zap.String("userID", user.ID), zap.Error(err))
		return "", "", fmt.Errorf("app error storing new session: %w", err)
	}

	// Rotation: the old token dies with the new one issued.
	if err := s.repo.InvalidateRefreshToken(ctx, refreshToken); err != nil {
		l.Warn("Failed to invalidate old refresh token during rotation", zap.String("userID", user.ID), zap.Error(err))
		return "", "", fmt.Errorf("failed to invalidate old refresh token: %w", err)
	}

	l.Info("Token refresh successful", zap.String("userID", user.ID))
	return newAccessToken, newRefreshToken, nil
}

// Logout invalidates the provided refresh token.
func (s *AuthServiceImpl) Logout(ctx context.Context, refreshToken string) error {
	l := s.logger.With(zap.String("method", "Logout"))
	if err := s.repo.InvalidateRefreshToken(ctx, refreshToken); err != nil {
		l.Error("Failed to invalidate refresh token", zap.Error(err))
		return fmt.Errorf("logout failed: %w", err)
	}
	l.Info("Logout successful")
	return nil
}

// UpdatePassword verifies the old password, stores the new hash, and
// invalidates all refresh tokens.
func (s *AuthServiceImpl) UpdatePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	l := s.logger.With(zap.String("method", "UpdatePassword"), zap.String("userID", userID))

	if err := s.repo.VerifyPassword(ctx, userID, oldPassword); err != nil {
		l.Warn("Old password verification failed", zap.Error(err))
		return fmt.Errorf("incorrect old password: %w", models.ErrUnauthenticated)
	}

	newHashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		l.Error("Failed to hash new password", zap.Error(err))
		return fmt.Errorf("could not process new password")
	}

	if err := s.repo.UpdatePassword(ctx, userID, string(newHashedPasswordBytes)); err != nil {
		l.Error("Repository password update failed", zap.Error(err))
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := s.InvalidateAllUserRefreshTokens(ctx, userID); err != nil {
		l.Warn("Failed to invalidate refresh tokens after password update", zap.Error(err))
		return err
	}

	l.Info("Password updated successfully")
	return nil
}

func (s *AuthServiceImpl) InvalidateAllUserRefreshTokens(ctx context.Context, userID string) error {
	l := s.logger.With(zap.String("method", "InvalidateAllUserRefreshTokens"), zap.String("userID", userID))
	if err := s.repo.InvalidateAllUserRefreshTokens(ctx, userID); err != nil {
		l.Error("Failed to invalidate all refresh tokens", zap.Error(err))
		return fmt.Errorf("failed to invalidate tokens: %w", err)
	}
	l.Info("All refresh tokens invalidated")
	return nil
}

func (s *AuthServiceImpl) GetUserByID(ctx context.Context, userID string) (*models.UserAuth, error) {
	l := s.logger.With(zap.String("method", "GetUserByID"), zap.String("userID", userID))
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		l.Error("Failed to fetch user by ID", zap.Error(err))
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return user, nil
}

func (s *AuthServiceImpl) generateTokens(user *models.UserAuth) (accessToken string, refreshToken string, err error) {
	l := s.logger.With(zap.String("method", "generateTokens"), zap.String("userID", user.ID))

	now := time.Now()
	accessClaims := &middleware.TokenClaims{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.getAccessTTL())),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   user.ID,
			Issuer:    s.getIssuer(),
			Audience:  jwt.ClaimStrings{s.getAudience()},
		},
	}
	accessTokenJWT := jwt.NewWithClaims(jwt.SigningMethodHS256, accessClaims)
	accessToken, err = accessTokenJWT.SignedString([]byte(s.cfg.JWT.SecretKey))
	if err != nil {
		l.Error("Failed to sign access token", zap.Error(err))
		return "", "", fmt.Errorf("failed to sign access token: %w", err)
	}

	// Refresh token is an opaque UUID stored server-side.
	refreshToken = uuid.NewString()

	l.Debug("Tokens generated successfully")
	return accessToken, refreshToken, nil
}

func (s *AuthServiceImpl) getAccessTTL() time.Duration {
	if s.cfg != nil && s.cfg.JWT.AccessTokenTTL > 0 {
		return s.cfg.JWT.AccessTokenTTL
	}
	s.logger.Warn("JWT AccessTokenTTL not configured, using default 15m")
	return 15 * time.Minute
}

func (s *AuthServiceImpl) getRefreshTTL() time.Duration {
	if s.cfg != nil && s.cfg.JWT.RefreshTokenTTL > 0 {
		return s.cfg.JWT.RefreshTokenTTL
	}
	s.logger.Warn("JWT RefreshTokenTTL not configured, using default 7d")
	return 7 * 24 * time.Hour
}

func (s *AuthServiceImpl) getIssuer() string {
	if s.cfg != nil && s.cfg.JWT.Issuer != "" {
		return s.cfg.JWT.Issuer
	}
	return "MoodAtlas"
}

func (s *AuthServiceImpl) getAudience() string {
	if s.cfg != nil && s.cfg.JWT.Audience != "" {
		return s.cfg.JWT.Audience
	}
	return "mood-atlas-api"
}
