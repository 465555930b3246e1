package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/intakt/hunter/backend/internal/logger"
	"github.com/intakt/hunter/backend/internal/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidResetToken marks the invalid/expired-recovery-link case so
	// the UI can route to its dedicated state instead of a generic failure.
	ErrInvalidResetToken = errors.New("invalid or expired reset token")
	// ErrNotConfigured is returned when auth runs without a real signing
	// secret (degraded mode).
	ErrNotConfigured = errors.New("authentication is not configured")
)

const tokenTTL = 24 * time.Hour

// Mailer delivers password-reset tokens. Satisfied by email.Service; nil
// disables delivery (the token is still created, for operator handoff).
type Mailer interface {
	SendPasswordResetEmail(ctx context.Context, toEmail, resetToken string) error
}

// Service handles all authentication operations.
type Service struct {
	db        *gorm.DB
	jwtSecret []byte
	mailer    Mailer
}

// NewService creates a new authentication service.
func NewService(db *gorm.DB, jwtSecret []byte, mailer Mailer) *Service {
	return &Service{
		db:        db,
		jwtSecret: jwtSecret,
		mailer:    mailer,
	}
}

// AuthResponse represents an authentication response.
type AuthResponse struct {
	Token     string      `json:"token"`
	User      models.User `json:"user"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// RegisterRequest represents a sign-up request.
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"first_name,omitempty" binding:"max=100"`
	LastName  string `json:"last_name,omitempty" binding:"max=100"`
}

// LoginRequest represents a sign-in request.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register creates a new user with email/password.
func (s *Service) Register(req RegisterRequest) (*AuthResponse, error) {
	if s.db == nil {
		return nil, ErrNotConfigured
	}

	var existing models.User
	err := s.db.Where("LOWER(email) = LOWER(?)", req.Email).First(&existing).Error
	if err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID:           uuid.NewString(),
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: string(hashed),
	}
	if v := strings.TrimSpace(req.FirstName); v != "" {
		user.FirstName = &v
	}
	if v := strings.TrimSpace(req.LastName); v != "" {
		user.LastName = &v
	}

	if err := s.db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.generateAuthResponse(&user)
}

// Login authenticates with email/password.
func (s *Service) Login(req LoginRequest) (*AuthResponse, error) {
	if s.db == nil {
		return nil, ErrNotConfigured
	}

	var user models.User
	err := s.db.Where("LOWER(email) = LOWER(?)", req.Email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	} else if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	user.LastActiveAt = &now
	s.db.Save(&user)

	return s.generateAuthResponse(&user)
}

// generateAuthResponse creates a JWT token and auth response.
func (s *Service) generateAuthResponse(user *models.User) (*AuthResponse, error) {
	expiresAt := time.Now().Add(tokenTTL)

	claims := jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"exp":     expiresAt.Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &AuthResponse{
		Token:     tokenString,
		User:      *user,
		ExpiresAt: expiresAt,
	}, nil
}

// ValidateToken validates a JWT token and returns the user it belongs to.
func (s *Service) ValidateToken(tokenString string) (*models.User, error) {
	if s.db == nil {
		return nil, ErrNotConfigured
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return nil, errors.New("invalid user_id in token")
	}

	var user models.User
	if err := s.db.Where("id = ?", userID).First(&user).Error; err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	return &user, nil
}

// RequestPasswordReset creates a recovery token and mails it to the user.
// Whether the email exists is never revealed to the caller: unknown
// addresses return nil, nil.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (*models.PasswordReset, error) {
	if s.db == nil {
		return nil, ErrNotConfigured
	}

	var user models.User
	err := s.db.Where("LOWER(email) = LOWER(?)", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	token := models.PasswordReset{
		UserID:    user.ID,
		Token:     uuid.NewString() + uuid.NewString() + uuid.NewString(),
		ExpiresAt: time.Now().Add(1 * time.Hour),
		Used:      false,
	}
	if err := s.db.Create(&token).Error; err != nil {
		return nil, fmt.Errorf("failed to create reset token: %w", err)
	}

	if s.mailer != nil {
		if err := s.mailer.SendPasswordResetEmail(ctx, user.Email, token.Token); err != nil {
			// The token stays valid; an operator can hand it over out of band.
			logger.Log.Warn("failed to send password reset email",
				zap.String("email", user.Email),
				zap.Error(err),
			)
		}
	}

	return &token, nil
}

// ResetPassword validates the recovery token and updates the user's password.
func (s *Service) ResetPassword(token, newPassword string) error {
	if s.db == nil {
		return ErrNotConfigured
	}
	if token == "" {
		return ErrInvalidResetToken
	}

	var resetToken models.PasswordReset
	err := s.db.Where("token = ? AND used = ? AND expires_at > ?", token, false, time.Now()).
		First(&resetToken).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("database error: %w", err)
	}

	var user models.User
	if err := s.db.First(&user, "id = ?", resetToken.UserID).Error; err != nil {
		return fmt.Errorf("user not found: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	user.PasswordHash = string(hashed)
	if err := s.db.Save(&user).Error; err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	resetToken.Used = true
	if err := s.db.Save(&resetToken).Error; err != nil {
		// Password is already updated; log and move on.
		logger.Log.Warn("failed to mark reset token as used", zap.Error(err))
	}

	return nil
}
