package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"mercado/internal/models"
	"mercado/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

// AuthConfig carries the signing secret and the account lockout policy.
// Zero values fall back to the defaults applied by NewAuthService.
type AuthConfig struct {
	JWTSecret       string
	TokenTTL        time.Duration
	MaxAttempts     int
	LockoutDuration time.Duration
	Now             func() time.Time
}

// AuthService handles registration, login and token validation.
type AuthService struct {
	userRepo repositories.UserRepository
	cfg      AuthConfig
}

// NewAuthService creates a new instance of AuthService.
func NewAuthService(userRepo repositories.UserRepository, cfg AuthConfig) *AuthService {
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = 30 * time.Minute
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = 6
	}
	if cfg.LockoutDuration == 0 {
		cfg.LockoutDuration = 30 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &AuthService{
		userRepo: userRepo,
		cfg:      cfg,
	}
}

// Register creates a new user account. The username, email and national id
// must all be unused; the password is stored as a bcrypt hash.
func (s *AuthService) Register(user *models.User) error {
	conflicts, err := s.userRepo.FindConflicts(user.Username, user.Email, user.NationalID)
	if err != nil {
		return fmt.Errorf("failed to check existing users: %w", err)
	}
	if len(conflicts) > 0 {
		return ErrDuplicateUser
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = string(hashed)

	if err := s.userRepo.Create(user); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// Login authenticates a user by username or email and returns a signed JWT.
//
// Accounts lock after MaxAttempts consecutive failures and stay locked for
// LockoutDuration. While locked the password is never checked, so a correct
// password is rejected with the same generic error as a wrong one. Expired
// locks are cleared on the next attempt, before the password check.
func (s *AuthService) Login(usernameOrEmail, password string) (string, *models.User, error) {
	user, err := s.userRepo.GetByLogin(usernameOrEmail)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("failed to look up user: %w", err)
	}

	now := s.cfg.Now()

	if user.LockedUntil != nil {
		if now.Before(*user.LockedUntil) {
			return "", nil, ErrInvalidCredentials
		}
		// Lock expired. Reset the counter before checking credentials so a
		// failure on this attempt counts as the first of a fresh window.
		if err := s.userRepo.SetLoginState(user.ID, 0, nil); err != nil {
			return "", nil, fmt.Errorf("failed to reset login state: %w", err)
		}
		user.FailedLogins = 0
		user.LockedUntil = nil
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		if !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			// Hash comparison failed for an operational reason, not a wrong
			// password. The caller still sees the generic failure, but the
			// attempt does not count against the user.
			log.Printf("password verification failed for user %s: %v", user.ID, err)
			return "", nil, ErrInvalidCredentials
		}

		attempts := user.FailedLogins + 1
		var lockedUntil *time.Time
		if attempts >= s.cfg.MaxAttempts {
			expiry := now.Add(s.cfg.LockoutDuration)
			lockedUntil = &expiry
			log.Printf("account %s locked until %s after %d failed logins", user.ID, expiry.Format(time.RFC3339), attempts)
		}
		if err := s.userRepo.SetLoginState(user.ID, attempts, lockedUntil); err != nil {
			return "", nil, fmt.Errorf("failed to record failed login: %w", err)
		}
		return "", nil, ErrInvalidCredentials
	}

	if user.FailedLogins > 0 || user.LockedUntil != nil {
		if err := s.userRepo.SetLoginState(user.ID, 0, nil); err != nil {
			return "", nil, fmt.Errorf("failed to reset login state: %w", err)
		}
	}

	token, err := s.generateToken(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// ValidateToken parses and verifies a signed JWT, returning its claims.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

func (s *AuthService) generateToken(user *models.User) (string, error) {
	now := s.cfg.Now()
	claims := jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"email":    user.Email,
		"iat":      now.Unix(),
		"exp":      now.Add(s.cfg.TokenTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
