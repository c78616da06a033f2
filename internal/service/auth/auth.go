package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/nkiryanov/elbishomes/internal/apperrors"
	"github.com/nkiryanov/elbishomes/internal/cache"
	"github.com/nkiryanov/elbishomes/internal/models"
	"github.com/nkiryanov/elbishomes/internal/repository"
	"github.com/nkiryanov/elbishomes/internal/service/auth/tokenmanager"
	"github.com/nkiryanov/elbishomes/internal/service/validate"
)

const (
	MinPasswordLength = 6

	revokedMarker = "blacklisted"
)

// Interface to create or compare user password hashes
type PasswordHasher interface {
	// Generate Hash from password
	Hash(password string) (string, error)

	// Compare known hashedPassword and user provided password
	// Must be protected against timing attacks
	Compare(hashedPassword string, password string) error
}

type TokenManager interface {
	Issue(userID uuid.UUID) (models.IssuedToken, error)
	Parse(token string) (tokenmanager.Claims, error)
}

type Config struct {
	// Hasher to use during user registration or login process
	// BcryptHasher if not set
	Hasher PasswordHasher

	// Time source, time.Now if not set
	Now func() time.Time
}

// Auth service
type AuthService struct {
	// Manager to issue and parse access tokens
	tokenManager TokenManager

	// hasher to hash or compare user passwords
	hasher PasswordHasher

	// Repository to access long term data
	userRepo repository.UserRepo

	// Revoked tokens
	cache cache.Cache

	now func() time.Time

	// Compared against when user is not found, so both failure paths cost the same
	dummyHash     string
	dummyHashOnce sync.Once
}

func NewService(cfg Config, tokenManager TokenManager, userRepo repository.UserRepo, c cache.Cache) (*AuthService, error) {
	if tokenManager == nil || userRepo == nil || c == nil {
		return nil, errors.New("token manager, user repo and cache must not be nil")
	}

	// Set default bcrypt hasher if not provided by user
	hasher := cfg.Hasher
	if hasher == nil {
		hasher = BcryptHasher{}
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &AuthService{
		tokenManager: tokenManager,
		hasher:       hasher,
		userRepo:     userRepo,
		cache:        c,
		now:          now,
	}, nil
}

// Register new user. Only the password hash is stored
func (s *AuthService) SignUp(ctx context.Context, email string, password string, profile models.Profile) (models.User, error) {
	email = NormalizeEmail(email)

	fields := make(map[string]string)
	if !validate.Email(email) {
		fields["email"] = "Enter a valid email address"
	}
	if msg := CheckPassword(password); msg != "" {
		fields["password"] = msg
	}
	if len(fields) > 0 {
		return models.User{}, apperrors.NewValidationError(fields)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return models.User{}, fmt.Errorf("can't use this as password, error=%w", err)
	}

	user, err := s.userRepo.CreateUser(ctx, repository.CreateUserParams{
		Email:          email,
		HashedPassword: hash,
		Profile:        profile,
	})
	if err != nil {
		return models.User{}, fmt.Errorf("sign up: %w", err)
	}

	return user, nil
}

// Log in with email and password
// Unknown email and wrong password are reported the same way
func (s *AuthService) LogIn(ctx context.Context, email string, password string) (models.IssuedToken, error) {
	user, err := s.userRepo.GetUserByEmail(ctx, NormalizeEmail(email))
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		_ = s.hasher.Compare(s.getDummyHash(), password)
		return models.IssuedToken{}, apperrors.ErrInvalidCredentials
	case err != nil:
		return models.IssuedToken{}, fmt.Errorf("log in: %w", err)
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		return models.IssuedToken{}, apperrors.ErrInvalidCredentials
	}

	token, err := s.tokenManager.Issue(user.ID)
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("token could not generated, sorry. %w", err)
	}

	return token, nil
}

// Resolve bearer token into the live user
// Invalid, expired or revoked token and deleted user are all ErrUnauthenticated
func (s *AuthService) Verify(ctx context.Context, token string) (models.User, error) {
	claims, err := s.tokenManager.Parse(token)
	if err != nil {
		return models.User{}, fmt.Errorf("%w: %v", apperrors.ErrUnauthenticated, err)
	}

	_, err = s.cache.Get(ctx, RevocationKey(token))
	switch {
	case err == nil:
		return models.User{}, fmt.Errorf("%w: token has been blacklisted", apperrors.ErrUnauthenticated)
	case !errors.Is(err, apperrors.ErrCacheMiss):
		return models.User{}, fmt.Errorf("check token revocation: %w", err)
	}

	user, err := s.userRepo.GetUserByID(ctx, claims.UserID)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		return models.User{}, fmt.Errorf("%w: user no longer exists", apperrors.ErrUnauthenticated)
	case err != nil:
		return models.User{}, fmt.Errorf("verify: %w", err)
	}

	return user, nil
}

// Revoke token until it expires naturally
// Already expired token needs no revocation
func (s *AuthService) LogOut(ctx context.Context, token string) error {
	if token == "" {
		return apperrors.ErrInvalidToken
	}

	claims, err := s.tokenManager.Parse(token)
	switch {
	case errors.Is(err, tokenmanager.ErrExpired):
		return nil
	case err != nil:
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidToken, err)
	}

	remaining := claims.ExpiresAt.Sub(s.now())
	if remaining <= 0 {
		return nil
	}

	err = s.cache.Set(ctx, RevocationKey(token), revokedMarker, remaining)
	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}

	return nil
}

func (s *AuthService) getDummyHash() string {
	s.dummyHashOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash(uuid.NewString())
	})
	return s.dummyHash
}

// Cache key of revoked token. Raw token never stored
func RevocationKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "blacklist:" + hex.EncodeToString(sum[:])
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Field message for unusable password, empty if the password is fine
func CheckPassword(password string) string {
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return fmt.Sprintf("Ensure this field has at least %d characters", MinPasswordLength)
	}
	return ""
}
