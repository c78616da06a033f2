package reset

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/elbishomes/internal/apperrors"
	"github.com/nkiryanov/elbishomes/internal/cache"
	"github.com/nkiryanov/elbishomes/internal/logger"
	"github.com/nkiryanov/elbishomes/internal/models"
	"github.com/nkiryanov/elbishomes/internal/notify"
	"github.com/nkiryanov/elbishomes/internal/repository"
	"github.com/nkiryanov/elbishomes/internal/service/auth"
)

const (
	defaultLifetime  = 10 * time.Minute
	defaultRetention = 24 * time.Hour

	// Attempts to allocate a code before giving up
	maxAttempts = 10

	codeDigits = 6
)

type Dispatcher interface {
	Dispatch(msg notify.Message) bool
}

type Config struct {
	// Code lifetime since creation, 10 minutes if not set
	Lifetime time.Duration

	// How long codes are kept in cache, 24 hours if not set
	// Must exceed Lifetime so an expired code is still recognized at use
	Retention time.Duration

	// BcryptHasher if not set
	Hasher auth.PasswordHasher

	// Time source, time.Now if not set
	Now func() time.Time

	// Random 6 digits code if not set
	GenerateCode func() (string, error)
}

// One-time password reset codes
//
// A code is stored under two keys:
//
//	reset:code:<code>    -> {"user_id", "created_at"}, reserves the code across all users
//	reset:user:<user_id> -> <code>, the only usable code of the user
//
// Both keys are retained well past the code lifetime, so an expired code is still recognized at use
type Service struct {
	lifetime     time.Duration
	retention    time.Duration
	hasher       auth.PasswordHasher
	now          func() time.Time
	generateCode func() (string, error)

	userRepo   repository.UserRepo
	cache      cache.Cache
	dispatcher Dispatcher
	logger     logger.Logger
}

func NewService(cfg Config, userRepo repository.UserRepo, c cache.Cache, dispatcher Dispatcher, logger logger.Logger) (*Service, error) {
	if userRepo == nil || c == nil || dispatcher == nil {
		return nil, errors.New("user repo, cache and dispatcher must not be nil")
	}

	if cfg.Lifetime == 0 {
		cfg.Lifetime = defaultLifetime
	}
	if cfg.Retention == 0 {
		cfg.Retention = defaultRetention
	}
	if cfg.Retention <= cfg.Lifetime {
		return nil, fmt.Errorf("retention %s must exceed code lifetime %s", cfg.Retention, cfg.Lifetime)
	}
	if cfg.Hasher == nil {
		cfg.Hasher = auth.BcryptHasher{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.GenerateCode == nil {
		cfg.GenerateCode = GenerateCode
	}

	return &Service{
		lifetime:     cfg.Lifetime,
		retention:    cfg.Retention,
		hasher:       cfg.Hasher,
		now:          cfg.Now,
		generateCode: cfg.GenerateCode,
		userRepo:     userRepo,
		cache:        c,
		dispatcher:   dispatcher,
		logger:       logger,
	}, nil
}

// Issue reset code for the user and send it by email
// Repeated requests reuse the outstanding code until it expires
func (s *Service) RequestReset(ctx context.Context, email string) error {
	user, err := s.userRepo.GetUserByEmail(ctx, auth.NormalizeEmail(email))
	if err != nil {
		return fmt.Errorf("request reset: %w", err)
	}

	token, err := s.getOrCreate(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("request reset: %w", err)
	}

	s.dispatcher.Dispatch(notify.Message{
		Subject: "Password Reset OTP",
		Body: fmt.Sprintf(
			"Hello,\n\nYour one-time password for resetting your ELBIS Homes password is: %s\n\nIt expires in %d minutes. If you did not request a password reset, ignore this email.",
			token.Code, int(s.lifetime.Minutes()),
		),
		To: []string{user.Email},
	})

	return nil
}

// Set new password with the code
// A code works once: it is consumed on success and on expiry
func (s *Service) ConfirmReset(ctx context.Context, code string, newPassword string) error {
	if msg := auth.CheckPassword(newPassword); msg != "" {
		return apperrors.NewValidationError(map[string]string{"password": msg})
	}

	if code == "" {
		return apperrors.ErrInvalidToken
	}

	raw, err := s.cache.Get(ctx, codeKey(code))
	switch {
	case errors.Is(err, apperrors.ErrCacheMiss):
		return apperrors.ErrInvalidToken
	case err != nil:
		return fmt.Errorf("confirm reset: %w", err)
	}

	token, err := decodeToken(code, raw)
	if err != nil {
		return fmt.Errorf("confirm reset: %w", err)
	}

	// Ownership is checked while the code is still reserved:
	// a concurrent request drops the user slot once the code key is gone
	owned, err := s.ownsSlot(ctx, token)
	if err != nil {
		return fmt.Errorf("confirm reset: %w", err)
	}

	// Take is atomic, so of concurrent confirms only one gets the code
	_, err = s.cache.Take(ctx, codeKey(code))
	switch {
	case errors.Is(err, apperrors.ErrCacheMiss):
		return apperrors.ErrInvalidToken
	case err != nil:
		return fmt.Errorf("confirm reset: %w", err)
	}

	if token.ExpiredAt(s.now(), s.lifetime) {
		if owned {
			s.releaseSlot(ctx, token)
		}
		return apperrors.ErrExpired
	}

	// Orphaned code: the user slot was replaced while it was reserved
	if !owned {
		return apperrors.ErrInvalidToken
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("can't use this as password, error=%w", err)
	}

	err = s.userRepo.UpdatePasswordHash(ctx, token.UserID, hash)
	if err != nil {
		return fmt.Errorf("confirm reset: %w", err)
	}

	s.releaseSlot(ctx, token)

	return nil
}

func (s *Service) getOrCreate(ctx context.Context, userID uuid.UUID) (models.ResetToken, error) {
	for range maxAttempts {
		token, found, err := s.outstanding(ctx, userID)
		switch {
		case err != nil:
			return token, err
		case found:
			return token, nil
		}

		token = models.ResetToken{UserID: userID, CreatedAt: s.now()}
		token.Code, err = s.generateCode()
		if err != nil {
			return token, fmt.Errorf("generate code: %w", err)
		}

		data, err := json.Marshal(token)
		if err != nil {
			return token, fmt.Errorf("encode reset token: %w", err)
		}

		// Reserve the code globally first, it may belong to someone else
		reserved, err := s.cache.SetNX(ctx, codeKey(token.Code), string(data), s.retention)
		if err != nil {
			return token, fmt.Errorf("reserve code: %w", err)
		}
		if !reserved {
			s.logger.Debug("Reset code collision, regenerating")
			continue
		}

		assigned, err := s.cache.SetNX(ctx, userKey(userID), token.Code, s.retention)
		if err != nil {
			s.release(ctx, codeKey(token.Code))
			return token, fmt.Errorf("assign code: %w", err)
		}
		if assigned {
			return token, nil
		}

		// Concurrent request won. Drop our reservation and adopt its code on the next round
		s.release(ctx, codeKey(token.Code))
	}

	return models.ResetToken{}, fmt.Errorf("could not allocate reset code in %d attempts", maxAttempts)
}

// Return the user's unexpired code if any. Expired or dangling codes are discarded
func (s *Service) outstanding(ctx context.Context, userID uuid.UUID) (models.ResetToken, bool, error) {
	code, err := s.cache.Get(ctx, userKey(userID))
	switch {
	case errors.Is(err, apperrors.ErrCacheMiss):
		return models.ResetToken{}, false, nil
	case err != nil:
		return models.ResetToken{}, false, fmt.Errorf("get user code: %w", err)
	}

	raw, err := s.cache.Get(ctx, codeKey(code))
	switch {
	case errors.Is(err, apperrors.ErrCacheMiss):
		// Code consumed concurrently
		s.release(ctx, userKey(userID))
		return models.ResetToken{}, false, nil
	case err != nil:
		return models.ResetToken{}, false, fmt.Errorf("get code: %w", err)
	}

	token, err := decodeToken(code, raw)
	if err != nil {
		return token, false, err
	}

	if token.UserID != userID || token.ExpiredAt(s.now(), s.lifetime) {
		s.release(ctx, userKey(userID))
		if token.UserID == userID {
			s.release(ctx, codeKey(code))
		}
		return models.ResetToken{}, false, nil
	}

	return token, true, nil
}

func (s *Service) ownsSlot(ctx context.Context, token models.ResetToken) (bool, error) {
	current, err := s.cache.Get(ctx, userKey(token.UserID))
	switch {
	case errors.Is(err, apperrors.ErrCacheMiss):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("get user code: %w", err)
	default:
		return current == token.Code, nil
	}
}

// Free the user slot unless a newer code has already replaced it
func (s *Service) releaseSlot(ctx context.Context, token models.ResetToken) {
	owned, err := s.ownsSlot(ctx, token)
	if err != nil {
		s.logger.Warn("Failed to check reset slot", "error", err)
		return
	}
	if owned {
		s.release(ctx, userKey(token.UserID))
	}
}

// Best effort delete, keys expire anyway
func (s *Service) release(ctx context.Context, key string) {
	if err := s.cache.Delete(ctx, key); err != nil {
		s.logger.Warn("Failed to delete reset key", "error", err)
	}
}

func decodeToken(code string, raw string) (models.ResetToken, error) {
	var token models.ResetToken
	if err := json.Unmarshal([]byte(raw), &token); err != nil {
		return token, fmt.Errorf("decode reset token: %w", err)
	}
	token.Code = code
	return token, nil
}

func codeKey(code string) string {
	return "reset:code:" + code
}

func userKey(userID uuid.UUID) string {
	return "reset:user:" + userID.String()
}

// Uniformly random zero padded 6 digits code
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}
