package tokens

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/coro-biz/journey-coach/config"
	"github.com/coro-biz/journey-coach/services/logging"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrTokenInvalid is the single externally visible failure: missing, wrong
// purpose, expired and already-used tokens all collapse into it.
var ErrTokenInvalid = errors.New("invalid or expired token")

const minSecretBytes = 24

type Service struct {
	config *config.Config
	db     *gorm.DB
	logger *logging.Service
}

func NewService(cfg *config.Config, db *gorm.DB, logger *logging.Service) *Service {
	if cfg.Auth.TokenLength < minSecretBytes {
		cfg.Auth.TokenLength = minSecretBytes
	}
	return &Service{config: cfg, db: db, logger: logger}
}

// Issue creates a token row for the user and returns the raw URL-safe secret.
// The secret is never persisted and cannot be recovered later.
func (s *Service) Issue(userID uint, purpose Purpose, ttl time.Duration) (string, *EmailToken, error) {
	if !purpose.Valid() {
		return "", nil, fmt.Errorf("unknown token purpose: %q", purpose)
	}

	secret, err := s.generateSecret()
	if err != nil {
		return "", nil, err
	}

	token := &EmailToken{
		UserID:    userID,
		TokenHash: Digest(secret),
		Purpose:   purpose,
		ExpiresAt: time.Now().Add(ttl),
		Used:      false,
	}

	if err := s.db.Create(token).Error; err != nil {
		return "", nil, fmt.Errorf("failed to create %s token: %w", purpose, err)
	}

	s.logger.Info("email token issued",
		zap.Uint("user_id", userID),
		zap.String("purpose", string(purpose)),
		zap.Time("expires_at", token.ExpiresAt))
	return secret, token, nil
}

// Validate digests the presented secret and returns the matching live token.
// Every miss returns ErrTokenInvalid; callers never learn why.
func (s *Service) Validate(secret string, purpose Purpose) (*EmailToken, error) {
	var token EmailToken
	err := s.db.Where("token_hash = ? AND purpose = ?", Digest(secret), purpose).First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, fmt.Errorf("failed to validate token: %w", err)
	}

	if token.Used || !time.Now().Before(token.ExpiresAt) {
		return nil, ErrTokenInvalid
	}

	return &token, nil
}

// Consume marks the matching valid token used. The conditional update on
// used=false is atomic: under concurrent consumption of the same secret at
// most one caller sees the token as fresh. Consuming a missing or already
// used token is a no-op.
func (s *Service) Consume(secret string, purpose Purpose) error {
	now := time.Now()
	result := s.db.Model(&EmailToken{}).
		Where("token_hash = ? AND purpose = ? AND used = ? AND expires_at > ?",
			Digest(secret), purpose, false, now).
		Updates(map[string]any{"used": true, "used_at": now})
	if result.Error != nil {
		return fmt.Errorf("failed to consume token: %w", result.Error)
	}
	return nil
}

// ValidateAndConsume atomically claims a live token and returns it. Exactly
// one of two racing callers succeeds; the loser gets ErrTokenInvalid.
func (s *Service) ValidateAndConsume(secret string, purpose Purpose) (*EmailToken, error) {
	token, err := s.Validate(secret, purpose)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	result := s.db.Model(&EmailToken{}).
		Where("id = ? AND used = ?", token.ID, false).
		Updates(map[string]any{"used": true, "used_at": now})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to consume token: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// another request consumed it between our read and write
		return nil, ErrTokenInvalid
	}

	token.Used = true
	token.UsedAt = &now
	return token, nil
}

// Cleanup deletes every expired token regardless of its used flag and
// returns the number removed. Safe to run repeatedly and concurrently.
func (s *Service) Cleanup() (int64, error) {
	result := s.db.Where("expires_at < ?", time.Now()).Delete(&EmailToken{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to cleanup expired tokens: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		s.logger.Info("expired email tokens cleaned up", zap.Int64("tokens_removed", result.RowsAffected))
	}
	return result.RowsAffected, nil
}

func (s *Service) ResetTTL() time.Duration {
	return s.config.Auth.ResetTokenTTL
}

func (s *Service) VerifyTTL() time.Duration {
	return s.config.Auth.VerifyTokenTTL
}

func (s *Service) generateSecret() (string, error) {
	buf := make([]byte, s.config.Auth.TokenLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate secure token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Digest computes the storage/lookup key for a raw secret.
func Digest(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
