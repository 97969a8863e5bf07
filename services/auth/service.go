package auth

import (
	"errors"
	"fmt"
	"net/mail"
	"net/url"

	"github.com/coro-biz/journey-coach/config"
	"github.com/coro-biz/journey-coach/services/logging"
	"github.com/coro-biz/journey-coach/services/tokens"
	"github.com/coro-biz/journey-coach/services/users"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrPasswordHashingFailed = errors.New("failed to hash password")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrNotVerified           = errors.New("email is not verified")
	ErrInvalidEmail          = errors.New("invalid email address")
	ErrWeakPassword          = errors.New("password is too weak")
)

// Mailer is the outbound-mail collaborator. Sends are best effort: failures
// are logged and never fail the auth flow that triggered them.
type Mailer interface {
	SendPasswordReset(to, resetURL, appName string) error
	SendVerification(to, verifyURL, appName string) error
}

type Service struct {
	config *config.Config
	users  *users.Service
	tokens *tokens.Service
	mailer Mailer
	logger *logging.Service
}

func NewService(cfg *config.Config, usersSvc *users.Service, tokensSvc *tokens.Service, mailer Mailer, logger *logging.Service) *Service {
	if cfg.Auth.BcryptCost < bcrypt.MinCost || cfg.Auth.BcryptCost > bcrypt.MaxCost {
		cfg.Auth.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		config: cfg,
		users:  usersSvc,
		tokens: tokensSvc,
		mailer: mailer,
		logger: logger,
	}
}

// Signup registers an email/password pair and dispatches a verification
// link. A verified account keeps its credential; signing up again with its
// address fails. An unverified account (including rows created lazily by the
// reset flow) has its credential replaced and a fresh link sent.
func (s *Service) Signup(email, password string) error {
	if err := validateEmail(email); err != nil {
		return err
	}
	if err := s.ValidatePassword(password); err != nil {
		return err
	}

	hash, err := s.HashPassword(password)
	if err != nil {
		return err
	}

	user, err := s.users.Create(email, hash)
	if errors.Is(err, users.ErrEmailTaken) {
		user, err = s.users.FindByEmail(email)
		if err != nil {
			return err
		}
		if user.IsVerified {
			return users.ErrEmailTaken
		}
		if err := s.users.SetPassword(user.ID, hash); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	s.sendVerificationLink(user)
	return nil
}

// Login authenticates a verified account. A missing user, a credential-less
// row and a wrong password all return ErrInvalidCredentials, and the bcrypt
// comparison runs in every case so timing does not reveal which it was.
func (s *Service) Login(email, password string) (*users.User, error) {
	user, err := s.users.FindByEmail(email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			compareDummy(password)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.HasCredential() {
		compareDummy(password)
		return nil, ErrInvalidCredentials
	}

	if !s.VerifyPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	if !user.IsVerified {
		return nil, ErrNotVerified
	}

	return user, nil
}

// RequestPasswordReset starts the reset flow. It never reports whether the
// address is known; callers always answer with the same generic ack.
func (s *Service) RequestPasswordReset(email string) error {
	if err := validateEmail(email); err != nil {
		return err
	}

	user, err := s.users.GetOrCreate(email)
	if err != nil {
		return err
	}

	secret, _, err := s.tokens.Issue(user.ID, tokens.PurposeReset, s.tokens.ResetTTL())
	if err != nil {
		return err
	}

	if s.mailer != nil {
		if err := s.mailer.SendPasswordReset(user.Email, s.link("/reset", secret), s.config.App.Name); err != nil {
			s.logger.Error("failed to send password reset email", zap.Error(err), zap.Uint("user_id", user.ID))
		}
	}
	return nil
}

// CompletePasswordReset consumes a reset token and stores the new
// credential. Verification and phase state are untouched.
func (s *Service) CompletePasswordReset(secret, password string) error {
	if err := s.ValidatePassword(password); err != nil {
		return err
	}

	// hash first so a hashing failure cannot burn the token
	hash, err := s.HashPassword(password)
	if err != nil {
		return err
	}

	token, err := s.tokens.ValidateAndConsume(secret, tokens.PurposeReset)
	if err != nil {
		return err
	}

	if err := s.users.SetPassword(token.UserID, hash); err != nil {
		return err
	}

	s.logger.Info("password reset completed", zap.Uint("user_id", token.UserID))
	return nil
}

// VerifyEmail consumes a verification token and activates the account.
// Revisiting an already-consumed link fails with ErrTokenInvalid.
func (s *Service) VerifyEmail(secret string) error {
	token, err := s.tokens.ValidateAndConsume(secret, tokens.PurposeVerify)
	if err != nil {
		return err
	}

	if err := s.users.MarkVerified(token.UserID); err != nil {
		return err
	}

	s.logger.Info("email verified", zap.Uint("user_id", token.UserID))
	return nil
}

// AdminSetPassword is the bootstrap escape hatch behind the setup token.
func (s *Service) AdminSetPassword(email, newPassword string) error {
	if err := s.ValidatePassword(newPassword); err != nil {
		return err
	}

	user, err := s.users.FindByEmail(email)
	if err != nil {
		return err
	}

	hash, err := s.HashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := s.users.SetPassword(user.ID, hash); err != nil {
		return err
	}

	s.logger.Info("password set by admin", zap.Uint("user_id", user.ID))
	return nil
}

func (s *Service) sendVerificationLink(user *users.User) {
	secret, _, err := s.tokens.Issue(user.ID, tokens.PurposeVerify, s.tokens.VerifyTTL())
	if err != nil {
		s.logger.Error("failed to issue verification token", zap.Error(err), zap.Uint("user_id", user.ID))
		return
	}

	if s.mailer == nil {
		return
	}
	if err := s.mailer.SendVerification(user.Email, s.link("/verify", secret), s.config.App.Name); err != nil {
		s.logger.Error("failed to send verification email", zap.Error(err), zap.Uint("user_id", user.ID))
	}
}

func (s *Service) link(path, secret string) string {
	return fmt.Sprintf("%s%s?token=%s", s.config.App.URL, path, url.QueryEscape(secret))
}

func validateEmail(email string) error {
	normalized := users.NormalizeEmail(email)
	addr, err := mail.ParseAddress(normalized)
	if err != nil || addr.Address != normalized {
		return ErrInvalidEmail
	}
	return nil
}
