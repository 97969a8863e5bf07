package auth

import (
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/coro-biz/journey-coach/services/logging"
	"github.com/coro-biz/journey-coach/services/tokens"
	"github.com/coro-biz/journey-coach/services/users"
	"github.com/coro-biz/journey-coach/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMailer records outbound links so tests can follow them.
type fakeMailer struct {
	mu         sync.Mutex
	resetURLs  []string
	verifyURLs []string
	failWith   error
}

func (m *fakeMailer) SendPasswordReset(to, resetURL, appName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.resetURLs = append(m.resetURLs, resetURL)
	return nil
}

func (m *fakeMailer) SendVerification(to, verifyURL, appName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.verifyURLs = append(m.verifyURLs, verifyURL)
	return nil
}

// secretFrom pulls the token secret back out of a mailed link.
func secretFrom(t *testing.T, link string) string {
	t.Helper()
	parsed, err := url.Parse(link)
	require.NoError(t, err)
	secret := parsed.Query().Get("token")
	require.NotEmpty(t, secret)
	return secret
}

func setupAuth(t *testing.T) (*Service, *users.Service, *fakeMailer) {
	t.Helper()
	cfg := testutils.GetTestConfig()
	db := testutils.SetupTestDB(t, &users.User{}, &tokens.EmailToken{})
	logger := logging.NewNop()

	usersSvc := users.NewService(db, logger)
	tokensSvc := tokens.NewService(cfg, db, logger)
	mailer := &fakeMailer{}
	return NewService(cfg, usersSvc, tokensSvc, mailer, logger), usersSvc, mailer
}

func TestHashPassword(t *testing.T) {
	service, _, _ := setupAuth(t)

	hash, err := service.HashPassword(testutils.TestPasswords.Valid)
	require.NoError(t, err)
	assert.NotEqual(t, testutils.TestPasswords.Valid, hash)
	assert.True(t, strings.HasPrefix(hash, "$2"))

	t.Run("same password hashes differently", func(t *testing.T) {
		other, err := service.HashPassword(testutils.TestPasswords.Valid)
		require.NoError(t, err)
		assert.NotEqual(t, hash, other)
	})
}

func TestVerifyPassword(t *testing.T) {
	service, _, _ := setupAuth(t)

	hash, err := service.HashPassword(testutils.TestPasswords.Valid)
	require.NoError(t, err)

	assert.True(t, service.VerifyPassword(hash, testutils.TestPasswords.Valid))
	assert.False(t, service.VerifyPassword(hash, testutils.TestPasswords.Another))

	t.Run("malformed hash verifies false without panicking", func(t *testing.T) {
		assert.False(t, service.VerifyPassword("not-a-bcrypt-hash", testutils.TestPasswords.Valid))
		assert.False(t, service.VerifyPassword("", testutils.TestPasswords.Valid))
	})
}

func TestValidatePassword(t *testing.T) {
	service, _, _ := setupAuth(t)

	assert.NoError(t, service.ValidatePassword(testutils.TestPasswords.Valid))
	assert.ErrorIs(t, service.ValidatePassword(testutils.TestPasswords.TooShort), ErrWeakPassword)
	assert.ErrorIs(t, service.ValidatePassword(""), ErrWeakPassword)

	t.Run("over bcrypt's input limit", func(t *testing.T) {
		assert.NoError(t, service.ValidatePassword(strings.Repeat("a", 72)))
		assert.ErrorIs(t, service.ValidatePassword(strings.Repeat("a", 73)), ErrWeakPassword)
	})
}

func TestService_Signup(t *testing.T) {
	service, usersSvc, mailer := setupAuth(t)

	require.NoError(t, service.Signup("alice@example.com", testutils.TestPasswords.Valid))
	require.Len(t, mailer.verifyURLs, 1)

	user, err := usersSvc.FindByEmail("alice@example.com")
	require.NoError(t, err)
	assert.False(t, user.IsVerified)
	assert.True(t, user.HasCredential())

	t.Run("rejects a bad email", func(t *testing.T) {
		assert.ErrorIs(t, service.Signup("not-an-email", testutils.TestPasswords.Valid), ErrInvalidEmail)
	})

	t.Run("rejects a weak password", func(t *testing.T) {
		assert.ErrorIs(t, service.Signup("bob@example.com", testutils.TestPasswords.TooShort), ErrWeakPassword)
	})

	t.Run("rejects an over-long password", func(t *testing.T) {
		assert.ErrorIs(t, service.Signup("bob@example.com", strings.Repeat("a", 100)), ErrWeakPassword)
	})

	t.Run("unverified re-signup replaces the credential", func(t *testing.T) {
		require.NoError(t, service.Signup("alice@example.com", testutils.TestPasswords.Another))
		assert.Len(t, mailer.verifyURLs, 2)

		updated, err := usersSvc.FindByEmail("alice@example.com")
		require.NoError(t, err)
		assert.True(t, service.VerifyPassword(updated.PasswordHash, testutils.TestPasswords.Another))
		assert.False(t, service.VerifyPassword(updated.PasswordHash, testutils.TestPasswords.Valid))
	})

	t.Run("verified account cannot be signed up again", func(t *testing.T) {
		require.NoError(t, usersSvc.MarkVerified(user.ID))
		err := service.Signup("alice@example.com", testutils.TestPasswords.Valid)
		assert.ErrorIs(t, err, users.ErrEmailTaken)
	})
}

func TestService_Signup_ConcurrentSameEmail(t *testing.T) {
	cfg := testutils.GetTestConfig()
	db := testutils.SetupTestDB(t, &users.User{}, &tokens.EmailToken{})
	logger := logging.NewNop()
	usersSvc := users.NewService(db, logger)
	service := NewService(cfg, usersSvc, tokens.NewService(cfg, db, logger), &fakeMailer{}, logger)

	const attempts = 8
	results := make(chan error, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- service.Signup("race@example.com", testutils.TestPasswords.Valid)
		}()
	}
	wg.Wait()
	close(results)

	// losers of the insert race fall back to the unverified re-signup path,
	// so every attempt succeeds against the single surviving row
	for err := range results {
		assert.NoError(t, err)
	}

	var count int64
	require.NoError(t, db.Model(&users.User{}).Where("email = ?", "race@example.com").Count(&count).Error)
	assert.Equal(t, int64(1), count)

	user, err := usersSvc.FindByEmail("race@example.com")
	require.NoError(t, err)
	assert.True(t, user.HasCredential())
}

func TestService_Signup_MailFailureDoesNotFailSignup(t *testing.T) {
	service, usersSvc, mailer := setupAuth(t)
	mailer.failWith = errors.New("smtp down")

	require.NoError(t, service.Signup("alice@example.com", testutils.TestPasswords.Valid))

	_, err := usersSvc.FindByEmail("alice@example.com")
	assert.NoError(t, err)
}

func TestService_Login(t *testing.T) {
	service, _, mailer := setupAuth(t)

	require.NoError(t, service.Signup("alice@example.com", testutils.TestPasswords.Valid))

	t.Run("unverified account cannot log in", func(t *testing.T) {
		_, err := service.Login("alice@example.com", testutils.TestPasswords.Valid)
		assert.ErrorIs(t, err, ErrNotVerified)
	})

	require.NoError(t, service.VerifyEmail(secretFrom(t, mailer.verifyURLs[0])))

	t.Run("verified account logs in", func(t *testing.T) {
		user, err := service.Login("alice@example.com", testutils.TestPasswords.Valid)
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", user.Email)
		assert.True(t, user.IsVerified)
	})

	t.Run("email lookup is case insensitive", func(t *testing.T) {
		_, err := service.Login("ALICE@Example.COM", testutils.TestPasswords.Valid)
		assert.NoError(t, err)
	})

	t.Run("wrong password and unknown user fail identically", func(t *testing.T) {
		_, wrongPw := service.Login("alice@example.com", testutils.TestPasswords.Another)
		_, noUser := service.Login("nobody@example.com", testutils.TestPasswords.Valid)
		assert.ErrorIs(t, wrongPw, ErrInvalidCredentials)
		assert.ErrorIs(t, noUser, ErrInvalidCredentials)
	})
}

func TestService_Login_CredentialLessRow(t *testing.T) {
	service, usersSvc, _ := setupAuth(t)

	// Rows created lazily by the reset flow carry no password hash.
	_, err := usersSvc.GetOrCreate("lazy@example.com")
	require.NoError(t, err)

	_, err = service.Login("lazy@example.com", testutils.TestPasswords.Valid)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestService_PasswordResetFlow(t *testing.T) {
	service, _, mailer := setupAuth(t)

	require.NoError(t, service.Signup("alice@example.com", testutils.TestPasswords.Valid))
	require.NoError(t, service.VerifyEmail(secretFrom(t, mailer.verifyURLs[0])))

	require.NoError(t, service.RequestPasswordReset("alice@example.com"))
	require.Len(t, mailer.resetURLs, 1)
	secret := secretFrom(t, mailer.resetURLs[0])

	t.Run("weak replacement password is rejected before the token burns", func(t *testing.T) {
		err := service.CompletePasswordReset(secret, testutils.TestPasswords.TooShort)
		assert.ErrorIs(t, err, ErrWeakPassword)
	})

	t.Run("over-long replacement password is rejected before the token burns", func(t *testing.T) {
		err := service.CompletePasswordReset(secret, strings.Repeat("a", 100))
		assert.ErrorIs(t, err, ErrWeakPassword)
	})

	require.NoError(t, service.CompletePasswordReset(secret, testutils.TestPasswords.Another))

	t.Run("new password works and the old no longer does", func(t *testing.T) {
		_, err := service.Login("alice@example.com", testutils.TestPasswords.Another)
		assert.NoError(t, err)
		_, err = service.Login("alice@example.com", testutils.TestPasswords.Valid)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("a consumed token cannot be replayed", func(t *testing.T) {
		err := service.CompletePasswordReset(secret, testutils.TestPasswords.Valid)
		assert.ErrorIs(t, err, tokens.ErrTokenInvalid)
	})
}

func TestService_RequestPasswordReset_UnknownEmail(t *testing.T) {
	service, usersSvc, mailer := setupAuth(t)

	// The flow creates the row lazily and still mails a link, so the caller
	// cannot distinguish known from unknown addresses.
	require.NoError(t, service.RequestPasswordReset("stranger@example.com"))
	assert.Len(t, mailer.resetURLs, 1)

	user, err := usersSvc.FindByEmail("stranger@example.com")
	require.NoError(t, err)
	assert.False(t, user.HasCredential())

	t.Run("invalid address is still rejected", func(t *testing.T) {
		assert.ErrorIs(t, service.RequestPasswordReset("not an email"), ErrInvalidEmail)
	})
}

func TestService_ResetDoesNotVerify(t *testing.T) {
	service, usersSvc, mailer := setupAuth(t)

	require.NoError(t, service.RequestPasswordReset("lazy@example.com"))
	secret := secretFrom(t, mailer.resetURLs[0])
	require.NoError(t, service.CompletePasswordReset(secret, testutils.TestPasswords.Valid))

	user, err := usersSvc.FindByEmail("lazy@example.com")
	require.NoError(t, err)
	assert.True(t, user.HasCredential())
	assert.False(t, user.IsVerified)

	_, err = service.Login("lazy@example.com", testutils.TestPasswords.Valid)
	assert.ErrorIs(t, err, ErrNotVerified)
}

func TestService_VerifyEmail(t *testing.T) {
	service, usersSvc, mailer := setupAuth(t)

	require.NoError(t, service.Signup("alice@example.com", testutils.TestPasswords.Valid))
	secret := secretFrom(t, mailer.verifyURLs[0])

	require.NoError(t, service.VerifyEmail(secret))

	user, err := usersSvc.FindByEmail("alice@example.com")
	require.NoError(t, err)
	assert.True(t, user.IsVerified)

	t.Run("link cannot be reused", func(t *testing.T) {
		assert.ErrorIs(t, service.VerifyEmail(secret), tokens.ErrTokenInvalid)
	})

	t.Run("garbage secret is invalid", func(t *testing.T) {
		assert.ErrorIs(t, service.VerifyEmail("garbage"), tokens.ErrTokenInvalid)
	})
}

func TestService_AdminSetPassword(t *testing.T) {
	service, _, mailer := setupAuth(t)

	require.NoError(t, service.Signup("alice@example.com", testutils.TestPasswords.Valid))
	require.NoError(t, service.VerifyEmail(secretFrom(t, mailer.verifyURLs[0])))

	require.NoError(t, service.AdminSetPassword("alice@example.com", testutils.TestPasswords.Another))

	_, err := service.Login("alice@example.com", testutils.TestPasswords.Another)
	assert.NoError(t, err)

	t.Run("unknown user surfaces not found", func(t *testing.T) {
		err := service.AdminSetPassword("nobody@example.com", testutils.TestPasswords.Valid)
		assert.ErrorIs(t, err, users.ErrNotFound)
	})
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, validateEmail("alice@example.com"))
	assert.NoError(t, validateEmail("  ALICE@example.com "))
	assert.ErrorIs(t, validateEmail("plainaddress"), ErrInvalidEmail)
	assert.ErrorIs(t, validateEmail("Alice <alice@example.com>"), ErrInvalidEmail)
	assert.ErrorIs(t, validateEmail(""), ErrInvalidEmail)
}
