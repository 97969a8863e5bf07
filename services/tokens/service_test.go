package tokens

import (
	"encoding/base64"
	"sync"
	"testing"
	"time"

	"github.com/coro-biz/journey-coach/services/logging"
	"github.com/coro-biz/journey-coach/services/users"
	"github.com/coro-biz/journey-coach/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupService(t *testing.T) (*Service, *gorm.DB, *users.User) {
	t.Helper()

	db := testutils.SetupTestDB(t, &users.User{}, &EmailToken{})
	cfg := testutils.GetTestConfig()
	service := NewService(cfg, db, logging.NewNop())

	user := &users.User{Email: "test@example.com", Phase: users.DefaultPhase}
	require.NoError(t, db.Create(user).Error)

	return service, db, user
}

func TestService_Issue(t *testing.T) {
	service, db, user := setupService(t)

	secret, token, err := service.Issue(user.ID, PurposeVerify, time.Hour)
	require.NoError(t, err)

	t.Run("secret has sufficient entropy and is URL safe", func(t *testing.T) {
		raw, err := base64.RawURLEncoding.DecodeString(secret)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(raw), 24)
	})

	t.Run("only the digest is persisted", func(t *testing.T) {
		assert.Equal(t, Digest(secret), token.TokenHash)
		assert.NotContains(t, token.TokenHash, secret)

		var stored EmailToken
		require.NoError(t, db.First(&stored, token.ID).Error)
		assert.Equal(t, Digest(secret), stored.TokenHash)
	})

	t.Run("row starts unused with the requested TTL", func(t *testing.T) {
		assert.False(t, token.Used)
		assert.Nil(t, token.UsedAt)
		assert.True(t, token.ExpiresAt.After(time.Now()))
		assert.True(t, token.ExpiresAt.Before(time.Now().Add(time.Hour+time.Minute)))
	})

	t.Run("rejects unknown purpose", func(t *testing.T) {
		_, _, err := service.Issue(user.ID, Purpose("bogus"), time.Hour)
		require.Error(t, err)
	})
}

func TestService_Issue_SecretsNeverRepeat(t *testing.T) {
	service, _, user := setupService(t)

	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		secret, _, err := service.Issue(user.ID, PurposeReset, time.Hour)
		require.NoError(t, err)
		assert.False(t, seen[secret])
		seen[secret] = true
	}
}

func TestService_Validate(t *testing.T) {
	service, db, user := setupService(t)

	secret, _, err := service.Issue(user.ID, PurposeReset, time.Hour)
	require.NoError(t, err)

	t.Run("valid token returns its user", func(t *testing.T) {
		token, err := service.Validate(secret, PurposeReset)
		require.NoError(t, err)
		assert.Equal(t, user.ID, token.UserID)
	})

	t.Run("wrong purpose collapses to invalid", func(t *testing.T) {
		_, err := service.Validate(secret, PurposeVerify)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("unknown secret collapses to invalid", func(t *testing.T) {
		_, err := service.Validate("no-such-secret", PurposeReset)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("expired token collapses to invalid", func(t *testing.T) {
		expiredSecret, token, err := service.Issue(user.ID, PurposeReset, time.Hour)
		require.NoError(t, err)
		require.NoError(t, db.Model(&EmailToken{}).Where("id = ?", token.ID).
			Update("expires_at", time.Now().Add(-time.Second)).Error)

		_, err = service.Validate(expiredSecret, PurposeReset)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})
}

func TestService_Consume(t *testing.T) {
	service, _, user := setupService(t)

	secret, _, err := service.Issue(user.ID, PurposeVerify, time.Hour)
	require.NoError(t, err)

	t.Run("consume marks the token used", func(t *testing.T) {
		require.NoError(t, service.Consume(secret, PurposeVerify))

		_, err := service.Validate(secret, PurposeVerify)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("consuming again is a no-op", func(t *testing.T) {
		assert.NoError(t, service.Consume(secret, PurposeVerify))
	})

	t.Run("consuming a nonexistent token is a no-op", func(t *testing.T) {
		assert.NoError(t, service.Consume("no-such-secret", PurposeVerify))
	})
}

func TestService_ValidateAndConsume_SingleWinner(t *testing.T) {
	service, _, user := setupService(t)

	secret, _, err := service.Issue(user.ID, PurposeReset, time.Hour)
	require.NoError(t, err)

	const racers = 8
	var wg sync.WaitGroup
	results := make(chan error, racers)

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.ValidateAndConsume(secret, PurposeReset)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes int
	for err := range results {
		if err == nil {
			successes++
		} else {
			assert.ErrorIs(t, err, ErrTokenInvalid)
		}
	}
	assert.Equal(t, 1, successes)
}

func TestService_Cleanup(t *testing.T) {
	service, db, user := setupService(t)

	_, live, err := service.Issue(user.ID, PurposeReset, time.Hour)
	require.NoError(t, err)

	_, expired, err := service.Issue(user.ID, PurposeReset, time.Hour)
	require.NoError(t, err)
	require.NoError(t, db.Model(&EmailToken{}).Where("id = ?", expired.ID).
		Update("expires_at", time.Now().Add(-time.Minute)).Error)

	usedSecret, used, err := service.Issue(user.ID, PurposeVerify, time.Hour)
	require.NoError(t, err)
	require.NoError(t, service.Consume(usedSecret, PurposeVerify))
	require.NoError(t, db.Model(&EmailToken{}).Where("id = ?", used.ID).
		Update("expires_at", time.Now().Add(-time.Minute)).Error)

	removed, err := service.Cleanup()
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	var count int64
	require.NoError(t, db.Model(&EmailToken{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var remaining EmailToken
	require.NoError(t, db.First(&remaining).Error)
	assert.Equal(t, live.ID, remaining.ID)

	t.Run("repeat cleanup removes nothing", func(t *testing.T) {
		removed, err := service.Cleanup()
		require.NoError(t, err)
		assert.Zero(t, removed)
	})
}

func TestDigest_Deterministic(t *testing.T) {
	assert.Equal(t, Digest("abc"), Digest("abc"))
	assert.NotEqual(t, Digest("abc"), Digest("abd"))
	assert.Len(t, Digest("abc"), 64)
}
