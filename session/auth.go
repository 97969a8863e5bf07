package session

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/labstack/echo/v4"
)

const (
	UserIDKey        = "_user_id"
	AuthenticatedKey = "_authenticated"
	CSRFTokenKey     = "_csrf_token"
)

// Login rotates the session identity, binds it to the user and mints a fresh
// per-session CSRF value. The returned CSRF token is handed to the client;
// every later mutating request must echo it back.
func Login(c echo.Context, userID uint, tracker *Service) (csrfToken string, err error) {
	manager := GetManager(c)
	if manager == nil {
		return "", nil
	}

	ctx := c.Request().Context()
	if err := manager.RenewToken(ctx); err != nil {
		return "", err
	}

	csrfToken, err = generateCSRFToken()
	if err != nil {
		return "", err
	}

	manager.Put(ctx, UserIDKey, userID)
	manager.Put(ctx, AuthenticatedKey, true)
	manager.Put(ctx, CSRFTokenKey, csrfToken)

	if tracker != nil {
		if token := manager.Token(ctx); token != "" {
			expiresAt := time.Now().Add(manager.config.MaxAge)
			_ = tracker.TrackSession(userID, token, c.RealIP(), c.Request().UserAgent(), expiresAt)
		}
	}

	return csrfToken, nil
}

func Logout(c echo.Context, tracker *Service) {
	manager := GetManager(c)
	if manager == nil {
		return
	}

	ctx := c.Request().Context()
	if tracker != nil {
		if token := manager.Token(ctx); token != "" {
			_ = tracker.RemoveSessionByToken(token)
		}
	}

	manager.Remove(ctx, UserIDKey)
	manager.Remove(ctx, AuthenticatedKey)
	manager.Remove(ctx, CSRFTokenKey)
	_ = manager.Destroy(ctx)
}

func GetUserID(c echo.Context) uint {
	manager := GetManager(c)
	if manager == nil {
		return 0
	}

	switch v := manager.Get(c.Request().Context(), UserIDKey).(type) {
	case uint:
		return v
	case int:
		return uint(v)
	case int64:
		return uint(v)
	case float64:
		return uint(v)
	default:
		return 0
	}
}

func IsAuthenticated(c echo.Context) bool {
	manager := GetManager(c)
	if manager == nil {
		return false
	}
	return manager.GetBool(c.Request().Context(), AuthenticatedKey)
}

// CSRFToken returns the per-session anti-forgery value, empty when not
// logged in.
func CSRFToken(c echo.Context) string {
	manager := GetManager(c)
	if manager == nil {
		return ""
	}
	return manager.GetString(c.Request().Context(), CSRFTokenKey)
}

func Token(c echo.Context) string {
	manager := GetManager(c)
	if manager == nil {
		return ""
	}
	return manager.Token(c.Request().Context())
}

func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !IsAuthenticated(c) {
				return echo.NewHTTPError(401, "not logged in")
			}
			return next(c)
		}
	}
}

func generateCSRFToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
