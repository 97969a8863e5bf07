package handlers

import (
	"crypto/subtle"
	"errors"
	"net/http"

	"github.com/coro-biz/journey-coach/services/auth"
	"github.com/coro-biz/journey-coach/services/tokens"
	"github.com/coro-biz/journey-coach/services/users"
	"github.com/coro-biz/journey-coach/session"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// forgotAck is the one body /forgot_password ever returns, so responses do
// not reveal whether the address is registered.
const forgotAck = "If that address is registered, a reset link is on its way."

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotPasswordRequest struct {
	Email string `json:"email"`
}

type phaseRequest struct {
	Phase string `json:"phase"`
}

type adminSetPasswordRequest struct {
	Email       string `json:"email"`
	NewPassword string `json:"new_password"`
}

type userResponse struct {
	ID    uint        `json:"id"`
	Email string      `json:"email"`
	Phase users.Phase `json:"phase"`
}

func toUserResponse(u *users.User) userResponse {
	return userResponse{ID: u.ID, Email: u.Email, Phase: u.Phase}
}

func (h *Handler) Signup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := h.auth.Signup(req.Email, req.Password); err != nil {
		switch {
		case errors.Is(err, users.ErrEmailTaken):
			return echo.NewHTTPError(http.StatusBadRequest, "an account with that email already exists")
		case errors.Is(err, auth.ErrInvalidEmail):
			return echo.NewHTTPError(http.StatusBadRequest, "invalid email address")
		case isValidationError(err):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return err
		}
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"ok":      true,
		"message": "Account created. Please verify via email.",
	})
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	user, err := h.auth.Login(req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidEmail):
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
		case errors.Is(err, auth.ErrNotVerified):
			return echo.NewHTTPError(http.StatusForbidden, "email is not verified")
		default:
			return err
		}
	}

	csrfToken, err := session.Login(c, user.ID, h.sessions)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{
		"ok":         true,
		"user":       toUserResponse(user),
		"csrf_token": csrfToken,
	})
}

func (h *Handler) Logout(c echo.Context) error {
	session.Logout(c, h.sessions)
	return c.JSON(http.StatusOK, map[string]any{"ok": true})
}

func (h *Handler) Me(c echo.Context) error {
	user, err := h.currentUser(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true, "user": toUserResponse(user)})
}

func (h *Handler) SetPhase(c echo.Context) error {
	var req phaseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	user, err := h.users.SetPhase(session.GetUserID(c), users.Phase(req.Phase))
	if err != nil {
		switch {
		case errors.Is(err, users.ErrInvalidPhase):
			return echo.NewHTTPError(http.StatusBadRequest, "unknown phase")
		case errors.Is(err, users.ErrNotFound):
			return echo.NewHTTPError(http.StatusUnauthorized, "not logged in")
		default:
			return err
		}
	}

	return c.JSON(http.StatusOK, map[string]any{"ok": true, "user": toUserResponse(user)})
}

func (h *Handler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := h.auth.RequestPasswordReset(req.Email); err != nil {
		if errors.Is(err, auth.ErrInvalidEmail) {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid email address")
		}
		// storage failures are logged but the ack stays generic
		h.logger.Error("password reset request failed", zap.Error(err))
	}

	return c.JSON(http.StatusOK, map[string]any{"ok": true, "message": forgotAck})
}

func (h *Handler) ResetForm(c echo.Context) error {
	secret := c.QueryParam("token")

	if _, err := h.tokens.Validate(secret, tokens.PurposeReset); err != nil {
		if errors.Is(err, tokens.ErrTokenInvalid) {
			return c.Render(http.StatusBadRequest, "reset_result.html", map[string]any{
				"AppName": h.config.App.Name,
				"Success": false,
				"Message": "This reset link is invalid or has expired. Please request a new one.",
			})
		}
		return err
	}

	return c.Render(http.StatusOK, "reset_form.html", map[string]any{
		"AppName": h.config.App.Name,
		"Token":   secret,
	})
}

func (h *Handler) ResetSubmit(c echo.Context) error {
	secret := c.FormValue("token")
	password := c.FormValue("password")
	confirm := c.FormValue("confirm")

	renderError := func(status int, message string) error {
		return c.Render(status, "reset_result.html", map[string]any{
			"AppName": h.config.App.Name,
			"Success": false,
			"Message": message,
		})
	}

	if password != confirm {
		return renderError(http.StatusBadRequest, "The passwords do not match.")
	}

	if err := h.auth.CompletePasswordReset(secret, password); err != nil {
		switch {
		case errors.Is(err, tokens.ErrTokenInvalid):
			return renderError(http.StatusBadRequest, "This reset link is invalid or has expired. Please request a new one.")
		case isValidationError(err):
			return renderError(http.StatusBadRequest, err.Error())
		default:
			return err
		}
	}

	return c.Render(http.StatusOK, "reset_result.html", map[string]any{
		"AppName": h.config.App.Name,
		"Success": true,
	})
}

func (h *Handler) VerifyEmail(c echo.Context) error {
	if err := h.auth.VerifyEmail(c.QueryParam("token")); err != nil {
		if errors.Is(err, tokens.ErrTokenInvalid) {
			return c.Render(http.StatusBadRequest, "verify_result.html", map[string]any{
				"AppName": h.config.App.Name,
				"Success": false,
				"Message": "This verification link is invalid or has expired.",
			})
		}
		return err
	}

	return c.Render(http.StatusOK, "verify_result.html", map[string]any{
		"AppName": h.config.App.Name,
		"Success": true,
	})
}

func (h *Handler) Sessions(c echo.Context) error {
	sessions, err := h.sessions.UserSessions(session.GetUserID(c), session.Token(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"ok": true, "sessions": sessions})
}

func (h *Handler) AdminSetPassword(c echo.Context) error {
	if err := h.requireSetupToken(c); err != nil {
		return err
	}

	var req adminSetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := h.auth.AdminSetPassword(req.Email, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, users.ErrNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "user not found")
		case isValidationError(err):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return err
		}
	}

	return c.JSON(http.StatusOK, map[string]any{"ok": true})
}

func (h *Handler) AdminCleanupTokens(c echo.Context) error {
	if err := h.requireSetupToken(c); err != nil {
		return err
	}

	removed, err := h.tokens.Cleanup()
	if err != nil {
		return err
	}
	if err := h.sessions.CleanupExpiredSessions(); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]any{"ok": true, "removed": removed})
}

func (h *Handler) requireSetupToken(c echo.Context) error {
	expected := h.config.Admin.SetupToken
	presented := c.Request().Header.Get("X-Setup-Token")

	if expected == "" ||
		len(expected) != len(presented) ||
		subtle.ConstantTimeCompare([]byte(expected), []byte(presented)) != 1 {
		return echo.NewHTTPError(http.StatusForbidden, "forbidden")
	}
	return nil
}

func (h *Handler) currentUser(c echo.Context) (*users.User, error) {
	user, err := h.users.FindByID(session.GetUserID(c))
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, echo.NewHTTPError(http.StatusUnauthorized, "not logged in")
		}
		return nil, err
	}
	return user, nil
}

// isValidationError distinguishes the password-policy message from internal
// failures so it can be surfaced as a 400.
func isValidationError(err error) bool {
	return errors.Is(err, auth.ErrWeakPassword)
}
