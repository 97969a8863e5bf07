package handlers

import (
	"net/http"
	"strings"

	"github.com/coro-biz/journey-coach/services/coach"
	"github.com/labstack/echo/v4"
)

type coachRequest struct {
	UserState map[string]any `json:"user_state"`
	Note      string         `json:"note"`
}

type chatRequest struct {
	UserState   map[string]any `json:"user_state"`
	Message     string         `json:"message"`
	ContextMD   string         `json:"context_md"`
	ContextKind string         `json:"context_kind"`
}

func (h *Handler) Plan(c echo.Context) error    { return h.coachTask(c, coach.KindPlan) }
func (h *Handler) Standup(c echo.Context) error { return h.coachTask(c, coach.KindStandup) }
func (h *Handler) Gate(c echo.Context) error    { return h.coachTask(c, coach.KindGate) }
func (h *Handler) Triage(c echo.Context) error  { return h.coachTask(c, coach.KindTriage) }

func (h *Handler) coachTask(c echo.Context, kind coach.Kind) error {
	var req coachRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	reply, err := h.coach.Respond(c.Request().Context(), kind, req.UserState, req.Note)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"reply": reply})
}

func (h *Handler) Chat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	message := strings.TrimSpace(req.Message)
	if message == "" {
		return c.JSON(http.StatusOK, map[string]any{"reply": "Please type a message."})
	}

	reply, err := h.coach.Chat(c.Request().Context(), req.UserState, message, req.ContextMD, req.ContextKind)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"reply": reply})
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"ok": true,
		"details": map[string]any{
			"model":                h.config.Coach.Model,
			"fallback_model":       h.config.Coach.FallbackModel,
			"system_prompt_exists": h.coach.SystemPromptLoaded(),
		},
	})
}
