package coach

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/coro-biz/journey-coach/config"
	"github.com/coro-biz/journey-coach/services/logging"
	"go.uber.org/zap"
)

// Kind selects one of the structured coaching outputs.
type Kind string

const (
	KindPlan    Kind = "plan"
	KindStandup Kind = "standup"
	KindGate    Kind = "gate"
	KindTriage  Kind = "triage"
)

const defaultSystemPrompt = "You are JTBD Journey Coach. You coach calmly and concretely through phases: " +
	"stabilize, reframe, position, explore, apply, secure, transition. " +
	"Be concise, practical, and encouraging. Prefer short lists, checklists, and micro-steps."

var taskPrompts = map[Kind]string{
	KindPlan:    "Please produce a **Weekly Plan** using your default output structure.",
	KindStandup: "Please output a **Daily Stand-up** using the template.",
	KindGate:    "Run a **Phase Gate Review** for the current phase.",
	KindTriage:  "Run **Setback Triage**. Keep it concise and directive.",
}

// Service composes coaching prompts and delegates completion to the LLM
// collaborator. It holds no durable state.
type Service struct {
	config       *config.Config
	completer    Completer
	systemPrompt string
	logger       *logging.Service
}

func NewService(cfg *config.Config, completer Completer, logger *logging.Service) *Service {
	return &Service{
		config:       cfg,
		completer:    completer,
		systemPrompt: loadSystemPrompt(cfg.Coach.SystemPromptPath),
		logger:       logger,
	}
}

// SystemPromptLoaded reports whether a prompt file was found on disk, for
// the health endpoint.
func (s *Service) SystemPromptLoaded() bool {
	return s.systemPrompt != defaultSystemPrompt
}

// Respond runs one of the structured coaching tasks over the user's state.
func (s *Service) Respond(ctx context.Context, kind Kind, userState map[string]any, note string) (string, error) {
	prompt := composeTaskPrompt(kind, userState, note)
	messages := []Message{
		{Role: "system", Content: s.systemPrompt},
		{Role: "user", Content: prompt},
	}

	reply, err := s.completer.Complete(ctx, s.config.Coach.Model, messages, s.config.Coach.TaskTemperature)
	if err != nil {
		s.logger.Error("completion failed", zap.Error(err), zap.String("kind", string(kind)))
		return "", err
	}
	return reply, nil
}

// Chat answers a free-form message, optionally anchored to the markdown
// panel the user is currently looking at.
func (s *Service) Chat(ctx context.Context, userState map[string]any, message, contextMD, contextKind string) (string, error) {
	system := s.systemPrompt +
		"\nIf context_md is provided, treat it as the user's current panel. " +
		"When they say 'bullet 1' or 'the first item', identify the first actionable bullet " +
		"from context_md and help them complete it step-by-step with concrete instructions."

	messages := []Message{
		{Role: "system", Content: system},
		{Role: "user", Content: "State JSON:\n" + marshalState(userState)},
	}
	if contextMD != "" {
		if contextKind == "" {
			contextKind = "panel"
		}
		messages = append(messages, Message{
			Role:    "user",
			Content: fmt.Sprintf("Context (%s; markdown the user is seeing):\n%s", contextKind, contextMD),
		})
	}
	messages = append(messages, Message{Role: "user", Content: message})

	reply, err := s.completer.Complete(ctx, s.config.Coach.Model, messages, s.config.Coach.ChatTemperature)
	if err != nil {
		s.logger.Error("chat completion failed", zap.Error(err))
		return "", err
	}
	return reply, nil
}

func composeTaskPrompt(kind Kind, userState map[string]any, note string) string {
	header := "You are JTBD Journey Coach.\nUser state JSON:\n" + marshalState(userState) + "\n\n"

	task, ok := taskPrompts[kind]
	if !ok {
		task = "Provide guidance using the default structure."
	}
	if note != "" {
		task += "\nContext note from user: " + note
	}
	return header + task
}

func marshalState(userState map[string]any) string {
	if userState == nil {
		userState = map[string]any{}
	}
	buf, err := json.MarshalIndent(userState, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(buf)
}

func loadSystemPrompt(path string) string {
	if path == "" {
		return defaultSystemPrompt
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		return defaultSystemPrompt
	}
	prompt := strings.TrimSpace(string(buf))
	if prompt == "" {
		return defaultSystemPrompt
	}
	return prompt
}
