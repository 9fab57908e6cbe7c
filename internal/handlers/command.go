package handlers

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/Schorakbi/roboto-ai/internal/history"
	"github.com/Schorakbi/roboto-ai/internal/llm"
	"github.com/Schorakbi/roboto-ai/internal/models"
	"github.com/Schorakbi/roboto-ai/internal/prompts"
)

type CommandHandler struct {
	provider llm.Completer
	history  history.Store
	logger   *zap.Logger
	now      func() time.Time
}

// NewCommandHandler builds the handler. store may be nil when history is disabled.
func NewCommandHandler(provider llm.Completer, store history.Store, logger *zap.Logger) *CommandHandler {
	return &CommandHandler{
		provider: provider,
		history:  store,
		logger:   logger.With(zap.String("component", "command_handler")),
		now:      time.Now,
	}
}

// HistoryEnabled reports whether parsed commands are recorded.
func (h *CommandHandler) HistoryEnabled() bool {
	return h.history != nil
}

// ParseCommand turns a free-text command into a validated ParsedCommand.
// Every failure is a *CommandError.
func (h *CommandHandler) ParseCommand(ctx context.Context, request *models.CommandRequest) (*models.ParsedCommand, error) {
	if request == nil || request.Command == "" {
		return nil, invalidInput()
	}

	prompt := prompts.BuildCommandPrompt(request.Command)

	content, err := h.provider.Complete(ctx, prompts.SystemPrompt, prompt)
	if err != nil {
		h.logger.Error("Completion call failed", zap.Error(err))
		return nil, upstreamFailure(err)
	}

	parsed, err := prompts.ParseLLMResponse(content)
	if err != nil {
		if errors.Is(err, prompts.ErrInvalidJSON) {
			h.logger.Warn("Completion returned invalid JSON", zap.String("content", content))
			return nil, badUpstreamResponse(err)
		}
		h.logger.Warn("Completion failed schema validation", zap.Error(err), zap.String("content", content))
		return nil, schemaValidation(err)
	}

	if !parsed.ValidCommand && parsed.Action != models.ActionUnknown {
		// Forwarded unchanged, the model owns this rule.
		h.logger.Warn("Invalid command returned with a concrete action",
			zap.String("action", parsed.Action))
	}

	h.logger.Info("Command parsed",
		zap.String("action", parsed.Action),
		zap.Bool("valid_command", parsed.ValidCommand))

	h.record(ctx, request.Command, parsed)

	return parsed, nil
}

// RecentCommands returns the newest recorded commands, or nil when history is disabled.
func (h *CommandHandler) RecentCommands(ctx context.Context, limit int) ([]models.HistoryEntry, error) {
	if h.history == nil {
		return nil, nil
	}
	return h.history.Recent(ctx, limit)
}

// CheckHistory pings the history store. It returns nil when history is disabled.
func (h *CommandHandler) CheckHistory(ctx context.Context) error {
	if h.history == nil {
		return nil
	}
	return h.history.Ping(ctx)
}

func (h *CommandHandler) record(ctx context.Context, command string, parsed *models.ParsedCommand) {
	if h.history == nil {
		return
	}

	entry := models.HistoryEntry{
		Command:  command,
		Result:   *parsed,
		ParsedAt: h.now().UTC(),
	}

	if err := h.history.Record(ctx, entry); err != nil {
		h.logger.Error("Failed to record command history", zap.Error(err))
	}
}
