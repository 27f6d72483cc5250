package command

import (
	"context"
	"log/slog"

	"github.com/venturehub/readiness-hub/internal/domain/ruleset"
	"github.com/venturehub/readiness-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACTIVATE RULESET COMMAND
// Switches the active methodology pointer to an already-published version.
// Activation never touches stored scores; the re-score job migrates them.
// ══════════════════════════════════════════════════════════════════════════════

// ActivateRuleSetCommand names the version to make active.
type ActivateRuleSetCommand struct {
	Version string

	// ActivatedBy identifies the requesting actor.
	ActivatedBy string
}

// Validate validates the command.
func (c ActivateRuleSetCommand) Validate() error {
	if c.Version == "" {
		return shared.NewDomainError("ruleset", "Activate", shared.ErrEmptyValue, "version is required")
	}
	if c.ActivatedBy == "" {
		return shared.NewDomainError("ruleset", "Activate", shared.ErrEmptyValue, "activated_by is required")
	}
	return nil
}

// ActivateRuleSetHandler handles ActivateRuleSetCommand.
type ActivateRuleSetHandler struct {
	store  ruleset.Store
	events shared.EventPublisher
	logger *slog.Logger
}

// NewActivateRuleSetHandler creates the handler.
func NewActivateRuleSetHandler(store ruleset.Store, events shared.EventPublisher, logger *slog.Logger) *ActivateRuleSetHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ActivateRuleSetHandler{store: store, events: events, logger: logger}
}

// Handle switches the active pointer. Unknown versions are rejected by the
// store without changing the current pointer.
func (h *ActivateRuleSetHandler) Handle(ctx context.Context, cmd ActivateRuleSetCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}

	if err := h.store.Activate(ctx, cmd.Version); err != nil {
		return err
	}

	event := shared.NewRuleSetActivatedEvent(cmd.Version, cmd.ActivatedBy)
	if h.events != nil {
		if err := h.events.Publish(event); err != nil {
			h.logger.Warn("failed to publish event", "type", event.EventType(), "error", err)
		}
	}

	h.logger.Info("ruleset activated",
		"version", cmd.Version,
		"activated_by", cmd.ActivatedBy,
	)

	return nil
}
