package command

import (
	"context"
	"log/slog"
	"time"

	"github.com/venturehub/readiness-hub/internal/domain/ruleset"
	"github.com/venturehub/readiness-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PUBLISH RULESET COMMAND
// Publishes a new immutable ruleset version and optionally makes it active.
// Publishing never mutates an existing version; a duplicate version is
// rejected outright.
// ══════════════════════════════════════════════════════════════════════════════

// PublishRuleSetCommand contains the authored methodology document.
type PublishRuleSetCommand struct {
	// Document is the authored ruleset with percentages summing to 100.
	Document ruleset.Document

	// Activate switches the active pointer to the new version on success.
	Activate bool

	// PublishedBy identifies the publishing actor.
	PublishedBy string
}

// Validate validates the command.
func (c PublishRuleSetCommand) Validate() error {
	if c.PublishedBy == "" {
		return shared.NewDomainError("ruleset", "Publish", shared.ErrEmptyValue, "published_by is required")
	}
	return nil
}

// PublishRuleSetResult contains the published version.
type PublishRuleSetResult struct {
	Version   string
	Activated bool
	Events    []shared.Event
}

// PublishRuleSetHandler handles PublishRuleSetCommand.
type PublishRuleSetHandler struct {
	store  ruleset.Store
	events shared.EventPublisher
	logger *slog.Logger
}

// NewPublishRuleSetHandler creates the handler.
func NewPublishRuleSetHandler(store ruleset.Store, events shared.EventPublisher, logger *slog.Logger) *PublishRuleSetHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PublishRuleSetHandler{store: store, events: events, logger: logger}
}

// Handle validates the document, publishes it as a new version, and
// optionally activates it via the store's compare-and-set.
func (h *PublishRuleSetHandler) Handle(ctx context.Context, cmd PublishRuleSetCommand) (*PublishRuleSetResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	rs, err := ruleset.FromDocument(cmd.Document)
	if err != nil {
		return nil, err
	}
	rs.PublishedAt = time.Now().UTC()
	rs.PublishedBy = cmd.PublishedBy

	if err := h.store.Publish(ctx, rs); err != nil {
		return nil, err
	}

	if cmd.Activate {
		if err := h.store.Activate(ctx, rs.VersionString()); err != nil {
			return nil, err
		}
	}

	event := shared.NewRuleSetPublishedEvent(rs.VersionString(), cmd.Activate, cmd.PublishedBy)
	if h.events != nil {
		if err := h.events.Publish(event); err != nil {
			h.logger.Warn("failed to publish event", "type", event.EventType(), "error", err)
		}
	}

	h.logger.Info("ruleset published",
		"version", rs.VersionString(),
		"activated", cmd.Activate,
		"published_by", cmd.PublishedBy,
	)

	return &PublishRuleSetResult{
		Version:   rs.VersionString(),
		Activated: cmd.Activate,
		Events:    []shared.Event{event},
	}, nil
}
