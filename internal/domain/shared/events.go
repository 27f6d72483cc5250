// Package shared contains common domain types, errors, and events
// that are used across all domain packages.
package shared

import (
	"encoding/json"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive the event-driven architecture.
// Each event represents something significant that happened in the domain.
const (
	// Assessment events
	EventAssessmentSubmitted EventType = "assessment.submitted"

	// Scoring events
	EventScoreComputed   EventType = "scoring.score_computed"
	EventScoreSuperseded EventType = "scoring.score_superseded"

	// RuleSet events
	EventRuleSetPublished EventType = "ruleset.published"
	EventRuleSetActivated EventType = "ruleset.activated"

	// System events
	EventRescoreCompleted EventType = "system.rescore_completed"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Scoring Events
// ═══════════════════════════════════════════════════════════════════════════

// ScoreComputedEvent is emitted when a new score result becomes current
// for an assessment, whether from initial scoring or a re-score run.
type ScoreComputedEvent struct {
	BaseEvent
	AssessmentID   string `json:"assessment_id"`
	ScoreResultID  string `json:"score_result_id"`
	RuleSetVersion string `json:"rule_set_version"`
	Bucket         string `json:"bucket"`
	TotalScore     int    `json:"total_score"`
	ComputedBy     string `json:"computed_by"`
}

// Payload implements Event interface.
func (e ScoreComputedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"assessment_id":    e.AssessmentID,
		"score_result_id":  e.ScoreResultID,
		"rule_set_version": e.RuleSetVersion,
		"bucket":           e.Bucket,
		"total_score":      e.TotalScore,
		"computed_by":      e.ComputedBy,
	}
}

// NewScoreComputedEvent creates a new ScoreComputedEvent.
func NewScoreComputedEvent(assessmentID, scoreResultID, ruleSetVersion, bucket string, totalScore int, computedBy string) ScoreComputedEvent {
	return ScoreComputedEvent{
		BaseEvent:      NewBaseEvent(EventScoreComputed, assessmentID),
		AssessmentID:   assessmentID,
		ScoreResultID:  scoreResultID,
		RuleSetVersion: ruleSetVersion,
		Bucket:         bucket,
		TotalScore:     totalScore,
		ComputedBy:     computedBy,
	}
}

// ScoreSupersededEvent is emitted when a re-score replaces a current score
// result. The previous result is retained, never deleted.
type ScoreSupersededEvent struct {
	BaseEvent
	AssessmentID      string `json:"assessment_id"`
	PreviousResultID  string `json:"previous_result_id"`
	NewResultID       string `json:"new_result_id"`
	VersionBefore     string `json:"version_before"`
	VersionAfter      string `json:"version_after"`
	TotalScoreBefore  int    `json:"total_score_before"`
	TotalScoreAfter   int    `json:"total_score_after"`
	TriggeredBy       string `json:"triggered_by"`
}

// Payload implements Event interface.
func (e ScoreSupersededEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"assessment_id":      e.AssessmentID,
		"previous_result_id": e.PreviousResultID,
		"new_result_id":      e.NewResultID,
		"version_before":     e.VersionBefore,
		"version_after":      e.VersionAfter,
		"total_score_before": e.TotalScoreBefore,
		"total_score_after":  e.TotalScoreAfter,
		"triggered_by":       e.TriggeredBy,
	}
}

// NewScoreSupersededEvent creates a new ScoreSupersededEvent.
func NewScoreSupersededEvent(assessmentID, previousID, newID, versionBefore, versionAfter string, totalBefore, totalAfter int, triggeredBy string) ScoreSupersededEvent {
	return ScoreSupersededEvent{
		BaseEvent:        NewBaseEvent(EventScoreSuperseded, assessmentID),
		AssessmentID:     assessmentID,
		PreviousResultID: previousID,
		NewResultID:      newID,
		VersionBefore:    versionBefore,
		VersionAfter:     versionAfter,
		TotalScoreBefore: totalBefore,
		TotalScoreAfter:  totalAfter,
		TriggeredBy:      triggeredBy,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// RuleSet Events
// ═══════════════════════════════════════════════════════════════════════════

// RuleSetPublishedEvent is emitted when a new ruleset version is published.
type RuleSetPublishedEvent struct {
	BaseEvent
	RuleSetVersion string `json:"rule_set_version"`
	Activated      bool   `json:"activated"`
	PublishedBy    string `json:"published_by"`
}

// Payload implements Event interface.
func (e RuleSetPublishedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"rule_set_version": e.RuleSetVersion,
		"activated":        e.Activated,
		"published_by":     e.PublishedBy,
	}
}

// NewRuleSetPublishedEvent creates a new RuleSetPublishedEvent.
func NewRuleSetPublishedEvent(version string, activated bool, publishedBy string) RuleSetPublishedEvent {
	return RuleSetPublishedEvent{
		BaseEvent:      NewBaseEvent(EventRuleSetPublished, version),
		RuleSetVersion: version,
		Activated:      activated,
		PublishedBy:    publishedBy,
	}
}

// RuleSetActivatedEvent is emitted when the active pointer moves to a version.
type RuleSetActivatedEvent struct {
	BaseEvent
	RuleSetVersion string `json:"rule_set_version"`
	ActivatedBy    string `json:"activated_by"`
}

// Payload implements Event interface.
func (e RuleSetActivatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"rule_set_version": e.RuleSetVersion,
		"activated_by":     e.ActivatedBy,
	}
}

// NewRuleSetActivatedEvent creates a new RuleSetActivatedEvent.
func NewRuleSetActivatedEvent(version, activatedBy string) RuleSetActivatedEvent {
	return RuleSetActivatedEvent{
		BaseEvent:      NewBaseEvent(EventRuleSetActivated, version),
		RuleSetVersion: version,
		ActivatedBy:    activatedBy,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// System Events
// ═══════════════════════════════════════════════════════════════════════════

// RescoreCompletedEvent is emitted when a re-score batch run finishes.
type RescoreCompletedEvent struct {
	BaseEvent
	JobID         string `json:"job_id"`
	TargetVersion string `json:"target_version"`
	Processed     int    `json:"processed"`
	Succeeded     int    `json:"succeeded"`
	Failed        int    `json:"failed"`
	Skipped       int    `json:"skipped"`
}

// Payload implements Event interface.
func (e RescoreCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"job_id":         e.JobID,
		"target_version": e.TargetVersion,
		"processed":      e.Processed,
		"succeeded":      e.Succeeded,
		"failed":         e.Failed,
		"skipped":        e.Skipped,
	}
}

// NewRescoreCompletedEvent creates a new RescoreCompletedEvent.
func NewRescoreCompletedEvent(jobID, targetVersion string, processed, succeeded, failed, skipped int) RescoreCompletedEvent {
	return RescoreCompletedEvent{
		BaseEvent:     NewBaseEvent(EventRescoreCompleted, jobID),
		JobID:         jobID,
		TargetVersion: targetVersion,
		Processed:     processed,
		Succeeded:     succeeded,
		Failed:        failed,
		Skipped:       skipped,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Envelope (for serialization and transport)
// ═══════════════════════════════════════════════════════════════════════════

// EventEnvelope wraps an event for transport/storage.
type EventEnvelope struct {
	ID            string          `json:"id"`
	Type          EventType       `json:"type"`
	AggregateID   string          `json:"aggregate_id"`
	Timestamp     time.Time       `json:"timestamp"`
	Version       int             `json:"version"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
