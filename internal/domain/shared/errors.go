// Package shared contains common domain types, errors, and events
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")

	// Configuration errors
	ErrConfiguration = errors.New("configuration error")

	// State errors
	ErrInvalidState     = errors.New("invalid state")
	ErrAlreadyProcessed = errors.New("already processed")

	// Concurrency errors
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// Infrastructure errors
	ErrPersistence        = errors.New("persistence error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "scoring", "ruleset", "assessment"
	Op      string // Operation that failed, e.g., "Score", "Publish"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Assessment domain errors
var (
	ErrAssessmentNotFound = NewDomainError("assessment", "Find", ErrNotFound, "assessment not found")
	ErrAnswersIncomplete  = NewDomainError("assessment", "Validate", ErrValidation, "assessment answers are incomplete")
	ErrInvalidAnswerValue = NewDomainError("assessment", "Validate", ErrInvalidInput, "answer value outside the allowed set")
)

// RuleSet domain errors
var (
	ErrRuleSetNotFound      = NewDomainError("ruleset", "Find", ErrNotFound, "ruleset version not found")
	ErrRuleSetAlreadyExists = NewDomainError("ruleset", "Publish", ErrAlreadyExists, "ruleset version already published")
	ErrRuleSetMalformed     = NewDomainError("ruleset", "Validate", ErrConfiguration, "ruleset document is malformed")
	ErrZeroWeights          = NewDomainError("ruleset", "Normalize", ErrConfiguration, "dimension weights sum to zero")
	ErrNoActiveRuleSet      = NewDomainError("ruleset", "GetActive", ErrNotFound, "no active ruleset published")
)

// Scoring domain errors
var (
	ErrScoreNotFound       = NewDomainError("scoring", "Find", ErrNotFound, "score not found")
	ErrAlreadyAtVersion    = NewDomainError("scoring", "Rescore", ErrAlreadyProcessed, "assessment already scored under target version")
	ErrScorePersistFailed  = NewDomainError("scoring", "Persist", ErrPersistence, "failed to persist score result")
	ErrAuditAppendRejected = NewDomainError("scoring", "Audit", ErrPersistence, "failed to append audit entry")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrValueOutOfRange)
}

// IsConfiguration checks if the error is a ruleset/configuration error.
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}

// IsRetryable checks if the operation can be retried.
// Only infrastructure failures qualify; pure computation errors never do.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrPersistence) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrConcurrentModification)
}
