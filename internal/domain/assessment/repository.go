package assessment

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// These interfaces define the contract for the persistence store.
// Implementations live in infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// ListOptions controls pagination for bulk reads.
type ListOptions struct {
	Limit  int
	Offset int
}

// DefaultListOptions returns sensible pagination defaults.
func DefaultListOptions() ListOptions {
	return ListOptions{Limit: 100, Offset: 0}
}

// Repository defines persistence operations for assessments.
// Assessments are write-once: there is no Update, a retake creates a new record.
type Repository interface {
	// Create stores a new assessment.
	// Returns shared.ErrAlreadyExists if the id is already taken.
	Create(ctx context.Context, a *Assessment) error

	// GetByID returns an assessment by id.
	// Returns shared.ErrAssessmentNotFound if it does not exist.
	GetByID(ctx context.Context, id string) (*Assessment, error)

	// GetByIDs returns assessments for the given ids, skipping unknown ones.
	GetByIDs(ctx context.Context, ids []string) ([]*Assessment, error)

	// GetByOwner returns all assessments submitted by one owner.
	GetByOwner(ctx context.Context, ownerID string, opts ListOptions) ([]*Assessment, error)

	// GetAll returns all assessments with pagination.
	GetAll(ctx context.Context, opts ListOptions) ([]*Assessment, error)

	// Count returns the total number of assessments.
	Count(ctx context.Context) (int, error)
}
