package assessment

import (
	"context"

	"github.com/victornm/techbridge/internal/domain"
)

// Store persists assessments. Writes are conditional on Assessment.Version and fail with
// CodeAborted when the stored version differs; a successful write bumps the version in place.
type Store interface {
	// FindOrCreate returns the assessment of the user in the domain, creating it at Beginner.
	FindOrCreate(ctx context.Context, userID, domain string) (*domain.Assessment, error)
	// Get returns the assessment with its history, or CodeNotFound.
	Get(ctx context.Context, assessmentID string) (*domain.Assessment, error)
	// List returns all assessments of the user with their history.
	List(ctx context.Context, userID string) ([]domain.Assessment, error)
	// SaveSession writes the session and level of a.
	SaveSession(ctx context.Context, a *domain.Assessment) error
	// SaveAttempt appends the attempt to the history and writes the level and session of a in
	// one transaction.
	SaveAttempt(ctx context.Context, a *domain.Assessment, at domain.Attempt) error
}
