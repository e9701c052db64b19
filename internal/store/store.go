package store

import (
	"context"
	"errors"

	"github.com/nhle/mail2joplin/internal/model"
)

// ErrNotFound is returned when a history entry does not exist.
var ErrNotFound = errors.New("submission not found")

// SubmissionFilter controls filtering and pagination for history queries.
type SubmissionFilter struct {
	Status *string // model.SubmissionSuccess, model.SubmissionFailed, or nil (all)
	Query  *string // matches title or message id
	Limit  int
	Offset int
}

// Store defines the persistence interface for the submission history.
type Store interface {
	RecordSubmission(ctx context.Context, sub model.Submission) error
	GetSubmissions(ctx context.Context, filter SubmissionFilter) ([]model.Submission, error)
	GetSubmissionByID(ctx context.Context, id string) (*model.Submission, error)
	FindByMessage(ctx context.Context, source, messageID string) ([]model.Submission, error)
	Close() error
}
