package testutil

import (
	"context"
	"testing"

	"github.com/nhle/mail2joplin/internal/model"
	"github.com/nhle/mail2joplin/internal/store"
)

// NewTestStore creates an in-memory history store with all migrations
// applied. The store is closed when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// Seed records subs in order. Empty sources, message ids and statuses are
// filled with "file", "msg" and success.
func Seed(t *testing.T, s store.Store, subs ...model.Submission) {
	t.Helper()

	for _, sub := range subs {
		if sub.Source == "" {
			sub.Source = "file"
		}
		if sub.MessageID == "" {
			sub.MessageID = "msg"
		}
		if sub.Status == "" {
			sub.Status = model.SubmissionSuccess
		}
		if err := s.RecordSubmission(context.Background(), sub); err != nil {
			t.Fatalf("seeding submission %q: %v", sub.Title, err)
		}
	}
}
