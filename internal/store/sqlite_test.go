package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mail2joplin/internal/model"
	"github.com/nhle/mail2joplin/internal/store"
	"github.com/nhle/mail2joplin/tests/testutil"
)

func ptr[T any](v T) *T { return &v }

func TestRecordAndGetSubmission(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.RecordSubmission(ctx, model.Submission{
		ID:          "sub-1",
		Source:      "file",
		MessageID:   "/tmp/a.eml",
		Title:       "Hello from Alice",
		NoteID:      "n1",
		Tags:        []string{"work", "urgent"},
		Attachments: 2,
		Status:      model.SubmissionSuccess,
		CreatedAt:   created,
	}))

	got, err := s.GetSubmissionByID(ctx, "sub-1")
	require.NoError(t, err)
	assert.Equal(t, "n1", got.NoteID)
	assert.Equal(t, []string{"work", "urgent"}, got.Tags)
	assert.Equal(t, 2, got.Attachments)
	assert.True(t, created.Equal(got.CreatedAt))

	_, err = s.GetSubmissionByID(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRecordSubmission_FillsIDAndTime(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordSubmission(ctx, model.Submission{
		Source:    "imap",
		MessageID: "42",
		Status:    model.SubmissionFailed,
		Error:     "boom",
	}))

	subs, err := s.GetSubmissions(ctx, store.SubmissionFilter{})
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.NotEmpty(t, subs[0].ID)
	assert.False(t, subs[0].CreatedAt.IsZero())
	assert.Empty(t, subs[0].Tags)
	assert.Equal(t, "boom", subs[0].Error)
}

func TestRecordSubmission_RejectsUnknownStatus(t *testing.T) {
	s := testutil.NewTestStore(t)

	err := s.RecordSubmission(context.Background(), model.Submission{
		Source: "file", MessageID: "x", Status: "pending",
	})
	assert.Error(t, err)
}

func TestGetSubmissions_FilterAndOrder(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	testutil.Seed(t, s,
		model.Submission{Title: "first report", CreatedAt: base},
		model.Submission{Title: "second", Status: model.SubmissionFailed, CreatedAt: base.Add(time.Hour)},
		model.Submission{Title: "third report", CreatedAt: base.Add(2 * time.Hour)},
	)

	tests := []struct {
		name   string
		filter store.SubmissionFilter
		want   []string
	}{
		{"all newest first", store.SubmissionFilter{}, []string{"third report", "second", "first report"}},
		{"status", store.SubmissionFilter{Status: ptr(model.SubmissionSuccess)}, []string{"third report", "first report"}},
		{"query", store.SubmissionFilter{Query: ptr("report")}, []string{"third report", "first report"}},
		{"limit", store.SubmissionFilter{Limit: 1}, []string{"third report"}},
		{"offset only", store.SubmissionFilter{Offset: 2}, []string{"first report"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subs, err := s.GetSubmissions(ctx, tt.filter)
			require.NoError(t, err)

			var titles []string
			for _, sub := range subs {
				titles = append(titles, sub.Title)
			}
			assert.Equal(t, tt.want, titles)
		})
	}
}

func TestFindByMessage(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	testutil.Seed(t, s,
		model.Submission{Source: "imap", MessageID: "7"},
		model.Submission{Source: "file", MessageID: "7"},
	)

	subs, err := s.FindByMessage(ctx, "imap", "7")
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, "imap", subs[0].Source)

	subs, err = s.FindByMessage(ctx, "imap", "8")
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestSQLiteStore_ImplementsStore(t *testing.T) {
	var _ store.Store = testutil.NewTestStore(t)
}
