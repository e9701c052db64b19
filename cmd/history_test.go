package cmd

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mail2joplin/internal/model"
	"github.com/nhle/mail2joplin/tests/testutil"
)

func TestHistoryOptions_Filter(t *testing.T) {
	f := historyOptions{limit: 5, offset: 10}.filter()
	assert.Equal(t, 5, f.Limit)
	assert.Equal(t, 10, f.Offset)
	assert.Nil(t, f.Status)
	assert.Nil(t, f.Query)

	f = historyOptions{failed: true, query: "invoice"}.filter()
	require.NotNil(t, f.Status)
	assert.Equal(t, model.SubmissionFailed, *f.Status)
	require.NotNil(t, f.Query)
	assert.Equal(t, "invoice", *f.Query)
}

func TestHistoryOffsetPages(t *testing.T) {
	st := testutil.NewTestStore(t)
	base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	testutil.Seed(t, st,
		model.Submission{Title: "one", CreatedAt: base},
		model.Submission{Title: "two", CreatedAt: base.Add(time.Hour)},
		model.Submission{Title: "three", CreatedAt: base.Add(2 * time.Hour)},
	)

	subs, err := st.GetSubmissions(context.Background(), historyOptions{limit: 2, offset: 1}.filter())
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, "two", subs[0].Title)
	assert.Equal(t, "one", subs[1].Title)
}

func TestShowSubmission(t *testing.T) {
	st := testutil.NewTestStore(t)
	testutil.Seed(t, st, model.Submission{
		ID:          "sub-7",
		Title:       "Invoice from Shop",
		NoteID:      "n7",
		Tags:        []string{"bills", "shop"},
		Attachments: 1,
		Status:      model.SubmissionFailed,
		Error:       "too many matching tags: shop",
		CreatedAt:   time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC),
	})

	var buf bytes.Buffer
	require.NoError(t, showSubmission(context.Background(), st, "sub-7", &buf))
	out := buf.String()
	assert.Contains(t, out, "sub-7")
	assert.Contains(t, out, "Invoice from Shop")
	assert.Contains(t, out, "n7")
	assert.Contains(t, out, "bills, shop")
	assert.Contains(t, out, "too many matching tags")
}

func TestShowSubmission_Missing(t *testing.T) {
	st := testutil.NewTestStore(t)

	err := showSubmission(context.Background(), st, "nope", &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no history entry with id nope")
}
