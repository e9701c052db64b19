package confirm

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/mail2joplin/internal/keys"
	"github.com/nhle/mail2joplin/internal/mail"
	"github.com/nhle/mail2joplin/internal/submit"
)

func testPreview() Preview {
	return Preview{
		Source:      "file",
		Subject:     "Quarterly report",
		Author:      "Alice <alice@example.com>",
		Tags:        []string{"work"},
		Attachments: []string{"report.pdf"},
		Body:        "Numbers attached.",
	}
}

func press(m tea.Model, k string) (tea.Model, tea.Cmd) {
	var msg tea.KeyMsg
	switch k {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	return m.Update(msg)
}

func TestNewPreview(t *testing.T) {
	msg := &mail.Message{
		Subject: "Hi",
		Author:  "Bob <bob@example.com>",
		Root: &mail.Part{PartName: "1", ContentType: "multipart/mixed", Parts: []*mail.Part{
			{PartName: "1.1", ContentType: mail.ContentTypeHTML, Body: "<p>hello</p>"},
			{PartName: "1.2", ContentType: "application/pdf", Filename: "a.pdf", Attachment: true},
		}},
	}

	p := NewPreview("imap", msg, []string{"inbox"})
	assert.Equal(t, Preview{
		Source:      "imap",
		Subject:     "Hi",
		Author:      "Bob <bob@example.com>",
		Tags:        []string{"inbox"},
		Attachments: []string{"a.pdf"},
		Body:        "<p>hello</p>",
	}, p)
}

func TestView_ShowsPreview(t *testing.T) {
	m := New(context.Background(), testPreview(), nil, keys.DefaultKeyMap())
	view := m.View()

	assert.Contains(t, view, "Send to Joplin")
	assert.Contains(t, view, "Quarterly report")
	assert.Contains(t, view, "Alice <alice@example.com>")
	assert.Contains(t, view, "report.pdf")
	assert.Contains(t, view, "Numbers attached.")
}

func TestQuitCancels(t *testing.T) {
	called := false
	run := func(context.Context) (*submit.Result, error) {
		called = true
		return nil, nil
	}

	for _, k := range []string{"q", "esc"} {
		t.Run(k, func(t *testing.T) {
			updated, cmd := press(New(context.Background(), testPreview(), run, keys.DefaultKeyMap()), k)
			require.NotNil(t, cmd)

			m := updated.(Model)
			assert.True(t, m.Cancelled())
			assert.Nil(t, m.Result())
		})
	}
	assert.False(t, called)
}

func TestSubmit(t *testing.T) {
	want := &submit.Result{NoteID: "n1"}
	run := func(context.Context) (*submit.Result, error) {
		return want, nil
	}

	updated, cmd := press(New(context.Background(), testPreview(), run, keys.DefaultKeyMap()), "enter")
	require.NotNil(t, cmd)
	m := updated.(Model)
	assert.Contains(t, m.View(), "Sending to Joplin")

	// Other keys are ignored while the submission runs.
	again, _ := press(m, "j")
	assert.Equal(t, stateSubmitting, again.(Model).state)

	updated, cmd = m.Update(submittedMsg{result: want})
	require.NotNil(t, cmd)
	m = updated.(Model)
	assert.Equal(t, want, m.Result())
	assert.NoError(t, m.Err())
	assert.False(t, m.Cancelled())
}

func TestSubmitError(t *testing.T) {
	boom := errors.New("boom")
	m := New(context.Background(), testPreview(), nil, keys.DefaultKeyMap())

	updated, _ := press(m, "y")
	updated, _ = updated.Update(submittedMsg{err: boom})
	assert.ErrorIs(t, updated.(Model).Err(), boom)
}

func TestSubmitCommandRunsFlow(t *testing.T) {
	calls := 0
	run := func(context.Context) (*submit.Result, error) {
		calls++
		return &submit.Result{NoteID: "n2"}, nil
	}

	m := New(context.Background(), testPreview(), run, keys.DefaultKeyMap())
	msg := m.submit()()

	assert.Equal(t, 1, calls)
	assert.Equal(t, submittedMsg{result: &submit.Result{NoteID: "n2"}}, msg)
}

func TestQuitWhileSubmittingCancelsRun(t *testing.T) {
	run := func(ctx context.Context) (*submit.Result, error) {
		<-ctx.Done()
		return &submit.Result{NoteID: "partial"}, ctx.Err()
	}

	updated, _ := press(New(context.Background(), testPreview(), run, keys.DefaultKeyMap()), "enter")
	m := updated.(Model)
	submitCmd := m.submit()

	updated, cmd := press(m, "q")
	assert.Nil(t, cmd)
	m = updated.(Model)
	assert.Contains(t, m.View(), "Stopping")
	assert.False(t, m.Cancelled())

	msg := submitCmd()
	updated, cmd = m.Update(msg)
	require.NotNil(t, cmd)
	m = updated.(Model)
	assert.ErrorIs(t, m.Err(), context.Canceled)
	assert.Equal(t, "partial", m.Result().NoteID)
}

func TestRunUsesParentContext(t *testing.T) {
	type ctxKey struct{}
	parent := context.WithValue(context.Background(), ctxKey{}, "v")

	var got any
	run := func(ctx context.Context) (*submit.Result, error) {
		got = ctx.Value(ctxKey{})
		return nil, nil
	}

	New(parent, testPreview(), run, keys.DefaultKeyMap()).submit()()
	assert.Equal(t, "v", got)
}
