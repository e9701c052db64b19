// Package confirm is the screen shown before a message is sent to Joplin.
// It previews the message and runs the submission once the user accepts.
package confirm

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/mail2joplin/internal/keys"
	"github.com/nhle/mail2joplin/internal/mail"
	"github.com/nhle/mail2joplin/internal/submit"
	"github.com/nhle/mail2joplin/internal/theme"
)

// RunFunc performs the submission.
type RunFunc func(ctx context.Context) (*submit.Result, error)

// Preview is what the screen shows about the message.
type Preview struct {
	Source      string
	Subject     string
	Author      string
	Tags        []string
	Attachments []string
	Body        string
}

// NewPreview summarizes msg for display. The body shown is the plain text
// part when there is one, otherwise the raw HTML.
func NewPreview(kind string, msg *mail.Message, tags []string) Preview {
	body := mail.ExtractBodyByType(msg, mail.ContentTypePlain)
	if body == "" {
		body = mail.ExtractBodyByType(msg, mail.ContentTypeHTML)
	}

	var names []string
	for _, a := range msg.Attachments() {
		names = append(names, a.Name)
	}

	return Preview{
		Source:      kind,
		Subject:     msg.Subject,
		Author:      msg.Author,
		Tags:        tags,
		Attachments: names,
		Body:        body,
	}
}

type state int

const (
	stateConfirm state = iota
	stateSubmitting
	stateAborting
	stateDone
)

// submittedMsg carries the outcome of the submission command.
type submittedMsg struct {
	result *submit.Result
	err    error
}

// Model is the Bubble Tea model for the confirm screen.
type Model struct {
	state     state
	preview   Preview
	run       RunFunc
	ctx       context.Context
	cancel    context.CancelFunc
	result    *submit.Result
	err       error
	cancelled bool

	spinner  spinner.Model
	viewport viewport.Model
	help     help.Model
	keys     *keys.KeyMap

	width, height int
}

// New creates the confirm screen for p. run is invoked with a context
// derived from ctx when the user accepts. Quitting while run is in progress
// cancels that context and the screen waits for run to return.
func New(ctx context.Context, p Preview, run RunFunc, k *keys.KeyMap) Model {
	ctx, cancel := context.WithCancel(ctx)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.ColorBlue)

	vp := viewport.New(80, 10)
	vp.SetContent(p.Body)

	return Model{
		preview:  p,
		run:      run,
		ctx:      ctx,
		cancel:   cancel,
		spinner:  sp,
		viewport: vp,
		help:     help.New(),
		keys:     k,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the confirm screen.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case submittedMsg:
		m.state = stateDone
		m.result = msg.result
		m.err = msg.err
		m.cancel()
		return m, tea.Quit

	case spinner.TickMsg:
		if m.state == stateSubmitting || m.state == stateAborting {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	return m, nil
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.state == stateSubmitting && key.Matches(msg, m.keys.Quit) {
		m.state = stateAborting
		m.cancel()
		return m, nil
	}
	if m.state != stateConfirm {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Submit):
		m.state = stateSubmitting
		return m, tea.Batch(m.spinner.Tick, m.submit())

	case key.Matches(msg, m.keys.Quit):
		m.cancelled = true
		m.cancel()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Down), key.Matches(msg, m.keys.Up):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	return m, nil
}

// submit returns a command that runs the submission.
func (m Model) submit() tea.Cmd {
	run, ctx := m.run, m.ctx
	return func() tea.Msg {
		res, err := run(ctx)
		return submittedMsg{result: res, err: err}
	}
}

// View renders the screen for the current state.
func (m Model) View() string {
	switch m.state {
	case stateSubmitting:
		return fmt.Sprintf("\n %s Sending to Joplin...\n", m.spinner.View())
	case stateAborting:
		return fmt.Sprintf("\n %s Stopping after the current request...\n", m.spinner.View())
	case stateDone:
		return ""
	}

	var b strings.Builder
	b.WriteString(theme.HeaderStyle.Render("Send to Joplin"))
	b.WriteString("\n\n")

	b.WriteString(m.field("Source", theme.SourceLabelStyle(m.preview.Source).Render(m.preview.Source)))
	b.WriteString(m.field("Subject", m.preview.Subject))
	b.WriteString(m.field("From", m.preview.Author))
	if len(m.preview.Tags) > 0 {
		b.WriteString(m.field("Tags", strings.Join(m.preview.Tags, ", ")))
	}
	if len(m.preview.Attachments) > 0 {
		b.WriteString(m.field("Attachments", strings.Join(m.preview.Attachments, ", ")))
	}
	b.WriteString("\n")

	b.WriteString(theme.PanelStyle.Render(m.viewport.View()))
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))

	return b.String()
}

func (m Model) field(label, value string) string {
	return theme.LabelStyle.Render(label) + value + "\n"
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width

	w := width - 6
	if w < 20 {
		w = 20
	}
	h := height - 14
	if h < 3 {
		h = 3
	}
	m.viewport.Width = w
	m.viewport.Height = h
}

// Result returns the submission result, or nil if nothing was submitted.
func (m Model) Result() *submit.Result {
	return m.result
}

// Err returns the submission error.
func (m Model) Err() error {
	return m.err
}

// Cancelled reports whether the user quit without submitting. Quitting
// during the submission is reported through Err instead.
func (m Model) Cancelled() bool {
	return m.cancelled
}
