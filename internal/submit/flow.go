// Package submit turns the active message into a Joplin note: it creates
// the note, applies tags, uploads attachments and links them from the note
// body. Every step runs to completion before the next one starts.
package submit

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/mail2joplin/internal/joplin"
	"github.com/nhle/mail2joplin/internal/logging"
	"github.com/nhle/mail2joplin/internal/mail"
	"github.com/nhle/mail2joplin/internal/model"
)

// SettingsLoader provides the settings snapshot for one run.
type SettingsLoader interface {
	Load(ctx context.Context) (*model.Settings, error)
}

// NoteClient is the subset of the Joplin API the flow uses.
type NoteClient interface {
	CreateNote(ctx context.Context, payload joplin.NotePayload) (*joplin.Note, error)
	FindTagByTitle(ctx context.Context, title string) ([]joplin.Tag, error)
	CreateTag(ctx context.Context, title string) (*joplin.Tag, error)
	AttachTagToNote(ctx context.Context, tagID, noteID string) error
	UploadResource(ctx context.Context, data []byte, title string) (*joplin.Resource, error)
	UpdateNoteBody(ctx context.Context, noteID, body string) error
}

// ClientFactory builds a NoteClient once settings are known.
type ClientFactory func(s *model.Settings) NoteClient

// Recorder stores the outcome of a run.
type Recorder interface {
	RecordSubmission(ctx context.Context, sub model.Submission) error
}

// UploadedAttachment pairs an attachment with the resource created for it.
type UploadedAttachment struct {
	Name       string
	ResourceID string
}

// Result describes what a run created in Joplin. On failure it holds
// whatever was created before the error.
type Result struct {
	MessageID   string
	Title       string
	NoteID      string
	Tags        []string
	Attachments []UploadedAttachment
	BodyUpdated bool
}

// Flow submits the active message of a mail source to Joplin.
type Flow struct {
	settings  SettingsLoader
	source    mail.Source
	newClient ClientFactory
	recorder  Recorder
	logger    *zap.Logger
	now       func() time.Time
}

// Option configures a Flow.
type Option func(*Flow)

// WithRecorder records every run that got as far as reading a message.
func WithRecorder(r Recorder) Option {
	return func(f *Flow) { f.recorder = r }
}

// WithLogger sets the flow logger.
func WithLogger(l *zap.Logger) Option {
	return func(f *Flow) { f.logger = l }
}

// New creates a Flow.
func New(
	settings SettingsLoader,
	source mail.Source,
	newClient ClientFactory,
	opts ...Option,
) *Flow {
	f := &Flow{
		settings:  settings,
		source:    source,
		newClient: newClient,
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Run executes the whole submission. Errors from every step except the
// final note body update abort the run and are returned.
func (f *Flow) Run(ctx context.Context) (*Result, error) {
	res := &Result{}
	var msg *mail.Message

	err := f.run(ctx, res, &msg)
	if msg != nil {
		f.record(ctx, res, err)
	}
	return res, err
}

func (f *Flow) run(ctx context.Context, res *Result, out **mail.Message) error {
	settings, err := f.settings.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}
	if settings.Token == "" {
		return ErrMissingToken
	}

	msg, err := f.source.ActiveMessage(ctx)
	if err != nil {
		return fmt.Errorf("getting active message: %w", err)
	}
	*out = msg
	res.MessageID = msg.ID
	res.Title = noteTitle(msg)

	log := f.logger.With(
		zap.String(logging.KeySource, f.source.Kind()),
		zap.String(logging.KeyMessageID, msg.ID),
	)

	htmlBody := mail.ExtractBodyByType(msg, mail.ContentTypeHTML)
	plainBody := mail.ExtractBodyByType(msg, mail.ContentTypePlain)
	if htmlBody == "" && plainBody == "" {
		return ErrEmptyBody
	}

	payload := BuildPayload(settings, msg, htmlBody, plainBody)
	log.Debug("sending note",
		logging.Step("create_note"),
		zap.Bool("html", payload.BodyHTML != ""),
		zap.Bool("plain", payload.Body != ""),
	)

	client := f.newClient(settings)

	note, err := client.CreateNote(ctx, payload)
	if err != nil {
		return err
	}
	res.NoteID = note.ID
	log = log.With(zap.String(logging.KeyNoteID, note.ID))

	for _, tag := range collectTags(settings.UserTags(), msg.Tags) {
		if err := f.applyTag(ctx, client, note.ID, tag); err != nil {
			return err
		}
		res.Tags = append(res.Tags, tag)
		log.Debug("tag attached", logging.Step("tags"), zap.String(logging.KeyTag, tag))
	}

	attachments, err := f.source.ListAttachments(ctx, msg.ID)
	if err != nil {
		return fmt.Errorf("listing attachments: %w", err)
	}

	summary := attachmentsHeader
	for _, att := range attachments {
		data, err := f.source.FetchAttachment(ctx, msg.ID, att.PartName)
		if err != nil {
			return fmt.Errorf("fetching attachment %q: %w", att.Name, err)
		}

		resource, err := client.UploadResource(ctx, data, att.Name)
		if err != nil {
			return err
		}
		res.Attachments = append(res.Attachments, UploadedAttachment{
			Name:       att.Name,
			ResourceID: resource.ID,
		})
		summary += attachmentLink(att.Name, resource.ID)
		log.Debug("attachment uploaded",
			logging.Step("attachments"),
			zap.String(logging.KeyFile, att.Name),
			zap.Int("bytes", len(data)),
		)
	}

	if err := client.UpdateNoteBody(ctx, note.ID, note.Body+summary); err != nil {
		log.Warn("appending attachment links failed", logging.Step("finalize"), zap.Error(err))
		return nil
	}
	res.BodyUpdated = true
	return nil
}

// applyTag attaches tag to the note, creating the tag when no tag with
// that title exists.
func (f *Flow) applyTag(ctx context.Context, client NoteClient, noteID, title string) error {
	matches, err := client.FindTagByTitle(ctx, title)
	if err != nil {
		return err
	}

	var tagID string
	switch len(matches) {
	case 0:
		tag, err := client.CreateTag(ctx, title)
		if err != nil {
			return err
		}
		tagID = tag.ID
	case 1:
		tagID = matches[0].ID
	default:
		return &AmbiguousTagError{Title: title, Matches: matches}
	}

	return client.AttachTagToNote(ctx, tagID, noteID)
}

func (f *Flow) record(ctx context.Context, res *Result, runErr error) {
	if f.recorder == nil {
		return
	}

	sub := model.Submission{
		Source:      f.source.Kind(),
		MessageID:   res.MessageID,
		Title:       res.Title,
		NoteID:      res.NoteID,
		Tags:        res.Tags,
		Attachments: len(res.Attachments),
		Status:      model.SubmissionSuccess,
		CreatedAt:   f.now(),
	}
	if runErr != nil {
		sub.Status = model.SubmissionFailed
		sub.Error = runErr.Error()
	}

	if err := f.recorder.RecordSubmission(context.WithoutCancel(ctx), sub); err != nil {
		f.logger.Warn("recording submission failed", zap.Error(err))
	}
}
