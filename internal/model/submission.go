package model

import "time"

// Submission status constants.
const (
	SubmissionSuccess = "success"
	SubmissionFailed  = "failed"
)

// Submission records one attempt to push a message into Joplin.
type Submission struct {
	ID string `json:"id" db:"id"`

	// Source names the mail source kind ("file" or "imap").
	Source string `json:"source" db:"source"`

	// MessageID is the message identifier within its source
	// (file path or IMAP UID).
	MessageID string `json:"message_id" db:"message_id"`

	Title string `json:"title" db:"title"`

	// NoteID is the Joplin note id, empty when creation failed.
	NoteID string `json:"note_id" db:"note_id"`

	Tags        []string `json:"tags" db:"-"`
	Attachments int      `json:"attachments" db:"attachments"`

	Status string `json:"status" db:"status"`
	Error  string `json:"error" db:"error"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
