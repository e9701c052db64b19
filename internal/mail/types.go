package mail

import (
	"context"
	"errors"
)

// ErrNoActiveMessage is returned when the source has no message to hand out,
// e.g. an empty mailbox or a missing file.
var ErrNoActiveMessage = errors.New("no active message")

// Body content types the note can be built from.
const (
	ContentTypeHTML  = "text/html"
	ContentTypePlain = "text/plain"
)

// Part is one node of a message's MIME tree. Leaves that are attachments
// carry a filename and size but no body.
type Part struct {
	// PartName is the dotted 1-based position of the part, "1" for the root.
	PartName    string
	ContentType string
	Body        string
	Filename    string
	Attachment  bool
	Size        int64
	Parts       []*Part
}

// Message is an immutable snapshot of the message being submitted.
type Message struct {
	// ID identifies the message within its source (file path, IMAP UID).
	ID      string
	Subject string
	Author  string
	Tags    []string
	Root    *Part
}

// Attachment describes a message attachment. Content is fetched on demand
// with Source.FetchAttachment.
type Attachment struct {
	Name        string
	PartName    string
	ContentType string
	Size        int64
}

// Source is where the active message comes from.
type Source interface {
	// Kind names the source for logs and history ("file", "imap").
	Kind() string

	// ActiveMessage returns the message currently selected in the source.
	// It fails with ErrNoActiveMessage if there is none.
	ActiveMessage(ctx context.Context) (*Message, error)

	// ListAttachments returns the attachments of a message in tree order.
	ListAttachments(ctx context.Context, messageID string) ([]Attachment, error)

	// FetchAttachment returns the decoded bytes of one attachment part.
	FetchAttachment(ctx context.Context, messageID, partName string) ([]byte, error)
}
