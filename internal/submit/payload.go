package submit

import (
	"fmt"

	"github.com/nhle/mail2joplin/internal/joplin"
	"github.com/nhle/mail2joplin/internal/mail"
	"github.com/nhle/mail2joplin/internal/model"
)

// attachmentsHeader starts the attachment summary appended to the note.
const attachmentsHeader = "\n\n**Attachments**: "

// BuildPayload builds the note for msg. The HTML body is sent when HTML is
// preferred and present, or when there is no plain body; the plain body is
// sent when plain is preferred and present, or when there is no HTML body.
// Both may be set, in which case Joplin uses body_html.
func BuildPayload(
	s *model.Settings,
	msg *mail.Message,
	htmlBody, plainBody string,
) joplin.NotePayload {
	p := joplin.NotePayload{
		Title:    noteTitle(msg),
		ParentID: s.ParentFolder,
	}

	if (s.NoteFormat == model.NoteFormatHTML && htmlBody != "") || plainBody == "" {
		p.BodyHTML = htmlBody
	}
	if (s.NoteFormat == model.NoteFormatPlain && plainBody != "") || htmlBody == "" {
		p.Body = plainBody
	}
	return p
}

func noteTitle(msg *mail.Message) string {
	return msg.Subject + " from " + msg.Author
}

// NoteTags returns the tags a submission of msg will apply.
func NoteTags(s *model.Settings, msg *mail.Message) []string {
	return collectTags(s.UserTags(), msg.Tags)
}

// collectTags returns user tags followed by message tags, keeping the
// first occurrence of duplicates.
func collectTags(user, message []string) []string {
	seen := make(map[string]bool, len(user)+len(message))
	var out []string
	for _, group := range [][]string{user, message} {
		for _, t := range group {
			if t == "" || seen[t] {
				continue
			}
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// attachmentLink renders one line of the attachment summary.
func attachmentLink(name, resourceID string) string {
	return fmt.Sprintf("\n[%s](:/%s)", name, resourceID)
}
