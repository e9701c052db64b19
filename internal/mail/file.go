package mail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// FileSource serves a single raw message stored in a file (.eml) or read
// from a stream. The message is the "displayed" one for the whole run.
type FileSource struct {
	path string
	raw  []byte
}

// NewFileSource returns a source for the message file at path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// NewReaderSource buffers r once and serves it as a message named name.
func NewReaderSource(name string, r io.Reader) (*FileSource, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading message from %s: %w", name, err)
	}
	return &FileSource{path: name, raw: raw}, nil
}

// Kind returns "file".
func (s *FileSource) Kind() string {
	return "file"
}

// ActiveMessage parses the file. A missing, unnamed or empty file yields
// ErrNoActiveMessage.
func (s *FileSource) ActiveMessage(_ context.Context) (*Message, error) {
	raw, err := s.load(s.path)
	if err != nil {
		return nil, err
	}
	return Parse(s.path, raw)
}

// ListAttachments returns the attachments found in the message tree.
func (s *FileSource) ListAttachments(
	_ context.Context,
	messageID string,
) ([]Attachment, error) {
	raw, err := s.load(messageID)
	if err != nil {
		return nil, err
	}
	msg, err := Parse(messageID, raw)
	if err != nil {
		return nil, err
	}
	return msg.Attachments(), nil
}

// FetchAttachment returns the decoded content of one attachment.
func (s *FileSource) FetchAttachment(
	_ context.Context,
	messageID, partName string,
) ([]byte, error) {
	raw, err := s.load(messageID)
	if err != nil {
		return nil, err
	}
	return ReadPart(raw, partName)
}

// load returns the raw message bytes for id, which must name this source's
// message.
func (s *FileSource) load(id string) ([]byte, error) {
	if s.path == "" {
		return nil, ErrNoActiveMessage
	}
	if id != s.path {
		return nil, fmt.Errorf("message %q not served by file source %q", id, s.path)
	}

	raw := s.raw
	if raw == nil {
		var err error
		raw, err = os.ReadFile(s.path)
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s does not exist", ErrNoActiveMessage, s.path)
		}
		if err != nil {
			return nil, fmt.Errorf("reading message file %s: %w", s.path, err)
		}
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrNoActiveMessage, s.path)
	}
	return raw, nil
}
