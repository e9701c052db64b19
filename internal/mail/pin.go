package mail

import "context"

// pinnedSource serves a message that was already read from the wrapped
// source, so a later ActiveMessage call cannot pick up a different one.
type pinnedSource struct {
	Source
	msg *Message
}

// Pin returns a Source whose ActiveMessage always returns msg. Attachments
// are still read from src.
func Pin(src Source, msg *Message) Source {
	return &pinnedSource{Source: src, msg: msg}
}

func (s *pinnedSource) ActiveMessage(ctx context.Context) (*Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.msg, nil
}
