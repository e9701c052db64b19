package mail

import "strings"

// ExtractBodyByType concatenates, in depth-first pre-order, the body of every
// part whose content type equals contentType. It returns "" when no part
// matches.
func ExtractBodyByType(msg *Message, contentType string) string {
	if msg == nil || msg.Root == nil {
		return ""
	}
	var sb strings.Builder
	collectBodies(msg.Root, contentType, &sb)
	return sb.String()
}

func collectBodies(p *Part, contentType string, sb *strings.Builder) {
	if p.Body != "" && p.ContentType == contentType {
		sb.WriteString(p.Body)
	}
	for _, child := range p.Parts {
		collectBodies(child, contentType, sb)
	}
}

// Attachments lists the attachment leaves of the tree in pre-order.
func (m *Message) Attachments() []Attachment {
	if m == nil || m.Root == nil {
		return nil
	}
	var out []Attachment
	var visit func(p *Part)
	visit = func(p *Part) {
		if p.Attachment {
			out = append(out, Attachment{
				Name:        p.Filename,
				PartName:    p.PartName,
				ContentType: p.ContentType,
				Size:        p.Size,
			})
		}
		for _, child := range p.Parts {
			visit(child)
		}
	}
	visit(m.Root)
	return out
}
