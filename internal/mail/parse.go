package mail

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	gomail "github.com/emersion/go-message/mail"
)

// rootPartName is the part name of the top-level entity.
const rootPartName = "1"

// Parse reads a raw RFC 5322 message and builds its MIME tree. Text bodies
// are decoded (transfer encoding and charset); attachment bodies are only
// measured.
func Parse(id string, raw []byte) (*Message, error) {
	entity, err := readEntity(raw)
	if err != nil {
		return nil, err
	}

	header := gomail.Header{Header: entity.Header}

	subject, err := header.Subject()
	if err != nil {
		subject = header.Get("Subject")
	}

	root, err := buildPart(entity, rootPartName)
	if err != nil {
		return nil, fmt.Errorf("parsing message %s: %w", id, err)
	}

	return &Message{
		ID:      id,
		Subject: subject,
		Author:  formatAuthor(header),
		Tags:    headerTags(header),
		Root:    root,
	}, nil
}

// ReadPart returns the decoded body of the part named partName.
func ReadPart(raw []byte, partName string) ([]byte, error) {
	path, err := parsePartName(partName)
	if err != nil {
		return nil, err
	}

	entity, err := readEntity(raw)
	if err != nil {
		return nil, err
	}

	for depth, idx := range path {
		mr := entity.MultipartReader()
		if mr == nil {
			return nil, fmt.Errorf("part %s not found: %s is not multipart",
				partName, strings.Join(strings.Split(partName, ".")[:depth+1], "."))
		}

		var child *message.Entity
		for i := 1; i <= idx; i++ {
			child, err = mr.NextPart()
			if err == io.EOF {
				return nil, fmt.Errorf("part %s not found", partName)
			}
			if err != nil && !isCharsetWarning(err) {
				return nil, fmt.Errorf("reading part %s: %w", partName, err)
			}
		}
		entity = child
	}

	body, err := io.ReadAll(entity.Body)
	if err != nil {
		return nil, fmt.Errorf("reading part %s body: %w", partName, err)
	}
	return body, nil
}

// readEntity parses the top-level entity, tolerating unknown charsets and
// transfer encodings (the body is then left undecoded).
func readEntity(raw []byte) (*message.Entity, error) {
	entity, err := message.Read(bytes.NewReader(raw))
	if err != nil && !isCharsetWarning(err) {
		return nil, fmt.Errorf("reading message: %w", err)
	}
	return entity, nil
}

func isCharsetWarning(err error) bool {
	return message.IsUnknownCharset(err) || message.IsUnknownEncoding(err)
}

// buildPart converts an entity and its children into a Part tree.
func buildPart(e *message.Entity, name string) (*Part, error) {
	p := &Part{
		PartName:    name,
		ContentType: contentType(e.Header),
	}

	if mr := e.MultipartReader(); mr != nil {
		for i := 1; ; i++ {
			child, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil && !isCharsetWarning(err) {
				return nil, fmt.Errorf("reading part %s.%d: %w", name, i, err)
			}

			cp, err := buildPart(child, name+"."+strconv.Itoa(i))
			if err != nil {
				return nil, err
			}
			p.Parts = append(p.Parts, cp)
		}
		return p, nil
	}

	disposition, _, _ := e.Header.ContentDisposition()
	ah := gomail.AttachmentHeader{Header: e.Header}
	filename, _ := ah.Filename()
	if filename == "" {
		_, params, _ := e.Header.ContentType()
		filename = params["name"]
	}
	p.Filename = filename

	isText := p.ContentType == ContentTypePlain || p.ContentType == ContentTypeHTML
	p.Attachment = strings.EqualFold(disposition, "attachment") ||
		(filename != "" && !isText)

	if p.Attachment {
		n, err := io.Copy(io.Discard, e.Body)
		if err != nil {
			return nil, fmt.Errorf("reading attachment %s: %w", name, err)
		}
		p.Size = n
		if p.Filename == "" {
			p.Filename = "attachment-" + name
		}
		return p, nil
	}

	if strings.HasPrefix(p.ContentType, "text/") {
		body, err := io.ReadAll(e.Body)
		if err != nil {
			return nil, fmt.Errorf("reading part %s body: %w", name, err)
		}
		p.Body = string(body)
		p.Size = int64(len(body))
	}

	return p, nil
}

// contentType returns the lowercase media type, defaulting to text/plain
// when the header is absent.
func contentType(h message.Header) string {
	if h.Get("Content-Type") == "" {
		return ContentTypePlain
	}
	t, _, err := h.ContentType()
	if err != nil || t == "" {
		return "application/octet-stream"
	}
	return strings.ToLower(t)
}

// formatAuthor renders the first From address as "Name <addr>".
func formatAuthor(h gomail.Header) string {
	addrs, err := h.AddressList("From")
	if err != nil || len(addrs) == 0 {
		return strings.TrimSpace(h.Get("From"))
	}
	a := addrs[0]
	if a.Name == "" {
		return a.Address
	}
	return fmt.Sprintf("%s <%s>", a.Name, a.Address)
}

// headerTags reads Thunderbird's X-Mozilla-Keys (space separated) and the
// RFC 5322 Keywords header (comma separated).
func headerTags(h gomail.Header) []string {
	var tags []string
	tags = append(tags, strings.Fields(h.Get("X-Mozilla-Keys"))...)
	for _, kw := range strings.Split(h.Get("Keywords"), ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			tags = append(tags, kw)
		}
	}
	return dedupe(tags)
}

// parsePartName turns "1.2.3" into the child indexes below the root: [2 3].
func parsePartName(name string) ([]int, error) {
	fields := strings.Split(name, ".")
	if len(fields) == 0 || fields[0] != rootPartName {
		return nil, fmt.Errorf("invalid part name %q", name)
	}

	path := make([]int, 0, len(fields)-1)
	for _, f := range fields[1:] {
		n, err := strconv.Atoi(f)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid part name %q", name)
		}
		path = append(path, n)
	}
	return path, nil
}

// dedupe removes repeated entries while keeping first occurrences.
func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
