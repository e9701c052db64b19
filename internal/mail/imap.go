package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
)

// IMAPConfig holds the connection settings for an IMAPSource.
type IMAPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	Mailbox  string
	TLS      bool

	// UID selects the active message. Zero means the newest message in
	// the mailbox.
	UID uint32
}

// IMAPSource reads the active message from an IMAP mailbox with go-imap v2.
// Every operation opens its own connection. Raw messages are kept per UID
// so attachments are read from the copy fetched first.
type IMAPSource struct {
	cfg IMAPConfig

	mu  sync.Mutex
	raw map[imap.UID][]byte
}

// NewIMAPSource creates a new IMAP mail source.
func NewIMAPSource(cfg IMAPConfig) *IMAPSource {
	if cfg.Mailbox == "" {
		cfg.Mailbox = "INBOX"
	}
	return &IMAPSource{cfg: cfg, raw: make(map[imap.UID][]byte)}
}

// Kind returns "imap".
func (s *IMAPSource) Kind() string {
	return "imap"
}

// dial opens the connection and negotiates TLS, implicit or STARTTLS.
// Both steps stop when ctx is done.
func (s *IMAPSource) dial(ctx context.Context, addr string) (*imapclient.Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	if !s.cfg.TLS {
		stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
		defer stop()
		return imapclient.NewStartTLS(conn, &imapclient.Options{
			TLSConfig: &tls.Config{ServerName: s.cfg.Host},
		})
	}

	tlsConn := tls.Client(conn, &tls.Config{
		ServerName: s.cfg.Host,
		NextProtos: []string{"imap"},
	})
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return imapclient.New(tlsConn, nil), nil
}

// connect establishes a connection to the IMAP server, authenticates, and
// selects the configured mailbox. Cancelling ctx closes the connection.
// The caller must call release when done.
func (s *IMAPSource) connect(
	ctx context.Context,
) (*imapclient.Client, *imap.SelectData, func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, nil, err
	}

	addr := net.JoinHostPort(s.cfg.Host, s.cfg.Port)
	client, err := s.dial(ctx, addr)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connecting to IMAP %s: %w", addr, ctxErr(ctx, err))
	}

	stop := context.AfterFunc(ctx, func() { _ = client.Close() })
	release := func() {
		stop()
		_ = client.Logout().Wait()
	}

	if err := client.Login(s.cfg.Username, s.cfg.Password).Wait(); err != nil {
		release()
		return nil, nil, nil, fmt.Errorf(
			"IMAP authentication failed for %s: %w", s.cfg.Username, ctxErr(ctx, err),
		)
	}

	selected, err := client.Select(s.cfg.Mailbox, &imap.SelectOptions{ReadOnly: true}).Wait()
	if err != nil {
		release()
		return nil, nil, nil, fmt.Errorf("selecting %s: %w", s.cfg.Mailbox, ctxErr(ctx, err))
	}

	return client, selected, release, nil
}

// ctxErr attaches the context error to the I/O error it caused.
func ctxErr(ctx context.Context, err error) error {
	if cerr := ctx.Err(); cerr != nil {
		return errors.Join(cerr, err)
	}
	return err
}

// ActiveMessage fetches and parses the configured (or newest) message.
// IMAP keywords on the message become its tags.
func (s *IMAPSource) ActiveMessage(ctx context.Context) (*Message, error) {
	client, selected, release, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	if selected.NumMessages == 0 {
		return nil, fmt.Errorf("%w: mailbox %s is empty", ErrNoActiveMessage, s.cfg.Mailbox)
	}

	uid := imap.UID(s.cfg.UID)
	if uid == 0 {
		searchData, err := client.UIDSearch(&imap.SearchCriteria{}, nil).Wait()
		if err != nil {
			return nil, fmt.Errorf("searching %s: %w", s.cfg.Mailbox, ctxErr(ctx, err))
		}
		uid = newestUID(searchData.AllUIDs())
		if uid == 0 {
			return nil, fmt.Errorf("%w: mailbox %s is empty", ErrNoActiveMessage, s.cfg.Mailbox)
		}
	}

	raw, flags, err := fetchRaw(client, uid)
	if err != nil {
		return nil, ctxErr(ctx, err)
	}
	s.remember(uid, raw)

	id := strconv.FormatUint(uint64(uid), 10)
	msg, err := Parse(id, raw)
	if err != nil {
		return nil, err
	}
	msg.Tags = dedupe(append(keywordsFromFlags(flags), msg.Tags...))

	return msg, nil
}

// ListAttachments lists the attachments of a message.
func (s *IMAPSource) ListAttachments(
	ctx context.Context,
	messageID string,
) ([]Attachment, error) {
	raw, err := s.fetchByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	msg, err := Parse(messageID, raw)
	if err != nil {
		return nil, err
	}
	return msg.Attachments(), nil
}

// FetchAttachment decodes one part of a message.
func (s *IMAPSource) FetchAttachment(
	ctx context.Context,
	messageID, partName string,
) ([]byte, error) {
	raw, err := s.fetchByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	return ReadPart(raw, partName)
}

// fetchByID returns the raw message, fetching it only when it is not
// cached yet.
func (s *IMAPSource) fetchByID(ctx context.Context, messageID string) ([]byte, error) {
	n, err := parseUID(messageID)
	if err != nil {
		return nil, err
	}
	uid := imap.UID(n)

	if raw, ok := s.cached(uid); ok {
		return raw, nil
	}

	client, _, release, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	raw, _, err := fetchRaw(client, uid)
	if err != nil {
		return nil, ctxErr(ctx, err)
	}
	s.remember(uid, raw)
	return raw, nil
}

func (s *IMAPSource) cached(uid imap.UID) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.raw[uid]
	return raw, ok
}

func (s *IMAPSource) remember(uid imap.UID, raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.raw[uid] = raw
}

// fetchRaw fetches BODY.PEEK[] and the flags of one message.
func fetchRaw(
	client *imapclient.Client,
	uid imap.UID,
) ([]byte, []imap.Flag, error) {
	bodySection := &imap.FetchItemBodySection{Peek: true}
	fetchOpts := &imap.FetchOptions{
		Flags:       true,
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	}

	fetchCmd := client.Fetch(imap.UIDSetNum(uid), fetchOpts)
	defer fetchCmd.Close()

	msg := fetchCmd.Next()
	if msg == nil {
		return nil, nil, fmt.Errorf("%w: message UID %d not found", ErrNoActiveMessage, uid)
	}

	buf, err := msg.Collect()
	if err != nil {
		return nil, nil, fmt.Errorf("collecting message data: %w", err)
	}

	raw := buf.FindBodySection(bodySection)
	if raw == nil {
		return nil, nil, fmt.Errorf("message UID %d returned no body", uid)
	}

	if err := fetchCmd.Close(); err != nil {
		return nil, nil, fmt.Errorf("closing fetch: %w", err)
	}

	return raw, buf.Flags, nil
}

// keywordsFromFlags keeps user keywords (Thunderbird tags) and drops
// system flags such as \Seen.
func keywordsFromFlags(flags []imap.Flag) []string {
	var out []string
	for _, f := range flags {
		s := string(f)
		if s == "" || strings.HasPrefix(s, `\`) || strings.EqualFold(s, "$NotJunk") ||
			strings.EqualFold(s, "$Junk") || strings.EqualFold(s, "NonJunk") {
			continue
		}
		out = append(out, s)
	}
	return out
}

// newestUID returns the highest UID, or zero for an empty list.
func newestUID(uids []imap.UID) imap.UID {
	if len(uids) == 0 {
		return 0
	}
	return slices.Max(uids)
}

// parseUID converts a message id to a UID.
func parseUID(messageID string) (uint32, error) {
	uid, err := strconv.ParseUint(messageID, 10, 32)
	if err != nil || uid == 0 {
		return 0, errors.Join(
			fmt.Errorf("invalid IMAP UID %q", messageID), err,
		)
	}
	return uint32(uid), nil
}
