package submit

import (
	"errors"
	"fmt"
	"strings"

	"github.com/nhle/mail2joplin/internal/joplin"
)

// ErrMissingToken is returned before any other work when no API token is
// configured.
var ErrMissingToken = errors.New(
	"API token not set: run `mail2joplin configure` or set MAIL2JOPLIN_JOPLIN_TOKEN",
)

// ErrEmptyBody is returned when the message has neither a text/plain nor a
// text/html body.
var ErrEmptyBody = errors.New("mail body is empty")

// AmbiguousTagError is returned when a tag title matches more than one
// existing tag.
type AmbiguousTagError struct {
	Title   string
	Matches []joplin.Tag
}

func (e *AmbiguousTagError) Error() string {
	ids := make([]string, 0, len(e.Matches))
	for _, m := range e.Matches {
		ids = append(ids, fmt.Sprintf("%s (%s)", m.Title, m.ID))
	}
	return fmt.Sprintf(
		"too many matching tags for %q: %s", e.Title, strings.Join(ids, ", "),
	)
}

// IsAmbiguousTag reports whether err (or any error in its chain) is an
// AmbiguousTagError.
func IsAmbiguousTag(err error) bool {
	var tagErr *AmbiguousTagError
	return errors.As(err, &tagErr)
}
