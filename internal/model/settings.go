package model

import (
	"fmt"
	"strings"
)

// Body formats accepted by Settings.NoteFormat.
const (
	NoteFormatHTML  = "text/html"
	NoteFormatPlain = "text/plain"
)

// ParseNoteFormat maps a configured body format onto NoteFormatHTML or
// NoteFormatPlain. The short forms "html" and "plain" are accepted.
func ParseNoteFormat(v string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case NoteFormatHTML, "html":
		return NoteFormatHTML, nil
	case NoteFormatPlain, "plain", "text":
		return NoteFormatPlain, nil
	}
	return "", fmt.Errorf("unknown note format %q (want %s or %s)", v, NoteFormatHTML, NoteFormatPlain)
}

// Setting names, as stored by the Thunderbird add-on.
// They are the keys understood by settings.Reader.
const (
	SettingScheme       = "joplinScheme"
	SettingHost         = "joplinHost"
	SettingPort         = "joplinPort"
	SettingToken        = "joplinToken"
	SettingNoteFormat   = "joplinNoteFormat"
	SettingParentFolder = "joplinNoteParentFolder"
	SettingTags         = "joplinNoteTags"
)

// AllSettings lists every setting name in a stable order.
var AllSettings = []string{
	SettingScheme,
	SettingHost,
	SettingPort,
	SettingToken,
	SettingNoteFormat,
	SettingParentFolder,
	SettingTags,
}

// Settings is the snapshot of configuration taken once at the start of a
// submission.
type Settings struct {
	Scheme       string
	Host         string
	Port         string
	Token        string
	NoteFormat   string
	ParentFolder string
	Tags         string
	TimeoutSec   int
}

// BaseURL returns scheme://host:port for the Joplin API.
func (s Settings) BaseURL() string {
	return fmt.Sprintf("%s://%s:%s", s.Scheme, s.Host, s.Port)
}

// UserTags splits the comma separated tag setting. Entries are trimmed and
// empty entries dropped; literal commas cannot be escaped.
func (s Settings) UserTags() []string {
	var tags []string
	for _, t := range strings.Split(s.Tags, ",") {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		tags = append(tags, t)
	}
	return tags
}
