// Package configform holds the huh forms used by `mail2joplin configure`.
package configform

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/nhle/mail2joplin/internal/credential"
	"github.com/nhle/mail2joplin/internal/joplin"
	"github.com/nhle/mail2joplin/internal/model"
)

// Values are the fields edited by the forms. huh binds to them directly.
type Values struct {
	Scheme       string
	Host         string
	Port         string
	Token        string
	NoteFormat   string
	ParentFolder string
	Tags         string

	// UseIMAP enables the IMAP fields below.
	UseIMAP      bool
	IMAPHost     string
	IMAPPort     string
	IMAPUsername string
	IMAPPassword string
	IMAPMailbox  string
	IMAPTLS      bool
}

// FromConfig pre-fills the form from cfg. Secrets are never pre-filled.
func FromConfig(cfg *model.AppConfig) *Values {
	return &Values{
		Scheme:       cfg.Joplin.Scheme,
		Host:         cfg.Joplin.Host,
		Port:         cfg.Joplin.Port,
		NoteFormat:   cfg.Joplin.NoteFormat,
		ParentFolder: cfg.Joplin.ParentFolder,
		Tags:         cfg.Joplin.Tags,
		UseIMAP:      cfg.IMAP.Host != "",
		IMAPHost:     cfg.IMAP.Host,
		IMAPPort:     cfg.IMAP.Port,
		IMAPUsername: cfg.IMAP.Username,
		IMAPMailbox:  cfg.IMAP.Mailbox,
		IMAPTLS:      cfg.IMAP.TLS,
	}
}

// Apply copies the edited values into cfg. The token and the IMAP password
// are left out: they go to the keyring. With UseIMAP off the IMAP section
// is left unchanged.
func (v *Values) Apply(cfg *model.AppConfig) {
	cfg.Joplin.Scheme = v.Scheme
	cfg.Joplin.Host = strings.TrimSpace(v.Host)
	cfg.Joplin.Port = strings.TrimSpace(v.Port)
	cfg.Joplin.NoteFormat = v.NoteFormat
	cfg.Joplin.ParentFolder = v.ParentFolder
	cfg.Joplin.Tags = strings.TrimSpace(v.Tags)
	cfg.Joplin.Token = ""

	if !v.UseIMAP {
		return
	}
	cfg.IMAP.Host = strings.TrimSpace(v.IMAPHost)
	cfg.IMAP.Port = strings.TrimSpace(v.IMAPPort)
	cfg.IMAP.Username = strings.TrimSpace(v.IMAPUsername)
	cfg.IMAP.Mailbox = strings.TrimSpace(v.IMAPMailbox)
	cfg.IMAP.TLS = v.IMAPTLS
	if cfg.IMAP.Mailbox == "" {
		cfg.IMAP.Mailbox = model.DefaultMailbox
	}
}

// Secrets returns the keyring entries to write, keyed by keyring key.
// Empty secret fields keep the stored value and are left out.
func (v *Values) Secrets() map[string]string {
	out := make(map[string]string)
	if v.Token != "" {
		out[credential.JoplinTokenKey] = v.Token
	}
	user := strings.TrimSpace(v.IMAPUsername)
	if v.UseIMAP && user != "" && v.IMAPPassword != "" {
		out[credential.IMAPPasswordKey(user)] = v.IMAPPassword
	}
	return out
}

// Settings returns the values as a settings snapshot, used to test the
// connection before saving.
func (v *Values) Settings() *model.Settings {
	return &model.Settings{
		Scheme:       v.Scheme,
		Host:         strings.TrimSpace(v.Host),
		Port:         strings.TrimSpace(v.Port),
		Token:        v.Token,
		NoteFormat:   v.NoteFormat,
		ParentFolder: v.ParentFolder,
		Tags:         v.Tags,
	}
}

// ConnectionForm asks for the Web Clipper address, token and body format.
// An empty token keeps the stored one.
func ConnectionForm(v *Values) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Scheme").
				Options(
					huh.NewOption("http", "http"),
					huh.NewOption("https", "https"),
				).
				Value(&v.Scheme),
			huh.NewInput().
				Title("Host").
				Description("Host of the Joplin Web Clipper service").
				Placeholder(model.DefaultHost).
				Value(&v.Host).
				Validate(validateHost),
			huh.NewInput().
				Title("Port").
				Description("Web Clipper port (Joplin > Options > Web Clipper)").
				Placeholder(model.DefaultPort).
				Value(&v.Port).
				Validate(validatePort),
			huh.NewInput().
				Title("Authorization token").
				Description("Leave empty to keep the stored token").
				EchoMode(huh.EchoModePassword).
				Value(&v.Token),
			huh.NewSelect[string]().
				Title("Note format").
				Description("Body sent when the mail has both HTML and plain text").
				Options(
					huh.NewOption("HTML", model.NoteFormatHTML),
					huh.NewOption("Plain text", model.NoteFormatPlain),
				).
				Value(&v.NoteFormat),
		),
	)
}

// IMAPForm asks whether to read mail from an IMAP mailbox and, if so, for
// the account. An empty password keeps the stored one.
func IMAPForm(v *Values) *huh.Form {
	skip := func() bool { return !v.UseIMAP }

	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Read mail from an IMAP mailbox?").
				Description("Used by `mail2joplin send --imap`").
				Value(&v.UseIMAP),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("IMAP host").
				Value(&v.IMAPHost).
				Validate(validateHost),
			huh.NewInput().
				Title("IMAP port").
				Placeholder(model.DefaultIMAPPort).
				Value(&v.IMAPPort).
				Validate(validatePort),
			huh.NewConfirm().
				Title("Implicit TLS").
				Description("No uses STARTTLS").
				Value(&v.IMAPTLS),
			huh.NewInput().
				Title("Username").
				Value(&v.IMAPUsername).
				Validate(validateRequired("username")),
			huh.NewInput().
				Title("Password").
				Description("Leave empty to keep the stored password").
				EchoMode(huh.EchoModePassword).
				Value(&v.IMAPPassword),
			huh.NewInput().
				Title("Mailbox").
				Placeholder(model.DefaultMailbox).
				Value(&v.IMAPMailbox),
		).WithHideFunc(skip),
	)
}

// NoteForm asks for the notebook and the tags added to every note.
func NoteForm(v *Values, folders []joplin.Folder) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Notebook").
				Description("Notebook new notes are filed into").
				Options(FolderOptions(folders)...).
				Value(&v.ParentFolder),
			huh.NewInput().
				Title("Tags").
				Description("Comma separated tags added to every note").
				Placeholder("mail, inbox").
				Value(&v.Tags),
		),
	)
}

// FolderOptions lists folders depth first, sorted by title within a parent,
// with children indented under their parent. The first option is Joplin's
// default notebook.
func FolderOptions(folders []joplin.Folder) []huh.Option[string] {
	children := make(map[string][]joplin.Folder)
	known := make(map[string]bool, len(folders))
	for _, f := range folders {
		known[f.ID] = true
	}
	for _, f := range folders {
		parent := f.ParentID
		if !known[parent] {
			parent = ""
		}
		children[parent] = append(children[parent], f)
	}
	for _, list := range children {
		sort.Slice(list, func(i, j int) bool {
			return strings.ToLower(list[i].Title) < strings.ToLower(list[j].Title)
		})
	}

	opts := []huh.Option[string]{huh.NewOption("(default notebook)", "")}
	var walk func(parent string, depth int)
	walk = func(parent string, depth int) {
		for _, f := range children[parent] {
			label := strings.Repeat("  ", depth) + f.Title
			opts = append(opts, huh.NewOption(label, f.ID))
			walk(f.ID, depth+1)
		}
	}
	walk("", 0)
	return opts
}

func validateHost(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("host is required")
	}
	if strings.ContainsAny(s, "/ ") {
		return fmt.Errorf("host must not contain a scheme or path")
	}
	return nil
}

func validateRequired(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func validatePort(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("port is required")
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("port must be a number")
	}
	if n < 1 || n > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	return nil
}
