package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nhle/mail2joplin/internal/credential"
	"github.com/nhle/mail2joplin/internal/joplin"
	"github.com/nhle/mail2joplin/internal/keys"
	"github.com/nhle/mail2joplin/internal/mail"
	"github.com/nhle/mail2joplin/internal/model"
	"github.com/nhle/mail2joplin/internal/settings"
	"github.com/nhle/mail2joplin/internal/store"
	"github.com/nhle/mail2joplin/internal/submit"
	"github.com/nhle/mail2joplin/internal/theme"
	"github.com/nhle/mail2joplin/internal/ui/confirm"
)

type sendOptions struct {
	imap bool
	uid  uint32
	yes  bool
}

func newSendCmd() *cobra.Command {
	var opts sendOptions

	cmd := &cobra.Command{
		Use:   "send [file.eml|-]",
		Short: "Send a message to Joplin as a note",
		Long: `Read a message and create a Joplin note from it.

The message is read from the given .eml file, from standard input when the
argument is "-" or missing, or from the configured IMAP mailbox with --imap.
A preview is shown before sending unless --yes is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := model.LoadConfig(configPath)
			if err != nil {
				return err
			}

			src, err := newSource(cfg, opts, args, cmd.InOrStdin())
			if err != nil {
				return err
			}

			reader := settings.NewReader(configPath, settings.WithLogger(logger))
			flowOpts := []submit.Option{submit.WithLogger(logger)}

			var history store.Store
			if cfg.History.Enabled {
				st, err := store.NewSQLiteStore(cfg.History.Path)
				if err != nil {
					logger.Warn("history disabled", zap.Error(err))
				} else {
					defer st.Close()
					history = st
					flowOpts = append(flowOpts, submit.WithRecorder(st))
				}
			}

			newFlow := func(src mail.Source) *submit.Flow {
				return submit.New(reader, src, newNoteClient, flowOpts...)
			}
			out := cmd.OutOrStdout()

			if opts.yes {
				res, err := newFlow(src).Run(ctx)
				printResult(out, res, err)
				return err
			}

			s, msg, err := loadPreview(ctx, reader, src)
			if err != nil {
				return err
			}

			if history != nil {
				prev, err := history.FindByMessage(ctx, src.Kind(), msg.ID)
				if err != nil {
					logger.Debug("history lookup failed", zap.Error(err))
				}
				if n := countSuccessful(prev); n > 0 {
					fmt.Fprintln(out, theme.WarningStyle.Render(
						fmt.Sprintf("This message was already sent %d time(s).", n),
					))
				}
			}

			preview := confirm.NewPreview(src.Kind(), msg, submit.NoteTags(s, msg))
			progOpts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithOutput(out)}
			if readsStdin(opts, args) {
				// stdin holds the message, read keys from the terminal
				progOpts = append(progOpts, tea.WithInputTTY())
			}

			// the flow sends the message that was previewed
			flow := newFlow(mail.Pin(src, msg))
			final, err := tea.NewProgram(
				confirm.New(ctx, preview, flow.Run, keys.DefaultKeyMap()),
				progOpts...,
			).Run()
			if err != nil {
				return fmt.Errorf("running confirm screen: %w", err)
			}

			m, ok := final.(confirm.Model)
			if !ok || m.Cancelled() {
				fmt.Fprintln(out, "Cancelled.")
				return nil
			}

			printResult(out, m.Result(), m.Err())
			return m.Err()
		},
	}

	cmd.Flags().BoolVar(&opts.imap, "imap", false, "read the message from the configured IMAP mailbox")
	cmd.Flags().Uint32Var(&opts.uid, "uid", 0, "IMAP UID of the message (default: newest)")
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "send without the confirm screen")

	return cmd
}

// newSource picks the mail source from the flags and arguments.
func newSource(
	cfg *model.AppConfig,
	opts sendOptions,
	args []string,
	stdin io.Reader,
) (mail.Source, error) {
	if opts.imap {
		if len(args) > 0 {
			return nil, errors.New("--imap does not take a file argument")
		}
		if cfg.IMAP.Host == "" || cfg.IMAP.Username == "" {
			return nil, errors.New("imap.host and imap.username must be configured")
		}

		password, err := credential.Get(credential.IMAPPasswordKey(cfg.IMAP.Username))
		if err != nil {
			return nil, fmt.Errorf("IMAP password for %s: %w", cfg.IMAP.Username, err)
		}

		return mail.NewIMAPSource(mail.IMAPConfig{
			Host:     cfg.IMAP.Host,
			Port:     cfg.IMAP.Port,
			Username: cfg.IMAP.Username,
			Password: password,
			Mailbox:  cfg.IMAP.Mailbox,
			TLS:      cfg.IMAP.TLS,
			UID:      opts.uid,
		}), nil
	}

	if opts.uid != 0 {
		return nil, errors.New("--uid requires --imap")
	}

	if readsStdin(opts, args) {
		return mail.NewReaderSource("stdin", stdin)
	}
	return mail.NewFileSource(args[0]), nil
}

// loadPreview reads the settings and the message shown on the confirm
// screen. The token is checked before the source is read.
func loadPreview(
	ctx context.Context,
	loader submit.SettingsLoader,
	src mail.Source,
) (*model.Settings, *mail.Message, error) {
	s, err := loader.Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("loading settings: %w", err)
	}
	if s.Token == "" {
		return nil, nil, submit.ErrMissingToken
	}

	msg, err := src.ActiveMessage(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("getting active message: %w", err)
	}
	return s, msg, nil
}

func readsStdin(opts sendOptions, args []string) bool {
	return !opts.imap && (len(args) == 0 || args[0] == "-")
}

func newNoteClient(s *model.Settings) submit.NoteClient {
	return joplin.NewClient(
		s.BaseURL(),
		s.Token,
		joplin.WithTimeout(time.Duration(s.TimeoutSec)*time.Second),
		joplin.WithLogger(logger),
	)
}

func countSuccessful(subs []model.Submission) int {
	n := 0
	for _, s := range subs {
		if s.Status == model.SubmissionSuccess {
			n++
		}
	}
	return n
}

func printResult(out io.Writer, res *submit.Result, err error) {
	if err != nil {
		fmt.Fprintln(out, theme.ErrorStyle.Render("Failed: ")+err.Error())
		if res != nil && res.NoteID != "" {
			fmt.Fprintf(out, "A partial note was created: %s\n", res.NoteID)
		}
		return
	}

	fmt.Fprintln(out, theme.SuccessStyle.Render("Sent to Joplin: ")+res.Title)
	fmt.Fprintf(out, "  note:        %s\n", res.NoteID)
	if len(res.Tags) > 0 {
		fmt.Fprintf(out, "  tags:        %s\n", strings.Join(res.Tags, ", "))
	}
	if len(res.Attachments) > 0 {
		names := make([]string, 0, len(res.Attachments))
		for _, a := range res.Attachments {
			names = append(names, a.Name)
		}
		fmt.Fprintf(out, "  attachments: %s\n", strings.Join(names, ", "))
		if !res.BodyUpdated {
			fmt.Fprintln(out, theme.WarningStyle.Render(
				"  attachment links could not be added to the note body",
			))
		}
	}
}
