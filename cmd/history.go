package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/mail2joplin/internal/model"
	"github.com/nhle/mail2joplin/internal/store"
	"github.com/nhle/mail2joplin/internal/theme"
)

type historyOptions struct {
	limit  int
	offset int
	failed bool
	query  string
}

func (o historyOptions) filter() store.SubmissionFilter {
	f := store.SubmissionFilter{Limit: o.limit, Offset: o.offset}
	if o.failed {
		status := model.SubmissionFailed
		f.Status = &status
	}
	if o.query != "" {
		q := o.query
		f.Query = &q
	}
	return f
}

func newHistoryCmd() *cobra.Command {
	var opts historyOptions

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List messages sent to Joplin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openHistory()
			if err != nil {
				return err
			}
			defer st.Close()

			subs, err := st.GetSubmissions(cmd.Context(), opts.filter())
			if err != nil {
				return err
			}

			printHistory(cmd.OutOrStdout(), subs)
			return nil
		},
	}

	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 20, "maximum number of entries to show")
	cmd.Flags().IntVar(&opts.offset, "offset", 0, "number of newest entries to skip")
	cmd.Flags().BoolVar(&opts.failed, "failed", false, "only show failed submissions")
	cmd.Flags().StringVarP(&opts.query, "query", "q", "", "only show entries whose title or message id contains this text")

	cmd.AddCommand(newHistoryShowCmd())

	return cmd
}

func newHistoryShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one history entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openHistory()
			if err != nil {
				return err
			}
			defer st.Close()

			return showSubmission(cmd.Context(), st, args[0], cmd.OutOrStdout())
		},
	}
}

// openHistory opens the configured history database.
func openHistory() (*store.SQLiteStore, error) {
	cfg, err := model.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if !cfg.History.Enabled {
		return nil, fmt.Errorf("history is disabled in %s", configPath)
	}
	return store.NewSQLiteStore(cfg.History.Path)
}

func showSubmission(ctx context.Context, st store.Store, id string, out io.Writer) error {
	sub, err := st.GetSubmissionByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("no history entry with id %s", id)
	}
	if err != nil {
		return err
	}

	field := func(label, value string) {
		if value != "" {
			fmt.Fprintln(out, theme.LabelStyle.Render(label)+value)
		}
	}
	field("ID", sub.ID)
	field("Date", sub.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	field("Status", theme.StatusStyle(sub.Status).Render(sub.Status))
	field("Source", sub.Source)
	field("Message", sub.MessageID)
	field("Title", sub.Title)
	field("Note", sub.NoteID)
	field("Tags", strings.Join(sub.Tags, ", "))
	if sub.Attachments > 0 {
		field("Attachments", fmt.Sprint(sub.Attachments))
	}
	if sub.Error != "" {
		field("Error", theme.ErrorStyle.Render(sub.Error))
	}
	return nil
}

func printHistory(out io.Writer, subs []model.Submission) {
	if len(subs) == 0 {
		fmt.Fprintln(out, theme.HelpStyle.Render("No submissions recorded."))
		return
	}

	for _, s := range subs {
		fmt.Fprintf(out, "%s %s %s  %s\n",
			s.CreatedAt.Local().Format("2006-01-02 15:04"),
			theme.StatusStyle(s.Status).Render(s.Status),
			theme.SourceLabelStyle(s.Source).Render(s.Source),
			s.Title,
		)

		details := []string{"id " + s.ID}
		if s.NoteID != "" {
			details = append(details, "note "+s.NoteID)
		}
		if len(s.Tags) > 0 {
			details = append(details, "tags "+strings.Join(s.Tags, ","))
		}
		if s.Attachments > 0 {
			details = append(details, fmt.Sprintf("%d attachment(s)", s.Attachments))
		}
		if s.Error != "" {
			details = append(details, theme.ErrorStyle.Render(s.Error))
		}
		fmt.Fprintf(out, "    %s\n", strings.Join(details, " | "))
	}
}
