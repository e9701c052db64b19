package cmd

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nhle/mail2joplin/internal/credential"
	"github.com/nhle/mail2joplin/internal/joplin"
	"github.com/nhle/mail2joplin/internal/model"
	"github.com/nhle/mail2joplin/internal/settings"
	"github.com/nhle/mail2joplin/internal/theme"
	"github.com/nhle/mail2joplin/internal/ui/configform"
)

type configureOptions struct {
	reset bool
}

func newConfigureCmd() *cobra.Command {
	var opts configureOptions

	cmd := &cobra.Command{
		Use:   "configure",
		Short: "Set up the Joplin connection",
		Long: `Interactively set the Joplin Web Clipper address, token, note format,
notebook and tags, and optionally the IMAP mailbox used by send --imap.
The connection is tested before anything is saved. The token and the IMAP
password are stored in the system keyring, everything else in the config
file.

With --reset the stored token and IMAP password are removed from the
keyring instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			cfg, err := model.LoadConfig(configPath)
			if err != nil {
				return err
			}

			if opts.reset {
				removed, err := resetSecrets(cfg, credential.Delete)
				printReset(out, removed)
				return err
			}

			values := configform.FromConfig(cfg)
			if err := configform.ConnectionForm(values).Run(); err != nil {
				return err
			}

			token := values.Token
			if token == "" {
				existing, err := settings.NewReader(configPath, settings.WithLogger(logger)).Load(ctx)
				if err != nil {
					return err
				}
				token = existing.Token
			}
			if token == "" {
				return errors.New("an authorization token is required")
			}

			client := joplin.NewClient(
				values.Settings().BaseURL(),
				token,
				joplin.WithTimeout(time.Duration(cfg.Joplin.TimeoutSec)*time.Second),
				joplin.WithLogger(logger),
			)

			if err := client.Ping(ctx); err != nil {
				return fmt.Errorf("joplin web clipper not reachable: %w", err)
			}

			folders, err := client.ListFolders(ctx)
			if err != nil {
				return fmt.Errorf("listing notebooks (is the token correct?): %w", err)
			}
			logger.Debug("notebooks loaded", zap.Int("count", len(folders)))

			if err := configform.NoteForm(values, folders).Run(); err != nil {
				return err
			}
			if err := configform.IMAPForm(values).Run(); err != nil {
				return err
			}

			if err := saveSecrets(values.Secrets(), credential.Set); err != nil {
				return err
			}

			values.Apply(cfg)
			if err := model.SaveConfig(configPath, cfg); err != nil {
				return err
			}

			fmt.Fprintln(out, theme.SuccessStyle.Render("Configuration saved to ")+configPath)
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.reset, "reset", false, "remove the stored token and IMAP password from the keyring")

	return cmd
}

// saveSecrets writes every secret with set, in key order.
func saveSecrets(secrets map[string]string, set func(key, value string) error) error {
	keys := make([]string, 0, len(secrets))
	for k := range secrets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := set(k, secrets[k]); err != nil {
			return err
		}
	}
	return nil
}

// resetSecrets removes the Joplin token and, when an IMAP account is
// configured, its password. Keys without a stored value are skipped.
// It returns the keys that were removed.
func resetSecrets(cfg *model.AppConfig, del func(key string) error) ([]string, error) {
	keys := []string{credential.JoplinTokenKey}
	if cfg.IMAP.Username != "" {
		keys = append(keys, credential.IMAPPasswordKey(cfg.IMAP.Username))
	}

	var removed []string
	for _, k := range keys {
		err := del(k)
		if errors.Is(err, credential.ErrNotFound) {
			continue
		}
		if err != nil {
			return removed, err
		}
		removed = append(removed, k)
	}
	return removed, nil
}

func printReset(out io.Writer, removed []string) {
	if len(removed) == 0 {
		fmt.Fprintln(out, "No stored credentials.")
		return
	}
	for _, k := range removed {
		fmt.Fprintln(out, theme.SuccessStyle.Render("Removed ")+k)
	}
}
