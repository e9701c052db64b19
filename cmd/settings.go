package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/mail2joplin/internal/model"
	"github.com/nhle/mail2joplin/internal/settings"
	"github.com/nhle/mail2joplin/internal/theme"
)

func newSettingsCmd() *cobra.Command {
	var showToken bool

	cmd := &cobra.Command{
		Use:   "settings [name...]",
		Short: "Print the resolved Joplin settings",
		Long: `Print the settings a submission would use, after the config file,
MAIL2JOPLIN_* environment variables and the keyring are applied. Names are
the setting keys of the Thunderbird add-on, e.g. joplinHost. Without names
every setting is printed. The token is masked unless --show-token is given.

With a single name only the value is printed, and the command fails when
the setting is unset.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			reader := settings.NewReader(configPath, settings.WithLogger(logger))
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				v, ok := reader.Get(args[0])
				if !ok {
					return fmt.Errorf("setting %s is not set", args[0])
				}
				fmt.Fprintln(out, displayValue(args[0], v, showToken))
				return nil
			}

			names := args
			if len(names) == 0 {
				names = model.AllSettings
			}
			printSettings(out, names, reader.GetAll(names...), showToken)
			return nil
		},
	}

	cmd.Flags().BoolVar(&showToken, "show-token", false, "print the token in clear text")

	return cmd
}

func printSettings(out io.Writer, names []string, values map[string]string, showToken bool) {
	width := 0
	for _, n := range names {
		width = max(width, len(n))
	}
	for _, n := range names {
		v := displayValue(n, values[n], showToken)
		if v == "" {
			v = theme.HelpStyle.Render("(unset)")
		}
		fmt.Fprintf(out, "%-*s  %s\n", width, n, v)
	}
}

// displayValue masks the token unless showToken is set.
func displayValue(name, value string, showToken bool) string {
	if name != model.SettingToken || showToken || value == "" {
		return value
	}
	if len(value) <= 4 {
		return strings.Repeat("*", len(value))
	}
	return strings.Repeat("*", len(value)-4) + value[len(value)-4:]
}
