package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nhle/mail2joplin/internal/logging"
	"github.com/nhle/mail2joplin/internal/model"
	"github.com/nhle/mail2joplin/internal/settings"
)

var (
	configPath string
	debug      bool

	logger = zap.NewNop()
)

// rootCmd represents the base command for the mail2joplin application
var rootCmd = &cobra.Command{
	Use:   "mail2joplin",
	Short: "Sends an email message to Joplin as a note",
	Long: `mail2joplin turns an email message into a Joplin note through the
Joplin Web Clipper service. The note gets the mail body, the configured and
message tags, and the attachments as linked resources.

The message is read from an .eml file, standard input, or an IMAP mailbox.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := settings.LoadDotEnv(".env"); err != nil {
			return err
		}

		l, err := logging.New(debug)
		if err != nil {
			return err
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "mail2joplin version %s\n" .Version}}`)

	// Without a subcommand, send the message read from stdin
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "send")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&configPath, "config", model.DefaultConfigPath(), "path to the config file",
	)
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(newSendCmd())
	rootCmd.AddCommand(newConfigureCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newSettingsCmd())
	rootCmd.AddCommand(newVersionCmd())
}
