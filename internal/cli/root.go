package cli

import (
	"context"
	"errors"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/debemdeboas/the-thread/internal/config"
	"github.com/debemdeboas/the-thread/internal/logger"
)

type rootOptions struct {
	configPath string
	envFile    string
	logLevel   string

	app *App
}

// NewRootCommand builds the thread command tree.
func NewRootCommand() *cobra.Command {
	cmd, _ := newRootCommand()
	return cmd
}

func newRootCommand() (*cobra.Command, *rootOptions) {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "thread",
		Short: "Compose and manage posts from the terminal",
		Long: `thread writes posts, replies and quotes, uploads their media and keeps
unsent compositions as drafts.

Examples:
  thread post "hello world" --media ./cat.jpg
  thread reply <post-id> "same here"
  thread drafts list
  thread drafts resume <draft-id>`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.setup(cmd.Context())
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "config.yaml", "Path to the YAML configuration file")
	cmd.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "Dotenv file loaded before the configuration")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override logging.level")

	cmd.AddCommand(
		newComposeCommand(opts, composePost),
		newComposeCommand(opts, composeReply),
		newComposeCommand(opts, composeQuote),
		newEditCommand(opts),
		newDeleteCommand(opts),
		newLikeCommand(opts),
		newRepostCommand(opts),
		newFeedCommand(opts),
		newDraftsCommand(opts),
	)
	return cmd, opts
}

func (o *rootOptions) setup(ctx context.Context) error {
	if err := godotenv.Load(o.envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	// Loggers are set before LoadConfig so config warnings are not lost.
	bootLevel := o.logLevel
	if bootLevel == "" {
		bootLevel = "info"
	}
	SetLoggers(logger.New(bootLevel))

	cfg, err := config.LoadConfig(o.configPath)
	if err != nil {
		return err
	}
	if o.logLevel == "" {
		o.logLevel = cfg.Logging.Level
	}

	log := logger.New(o.logLevel)
	SetLoggers(log)

	o.app, err = NewApp(ctx, cfg, log)
	return err
}

// Execute runs the command tree and returns the process exit code.
func Execute(ctx context.Context) int {
	cmd, opts := newRootCommand()
	err := cmd.ExecuteContext(ctx)
	if cerr := opts.close(); err == nil {
		err = cerr
	}
	if err != nil {
		printError(cmd.ErrOrStderr(), err)
		return 1
	}
	return 0
}

func (o *rootOptions) close() error {
	if o.app == nil {
		return nil
	}
	err := o.app.Close()
	o.app = nil
	return err
}
