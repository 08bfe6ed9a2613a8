package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/boardswallah/boards-press/app/cfg"
)

// cli carries state shared by the subcommands of one invocation.
type cli struct {
	verbose bool
	config  *cfg.Cfg
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "boardsctl",
		Short: "Operator CLI for BoardsPress",
		Long: `boardsctl runs generation and publishing against the configured content store.

Configuration comes from the same environment variables as the server.

Example usage:
  boardsctl generate --subject Physics --class 12 --types "Answer Key,Analysis"
  boardsctl publish candidates.json
  boardsctl delete some-article-slug --secret $ADMIN_SECRET
  boardsctl migrate`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup()
		},
	}

	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "verbose output")

	root.AddCommand(
		newGenerateCmd(c),
		newPublishCmd(c),
		newDeleteCmd(c),
		newMigrateCmd(c),
	)

	return root
}

func (c *cli) setup() error {
	level := slog.LevelWarn
	if c.verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	config, err := cfg.LoadEnv()
	if err != nil {
		return err
	}
	c.config = config
	return nil
}
