package main

import (
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/boardswallah/boards-press/app/catalog"
	"github.com/boardswallah/boards-press/app/generation"
)

func newGenerateCmd(c *cli) *cobra.Command {
	var req generation.Request

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate candidate articles without publishing them",
		Long: `Generate asks the configured provider for one article per requested type.

In structured mode the candidates are printed as a JSON array that "boardsctl publish"
accepts. In statements mode the SQL insert statements are printed as returned.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			catalogStore := catalog.NewStore(c.config.CatalogFile)
			if err := catalogStore.Run(); err != nil {
				return err
			}

			client, err := generation.NewFromConfig(c.config, catalogStore)
			if err != nil {
				return err
			}

			result, err := client.Generate(ctx, req)
			if err != nil {
				return err
			}

			for _, warning := range result.Warnings {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", warning)
			}

			out := cmd.OutOrStdout()
			if result.Mode == generation.ModeStatements {
				fmt.Fprintln(out, result.Statements)
				return nil
			}

			encoder := json.NewEncoder(out)
			encoder.SetIndent("", "  ")
			return encoder.Encode(result.Articles)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&req.Subject, "subject", "", "exam subject")
	flags.StringVar(&req.ClassNumber, "class", "", "class number (10 or 12)")
	flags.StringVar(&req.ExamDate, "exam-date", "", "exam date as YYYY-MM-DD (default today)")
	flags.StringVar(&req.ExamCode, "exam-code", "", "paper code")
	flags.StringVar(&req.AdditionalContext, "context", "", "additional instructions for the writer")
	flags.StringSliceVar(&req.RequestedTypes, "types", nil, "article types to generate, comma separated")
	flags.StringVar(&req.LengthTier, "length", "", "length tier (small, medium, large)")
	flags.StringVar(&req.SourceURL, "source-url", "", "page whose text is added to the prompt")

	return cmd
}
