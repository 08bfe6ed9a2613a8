package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/boardswallah/boards-press/app/database"
	"github.com/boardswallah/boards-press/app/publish"
)

func newDeleteCmd(c *cli) *cobra.Command {
	var secret string

	cmd := &cobra.Command{
		Use:   "delete <slug>",
		Short: "Delete an article by slug",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := database.Open(cmd.Context(), c.config)
			if err != nil {
				return err
			}
			defer store.Close()

			pipeline, err := publish.NewPipeline(store, c.config.AdminSecret, 1)
			if err != nil {
				return err
			}

			if err := pipeline.Delete(cmd.Context(), args[0], secret); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&secret, "secret", "", "admin secret confirming the deletion")
	_ = cmd.MarkFlagRequired("secret")
	return cmd
}
