package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/boardswallah/boards-press/app/database"
)

func newMigrateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending content store migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Opening a store applies its migrations.
			store, err := database.Open(cmd.Context(), c.config)
			if err != nil {
				return err
			}
			defer store.Close()

			count, err := store.CountArticles(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s store is up to date (%d articles)\n", c.config.StoreDriver, count)
			return nil
		},
	}
}
