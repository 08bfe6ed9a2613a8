package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/boardswallah/boards-press/app/content"
	"github.com/boardswallah/boards-press/app/database"
	"github.com/boardswallah/boards-press/app/publish"
)

func newPublishCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "publish <file>",
		Short: "Publish a JSON array of articles, one record at a time",
		Long: `Publish reads a JSON array of articles ("-" reads standard input) and publishes
each one in order. One line is printed per record: index, status, slug and failure reason.
The command fails when any record was not published.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			candidates, err := readCandidates(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			store, err := database.Open(cmd.Context(), c.config)
			if err != nil {
				return err
			}
			defer store.Close()

			pipeline, err := publish.NewPipeline(store, c.config.AdminSecret, 1)
			if err != nil {
				return err
			}

			batch := pipeline.PublishBatch(cmd.Context(), candidates)

			out := cmd.OutOrStdout()
			for _, o := range batch.Outcomes() {
				fmt.Fprintf(out, "%d\t%s\t%s\t%s\n", o.Index, o.Status, o.Slug, o.Reason)
			}

			if !batch.AllPublished() {
				return fmt.Errorf("published %d of %d articles", batch.Succeeded(), batch.Len())
			}
			return nil
		},
	}
}

func readCandidates(stdin io.Reader, path string) ([]content.Article, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var candidates []content.Article
	if err := json.Unmarshal(data, &candidates); err != nil {
		return nil, fmt.Errorf("failed to decode articles from %s: %w", path, err)
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no articles in %s", path)
	}
	return candidates, nil
}
