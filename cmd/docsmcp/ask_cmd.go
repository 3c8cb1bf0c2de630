package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fabricux/docsmcp/internal/cli"
	"github.com/fabricux/docsmcp/internal/config"
	"github.com/fabricux/docsmcp/internal/docs"
)

func askCmd() *cobra.Command {
	var topK int
	cmd := &cobra.Command{
		Use:   "ask <query>",
		Short: "Ask the indexed documentation a question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := args[0]
			for _, a := range args[1:] {
				query += " " + a
			}
			return runAsk(query, topK)
		},
	}
	cmd.Flags().IntVarP(&topK, "results", "n", config.DefaultResultCount, "Number of results to return")
	return cmd
}

func runAsk(query string, topK int) error {
	_, db, embedClient, err := openDeps()
	if err != nil {
		return err
	}
	defer db.Close()

	queryVec, err := embedClient.EmbedQuery(query)
	if err != nil {
		return fmt.Errorf("embed query: %w", err)
	}

	matches, err := db.Query(queryVec, topK)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}

	cli.Section("Results")
	for i, text := range docs.FormatMatches(matches) {
		if i > 0 {
			fmt.Printf("\n%s%s%s\n\n", cli.Dim, "----", cli.Reset)
		}
		fmt.Println(text)
	}
	return nil
}
