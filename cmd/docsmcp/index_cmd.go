package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fabricux/docsmcp/internal/config"
	"github.com/fabricux/docsmcp/internal/indexer"
)

func indexCmd() *cobra.Command {
	var quiet bool
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Scan the docs corpus and rebuild the vector index",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(quiet)
		},
	}
	cmd.Flags().BoolVar(&quiet, "quiet", false, "Suppress per-file progress output")
	return cmd
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show how many chunks are indexed",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats()
		},
	}
}

func runIndex(quiet bool) error {
	cfg, db, embedClient, err := openDeps()
	if err != nil {
		return err
	}
	defer db.Close()

	var progress indexer.ProgressFunc
	if !quiet {
		progress = func(current, total int, path string) {
			fmt.Fprintf(os.Stderr, "  [%d/%d] %s\n", current, total, path)
		}
	}

	stats, err := indexer.Reindex(db, cfg.Docs.Path, cfg.Docs.SkipDirs, embedClient, progress)
	if err != nil {
		return fmt.Errorf("index failed: %w", err)
	}
	indexer.SaveStats(stats, cfg.StatsPath())

	data, _ := json.MarshalIndent(stats, "", "  ")
	fmt.Println(string(data))
	return nil
}

func runStats() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	db, err := openStoreOnly(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	stats := indexer.LoadStats(db, cfg.StatsPath())
	data, _ := json.MarshalIndent(stats, "", "  ")
	fmt.Println(string(data))
	return nil
}
