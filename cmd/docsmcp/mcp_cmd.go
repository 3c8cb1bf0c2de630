package main

import (
	"github.com/spf13/cobra"

	mcpserver "github.com/fabricux/docsmcp/internal/mcp"
	"github.com/fabricux/docsmcp/internal/watcher"
)

func mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Start the documentation query server (MCP over stdio)",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, db, embedClient, err := openDeps()
			if err != nil {
				return err
			}
			defer db.Close()

			mcpserver.Version = Version
			return mcpserver.New(db, embedClient).Run(cmd.Context())
		},
	}
}

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch the docs corpus and re-index changed files",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, db, embedClient, err := openDeps()
			if err != nil {
				return err
			}
			defer db.Close()

			return watcher.Watch(db, cfg.Docs.Path, cfg.Docs.SkipDirs, embedClient)
		},
	}
}
