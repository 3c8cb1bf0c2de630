// Package main is the entrypoint for the docsmcp CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/fabricux/docsmcp/internal/config"
	"github.com/fabricux/docsmcp/internal/embedding"
	"github.com/fabricux/docsmcp/internal/store"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	// Populate the environment from .env before config loads. Missing file
	// is fine.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "docsmcp",
		Short: "Documentation RAG server",
		Long:  "docsmcp indexes markdown documentation into a vector store and answers questions over MCP.",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	root.AddCommand(versionCmd())
	root.AddCommand(indexCmd())
	root.AddCommand(statsCmd())
	root.AddCommand(askCmd())
	root.AddCommand(mcpCmd())
	root.AddCommand(watchCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the docsmcp version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Printf("docsmcp %s\n", Version)
			return nil
		},
	}
}

// openStoreOnly is for commands that never touch the embedding provider.
func openStoreOnly(cfg *config.Config) (*store.DB, error) {
	db, err := store.Open(cfg.Store.Path, cfg.EmbeddingDim())
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	return db, nil
}

// openDeps loads configuration and opens the vector store and embedding
// provider. Configuration problems (missing credentials included) surface
// here, before any document is processed or query served.
func openDeps() (*config.Config, *store.DB, embedding.Provider, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	db, err := store.Open(cfg.Store.Path, cfg.EmbeddingDim())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open index: %w", err)
	}

	embedClient, err := embedding.NewProvider(embedding.ProviderConfig{
		Provider:   cfg.Embedding.Provider,
		Model:      cfg.Embedding.Model,
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Dimensions: cfg.Embedding.Dimensions,
	})
	if err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("embedding provider: %w", err)
	}

	return cfg, db, embedClient, nil
}
