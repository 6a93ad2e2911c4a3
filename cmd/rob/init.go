package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ersonp/rob-core/internal/domain/entities"
	"github.com/ersonp/rob-core/internal/infrastructure/config"
	"github.com/ersonp/rob-core/internal/infrastructure/store/local"
)

// dataSubdirs is the on-disk layout of the data tree.
var dataSubdirs = []string{"raw", "changelog", "processed", "deployment", "interim"}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a new rob data directory",
		Long:  "Creates a .rob directory with default configuration, the data tree and a seed catalogue.",
		RunE:  runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	if config.Exists(cwd) {
		return fmt.Errorf("rob already initialized in %s", cwd)
	}

	if err := config.WriteDefault(cwd); err != nil {
		return fmt.Errorf("writing default config: %w", err)
	}
	fmt.Printf("Created %s\n", config.ConfigFilePath(cwd))

	cfg, err := config.Load(cwd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	for _, sub := range dataSubdirs {
		if err := os.MkdirAll(filepath.Join(cfg.Data.Dir, sub), 0755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
	}
	fmt.Printf("Created data tree under %s\n", cfg.Data.Dir)

	// Seed the catalogue with the Unknown sentinel so empty finding
	// places resolve from the first run on.
	store := local.NewStore(cfg.Data.Dir)
	defer store.Close()

	catalogue, err := store.LoadCatalogue(ctx)
	if err != nil {
		return fmt.Errorf("loading catalogue: %w", err)
	}
	if len(catalogue) == 0 {
		if err := store.SaveCatalogue(ctx, []entities.CatalogueEntry{entities.UnknownEntry()}); err != nil {
			return fmt.Errorf("seeding catalogue: %w", err)
		}
		fmt.Println("Seeded catalogue with the Unknown place.")
	}

	fmt.Println("Rob initialized successfully!")
	return nil
}
