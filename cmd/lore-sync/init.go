package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ersonp/lore-sync/internal/application/handlers"
	"github.com/ersonp/lore-sync/internal/infrastructure/config"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a new lore-sync project",
		Long:  "Creates a .lore-sync directory with default configuration, the database schema and the default entity types.",
		RunE:  runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	// The default config has the reference index disabled, so no collection is created here.
	result, err := handlers.NewInitHandler(nil, 0).Handle(ctx, cwd)
	if err != nil {
		return err
	}
	fmt.Printf("Created %s\n", result.ConfigPath)

	cfg, err := config.Load(cwd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	d, err := newDeps(ctx, cwd, cfg)
	if err != nil {
		return err
	}
	defer d.close()

	types, err := d.types.List(ctx)
	if err != nil {
		return fmt.Errorf("listing types: %w", err)
	}
	fmt.Printf("Initialized %s storage at %s with %d entity types\n", d.repo.Driver(), result.DatabasePath, len(types))

	return nil
}
