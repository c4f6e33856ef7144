package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ersonp/lore-sync/internal/application/handlers"
)

func newTypesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "types",
		Short: "Manage entity types",
		Long:  "List, add, or remove the entity types a batch may contain.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTypesList(cmd)
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List all entity types",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runTypesList(cmd)
			},
		},
		&cobra.Command{
			Use:   "add <name> <description>",
			Short: "Register a custom entity type",
			Long:  "Register a custom entity type. Name must be lowercase with underscores.",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runTypesAdd(cmd, args[0], args[1])
			},
		},
		&cobra.Command{
			Use:   "remove <name>",
			Short: "Remove a custom entity type",
			Long:  "Remove a custom entity type. Default types and types with stored entities cannot be removed.",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runTypesRemove(cmd, args[0])
			},
		},
		&cobra.Command{
			Use:   "describe <name>",
			Short: "Show details about an entity type",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runTypesDescribe(cmd, args[0])
			},
		},
	)

	return cmd
}

func runTypesList(cmd *cobra.Command) error {
	ctx := cmd.Context()

	return withDeps(ctx, func(d *deps) error {
		types, err := newTypeHandler(d).HandleList(ctx)
		if err != nil {
			return fmt.Errorf("listing types: %w", err)
		}

		if len(types) == 0 {
			fmt.Println("No entity types found.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tDESCRIPTION\tDEFAULT\tSYNCED\tVERIFIED\tREVIEW")
		for i := range types {
			isDefault := ""
			if types[i].Default {
				isDefault = "yes"
			}
			c := types[i].Sync
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\n",
				types[i].Name, truncate(types[i].Description, 50), isDefault, c.Total, c.Verified, c.NeedsReview)
		}
		w.Flush()

		return nil
	})
}

func runTypesAdd(cmd *cobra.Command, name, description string) error {
	ctx := cmd.Context()

	return withDeps(ctx, func(d *deps) error {
		if err := newTypeHandler(d).HandleAdd(ctx, name, description); err != nil {
			return fmt.Errorf("adding type: %w", err)
		}

		fmt.Printf("Added entity type: %s\n", name)
		return nil
	})
}

func runTypesRemove(cmd *cobra.Command, name string) error {
	ctx := cmd.Context()

	return withDeps(ctx, func(d *deps) error {
		if err := newTypeHandler(d).HandleRemove(ctx, name); err != nil {
			return fmt.Errorf("removing type: %w", err)
		}

		fmt.Printf("Removed entity type: %s\n", name)
		return nil
	})
}

func runTypesDescribe(cmd *cobra.Command, name string) error {
	ctx := cmd.Context()

	return withDeps(ctx, func(d *deps) error {
		et, err := newTypeHandler(d).HandleDescribe(ctx, name)
		if err != nil {
			return fmt.Errorf("describing type: %w", err)
		}
		if et == nil {
			return fmt.Errorf("entity type %q not found", name)
		}

		fmt.Printf("Name:        %s\n", et.Name)
		fmt.Printf("Description: %s\n", et.Description)
		fmt.Printf("Default:     %v\n", et.Default)
		if !et.CreatedAt.IsZero() {
			fmt.Printf("Created:     %s\n", et.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		fmt.Printf("Stored:      %d\n", et.Stored)
		fmt.Printf("Synced:      %d (verified %d, needs review %d)\n", et.Sync.Total, et.Sync.Verified, et.Sync.NeedsReview)

		return nil
	})
}

func newTypeHandler(d *deps) *handlers.EntityTypeHandler {
	return handlers.NewEntityTypeHandler(d.types, d.statuses, d.repo)
}
