package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ersonp/lore-sync/internal/application/handlers"
	"github.com/ersonp/lore-sync/internal/domain/entities"
)

func newEntitiesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entities",
		Short: "Edit stored entity content",
		Long:  "Show, list, create, update or delete entities. Every edit is recorded in the change log.",
	}

	cmd.AddCommand(
		newEntitiesListCmd(),
		newEntitiesShowCmd(),
		newEntitiesPutCmd(),
		newEntitiesDeleteCmd(),
	)

	return cmd
}

func newEntitiesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <entity-type>",
		Short: "List stored entities of a type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withDeps(ctx, func(d *deps) error {
				refs, err := entityHandler(d).HandleList(ctx, args[0])
				if err != nil {
					return fmt.Errorf("listing entities: %w", err)
				}
				if len(refs) == 0 {
					fmt.Println("No entities found.")
					return nil
				}

				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tDATA")
				for _, ref := range refs {
					raw, _ := json.Marshal(ref.Data)
					fmt.Fprintf(w, "%s\t%s\n", ref.ID, truncate(string(raw), 80))
				}
				w.Flush()
				return nil
			})
		},
	}
}

func newEntitiesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <entity-type> <entity-id>",
		Short: "Print the data of an entity as JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withDeps(ctx, func(d *deps) error {
				data, err := entityHandler(d).HandleShow(ctx, args[0], args[1])
				if err != nil {
					return fmt.Errorf("reading entity: %w", err)
				}
				if data == nil {
					return fmt.Errorf("entity not found: %s/%s", args[0], args[1])
				}
				return writeJSON(os.Stdout, data)
			})
		},
	}
}

func newEntitiesPutCmd() *cobra.Command {
	var actor string

	cmd := &cobra.Command{
		Use:   "put <entity-type> <entity-id> <json|@file>",
		Short: "Create or replace an entity",
		Long: `Create or replace an entity. The data is a JSON object given inline
or read from a file with the @ prefix.

Examples:
  lore-sync entities put artist A1 '{"name": "DJ X", "country": "Germany"}'
  lore-sync entities put venue V1 @tresor.json`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := parseData(args[2])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			return withDeps(ctx, func(d *deps) error {
				ref := entities.EntityRef{Type: args[0], ID: args[1], Data: data}
				id, err := entityHandler(d).HandlePut(ctx, actor, ref)
				if err != nil {
					return fmt.Errorf("saving entity: %w", err)
				}
				fmt.Printf("Saved %s (change %s)\n", ref.Key(), id)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&actor, "actor", defaultActor(), "Actor recorded in the change log")

	return cmd
}

func newEntitiesDeleteCmd() *cobra.Command {
	var actor string

	cmd := &cobra.Command{
		Use:   "delete <entity-type> <entity-id>",
		Short: "Delete an entity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return withDeps(ctx, func(d *deps) error {
				id, err := entityHandler(d).HandleDelete(ctx, actor, args[0], args[1])
				if err != nil {
					return fmt.Errorf("deleting entity: %w", err)
				}
				fmt.Printf("Deleted %s/%s (change %s)\n", args[0], args[1], id)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&actor, "actor", defaultActor(), "Actor recorded in the change log")

	return cmd
}

func entityHandler(d *deps) *handlers.EntityHandler {
	return handlers.NewEntityHandler(d.changes, d.types, d.repo)
}

// parseData decodes a JSON object given inline or as @file.
func parseData(arg string) (map[string]any, error) {
	raw := []byte(arg)
	if path, ok := strings.CutPrefix(arg, "@"); ok {
		var err error
		raw, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading data file: %w", err)
		}
	}

	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("data must be a JSON object: %w", err)
	}
	if data == nil {
		return nil, errors.New("data must be a JSON object")
	}
	return data, nil
}
