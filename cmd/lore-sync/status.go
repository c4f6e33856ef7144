package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ersonp/lore-sync/internal/application/handlers"
	"github.com/ersonp/lore-sync/internal/domain/entities"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [entity-type] [entity-id]",
		Short: "Show sync status counts",
		Long: `Show verified and needs-review counts per entity type.

Examples:
  lore-sync status
  lore-sync status artist
  lore-sync status artist A1`,
		Args: cobra.MaximumNArgs(2),
		RunE: runStatus,
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	return withDeps(ctx, func(d *deps) error {
		handler := handlers.NewStatusHandler(d.statuses)

		switch len(args) {
		case 2:
			rec, err := handler.HandleEntity(ctx, args[0], args[1])
			if err != nil {
				return fmt.Errorf("querying status: %w", err)
			}
			if rec == nil {
				fmt.Printf("%s/%s has never been synced.\n", args[0], args[1])
				return nil
			}
			fmt.Printf("%s/%s: %s (last synced %s)\n", rec.EntityType, rec.EntityID, rec.Status, rec.LastSyncedAt.Format("2006-01-02 15:04:05"))
			return nil

		case 1:
			counts, err := handler.HandleType(ctx, args[0])
			if err != nil {
				return fmt.Errorf("querying status: %w", err)
			}
			printCounts(map[string]entities.TypeCounts{entities.NormalizeTypeName(args[0]): counts})
			return nil

		default:
			all, err := handler.HandleAll(ctx)
			if err != nil {
				return fmt.Errorf("querying status: %w", err)
			}
			if len(all) == 0 {
				fmt.Println("No entities synced yet.")
				return nil
			}
			printCounts(all)
			return nil
		}
	})
}

func printCounts(counts map[string]entities.TypeCounts) {
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tTOTAL\tVERIFIED\tNEEDS REVIEW")
	for _, name := range names {
		c := counts[name]
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", name, c.Total, c.Verified, c.NeedsReview)
	}
	w.Flush()
}
