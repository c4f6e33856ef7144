package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ersonp/lore-sync/internal/application/handlers"
)

func newHistoryCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history <entity-type> <entity-id>",
		Short: "Show the change log of an entity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, args[0], args[1], asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print entries as JSON")

	return cmd
}

func runHistory(cmd *cobra.Command, entityType, entityID string, asJSON bool) error {
	ctx := cmd.Context()

	return withDeps(ctx, func(d *deps) error {
		history, err := handlers.NewChangeLogHandler(d.changes).HandleHistory(ctx, entityType, entityID)
		if err != nil {
			return fmt.Errorf("reading history: %w", err)
		}

		if asJSON {
			return writeJSON(os.Stdout, history)
		}
		if len(history) == 0 {
			fmt.Printf("No changes recorded for %s/%s.\n", entityType, entityID)
			return nil
		}
		printHistory(os.Stdout, history)
		return nil
	})
}

func newReverseCmd() *cobra.Command {
	var reversedBy string

	cmd := &cobra.Command{
		Use:   "reverse <entry-id>",
		Short: "Undo a change log entry",
		Long: `Apply the inverse of a change and record the reversal as a new entry.
An entry can only be reversed once.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReverse(cmd, args[0], reversedBy)
		},
	}

	cmd.Flags().StringVar(&reversedBy, "by", defaultActor(), "Who is reversing the change")

	return cmd
}

func runReverse(cmd *cobra.Command, entryID, reversedBy string) error {
	ctx := cmd.Context()

	return withDeps(ctx, func(d *deps) error {
		entry, err := handlers.NewChangeLogHandler(d.changes).HandleReverse(ctx, entryID, reversedBy)
		if err != nil {
			return fmt.Errorf("reversing %s: %w", entryID, err)
		}

		fmt.Printf("Reversed %s with %s %s (%s/%s)\n", entryID, entry.Action, entry.ID, entry.EntityType, entry.EntityID)
		return nil
	})
}

// defaultActor names the person at the terminal.
func defaultActor() string {
	if user := os.Getenv("USER"); user != "" {
		return user
	}
	return "cli"
}
