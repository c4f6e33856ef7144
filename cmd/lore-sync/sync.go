package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ersonp/lore-sync/internal/application/handlers"
	"github.com/ersonp/lore-sync/internal/domain/entities"
	"github.com/ersonp/lore-sync/internal/domain/services"
)

type syncFlags struct {
	format     string
	entityType string
	chunkSize  int
	fanOut     int
	actor      string
	quiet      bool
}

func newSyncCmd() *cobra.Command {
	var flags syncFlags

	cmd := &cobra.Command{
		Use:   "sync [file]",
		Short: "Verify a batch of entities",
		Long: `Verify entities against the configured oracle, apply corrections,
record them in the change log and update the sync status.

Input is a JSON array of {type, id, data} objects or a CSV file with
type and id columns followed by data columns. Entities without data are
loaded from storage.

Examples:
  lore-sync sync artists.json
  lore-sync sync venues.csv --fan-out 2
  lore-sync sync --type label`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file := ""
			if len(args) == 1 {
				file = args[0]
			}
			return runSync(cmd, file, flags)
		},
	}

	cmd.Flags().StringVarP(&flags.format, "format", "f", "auto", "Input format (json, csv, auto)")
	cmd.Flags().StringVarP(&flags.entityType, "type", "t", "", "Verify every stored entity of this type")
	cmd.Flags().IntVar(&flags.chunkSize, "chunk-size", 0, "Entities per chunk (default from config)")
	cmd.Flags().IntVar(&flags.fanOut, "fan-out", 0, "Concurrent entities per chunk (default from config)")
	cmd.Flags().StringVar(&flags.actor, "actor", "", "Actor recorded in the change log (default from config)")
	cmd.Flags().BoolVarP(&flags.quiet, "quiet", "q", false, "Hide progress output")

	return cmd
}

func runSync(cmd *cobra.Command, file string, flags syncFlags) error {
	if (file == "") == (flags.entityType == "") {
		return errors.New("provide either a file or --type")
	}
	ctx := cmd.Context()

	return withDeps(ctx, func(d *deps) error {
		orchestrator, err := d.orchestrator(ctx)
		if err != nil {
			return err
		}
		handler := handlers.NewSyncHandler(orchestrator, d.types, d.repo)

		opts := services.RunOptions{
			ChunkSize: firstPositive(flags.chunkSize, d.cfg.Sync.ChunkSize),
			FanOut:    firstPositive(flags.fanOut, d.cfg.Sync.FanOut),
			Actor:     d.cfg.Sync.Actor,
		}
		if flags.actor != "" {
			opts.Actor = flags.actor
		}
		if !flags.quiet {
			opts.Progress = progressPrinter(os.Stderr)
		}

		var summary *entities.SyncSummary
		if file != "" {
			summary, err = handler.HandleFile(ctx, file, handlers.SyncOptions{Format: flags.format, RunOptions: opts})
		} else {
			summary, err = handler.HandleType(ctx, flags.entityType, opts)
		}
		if summary != nil {
			printSummary(os.Stdout, summary)
		}
		if err != nil {
			return fmt.Errorf("sync: %w", err)
		}
		return nil
	})
}

// progressPrinter rewrites a single progress line.
func progressPrinter(w io.Writer) func(current, total int) {
	return func(current, total int) {
		fmt.Fprintf(w, "\rVerified %d/%d", current, total)
		if current == total {
			fmt.Fprintln(w)
		}
	}
}

func firstPositive(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
