package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/ersonp/lore-sync/internal/domain/entities"
)

func printSummary(w io.Writer, s *entities.SyncSummary) {
	fmt.Fprint(w, formatSummary(s))
}

func formatSummary(s *entities.SyncSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Run %s %s: %d/%d processed\n", s.RunID, s.State, s.Processed, s.Total)
	fmt.Fprintf(&b, "  verified:     %d\n", s.Verified)
	fmt.Fprintf(&b, "  needs review: %d (%d conflicting)\n", s.NeedsReview, s.Conflicting)
	fmt.Fprintf(&b, "  failed:       %d\n", s.Failed)
	fmt.Fprintf(&b, "  corrected:    %d\n", s.Corrected)
	fmt.Fprintf(&b, "  with photos:  %d\n", s.WithPhotos)
	if s.NotificationsDropped > 0 {
		fmt.Fprintf(&b, "  media jobs dropped: %d\n", s.NotificationsDropped)
	}
	if !s.FinishedAt.IsZero() {
		fmt.Fprintf(&b, "  duration:     %s\n", s.FinishedAt.Sub(s.StartedAt).Round(time.Millisecond))
	}
	return b.String()
}

func printHistory(w io.Writer, history []entities.ChangeLogEntry) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tACTION\tACTOR\tCREATED\tREVERSED")
	for i := range history {
		e := &history[i]
		reversed := ""
		switch {
		case e.Reversed():
			reversed = "by " + e.ReversedBy
		case !e.Reversible:
			reversed = "irreversible"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.ID, e.Action, e.Actor, e.CreatedAt.Format("2006-01-02 15:04:05"), reversed)
	}
	tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// truncate shortens a string to max length with ellipsis.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
