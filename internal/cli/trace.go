package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/gatehouse/internal/engine"
	"github.com/roach88/gatehouse/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Room     string // optional - filter to one room
	Session  string // optional - filter to one visit
	Kind     string // optional - filter to one event kind
	After    int64  // optional - only events after this seq
}

// TraceEvent is one logged observation event.
type TraceEvent struct {
	Seq     int64          `json:"seq"`
	ID      string         `json:"id"`
	Session string         `json:"session"`
	Room    string         `json:"room"`
	Kind    string         `json:"kind"`
	Fields  map[string]any `json:"fields,omitempty"`
}

// TraceResult holds the complete trace output.
type TraceResult struct {
	Room     string       `json:"room,omitempty"`
	Session  string       `json:"session,omitempty"`
	Timeline []TraceEvent `json:"timeline"`
	Stats    TraceStats   `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	TotalEvents int            `json:"total_events"`
	ByKind      map[string]int `json:"by_kind"`
	Sessions    int            `json:"sessions"`
	Completed   bool           `json:"completed"` // timeline holds a RoomCompleted
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Print the stored event log",
		Long: `Print observation events logged by gatehouse play, in seq order.

Examples:
  gatehouse trace --db ./gatehouse.db
  gatehouse trace --db ./gatehouse.db --room comparison --kind PairReset
  gatehouse trace --db ./gatehouse.db --session 0192... --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Room, "room", "", "filter to one room id")
	cmd.Flags().StringVar(&opts.Session, "session", "", "filter to one session id")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "filter to one event kind")
	cmd.Flags().Int64Var(&opts.After, "after", 0, "only events after this seq")

	return cmd
}

// openExisting opens a database that must already exist; store.Open would
// silently create an empty one.
func openExisting(path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("database not found: %s", path))
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	st, err := openExisting(opts.Database)
	if err != nil {
		return err
	}
	defer st.Close()

	events, err := st.QueryEvents(ctx, store.EventFilter{
		Room:     opts.Room,
		Session:  opts.Session,
		Kind:     opts.Kind,
		AfterSeq: opts.After,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read events", err)
	}

	result := TraceResult{
		Room:     opts.Room,
		Session:  opts.Session,
		Timeline: buildTimeline(events),
	}
	result.Stats = summarize(result.Timeline)

	if formatter.JSON() {
		return formatter.Indented(CLIResponse{Status: StatusOK, Data: result})
	}
	return outputTraceText(formatter.Writer, result, opts.Verbose)
}

// buildTimeline converts stored events for output.
func buildTimeline(events []store.StoredEvent) []TraceEvent {
	timeline := []TraceEvent{}
	for _, e := range events {
		fields := e.Payload()
		delete(fields, "kind")
		timeline = append(timeline, TraceEvent{
			Seq:     e.Seq,
			ID:      e.ID,
			Session: e.Session,
			Room:    e.Room,
			Kind:    string(e.Kind),
			Fields:  fields,
		})
	}
	return timeline
}

func summarize(timeline []TraceEvent) TraceStats {
	stats := TraceStats{TotalEvents: len(timeline), ByKind: map[string]int{}}
	sessions := map[string]bool{}
	for _, e := range timeline {
		stats.ByKind[e.Kind]++
		sessions[e.Session] = true
		if e.Kind == string(engine.KindRoomCompleted) {
			stats.Completed = true
		}
	}
	stats.Sessions = len(sessions)
	return stats
}

// outputTraceText outputs the trace result as text.
func outputTraceText(w io.Writer, result TraceResult, verbose bool) error {
	switch {
	case result.Session != "":
		fmt.Fprintf(w, "Trace for session: %s\n", result.Session)
	case result.Room != "":
		fmt.Fprintf(w, "Trace for room: %s\n", result.Room)
	default:
		fmt.Fprintln(w, "Trace for all rooms")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Timeline ===")
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no events)")
	}
	for _, event := range result.Timeline {
		fmt.Fprintf(w, "  [%d] %s %s %s\n", event.Seq, event.Room, event.Kind, formatFields(event.Fields))
		if verbose {
			fmt.Fprintf(w, "       Session: %s  ID: %s\n", event.Session, truncateID(event.ID))
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Total Events: %d\n", result.Stats.TotalEvents)
	fmt.Fprintf(w, "  Sessions:     %d\n", result.Stats.Sessions)
	kinds := make([]string, 0, len(result.Stats.ByKind))
	for k := range result.Stats.ByKind {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Fprintf(w, "  %-14s %d\n", k+":", result.Stats.ByKind[k])
	}
	return nil
}

// formatFields formats event fields for display.
// Uses sorted keys to ensure deterministic output.
func formatFields(fields map[string]any) string {
	if len(fields) == 0 {
		return "{}"
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// truncateID truncates a long ID for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:8] + "..." + id[len(id)-8:]
}
