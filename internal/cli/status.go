package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/gatehouse/internal/store"
)

// StatusOptions holds flags for the status command.
type StatusOptions struct {
	*RootOptions
	Database string
}

// CompletedRoom is one row of the status listing.
type CompletedRoom struct {
	Room        string `json:"room"`
	Session     string `json:"session"`
	CompletedAt int64  `json:"completed_at"`
}

// NewStatusCommand creates the status command.
func NewStatusCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatusOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "status",
		Short:         "List completed rooms",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runStatus(opts *StatusOptions, cmd *cobra.Command) error {
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

	completions, err := st.CompletedRooms(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read completed rooms", err)
	}
	rows := toCompletedRooms(completions)

	if formatter.JSON() {
		return formatter.Indented(CLIResponse{Status: StatusOK, Data: rows})
	}

	w := formatter.Writer
	if len(rows) == 0 {
		fmt.Fprintln(w, "No rooms completed.")
		return nil
	}
	fmt.Fprintf(w, "%d room(s) completed:\n", len(rows))
	for _, r := range rows {
		fmt.Fprintf(w, "  ✓ %s (seq %d, session %s)\n", r.Room, r.CompletedAt, truncateID(r.Session))
	}
	return nil
}

func toCompletedRooms(cs []store.Completion) []CompletedRoom {
	out := make([]CompletedRoom, len(cs))
	for i, c := range cs {
		out[i] = CompletedRoom{Room: c.RoomID, Session: c.Session, CompletedAt: c.CompletedAt}
	}
	return out
}
