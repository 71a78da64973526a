package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/gatehouse/internal/ir"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompilationResult is the compile command's JSON payload.
type CompilationResult struct {
	Source string          `json:"source"`
	Hash   string          `json:"hash"`
	Table  *ir.WiringTable `json:"table"`
}

// CompilationStats holds summary statistics.
type CompilationStats struct {
	GroupCount int
	InputCount int
	SlotCount  int
	SinkCount  int
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <wiring-file>",
		Short: "Compile a wiring document to a resolved table",
		Long: `Compile a CUE or JSON wiring document to its name-resolved table.

The table is written as canonical JSON: sorted keys, no insignificant
whitespace, byte-identical for identical input. Any loader error fails
the command.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	res, loadErrors := LoadWiring(path)
	if res == nil {
		first := loadErrors[0]
		return outputCompileError(formatter, first.Code, first.Message, nil)
	}
	if len(loadErrors) > 0 {
		return outputCompileErrors(formatter, loadErrors)
	}

	for _, g := range res.Table.Groups {
		formatter.VerboseLog("Compiled group %s: %d node(s)", g.Name, len(g.Nodes))
	}

	result := &CompilationResult{Source: path, Hash: res.Hash, Table: res.Table}
	stats := calculateStats(res.Table)

	if opts.Output != "" {
		if err := writeTableToFile(res.Table, opts.Output); err != nil {
			return outputCompileError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err), nil)
		}
	}

	return outputCompileSuccess(formatter, result, stats, opts.Output)
}

// calculateStats computes summary statistics from a resolved table.
func calculateStats(table *ir.WiringTable) CompilationStats {
	stats := CompilationStats{GroupCount: len(table.Groups)}
	for _, g := range table.Groups {
		for _, n := range g.Nodes {
			switch n.Kind {
			case ir.NodeInput:
				stats.InputCount++
			case ir.NodeSlot:
				stats.SlotCount++
			}
			if n.Sink {
				stats.SinkCount++
			}
		}
	}
	return stats
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, stats CompilationStats, outputFile string) error {
	if formatter.JSON() {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Compiled %d group(s): %d input(s), %d slot(s), %d sink(s)\n",
		stats.GroupCount, stats.InputCount, stats.SlotCount, stats.SinkCount)
	fmt.Fprintf(formatter.Writer, "Hash: %s\n", result.Hash)

	if outputFile != "" {
		fmt.Fprintf(formatter.Writer, "Wrote canonical table to %s\n", outputFile)
		return nil
	}

	data, err := ir.CanonicalStruct(result.Table)
	if err != nil {
		return fmt.Errorf("marshal table: %w", err)
	}
	fmt.Fprintf(formatter.Writer, "\n%s\n", data)
	return nil
}

// outputCompileError outputs a single compilation error.
func outputCompileError(formatter *OutputFormatter, code, message string, details any) error {
	return formatter.Fail(ExitCommandError, code, message, details)
}

// outputCompileErrors outputs every loader error.
func outputCompileErrors(formatter *OutputFormatter, errs []*LoadError) error {
	if formatter.JSON() {
		cliErrors := make([]CLIError, len(errs))
		for i, err := range errs {
			cliErrors[i] = CLIError{Code: err.Code, Message: err.Message}
		}

		response := CLIResponse{
			Status: StatusError,
			Error:  &cliErrors[0],
			Data:   cliErrors, // Include all errors in data
		}
		if err := formatter.Indented(response); err != nil {
			return err
		}
		return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Compilation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if err.Pos.IsValid() {
			fmt.Fprintf(formatter.Writer, "%s:%d:%d\n",
				err.Pos.Filename(),
				err.Pos.Line(),
				err.Pos.Column())
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", err.Code, err.Message)
	}

	// Compilation errors are command-level errors (exit code 2)
	return NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
}

// writeTableToFile writes the table in canonical JSON.
func writeTableToFile(table *ir.WiringTable, filename string) error {
	data, err := ir.CanonicalStruct(table)
	if err != nil {
		return fmt.Errorf("marshaling table: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}
