package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/gatehouse/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                       `json:"valid"`
	Groups int                        `json:"groups"`
	Hash   string                     `json:"hash,omitempty"`
	Errors []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <wiring-file>",
		Short: "Validate a wiring document",
		Long: `Load a CUE or JSON wiring document and check it without playing it.

Reports every loader error (missing references, arity mismatches, cycles)
and every rule violation in the resolved table. Warnings such as unused
inputs do not fail validation.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	res, loadErrors := LoadWiring(path)
	if res == nil {
		first := loadErrors[0]
		return outputValidateError(formatter, first.Code, first.Message, nil)
	}

	formatter.VerboseLog("Loaded %d group(s) from %s", len(res.Table.Groups), path)

	var all []compiler.ValidationError
	for _, le := range loadErrors {
		all = append(all, compiler.ValidationError{
			Field:    "load",
			Message:  le.Message,
			Code:     le.Code,
			Severity: compiler.SeverityError,
		})
	}
	all = append(all, compiler.Validate(res.Table)...)

	result := ValidationResult{
		Valid:  !compiler.HasErrors(all),
		Groups: len(res.Table.Groups),
		Hash:   res.Hash,
		Errors: all,
	}
	return outputValidation(formatter, result)
}

// outputValidation writes the result. Any error-severity entry is exit 1.
func outputValidation(formatter *OutputFormatter, result ValidationResult) error {
	if formatter.JSON() {
		resp := CLIResponse{Status: StatusOK, Data: result}
		if !result.Valid {
			first := firstError(result.Errors)
			resp.Status = StatusError
			resp.Error = &CLIError{Code: first.Code, Message: first.Message}
		}
		if err := formatter.Indented(resp); err != nil {
			return err
		}
	} else {
		if result.Valid {
			fmt.Fprintf(formatter.Writer, "✓ Wiring valid (%d group(s))\n", result.Groups)
		} else {
			fmt.Fprintln(formatter.Writer, "✗ Validation failed")
		}
		if len(result.Errors) > 0 {
			fmt.Fprintln(formatter.Writer)
		}
		for _, e := range result.Errors {
			fmt.Fprintf(formatter.Writer, "  %s %s: %s: %s\n", e.Severity, e.Code, e.Field, e.Message)
		}
	}

	if !result.Valid {
		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d problem(s)", len(result.Errors)))
	}
	return nil
}

func firstError(errs []compiler.ValidationError) compiler.ValidationError {
	for _, e := range errs {
		if e.Severity == compiler.SeverityError {
			return e
		}
	}
	return compiler.ValidationError{Code: ErrCodeGeneric, Message: "validation failed"}
}

// outputValidateError outputs a single command-level error.
func outputValidateError(formatter *OutputFormatter, code, message string, details any) error {
	// Unreadable input is a command-level error.
	return formatter.Fail(ExitCommandError, code, message, details)
}
