// Package cli implements the xmlbind command.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/invopop/xmlbind"
)

// Exit codes returned by the xmlbind command.
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
	ExitPanic   = 3
	ExitSchema  = 10
)

type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// ExitCodeForError maps an error returned by Execute to a process exit code.
func ExitCodeForError(err error) int {
	var usage *usageError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &usage):
		return ExitUsage
	case errors.Is(err, xmlbind.ErrSchema):
		return ExitSchema
	default:
		return ExitError
	}
}

// NewRootCommand builds the xmlbind command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "xmlbind",
		Short: "Bind XML documents to declared types",
		Long: `xmlbind reads record types declared in a YAML file and binds XML
documents to them, printing the result as JSON or as a Go value dump.

Exit Codes:
  0  - Success
  1  - Document could not be read or bound
  2  - CLI usage error (invalid arguments or flags)
  3  - Internal error
  10 - Invalid schema declarations`,
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolP("verbose", "v", false, "Log binding decisions to stderr")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	root.AddCommand(newParseCommand(), newSchemaCommand(), newVersionCommand())
	return root
}

// Execute runs the root command with the process arguments.
func Execute() error {
	return NewRootCommand().Execute()
}

// newLogger returns a development logger when verbose is set and a no-op
// logger otherwise.
func newLogger(cmd *cobra.Command) (*zap.Logger, error) {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return nil, err
	}
	if !verbose {
		return zap.NewNop(), nil
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	return cfg.Build()
}

// readInput reads the named file, or standard input for "-".
func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return data, nil
}

// usageArgs marks argument validation failures as usage errors.
func usageArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return &usageError{err: err}
		}
		return nil
	}
}
