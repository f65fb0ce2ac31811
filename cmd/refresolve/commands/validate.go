package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/speakeasy-api/openapi-refs/references"
	"github.com/spf13/cobra"
)

func newValidateCmd() *cobra.Command {
	var maxDepth int

	cmd := &cobra.Command{
		Use:   "validate [input-file]",
		Short: "Check that every reference of a document resolves",
		Long: `Resolve every $ref of a document and report the references that fail.

This command checks for:
- Malformed references and unexpected fields next to $ref
- References to locations that don't exist
- Cyclic chains of references
- External documents that can't be loaded

Exits with a non-zero status when any reference fails.`,
		Args: stdinOrFileArgs(1, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd, argAt(args, 0, StdinIndicator), maxDepth)
		},
	}

	cmd.Flags().IntVar(&maxDepth, "max-depth", references.DefaultMaxDepth, "maximum length of a chain of references")

	return cmd
}

func runValidate(cmd *cobra.Command, inputFile string, maxDepth int) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	start := time.Now()

	in, err := readInput(cmd.InOrStdin(), inputFile)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Validating references of: %s\n", in.name)

	root, rc, err := in.load(
		references.WithThrowOnError(false),
		references.WithMaxDepth(maxDepth),
		references.WithLogger(newLogger(cmd)),
	)
	if err != nil {
		return err
	}

	_, errs, err := resolveDocument(ctx, root, rc)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", in.name, err)
	}
	reportElapsed(cmd.ErrOrStderr(), "Validation", time.Since(start))

	if len(errs) == 0 {
		color.New(color.FgGreen).Fprintf(out, "✅ References are valid - 0 errors\n")
		return nil
	}

	color.New(color.FgRed).Fprintf(out, "❌ References are invalid - %d errors:\n\n", len(errs))
	fmt.Fprint(out, formatErrors(errs))

	return errors.New("reference validation failed")
}
