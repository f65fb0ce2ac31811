package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/speakeasy-api/openapi-refs/document"
	"github.com/speakeasy-api/openapi-refs/references"
	"github.com/spf13/cobra"
)

type resolveOptions struct {
	mode     string
	format   string
	lenient  bool
	maxDepth int
}

func newResolveCmd() *cobra.Command {
	opts := &resolveOptions{}

	cmd := &cobra.Command{
		Use:   "resolve [input-file] [output-file]",
		Short: "Resolve the references of a document",
		Long: `Resolve every $ref of an OpenAPI or JSON Schema document and print the result.

References are replaced by the objects they point to, following chains of references and
loading external files and URLs. External documents have their own relative references
rewritten so they stay valid in the resolved output.

Modes:
- all:    resolve every reference (default)
- inline: only pull in external references, same document references are kept

A reference that would make the output cyclic, such as a recursive schema, is kept as it is.

Reads from stdin when no input file is given or the input file is "-". Writes to stdout
unless an output file is given.`,
		Example: `  # Resolve a document and print it as YAML
  refresolve resolve ./openapi.yaml

  # Inline external references only and write JSON to a file
  refresolve resolve --mode inline --format json ./openapi.yaml ./bundled.json

  # Keep going past broken references
  cat openapi.yaml | refresolve resolve --lenient`,
		Args: stdinOrFileArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, opts, argAt(args, 0, StdinIndicator), argAt(args, 1, ""))
		},
	}

	cmd.Flags().StringVar(&opts.mode, "mode", references.ModeAll.String(), "resolution mode: all or inline")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: json or yaml (default: format of the input)")
	cmd.Flags().BoolVar(&opts.lenient, "lenient", false, "keep unresolvable references and report them instead of failing")
	cmd.Flags().IntVar(&opts.maxDepth, "max-depth", references.DefaultMaxDepth, "maximum length of a chain of references")

	return cmd
}

func runResolve(cmd *cobra.Command, opts *resolveOptions, inputFile, outputFile string) error {
	ctx := cmd.Context()
	start := time.Now()

	mode, err := parseMode(opts.mode)
	if err != nil {
		return err
	}

	in, err := readInput(cmd.InOrStdin(), inputFile)
	if err != nil {
		return err
	}

	cfg := document.GetConfigFromData(in.data)
	switch opts.format {
	case "":
	case string(document.OutputFormatJSON), string(document.OutputFormatYAML):
		cfg.OutputFormat = document.OutputFormat(opts.format)
	default:
		return fmt.Errorf("unknown output format %q", opts.format)
	}

	root, rc, err := in.load(
		references.WithMode(mode),
		references.WithThrowOnError(!opts.lenient),
		references.WithMaxDepth(opts.maxDepth),
		references.WithLogger(newLogger(cmd)),
	)
	if err != nil {
		return err
	}

	resolved, errs, err := resolveDocument(ctx, root, rc)
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", in.name, err)
	}

	if len(errs) > 0 {
		warn := color.New(color.FgYellow)
		warn.Fprintf(cmd.ErrOrStderr(), "⚠️  %d reference errors:\n", len(errs))
		fmt.Fprint(cmd.ErrOrStderr(), formatErrors(errs))
	}

	if err := writeDocument(cmd.OutOrStdout(), outputFile, resolved, cfg); err != nil {
		return err
	}

	if outputFile != "" {
		reportElapsed(cmd.ErrOrStderr(), "Resolution", time.Since(start))
	}
	return nil
}

func writeDocument(stdout io.Writer, outputFile string, tree any, cfg *document.Config) error {
	if outputFile == "" {
		return document.Encode(stdout, tree, cfg)
	}

	cleanOutputFile := filepath.Clean(outputFile)
	outFile, err := os.Create(cleanOutputFile)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer outFile.Close()

	if err := document.Encode(outFile, tree, cfg); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	return nil
}

func formatErrors(errs []string) string {
	var sb strings.Builder
	indexWidth := len(strconv.Itoa(len(errs)))

	for i, e := range errs {
		fmt.Fprintf(&sb, "%*d. %s\n", indexWidth, i+1, e)
	}

	return sb.String()
}
