// Package commands implements the refresolve command line.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/lmittmann/tint"
	"github.com/speakeasy-api/openapi-refs/document"
	"github.com/speakeasy-api/openapi-refs/references"
	"github.com/spf13/cobra"
)

// StdinIndicator is the conventional Unix indicator to read from stdin.
const StdinIndicator = "-"

// Apply adds the reference commands to root.
func Apply(root *cobra.Command) {
	root.AddCommand(newResolveCmd())
	root.AddCommand(newValidateCmd())
}

// IsStdin returns true if the given path indicates stdin should be used.
func IsStdin(path string) bool {
	return path == StdinIndicator
}

func stdinIsPiped() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) == 0
}

// stdinOrFileArgs accepts minArgs..maxArgs when a file is given, or zero args when stdin is piped.
func stdinOrFileArgs(minArgs, maxArgs int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			if stdinIsPiped() {
				return nil
			}
			return fmt.Errorf("requires at least %d arg(s), or pipe data to stdin", minArgs)
		}
		if len(args) < minArgs {
			return fmt.Errorf("requires at least %d arg(s), only received %d", minArgs, len(args))
		}
		if maxArgs >= 0 && len(args) > maxArgs {
			return fmt.Errorf("accepts at most %d arg(s), received %d", maxArgs, len(args))
		}
		return nil
	}
}

func argAt(args []string, i int, fallback string) string {
	if i < len(args) {
		return args[i]
	}
	return fallback
}

// input is a document read from a file or stdin.
type input struct {
	name    string
	baseURI string
	data    []byte
}

func readInput(stdin io.Reader, file string) (*input, error) {
	if IsStdin(file) {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		// relative locations are resolved against the working directory
		return &input{name: "stdin", data: data}, nil
	}

	cleanFile := filepath.Clean(file)
	data, err := os.ReadFile(cleanFile)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}

	abs, err := filepath.Abs(cleanFile)
	if err != nil {
		return nil, fmt.Errorf("failed to locate input file: %w", err)
	}

	return &input{name: cleanFile, baseURI: filepath.ToSlash(abs), data: data}, nil
}

// load decodes and hydrates the input and returns its root with a context resolving against it.
func (in *input) load(opts ...references.Option) (any, *references.ReferenceContext, error) {
	tree, err := document.Decode(in.data)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse %s: %w", in.name, err)
	}
	if tree == nil {
		return nil, nil, errors.New("document is empty")
	}

	root, err := references.HydrateDocument(tree)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read references of %s: %w", in.name, err)
	}

	opts = append([]references.Option{
		references.WithBaseSpec(root),
		references.WithBaseURI(in.baseURI),
	}, opts...)

	return root, references.NewReferenceContext(opts...), nil
}

func parseMode(mode string) (references.ResolveMode, error) {
	switch mode {
	case references.ModeAll.String():
		return references.ModeAll, nil
	case references.ModeInline.String():
		return references.ModeInline, nil
	default:
		return 0, fmt.Errorf("unknown mode %q, expected %q or %q", mode, references.ModeAll, references.ModeInline)
	}
}

// newLogger returns the console logger of a command, debug output is enabled by --verbose.
func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}

	return slog.New(tint.NewHandler(cmd.ErrOrStderr(), &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
		NoColor:    color.NoColor,
	}))
}

// collectErrors returns the recorded errors of every reference left in tree.
func collectErrors(tree any) []string {
	c := &errorCollector{seen: make(map[any]struct{})}
	c.walk(tree)
	return c.errs
}

type errorCollector struct {
	seen map[any]struct{}
	errs []string
}

func (c *errorCollector) walk(node any) {
	switch v := node.(type) {
	case *references.Reference:
		if c.visit(v) {
			c.errs = append(c.errs, v.GetErrors()...)
		}
	case *references.Object:
		if c.visit(v) {
			c.walk(v.Data)
		}
	case *document.Mapping:
		if c.visit(v) {
			for _, value := range v.All() {
				c.walk(value)
			}
		}
	case []any:
		for _, item := range v {
			c.walk(item)
		}
	}
}

func (c *errorCollector) visit(node any) bool {
	if _, ok := c.seen[node]; ok {
		return false
	}
	c.seen[node] = struct{}{}
	return true
}

func reportElapsed(w io.Writer, action string, elapsed time.Duration) {
	roundedElapsed := elapsed.Round(time.Millisecond)
	if roundedElapsed < time.Millisecond {
		roundedElapsed = time.Millisecond
	}

	fmt.Fprintf(w, "%s completed in %s\n", action, roundedElapsed)
}

// resolveDocument resolves every reference of root and returns the resolved tree with the errors of
// the references that failed or were malformed.
func resolveDocument(ctx context.Context, root any, rc *references.ReferenceContext) (any, []string, error) {
	start := time.Now()

	resolved, replacedErrs, err := references.ResolveAllWithErrors(ctx, rc, root)
	if err != nil {
		return nil, nil, err
	}

	rc.Logger().Debug("resolved document", "references", rc.Cache().Len(), "elapsed", time.Since(start))
	return resolved, append(collectErrors(resolved), replacedErrs...), nil
}
