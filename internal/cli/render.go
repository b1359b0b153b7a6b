package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	pkgio "github.com/matzehuels/gitdag/pkg/io"
	"github.com/matzehuels/gitdag/pkg/render/nodelink"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output        string   // output file path (or base path for multiple outputs)
	formats       []string // output formats: "svg", "dot", "pdf", "png"
	detailed      bool     // show commit ids under names
	hideDistances bool     // drop edge labels
}

// renderCommand creates the render command for saved graphs.
func (c *CLI) renderCommand() *cobra.Command {
	var formatsStr string
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render <graph.json>",
		Short: "Render a saved graph to SVG, DOT, PDF or PNG",
		Example: `  gitdag render graph.json
  gitdag render graph.json -f svg,pdf -o out/branches`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := validateFormats(opts.formats); err != nil {
				return err
			}
			return runRender(cmd.Context(), args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), dot, pdf, png (comma-separated)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "show commit ids under names")
	cmd.Flags().BoolVar(&opts.hideDistances, "no-distances", false, "do not label edges with commit counts")

	return cmd
}

// parseFormats parses the --format flag into a slice of output formats.
// If empty, defaults to ["svg"].
func parseFormats(s string) []string {
	if s == "" {
		return []string{"svg"}
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// validFormats is the set of supported render formats.
var validFormats = map[string]bool{"svg": true, "dot": true, "pdf": true, "png": true}

// validateFormats checks that all requested formats are valid.
func validateFormats(formats []string) error {
	for _, f := range formats {
		if !validFormats[f] {
			return fmt.Errorf("invalid format: %s (must be 'svg', 'dot', 'pdf', or 'png')", f)
		}
	}
	return nil
}

// outputPaths maps each format to its output file. A single format with
// an explicit output uses it verbatim; otherwise the format becomes the
// extension of a base path derived from output or input.
func outputPaths(output, input string, formats []string) map[string]string {
	paths := make(map[string]string, len(formats))
	if len(formats) == 1 && output != "" {
		paths[formats[0]] = output
		return paths
	}
	base := basePath(output, input)
	for _, f := range formats {
		paths[f] = base + "." + f
	}
	return paths
}

// basePath derives the base output path from the output and input file paths.
// If output is empty, it strips the extension from input.
// If output has a format extension (.svg, .pdf, etc.), it strips that extension.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if validFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// runRender loads the graph from input and renders it to the requested formats.
func runRender(ctx context.Context, input string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)
	logger.Infof("Rendering %s", input)

	r, err := pkgio.ImportJSON(input)
	if err != nil {
		return err
	}
	logger.Infof("Loaded graph: %d nodes, %d edges", len(r.Nodes), len(r.Edges))

	nopts := nodelink.Options{Detailed: opts.detailed, HideDistances: opts.hideDistances}
	paths := outputPaths(opts.output, input, opts.formats)
	for _, f := range opts.formats {
		data, err := encode(ctx, r, f, nopts)
		if err != nil {
			return fmt.Errorf("render %s: %w", f, err)
		}
		if err := writeFile(paths[f], data); err != nil {
			return err
		}
	}
	printSuccess("Rendered %s", plural(len(r.Nodes), "commit"))
	return nil
}
