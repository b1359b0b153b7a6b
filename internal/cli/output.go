package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/gitdag/pkg/ancestry"
	"github.com/matzehuels/gitdag/pkg/config"
	pkgio "github.com/matzehuels/gitdag/pkg/io"
	"github.com/matzehuels/gitdag/pkg/render"
	"github.com/matzehuels/gitdag/pkg/render/nodelink"
	"github.com/matzehuels/gitdag/pkg/report"
)

// outputFormat returns the format implied by a file extension.
func outputFormat(path string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "json", "dot", "svg", "pdf", "png":
		return ext, nil
	case "gv":
		return "dot", nil
	default:
		return "", fmt.Errorf("cannot infer output format from %q (use .json, .dot, .svg, .pdf or .png)", path)
	}
}

// encode renders r in format.
func encode(ctx context.Context, r *report.Report, format string, opts nodelink.Options) ([]byte, error) {
	switch format {
	case "json":
		var buf strings.Builder
		if err := pkgio.WriteJSON(r, &buf); err != nil {
			return nil, err
		}
		return []byte(buf.String()), nil
	case "dot":
		return []byte(nodelink.ToDOT(r, opts)), nil
	default:
		svg, err := nodelink.RenderSVG(ctx, nodelink.ToDOT(r, opts))
		if err != nil {
			return nil, err
		}
		return render.Convert(ctx, svg, format)
	}
}

// writeOutput renders r to path in the format its extension names.
func writeOutput(ctx context.Context, r *report.Report, path string, opts nodelink.Options) error {
	format, err := outputFormat(path)
	if err != nil {
		return err
	}
	if format == "json" {
		if err := pkgio.ExportJSON(r, path); err != nil {
			return err
		}
		printFile(path)
		return nil
	}
	data, err := encode(ctx, r, format, opts)
	if err != nil {
		return fmt.Errorf("render %s: %w", path, err)
	}
	return writeFile(path, data)
}

// writeFile writes data to path, creating parent directories.
func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	printFile(path)
	return nil
}

// writeOutputs writes every non-empty path of out.
func writeOutputs(ctx context.Context, r *report.Report, out config.Output) (int, error) {
	opts := nodelink.Options{Detailed: out.Detailed}
	written := 0
	for _, path := range []string{out.JSON, out.DOT, out.SVG} {
		if path == "" {
			continue
		}
		if err := writeOutput(ctx, r, path, opts); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

// printReport prints the nodes of r and its edges as "older → newer" lines.
func printReport(r *report.Report) {
	labels := make(map[ancestry.CommitID]string, len(r.Nodes))
	for _, n := range r.Nodes {
		labels[n.ID] = nodeLabel(n)
		printKeyValue(n.Short(), labels[n.ID])
	}
	if len(r.Edges) == 0 {
		return
	}
	printNewline()
	for _, e := range r.Edges {
		fmt.Printf("  %s %s %s %s\n",
			StyleValue.Render(labels[e.From]),
			StyleDim.Render(iconArrow),
			StyleValue.Render(labels[e.To]),
			StyleDim.Render(fmt.Sprintf("(%s)", plural(e.Distance, "commit"))))
	}
}

// nodeLabel joins a node's names, or describes an unnamed merge base.
func nodeLabel(n report.Node) string {
	if len(n.Names) == 0 {
		return "merge base " + n.Short()
	}
	return strings.Join(n.Names, ", ")
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}
