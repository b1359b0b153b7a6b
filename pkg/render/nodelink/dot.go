package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/gitdag/pkg/render"
	"github.com/matzehuels/gitdag/pkg/report"
)

// Options configures node-link diagram rendering.
type Options struct {
	// Detailed adds the abbreviated commit id below the node names.
	// Merge-base nodes always show their id.
	Detailed bool

	// HideDistances drops edge labels.
	HideDistances bool
}

// ToDOT converts a report to Graphviz DOT format.
// The resulting DOT string can be rendered using [RenderSVG], [RenderPDF], or [RenderPNG].
func ToDOT(r *report.Report, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	if r.Caption != "" {
		fmt.Fprintf(&buf, "  label=%q;\n", r.Caption)
		buf.WriteString("  labelloc=t;\n")
		buf.WriteString("  fontsize=28;\n")
	}
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=24, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [fontsize=18, fontcolor=grey30];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	known := make(map[string]bool, len(r.Nodes))
	for _, n := range r.Nodes {
		known[string(n.ID)] = true
		attrs := fmtAttrs(n, fmtLabel(n, opts.Detailed))
		fmt.Fprintf(&buf, "  %q [%s];\n", string(n.ID), strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range r.Edges {
		if !known[string(e.From)] || !known[string(e.To)] {
			continue
		}
		if opts.HideDistances {
			fmt.Fprintf(&buf, "  %q -> %q;\n", string(e.From), string(e.To))
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", string(e.From), string(e.To), strconv.Itoa(e.Distance))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n report.Node, detailed bool) string {
	if len(n.Names) == 0 {
		return n.Short()
	}
	label := strings.Join(n.Names, "\n")
	if detailed {
		label += "\n" + n.Short()
	}
	return label
}

func fmtAttrs(n report.Node, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	switch n.Kind {
	case report.KindMergeBase:
		attrs = append(attrs, "style=\"rounded,filled,dashed\"", "fillcolor=lightgrey", "fontcolor=black")
	case report.KindTag:
		attrs = append(attrs, "fillcolor=lightyellow")
	}
	if n.URL != "" {
		attrs = append(attrs, fmt.Sprintf("URL=%q", n.URL))
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
// A scale of 2.0 produces a 2x resolution image suitable for high-DPI displays.
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}
