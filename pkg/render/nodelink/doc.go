// Package nodelink renders ancestry reports as node-link diagrams.
//
// # Overview
//
// Every commit in a [report.Report] becomes a box and every direct ancestry
// edge an arrow from the older commit to the newer one, labelled with the
// number of commits between them. Merge bases that no reference named are
// drawn dashed and grey so the named branches and tags stand out.
//
// # Usage
//
//	dot := nodelink.ToDOT(r, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// For PDF or PNG output, use [RenderPDF] and [RenderPNG], which convert the
// SVG with rsvg-convert.
//
// # DOT Format
//
// The generated DOT uses top-to-bottom layout (rankdir=TB) with rounded box
// nodes, so roots sit at the top and branch heads at the bottom. Nodes with a
// URL carry it as a Graphviz URL attribute, which SVG output turns into a
// link.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering.
//
// [report.Report]: github.com/matzehuels/gitdag/pkg/report.Report
package nodelink
