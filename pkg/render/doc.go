// Package render converts rendered graphs between output formats.
//
// Diagram generation lives in the [nodelink] subpackage, which produces
// Graphviz DOT and SVG from a report. This package converts SVG to PDF or
// PNG with the external rsvg-convert tool (from librsvg):
//
//	svg, err := nodelink.RenderSVG(ctx, nodelink.ToDOT(r, nodelink.Options{}))
//	pdf, err := render.ToPDF(ctx, svg)
//	png, err := render.ToPNG(ctx, svg, 2.0) // 2x scale
//
// [nodelink]: github.com/matzehuels/gitdag/pkg/render/nodelink
package render
