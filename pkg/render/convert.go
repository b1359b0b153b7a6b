package render

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Formats lists the output formats accepted by [Convert].
var Formats = []string{"svg", "pdf", "png"}

// Convert returns svg in the given format. "svg" is returned unchanged.
func Convert(ctx context.Context, svg []byte, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "svg":
		return svg, nil
	case "pdf":
		return ToPDF(ctx, svg)
	case "png":
		return ToPNG(ctx, svg, 2.0)
	default:
		return nil, fmt.Errorf("unsupported format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}
}

// ToPDF converts SVG bytes to PDF using rsvg-convert.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func ToPDF(ctx context.Context, svg []byte) ([]byte, error) {
	return rsvgConvert(ctx, svg, "pdf")
}

// ToPNG converts SVG bytes to PNG using rsvg-convert with the given scale factor.
// Scale of 2.0 produces a 2x resolution image.
func ToPNG(ctx context.Context, svg []byte, scale float64) ([]byte, error) {
	return rsvgConvert(ctx, svg, "png", "-z", fmt.Sprintf("%.2f", scale))
}

func rsvgConvert(ctx context.Context, svg []byte, format string, extraArgs ...string) ([]byte, error) {
	if _, err := exec.LookPath("rsvg-convert"); err != nil {
		return nil, fmt.Errorf("%s export requires librsvg. Install with:\n  macOS:  brew install librsvg\n  Linux:  apt install librsvg2-bin", format)
	}

	args := append([]string{"-f", format}, extraArgs...)
	cmd := exec.CommandContext(ctx, "rsvg-convert", args...)
	cmd.Stdin = bytes.NewReader(svg)

	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("rsvg-convert: %v: %s", err, errBuf.String())
	}
	return out.Bytes(), nil
}
