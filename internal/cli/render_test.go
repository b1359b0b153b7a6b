package cli

import (
	"testing"
)

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty defaults to svg", "", []string{"svg"}},
		{"single format", "svg", []string{"svg"}},
		{"multiple formats", "svg,pdf,png", []string{"svg", "pdf", "png"}},
		{"spaces trimmed", "svg, dot", []string{"svg", "dot"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseFormats(tt.input)
			if len(got) != len(tt.want) {
				t.Errorf("parseFormats(%q) length = %d, want %d", tt.input, len(got), len(tt.want))
				return
			}
			for i, v := range got {
				if v != tt.want[i] {
					t.Errorf("parseFormats(%q)[%d] = %q, want %q", tt.input, i, v, tt.want[i])
				}
			}
		})
	}
}

func TestValidateFormats(t *testing.T) {
	tests := []struct {
		name    string
		formats []string
		wantErr bool
	}{
		{"valid svg", []string{"svg"}, false},
		{"valid dot", []string{"dot"}, false},
		{"valid multiple", []string{"svg", "pdf", "png"}, false},
		{"json is not a render format", []string{"json"}, true},
		{"invalid format", []string{"invalid"}, true},
		{"mixed valid invalid", []string{"svg", "invalid"}, true},
		{"empty slice", []string{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateFormats(tt.formats)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateFormats(%v) error = %v, wantErr %v", tt.formats, err, tt.wantErr)
			}
		})
	}
}

func TestBasePath(t *testing.T) {
	tests := []struct {
		output, input, want string
	}{
		{"", "graph.json", "graph"},
		{"", "out/graph.json", "out/graph"},
		{"diagram.svg", "graph.json", "diagram"},
		{"diagram.pdf", "graph.json", "diagram"},
		{"diagram", "graph.json", "diagram"},
		{"diagram.txt", "graph.json", "diagram.txt"},
	}

	for _, tt := range tests {
		if got := basePath(tt.output, tt.input); got != tt.want {
			t.Errorf("basePath(%q, %q) = %q, want %q", tt.output, tt.input, got, tt.want)
		}
	}
}

func TestOutputPaths(t *testing.T) {
	got := outputPaths("custom.out", "graph.json", []string{"svg"})
	if got["svg"] != "custom.out" {
		t.Errorf("single format path = %q, want custom.out", got["svg"])
	}

	got = outputPaths("", "graph.json", []string{"svg", "dot"})
	if got["svg"] != "graph.svg" || got["dot"] != "graph.dot" {
		t.Errorf("paths = %v", got)
	}

	got = outputPaths("out/diagram.svg", "graph.json", []string{"svg", "png"})
	if got["svg"] != "out/diagram.svg" || got["png"] != "out/diagram.png" {
		t.Errorf("paths = %v", got)
	}
}
