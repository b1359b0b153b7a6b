package io

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"time"

	"github.com/matzehuels/gitdag/pkg/report"
)

const (
	nodeTypeGit  = "git"
	edgeTypeGit  = "ancestry"
	timestampFmt = time.RFC3339
)

// reserved lists the top-level keys that Extra cannot override.
var reserved = []string{"id", "caption", "timestamp", "nodes", "edges"}

type node struct {
	ID   string   `json:"id"`
	Type string   `json:"type"`
	Data nodeData `json:"data"`
}

type nodeData struct {
	Kind  string   `json:"kind"`
	Names []string `json:"names,omitempty"`
	Refs  []string `json:"refs,omitempty"`
	URL   string   `json:"url,omitempty"`
	Short string   `json:"short"`
}

type edge struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	Type     string `json:"type"`
	Distance int    `json:"distance"`
}

// WriteJSON encodes a report as JSON and writes it to w.
// This format can be re-imported with [ReadJSON].
func WriteJSON(r *report.Report, w io.Writer) error {
	out := make(map[string]any, len(r.Extra)+len(reserved))
	maps.Copy(out, r.Extra)

	nodes := make([]node, len(r.Nodes))
	known := make(map[string]bool, len(r.Nodes))
	for i, n := range r.Nodes {
		nodes[i] = node{
			ID:   string(n.ID),
			Type: nodeTypeGit,
			Data: nodeData{Kind: n.Kind, Names: n.Names, Refs: n.Refs, URL: n.URL, Short: n.Short()},
		}
		known[string(n.ID)] = true
	}
	edges := make([]edge, 0, len(r.Edges))
	for _, e := range r.Edges {
		if !known[string(e.From)] || !known[string(e.To)] {
			continue
		}
		edges = append(edges, edge{Source: string(e.From), Target: string(e.To), Type: edgeTypeGit, Distance: e.Distance})
	}

	out["id"] = r.ID
	out["caption"] = r.Caption
	out["timestamp"] = r.CreatedAt.Format(timestampFmt)
	out["nodes"] = nodes
	out["edges"] = edges

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes a report to a JSON file at path.
// This is a convenience wrapper around [WriteJSON] for file-based output.
func ExportJSON(r *report.Report, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteJSON(r, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
