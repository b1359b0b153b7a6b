package io

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"github.com/matzehuels/gitdag/pkg/ancestry"
	"github.com/matzehuels/gitdag/pkg/report"
)

var bom = []byte{0xEF, 0xBB, 0xBF}

type document struct {
	ID        string `json:"id"`
	Caption   string `json:"caption"`
	Timestamp string `json:"timestamp"`
	Nodes     []node `json:"nodes"`
	Edges     []edge `json:"edges"`
}

// ReadJSON decodes a JSON report from r.
//
// Each node must have an "id"; each edge must have "source" and "target"
// fields that reference node ids. ReadJSON returns an error if the JSON is
// malformed, a node id repeats, an edge references an unknown node, or the
// timestamp is not RFC 3339. Unknown top-level keys end up in Extra.
//
// ReadJSON does not close r.
func ReadJSON(r io.Reader) (*report.Report, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(bom)); err == nil && bytes.Equal(head, bom) {
		_, _ = br.Discard(len(bom))
	}
	raw, err := io.ReadAll(br)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}

	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(raw, &all); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	out := &report.Report{
		ID:      doc.ID,
		Caption: doc.Caption,
		Nodes:   make([]report.Node, 0, len(doc.Nodes)),
		Edges:   make([]report.Edge, 0, len(doc.Edges)),
	}
	if doc.Timestamp != "" {
		ts, err := time.Parse(timestampFmt, doc.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("timestamp: %w", err)
		}
		out.CreatedAt = ts
	}

	seen := make(map[string]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		if n.ID == "" {
			return nil, errors.New("node without id")
		}
		if seen[n.ID] {
			return nil, fmt.Errorf("node %s: duplicate id", n.ID)
		}
		seen[n.ID] = true
		out.Nodes = append(out.Nodes, report.Node{
			ID:    ancestry.CommitID(n.ID),
			Names: n.Data.Names,
			Refs:  n.Data.Refs,
			Kind:  n.Data.Kind,
			URL:   n.Data.URL,
		})
	}
	for _, e := range doc.Edges {
		if !seen[e.Source] || !seen[e.Target] {
			return nil, fmt.Errorf("edge %s->%s: unknown node", e.Source, e.Target)
		}
		out.Edges = append(out.Edges, report.Edge{
			From:     ancestry.CommitID(e.Source),
			To:       ancestry.CommitID(e.Target),
			Distance: e.Distance,
		})
	}

	for k, v := range all {
		if slices.Contains(reserved, k) {
			continue
		}
		var val any
		if err := json.Unmarshal(v, &val); err != nil {
			return nil, fmt.Errorf("field %s: %w", k, err)
		}
		if out.Extra == nil {
			out.Extra = make(map[string]any)
		}
		out.Extra[k] = val
	}
	return out, nil
}

// ImportJSON reads a JSON file at path and returns the decoded report.
// It returns the same validation errors as [ReadJSON], wrapped with the path.
func ImportJSON(path string) (*report.Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	r, err := ReadJSON(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}
