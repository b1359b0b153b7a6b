// Package io provides JSON import and export for ancestry reports.
//
// # JSON Format
//
// A report is one JSON object:
//
//	{
//	  "id": "8c1f0a9e-...",
//	  "caption": "Branches",
//	  "timestamp": "2024-03-01T09:30:00Z",
//	  "nodes": [
//	    {"id": "9fceb02...", "type": "git",
//	     "data": {"kind": "branch", "names": ["master"], "refs": ["master"],
//	              "url": "https://git.example.com/commit/9fceb02...", "short": "9fceb02"}},
//	    {"id": "1a2b3c4...", "type": "git",
//	     "data": {"kind": "merge-base", "short": "1a2b3c4"}}
//	  ],
//	  "edges": [
//	    {"source": "1a2b3c4...", "target": "9fceb02...", "type": "ancestry", "distance": 12}
//	  ]
//	}
//
// Edges point from the older commit (source) to the newer one (target).
// Additional top-level keys from [report.Report.Extra] are written next to
// the fixed ones and read back into Extra; fixed keys always win.
//
// # Export
//
// Use [ExportJSON] to write a report to a file, or [WriteJSON] to write to any
// io.Writer. Edges whose endpoints are not nodes of the report are dropped.
//
// # Import
//
// Use [ImportJSON] or [ReadJSON]. Input may start with a UTF-8 byte order
// mark. Duplicate node ids and edges referencing unknown nodes are errors.
//
// [report.Report.Extra]: github.com/matzehuels/gitdag/pkg/report.Report
package io
