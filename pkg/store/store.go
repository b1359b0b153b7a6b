// Package store keeps report snapshots.
//
// A watcher rebuilds the ancestry report on a schedule and saves each result;
// the server and CLI read the latest one back. Two backends are provided:
//   - [FileStore]: one JSON file per snapshot in a directory, for single hosts
//   - [MongoStore]: a MongoDB collection, for shared deployments
//
// Both store reports in the JSON format of [pkgio.WriteJSON], so a snapshot
// can be copied out of either backend and rendered directly.
//
// [pkgio.WriteJSON]: github.com/matzehuels/gitdag/pkg/io.WriteJSON
package store

import (
	"context"
	"errors"

	"github.com/matzehuels/gitdag/pkg/report"
)

// ErrNotFound is returned when no matching snapshot exists.
var ErrNotFound = errors.New("snapshot not found")

// Store is the interface for snapshot storage backends.
type Store interface {
	// Save stores a report. Reports are keyed by their ID; saving the same
	// ID twice replaces the earlier snapshot.
	Save(ctx context.Context, r *report.Report) error

	// Get returns the snapshot with the given report ID.
	Get(ctx context.Context, id string) (*report.Report, error)

	// Latest returns the snapshot with the newest CreatedAt.
	// Returns ErrNotFound if the store is empty.
	Latest(ctx context.Context) (*report.Report, error)

	// Close releases the backend's resources.
	Close() error
}
