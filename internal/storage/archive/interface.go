// internal/storage/archive/interface.go
package archive

import (
	"context"
	"path"
	"time"
)

// Storage defines the interface for the cold archive of completed run
// documents. Keys use forward slashes on every backend.
type Storage interface {
	// Write stores data at the given key.
	Write(ctx context.Context, key string, data []byte) error

	// Read retrieves data from the given key.
	Read(ctx context.Context, key string) ([]byte, error)

	// List returns all keys matching the prefix.
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes the data at the given key.
	Delete(ctx context.Context, key string) error

	// Exists checks if data exists at the given key.
	Exists(ctx context.Context, key string) (bool, error)
}

// ResultKey returns the archive key for a run document, partitioned by
// completion date: runs/2024/06/01/<run-id>.json.
func ResultKey(createdAt time.Time, runID string) string {
	return path.Join("runs", createdAt.UTC().Format("2006/01/02"), runID+".json")
}
