package vfs

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charlievieth/fastwalk"
)

// ExtensionStats groups counts and byte totals by lowercased extension.
type ExtensionStats struct {
	Files int64 `json:"files"`
	Bytes int64 `json:"bytes"`
}

// Stats holds aggregate numbers for the whole volume. It is computed on
// demand and never mutated after being returned.
type Stats struct {
	Files       int64                     `json:"total_files"`
	Directories int64                     `json:"total_directories"`
	TotalBytes  int64                     `json:"total_size_bytes"`
	ByExtension map[string]ExtensionStats `json:"by_extension"`
	ComputedAt  time.Time                 `json:"computed_at"`
}

// Aggregator walks the volume tree and sums sizes and counts. An optional
// short TTL caches the result; with TTL zero every call recomputes, which
// needs no invalidation logic.
type Aggregator struct {
	ops *Ops
	ttl time.Duration

	mu       sync.Mutex
	cached   *Stats
	cachedAt time.Time
}

// NewAggregator builds an aggregator over ops' volume root.
func NewAggregator(ops *Ops, ttl time.Duration) *Aggregator {
	return &Aggregator{ops: ops, ttl: ttl}
}

// Aggregate walks the whole tree. The walk never follows symlinks, so
// every visited path stays under the root by construction, and entries
// that disappear mid-walk (a race with a concurrent delete) count as
// already excluded rather than aborting the aggregation.
func (a *Aggregator) Aggregate(ctx context.Context) (Stats, error) {
	if a.ttl > 0 {
		a.mu.Lock()
		if a.cached != nil && time.Since(a.cachedAt) < a.ttl {
			cached := *a.cached
			a.mu.Unlock()
			return cached, nil
		}
		a.mu.Unlock()
	}

	root := a.ops.Root()
	var mu sync.Mutex
	stats := Stats{ByExtension: make(map[string]ExtensionStats)}

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, root, func(path string, d os.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err != nil {
			return nil // vanished mid-walk
		}
		if path == root || d.Type()&fs.ModeSymlink != 0 {
			return nil
		}

		if d.IsDir() {
			mu.Lock()
			stats.Directories++
			mu.Unlock()
			return nil
		}

		info, infoErr := d.Info()
		if infoErr != nil {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext == "" {
			ext = "(none)"
		}

		mu.Lock()
		stats.Files++
		stats.TotalBytes += info.Size()
		bucket := stats.ByExtension[ext]
		bucket.Files++
		bucket.Bytes += info.Size()
		stats.ByExtension[ext] = bucket
		mu.Unlock()
		return nil
	})
	if err != nil {
		return Stats{}, wrapOS("stats", "", err)
	}
	stats.ComputedAt = time.Now().UTC()

	if a.ttl > 0 {
		a.mu.Lock()
		snapshot := stats
		a.cached = &snapshot
		a.cachedAt = time.Now()
		a.mu.Unlock()
	}
	return stats, nil
}
