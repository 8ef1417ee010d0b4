// Package ingest discovers receipt images on the local file system and
// hands them to the pipeline, either in one pass or by watching inbox
// directories.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
)

// PathHandler ingests one file. It returns an identifier for the outcome,
// such as the stored receipt id.
type PathHandler func(ctx context.Context, path string) (string, error)

// FileResult is the per-file outcome of a directory pass.
type FileResult struct {
	Path string
	ID   string
	Err  error
}

// DirStats summarizes a directory pass.
type DirStats struct {
	Scanned   uint32
	Matched   uint32
	Succeeded uint32
	Failed    uint32
}

// IngestDirectory walks root and calls handle for every allowed image,
// continuing past per-file failures. Cancelling ctx stops the walk.
func IngestDirectory(ctx context.Context, root string, skipHidden bool, handle PathHandler) ([]FileResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}

	var (
		results []FileResult
		stats   DirStats
	)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			results = append(results, FileResult{Path: path, Err: walkErr})
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !allowedPath(path) {
			return nil
		}
		stats.Matched++

		id, err := handle(ctx, path)
		results = append(results, FileResult{Path: path, ID: id, Err: err})
		if err != nil {
			stats.Failed++
			return nil
		}
		stats.Succeeded++
		return nil
	})
	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}
	return results, stats, nil
}
