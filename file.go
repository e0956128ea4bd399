// Copyright 2026 The SDMeta Authors
// SPDX-License-Identifier: MIT

package sdmeta

import (
	"bufio"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ExtractFile opens the file at path and extracts its textual metadata.
// opts.R is ignored.
func ExtractFile(path string, opts Options) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	opts.R = bufio.NewReader(f)
	return Extract(opts)
}

// IsPNGFile reports whether the file at path starts with the PNG signature.
func IsPNGFile(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	return IsPNG(f)
}

// SidecarPath returns the path the extracted metadata of an image is
// written to: image.png becomes image.txt.
func SidecarPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ".txt"
}

// Stats holds the running totals of a ProcessDir run.
type Stats struct {
	// Processed is the number of PNG files scanned.
	Processed int
	// Extracted is the number of files whose metadata was found and written.
	Extracted int
}

// BatchOptions configures a ProcessDir run.
type BatchOptions struct {
	// Workers is the number of files processed concurrently.
	// Defaults to GOMAXPROCS.
	Workers int

	// Progress, if set, is called after each file with a snapshot of the
	// running totals. It may be called from multiple goroutines, one call
	// at a time per file but in no particular order.
	Progress func(Stats)
}

// ProcessDir extracts metadata from every PNG file directly under dir and
// writes each result to the file's sidecar path. Files whose extension is
// not .png, or whose first eight bytes are not the PNG signature, are
// skipped without being counted. Extraction failures on individual files
// are reported through opts.Warnf and do not stop the run.
//
// Each file is one independent scan, so files are processed concurrently;
// ctx cancels the remainder of the run.
func ProcessDir(ctx context.Context, dir string, opts Options, batch BatchOptions) (Stats, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Stats{}, err
	}

	if opts.Warnf == nil {
		opts.Warnf = func(string, ...any) {}
	}

	workers := batch.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var (
		mu    sync.Mutex
		stats Stats
	)

	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		if !strings.EqualFold(filepath.Ext(name), ".png") {
			continue
		}
		path := filepath.Join(dir, name)

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if !IsPNGFile(path) {
				return nil
			}

			metadata, err := ExtractFile(path, opts)

			wrote := false
			switch {
			case err == nil:
				if werr := os.WriteFile(SidecarPath(path), []byte(metadata), 0o644); werr != nil {
					opts.Warnf("sdmeta: writing %s: %s", SidecarPath(path), werr)
				} else {
					wrote = true
				}
			case errors.Is(err, ErrNoMetadata) || IsInvalidFormat(err):
				// Nothing to write.
			default:
				opts.Warnf("sdmeta: %s: %s", path, err)
			}

			mu.Lock()
			stats.Processed++
			if wrote {
				stats.Extracted++
			}
			snapshot := stats
			mu.Unlock()

			if batch.Progress != nil {
				batch.Progress(snapshot)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return stats, err
	}
	return stats, nil
}
