// Copyright 2026 The SDMeta Authors
// SPDX-License-Identifier: MIT

// Command sdextract scans a folder of PNG files and writes the Stable
// Diffusion generation parameters found in their text chunks to .txt
// sidecar files.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"

	sdmeta "github.com/EDG429/PNG-Metadata-Extractor-for-Stable-Diffusion"
	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"
)

var (
	workers = flag.Int("workers", 0, "number of files processed concurrently (0 = number of CPUs)")
	quiet   = flag.BoolP("quiet", "q", false, "suppress the progress line")
	latin1  = flag.Bool("latin1", false, "convert tEXt/zTXt values from ISO 8859-1 to UTF-8")
	itxt    = flag.Bool("itxt", false, "also read iTXt chunks")
	verbose = flag.BoolP("verbose", "v", false, "log skipped files and chunks")
)

func main() {
	flag.Parse()

	log := logrus.New()
	log.SetOutput(os.Stderr)
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	dir := flag.Arg(0)
	if dir == "" {
		fmt.Println("Stable Diffusion PNG Metadata Extractor (tEXt + zTXt)")
		fmt.Println("====================================================")
		fmt.Println()
		fmt.Print("Paste or type the full path to your PNG folder:\n> ")
		sc := bufio.NewScanner(os.Stdin)
		if sc.Scan() {
			dir = strings.TrimSpace(sc.Text())
		}
	}
	if dir == "" {
		log.Fatal("no path provided")
	}
	// Remove surrounding quotes if the path was copied from a file manager.
	if len(dir) >= 2 && strings.HasPrefix(dir, `"`) && strings.HasSuffix(dir, `"`) {
		dir = dir[1 : len(dir)-1]
	}
	dir = filepath.Clean(dir)

	opts := sdmeta.Options{
		ConvertLatin1: *latin1,
		Warnf: func(format string, args ...any) {
			log.Debugf(format, args...)
		},
	}
	if *itxt {
		opts.Sources = sdmeta.TEXT | sdmeta.ZTXT | sdmeta.ITXT
	}

	batch := sdmeta.BatchOptions{Workers: *workers}
	if !*quiet {
		// Progress calls arrive from multiple workers; only move forward.
		var mu sync.Mutex
		var last sdmeta.Stats
		batch.Progress = func(s sdmeta.Stats) {
			mu.Lock()
			defer mu.Unlock()
			if s.Processed < last.Processed {
				return
			}
			last = s
			fmt.Printf("\rProcessed: %d | Metadata found: %d", s.Processed, s.Extracted)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	stats, err := sdmeta.ProcessDir(ctx, dir, opts, batch)
	if err != nil {
		fmt.Println()
		log.Fatalf("processing %s: %s", dir, err)
	}

	fmt.Printf("\n\nFinished! Scanned %d PNG files, extracted metadata from %d.\n", stats.Processed, stats.Extracted)
}
