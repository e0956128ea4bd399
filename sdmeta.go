// Copyright 2026 The SDMeta Authors
// SPDX-License-Identifier: MIT

// Package sdmeta extracts the textual metadata that Stable Diffusion
// toolchains store in PNG tEXt and zTXt chunks (generation parameters,
// prompts, workflow JSON).
package sdmeta

import (
	"fmt"
	"io"
)

const (
	// TEXT is the verbatim text chunk source (tEXt).
	TEXT Source = 1 << iota
	// ZTXT is the deflate-compressed text chunk source (zTXt).
	ZTXT
	// ITXT is the international text chunk source (iTXt).
	// Not read by default.
	ITXT
)

// Source is a bitmask selecting which text chunk types to read.
type Source uint32

// Remove removes the given source.
func (t Source) Remove(source Source) Source {
	t &= ^source
	return t
}

// Has returns true if the given source is set.
func (t Source) Has(source Source) bool {
	return t&source != 0
}

// IsZero returns true if the source is zero.
func (t Source) IsZero() bool {
	return t == 0
}

const (
	// 10 MB should be plenty for PNG text metadata.
	defaultLimitChunkSize = 10 * 1024 * 1024
	defaultLimitTextSize  = 10 * 1024 * 1024
)

// Options contains the options for the Extract function.
type Options struct {
	// The Reader (typically a *os.File) to read the PNG datastream from.
	// It is read sequentially, front to back, and never rewound.
	R io.Reader

	// If set, the extractor will only read the given chunk sources.
	// Note that this is a bitmask and you may send multiple sources at once.
	// Defaults to TEXT | ZTXT.
	Sources Source

	// Warnf will be called for each warning, e.g. a text chunk that was
	// skipped because it could not be decoded.
	Warnf func(string, ...any)

	// LimitChunkSize is the maximum declared chunk length the extractor
	// will buffer. A chunk above this ends the scan; entries collected so
	// far are kept. Default value is 10 MB.
	LimitChunkSize uint32

	// LimitTextSize is the maximum decompressed size of one compressed
	// text field. A field above this is skipped. Default value is 10 MB.
	LimitTextSize int

	// ConvertLatin1 converts tEXt and zTXt values from ISO 8859-1 (the
	// encoding the PNG specification mandates for them) to UTF-8.
	// Off by default: Stable Diffusion tools write UTF-8 into tEXt
	// regardless of the specification, and the raw bytes are then already
	// what the caller wants.
	ConvertLatin1 bool
}

// Extract scans the PNG datastream in opts.R and returns its textual
// metadata as one document: "keyword: value" entries in chunk order,
// separated by blank lines.
//
// A malformed or undecodable text chunk is skipped, not fatal; a truncated
// stream ends the scan and the entries collected so far are returned.
// Extract returns ErrNoMetadata if no text chunk contributed, and an
// InvalidFormatError if the stream does not start with the PNG signature.
func Extract(opts Options) (metadata string, err error) {
	if opts.R == nil {
		return "", fmt.Errorf("sdmeta: no reader provided")
	}
	if opts.Sources.IsZero() {
		opts.Sources = TEXT | ZTXT
	}
	if opts.Warnf == nil {
		opts.Warnf = func(string, ...any) {}
	}
	if opts.LimitChunkSize == 0 {
		opts.LimitChunkSize = defaultLimitChunkSize
	}
	if opts.LimitTextSize == 0 {
		opts.LimitTextSize = defaultLimitTextSize
	}

	dec := &textDecoderPNG{
		streamReader: newStreamReader(opts.R),
		opts:         opts,
	}

	if err := dec.extract(); err != nil {
		return "", err
	}
	if dec.entries == 0 {
		return "", ErrNoMetadata
	}
	return dec.doc.String(), nil
}

// extract runs the chunk walk and folds the reader's panic-based stop
// signal back into an ordinary error return.
func (e *textDecoderPNG) extract() (err error) {
	defer func() {
		if r := recover(); r != nil {
			rerr, ok := r.(error)
			if !ok || rerr != errStop {
				panic(r)
			}
			err = e.streamErr()
		}
		if err != nil && isTruncation(err) {
			// Fewer chunks than declared is not a corruption signal here;
			// keep what was assembled.
			e.opts.Warnf("sdmeta: truncated datastream; keeping %d entries", e.entries)
			err = nil
		}
	}()
	return e.decode()
}
