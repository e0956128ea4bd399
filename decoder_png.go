// Copyright 2026 The SDMeta Authors
// SPDX-License-Identifier: MIT

package sdmeta

import (
	"bytes"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// https://www.w3.org/TR/png/#5PNG-file-signature
// The first eight bytes of a PNG datastream always contain the following
// (decimal) values: 137 80 78 71 13 10 26 10.
var pngSignature = []byte{137, 80, 78, 71, 13, 10, 26, 10}

type fourCC [4]byte

func (f fourCC) String() string {
	return string(f[:])
}

var (
	fccTEXt = fourCC{'t', 'E', 'X', 't'}
	fccZTXt = fourCC{'z', 'T', 'X', 't'}
	fccITXt = fourCC{'i', 'T', 'X', 't'}
	fccIEND = fourCC{'I', 'E', 'N', 'D'}
)

// IsPNG reports whether r starts with the PNG signature. It reads exactly
// eight bytes from r, which makes it usable as a cheap pre-filter before
// committing to a full Extract.
func IsPNG(r io.Reader) bool {
	var sig [8]byte
	if _, err := io.ReadFull(r, sig[:]); err != nil {
		return false
	}
	return bytes.Equal(sig[:], pngSignature)
}

type textDecoderPNG struct {
	*streamReader
	opts Options

	latin1  *encoding.Decoder
	doc     strings.Builder
	entries int
}

func (e *textDecoderPNG) decode() error {
	// http://www.libpng.org/pub/png/spec/1.2/PNG-Structure.html
	// After the signature a PNG datastream is a sequence of chunks:
	// a four-byte big-endian length, a four-byte type, length bytes of
	// data and a four-byte CRC. tEXt and zTXt may appear anywhere between
	// IHDR and IEND.

	sig, err := e.readBytesVolatileE(len(pngSignature))
	if err != nil || !bytes.Equal(sig, pngSignature) {
		return newInvalidFormatErrorf("missing PNG signature")
	}

	for {
		chunkLength := e.read4()
		typ := e.readFourCC()

		if typ == fccIEND {
			return nil
		}

		if chunkLength > e.opts.LimitChunkSize {
			e.opts.Warnf("sdmeta: %s chunk length %d exceeds limit %d; stopping", typ, chunkLength, e.opts.LimitChunkSize)
			return nil
		}

		var handle func([]byte)
		switch {
		case typ == fccTEXt && e.opts.Sources.Has(TEXT):
			handle = e.handleTEXt
		case typ == fccZTXt && e.opts.Sources.Has(ZTXT):
			handle = e.handleZTXt
		case typ == fccITXt && e.opts.Sources.Has(ITXT):
			handle = e.handleITXt
		}

		if handle == nil {
			e.skip(int64(chunkLength))
			e.skip(4) // skip CRC
			continue
		}

		body := e.readBytesVolatile(int(chunkLength))
		e.skip(4) // skip CRC
		handle(body)
	}
}

func (e *textDecoderPNG) readFourCC() fourCC {
	var fcc fourCC
	copy(fcc[:], e.readBytesVolatile(4))
	return fcc
}

// handleTEXt decodes a verbatim text chunk: keyword, null terminator,
// value running to the end of the chunk.
func (e *textDecoderPNG) handleTEXt(body []byte) {
	i := bytes.IndexByte(body, 0)
	if i < 0 {
		e.opts.Warnf("sdmeta: tEXt chunk without keyword terminator; skipping")
		return
	}
	e.appendEntry(string(body[:i]), e.textValue(body[i+1:]))
}

// handleZTXt decodes a compressed text chunk. A field that cannot be
// decompressed is skipped; one corrupt chunk must not abort extraction of
// the rest of the container.
func (e *textDecoderPNG) handleZTXt(body []byte) {
	i := bytes.IndexByte(body, 0)
	if i < 0 {
		e.opts.Warnf("sdmeta: zTXt chunk without keyword terminator; skipping")
		return
	}
	keyword := string(body[:i])

	text, err := inflateTextField(body, e.opts.LimitTextSize)
	if err != nil {
		e.opts.Warnf("sdmeta: skipping zTXt chunk %q: %s", keyword, err)
		return
	}
	if len(text) == 0 {
		return
	}
	e.appendEntry(keyword, e.textValue(text))
}

// handleITXt decodes an international text chunk: keyword, compression
// flag and method, language tag, translated keyword, then UTF-8 text that
// is a zlib stream when the compression flag is set.
func (e *textDecoderPNG) handleITXt(body []byte) {
	i := bytes.IndexByte(body, 0)
	if i < 0 || len(body) < i+3 {
		e.opts.Warnf("sdmeta: malformed iTXt chunk; skipping")
		return
	}
	keyword := string(body[:i])
	compFlag, compMethod := body[i+1], body[i+2]

	rest := body[i+3:]
	j := bytes.IndexByte(rest, 0) // language tag
	if j < 0 {
		e.opts.Warnf("sdmeta: iTXt chunk %q without language terminator; skipping", keyword)
		return
	}
	rest = rest[j+1:]
	k := bytes.IndexByte(rest, 0) // translated keyword
	if k < 0 {
		e.opts.Warnf("sdmeta: iTXt chunk %q without translated keyword terminator; skipping", keyword)
		return
	}
	text := rest[k+1:]

	switch compFlag {
	case 0:
		e.appendEntry(keyword, string(text))
	case 1:
		if compMethod != 0 {
			e.opts.Warnf("sdmeta: iTXt chunk %q has unsupported compression method %d; skipping", keyword, compMethod)
			return
		}
		inflated, err := inflateAll(text, e.opts.LimitTextSize)
		if err != nil {
			e.opts.Warnf("sdmeta: skipping iTXt chunk %q: %s", keyword, err)
			return
		}
		e.appendEntry(keyword, string(inflated))
	default:
		e.opts.Warnf("sdmeta: iTXt chunk %q has unknown compression flag %d; skipping", keyword, compFlag)
	}
}

func (e *textDecoderPNG) appendEntry(keyword, text string) {
	if e.entries > 0 {
		e.doc.WriteString("\n\n")
	}
	e.doc.WriteString(keyword)
	e.doc.WriteString(": ")
	e.doc.WriteString(text)
	e.entries++
}

// textValue converts a tEXt/zTXt value for the document. The PNG
// specification says these are ISO 8859-1, but conversion is opt-in; see
// Options.ConvertLatin1.
func (e *textDecoderPNG) textValue(raw []byte) string {
	if !e.opts.ConvertLatin1 {
		return string(raw)
	}
	if e.latin1 == nil {
		e.latin1 = charmap.ISO8859_1.NewDecoder()
	}
	b, err := e.latin1.Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(b)
}
