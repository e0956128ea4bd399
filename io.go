// Copyright 2026 The SDMeta Authors
// SPDX-License-Identifier: MIT

package sdmeta

import (
	"encoding/binary"
	"errors"
	"io"
)

var errShortRead = errors.New("short read")

// streamReader is a forward-only wrapper around a Reader that provides
// methods to read binary data. The chunk walk never seeks backward, so a
// plain io.Reader is all it needs.
// Note that this is not thread safe.
type streamReader struct {
	r         io.Reader
	byteOrder binary.ByteOrder

	buf []byte

	isEOF   bool
	readErr error
}

func newStreamReader(r io.Reader) *streamReader {
	return &streamReader{
		r:         r,
		byteOrder: binary.BigEndian,
	}
}

func (e *streamReader) allocateBuf(length int) {
	if length > cap(e.buf) {
		e.buf = make([]byte, length)
	}
}

func (e *streamReader) read4() uint32 {
	const n = 4
	e.readNIntoBuf(n)
	return e.byteOrder.Uint32(e.buf[:n])
}

// readBytesVolatile reads a slice of bytes from the stream
// which is not guaranteed to be valid after the next read.
func (e *streamReader) readBytesVolatile(n int) []byte {
	e.readNIntoBuf(n)
	return e.buf[:n]
}

func (e *streamReader) readBytesVolatileE(n int) ([]byte, error) {
	if err := e.readNIntoBufE(n); err != nil {
		return nil, err
	}
	return e.buf[:n], nil
}

func (e *streamReader) readNIntoBuf(n int) {
	if err := e.readNIntoBufE(n); err != nil {
		e.stop(err)
	}
}

func (e *streamReader) readNIntoBufE(n int) error {
	e.allocateBuf(n)
	n2, err := io.ReadFull(e.r, e.buf[:n])
	if err != nil {
		return err
	}
	if n != n2 {
		return errShortRead
	}
	return nil
}

func (e *streamReader) skip(n int64) {
	if n == 0 {
		return
	}
	if _, err := io.CopyN(io.Discard, e.r, n); err != nil {
		e.stop(err)
	}
}

func (e *streamReader) streamErr() error {
	return e.readErr
}

func (e *streamReader) stop(err error) {
	// Allow one silent EOF.
	// This allows the client to not having to check for EOF on every read.
	if err == io.EOF && !e.isEOF {
		e.isEOF = true
		return
	}
	if err != nil {
		e.readErr = err
	}
	panic(errStop)
}
