// Copyright 2026 The SDMeta Authors
// SPDX-License-Identifier: MIT

package sdmeta

import (
	"errors"
	"fmt"
	"io"
)

var (
	// ErrNoMetadata is returned by Extract when the container holds no
	// textual metadata. It is distinct from an empty metadata string.
	ErrNoMetadata = fmt.Errorf("sdmeta: no textual metadata found")

	// Internal error to signal that we should stop any further processing.
	errStop = fmt.Errorf("stop")

	// Per-chunk failures. These never escape Extract; a chunk that fails
	// with one of these contributes nothing and scanning continues.
	errMalformedField = fmt.Errorf("sdmeta: malformed text field")
	errDecodeFailure  = fmt.Errorf("sdmeta: decode failure")
)

// InvalidFormatError is returned when the byte source is not a PNG
// datastream.
type InvalidFormatError struct {
	Err error
}

func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("sdmeta: invalid format: %s", e.Err)
}

func (e *InvalidFormatError) Unwrap() error {
	return e.Err
}

// IsInvalidFormat reports whether err came from a byte source that is not a
// PNG datastream.
func IsInvalidFormat(err error) bool {
	var e *InvalidFormatError
	return errors.As(err, &e)
}

func newInvalidFormatError(err error) error {
	return &InvalidFormatError{Err: err}
}

func newInvalidFormatErrorf(format string, args ...any) error {
	return newInvalidFormatError(fmt.Errorf(format, args...))
}

// isTruncation reports whether err is a short read. Truncation ends a scan
// but is not an error to the caller; the partial document stands.
func isTruncation(err error) bool {
	return err == io.EOF || err == io.ErrUnexpectedEOF || err == errShortRead
}
