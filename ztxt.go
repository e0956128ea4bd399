// Copyright 2026 The SDMeta Authors
// SPDX-License-Identifier: MIT

package sdmeta

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

const (
	// Below this a keyword, a method byte and a meaningful payload cannot fit.
	minZTXtBodySize = 10

	// Output buffer for one decompression step. Generation parameters from
	// A1111/ComfyUI are typically well below this.
	inflateBufSize = 128 * 1024

	// Hard cap on decompression steps. LimitTextSize bounds the output long
	// before this; the cap only exists so an adversarial stream that
	// produces one byte per step cannot spin the loop.
	maxInflateSteps = 1 << 16
)

// inflateTextField recovers the text of a zTXt chunk body: a keyword, its
// null terminator, a one-byte compression method (0 = deflate) and a zlib
// stream. limit caps the decompressed size.
func inflateTextField(body []byte, limit int) ([]byte, error) {
	if len(body) < minZTXtBodySize {
		return nil, fmt.Errorf("%w: body too short (%d bytes)", errMalformedField, len(body))
	}
	i := bytes.IndexByte(body, 0)
	if i < 0 || i >= len(body)-1 {
		return nil, fmt.Errorf("%w: missing keyword terminator", errMalformedField)
	}
	if method := body[i+1]; method != 0 {
		return nil, fmt.Errorf("%w: unsupported compression method %d", errMalformedField, method)
	}
	return inflateAll(body[i+2:], limit)
}

// inflateAll drives one zlib session over compressed until stream end.
// Each Read is one decompression step into a reused buffer; the session is
// closed on every exit path.
func inflateAll(compressed []byte, limit int) ([]byte, error) {
	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errDecodeFailure, err)
	}
	defer zr.Close()

	var out bytes.Buffer
	buf := make([]byte, inflateBufSize)
	for steps := 0; ; steps++ {
		if steps >= maxInflateSteps {
			return nil, fmt.Errorf("%w: step limit reached", errDecodeFailure)
		}
		n, err := zr.Read(buf)
		out.Write(buf[:n])
		if out.Len() > limit {
			return nil, fmt.Errorf("%w: output exceeds limit %d", errDecodeFailure, limit)
		}
		if err == io.EOF {
			return out.Bytes(), nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s", errDecodeFailure, err)
		}
	}
}
