// Copyright 2026 The SDMeta Authors
// SPDX-License-Identifier: MIT

package sdmeta_test

import (
	"bytes"
	"errors"
	"testing"

	sdmeta "github.com/EDG429/PNG-Metadata-Extractor-for-Stable-Diffusion"
)

func FuzzExtract(f *testing.F) {
	seeds := [][]byte{
		buildPNG(ihdrChunk(), iendChunk()),
		buildPNG(ihdrChunk(), tEXtChunk("Parameters", "seed: 42"), iendChunk()),
		buildPNG(ihdrChunk(), zTXtChunk(f, "Workflow", `{"seed": 42}`), iendChunk()),
		buildPNG(ihdrChunk(), iTXtChunk(f, "Description", "en", "a cat", true), iendChunk()),
		pngSig,
		[]byte("\xff\xd8\xff\xe0JFIF"),
		{},
	}
	for _, seed := range seeds {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, data []byte) {
		_, err := sdmeta.Extract(sdmeta.Options{
			R:       bytes.NewReader(data),
			Sources: sdmeta.TEXT | sdmeta.ZTXT | sdmeta.ITXT,
		})
		if err == nil {
			return
		}
		if !sdmeta.IsInvalidFormat(err) && !errors.Is(err, sdmeta.ErrNoMetadata) {
			t.Fatalf("unexpected error kind: %v", err)
		}
	})
}
