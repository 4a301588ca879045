package parser

import (
	"context"
	"log"
)

// minChunkSize is the floor below which a failing chunk is abandoned rather
// than bisected further.
const minChunkSize = 2000

// processChunk extracts a single chunk, recovering from extraction failures
// by bisecting the chunk at its midpoint and processing each half
// independently. Chunks at or below minChunkSize that still fail are dropped
// with a warning so a single pathological region cannot sink the whole
// document. Never returns an error.
func processChunk(ctx context.Context, extractor Extractor, text string) Fragment {
	frag, err := extractor.ExtractChunk(ctx, text)
	if err == nil {
		return frag
	}

	if len(text) <= minChunkSize {
		log.Printf("Warning: dropping unparseable chunk of %d chars: %v", len(text), err)
		return Fragment{}
	}

	log.Printf("Warning: chunk extraction failed, bisecting %d chars: %v", len(text), err)
	mid := len(text) / 2
	left := processChunk(ctx, extractor, text[:mid])
	right := processChunk(ctx, extractor, text[mid:])
	return mergeFragments(left, right)
}
