package service

import (
	"strings"
)

const (
	supportChunkSize    = 2000
	supportChunkOverlap = 200
)

// splitSeparators is the ordered preference list for split points: paragraph
// breaks first, then line breaks, then word boundaries, then hard cuts.
var splitSeparators = []string{"\n\n", "\n", " ", ""}

// RecursiveSplit cuts text into chunks of at most chunkSize characters,
// preferring to break at the coarsest separator that still yields pieces
// small enough, and carrying overlap characters between adjacent chunks.
func RecursiveSplit(text string, chunkSize, overlap int) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	pieces := splitRecursive(text, chunkSize, splitSeparators)
	return mergePieces(pieces, chunkSize, overlap)
}

// splitRecursive breaks text on the first separator that applies, recursing
// with finer separators into any piece still over the size limit.
func splitRecursive(text string, chunkSize int, separators []string) []string {
	if len(text) <= chunkSize {
		return []string{text}
	}

	sep := separators[len(separators)-1]
	rest := separators
	for i, s := range separators {
		if s == "" || strings.Contains(text, s) {
			sep = s
			rest = separators[i+1:]
			break
		}
	}

	var parts []string
	if sep == "" {
		for start := 0; start < len(text); start += chunkSize {
			end := start + chunkSize
			if end > len(text) {
				end = len(text)
			}
			parts = append(parts, text[start:end])
		}
		return parts
	}

	for _, piece := range strings.Split(text, sep) {
		if piece == "" {
			continue
		}
		if len(piece) > chunkSize {
			parts = append(parts, splitRecursive(piece, chunkSize, rest)...)
		} else {
			parts = append(parts, piece)
		}
	}
	return parts
}

// mergePieces packs adjacent pieces back together up to chunkSize, seeding
// each new chunk with the tail of the previous one for context continuity.
func mergePieces(pieces []string, chunkSize, overlap int) []string {
	var chunks []string
	var current strings.Builder
	fresh := false // current holds at least one piece beyond the overlap seed

	flush := func() {
		chunk := strings.TrimSpace(current.String())
		current.Reset()
		if chunk == "" || !fresh {
			fresh = false
			return
		}
		chunks = append(chunks, chunk)
		fresh = false
		if overlap > 0 {
			tail := chunk
			if len(tail) > overlap {
				tail = tail[len(tail)-overlap:]
			}
			current.WriteString(tail)
		}
	}

	for _, piece := range pieces {
		if current.Len() > 0 && current.Len()+len(piece)+1 > chunkSize {
			flush()
		}
		if current.Len() > 0 && current.Len()+len(piece)+1 > chunkSize {
			// the overlap seed leaves no room for this piece; drop it
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(piece)
		fresh = true
	}
	flush()
	return chunks
}
