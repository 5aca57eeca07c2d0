// Package chunker splits extracted manual text into overlapping chunks, the unit
// of embedding and retrieval. The algorithm is deterministic and pure: identical
// input always yields identical chunks, which keeps stored embeddings stable
// across re-ingestion of unchanged content.
package chunker

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	DefaultChunkSize   = 1000
	DefaultOverlap     = 200
	DefaultMinChunkLen = 50
)

// boundaryMarkers are tried in priority order when searching for a natural break
// near a tentative chunk end. The list is a fixed heuristic, not a sentence
// detector; changing it changes chunk boundaries and therefore retrieval.
var boundaryMarkers = [][]rune{
	[]rune(". "),
	[]rune("。"),
	[]rune("\n"),
	[]rune("、"),
	[]rune(", "),
}

type Chunker struct {
	size    int
	overlap int
	minLen  int
}

type Option func(*Chunker)

func WithChunkSize(n int) Option {
	return func(c *Chunker) {
		if n > 0 {
			c.size = n
		}
	}
}

func WithOverlap(n int) Option {
	return func(c *Chunker) {
		if n >= 0 {
			c.overlap = n
		}
	}
}

// WithMinChunkLen sets the length floor below which trailing fragments are
// discarded as noise.
func WithMinChunkLen(n int) Option {
	return func(c *Chunker) {
		if n >= 0 {
			c.minLen = n
		}
	}
}

func New(opts ...Option) *Chunker {
	c := &Chunker{
		size:    DefaultChunkSize,
		overlap: DefaultOverlap,
		minLen:  DefaultMinChunkLen,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.overlap >= c.size {
		c.overlap = c.size / 2
	}
	return c
}

// Normalize collapses every run of whitespace to a single space and trims the
// ends. Extractor output keeps no layout worth preserving beyond word order.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	prevSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			if !prevSpace {
				b.WriteRune(' ')
				prevSpace = true
			}
			continue
		}
		b.WriteRune(r)
		prevSpace = false
	}
	return strings.TrimSpace(b.String())
}

// Split normalizes text and cuts it into overlapping chunks. All sizes count
// runes so full-width punctuation and CJK text measure one position each.
//
// Text at or under the chunk size comes back as a single chunk even when it is
// below the length floor: whole short documents are never dropped. Longer text
// is cut at the chunk size, snapped back to the nearest boundary marker within
// the trailing half of the window when one exists. Trailing fragments at or
// under the floor are discarded.
func (c *Chunker) Split(text string) []string {
	cleaned := Normalize(text)
	if cleaned == "" {
		return nil
	}

	runes := []rune(cleaned)
	if len(runes) <= c.size {
		return []string{cleaned}
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}

		if end < len(runes) {
			for _, marker := range boundaryMarkers {
				if at := lastIndexRunes(runes, marker, end); at > start+c.size/2 {
					end = at + len(marker)
					break
				}
			}
		}

		chunks = append(chunks, strings.TrimSpace(string(runes[start:end])))
		start = end - c.overlap

		// Guards against stalling when end stops advancing near the text end.
		if start >= len(runes)-c.overlap {
			break
		}
	}

	kept := chunks[:0]
	for _, chunk := range chunks {
		if utf8.RuneCountInString(chunk) > c.minLen {
			kept = append(kept, chunk)
		}
	}
	return kept
}

// lastIndexRunes returns the largest index at or before from where marker
// begins, or -1.
func lastIndexRunes(text, marker []rune, from int) int {
	if from > len(text)-len(marker) {
		from = len(text) - len(marker)
	}
	for i := from; i >= 0; i-- {
		matched := true
		for j := range marker {
			if text[i+j] != marker[j] {
				matched = false
				break
			}
		}
		if matched {
			return i
		}
	}
	return -1
}
