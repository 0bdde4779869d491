// Package pretokenize splits raw bytes into chunks that are encoded
// independently. Merges never cross a chunk boundary, and boundaries depend
// only on the bytes, never on the vocabulary.
package pretokenize

import (
	"bufio"
	"fmt"
	"iter"
	"strings"
)

// Splitter produces the chunk boundaries of an input.
type Splitter interface {
	// Chunks yields sub-slices of b, in order, that cover b exactly.
	// The sequence is lazy and may be ranged over more than once.
	Chunks(b []byte) iter.Seq[[]byte]

	// Split is a bufio.SplitFunc applying the same rules. When atEOF is
	// false it asks for more data until the first chunk can no longer change.
	Split(data []byte, atEOF bool) (advance int, token []byte, err error)
}

const (
	CL100kBase = "cl100k_base"
	P50kBase   = "p50k_base"
	R50kBase   = "r50k_base"
	O200kBase  = "o200k_base"

	// CustomPrefix marks a splitter name that is itself a regexp2 pattern.
	CustomPrefix = "regex:"
)

// CL100kPattern is the segmentation regex of cl100k_base. The CL100k
// scanner implements it without a regex engine.
const CL100kPattern = `(?i:'s|'t|'re|'ve|'m|'ll|'d)|[^\r\n\p{L}\p{N}]?\p{L}+|\p{N}{1,3}| ?[^\s\p{L}\p{N}]+[\r\n]*|\s*[\r\n]+|\s+(?!\S)|\s+`

const gpt2Pattern = `'s|'t|'re|'ve|'m|'ll|'d| ?\p{L}+| ?\p{N}+| ?[^\s\p{L}\p{N}]+|\s+(?!\S)|\s+`

var o200kPattern = strings.Join([]string{
	`[^\r\n\p{L}\p{N}]?[\p{Lu}\p{Lt}\p{Lm}\p{Lo}\p{M}]*[\p{Ll}\p{Lm}\p{Lo}\p{M}]+(?i:'s|'t|'re|'ve|'m|'ll|'d)?`,
	`[^\r\n\p{L}\p{N}]?[\p{Lu}\p{Lt}\p{Lm}\p{Lo}\p{M}]+[\p{Ll}\p{Lm}\p{Lo}\p{M}]*(?i:'s|'t|'re|'ve|'m|'ll|'d)?`,
	`\p{N}{1,3}`,
	` ?[^\s\p{L}\p{N}]+[\r\n/]*`,
	`\s*[\r\n]+`,
	`\s+(?!\S)`,
	`\s+`,
}, "|")

var patterns = map[string]string{
	R50kBase:  gpt2Pattern,
	P50kBase:  gpt2Pattern,
	O200kBase: o200kPattern,
}

// Lookup returns the splitter registered under name. An empty name means
// cl100k_base; a name starting with CustomPrefix is compiled as a pattern.
func Lookup(name string) (Splitter, error) {
	switch {
	case name == "" || name == CL100kBase:
		return CL100k, nil
	case strings.HasPrefix(name, CustomPrefix):
		return NewRegexp(strings.TrimPrefix(name, CustomPrefix))
	}

	p, ok := patterns[name]
	if !ok {
		return nil, fmt.Errorf("unknown pretokenizer %q", name)
	}
	return NewRegexp(p)
}

// chunks drives split over b with atEOF set.
func chunks(split bufio.SplitFunc, b []byte) iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		rest := b
		for len(rest) > 0 {
			advance, _, err := split(rest, true)
			if err != nil || advance <= 0 || advance > len(rest) {
				advance = len(rest)
			}
			if !yield(rest[:advance:advance]) {
				return
			}
			rest = rest[advance:]
		}
	}
}
