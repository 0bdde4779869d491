package pretokenize

import (
	"fmt"
	"iter"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

// Regexp splits on the matches of a regexp2 pattern. Text between matches
// is emitted as its own chunk so no byte is lost.
type Regexp struct {
	re *regexp2.Regexp
}

func NewRegexp(pattern string) (*Regexp, error) {
	re, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		return nil, fmt.Errorf("compile pretokenizer pattern: %w", err)
	}
	return &Regexp{re: re}, nil
}

// MustRegexp is NewRegexp for patterns known to be valid.
func MustRegexp(pattern string) *Regexp {
	r, err := NewRegexp(pattern)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Regexp) String() string {
	return r.re.String()
}

func (r *Regexp) Chunks(b []byte) iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		if len(b) == 0 {
			return
		}

		// regexp2 works on runes; offsets maps rune index to byte offset.
		// Invalid bytes become one U+FFFD each, keeping the mapping exact.
		runes := make([]rune, 0, len(b))
		offsets := make([]int, 0, len(b)+1)
		for i := 0; i < len(b); {
			rn, size := utf8.DecodeRune(b[i:])
			runes = append(runes, rn)
			offsets = append(offsets, i)
			i += size
		}
		offsets = append(offsets, len(b))

		emit := func(from, to int) bool {
			lo, hi := offsets[from], offsets[to]
			return yield(b[lo:hi:hi])
		}

		var pos int
		for m, _ := r.re.FindRunesMatch(runes); m != nil; m, _ = r.re.FindNextMatch(m) {
			if m.Length == 0 {
				continue
			}
			if m.Index > pos {
				if !emit(pos, m.Index) {
					return
				}
			}
			if !emit(m.Index, m.Index+m.Length) {
				return
			}
			pos = m.Index + m.Length
		}

		if pos < len(runes) {
			emit(pos, len(runes))
		}
	}
}

// Split accepts the first chunk once the chunk after it ends at least
// utf8.UTFMax bytes before the end of data; patterns here look at most one
// rune past a match.
func (r *Regexp) Split(data []byte, atEOF bool) (int, []byte, error) {
	if len(data) == 0 {
		return 0, nil, nil
	}

	var first, second, count int
	for c := range r.Chunks(data) {
		count++
		if count == 1 {
			first = len(c)
			if atEOF {
				break
			}
			continue
		}
		second = first + len(c)
		break
	}

	if !atEOF && (count < 2 || second > len(data)-utf8.UTFMax) {
		return 0, nil, nil
	}
	return first, data[:first], nil
}
