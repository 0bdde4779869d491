package pretokenize

import (
	"iter"
	"unicode"
	"unicode/utf8"
)

// CL100k segments input the way CL100kPattern does, working directly on
// bytes. Invalid UTF-8 decodes as a one-byte U+FFFD and counts as
// punctuation-like ("other").
var CL100k Splitter = cl100k{}

type cl100k struct{}

func (c cl100k) Chunks(b []byte) iter.Seq[[]byte] {
	return chunks(c.Split, b)
}

func (cl100k) Split(data []byte, atEOF bool) (int, []byte, error) {
	if len(data) == 0 {
		return 0, nil, nil
	}

	s := scanner{data: data, atEOF: atEOF}
	n := s.match()
	if s.more {
		return 0, nil, nil
	}
	return n, data[:n], nil
}

type class uint8

const (
	classNone class = iota // end of input
	classOther
	classLetter
	classNumber
	classSpace
)

const eof rune = -1

var asciiClass [utf8.RuneSelf]class

func init() {
	for r := rune(0); r < utf8.RuneSelf; r++ {
		asciiClass[r] = classifySlow(r)
	}
}

func classifySlow(r rune) class {
	switch {
	case unicode.IsSpace(r):
		return classSpace
	case unicode.IsLetter(r):
		return classLetter
	case unicode.IsNumber(r):
		return classNumber
	default:
		return classOther
	}
}

func classify(r rune) class {
	switch {
	case r < 0:
		return classNone
	case r < utf8.RuneSelf:
		return asciiClass[r]
	default:
		return classifySlow(r)
	}
}

func isNewline(r rune) bool {
	return r == '\r' || r == '\n'
}

// foldEq reports whether r equals the ASCII letter lower under simple case
// folding, so 'S' and U+017F both match 's'.
func foldEq(r, lower rune) bool {
	if r == lower {
		return true
	}
	for f := unicode.SimpleFold(lower); f != lower; f = unicode.SimpleFold(f) {
		if f == r {
			return true
		}
	}
	return false
}

// scanner finds the end of the chunk starting at data[0]. more is set when
// the answer depends on bytes past the end of data and atEOF is false.
type scanner struct {
	data  []byte
	atEOF bool
	more  bool
}

func (s *scanner) at(i int) (rune, int) {
	if i >= len(s.data) {
		if !s.atEOF {
			s.more = true
		}
		return eof, 0
	}
	if b := s.data[i]; b < utf8.RuneSelf {
		return rune(b), 1
	}
	if !s.atEOF && !utf8.FullRune(s.data[i:]) {
		s.more = true
		return eof, 0
	}
	return utf8.DecodeRune(s.data[i:])
}

// run advances over runes of class c starting at i.
func (s *scanner) run(i int, c class) int {
	for {
		r, n := s.at(i)
		if classify(r) != c {
			return i
		}
		i += n
	}
}

func (s *scanner) match() int {
	r0, n0 := s.at(0)
	c0 := classify(r0)

	// (?i:'s|'t|'re|'ve|'m|'ll|'d)
	if r0 == '\'' {
		if n := s.contraction(n0); n > 0 {
			return n
		}
	}

	// [^\r\n\p{L}\p{N}]?\p{L}+
	if c0 == classLetter {
		return s.run(n0, classLetter)
	}
	if (c0 == classOther || c0 == classSpace) && !isNewline(r0) {
		if r1, _ := s.at(n0); classify(r1) == classLetter {
			return s.run(n0, classLetter)
		}
	}

	// \p{N}{1,3}
	if c0 == classNumber {
		i := n0
		for k := 1; k < 3; k++ {
			r, n := s.at(i)
			if classify(r) != classNumber {
				break
			}
			i += n
		}
		return i
	}

	//  ?[^\s\p{L}\p{N}]+[\r\n]*
	i := 0
	if r0 == ' ' {
		if r1, _ := s.at(n0); classify(r1) == classOther {
			i = n0
		}
	}
	if r, n := s.at(i); classify(r) == classOther {
		i = s.run(i+n, classOther)
		for {
			r, n := s.at(i)
			if !isNewline(r) {
				return i
			}
			i += n
		}
	}

	// \s*[\r\n]+ ends right after the last newline of the whitespace run.
	j, lastNL, lastSize := 0, 0, 0
	for {
		r, n := s.at(j)
		if classify(r) != classSpace {
			break
		}
		if isNewline(r) {
			lastNL = j + n
		}
		lastSize = n
		j += n
	}
	if lastNL > 0 {
		return lastNL
	}

	// \s+(?!\S) leaves the last space for the following chunk; \s+ takes
	// a lone space.
	if r, _ := s.at(j); r == eof {
		return j
	}
	if j > lastSize {
		return j - lastSize
	}
	return j
}

func (s *scanner) contraction(i int) int {
	r1, n1 := s.at(i)
	switch {
	case foldEq(r1, 's'), foldEq(r1, 't'), foldEq(r1, 'm'), foldEq(r1, 'd'):
		return i + n1
	case foldEq(r1, 'r'), foldEq(r1, 'v'):
		if r2, n2 := s.at(i + n1); foldEq(r2, 'e') {
			return i + n1 + n2
		}
	case foldEq(r1, 'l'):
		if r2, n2 := s.at(i + n1); foldEq(r2, 'l') {
			return i + n1 + n2
		}
	}
	return 0
}
