package tokenizer

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"math"
	"os"
	"strconv"
	"time"
)

const maxLineLen = 1 << 20

// Entry is one vocabulary record: the token's bytes and its merge rank.
type Entry struct {
	Bytes []byte
	Rank  uint32
}

// Vocabulary holds immutable model data derived from a rank file and is
// safe for concurrent use. Token ids are the entries' positions.
// Invariants we maintain:
//   - tokens[id] is the exact byte sequence for id, never empty.
//   - For every byte b, byteToToken[b] is the id of the entry {b}.
//   - Byte sequences and ranks are unique.
//   - Every entry longer than one byte is the concatenation of two entries,
//     and pairs records each such split.
type Vocabulary struct {
	tokens [][]byte
	ranks  []uint32
	// bytes -> id. Lookups with index[string(b)] do not allocate.
	index       map[string]uint32
	byteToToken [256]uint32
	pairs       *PairLookup
	maxTokenLen int
	maxRank     uint32
}

// LoadVocabulary reads a `<base64 token> <rank>` file from path.
func LoadVocabulary(path string) (*Vocabulary, error) {
	start := time.Now()

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer f.Close()

	v, err := ReadVocabulary(f)
	if err != nil {
		var fe *FormatError
		if errors.As(err, &fe) {
			fe.Path = path
		}
		if errors.Is(err, ErrConfiguration) {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return nil, err
	}

	slog.Debug("vocabulary loaded", "path", path, "tokens", v.Len(), "pairs", v.Pairs(),
		"max_token_len", v.maxTokenLen, "elapsed", time.Since(start))
	return v, nil
}

// ReadVocabulary parses the rank file format from r. Each non-blank line
// holds exactly two whitespace-separated fields: standard base64 token
// bytes and a decimal rank. Blank lines are allowed only at the end.
func ReadVocabulary(r io.Reader) (*Vocabulary, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineLen)

	var (
		entries []Entry
		line    int
		blank   int // first blank line seen, 0 if none
	)
	for sc.Scan() {
		line++
		fields := bytes.Fields(sc.Bytes())
		if len(fields) == 0 {
			if blank == 0 {
				blank = line
			}
			continue
		}
		if blank != 0 {
			return nil, &FormatError{Line: blank, Reason: "blank line before end of vocabulary"}
		}
		if len(fields) != 2 {
			return nil, &FormatError{Line: line, Reason: fmt.Sprintf("expected 2 fields, got %d", len(fields))}
		}

		tok := make([]byte, base64.StdEncoding.DecodedLen(len(fields[0])))
		n, err := base64.StdEncoding.Decode(tok, fields[0])
		if err != nil {
			return nil, &FormatError{Line: line, Reason: "invalid base64 token", Err: err}
		}

		rank, err := strconv.ParseUint(string(fields[1]), 10, 32)
		if err != nil {
			return nil, &FormatError{Line: line, Reason: "invalid rank", Err: err}
		}

		entries = append(entries, Entry{Bytes: tok[:n], Rank: uint32(rank)})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: read vocabulary: %w", ErrIO, err)
	}

	return NewVocabulary(entries)
}

// NewVocabulary validates entries and builds the lookup structures. The
// entry bytes are copied; ids are positions in entries.
func NewVocabulary(entries []Entry) (*Vocabulary, error) {
	if len(entries) == 0 {
		return nil, configError("no entries")
	}
	if uint64(len(entries)) > math.MaxUint32 {
		return nil, configError("%d entries exceed the id space", len(entries))
	}

	total := 0
	for _, e := range entries {
		total += len(e.Bytes)
	}
	// single backing array, never grown, so token slices stay valid
	arena := make([]byte, 0, total)

	v := &Vocabulary{
		tokens: make([][]byte, len(entries)),
		ranks:  make([]uint32, len(entries)),
		index:  make(map[string]uint32, len(entries)),
	}
	var haveByte [256]bool
	byRank := make(map[uint32]uint32, len(entries))

	for i, e := range entries {
		id := uint32(i)
		if len(e.Bytes) == 0 {
			return nil, configError("entry %d is empty", id)
		}
		if e.Rank == math.MaxUint32 {
			return nil, configError("entry %d: rank %d is reserved", id, e.Rank)
		}

		start := len(arena)
		arena = append(arena, e.Bytes...)
		b := arena[start:len(arena):len(arena)]

		if prev, ok := v.index[string(b)]; ok {
			return nil, configError("duplicate byte sequence %q for ids %d and %d", b, prev, id)
		}
		if prev, ok := byRank[e.Rank]; ok {
			return nil, configError("duplicate rank %d for ids %d and %d", e.Rank, prev, id)
		}

		v.tokens[id] = b
		v.ranks[id] = e.Rank
		v.index[string(b)] = id
		byRank[e.Rank] = id

		if len(b) == 1 {
			v.byteToToken[b[0]] = id
			haveByte[b[0]] = true
		}
		v.maxTokenLen = max(v.maxTokenLen, len(b))
		v.maxRank = max(v.maxRank, e.Rank)
	}

	missing, first := 0, -1
	for b, ok := range haveByte {
		if !ok {
			missing++
			if first < 0 {
				first = b
			}
		}
	}
	if missing > 0 {
		return nil, configError("%d of 256 single-byte entries missing, first is 0x%02x", missing, first)
	}

	if err := v.buildPairs(); err != nil {
		return nil, err
	}
	return v, nil
}

// buildPairs records every way each multi-byte entry splits into two
// entries. Distinct pairs spell distinct byte strings, so no pair maps to
// two entries.
func (v *Vocabulary) buildPairs() error {
	v.pairs = newPairLookup(len(v.tokens) * 2)

	for i, b := range v.tokens {
		if len(b) < 2 {
			continue
		}

		found := false
		for k := 1; k < len(b); k++ {
			left, ok := v.index[string(b[:k])]
			if !ok {
				continue
			}
			right, ok := v.index[string(b[k:])]
			if !ok {
				continue
			}
			v.pairs.add(left, right, v.ranks[i], uint32(i))
			found = true
		}
		if !found {
			return configError("entry %d (%q) is not the concatenation of two entries", i, b)
		}
	}
	return nil
}

// Len is the number of entries.
func (v *Vocabulary) Len() int {
	return len(v.tokens)
}

// Token returns the bytes for id. The slice aliases the vocabulary and
// must be treated as read-only.
func (v *Vocabulary) Token(id uint32) ([]byte, bool) {
	if int(id) >= len(v.tokens) {
		return nil, false
	}
	return v.tokens[id], true
}

func (v *Vocabulary) Rank(id uint32) (uint32, bool) {
	if int(id) >= len(v.ranks) {
		return 0, false
	}
	return v.ranks[id], true
}

// Lookup returns the id whose bytes equal b exactly.
func (v *Vocabulary) Lookup(b []byte) (uint32, bool) {
	id, ok := v.index[string(b)]
	return id, ok
}

func (v *Vocabulary) ByteToken(b byte) uint32 {
	return v.byteToToken[b]
}

// Merge reports the entry spelled by token a followed by token b.
func (v *Vocabulary) Merge(a, b uint32) (id, rank uint32, ok bool) {
	rank, id, ok = v.pairs.Lookup(a, b)
	return id, rank, ok
}

func (v *Vocabulary) MaxTokenLen() int {
	return v.maxTokenLen
}

func (v *Vocabulary) MaxRank() uint32 {
	return v.maxRank
}

// Pairs is the number of (left, right) splits known to the merge index.
func (v *Vocabulary) Pairs() int {
	return v.pairs.Len()
}

// Entries iterates ids in order. Entry bytes alias the vocabulary.
func (v *Vocabulary) Entries() iter.Seq2[uint32, Entry] {
	return func(yield func(uint32, Entry) bool) {
		for i, b := range v.tokens {
			if !yield(uint32(i), Entry{Bytes: b, Rank: v.ranks[i]}) {
				return
			}
		}
	}
}

// WriteTo serializes the vocabulary in the format ReadVocabulary accepts,
// one entry per line in id order.
func (v *Vocabulary) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var (
		written int64
		line    []byte
	)
	for i, b := range v.tokens {
		line = base64.StdEncoding.AppendEncode(line[:0], b)
		line = append(line, ' ')
		line = strconv.AppendUint(line, uint64(v.ranks[i]), 10)
		line = append(line, '\n')

		n, err := bw.Write(line)
		written += int64(n)
		if err != nil {
			return written, fmt.Errorf("%w: write vocabulary: %w", ErrIO, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return written, fmt.Errorf("%w: write vocabulary: %w", ErrIO, err)
	}
	return written, nil
}
