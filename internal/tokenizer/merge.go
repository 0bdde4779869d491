package tokenizer

import (
	"fmt"
	"math"

	"github.com/fastbpe/internal/utils"
)

const noRank = math.MaxUint32

// mergeChunk appends the ids of one pretokenized chunk to dst.
func (e *Encoder) mergeChunk(dst []uint32, chunk []byte, sc *scratch) []uint32 {
	switch {
	case len(chunk) == 0:
		return dst
	case len(chunk) == 1:
		return append(dst, e.vocab.byteToToken[chunk[0]])
	}

	// a chunk that is itself an entry is emitted whole, without merging
	if id, ok := e.vocab.index[string(chunk)]; ok {
		return append(dst, id)
	}

	if e.cache != nil {
		if ids, ok := e.cache.Get(string(chunk)); ok {
			return append(dst, ids...)
		}
	}

	start := len(dst)
	if len(chunk) < e.queueThreshold {
		dst = e.mergeScan(dst, chunk, sc)
	} else {
		dst = e.mergeQueued(dst, chunk, sc)
	}

	if e.cache != nil {
		e.cache.Add(string(chunk), append([]uint32(nil), dst[start:]...))
	}
	return dst
}

// mergeQueued repeatedly applies the lowest-ranked adjacent merge, leftmost
// first, using a priority queue of candidates.
//
// Symbols live in arrays indexed by the byte offset they start at:
//   - ids[i] is the token id of the symbol starting at i
//   - end[i] is its exclusive end, or -1 once i was absorbed by its left neighbour
//   - prev[i] is the start of the symbol to its left, or -1
//
// Offsets only ever stop being symbol starts, so a candidate is current
// exactly when end[Pos] == Mid and end[Mid] == End.
func (e *Encoder) mergeQueued(dst []uint32, chunk []byte, sc *scratch) []uint32 {
	v := e.vocab
	n := int32(len(chunk))
	sc.prepare(len(chunk))
	ids, end, prev := sc.ids, sc.end, sc.prev

	for i, b := range chunk {
		ids[i] = v.byteToToken[b]
		end[i] = int32(i) + 1
		prev[i] = int32(i) - 1
	}

	q := sc.queue(e.queueKind, v.maxRank)

	pushIfMergeable := func(i int32) {
		j := end[i]
		if j >= n {
			return
		}
		if rank, id, ok := v.pairs.Lookup(ids[i], ids[j]); ok {
			q.Push(utils.MergeCand{Rank: rank, Pos: i, Mid: j, End: end[j], Token: id})
		}
	}

	for i := int32(0); i < n-1; i++ {
		pushIfMergeable(i)
	}

	for {
		c, ok := q.Pop()
		if !ok {
			break
		}
		// stale: one side was merged away or grew since this was pushed
		if end[c.Pos] != c.Mid || end[c.Mid] != c.End {
			continue
		}

		ids[c.Pos] = c.Token
		end[c.Pos] = c.End
		end[c.Mid] = -1
		if c.End < n {
			prev[c.End] = c.Pos
		}

		if p := prev[c.Pos]; p >= 0 {
			pushIfMergeable(p)
		}
		pushIfMergeable(c.Pos)
	}

	for i := int32(0); i < n; i = end[i] {
		dst = append(dst, ids[i])
	}
	return dst
}

// part is a symbol boundary for mergeScan: the symbol starting at start,
// and the rank of merging it with the following symbol.
type part struct {
	start int
	rank  uint32
}

// mergeScan is the quadratic reference form of the same merge: each round
// rescans every boundary for the lowest rank. It wins on short chunks.
func (e *Encoder) mergeScan(dst []uint32, chunk []byte, sc *scratch) []uint32 {
	v := e.vocab

	parts := sc.parts[:0]
	for i := 0; i <= len(chunk); i++ {
		parts = append(parts, part{start: i, rank: noRank})
	}

	// rank of joining parts[i] and parts[i+1]
	rankAt := func(i int) uint32 {
		if i+2 < len(parts) {
			if id, ok := v.index[string(chunk[parts[i].start:parts[i+2].start])]; ok {
				return v.ranks[id]
			}
		}
		return noRank
	}

	for i := 0; i < len(parts)-2; i++ {
		parts[i].rank = rankAt(i)
	}

	for len(parts) > 2 {
		minRank, minIdx := uint32(noRank), -1
		for i := 0; i < len(parts)-2; i++ {
			if parts[i].rank < minRank {
				minRank, minIdx = parts[i].rank, i
			}
		}
		if minIdx < 0 {
			break
		}

		parts = append(parts[:minIdx+1], parts[minIdx+2:]...)
		parts[minIdx].rank = rankAt(minIdx)
		if minIdx > 0 {
			parts[minIdx-1].rank = rankAt(minIdx - 1)
		}
	}

	for i := 0; i < len(parts)-1; i++ {
		span := chunk[parts[i].start:parts[i+1].start]
		id, ok := v.index[string(span)]
		if !ok {
			panic(fmt.Errorf("%w: %q", ErrEncodingImpossible, span))
		}
		dst = append(dst, id)
	}

	sc.parts = parts[:0]
	return dst
}
