package tokenizer

const (
	fastLookupSize = 256
	noPair         = ^uint64(0)
)

// PairLookup answers "do these two adjacent tokens concatenate to a
// vocabulary entry, and with which rank and id" using a hybrid approach:
//   - a dense table for pairs where both ids are < fastLookupSize, which
//     covers the byte-level pairs every chunk starts with
//   - a map fallback for everything else
//
// Values are packed as rank<<32 | id.
type PairLookup struct {
	fastLookup []uint64
	fallback   map[uint64]uint64
}

func packPair(a, b uint32) uint64 {
	return uint64(a)<<32 | uint64(b)
}

func newPairLookup(capacity int) *PairLookup {
	fast := make([]uint64, fastLookupSize*fastLookupSize)
	for i := range fast {
		fast[i] = noPair
	}

	return &PairLookup{
		fastLookup: fast,
		fallback:   make(map[uint64]uint64, capacity),
	}
}

func (pl *PairLookup) add(a, b, rank, id uint32) {
	value := uint64(rank)<<32 | uint64(id)
	if a < fastLookupSize && b < fastLookupSize {
		pl.fastLookup[a*fastLookupSize+b] = value
		return
	}
	pl.fallback[packPair(a, b)] = value
}

// Lookup returns the rank and id of the entry spelled by token a followed
// by token b.
func (pl *PairLookup) Lookup(a, b uint32) (rank, id uint32, ok bool) {
	var value uint64
	if a < fastLookupSize && b < fastLookupSize {
		value = pl.fastLookup[a*fastLookupSize+b]
		if value == noPair {
			return 0, 0, false
		}
	} else {
		value, ok = pl.fallback[packPair(a, b)]
		if !ok {
			return 0, 0, false
		}
	}

	return uint32(value >> 32), uint32(value), true
}

// Len is the number of distinct mergeable pairs.
func (pl *PairLookup) Len() int {
	n := len(pl.fallback)
	for _, v := range pl.fastLookup {
		if v != noPair {
			n++
		}
	}
	return n
}
