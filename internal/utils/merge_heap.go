package utils

// MergeCand is a pending merge of two adjacent symbols of one chunk.
// Symbols are addressed by their byte offsets: the left symbol spans
// [Pos, Mid) and the right one [Mid, End).
type MergeCand struct {
	Rank  uint32 // lower wins
	Pos   int32  // left start; lower wins on tie to enforce leftmost
	Mid   int32
	End   int32
	Token uint32 // id of the merged entry
}

// MergeQueue is a min-priority queue over (Rank, Pos).
type MergeQueue interface {
	Push(c MergeCand)
	Pop() (MergeCand, bool)
	Len() int
	Reset()
}

// Less reports whether a must be merged before b.
func Less(a, b MergeCand) bool {
	if a.Rank != b.Rank {
		return a.Rank < b.Rank
	}
	return a.Pos < b.Pos
}

// Compare is Less in comparator form.
func Compare(a, b MergeCand) int {
	switch {
	case Less(a, b):
		return -1
	case Less(b, a):
		return 1
	default:
		return 0
	}
}
