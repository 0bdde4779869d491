package utils

type bucket struct {
	items []MergeCand // sorted by Pos from head on
	head  int
}

// BucketQueue keeps one bucket per rank. Popping scans upwards from the
// lowest rank pushed so far; Reset only clears buckets that were touched,
// so a queue can be pooled across calls even for large vocabularies.
type BucketQueue struct {
	buckets    []bucket
	touched    []uint32
	current    uint32
	totalCount int
}

func NewBucketQueue(maxRank uint32) *BucketQueue {
	return &BucketQueue{
		buckets: make([]bucket, int(maxRank)+1),
		current: maxRank + 1,
	}
}

func (bq *BucketQueue) Len() int {
	return bq.totalCount
}

func (bq *BucketQueue) Push(c MergeCand) {
	rank := c.Rank
	if int(rank) >= len(bq.buckets) {
		newBuckets := make([]bucket, int(rank)+1)
		copy(newBuckets, bq.buckets)
		bq.buckets = newBuckets
	}

	b := &bq.buckets[rank]
	if len(b.items) == 0 {
		bq.touched = append(bq.touched, rank)
	}

	live := b.items[b.head:]
	n := len(live)

	var insertPos int
	if n < 16 {
		insertPos = n
		for i := 0; i < n; i++ {
			if live[i].Pos >= c.Pos {
				insertPos = i
				break
			}
		}
	} else {
		left, right := 0, n
		for left < right {
			mid := (left + right) / 2
			if live[mid].Pos < c.Pos {
				left = mid + 1
			} else {
				right = mid
			}
		}
		insertPos = left
	}

	insertPos += b.head
	if insertPos == len(b.items) {
		b.items = append(b.items, c)
	} else {
		b.items = append(b.items, MergeCand{})
		copy(b.items[insertPos+1:], b.items[insertPos:])
		b.items[insertPos] = c
	}

	bq.totalCount++
	if bq.totalCount == 1 || rank < bq.current {
		bq.current = rank
	}
}

func (bq *BucketQueue) Pop() (MergeCand, bool) {
	if bq.totalCount == 0 {
		return MergeCand{}, false
	}

	for int(bq.current) < len(bq.buckets) {
		b := &bq.buckets[bq.current]
		if b.head < len(b.items) {
			c := b.items[b.head]
			b.head++
			bq.totalCount--
			return c, true
		}
		bq.current++
	}

	return MergeCand{}, false
}

func (bq *BucketQueue) Reset() {
	for _, rank := range bq.touched {
		b := &bq.buckets[rank]
		b.items = b.items[:0]
		b.head = 0
	}
	bq.touched = bq.touched[:0]
	bq.totalCount = 0
	bq.current = uint32(len(bq.buckets))
}
