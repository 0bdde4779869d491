package tokenizer

import (
	"github.com/fastbpe/internal/utils"
)

// scratch is the per-call working memory of one encode. Encoders keep them
// in a sync.Pool so steady-state encoding does not allocate.
type scratch struct {
	ids  []uint32
	end  []int32
	prev []int32

	parts []part
	out   []uint32

	heap   *utils.MergeHeap
	bucket *utils.BucketQueue
}

func (e *Encoder) acquireScratch() *scratch {
	return e.scratchPool.Get().(*scratch)
}

func (e *Encoder) releaseScratch(sc *scratch) {
	e.scratchPool.Put(sc)
}

func (sc *scratch) prepare(n int) {
	sc.ids = ensureCapacity(sc.ids, n)
	sc.end = ensureCapacity(sc.end, n)
	sc.prev = ensureCapacity(sc.prev, n)
}

// queue returns an empty queue of the requested kind.
func (sc *scratch) queue(kind QueueKind, maxRank uint32) utils.MergeQueue {
	if kind == QueueBucket {
		if sc.bucket == nil {
			sc.bucket = utils.NewBucketQueue(maxRank)
		}
		sc.bucket.Reset()
		return sc.bucket
	}

	if sc.heap == nil {
		sc.heap = utils.NewMergeHeap()
	}
	sc.heap.Reset()
	return sc.heap
}

func ensureCapacity[T any](buf []T, n int) []T {
	if cap(buf) < n {
		return make([]T, n)
	}
	return buf[:n]
}
