package utils

import (
	"github.com/emirpasic/gods/v2/trees/binaryheap"
)

// MergeHeap is a binary min-heap of merge candidates.
type MergeHeap struct {
	h *binaryheap.Heap[MergeCand]
}

func NewMergeHeap() *MergeHeap {
	return &MergeHeap{h: binaryheap.NewWith(Compare)}
}

func (h *MergeHeap) Len() int {
	return h.h.Size()
}

func (h *MergeHeap) Push(c MergeCand) {
	h.h.Push(c)
}

func (h *MergeHeap) Pop() (MergeCand, bool) {
	return h.h.Pop()
}

func (h *MergeHeap) Reset() {
	h.h.Clear()
}
