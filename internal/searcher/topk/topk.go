// Package topk holds the bounded result queue shared by every query
// algorithm: threshold tracking, insertion with deterministic tie-break, and
// the final ordering of the result list.
package topk

import (
	"cmp"
	"container/heap"
	"math"
	"slices"
)

// Entry is one ranked result.
type Entry struct {
	Score float64 `json:"s"`
	DocID uint32  `json:"d"`
}

// Queue keeps the k best entries seen so far. Among equal scores the smaller
// document id wins.
type Queue struct {
	k int
	h entryHeap
}

// initialCap bounds the storage reserved up front; a large k only costs
// memory for entries actually kept.
const initialCap = 1024

func New(k int) *Queue {
	if k < 0 {
		k = 0
	}
	return &Queue{k: k, h: make(entryHeap, 0, min(k, initialCap)+1)}
}

func (q *Queue) K() int { return q.k }

func (q *Queue) Len() int { return q.h.Len() }

// Clear empties the queue, keeping its storage.
func (q *Queue) Clear() {
	q.h = q.h[:0]
}

// Threshold is the score an entry has to beat to enter a full queue, or
// negative infinity while the queue still has room.
func (q *Queue) Threshold() float64 {
	if q.h.Len() < q.k {
		return math.Inf(-1)
	}
	return q.h[0].Score
}

// WouldEnter reports whether a document scoring score, with an id larger than
// every id inserted so far, would enter the queue. Pruning algorithms visit
// documents in increasing id order, so this is the bound they test against.
func (q *Queue) WouldEnter(score float64) bool {
	return q.k > 0 && (q.h.Len() < q.k || score > q.h[0].Score)
}

// Insert offers a result to the queue and reports whether it was kept.
func (q *Queue) Insert(score float64, docID uint32) bool {
	if q.k == 0 {
		return false
	}
	e := Entry{Score: score, DocID: docID}
	if q.h.Len() < q.k {
		heap.Push(&q.h, e)
		return true
	}
	if !worse(q.h[0], e) {
		return false
	}
	q.h[0] = e
	heap.Fix(&q.h, 0)
	return true
}

// Finalize orders the kept entries by descending score, then ascending
// document id. Insert must not be called again before Clear.
func (q *Queue) Finalize() {
	slices.SortFunc(q.h, compareRank)
}

// Topk returns the finalized result list. The slice is owned by the queue
// and is overwritten by the next query.
func (q *Queue) Topk() []Entry {
	return q.h
}

func compareRank(a, b Entry) int {
	if c := cmp.Compare(b.Score, a.Score); c != 0 {
		return c
	}
	return cmp.Compare(a.DocID, b.DocID)
}

// worse reports whether a ranks below b.
func worse(a, b Entry) bool {
	if a.Score != b.Score {
		return a.Score < b.Score
	}
	return a.DocID > b.DocID
}

// entryHeap is a min-heap on rank: the root is the entry evicted first.
type entryHeap []Entry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool { return worse(h[i], h[j]) }

func (h entryHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *entryHeap) Push(x interface{}) {
	*h = append(*h, x.(Entry))
}

func (h *entryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
