// Package accumulator maps document ids to partial scores for the
// term-at-a-time algorithms.
package accumulator

import (
	"math"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/searcher/topk"
)

// DefaultBlockSize is the number of documents per Lazy block.
const DefaultBlockSize = 256

// Accumulator collects score contributions for one query at a time. Reset
// must be called before each query.
type Accumulator interface {
	Reset()
	Accumulate(doc uint32, score float64)
	// Collect feeds every scored document into q in increasing id order.
	Collect(q *topk.Queue)
	Size() uint32
}

// Simple is a dense array with one slot per document. Collect scans every
// slot.
type Simple struct {
	scores []float64
}

func NewSimple(numDocs uint32) *Simple {
	a := &Simple{scores: make([]float64, numDocs)}
	a.Reset()
	return a
}

func (a *Simple) Size() uint32 { return uint32(len(a.scores)) }

func (a *Simple) Reset() {
	for i := range a.scores {
		a.scores[i] = math.NaN()
	}
}

func (a *Simple) Accumulate(doc uint32, score float64) {
	if prev := a.scores[doc]; !math.IsNaN(prev) {
		a.scores[doc] = prev + score
		return
	}
	a.scores[doc] = score
}

func (a *Simple) Collect(q *topk.Queue) {
	for doc, s := range a.scores {
		if !math.IsNaN(s) && q.WouldEnter(s) {
			q.Insert(s, uint32(doc))
		}
	}
}

// Lazy groups documents into fixed-size blocks and only allocates a block on
// its first write within a query. A roaring bitmap tracks live blocks, so
// Collect and Reset only visit blocks the query touched. Released blocks are
// kept on a free list for later queries.
type Lazy struct {
	numDocs   uint32
	blockSize uint32
	blocks    [][]float64
	live      *roaring.Bitmap
	free      [][]float64
}

func NewLazy(numDocs uint32, blockSize int) *Lazy {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	bs := uint32(blockSize)
	n := (uint64(numDocs) + uint64(bs) - 1) / uint64(bs)
	return &Lazy{
		numDocs:   numDocs,
		blockSize: bs,
		blocks:    make([][]float64, n),
		live:      roaring.New(),
	}
}

func (a *Lazy) Size() uint32 { return a.numDocs }

// LiveBlocks is the number of blocks written since the last Reset.
func (a *Lazy) LiveBlocks() uint64 { return a.live.GetCardinality() }

func (a *Lazy) Reset() {
	it := a.live.Iterator()
	for it.HasNext() {
		b := it.Next()
		a.free = append(a.free, a.blocks[b])
		a.blocks[b] = nil
	}
	a.live.Clear()
}

func (a *Lazy) Accumulate(doc uint32, score float64) {
	b := doc / a.blockSize
	block := a.blocks[b]
	if block == nil {
		block = a.allocate()
		a.blocks[b] = block
		a.live.Add(b)
	}
	slot := doc % a.blockSize
	if prev := block[slot]; !math.IsNaN(prev) {
		block[slot] = prev + score
		return
	}
	block[slot] = score
}

func (a *Lazy) allocate() []float64 {
	var block []float64
	if n := len(a.free); n > 0 {
		block = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		block = make([]float64, a.blockSize)
	}
	for i := range block {
		block[i] = math.NaN()
	}
	return block
}

func (a *Lazy) Collect(q *topk.Queue) {
	it := a.live.Iterator()
	for it.HasNext() {
		b := it.Next()
		base := b * a.blockSize
		for slot, s := range a.blocks[b] {
			if !math.IsNaN(s) && q.WouldEnter(s) {
				q.Insert(s, base+uint32(slot))
			}
		}
	}
}
