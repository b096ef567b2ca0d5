package algorithm

import (
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/searcher/accumulator"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/searcher/cursor"
)

// RankedOrTAAT consumes one posting list at a time into an accumulator and
// extracts the top k once every list is exhausted.
type RankedOrTAAT struct {
	base
}

func NewRankedOrTAAT(k int) *RankedOrTAAT {
	return &RankedOrTAAT{base: newBase(k)}
}

// Run resets acc, which must span numDocs documents, before use.
func (q *RankedOrTAAT) Run(cursors []*cursor.Scored, numDocs uint32, acc accumulator.Accumulator) int {
	q.queue.Clear()
	if q.queue.K() == 0 {
		return q.finish()
	}

	acc.Reset()
	for _, c := range cursors {
		for c.DocID() < numDocs {
			acc.Accumulate(c.DocID(), float64(c.Score()))
			c.Next()
		}
	}
	acc.Collect(q.queue)
	return q.finish()
}
