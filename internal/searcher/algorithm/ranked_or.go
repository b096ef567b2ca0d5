package algorithm

import (
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/searcher/cursor"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/searcher/topk"
)

type base struct {
	queue *topk.Queue
}

func newBase(k int) base {
	return base{queue: topk.New(k)}
}

// Topk is the result of the last Run, best first.
func (b *base) Topk() []topk.Entry { return b.queue.Topk() }

func (b *base) finish() int {
	b.queue.Finalize()
	return b.queue.Len()
}

// RankedOr scores every document that contains at least one query term.
type RankedOr struct {
	base
}

func NewRankedOr(k int) *RankedOr {
	return &RankedOr{base: newBase(k)}
}

// Run evaluates one query and returns the number of results.
func (q *RankedOr) Run(cursors []*cursor.Scored, numDocs uint32) int {
	q.queue.Clear()
	if len(cursors) == 0 || q.queue.K() == 0 {
		return q.finish()
	}

	curDoc := numDocs
	for _, c := range cursors {
		curDoc = min(curDoc, c.DocID())
	}
	for curDoc < numDocs {
		var score float64
		nextDoc := numDocs
		for _, c := range cursors {
			if c.DocID() == curDoc {
				score += float64(c.Score())
				c.Next()
			}
			nextDoc = min(nextDoc, c.DocID())
		}
		q.queue.Insert(score, curDoc)
		curDoc = nextDoc
	}
	return q.finish()
}
