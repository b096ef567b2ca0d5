package algorithm

import (
	"cmp"
	"slices"

	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/searcher/cursor"
)

// RankedAnd scores only documents that contain every query term.
type RankedAnd struct {
	base
}

func NewRankedAnd(k int) *RankedAnd {
	return &RankedAnd{base: newBase(k)}
}

func (q *RankedAnd) Run(cursors []*cursor.Scored, numDocs uint32) int {
	q.queue.Clear()
	if len(cursors) == 0 || q.queue.K() == 0 {
		return q.finish()
	}

	// drive the intersection from the shortest list
	slices.SortFunc(cursors, func(a, b *cursor.Scored) int {
		return cmp.Compare(a.Size(), b.Size())
	})

	candidate := cursors[0].DocID()
	i := 1
	for candidate < numDocs {
		for ; i < len(cursors); i++ {
			cursors[i].NextGEQ(candidate)
			if cursors[i].DocID() != candidate {
				candidate = cursors[i].DocID()
				i = 0
				break
			}
		}
		if i == len(cursors) {
			var score float64
			for _, c := range cursors {
				score += float64(c.Score())
			}
			q.queue.Insert(score, candidate)
			cursors[0].Next()
			candidate = cursors[0].DocID()
			i = 1
		}
	}
	return q.finish()
}
