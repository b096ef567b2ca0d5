package algorithm

import (
	"cmp"
	"slices"

	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/searcher/cursor"
)

func sortByMaxScore[C maxScorer](cursors []C) {
	slices.SortStableFunc(cursors, func(a, b C) int {
		return cmp.Compare(a.MaxScore(), b.MaxScore())
	})
}

// prefixBounds fills upper[i] with the summed bounds of cursors 0..i.
func prefixBounds[C maxScorer](upper []float64, cursors []C) []float64 {
	upper = upper[:0]
	var sum float64
	for _, c := range cursors {
		sum += float64(c.MaxScore())
		upper = append(upper, sum)
	}
	return upper
}

// MaxScore splits the cursors, ordered by bound, into a non-essential prefix
// whose summed bounds cannot beat the threshold on their own and an
// essential rest. Only documents of essential lists become candidates.
type MaxScore struct {
	base
	upper []float64
}

func NewMaxScore(k int) *MaxScore {
	return &MaxScore{base: newBase(k)}
}

func (q *MaxScore) Run(cursors []*cursor.MaxScored, numDocs uint32) int {
	q.queue.Clear()
	if len(cursors) == 0 || q.queue.K() == 0 {
		return q.finish()
	}

	sortByMaxScore(cursors)
	q.upper = prefixBounds(q.upper, cursors)

	nonEssential := 0
	curDoc := numDocs
	for _, c := range cursors {
		curDoc = min(curDoc, c.DocID())
	}
	for nonEssential < len(cursors) && curDoc < numDocs {
		var score float64
		nextDoc := numDocs
		for _, c := range cursors[nonEssential:] {
			if c.DocID() == curDoc {
				score += float64(c.Score())
				c.Next()
			}
			nextDoc = min(nextDoc, c.DocID())
		}

		complete := true
		for i := nonEssential - 1; i >= 0; i-- {
			if !q.queue.WouldEnter(score + q.upper[i]) {
				complete = false
				break
			}
			cursors[i].NextGEQ(curDoc)
			if cursors[i].DocID() == curDoc {
				score += float64(cursors[i].Score())
			}
		}

		if complete && q.queue.Insert(score, curDoc) {
			for nonEssential < len(cursors) && !q.queue.WouldEnter(q.upper[nonEssential]) {
				nonEssential++
			}
		}
		curDoc = nextDoc
	}
	return q.finish()
}
