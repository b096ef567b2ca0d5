package algorithm

import (
	"cmp"
	"slices"

	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/searcher/cursor"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/searcher/topk"
)

type docIDer interface {
	DocID() uint32
}

func sortByDocID[C docIDer](cursors []C) {
	slices.SortFunc(cursors, func(a, b C) int {
		return cmp.Compare(a.DocID(), b.DocID())
	})
}

// bubbleDown restores docid order after cursors[from] moved forward.
func bubbleDown[C docIDer](cursors []C, from int) {
	for i := from + 1; i < len(cursors); i++ {
		if cursors[i].DocID() >= cursors[i-1].DocID() {
			break
		}
		cursors[i], cursors[i-1] = cursors[i-1], cursors[i]
	}
}

// Wand skips documents whose summed whole-list bounds cannot beat the
// current k-th score.
type Wand struct {
	base
}

func NewWand(k int) *Wand {
	return &Wand{base: newBase(k)}
}

func (q *Wand) Run(cursors []*cursor.MaxScored, numDocs uint32) int {
	q.queue.Clear()
	if len(cursors) == 0 || q.queue.K() == 0 {
		return q.finish()
	}

	sortByDocID(cursors)
	for {
		pivot, found := findPivot(q.queue, cursors, numDocs)
		if !found {
			break
		}
		pivotID := cursors[pivot].DocID()
		if pivotID == cursors[0].DocID() {
			var score float64
			for _, c := range cursors {
				if c.DocID() != pivotID {
					break
				}
				score += float64(c.Score())
				c.Next()
			}
			q.queue.Insert(score, pivotID)
			sortByDocID(cursors)
			continue
		}

		next := pivot
		for cursors[next].DocID() == pivotID {
			next--
		}
		cursors[next].NextGEQ(pivotID)
		bubbleDown(cursors, next)
	}
	return q.finish()
}

type maxScorer interface {
	docIDer
	MaxScore() float32
}

// findPivot returns the first cursor, in docid order, at which the summed
// whole-list bounds could enter the queue.
func findPivot[C maxScorer](queue *topk.Queue, cursors []C, numDocs uint32) (int, bool) {
	var upper float64
	for i, c := range cursors {
		if c.DocID() >= numDocs {
			break
		}
		upper += float64(c.MaxScore())
		if queue.WouldEnter(upper) {
			return i, true
		}
	}
	return 0, false
}
