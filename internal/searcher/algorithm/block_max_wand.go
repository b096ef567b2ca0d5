package algorithm

import (
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/searcher/cursor"
)

// BlockMaxWand refines the Wand pivot test with the bounds of the blocks
// the pivot document falls into.
type BlockMaxWand struct {
	base
	suffix []float64
}

func NewBlockMaxWand(k int) *BlockMaxWand {
	return &BlockMaxWand{base: newBase(k)}
}

func (q *BlockMaxWand) Run(cursors []*cursor.BlockMaxScored, numDocs uint32) int {
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
		for pivot+1 < len(cursors) && cursors[pivot+1].DocID() == pivotID {
			pivot++
		}

		// suffix[i] bounds what cursors i..pivot can add on pivotID
		q.suffix = q.suffix[:0]
		for i := 0; i <= pivot; i++ {
			cursors[i].BlockMaxNextGEQ(pivotID)
			q.suffix = append(q.suffix, float64(cursors[i].BlockMaxScore()))
		}
		q.suffix = append(q.suffix, 0)
		for i := pivot - 1; i >= 0; i-- {
			q.suffix[i] += q.suffix[i+1]
		}

		if !q.queue.WouldEnter(q.suffix[0]) {
			q.skipBlocks(cursors, pivot, pivotID, numDocs)
			continue
		}

		if pivotID == cursors[0].DocID() {
			// every cursor in 0..pivot sits on pivotID
			var score float64
			complete := true
			for i := 0; i <= pivot; i++ {
				score += float64(cursors[i].Score())
				if !q.queue.WouldEnter(score + q.suffix[i+1]) {
					complete = false
					break
				}
			}
			for i := 0; i <= pivot; i++ {
				cursors[i].Next()
			}
			if complete {
				q.queue.Insert(score, pivotID)
			}
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

// skipBlocks moves past the shallowest of the current blocks when their
// bounds rule out pivotID and everything up to the first block boundary.
func (q *BlockMaxWand) skipBlocks(cursors []*cursor.BlockMaxScored, pivot int, pivotID, numDocs uint32) {
	next := pivot
	maxWeight := cursors[pivot].MaxScore()
	for i := 0; i < pivot; i++ {
		if cursors[i].MaxScore() > maxWeight {
			next = i
			maxWeight = cursors[i].MaxScore()
		}
	}

	target := numDocs
	for i := 0; i <= pivot; i++ {
		target = min(target, cursors[i].BlockMaxDocID())
	}
	if target < numDocs {
		target++
	}
	if pivot+1 < len(cursors) && cursors[pivot+1].DocID() < target {
		target = cursors[pivot+1].DocID()
	}
	if target <= pivotID {
		target = pivotID + 1
	}
	cursors[next].NextGEQ(target)
	bubbleDown(cursors, next)
}
