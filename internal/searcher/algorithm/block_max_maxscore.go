package algorithm

import (
	"slices"

	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/searcher/cursor"
)

// BlockMaxMaxScore is MaxScore that also consults the block bounds of the
// non-essential lists before moving them, and drops the candidate as soon as
// those bounds rule it out.
type BlockMaxMaxScore struct {
	base
	upper  []float64
	blocks []float64
	prefix []float64
}

func NewBlockMaxMaxScore(k int) *BlockMaxMaxScore {
	return &BlockMaxMaxScore{base: newBase(k)}
}

func (q *BlockMaxMaxScore) Run(cursors []*cursor.BlockMaxScored, numDocs uint32) int {
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

		if q.completeWithBlocks(cursors[:nonEssential], curDoc, &score) &&
			q.queue.Insert(score, curDoc) {
			for nonEssential < len(cursors) && !q.queue.WouldEnter(q.upper[nonEssential]) {
				nonEssential++
			}
		}
		curDoc = nextDoc
	}
	return q.finish()
}

// completeWithBlocks adds the contributions of the non-essential cursors to
// score and reports whether the document can still enter the queue.
func (q *BlockMaxMaxScore) completeWithBlocks(cursors []*cursor.BlockMaxScored, doc uint32, score *float64) bool {
	n := len(cursors)
	if n == 0 {
		return true
	}

	// Block bounds from the highest list down. Lists 0..i-1 are still
	// covered by their whole-list bounds.
	q.blocks = slices.Grow(q.blocks[:0], n)[:n]
	var blockSum float64
	for i := n - 1; i >= 0; i-- {
		cursors[i].BlockMaxNextGEQ(doc)
		q.blocks[i] = float64(cursors[i].BlockMaxScore())
		blockSum += q.blocks[i]
		var rest float64
		if i > 0 {
			rest = q.upper[i-1]
		}
		if !q.queue.WouldEnter(*score + rest + blockSum) {
			return false
		}
	}

	// prefix[i] sums the block bounds of lists 0..i-1
	q.prefix = append(q.prefix[:0], 0)
	for i := range n {
		q.prefix = append(q.prefix, q.prefix[i]+q.blocks[i])
	}

	var partial float64
	for i := n - 1; i >= 0; i-- {
		cursors[i].NextGEQ(doc)
		if cursors[i].DocID() == doc {
			partial += float64(cursors[i].Score())
		}
		if !q.queue.WouldEnter(*score + partial + q.prefix[i]) {
			return false
		}
	}
	*score += partial
	return true
}
