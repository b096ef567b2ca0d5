// Package cursor wraps posting lists with what the query algorithms need to
// traverse them: per-posting scores, and for the pruning algorithms the
// whole-list and per-block score bounds.
package cursor

import (
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/index"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/wand"
)

// Term is a distinct query term with its multiplicity in the query.
type Term struct {
	ID     index.TermID
	Weight float32
}

// QueryTerms folds repeated term ids into one Term each, in order of first
// occurrence.
func QueryTerms(ids []index.TermID) []Term {
	terms := make([]Term, 0, len(ids))
	pos := make(map[index.TermID]int, len(ids))
	for _, id := range ids {
		if i, ok := pos[id]; ok {
			terms[i].Weight++
			continue
		}
		pos[id] = len(terms)
		terms = append(terms, Term{ID: id, Weight: 1})
	}
	return terms
}

// Scored is a posting cursor that also scores its current posting.
type Scored struct {
	postings index.PostingCursor
	score    ranker.TermScorer
	term     index.TermID
	weight   float32
}

func (c *Scored) Term() index.TermID { return c.term }

func (c *Scored) DocID() uint32 { return c.postings.DocID() }

func (c *Scored) Freq() uint32 { return c.postings.Freq() }

func (c *Scored) Next() { c.postings.Next() }

func (c *Scored) NextGEQ(doc uint32) { c.postings.NextGEQ(doc) }

func (c *Scored) Size() int { return c.postings.Size() }

// Score is the weighted contribution of the current posting. Only valid
// while the cursor is not exhausted.
func (c *Scored) Score() float32 {
	return c.weight * c.score(c.postings.DocID(), c.postings.Freq())
}

// MaxScored adds the whole-list bound of the term.
type MaxScored struct {
	Scored
	maxScore float32
}

// MaxScore bounds Score for every posting of the list.
func (c *MaxScored) MaxScore() float32 { return c.maxScore }

// BlockMaxScored adds the per-block bounds of the term.
type BlockMaxScored struct {
	MaxScored
	blocks *wand.BlockEnum
}

// BlockMaxNextGEQ moves the block bound to the block holding the first
// posting >= doc, independently of the posting position.
func (c *BlockMaxScored) BlockMaxNextGEQ(doc uint32) { c.blocks.NextGEQ(doc) }

// BlockMaxScore bounds Score for every posting of the current block.
func (c *BlockMaxScored) BlockMaxScore() float32 { return c.weight * c.blocks.Score() }

// BlockMaxDocID is the last document the current block bound covers.
func (c *BlockMaxScored) BlockMaxDocID() uint32 { return c.blocks.DocID() }

func makeScored(idx index.Index, scorer ranker.Scorer, t Term) (Scored, bool) {
	postings, ok := idx.Postings(t.ID)
	if !ok {
		return Scored{}, false
	}
	return Scored{
		postings: postings,
		score:    scorer.TermScorer(idx, postings.Size()),
		term:     t.ID,
		weight:   t.Weight,
	}, true
}

// MakeScored opens one cursor per distinct query term. Terms without
// postings in idx get no cursor.
func MakeScored(idx index.Index, scorer ranker.Scorer, ids []index.TermID) []*Scored {
	terms := QueryTerms(ids)
	cursors := make([]*Scored, 0, len(terms))
	for _, t := range terms {
		if c, ok := makeScored(idx, scorer, t); ok {
			cursors = append(cursors, &c)
		}
	}
	return cursors
}

// MakeMaxScored is MakeScored with whole-list bounds taken from data.
func MakeMaxScored(idx index.Index, data wand.Data, scorer ranker.Scorer, ids []index.TermID) []*MaxScored {
	terms := QueryTerms(ids)
	cursors := make([]*MaxScored, 0, len(terms))
	for _, t := range terms {
		c, ok := makeScored(idx, scorer, t)
		if !ok {
			continue
		}
		cursors = append(cursors, &MaxScored{
			Scored:   c,
			maxScore: t.Weight * data.MaxScore(t.ID),
		})
	}
	return cursors
}

// MakeBlockMaxScored is MakeMaxScored with block bounds taken from data.
func MakeBlockMaxScored(idx index.Index, data wand.Data, scorer ranker.Scorer, ids []index.TermID) []*BlockMaxScored {
	terms := QueryTerms(ids)
	cursors := make([]*BlockMaxScored, 0, len(terms))
	for _, t := range terms {
		c, ok := makeScored(idx, scorer, t)
		if !ok {
			continue
		}
		cursors = append(cursors, &BlockMaxScored{
			MaxScored: MaxScored{Scored: c, maxScore: t.Weight * data.MaxScore(t.ID)},
			blocks:    data.Blocks(t.ID),
		})
	}
	return cursors
}
