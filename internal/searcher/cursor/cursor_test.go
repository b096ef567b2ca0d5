package cursor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/index"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/wand"
)

func smallIndex() *index.Memory {
	b := index.NewBuilder()
	b.AddDocument([]index.TermID{0, 1, 1})
	b.AddDocument([]index.TermID{1, 2})
	b.AddDocument([]index.TermID{0, 0, 0, 2})
	b.AddDocument([]index.TermID{2})
	b.ReserveTerms(4)
	return b.Build()
}

func TestQueryTermsFoldsDuplicates(t *testing.T) {
	got := QueryTerms([]index.TermID{4, 2, 4, 4, 9, 2})
	assert.Equal(t, []Term{{4, 3}, {2, 2}, {9, 1}}, got)
	assert.Empty(t, QueryTerms(nil))
}

func TestMakeScoredDropsUnresolvableTerms(t *testing.T) {
	idx := smallIndex()
	bm25 := ranker.NewBM25(ranker.DefaultK1, ranker.DefaultB)
	// 3 has no postings, 17 is outside the vocabulary
	cursors := MakeScored(idx, bm25, []index.TermID{3, 0, 17, 2})
	require.Len(t, cursors, 2)
	assert.Equal(t, index.TermID(0), cursors[0].Term())
	assert.Equal(t, index.TermID(2), cursors[1].Term())
	assert.Empty(t, MakeScored(idx, bm25, nil))
}

func TestScoredWeightsRepeatedTerms(t *testing.T) {
	idx := smallIndex()
	bm25 := ranker.NewBM25(ranker.DefaultK1, ranker.DefaultB)
	single := MakeScored(idx, bm25, []index.TermID{1})[0]
	double := MakeScored(idx, bm25, []index.TermID{1, 1})[0]
	for single.DocID() < idx.NumDocs() {
		require.Equal(t, double.DocID(), single.DocID())
		assert.Equal(t, 2*single.Score(), double.Score())
		single.Next()
		double.Next()
	}
	assert.Equal(t, idx.NumDocs(), double.DocID())
}

func TestBoundsCoverScores(t *testing.T) {
	idx := smallIndex()
	bm25 := ranker.NewBM25(ranker.DefaultK1, ranker.DefaultB)
	data := wand.Build(idx, bm25, 1)
	terms := []index.TermID{0, 2, 2, 1}

	for _, c := range MakeMaxScored(idx, data, bm25, terms) {
		for c.DocID() < idx.NumDocs() {
			assert.LessOrEqual(t, c.Score(), c.MaxScore())
			c.Next()
		}
	}
	for _, c := range MakeBlockMaxScored(idx, data, bm25, terms) {
		for c.DocID() < idx.NumDocs() {
			c.BlockMaxNextGEQ(c.DocID())
			assert.GreaterOrEqual(t, c.BlockMaxDocID(), c.DocID())
			assert.LessOrEqual(t, c.Score(), c.BlockMaxScore())
			assert.LessOrEqual(t, c.BlockMaxScore(), c.MaxScore())
			c.Next()
		}
		c.BlockMaxNextGEQ(idx.NumDocs())
		assert.Zero(t, c.BlockMaxScore())
	}
}
