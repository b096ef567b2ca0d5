package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/query-evaluator/pkg/errors"
)

func buildSample() *Memory {
	b := NewBuilder()
	b.AddDocument([]TermID{0, 1, 1})    // doc 0
	b.AddDocument([]TermID{1})          // doc 1
	b.AddDocument([]TermID{0, 2, 2, 2}) // doc 2
	b.AddDocument([]TermID{1, 2})       // doc 3
	b.ReserveTerms(5)
	return b.Build()
}

func drain(c PostingCursor, end uint32) []Posting {
	var out []Posting
	for c.DocID() != end {
		out = append(out, Posting{DocID: c.DocID(), Freq: c.Freq()})
		c.Next()
	}
	return out
}

func TestBuilderProducesSortedLists(t *testing.T) {
	idx := buildSample()
	assert.EqualValues(t, 4, idx.NumDocs())
	assert.EqualValues(t, 5, idx.NumTerms())
	assert.InDelta(t, 2.5, idx.AvgDocLen(), 1e-9)
	assert.EqualValues(t, 4, idx.DocLen(2))

	c, ok := idx.Postings(1)
	require.True(t, ok)
	assert.Equal(t, 3, c.Size())
	assert.Equal(t, []Posting{{0, 2}, {1, 1}, {3, 1}}, drain(c, idx.NumDocs()))
}

func TestPostingsUnknownTerm(t *testing.T) {
	idx := buildSample()
	_, ok := idx.Postings(3)
	assert.False(t, ok, "reserved term without postings")
	_, ok = idx.Postings(99)
	assert.False(t, ok, "term beyond vocabulary")
}

func TestListCursorNextGEQ(t *testing.T) {
	list := PostingList{{2, 1}, {5, 1}, {9, 3}, {14, 1}}
	c := NewListCursor(list, 20)

	c.NextGEQ(0)
	assert.EqualValues(t, 2, c.DocID())
	c.NextGEQ(6)
	assert.EqualValues(t, 9, c.DocID())
	assert.EqualValues(t, 3, c.Freq())
	c.NextGEQ(9)
	assert.EqualValues(t, 9, c.DocID(), "target at current position is a no-op")
	c.NextGEQ(3)
	assert.EqualValues(t, 9, c.DocID(), "never moves backwards")
	c.NextGEQ(15)
	assert.EqualValues(t, 20, c.DocID())
	c.Next()
	assert.EqualValues(t, 20, c.DocID())
}

func TestParseType(t *testing.T) {
	typ, err := ParseType("block")
	require.NoError(t, err)
	assert.Equal(t, TypeBlock, typ)
	assert.Equal(t, "raw", TypeRaw.String())

	_, err = ParseType("ef_index")
	assert.ErrorIs(t, err, apperrors.ErrUnknownIndexType)
}
