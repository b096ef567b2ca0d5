package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/index"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/searcher/termproc"
)

func TestParseNumericTerms(t *testing.T) {
	proc, err := termproc.New("", "")
	require.NoError(t, err)

	q := Parse("3 17 3 x 5", proc, nil)
	assert.False(t, q.HasID)
	assert.Equal(t, []index.TermID{3, 17, 3, 5}, q.Terms)
	assert.Equal(t, "3 17 3 x 5", q.RawQuery)
}

func TestParseExplicitID(t *testing.T) {
	proc, err := termproc.NewFromTerms([]string{"apple", "pie", "of"}, "")
	require.NoError(t, err)
	stop := proc.Stopwords([]string{"of"})

	q := Parse("q-301:Apple of pie", proc, stop)
	assert.True(t, q.HasID)
	assert.Equal(t, "q-301", q.ID)
	assert.Equal(t, []index.TermID{0, 1}, q.Terms)
}

func TestParseEmptyQueries(t *testing.T) {
	proc, err := termproc.New("", "")
	require.NoError(t, err)

	for _, line := range []string{"", "   ", "7:", "nothing resolves"} {
		q := Parse(line, proc, nil)
		assert.Empty(t, q.Terms, line)
	}
	assert.True(t, Parse("7:", proc, nil).HasID)
}
