package termproc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/query-evaluator/pkg/errors"
)

func TestNumericProcessor(t *testing.T) {
	p, err := New("", "")
	require.NoError(t, err)

	id, ok := p.Process("42")
	assert.True(t, ok)
	assert.Equal(t, index.TermID(42), id)

	for _, bad := range []string{"cat", "-1", "4.2", "99999999999"} {
		_, ok := p.Process(bad)
		assert.False(t, ok, bad)
	}
}

func TestLexiconProcessor(t *testing.T) {
	p, err := NewFromTerms([]string{"run", "cat", "the"}, "")
	require.NoError(t, err)

	id, ok := p.Process("CAT")
	assert.True(t, ok)
	assert.Equal(t, index.TermID(1), id)

	_, ok = p.Process("running")
	assert.False(t, ok, "no stemming configured")
}

func TestPorter2Stemming(t *testing.T) {
	p, err := NewFromTerms([]string{"run", "cat", "connect"}, StemmerPorter2)
	require.NoError(t, err)

	for token, want := range map[string]index.TermID{"Running": 0, "cats": 1, "connected": 2} {
		id, ok := p.Process(token)
		require.True(t, ok, token)
		assert.Equal(t, want, id, token)
	}
}

func TestUnknownStemmer(t *testing.T) {
	_, err := NewFromTerms([]string{"a"}, "krovetz")
	assert.ErrorIs(t, err, apperrors.ErrUnknownStemmer)
	assert.Equal(t, apperrors.ExitConfig, apperrors.ExitCode(err))

	_, err = New("", StemmerPorter2)
	assert.ErrorIs(t, err, apperrors.ErrInvalidConfig)
}

func TestLoadFromFiles(t *testing.T) {
	dir := t.TempDir()
	terms := filepath.Join(dir, "terms.txt")
	stop := filepath.Join(dir, "stop.txt")
	require.NoError(t, os.WriteFile(terms, []byte("a\nthe\nzebra\n"), 0o644))
	require.NoError(t, os.WriteFile(stop, []byte("the\n\nunknown\nA\n"), 0o644))

	p, err := New(terms, "")
	require.NoError(t, err)
	sw, err := p.LoadStopwords(stop)
	require.NoError(t, err)
	assert.Len(t, sw, 2)
	assert.True(t, sw.Contains(0))
	assert.True(t, sw.Contains(1))
	assert.False(t, sw.Contains(2))

	empty, err := p.LoadStopwords("")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
