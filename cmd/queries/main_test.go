package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/index"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/index/segment"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/searcher/algorithm"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/wand"
	apperrors "github.com/Adithya-Monish-Kumar-K/query-evaluator/pkg/errors"
)

type fixture struct {
	index, wand, docs, terms, queries string
}

// newFixture writes a small block index with its score bounds, a lexicon
// and a document map.
func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	lexicon := []string{"search", "engine", "query", "index", "score"}
	b := index.NewBuilder()
	docs := make([]string, 0, 40)
	for d := range 40 {
		var terms []index.TermID
		for term := range lexicon {
			for range (d + term) % (term + 2) {
				terms = append(terms, index.TermID(term))
			}
		}
		b.AddDocument(terms)
		docs = append(docs, fmt.Sprintf("clueweb-%03d", d))
	}
	mem := b.Build()

	f := fixture{
		index:   filepath.Join(dir, "collection.idx"),
		wand:    filepath.Join(dir, "collection.wand"),
		docs:    filepath.Join(dir, "collection.docs"),
		terms:   filepath.Join(dir, "collection.terms"),
		queries: filepath.Join(dir, "topics.txt"),
	}
	require.NoError(t, segment.NewWriter(index.TypeBlock).Write(f.index, mem))
	bm25 := ranker.NewBM25(ranker.DefaultK1, ranker.DefaultB)
	require.NoError(t, wand.Build(mem, bm25, 4).Write(f.wand, false))
	writeLines(t, f.docs, docs)
	writeLines(t, f.terms, lexicon)
	writeLines(t, f.queries, []string{"1:search engine", "2:Query index index", "3:unknown", "4:score search query"})
	return f
}

func writeLines(t *testing.T, path string, lines []string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644))
}

func runArgs(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, strings.NewReader(""), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func (f fixture) args(algo string, extra ...string) []string {
	return append([]string{
		"-t", "block",
		"-a", algo,
		"-i", f.index,
		"--terms", f.terms,
		"--documents", f.docs,
		"-q", f.queries,
		"-k", "5",
	}, extra...)
}

func TestPruningAlgorithmWithoutBoundsFailsBeforeOutput(t *testing.T) {
	f := newFixture(t)
	code, stdout, stderr := runArgs(t, f.args("block_max_wand")...)
	assert.Equal(t, apperrors.ExitConfig, code)
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, apperrors.ErrMissingScoreBounds.Error())
}

func TestUnknownNamesAreConfigErrors(t *testing.T) {
	f := newFixture(t)
	code, stdout, _ := runArgs(t, f.args("bm25_or")...)
	assert.Equal(t, apperrors.ExitConfig, code)
	assert.Empty(t, stdout)

	args := f.args("ranked_or")
	args[1] = "ef"
	code, stdout, _ = runArgs(t, args...)
	assert.Equal(t, apperrors.ExitConfig, code)
	assert.Empty(t, stdout)
}

func TestMissingIndexIsSetupError(t *testing.T) {
	f := newFixture(t)
	args := f.args("ranked_or")
	args[5] = filepath.Join(t.TempDir(), "missing.idx")
	code, stdout, _ := runArgs(t, args...)
	assert.Equal(t, apperrors.ExitSetup, code)
	assert.Empty(t, stdout)
}

func TestUnreadableScoreBoundsIsSetupError(t *testing.T) {
	f := newFixture(t)
	missing := filepath.Join(t.TempDir(), "missing.wand")
	code, stdout, _ := runArgs(t, f.args("wand", "-w", missing)...)
	assert.Equal(t, apperrors.ExitSetup, code)
	assert.Empty(t, stdout)

	corrupt := filepath.Join(t.TempDir(), "corrupt.wand")
	require.NoError(t, os.WriteFile(corrupt, []byte("not score bounds"), 0o644))
	code, stdout, _ = runArgs(t, f.args("block_max_maxscore", "-w", corrupt)...)
	assert.Equal(t, apperrors.ExitSetup, code)
	assert.Empty(t, stdout)
}

func TestEveryAlgorithmPrintsTheSameRanking(t *testing.T) {
	f := newFixture(t)
	code, want, stderr := runArgs(t, f.args("ranked_or")...)
	require.Equal(t, apperrors.ExitOK, code, stderr)

	lines := strings.Split(strings.TrimSuffix(want, "\n"), "\n")
	require.NotEmpty(t, lines)
	for _, line := range lines {
		fields := strings.Split(line, "\t")
		require.Len(t, fields, 6, line)
		assert.NotEqual(t, "3", fields[0], "query without known terms produced output")
		assert.Equal(t, "Q0", fields[1])
		assert.True(t, strings.HasPrefix(fields[2], "clueweb-"), line)
		assert.Equal(t, "R0", fields[5])
	}

	for _, kind := range algorithm.Kinds() {
		if kind == algorithm.KindRankedAnd {
			continue
		}
		code, got, stderr := runArgs(t, f.args(kind.String(), "-w", f.wand)...)
		require.Equal(t, apperrors.ExitOK, code, stderr)
		assert.Equal(t, want, got, kind.String())
	}
}

func TestThresholdsAreIgnored(t *testing.T) {
	f := newFixture(t)
	_, want, _ := runArgs(t, f.args("ranked_or")...)
	code, got, stderr := runArgs(t, f.args("ranked_or", "--thresholds", f.queries)...)
	require.Equal(t, apperrors.ExitOK, code, stderr)
	assert.Equal(t, want, got)
	assert.Contains(t, stderr, "thresholds")
}
