package main

import (
	"bytes"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/index"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/index/segment"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/wand"
	apperrors "github.com/Adithya-Monish-Kumar-K/query-evaluator/pkg/errors"
)

func writeIndex(t *testing.T, typ index.Type) (string, *index.Memory) {
	t.Helper()
	b := index.NewBuilder()
	for d := range 300 {
		b.AddDocument([]index.TermID{index.TermID(d % 3), index.TermID(d % 7), 9})
	}
	mem := b.Build()
	path := filepath.Join(t.TempDir(), "collection.idx")
	require.NoError(t, segment.NewWriter(typ).Write(path, mem))
	return path, mem
}

func TestCreateMatchesInMemoryBuild(t *testing.T) {
	path, mem := writeIndex(t, index.TypeRaw)
	for _, compress := range []bool{false, true} {
		out := filepath.Join(t.TempDir(), "collection.wand")
		var stderr bytes.Buffer
		code := run([]string{
			"-type", "raw", "-index", path, "-output", out,
			"-block-size", "16", "-compress=" + strconv.FormatBool(compress),
		}, &stderr)
		require.Equal(t, apperrors.ExitOK, code, stderr.String())

		got, err := wand.Open(out, compress)
		require.NoError(t, err)
		want := wand.Build(mem, ranker.NewBM25(ranker.DefaultK1, ranker.DefaultB), 16)
		assert.Equal(t, want.NumTerms(), got.NumTerms())
		assert.Equal(t, want.Params(), got.Params())
		for term := range want.NumTerms() {
			if compress {
				assert.GreaterOrEqual(t, got.MaxScore(term), want.MaxScore(term))
			} else {
				assert.Equal(t, want.MaxScore(term), got.MaxScore(term))
			}
		}
		require.NoError(t, got.Close())
	}
}

func TestCreateRecordsScorerParameters(t *testing.T) {
	path, _ := writeIndex(t, index.TypeBlock)
	out := filepath.Join(t.TempDir(), "collection.wand")
	var stderr bytes.Buffer
	code := run([]string{"-type", "block", "-index", path, "-output", out, "-k1", "1.2", "-b", "0.75"}, &stderr)
	require.Equal(t, apperrors.ExitOK, code, stderr.String())

	data, err := wand.Open(out, false)
	require.NoError(t, err)
	defer data.Close()
	assert.NoError(t, wand.CheckParams(data, 1.2, 0.75))
	assert.ErrorIs(t, wand.CheckParams(data, ranker.DefaultK1, ranker.DefaultB), apperrors.ErrScoreBoundsMismatch)
}

func TestCreateRejectsBadArguments(t *testing.T) {
	path, _ := writeIndex(t, index.TypeRaw)
	out := filepath.Join(t.TempDir(), "collection.wand")
	for name, args := range map[string][]string{
		"no output":    {"-type", "raw", "-index", path},
		"unknown type": {"-type", "ef", "-index", path, "-output", out},
		"bad block":    {"-type", "raw", "-index", path, "-output", out, "-block-size", "0"},
	} {
		var stderr bytes.Buffer
		assert.Equal(t, apperrors.ExitConfig, run(args, &stderr), name)
	}

	var stderr bytes.Buffer
	code := run([]string{"-type", "block", "-index", path, "-output", out}, &stderr)
	assert.Equal(t, apperrors.ExitSetup, code, "type mismatch with the file")
}
