// Package benchmark contains Go benchmarks for the query algorithms, the
// accumulators and the index readers, measuring latency and allocation
// behaviour over a synthetic skewed collection.
package benchmark

import (
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/index"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/index/segment"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/searcher/accumulator"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/searcher/algorithm"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/searcher/termproc"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/searcher/topk"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/wand"
)

const (
	benchDocs  = 50000
	benchTerms = 500
)

// zipfIndex draws document terms from a Zipf distribution so that a few
// terms have long posting lists and most have short ones.
func zipfIndex(seed int64) *index.Memory {
	rng := rand.New(rand.NewSource(seed))
	zipf := rand.NewZipf(rng, 1.1, 1, benchTerms-1)
	b := index.NewBuilder()
	for range benchDocs {
		n := 20 + rng.Intn(80)
		terms := make([]index.TermID, n)
		for i := range terms {
			terms[i] = index.TermID(zipf.Uint64())
		}
		b.AddDocument(terms)
	}
	b.ReserveTerms(benchTerms)
	return b.Build()
}

func benchQueries(seed int64, n int) [][]index.TermID {
	rng := rand.New(rand.NewSource(seed))
	queries := make([][]index.TermID, n)
	for i := range queries {
		q := make([]index.TermID, 2+rng.Intn(4))
		for j := range q {
			q[j] = index.TermID(rng.Intn(benchTerms / 4))
		}
		queries[i] = q
	}
	return queries
}

// BenchmarkAlgorithms measures per-query latency of every strategy at k=10
// on the same queries.
func BenchmarkAlgorithms(b *testing.B) {
	mem := zipfIndex(1)
	bm25 := ranker.NewBM25(ranker.DefaultK1, ranker.DefaultB)
	data := wand.Build(mem, bm25, wand.DefaultBlockSize)
	queries := benchQueries(2, 64)

	for _, kind := range algorithm.Kinds() {
		b.Run(kind.String(), func(b *testing.B) {
			r, err := algorithm.New(kind, 10, mem, data, bm25, algorithm.Options{})
			if err != nil {
				b.Fatal(err)
			}
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				r.Evaluate(queries[i%len(queries)])
			}
		})
	}
}

// BenchmarkIndexTypes compares raw and block posting readers under the
// block-max WAND strategy, which exercises NextGEQ the most.
func BenchmarkIndexTypes(b *testing.B) {
	mem := zipfIndex(3)
	bm25 := ranker.NewBM25(ranker.DefaultK1, ranker.DefaultB)
	data := wand.Build(mem, bm25, wand.DefaultBlockSize)
	queries := benchQueries(4, 64)

	for _, typ := range []index.Type{index.TypeRaw, index.TypeBlock} {
		b.Run(typ.String(), func(b *testing.B) {
			path := filepath.Join(b.TempDir(), "bench.idx")
			if err := segment.NewWriter(typ).Write(path, mem); err != nil {
				b.Fatal(err)
			}
			idx, err := segment.Open(typ, path)
			if err != nil {
				b.Fatal(err)
			}
			defer idx.Close()
			r, err := algorithm.New(algorithm.KindBlockMaxWand, 10, idx, data, bm25, algorithm.Options{})
			if err != nil {
				b.Fatal(err)
			}
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				r.Evaluate(queries[i%len(queries)])
			}
		})
	}
}

// BenchmarkAccumulators measures a sparse query touching 1% of the
// collection, where the lazy accumulator avoids the dense reset and scan.
func BenchmarkAccumulators(b *testing.B) {
	rng := rand.New(rand.NewSource(5))
	docs := make([]uint32, benchDocs/100)
	for i := range docs {
		docs[i] = uint32(rng.Intn(benchDocs))
	}
	for name, acc := range map[string]accumulator.Accumulator{
		"simple": accumulator.NewSimple(benchDocs),
		"lazy":   accumulator.NewLazy(benchDocs, accumulator.DefaultBlockSize),
	} {
		b.Run(name, func(b *testing.B) {
			q := topk.New(10)
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				acc.Reset()
				for _, d := range docs {
					acc.Accumulate(d, 1.5)
				}
				q.Clear()
				acc.Collect(q)
			}
		})
	}
}

// BenchmarkQueryParse measures query line parsing with a lexicon and a
// stemmer.
func BenchmarkQueryParse(b *testing.B) {
	proc, err := termproc.NewFromTerms([]string{"distribut", "search", "index", "queri", "rank"}, termproc.StemmerPorter2)
	if err != nil {
		b.Fatal(err)
	}
	stopwords := proc.Stopwords([]string{"the", "of"})
	line := "topic-12:Distributed searching of the indexed queries ranking"
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		parser.Parse(line, proc, stopwords)
	}
}
