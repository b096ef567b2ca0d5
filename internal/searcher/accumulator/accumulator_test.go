package accumulator

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/searcher/topk"
)

func collect(acc Accumulator, k int) []topk.Entry {
	q := topk.New(k)
	acc.Collect(q)
	q.Finalize()
	return q.Topk()
}

func TestAccumulatorsSumContributions(t *testing.T) {
	for name, acc := range map[string]Accumulator{
		"simple": NewSimple(10),
		"lazy":   NewLazy(10, 4),
	} {
		t.Run(name, func(t *testing.T) {
			acc.Reset()
			acc.Accumulate(7, 1.5)
			acc.Accumulate(2, 0.25)
			acc.Accumulate(7, 0.5)
			acc.Accumulate(9, 0)
			want := []topk.Entry{{2, 7}, {0.25, 2}, {0, 9}}
			if diff := cmp.Diff(want, collect(acc, 5)); diff != "" {
				t.Errorf("collected mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestResetClearsState(t *testing.T) {
	for name, acc := range map[string]Accumulator{
		"simple": NewSimple(100),
		"lazy":   NewLazy(100, 8),
	} {
		t.Run(name, func(t *testing.T) {
			acc.Reset()
			acc.Accumulate(3, 4)
			acc.Accumulate(50, 2)
			acc.Reset()
			assert.Empty(t, collect(acc, 10))

			acc.Accumulate(50, 1)
			assert.Equal(t, []topk.Entry{{1, 50}}, collect(acc, 10))
		})
	}
}

func TestLazyReusesReleasedBlocks(t *testing.T) {
	acc := NewLazy(1000, 16)
	acc.Accumulate(0, 1)
	acc.Accumulate(500, 1)
	acc.Accumulate(999, 1)
	assert.EqualValues(t, 3, acc.LiveBlocks())

	acc.Reset()
	assert.EqualValues(t, 0, acc.LiveBlocks())
	assert.Len(t, acc.free, 3)

	acc.Accumulate(17, 2)
	assert.Len(t, acc.free, 2)
	// a recycled block carries nothing over from its previous owner
	assert.Equal(t, []topk.Entry{{2, 17}}, collect(acc, 10))
}

func TestLazyMatchesSimple(t *testing.T) {
	rng := rand.New(rand.NewSource(17))
	const numDocs = 5000
	simple := NewSimple(numDocs)
	lazy := NewLazy(numDocs, DefaultBlockSize)
	for query := range 20 {
		simple.Reset()
		lazy.Reset()
		for range rng.Intn(800) {
			doc := uint32(rng.Intn(numDocs))
			s := float64(rng.Intn(16)) / 8
			simple.Accumulate(doc, s)
			lazy.Accumulate(doc, s)
		}
		k := 1 + rng.Intn(30)
		if diff := cmp.Diff(collect(simple, k), collect(lazy, k)); diff != "" {
			t.Fatalf("query %d: lazy differs from simple (-simple +lazy):\n%s", query, diff)
		}
	}
}
