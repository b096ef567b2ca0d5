package algorithm

import (
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/index"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/searcher/accumulator"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/searcher/cursor"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/searcher/topk"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/wand"
	apperrors "github.com/Adithya-Monish-Kumar-K/query-evaluator/pkg/errors"
)

// Runner binds one strategy to an index, its optional score-bound data and
// a scorer, and evaluates queries one at a time. It is not safe for
// concurrent use.
type Runner struct {
	kind   Kind
	idx    index.Index
	data   wand.Data
	scorer ranker.Scorer
	acc    accumulator.Accumulator

	rankedOr         *RankedOr
	rankedAnd        *RankedAnd
	wand             *Wand
	blockMaxWand     *BlockMaxWand
	maxScore         *MaxScore
	blockMaxMaxScore *BlockMaxMaxScore
	taat             *RankedOrTAAT
}

type Options struct {
	// LazyBlockSize is the block size of the lazy accumulator.
	LazyBlockSize int
}

// New validates that kind can run with what it is given and prepares the
// strategy. data may be nil for strategies that do not prune.
func New(kind Kind, k int, idx index.Index, data wand.Data, scorer ranker.Scorer, opts Options) (*Runner, error) {
	r := &Runner{kind: kind, idx: idx, data: data, scorer: scorer}
	if kind.NeedsScoreBounds() {
		if data == nil {
			return nil, apperrors.Config(apperrors.ErrMissingScoreBounds, "algorithm %s", kind)
		}
		if data.NumTerms() != idx.NumTerms() {
			return nil, apperrors.Newf(apperrors.ErrScoreBoundsMismatch, apperrors.ExitConfig,
				"bounds cover %d terms, index has %d", data.NumTerms(), idx.NumTerms())
		}
		if data.NumDocs() != idx.NumDocs() {
			return nil, apperrors.Newf(apperrors.ErrScoreBoundsMismatch, apperrors.ExitConfig,
				"bounds cover %d documents, index has %d", data.NumDocs(), idx.NumDocs())
		}
		if bm25, ok := scorer.(ranker.BM25); ok {
			if err := wand.CheckParams(data, bm25.K1, bm25.B); err != nil {
				return nil, err
			}
		}
	}

	switch kind {
	case KindRankedOr:
		r.rankedOr = NewRankedOr(k)
	case KindRankedAnd:
		r.rankedAnd = NewRankedAnd(k)
	case KindWand:
		r.wand = NewWand(k)
	case KindBlockMaxWand:
		r.blockMaxWand = NewBlockMaxWand(k)
	case KindMaxScore:
		r.maxScore = NewMaxScore(k)
	case KindBlockMaxMaxScore:
		r.blockMaxMaxScore = NewBlockMaxMaxScore(k)
	case KindRankedOrTAAT:
		r.taat = NewRankedOrTAAT(k)
		r.acc = accumulator.NewSimple(idx.NumDocs())
	case KindRankedOrTAATLazy:
		r.taat = NewRankedOrTAAT(k)
		r.acc = accumulator.NewLazy(idx.NumDocs(), opts.LazyBlockSize)
	default:
		return nil, apperrors.Config(apperrors.ErrUnknownAlgorithm, "%v", kind)
	}
	return r, nil
}

func (r *Runner) Kind() Kind { return r.kind }

func (r *Runner) NumDocs() uint32 { return r.idx.NumDocs() }

// Evaluate runs one query given as term ids and returns its ranked results.
// The returned slice is reused by the next call.
func (r *Runner) Evaluate(terms []index.TermID) []topk.Entry {
	numDocs := r.idx.NumDocs()
	switch r.kind {
	case KindRankedOr:
		r.rankedOr.Run(cursor.MakeScored(r.idx, r.scorer, terms), numDocs)
		return r.rankedOr.Topk()
	case KindRankedAnd:
		r.rankedAnd.Run(cursor.MakeScored(r.idx, r.scorer, terms), numDocs)
		return r.rankedAnd.Topk()
	case KindWand:
		r.wand.Run(cursor.MakeMaxScored(r.idx, r.data, r.scorer, terms), numDocs)
		return r.wand.Topk()
	case KindBlockMaxWand:
		r.blockMaxWand.Run(cursor.MakeBlockMaxScored(r.idx, r.data, r.scorer, terms), numDocs)
		return r.blockMaxWand.Topk()
	case KindMaxScore:
		r.maxScore.Run(cursor.MakeMaxScored(r.idx, r.data, r.scorer, terms), numDocs)
		return r.maxScore.Topk()
	case KindBlockMaxMaxScore:
		r.blockMaxMaxScore.Run(cursor.MakeBlockMaxScored(r.idx, r.data, r.scorer, terms), numDocs)
		return r.blockMaxMaxScore.Topk()
	default:
		r.taat.Run(cursor.MakeScored(r.idx, r.scorer, terms), numDocs, r.acc)
		return r.taat.Topk()
	}
}
