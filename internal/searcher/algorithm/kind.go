// Package algorithm implements the top-k query strategies. Every strategy
// returns the same ranked list for the same query: the k best documents by
// score, ties broken by smaller document id. They differ only in how much of
// the posting lists they have to score to get there.
package algorithm

import (
	"fmt"

	apperrors "github.com/Adithya-Monish-Kumar-K/query-evaluator/pkg/errors"
)

// Kind selects a query strategy.
type Kind int

const (
	KindRankedOr Kind = iota
	KindRankedAnd
	KindWand
	KindBlockMaxWand
	KindMaxScore
	KindBlockMaxMaxScore
	KindRankedOrTAAT
	KindRankedOrTAATLazy
)

var kindNames = []string{
	KindRankedOr:         "ranked_or",
	KindRankedAnd:        "ranked_and",
	KindWand:             "wand",
	KindBlockMaxWand:     "block_max_wand",
	KindMaxScore:         "maxscore",
	KindBlockMaxMaxScore: "block_max_maxscore",
	KindRankedOrTAAT:     "ranked_or_taat",
	KindRankedOrTAATLazy: "ranked_or_taat_lazy",
}

// Kinds lists every strategy in declaration order.
func Kinds() []Kind {
	kinds := make([]Kind, len(kindNames))
	for i := range kinds {
		kinds[i] = Kind(i)
	}
	return kinds
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind maps an algorithm name to its Kind.
func ParseKind(name string) (Kind, error) {
	for i, n := range kindNames {
		if n == name {
			return Kind(i), nil
		}
	}
	return 0, apperrors.Config(apperrors.ErrUnknownAlgorithm, "%q", name)
}

// NeedsScoreBounds reports whether the strategy prunes with score-bound data.
func (k Kind) NeedsScoreBounds() bool {
	switch k {
	case KindWand, KindBlockMaxWand, KindMaxScore, KindBlockMaxMaxScore:
		return true
	default:
		return false
	}
}

// UsesBlockBounds reports whether the strategy reads per-block bounds.
func (k Kind) UsesBlockBounds() bool {
	return k == KindBlockMaxWand || k == KindBlockMaxMaxScore
}
