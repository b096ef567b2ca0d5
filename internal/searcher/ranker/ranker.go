// Package ranker turns postings into per-document score contributions.
package ranker

import (
	"math"
)

const (
	DefaultK1 = 0.9
	DefaultB  = 0.4
)

// Stats is the collection-level information BM25 needs from an index.
type Stats interface {
	NumDocs() uint32
	DocLen(doc uint32) uint32
	AvgDocLen() float64
}

// TermScorer scores one posting of a fixed term.
type TermScorer func(doc uint32, freq uint32) float32

// Scorer builds the per-term scoring function for a posting list.
type Scorer interface {
	TermScorer(stats Stats, docFreq int) TermScorer
}

// BM25 is the Okapi BM25 scoring function.
type BM25 struct {
	K1 float64
	B  float64
}

func NewBM25(k1, b float64) BM25 {
	return BM25{K1: k1, B: b}
}

// TermScorer returns the scorer for a term occurring in docFreq documents.
// Contributions are rounded to float32 so that score-bound data built from
// the same scorer bounds them exactly.
func (s BM25) TermScorer(stats Stats, docFreq int) TermScorer {
	idf := computeIDF(int64(stats.NumDocs()), int64(docFreq))
	avgDocLength := stats.AvgDocLen()
	return func(doc uint32, freq uint32) float32 {
		tfNorm := s.computeTFNorm(float64(freq), float64(stats.DocLen(doc)), avgDocLength)
		return float32(idf * tfNorm)
	}
}

func computeIDF(totalDocs int64, docFreq int64) float64 {
	numerator := float64(totalDocs) - float64(docFreq) + 0.5
	denominator := float64(docFreq) + 0.5
	return math.Log(numerator/denominator + 1)
}

func (s BM25) computeTFNorm(termFreq float64, docLength float64, avgDocLength float64) float64 {
	if avgDocLength == 0 {
		return 0
	}
	lengthRatio := docLength / avgDocLength
	denominator := termFreq + s.K1*(1-s.B+s.B*lengthRatio)
	return (termFreq * (s.K1 + 1)) / denominator
}
