// Package wand stores per-term score upper bounds: the maximum contribution
// of each posting list as a whole, and of each fixed-size block of postings.
// Bounds are computed with the same scorer the query engine uses, so they
// hold exactly, and can be stored raw or uniformly quantized to one byte per
// block.
package wand

import (
	"encoding/binary"
	"math"

	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/index"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/mmap"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/searcher/ranker"
)

// DefaultBlockSize is the number of postings covered by one block bound.
const DefaultBlockSize = 64

// quantLevels is the largest quantized block score.
const quantLevels = 255

// Params are the scorer parameters the bounds were computed with.
type Params struct {
	K1 float64
	B  float64
}

// Data is the score-bound lookup the pruning cursors consume.
type Data interface {
	NumTerms() uint32
	NumDocs() uint32
	MaxScore(term index.TermID) float32
	Blocks(term index.TermID) *BlockEnum
	Params() Params
	Compressed() bool
	Close() error
}

// Table is the in-memory form of score-bound data, either freshly built or
// mapped from a file. Sections are little-endian byte slices so that both
// forms share one representation.
type Table struct {
	params      Params
	numTerms    uint32
	numDocs     uint32
	blockSize   uint32
	termMax     []byte // float32 per term
	termBlocks  []byte // uint32 first block per term, numTerms+1 entries
	blockDocs   []byte // uint32 last document id per block
	blockScores []byte // float32 per block, or uint8 when quantized
	quantStep   float64
	file        *mmap.File
}

func (t *Table) NumTerms() uint32 { return t.numTerms }

func (t *Table) NumDocs() uint32 { return t.numDocs }

func (t *Table) BlockSize() uint32 { return t.blockSize }

func (t *Table) Params() Params { return t.params }

func (t *Table) Compressed() bool { return t.quantStep > 0 }

// MaxScore is the largest contribution any posting of term makes, zero for
// terms outside the table.
func (t *Table) MaxScore(term index.TermID) float32 {
	if term >= t.numTerms {
		return 0
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(t.termMax[term*4:]))
}

// Blocks returns an enumerator over the block bounds of term, positioned on
// its first block.
func (t *Table) Blocks(term index.TermID) *BlockEnum {
	e := &BlockEnum{table: t, end: t.numDocs}
	if term < t.numTerms {
		e.pos = int(binary.LittleEndian.Uint32(t.termBlocks[term*4:]))
		e.stop = int(binary.LittleEndian.Uint32(t.termBlocks[(term+1)*4:]))
	}
	return e
}

func (t *Table) Close() error {
	if t.file == nil {
		return nil
	}
	return t.file.Close()
}

func (t *Table) blockDoc(i int) uint32 {
	return binary.LittleEndian.Uint32(t.blockDocs[i*4:])
}

func (t *Table) blockScore(i int) float32 {
	if t.quantStep > 0 {
		return dequantize(t.blockScores[i], t.quantStep)
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(t.blockScores[i*4:]))
}

func dequantize(q uint8, step float64) float32 {
	return float32(float64(q) * step)
}

// quantize returns the smallest level whose dequantized value is >= score.
func quantize(score float32, step float64) uint8 {
	q := math.Ceil(float64(score) / step)
	if q >= quantLevels {
		return quantLevels
	}
	level := uint8(max(q, 0))
	for level < quantLevels && dequantize(level, step) < score {
		level++
	}
	return level
}

// quantStep returns a step for which quantLevels steps cover maxScore.
func quantStep(maxScore float32) float64 {
	if maxScore <= 0 {
		return math.SmallestNonzeroFloat64
	}
	step := float64(maxScore) / quantLevels
	for dequantize(quantLevels, step) < maxScore {
		step = math.Nextafter(step, math.Inf(1))
	}
	return step
}

// BlockEnum walks the block bounds of one posting list.
type BlockEnum struct {
	table *Table
	pos   int
	stop  int
	end   uint32
}

// DocID is the last document id covered by the current block, or the
// collection size once past the last block.
func (e *BlockEnum) DocID() uint32 {
	if e.pos >= e.stop {
		return e.end
	}
	return e.table.blockDoc(e.pos)
}

// Score bounds every posting in the current block; zero past the last block.
func (e *BlockEnum) Score() float32 {
	if e.pos >= e.stop {
		return 0
	}
	return e.table.blockScore(e.pos)
}

// NextGEQ moves to the block containing the first document >= doc.
func (e *BlockEnum) NextGEQ(doc uint32) {
	for e.pos < e.stop && e.table.blockDoc(e.pos) < doc {
		e.pos++
	}
}

// Build computes score bounds for every term of idx under scorer, with one
// block bound per blockSize postings. BM25 parameters are recorded so that
// readers can check them against their own scorer.
func Build(idx index.Index, scorer ranker.Scorer, blockSize int) *Table {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	numTerms := idx.NumTerms()
	t := &Table{
		numTerms:   numTerms,
		numDocs:    idx.NumDocs(),
		blockSize:  uint32(blockSize),
		termMax:    make([]byte, 0, numTerms*4),
		termBlocks: make([]byte, 0, (numTerms+1)*4),
	}
	if bm25, ok := scorer.(ranker.BM25); ok {
		t.params = Params{K1: bm25.K1, B: bm25.B}
	}
	var blocks uint32
	for term := range numTerms {
		t.termBlocks = binary.LittleEndian.AppendUint32(t.termBlocks, blocks)
		var termMax float32
		cur, ok := idx.Postings(term)
		if ok {
			score := scorer.TermScorer(idx, cur.Size())
			var blockMax float32
			inBlock := 0
			last := uint32(0)
			for cur.DocID() < t.numDocs {
				s := score(cur.DocID(), cur.Freq())
				blockMax = max(blockMax, s)
				termMax = max(termMax, s)
				last = cur.DocID()
				inBlock++
				cur.Next()
				if inBlock == blockSize || cur.DocID() >= t.numDocs {
					t.blockDocs = binary.LittleEndian.AppendUint32(t.blockDocs, last)
					t.blockScores = binary.LittleEndian.AppendUint32(t.blockScores, math.Float32bits(blockMax))
					blocks++
					blockMax, inBlock = 0, 0
				}
			}
		}
		t.termMax = binary.LittleEndian.AppendUint32(t.termMax, math.Float32bits(termMax))
	}
	t.termBlocks = binary.LittleEndian.AppendUint32(t.termBlocks, blocks)
	return t
}
