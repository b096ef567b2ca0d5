// Package index defines the read-only capability every index variant offers
// to the query engine: document count, per-document lengths, and a fresh
// posting cursor per term id.
package index

import (
	"fmt"

	apperrors "github.com/Adithya-Monish-Kumar-K/query-evaluator/pkg/errors"
)

// TermID is a handle into the index vocabulary.
type TermID = uint32

// Index is an immutable inverted index.
type Index interface {
	NumDocs() uint32
	NumTerms() uint32
	// Postings returns a cursor positioned on the first posting of term, or
	// false when the term has no postings in this index.
	Postings(term TermID) (PostingCursor, bool)
	DocLen(doc uint32) uint32
	AvgDocLen() float64
	Close() error
}

// PostingCursor walks one posting list in increasing document order. Once
// exhausted, DocID returns the owning index's NumDocs.
type PostingCursor interface {
	DocID() uint32
	Freq() uint32
	Next()
	// NextGEQ moves to the first posting with a document id >= target. It
	// never moves backwards.
	NextGEQ(target uint32)
	Size() int
}

// Type selects the concrete index implementation backing a file.
type Type int

const (
	TypeRaw Type = iota
	TypeBlock
)

var typeNames = map[Type]string{
	TypeRaw:   "raw",
	TypeBlock: "block",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// ParseType maps an index-type tag to its Type.
func ParseType(name string) (Type, error) {
	for t, n := range typeNames {
		if n == name {
			return t, nil
		}
	}
	return 0, apperrors.Config(apperrors.ErrUnknownIndexType, "%q", name)
}
