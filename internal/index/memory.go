package index

import "sort"

// Builder accumulates documents into an in-memory inverted index. Documents
// receive consecutive ids starting at zero.
type Builder struct {
	postings map[TermID]PostingList
	docLens  []uint32
	numTerms uint32
}

func NewBuilder() *Builder {
	return &Builder{
		postings: make(map[TermID]PostingList),
	}
}

// AddDocument indexes a document given as a bag of term occurrences and
// returns its id. The document length is the number of occurrences.
func (b *Builder) AddDocument(terms []TermID) uint32 {
	freqs := make(map[TermID]uint32, len(terms))
	for _, t := range terms {
		freqs[t]++
	}
	return b.AddDocumentFreqs(freqs, uint32(len(terms)))
}

// AddDocumentFreqs indexes a document given its per-term frequencies and
// length.
func (b *Builder) AddDocumentFreqs(freqs map[TermID]uint32, docLen uint32) uint32 {
	docID := uint32(len(b.docLens))
	for term, freq := range freqs {
		if freq == 0 {
			continue
		}
		b.postings[term] = append(b.postings[term], Posting{DocID: docID, Freq: freq})
		if term >= b.numTerms {
			b.numTerms = term + 1
		}
	}
	b.docLens = append(b.docLens, docLen)
	return docID
}

// ReserveTerms makes the vocabulary at least n terms wide, so ids without
// postings are still in range.
func (b *Builder) ReserveTerms(n uint32) {
	if n > b.numTerms {
		b.numTerms = n
	}
}

// Build freezes the builder into a Memory index. The builder must not be
// used afterwards.
func (b *Builder) Build() *Memory {
	lists := make([]PostingList, b.numTerms)
	for term, list := range b.postings {
		sort.Slice(list, func(i, j int) bool { return list[i].DocID < list[j].DocID })
		lists[term] = list
	}
	var total uint64
	for _, l := range b.docLens {
		total += uint64(l)
	}
	m := &Memory{lists: lists, docLens: b.docLens}
	if len(b.docLens) > 0 {
		m.avgDocLen = float64(total) / float64(len(b.docLens))
	}
	b.postings = nil
	return m
}

// Memory is an Index held entirely on the heap.
type Memory struct {
	lists     []PostingList
	docLens   []uint32
	avgDocLen float64
}

func (m *Memory) NumDocs() uint32 { return uint32(len(m.docLens)) }

func (m *Memory) NumTerms() uint32 { return uint32(len(m.lists)) }

func (m *Memory) Postings(term TermID) (PostingCursor, bool) {
	if term >= uint32(len(m.lists)) || len(m.lists[term]) == 0 {
		return nil, false
	}
	return NewListCursor(m.lists[term], m.NumDocs()), true
}

func (m *Memory) DocLen(doc uint32) uint32 { return m.docLens[doc] }

func (m *Memory) AvgDocLen() float64 { return m.avgDocLen }

// List returns the postings of term, nil when the term is unknown.
func (m *Memory) List(term TermID) PostingList {
	if term >= uint32(len(m.lists)) {
		return nil
	}
	return m.lists[term]
}

// DocLens returns the per-document lengths indexed by document id.
func (m *Memory) DocLens() []uint32 { return m.docLens }

func (m *Memory) Close() error { return nil }
