// Package termproc turns query tokens into term ids: either through a
// lexicon file, with optional stemming, or by reading tokens as numeric ids
// directly.
package termproc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kljensen/snowball/english"

	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/query-evaluator/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/pkg/textio"
)

// StemmerPorter2 is the English Snowball stemmer.
const StemmerPorter2 = "porter2"

// Processor maps one token to a term id.
type Processor struct {
	lexicon map[string]index.TermID
	stem    func(string) string
}

// New builds a processor. Without a terms file tokens must be decimal term
// ids; with one, the id of a term is its 0-based line number.
func New(termsPath, stemmer string) (*Processor, error) {
	if termsPath == "" {
		if stemmer != "" {
			return nil, apperrors.Config(apperrors.ErrInvalidConfig, "stemmer %q requires a terms file", stemmer)
		}
		return &Processor{}, nil
	}
	terms, err := textio.ReadLines(termsPath)
	if err != nil {
		return nil, fmt.Errorf("loading terms: %w", err)
	}
	return NewFromTerms(terms, stemmer)
}

// NewFromTerms builds a lexicon-backed processor from terms in id order.
func NewFromTerms(terms []string, stemmer string) (*Processor, error) {
	stem, err := stemmerFunc(stemmer)
	if err != nil {
		return nil, err
	}
	lexicon := make(map[string]index.TermID, len(terms))
	for id, term := range terms {
		if _, dup := lexicon[term]; !dup {
			lexicon[term] = index.TermID(id)
		}
	}
	return &Processor{lexicon: lexicon, stem: stem}, nil
}

func stemmerFunc(name string) (func(string) string, error) {
	switch name {
	case "":
		return nil, nil
	case StemmerPorter2:
		return func(word string) string { return english.Stem(word, false) }, nil
	default:
		return nil, apperrors.Config(apperrors.ErrUnknownStemmer, "%q", name)
	}
}

// Process returns the term id of token, or false when it does not resolve.
func (p *Processor) Process(token string) (index.TermID, bool) {
	if p.lexicon == nil {
		id, err := strconv.ParseUint(token, 10, 32)
		if err != nil {
			return 0, false
		}
		return index.TermID(id), true
	}
	term := strings.ToLower(token)
	if p.stem != nil {
		term = p.stem(term)
	}
	id, ok := p.lexicon[term]
	return id, ok
}

// Stopwords is a set of term ids removed from every query.
type Stopwords map[index.TermID]struct{}

func (s Stopwords) Contains(id index.TermID) bool {
	_, ok := s[id]
	return ok
}

// Stopwords resolves words through p; words that do not resolve are
// skipped.
func (p *Processor) Stopwords(words []string) Stopwords {
	set := make(Stopwords, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		if id, ok := p.Process(w); ok {
			set[id] = struct{}{}
		}
	}
	return set
}

// LoadStopwords reads one stopword per line from path. An empty path yields
// an empty set.
func (p *Processor) LoadStopwords(path string) (Stopwords, error) {
	if path == "" {
		return Stopwords{}, nil
	}
	words, err := textio.ReadLines(path)
	if err != nil {
		return nil, fmt.Errorf("loading stopwords: %w", err)
	}
	return p.Stopwords(words), nil
}
