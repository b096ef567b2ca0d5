package parser

import (
	"strings"

	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/index"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/searcher/termproc"
)

// Query is one parsed input line. Terms keeps repeated ids; they count as
// query term weight during evaluation.
type Query struct {
	ID       string
	HasID    bool
	Terms    []index.TermID
	RawQuery string
}

// Parse reads a line of the form "[id:]token token ...". Tokens that do not
// resolve through proc, or resolve to a stopword, are dropped.
func Parse(line string, proc *termproc.Processor, stopwords termproc.Stopwords) *Query {
	q := &Query{
		Terms:    make([]index.TermID, 0),
		RawQuery: line,
	}
	body := line
	if id, rest, found := strings.Cut(line, ":"); found {
		q.ID = strings.TrimSpace(id)
		q.HasID = true
		body = rest
	}
	if strings.TrimSpace(body) == "" {
		return q
	}
	for _, token := range strings.Fields(body) {
		id, ok := proc.Process(token)
		if !ok || stopwords.Contains(id) {
			continue
		}
		q.Terms = append(q.Terms, id)
	}
	return q
}
