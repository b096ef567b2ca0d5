// Package executor is the evaluation driver: it reads query lines in order,
// evaluates each with the bound algorithm and streams one result line per
// ranked document.
package executor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/docmap"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/searcher/algorithm"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/searcher/termproc"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/searcher/topk"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/pkg/textio"
)

// Options carries the optional collaborators and the constant output
// columns.
type Options struct {
	Iteration string
	RunID     string
	Stopwords termproc.Stopwords
	Cache     *cache.QueryCache
	Metrics   *metrics.Metrics
}

// Summary describes a completed run.
type Summary struct {
	Queries int
	Results int
	Elapsed time.Duration
}

type Executor struct {
	runner    *algorithm.Runner
	docs      *docmap.Map
	proc      *termproc.Processor
	stopwords termproc.Stopwords
	iteration string
	runID     string
	cache     *cache.QueryCache
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// New binds runner, the document map and the term processor. It fails when
// the document map does not name every document of the index.
func New(runner *algorithm.Runner, docs *docmap.Map, proc *termproc.Processor, opts Options) (*Executor, error) {
	if err := docs.Covers(runner.NumDocs()); err != nil {
		return nil, err
	}
	if opts.Iteration == "" {
		opts.Iteration = "Q0"
	}
	if opts.RunID == "" {
		opts.RunID = "R0"
	}
	return &Executor{
		runner:    runner,
		docs:      docs,
		proc:      proc,
		stopwords: opts.Stopwords,
		iteration: opts.Iteration,
		runID:     opts.RunID,
		cache:     opts.Cache,
		metrics:   opts.Metrics,
		logger:    logger.WithComponent("query-executor"),
	}, nil
}

// Run evaluates every line of r as one query, in order, writing each query's
// results to w before reading the next line.
func (e *Executor) Run(ctx context.Context, r io.Reader, w io.Writer) (Summary, error) {
	start := time.Now()
	var summary Summary
	out := bufio.NewWriter(w)
	err := textio.ForEachLine(r, func(line string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		q := parser.Parse(line, e.proc, e.stopwords)
		qid := q.ID
		if !q.HasID {
			qid = strconv.Itoa(summary.Queries)
		}
		results := e.Evaluate(logger.WithQueryID(ctx, qid), q)
		if err := e.write(out, qid, results); err != nil {
			return err
		}
		summary.Queries++
		summary.Results += len(results)
		return nil
	})
	summary.Elapsed = time.Since(start)
	if err != nil {
		return summary, fmt.Errorf("evaluating queries: %w", err)
	}
	return summary, nil
}

// Evaluate returns the ranked results of one parsed query. The slice is only
// valid until the next call.
func (e *Executor) Evaluate(ctx context.Context, q *parser.Query) []topk.Entry {
	log := logger.FromContext(ctx)
	algo := e.runner.Kind().String()

	if e.cache != nil {
		if cached, ok := e.cache.Get(ctx, q.Terms); ok {
			e.observe(algo, metrics.ResultCached, len(cached), 0, true)
			return cached
		}
		if e.metrics != nil {
			e.metrics.CacheMissesTotal.Inc()
		}
	}

	start := time.Now()
	results := e.runner.Evaluate(q.Terms)
	elapsed := time.Since(start)

	resultType := metrics.ResultHit
	if len(results) == 0 {
		resultType = metrics.ResultZeroResult
	}
	e.observe(algo, resultType, len(results), elapsed, false)
	log.Debug("query evaluated",
		"terms", len(q.Terms),
		"results", len(results),
		"latency_us", elapsed.Microseconds(),
	)

	if e.cache != nil {
		e.cache.Set(ctx, q.Terms, results)
	}
	return results
}

func (e *Executor) observe(algo, resultType string, n int, elapsed time.Duration, cached bool) {
	if e.metrics == nil {
		return
	}
	e.metrics.QueriesTotal.WithLabelValues(algo, resultType).Inc()
	e.metrics.ResultsCount.Observe(float64(n))
	if cached {
		e.metrics.CacheHitsTotal.Inc()
		return
	}
	e.metrics.QueryLatency.WithLabelValues(algo).Observe(elapsed.Seconds())
}

func (e *Executor) write(out *bufio.Writer, qid string, results []topk.Entry) error {
	for rank, r := range results {
		fmt.Fprintf(out, "%s\t%s\t%s\t%d\t%s\t%s\n",
			qid, e.iteration, e.docs.Name(r.DocID), rank, FormatScore(r.Score), e.runID)
	}
	if err := out.Flush(); err != nil {
		return fmt.Errorf("writing results of query %s: %w", qid, err)
	}
	return nil
}

// FormatScore prints a score with the shortest representation of its
// float32 value.
func FormatScore(score float64) string {
	return strconv.FormatFloat(float64(float32(score)), 'g', -1, 32)
}
