package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/docmap"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/index"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/index/segment"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/searcher/algorithm"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/searcher/termproc"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/wand"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/query-evaluator/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/query-evaluator/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/pkg/textio"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/pkg/tracing"
)

// connectRetry bounds how long setup waits for an optional collaborator.
var connectRetry = resilience.RetryConfig{MaxAttempts: 3, InitialDelay: 250 * time.Millisecond}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type flagValues struct {
	config, typ, algorithm, index, wand, queries, thresholds string
	stopwords, terms, stemmer, documents                   string
	compressed                                             bool
	k                                                      int
}

func parseFlags(args []string, stderr io.Writer) (*flagValues, map[string]bool, error) {
	fs := flag.NewFlagSet("queries", flag.ContinueOnError)
	fs.SetOutput(stderr)
	v := &flagValues{}
	fs.StringVar(&v.config, "config", "", "path to YAML config file")
	for _, name := range []string{"t", "type"} {
		fs.StringVar(&v.typ, name, "", "index type (raw, block)")
	}
	for _, name := range []string{"a", "algorithm"} {
		fs.StringVar(&v.algorithm, name, "", "query algorithm")
	}
	for _, name := range []string{"i", "index"} {
		fs.StringVar(&v.index, name, "", "index file")
	}
	for _, name := range []string{"w", "wand"} {
		fs.StringVar(&v.wand, name, "", "score-bound data file")
	}
	for _, name := range []string{"q", "query"} {
		fs.StringVar(&v.queries, name, "", "queries file (default stdin)")
	}
	fs.BoolVar(&v.compressed, "compressed-wand", false, "score-bound data is quantized")
	fs.StringVar(&v.thresholds, "thresholds", "", "per-query thresholds file (ignored)")
	fs.StringVar(&v.stopwords, "stopwords", "", "file with stopwords to ignore")
	fs.StringVar(&v.terms, "terms", "", "lexicon, one term per line")
	fs.StringVar(&v.stemmer, "stemmer", "", "stemmer applied before lexicon lookup (porter2)")
	fs.StringVar(&v.documents, "documents", "", "document names, one per line")
	fs.IntVar(&v.k, "k", 0, "number of results per query")
	if err := fs.Parse(args); err != nil {
		return nil, nil, apperrors.Config(apperrors.ErrInvalidConfig, "%v", err)
	}
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return v, set, nil
}

// applyFlags lets explicitly set flags win over the file and the
// environment.
func applyFlags(cfg *config.Config, v *flagValues, set map[string]bool) {
	e := &cfg.Evaluation
	if set["t"] || set["type"] {
		e.IndexType = v.typ
	}
	if set["a"] || set["algorithm"] {
		e.Algorithm = v.algorithm
	}
	if set["i"] || set["index"] {
		e.Index = v.index
	}
	if set["w"] || set["wand"] {
		e.Wand = v.wand
	}
	if set["q"] || set["query"] {
		e.Queries = v.queries
	}
	if set["compressed-wand"] {
		e.CompressedWand = v.compressed
	}
	if set["thresholds"] {
		e.Thresholds = v.thresholds
	}
	if set["stopwords"] {
		e.Stopwords = v.stopwords
	}
	if set["terms"] {
		e.Terms = v.terms
	}
	if set["stemmer"] {
		e.Stemmer = v.stemmer
	}
	if set["documents"] {
		e.Documents = v.documents
		e.DocumentsSource = config.DocumentsFromFile
	}
	if set["k"] {
		e.K = v.k
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	v, set, err := parseFlags(args, stderr)
	if err != nil {
		return apperrors.ExitCode(err)
	}
	cfg, err := config.Load(v.config)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load config: %v\n", err)
		return apperrors.ExitConfig
	}
	applyFlags(cfg, v, set)
	logger.SetupWriter(stderr, cfg.Logging.Level, cfg.Logging.Format)

	if err := evaluate(ctx, cfg, stdin, stdout); err != nil {
		slog.Error("query evaluation failed", "error", err)
		return apperrors.ExitCode(err)
	}
	return apperrors.ExitOK
}

// resources are the read-only inputs opened during setup.
type resources struct {
	idx   *segment.Reader
	data  *wand.Table
	docs  *docmap.Map
	proc  *termproc.Processor
	stops termproc.Stopwords
}

func (r *resources) Close() {
	if r.idx != nil {
		r.idx.Close()
	}
	if r.data != nil {
		r.data.Close()
	}
}

func evaluate(ctx context.Context, cfg *config.Config, stdin io.Reader, stdout io.Writer) error {
	e := cfg.Evaluation
	if err := cfg.Validate(); err != nil {
		return err
	}
	typ, err := index.ParseType(e.IndexType)
	if err != nil {
		return err
	}
	kind, err := algorithm.ParseKind(e.Algorithm)
	if err != nil {
		return err
	}
	if kind.NeedsScoreBounds() && e.Wand == "" {
		return apperrors.Config(apperrors.ErrMissingScoreBounds, "algorithm %s needs -wand", kind)
	}
	if e.Thresholds != "" {
		slog.Warn("thresholds file is accepted but not used", "path", e.Thresholds)
	}

	res, err := setup(ctx, cfg, typ)
	if res != nil {
		defer res.Close()
	}
	if err != nil {
		return err
	}

	var data wand.Data
	if res.data != nil {
		data = res.data
	}
	bm25 := ranker.NewBM25(cfg.Scorer.K1, cfg.Scorer.B)
	runner, err := algorithm.New(kind, e.K, res.idx, data, bm25, algorithm.Options{LazyBlockSize: e.LazyBlockSize})
	if err != nil {
		return err
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled || cfg.Metrics.Textfile != "" {
		m = metrics.New()
		m.IndexDocuments.Set(float64(res.idx.NumDocs()))
		m.IndexTerms.Set(float64(res.idx.NumTerms()))
	}
	if cfg.Metrics.Enabled {
		shutdown, err := metrics.StartServer(cfg.Metrics.Port, m)
		if err != nil {
			return fmt.Errorf("starting metrics server: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			shutdown(shutdownCtx)
		}()
	}

	var queryCache *cache.QueryCache
	if cfg.Redis.Enabled {
		var redisClient *pkgredis.Client
		err := resilience.Retry(ctx, "redis connect", connectRetry, func(context.Context) error {
			var err error
			redisClient, err = pkgredis.NewClient(cfg.Redis)
			return err
		})
		if err != nil {
			slog.Warn("redis unavailable, result caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			namespace := cache.Namespace(e.Index, e.IndexType, kind.String(), fmt.Sprint(e.K),
				fmt.Sprint(cfg.Scorer.K1), fmt.Sprint(cfg.Scorer.B), e.Terms, e.Stemmer, e.Stopwords)
			breaker := resilience.NewBreaker("result-cache", resilience.BreakerConfig{})
			queryCache = cache.New(cache.Guard(redisClient, breaker), cfg.Redis.CacheTTL, namespace)
			slog.Info("result cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
		}
	}

	exec, err := executor.New(runner, res.docs, res.proc, executor.Options{
		Iteration: e.Iteration,
		RunID:     e.RunID,
		Stopwords: res.stops,
		Cache:     queryCache,
		Metrics:   m,
	})
	if err != nil {
		return err
	}

	in := stdin
	if e.Queries != "" {
		rc, err := textio.Open(e.Queries)
		if err != nil {
			return fmt.Errorf("opening queries: %w", err)
		}
		defer rc.Close()
		in = rc
	}

	slog.Info("evaluating queries",
		"algorithm", kind.String(),
		"index_type", typ.String(),
		"k", e.K,
		"documents", res.idx.NumDocs(),
	)
	summary, err := exec.Run(ctx, in, stdout)
	if err != nil {
		return err
	}
	slog.Info("evaluation complete",
		"queries", summary.Queries,
		"results", summary.Results,
		"elapsed", summary.Elapsed,
	)
	if queryCache != nil {
		hits, misses := queryCache.Stats()
		slog.Info("result cache", "hits", hits, "misses", misses)
	}
	if m != nil && cfg.Metrics.Textfile != "" {
		if err := m.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			slog.Warn("writing metrics textfile failed", "path", cfg.Metrics.Textfile, "error", err)
		}
	}
	return nil
}

// setup opens the index, the score-bound data, the document map and the
// lexicon concurrently. The returned resources must be closed even when an
// error is returned.
func setup(ctx context.Context, cfg *config.Config, typ index.Type) (*resources, error) {
	e := cfg.Evaluation
	ctx, span := tracing.StartSpan(ctx, "setup", e.RunID)
	defer func() {
		span.End()
		span.Log(logger.WithComponent("setup"))
	}()

	res := &resources{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, s := tracing.StartChildSpan(gctx, "open-index")
		idx, err := segment.Open(typ, e.Index)
		if err != nil {
			return s.EndErr(err)
		}
		res.idx = idx
		s.SetAttr("documents", idx.NumDocs())
		s.SetAttr("terms", idx.NumTerms())
		s.End()
		return nil
	})
	if e.Wand != "" {
		g.Go(func() error {
			_, s := tracing.StartChildSpan(gctx, "open-score-bounds")
			data, err := wand.Open(e.Wand, e.CompressedWand)
			if err != nil {
				return s.EndErr(err)
			}
			res.data = data
			s.SetAttr("compressed", data.Compressed())
			s.SetAttr("block_size", data.BlockSize())
			s.End()
			return nil
		})
	}
	g.Go(func() error {
		sctx, s := tracing.StartChildSpan(gctx, "load-document-map")
		docs, err := loadDocuments(sctx, cfg)
		if err != nil {
			return s.EndErr(err)
		}
		res.docs = docs
		s.SetAttr("source", e.DocumentsSource)
		s.SetAttr("names", docs.Len())
		s.End()
		return nil
	})
	g.Go(func() error {
		_, s := tracing.StartChildSpan(gctx, "load-terms")
		proc, err := termproc.New(e.Terms, e.Stemmer)
		if err != nil {
			return s.EndErr(err)
		}
		stops, err := proc.LoadStopwords(e.Stopwords)
		if err != nil {
			return s.EndErr(err)
		}
		res.proc, res.stops = proc, stops
		s.SetAttr("stopwords", len(stops))
		s.End()
		return nil
	})
	return res, g.Wait()
}

func loadDocuments(ctx context.Context, cfg *config.Config) (*docmap.Map, error) {
	if cfg.Evaluation.DocumentsSource != config.DocumentsFromPostgres {
		return docmap.Load(cfg.Evaluation.Documents)
	}
	var client *postgres.Client
	err := resilience.Retry(ctx, "postgres connect", connectRetry, func(ctx context.Context) error {
		var err error
		client, err = postgres.New(ctx, cfg.Postgres)
		return err
	})
	if err != nil {
		return nil, err
	}
	defer client.Close()
	return docmap.LoadPostgres(ctx, client.DB, client.Table())
}
