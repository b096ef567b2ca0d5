// Command create-wand-data precomputes the per-term and per-block BM25 score
// bounds the pruning query algorithms need, and writes them next to an index.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/index"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/index/segment"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/wand"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/query-evaluator/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/pkg/logger"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, stderr io.Writer) int {
	fs := flag.NewFlagSet("create-wand-data", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to YAML config file")
	typ := fs.String("type", "", "index type (raw, block)")
	indexPath := fs.String("index", "", "index file")
	output := fs.String("output", "", "score-bound data file to write")
	blockSize := fs.Int("block-size", wand.DefaultBlockSize, "postings per score block")
	compress := fs.Bool("compress", false, "quantize block scores to one byte")
	k1 := fs.Float64("k1", 0, "BM25 k1 (default from config)")
	b := fs.Float64("b", 0, "BM25 b (default from config)")
	if err := fs.Parse(args); err != nil {
		return apperrors.ExitConfig
	}
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load config: %v\n", err)
		return apperrors.ExitConfig
	}
	logger.SetupWriter(stderr, cfg.Logging.Level, cfg.Logging.Format)
	if set["type"] {
		cfg.Evaluation.IndexType = *typ
	}
	if set["index"] {
		cfg.Evaluation.Index = *indexPath
	}
	if set["k1"] {
		cfg.Scorer.K1 = *k1
	}
	if set["b"] {
		cfg.Scorer.B = *b
	}

	err = create(cfg, *output, *blockSize, *compress)
	if err != nil {
		slog.Error("creating score-bound data failed", "error", err)
		return apperrors.ExitCode(err)
	}
	return apperrors.ExitOK
}

func create(cfg *config.Config, output string, blockSize int, compress bool) error {
	switch {
	case cfg.Evaluation.Index == "":
		return apperrors.Config(apperrors.ErrInvalidConfig, "index path is required")
	case output == "":
		return apperrors.Config(apperrors.ErrInvalidConfig, "output path is required")
	case blockSize <= 0:
		return apperrors.Config(apperrors.ErrInvalidConfig, "block size must be positive, got %d", blockSize)
	}
	typ, err := index.ParseType(cfg.Evaluation.IndexType)
	if err != nil {
		return err
	}
	idx, err := segment.Open(typ, cfg.Evaluation.Index)
	if err != nil {
		return err
	}
	defer idx.Close()

	start := time.Now()
	table := wand.Build(idx, ranker.NewBM25(cfg.Scorer.K1, cfg.Scorer.B), blockSize)
	if err := table.Write(output, compress); err != nil {
		return err
	}
	slog.Info("score-bound data written",
		"path", output,
		"terms", table.NumTerms(),
		"documents", table.NumDocs(),
		"block_size", blockSize,
		"compressed", compress,
		"k1", cfg.Scorer.K1,
		"b", cfg.Scorer.B,
		"duration", time.Since(start),
	)
	return nil
}
