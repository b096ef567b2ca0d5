// Package cache keeps evaluated result lists in Redis so that repeated
// queries against the same index, algorithm and k are answered without
// touching the posting lists.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/index"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/internal/searcher/topk"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/pkg/logger"
	pkgredis "github.com/Adithya-Monish-Kumar-K/query-evaluator/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/query-evaluator/pkg/resilience"
)

const keyPrefix = "results:"

// Store is the subset of the Redis client the cache uses.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// Guard routes store calls through breaker. Misses do not count as
// failures; while the breaker is open every call fails fast with
// resilience.ErrOpen, which QueryCache treats as a silent miss.
func Guard(store Store, breaker *resilience.Breaker) Store {
	return &guardedStore{store: store, breaker: breaker}
}

type guardedStore struct {
	store   Store
	breaker *resilience.Breaker
}

func (g *guardedStore) Get(ctx context.Context, key string) (string, error) {
	var (
		value string
		miss  bool
	)
	err := g.breaker.Execute(func() error {
		var err error
		value, err = g.store.Get(ctx, key)
		if pkgredis.IsNilError(err) {
			miss = true
			return nil
		}
		return err
	})
	if err == nil && miss {
		return "", pkgredis.Nil
	}
	return value, err
}

func (g *guardedStore) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return g.breaker.Execute(func() error {
		return g.store.Set(ctx, key, value, ttl)
	})
}

type QueryCache struct {
	store     Store
	ttl       time.Duration
	namespace string
	logger    *slog.Logger
	hits      atomic.Int64
	misses    atomic.Int64
}

// New returns a cache whose keys are scoped by namespace. Callers derive
// the namespace from everything that changes a result list besides the
// query itself; see Namespace.
func New(store Store, ttl time.Duration, namespace string) *QueryCache {
	return &QueryCache{
		store:     store,
		ttl:       ttl,
		namespace: namespace,
		logger:    logger.WithComponent("result-cache"),
	}
}

// Namespace joins the run parameters that determine result lists.
func Namespace(parts ...string) string {
	return strings.Join(parts, "|")
}

func (c *QueryCache) Get(ctx context.Context, terms []index.TermID) ([]topk.Entry, bool) {
	key := c.buildKey(terms)
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) && !errors.Is(err, resilience.ErrOpen) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.misses.Add(1)
		return nil, false
	}
	var entries []topk.Entry
	if err := json.Unmarshal([]byte(data), &entries); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	logger.FromContext(ctx).Debug("cache hit", "key", key)
	return entries, true
}

func (c *QueryCache) Set(ctx context.Context, terms []index.TermID, entries []topk.Entry) {
	key := c.buildKey(terms)
	data, err := json.Marshal(entries)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.store.Set(ctx, key, data, c.ttl); err != nil && !errors.Is(err, resilience.ErrOpen) {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// buildKey keeps term order, which fixes the order scores are summed in.
func (c *QueryCache) buildKey(terms []index.TermID) string {
	var b strings.Builder
	b.WriteString(c.namespace)
	b.WriteString("|terms=")
	for i, t := range terms {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatUint(uint64(t), 10))
	}
	hash := sha256.Sum256([]byte(b.String()))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}
