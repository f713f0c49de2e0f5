package llm

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/ristretto"

	"github.com/nihalnihalani/SelfCoding/pkg/logging"
)

// CachedClient wraps a CapabilityClient with a ristretto response cache for
// the deterministic-enough calls (Propose and Evaluate). Reflect, Improve and
// Analyze always go through: their value is in being recomputed against
// current state.
type CachedClient struct {
	inner CapabilityClient
	cache *ristretto.Cache
}

var _ CapabilityClient = (*CachedClient)(nil)

// NewCachedClient creates a caching wrapper around an existing client.
// maxCostBytes bounds the total cached payload size.
func NewCachedClient(inner CapabilityClient, maxCostBytes int64) (*CachedClient, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e5,
		MaxCost:     maxCostBytes,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &CachedClient{inner: inner, cache: cache}, nil
}

// cacheKey builds a deterministic key from the call kind and its inputs.
func cacheKey(kind string, parts ...interface{}) string {
	h := sha256.New()
	h.Write([]byte(kind))
	for _, part := range parts {
		data, err := json.Marshal(part)
		if err != nil {
			data = []byte(fmt.Sprintf("%v", part))
		}
		h.Write(data)
	}
	return kind + "_" + hex.EncodeToString(h.Sum(nil))[:16]
}

func (c *CachedClient) Propose(ctx context.Context, task string, taskContext map[string]interface{}, memories []MemoryExcerpt) (*Solution, error) {
	key := cacheKey("propose", task, taskContext, memories)
	if cached, ok := c.cache.Get(key); ok {
		if solution, ok := cached.(*Solution); ok {
			logging.GetLogger().Debug(ctx, "propose cache hit")
			return solution, nil
		}
	}

	solution, err := c.inner.Propose(ctx, task, taskContext, memories)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, solution, costOf(solution))
	return solution, nil
}

func (c *CachedClient) Evaluate(ctx context.Context, task string, solution *Solution) (*Evaluation, error) {
	key := cacheKey("evaluate", task, solution)
	if cached, ok := c.cache.Get(key); ok {
		if evaluation, ok := cached.(*Evaluation); ok {
			logging.GetLogger().Debug(ctx, "evaluate cache hit")
			return evaluation, nil
		}
	}

	evaluation, err := c.inner.Evaluate(ctx, task, solution)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, evaluation, costOf(evaluation))
	return evaluation, nil
}

func (c *CachedClient) Reflect(ctx context.Context, task string, solution *Solution, evaluation *Evaluation) (*Reflection, error) {
	return c.inner.Reflect(ctx, task, solution, evaluation)
}

func (c *CachedClient) Improve(ctx context.Context, task string, solution *Solution, evaluation *Evaluation, reflection *Reflection) (*Solution, error) {
	return c.inner.Improve(ctx, task, solution, evaluation, reflection)
}

func (c *CachedClient) Analyze(ctx context.Context, prompt string) (map[string]interface{}, error) {
	return c.inner.Analyze(ctx, prompt)
}

// Wait blocks until buffered writes are applied. Useful in tests.
func (c *CachedClient) Wait() {
	c.cache.Wait()
}

// Close releases the cache's internal goroutines.
func (c *CachedClient) Close() {
	c.cache.Close()
}

func costOf(v interface{}) int64 {
	data, err := json.Marshal(v)
	if err != nil {
		return 1
	}
	return int64(len(data))
}
