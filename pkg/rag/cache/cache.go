// Package cache is the process-wide, content-addressed store of embedded
// documents used for grounding. Records are keyed by the hash of their
// normalized text, created at most once per hash and never mutated.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ai-notecopilot/internal/pkg/logger"
	"ai-notecopilot/pkg/embedding"
	"ai-notecopilot/pkg/errs"
	"ai-notecopilot/pkg/store"
	"ai-notecopilot/pkg/utils"

	"go.uber.org/multierr"
	"golang.org/x/sync/singleflight"
)

const module = "DocumentCache"

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 100
)

type Cache struct {
	// mu serializes mutations; reads share it
	mu       sync.RWMutex
	records  store.RecordStore
	embedder embedding.EmbeddingProvider
	logger   logger.ILogger
	group    singleflight.Group
	now      func() time.Time

	chunkSize    int
	chunkOverlap int
}

type Option func(*Cache)

func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

func WithChunking(size, overlap int) Option {
	return func(c *Cache) {
		if size > 0 {
			c.chunkSize = size
		}
		if overlap >= 0 && overlap < c.chunkSize {
			c.chunkOverlap = overlap
		}
	}
}

func New(records store.RecordStore, embedder embedding.EmbeddingProvider, log logger.ILogger, opts ...Option) *Cache {
	c := &Cache{
		records:      records,
		embedder:     embedder,
		logger:       log,
		now:          time.Now,
		chunkSize:    DefaultChunkSize,
		chunkOverlap: DefaultChunkOverlap,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrCreate returns the record for content, embedding it only when no record
// with the same normalized hash exists. Concurrent first calls for one hash
// share a single embedding pass. A failed embedding or write commits nothing.
func (c *Cache) GetOrCreate(ctx context.Context, sourceName, content string) (store.DocumentRecord, error) {
	normalized := Normalize(content)
	if normalized == "" {
		return store.DocumentRecord{}, errs.Input("GetOrCreate", "document %q has no text", sourceName)
	}
	hash := Hash(normalized)

	// The shared work must outlive any one waiter's cancellation
	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(hash, func() (interface{}, error) {
		return c.getOrCreate(shared, hash, sourceName, normalized)
	})

	select {
	case <-ctx.Done():
		return store.DocumentRecord{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return store.DocumentRecord{}, res.Err
		}
		return res.Val.(store.DocumentRecord), nil
	}
}

func (c *Cache) getOrCreate(ctx context.Context, hash, sourceName, normalized string) (store.DocumentRecord, error) {
	if rec, found, err := c.Lookup(ctx, hash); err != nil || found {
		return rec, err
	}

	passages, vectors, err := c.embed(ctx, normalized)
	if err != nil {
		c.logger.Error(module, "Embedding failed, no record stored", map[string]interface{}{
			"hash":   hash,
			"source": sourceName,
			"error":  err,
		})
		return store.DocumentRecord{}, errs.Store("GetOrCreate", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// A clear or another process may have raced us between lookup and now
	existing, err := c.records.Get(ctx, hash)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return store.DocumentRecord{}, errs.Store("GetOrCreate", err)
	}

	record := store.DocumentRecord{
		ContentHash:     hash,
		SourceName:      sourceName,
		EmbeddingVector: embedding.MeanVector(vectors),
		Passages:        passages,
		InsertedAt:      c.insertionTime(),
	}
	if err := c.records.Put(ctx, record); err != nil {
		return store.DocumentRecord{}, errs.Store("GetOrCreate", err)
	}

	c.logger.Info(module, "Document embedded", map[string]interface{}{
		"hash":     hash,
		"source":   sourceName,
		"passages": len(passages),
	})
	return record, nil
}

func (c *Cache) embed(ctx context.Context, normalized string) ([]store.Passage, [][]float32, error) {
	chunks := utils.SplitText(normalized, c.chunkSize, c.chunkOverlap)

	passages := make([]store.Passage, 0, len(chunks))
	vectors := make([][]float32, 0, len(chunks))
	for i, text := range chunks {
		resp, err := c.embedder.Generate(ctx, text, embedding.TaskRetrievalDocument)
		if err != nil {
			return nil, nil, fmt.Errorf("embed passage %d: %w", i, err)
		}
		if resp == nil || len(resp.Embedding.Values) == 0 {
			return nil, nil, fmt.Errorf("embed passage %d: empty vector", i)
		}
		passages = append(passages, store.Passage{Index: i, Text: text, Vector: resp.Embedding.Values})
		vectors = append(vectors, resp.Embedding.Values)
	}
	return passages, vectors, nil
}

// Lookup reports whether a record exists for hash.
func (c *Cache) Lookup(ctx context.Context, hash string) (store.DocumentRecord, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rec, err := c.records.Get(ctx, hash)
	if errors.Is(err, store.ErrNotFound) {
		return store.DocumentRecord{}, false, nil
	}
	if err != nil {
		return store.DocumentRecord{}, false, errs.Store("Lookup", err)
	}
	return rec, true, nil
}

// Records loads every hash, failing with CacheMiss on the first absent one.
func (c *Cache) Records(ctx context.Context, hashes ...string) ([]store.DocumentRecord, error) {
	out := make([]store.DocumentRecord, 0, len(hashes))
	for _, h := range hashes {
		rec, found, err := c.Lookup(ctx, h)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, errs.CacheMiss("Records", h)
		}
		out = append(out, rec)
	}
	return out, nil
}

// MaxAge converts a retention in days into a sweep age. Zero keeps nothing
// inserted before the sweep; a negative count turns sweeping off.
func MaxAge(days int) (time.Duration, bool) {
	if days < 0 {
		return 0, false
	}
	return time.Duration(days) * 24 * time.Hour, true
}

// insertionTime is truncated to what every store can hold (Postgres keeps
// microseconds), so a record reads back with the time it was returned with.
func (c *Cache) insertionTime() time.Time {
	return c.now().UTC().Truncate(time.Microsecond)
}

// EvictOlderThan removes every record whose age is strictly greater than maxAge.
// Failed deletes are reported together; the rest of the sweep still runs.
func (c *Cache) EvictOlderThan(ctx context.Context, maxAge time.Duration) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ages, err := c.records.ScanAll(ctx)
	if err != nil {
		return 0, errs.Store("EvictOlderThan", err)
	}

	now := c.now()
	removed := 0
	var sweepErr error
	for _, a := range ages {
		if now.Sub(a.InsertedAt) <= maxAge {
			continue
		}
		if err := c.records.Delete(ctx, a.ContentHash); err != nil {
			sweepErr = multierr.Append(sweepErr, fmt.Errorf("delete %s: %w", a.ContentHash, err))
			continue
		}
		removed++
	}

	c.logger.Info(module, "TTL sweep finished", map[string]interface{}{
		"scanned": len(ages),
		"removed": removed,
		"max_age": maxAge.String(),
	})

	if sweepErr != nil {
		return removed, errs.Store("EvictOlderThan", sweepErr)
	}
	return removed, nil
}

// ClearAll drops every record; later GetOrCreate calls embed from scratch.
func (c *Cache) ClearAll(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.records.DestroyAll(ctx); err != nil {
		return errs.Store("ClearAll", err)
	}
	c.logger.Warn(module, "Document store cleared", nil)
	return nil
}
