package cache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"ai-notecopilot/internal/pkg/logger"
	"ai-notecopilot/pkg/embedding"
	"ai-notecopilot/pkg/errs"
	"ai-notecopilot/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu         sync.Mutex
	records    map[string]store.DocumentRecord
	failPut    error
	failDelete map[string]error
	// precision mimics a database column that rounds stored timestamps
	precision time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: map[string]store.DocumentRecord{}, failDelete: map[string]error{}}
}

func (s *fakeStore) Put(_ context.Context, r store.DocumentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failPut != nil {
		return s.failPut
	}
	if _, ok := s.records[r.ContentHash]; ok {
		return errors.New("duplicate hash")
	}
	if s.precision > 0 {
		r.InsertedAt = r.InsertedAt.Round(s.precision)
	}
	s.records[r.ContentHash] = r
	return nil
}

func (s *fakeStore) Get(_ context.Context, hash string) (store.DocumentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[hash]
	if !ok {
		return store.DocumentRecord{}, store.ErrNotFound
	}
	return r, nil
}

func (s *fakeStore) ScanAll(context.Context) ([]store.RecordAge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.RecordAge, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, store.RecordAge{ContentHash: r.ContentHash, InsertedAt: r.InsertedAt})
	}
	return out, nil
}

func (s *fakeStore) Delete(_ context.Context, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failDelete[hash]; err != nil {
		return err
	}
	delete(s.records, hash)
	return nil
}

func (s *fakeStore) DestroyAll(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = map[string]store.DocumentRecord{}
	return nil
}

func (s *fakeStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

type countingEmbedder struct {
	calls atomic.Int32
	gate  chan struct{}
	err   error
}

func (e *countingEmbedder) Generate(_ context.Context, text string, _ string) (*embedding.EmbeddingResponse, error) {
	e.calls.Add(1)
	if e.gate != nil {
		<-e.gate
	}
	if e.err != nil {
		return nil, e.err
	}
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: []float32{float32(len(text)), 1}},
	}, nil
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestCache(s store.RecordStore, e embedding.EmbeddingProvider, clock *fakeClock) *Cache {
	return New(s, e, logger.NewNopLogger(), WithClock(clock.Now))
}

func TestGetOrCreateDedupesIdenticalContent(t *testing.T) {
	s := newFakeStore()
	e := &countingEmbedder{}
	c := newTestCache(s, e, &fakeClock{now: time.Unix(1700000000, 0)})
	ctx := context.Background()

	first, err := c.GetOrCreate(ctx, "france.md", "Paris is the capital of France.")
	require.NoError(t, err)
	second, err := c.GetOrCreate(ctx, "france.md", "Paris is the capital of France.")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), e.calls.Load())
	assert.Equal(t, 1, s.len())
}

func TestGetOrCreateStableAcrossMicrosecondStore(t *testing.T) {
	s := newFakeStore()
	s.precision = time.Microsecond
	e := &countingEmbedder{}
	clock := &fakeClock{now: time.Date(2026, 3, 14, 9, 26, 53, 589793238, time.UTC)}
	c := newTestCache(s, e, clock)
	ctx := context.Background()

	first, err := c.GetOrCreate(ctx, "pi.md", "Pi starts with 3.14159.")
	require.NoError(t, err)
	second, err := c.GetOrCreate(ctx, "pi.md", "Pi starts with 3.14159.")
	require.NoError(t, err)

	assert.True(t, first.InsertedAt.Equal(second.InsertedAt), "%s != %s", first.InsertedAt, second.InsertedAt)
	assert.Equal(t, first, second)
	assert.Equal(t, 0, first.InsertedAt.Nanosecond()%1000)

	clock.Advance(time.Nanosecond)
	removed, err := c.EvictOlderThan(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}

func TestGetOrCreateNormalizesWhitespace(t *testing.T) {
	s := newFakeStore()
	e := &countingEmbedder{}
	c := newTestCache(s, e, &fakeClock{now: time.Now()})
	ctx := context.Background()

	a, err := c.GetOrCreate(ctx, "a.md", "Paris is   the capital\nof France.")
	require.NoError(t, err)
	b, err := c.GetOrCreate(ctx, "b.md", "  Paris is the capital of France.  ")
	require.NoError(t, err)

	assert.Equal(t, a.ContentHash, b.ContentHash)
	assert.Equal(t, "a.md", b.SourceName)
	assert.Equal(t, int32(1), e.calls.Load())
}

func TestDistinctContentDistinctHashes(t *testing.T) {
	c := newTestCache(newFakeStore(), &countingEmbedder{}, &fakeClock{now: time.Now()})
	ctx := context.Background()

	a, err := c.GetOrCreate(ctx, "a.md", "Paris is the capital of France.")
	require.NoError(t, err)
	b, err := c.GetOrCreate(ctx, "b.md", "Rome is the capital of Italy.")
	require.NoError(t, err)

	assert.NotEqual(t, a.ContentHash, b.ContentHash)
}

func TestGetOrCreateRejectsEmptyContent(t *testing.T) {
	e := &countingEmbedder{}
	c := newTestCache(newFakeStore(), e, &fakeClock{now: time.Now()})

	_, err := c.GetOrCreate(context.Background(), "blank.md", " \n\t ")
	assert.ErrorIs(t, err, errs.ErrInput)
	assert.Equal(t, int32(0), e.calls.Load())
}

func TestLongDocumentEmbedsEveryPassage(t *testing.T) {
	e := &countingEmbedder{}
	c := New(newFakeStore(), e, logger.NewNopLogger(), WithChunking(50, 10))

	rec, err := c.GetOrCreate(context.Background(), "long.md", strings.Repeat("word ", 60))
	require.NoError(t, err)

	require.Greater(t, len(rec.Passages), 1)
	assert.Equal(t, int32(len(rec.Passages)), e.calls.Load())
	for i, p := range rec.Passages {
		assert.Equal(t, i, p.Index)
	}
	assert.Len(t, rec.EmbeddingVector, 2)
}

func TestConcurrentFirstAccessCreatesOneRecord(t *testing.T) {
	s := newFakeStore()
	e := &countingEmbedder{gate: make(chan struct{})}
	c := newTestCache(s, e, &fakeClock{now: time.Now()})

	const callers = 8
	var wg sync.WaitGroup
	results := make([]store.DocumentRecord, callers)
	errList := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errList[i] = c.GetOrCreate(context.Background(), "race.md", "shared content")
		}(i)
	}

	// Let the single embedding pass finish once every caller has had time to join it
	time.Sleep(20 * time.Millisecond)
	close(e.gate)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errList[i])
		assert.Equal(t, results[0], results[i])
	}
	assert.Equal(t, 1, s.len())
}

func TestEmbeddingFailureCommitsNothing(t *testing.T) {
	s := newFakeStore()
	e := &countingEmbedder{err: errors.New("quota exceeded")}
	c := newTestCache(s, e, &fakeClock{now: time.Now()})

	_, err := c.GetOrCreate(context.Background(), "doc.md", "Paris is the capital of France.")
	assert.ErrorIs(t, err, errs.ErrStore)
	assert.Equal(t, 0, s.len())

	e.err = nil
	rec, err := c.GetOrCreate(context.Background(), "doc.md", "Paris is the capital of France.")
	require.NoError(t, err)
	assert.NotEmpty(t, rec.EmbeddingVector)
}

func TestStoreFailureIsStoreError(t *testing.T) {
	s := newFakeStore()
	s.failPut = errors.New("connection reset")
	c := newTestCache(s, &countingEmbedder{}, &fakeClock{now: time.Now()})

	_, err := c.GetOrCreate(context.Background(), "doc.md", "text")
	assert.ErrorIs(t, err, errs.ErrStore)
}

func TestLookup(t *testing.T) {
	c := newTestCache(newFakeStore(), &countingEmbedder{}, &fakeClock{now: time.Now()})
	ctx := context.Background()

	_, found, err := c.Lookup(ctx, Hash("missing"))
	require.NoError(t, err)
	assert.False(t, found)

	rec, err := c.GetOrCreate(ctx, "doc.md", "present")
	require.NoError(t, err)
	got, found, err := c.Lookup(ctx, rec.ContentHash)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, rec, got)

	_, err = c.Records(ctx, rec.ContentHash, Hash("missing"))
	assert.ErrorIs(t, err, errs.ErrCacheMiss)
}

func TestEvictOlderThan(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	c := newTestCache(newFakeStore(), &countingEmbedder{}, clock)
	ctx := context.Background()

	old, err := c.GetOrCreate(ctx, "old.md", "old content")
	require.NoError(t, err)
	clock.Advance(10 * time.Minute)
	edge, err := c.GetOrCreate(ctx, "edge.md", "edge content")
	require.NoError(t, err)
	clock.Advance(5 * time.Minute)
	fresh, err := c.GetOrCreate(ctx, "fresh.md", "fresh content")
	require.NoError(t, err)

	removed, err := c.EvictOlderThan(ctx, 5*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, found, _ := c.Lookup(ctx, old.ContentHash)
	assert.False(t, found)
	_, found, _ = c.Lookup(ctx, edge.ContentHash)
	assert.True(t, found, "age equal to max age is kept")
	_, found, _ = c.Lookup(ctx, fresh.ContentHash)
	assert.True(t, found)
}

func TestEvictZeroTTLRemovesJustInserted(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	e := &countingEmbedder{}
	c := newTestCache(newFakeStore(), e, clock)
	ctx := context.Background()

	rec, err := c.GetOrCreate(ctx, "doc.md", "Paris is the capital of France.")
	require.NoError(t, err)
	clock.Advance(time.Nanosecond)

	removed, err := c.EvictOlderThan(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, found, _ := c.Lookup(ctx, rec.ContentHash)
	assert.False(t, found)

	_, err = c.GetOrCreate(ctx, "doc.md", "Paris is the capital of France.")
	require.NoError(t, err)
	assert.Equal(t, int32(2), e.calls.Load())
}

func TestMaxAge(t *testing.T) {
	cases := []struct {
		days    int
		want    time.Duration
		enabled bool
	}{
		{days: 30, want: 30 * 24 * time.Hour, enabled: true},
		{days: 1, want: 24 * time.Hour, enabled: true},
		{days: 0, want: 0, enabled: true},
		{days: -1, enabled: false},
	}
	for _, tc := range cases {
		got, ok := MaxAge(tc.days)
		assert.Equal(t, tc.enabled, ok, "days=%d", tc.days)
		assert.Equal(t, tc.want, got, "days=%d", tc.days)
	}
}

func TestEvictAggregatesDeleteFailures(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	s := newFakeStore()
	c := newTestCache(s, &countingEmbedder{}, clock)
	ctx := context.Background()

	a, _ := c.GetOrCreate(ctx, "a.md", "alpha")
	b, _ := c.GetOrCreate(ctx, "b.md", "beta")
	_, _ = c.GetOrCreate(ctx, "c.md", "gamma")
	s.failDelete[a.ContentHash] = errors.New("locked")
	s.failDelete[b.ContentHash] = errors.New("locked")
	clock.Advance(time.Hour)

	removed, err := c.EvictOlderThan(ctx, time.Minute)
	assert.Equal(t, 1, removed)
	assert.ErrorIs(t, err, errs.ErrStore)
	assert.Contains(t, err.Error(), a.ContentHash)
	assert.Contains(t, err.Error(), b.ContentHash)
}

func TestClearAllForcesReembedding(t *testing.T) {
	s := newFakeStore()
	e := &countingEmbedder{}
	c := newTestCache(s, e, &fakeClock{now: time.Now()})
	ctx := context.Background()

	_, err := c.GetOrCreate(ctx, "doc.md", "content")
	require.NoError(t, err)
	require.NoError(t, c.ClearAll(ctx))
	assert.Equal(t, 0, s.len())

	_, err = c.GetOrCreate(ctx, "doc.md", "content")
	require.NoError(t, err)
	assert.Equal(t, int32(2), e.calls.Load())
}

func TestNormalizeAndHash(t *testing.T) {
	assert.Equal(t, "a b c", Normalize("  a\tb\n\n c "))
	assert.Equal(t, "", Normalize(" \n "))
	assert.Len(t, Hash("x"), 64)
	assert.Equal(t, Hash("a b"), Hash(Normalize("a   b")))
}
