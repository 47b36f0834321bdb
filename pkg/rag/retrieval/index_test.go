package retrieval

import (
	"strings"
	"testing"
	"time"

	"ai-notecopilot/pkg/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(hash, source string, at time.Time, vectors ...[]float32) store.DocumentRecord {
	rec := store.DocumentRecord{ContentHash: hash, SourceName: source, InsertedAt: at}
	for i, v := range vectors {
		rec.Passages = append(rec.Passages, store.Passage{Index: i, Text: source + "-" + string(rune('a'+i)), Vector: v})
	}
	if len(vectors) > 0 {
		rec.EmbeddingVector = vectors[0]
	}
	return rec
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float32{1, 2}, []float32{2, 4}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, Cosine([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Equal(t, 0.0, Cosine([]float32{1}, []float32{1, 2}))
	assert.Equal(t, 0.0, Cosine([]float32{0, 0}, []float32{1, 2}))
}

func TestRankOrdersByDescendingSimilarity(t *testing.T) {
	t0 := time.Unix(1700000000, 0)
	ix := New([]store.DocumentRecord{
		record("h1", "far", t0, []float32{0, 1}),
		record("h2", "near", t0.Add(time.Second), []float32{1, 0.1}),
	})

	ranked := ix.Rank([]float32{1, 0})
	require.Len(t, ranked, 2)
	assert.Equal(t, "near", ranked[0].SourceName)
	assert.Equal(t, "far", ranked[1].SourceName)
	assert.Greater(t, ranked[0].Score, ranked[1].Score)
}

func TestRankBreaksTiesByInsertionOrder(t *testing.T) {
	t0 := time.Unix(1700000000, 0)
	// Given out of insertion order on purpose
	ix := New([]store.DocumentRecord{
		record("late", "late", t0.Add(time.Hour), []float32{1, 0}),
		record("early", "early", t0, []float32{1, 0}, []float32{1, 0}),
	})

	ranked := ix.Rank([]float32{1, 0})
	require.Len(t, ranked, 3)
	assert.Equal(t, "early", ranked[0].ContentHash)
	assert.Equal(t, 0, ranked[0].Passage.Index)
	assert.Equal(t, "early", ranked[1].ContentHash)
	assert.Equal(t, 1, ranked[1].Passage.Index)
	assert.Equal(t, "late", ranked[2].ContentHash)

	records := ix.RankRecords([]float32{1, 0})
	assert.Equal(t, "early", records[0].Record.ContentHash)
}

func TestTop(t *testing.T) {
	t0 := time.Unix(1700000000, 0)
	ix := New([]store.DocumentRecord{
		record("h", "doc", t0, []float32{1, 0}, []float32{0, 1}, []float32{1, 1}),
	})

	assert.Len(t, ix.Top([]float32{1, 0}, 2), 2)
	assert.Len(t, ix.Top([]float32{1, 0}, 0), 3)
	assert.Len(t, ix.Top([]float32{1, 0}, 10), 3)
}

func TestCustomSimilarity(t *testing.T) {
	t0 := time.Unix(1700000000, 0)
	ix := New([]store.DocumentRecord{
		record("a", "a", t0, []float32{1}),
		record("b", "b", t0.Add(time.Second), []float32{5}),
	}, WithSimilarity(func(q, v []float32) float64 { return -float64(v[0]) }))

	ranked := ix.Rank([]float32{1})
	assert.Equal(t, "a", ranked[0].ContentHash)
}

func TestFormatWrapsReferenceMaterial(t *testing.T) {
	assert.Empty(t, Format(nil))

	passages := []ScoredPassage{
		{ContentHash: "h", SourceName: "france.md", Passage: store.Passage{Index: 1, Text: "second"}},
		{ContentHash: "g", SourceName: "italy.md", Passage: store.Passage{Index: 0, Text: "rome"}},
		{ContentHash: "h", SourceName: "france.md", Passage: store.Passage{Index: 0, Text: "first"}},
	}
	out := Format(passages)

	assert.True(t, strings.HasPrefix(out, "<reference_material>\n"))
	assert.True(t, strings.HasSuffix(out, "</reference_material>"))
	assert.Less(t, strings.Index(out, "first"), strings.Index(out, "second"))
	assert.Less(t, strings.Index(out, "second"), strings.Index(out, "rome"))
}
