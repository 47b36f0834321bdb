// Package retrieval ranks passages of the grounded documents against a query
// vector. An Index is a throwaway view built per request over cached records.
package retrieval

import (
	"fmt"
	"sort"
	"strings"

	"ai-notecopilot/pkg/store"
)

type ScoredPassage struct {
	ContentHash string
	SourceName  string
	Passage     store.Passage
	Score       float64

	order int
}

type ScoredRecord struct {
	Record store.DocumentRecord
	Score  float64
}

type Index struct {
	records    []store.DocumentRecord
	similarity Similarity
}

type Option func(*Index)

func WithSimilarity(fn Similarity) Option {
	return func(ix *Index) { ix.similarity = fn }
}

// New keeps records sorted by insertion time, earliest first, so ties resolve
// in insertion order.
func New(records []store.DocumentRecord, opts ...Option) *Index {
	sorted := make([]store.DocumentRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].InsertedAt.Before(sorted[j].InsertedAt)
	})

	ix := &Index{records: sorted, similarity: Cosine}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Rank scores every passage of every record, best first.
func (ix *Index) Rank(query []float32) []ScoredPassage {
	var out []ScoredPassage
	for _, rec := range ix.records {
		for _, p := range rec.Passages {
			out = append(out, ScoredPassage{
				ContentHash: rec.ContentHash,
				SourceName:  rec.SourceName,
				Passage:     p,
				Score:       ix.similarity(query, p.Vector),
				order:       len(out),
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].order < out[j].order
	})
	return out
}

// Top returns at most k passages; k <= 0 means all.
func (ix *Index) Top(query []float32, k int) []ScoredPassage {
	ranked := ix.Rank(query)
	if k > 0 && len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}

// RankRecords orders whole documents by their pooled embedding.
func (ix *Index) RankRecords(query []float32) []ScoredRecord {
	out := make([]ScoredRecord, len(ix.records))
	for i, rec := range ix.records {
		out[i] = ScoredRecord{Record: rec, Score: ix.similarity(query, rec.EmbeddingVector)}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// Format renders passages as the grounding block spliced into the prompt.
// Passages of one source keep their document order.
func Format(passages []ScoredPassage) string {
	if len(passages) == 0 {
		return ""
	}

	group := make(map[string]int)
	for _, p := range passages {
		if _, ok := group[p.ContentHash]; !ok {
			group[p.ContentHash] = len(group)
		}
	}

	ordered := make([]ScoredPassage, len(passages))
	copy(ordered, passages)
	sort.SliceStable(ordered, func(i, j int) bool {
		gi, gj := group[ordered[i].ContentHash], group[ordered[j].ContentHash]
		if gi != gj {
			return gi < gj
		}
		return ordered[i].Passage.Index < ordered[j].Passage.Index
	})

	var sb strings.Builder
	sb.WriteString("<reference_material>\n")
	for _, p := range ordered {
		sb.WriteString(fmt.Sprintf("[%s]\n", p.SourceName))
		sb.WriteString(p.Passage.Text)
		sb.WriteString("\n\n")
	}
	sb.WriteString("</reference_material>")
	return sb.String()
}
