package mapper

import (
	"sort"

	"ai-notecopilot/internal/model"
	"ai-notecopilot/pkg/store"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type DocumentRecordMapper struct{}

func NewDocumentRecordMapper() *DocumentRecordMapper {
	return &DocumentRecordMapper{}
}

func (m *DocumentRecordMapper) ToDomain(r *model.DocumentRecord) store.DocumentRecord {
	passages := make([]store.Passage, len(r.Passages))
	for i, p := range r.Passages {
		passages[i] = store.Passage{
			Index:  p.PassageIndex,
			Text:   p.Document,
			Vector: p.EmbeddingValue.Slice(),
		}
	}
	sort.Slice(passages, func(i, j int) bool { return passages[i].Index < passages[j].Index })

	return store.DocumentRecord{
		ContentHash:     r.ContentHash,
		SourceName:      r.SourceName,
		EmbeddingVector: r.EmbeddingVector.Slice(),
		Passages:        passages,
		InsertedAt:      r.InsertedAt,
	}
}

func (m *DocumentRecordMapper) ToModel(r store.DocumentRecord) *model.DocumentRecord {
	passages := make([]model.DocumentPassage, len(r.Passages))
	chars := 0
	for i, p := range r.Passages {
		passages[i] = model.DocumentPassage{
			Id:             uuid.New(),
			ContentHash:    r.ContentHash,
			PassageIndex:   p.Index,
			Document:       p.Text,
			EmbeddingValue: pgvector.NewVector(p.Vector),
		}
		chars += len([]rune(p.Text))
	}

	return &model.DocumentRecord{
		ContentHash:     r.ContentHash,
		SourceName:      r.SourceName,
		EmbeddingVector: pgvector.NewVector(r.EmbeddingVector),
		Metadata: datatypes.JSONMap{
			"passage_count": len(r.Passages),
			"dimensions":    len(r.EmbeddingVector),
			"passage_chars": chars,
		},
		Passages:   passages,
		InsertedAt: r.InsertedAt,
	}
}
