package store

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("record not found")

// Passage is one embedded chunk of a record's normalized content.
type Passage struct {
	Index  int       `json:"index"`
	Text   string    `json:"text"`
	Vector []float32 `json:"vector"`
}

// DocumentRecord is keyed by ContentHash and never mutated after creation.
type DocumentRecord struct {
	ContentHash     string    `json:"content_hash"`
	SourceName      string    `json:"source_name"`
	EmbeddingVector []float32 `json:"embedding_vector"`
	Passages        []Passage `json:"passages"`
	InsertedAt      time.Time `json:"inserted_at"`
}

// RecordAge is what ScanAll yields: enough to decide eviction without loading vectors.
type RecordAge struct {
	ContentHash string
	InsertedAt  time.Time
}

// RecordStore is the durable key-value backing for the document cache.
type RecordStore interface {
	Put(ctx context.Context, record DocumentRecord) error
	// Get returns ErrNotFound when no record has the hash.
	Get(ctx context.Context, hash string) (DocumentRecord, error)
	ScanAll(ctx context.Context) ([]RecordAge, error)
	Delete(ctx context.Context, hash string) error
	DestroyAll(ctx context.Context) error
}
