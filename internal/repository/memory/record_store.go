package memory

import (
	"context"
	"sync"

	"ai-notecopilot/pkg/store"
)

// RecordStore keeps document records in process memory. It is the default
// backing when no database is configured and is lost on restart.
type RecordStore struct {
	mu      sync.RWMutex
	records map[string]store.DocumentRecord
}

func NewRecordStore() *RecordStore {
	return &RecordStore{records: make(map[string]store.DocumentRecord)}
}

func (s *RecordStore) Put(ctx context.Context, record store.DocumentRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.ContentHash] = clone(record)
	return nil
}

func (s *RecordStore) Get(ctx context.Context, hash string) (store.DocumentRecord, error) {
	if err := ctx.Err(); err != nil {
		return store.DocumentRecord{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[hash]
	if !ok {
		return store.DocumentRecord{}, store.ErrNotFound
	}
	return clone(rec), nil
}

func (s *RecordStore) ScanAll(ctx context.Context) ([]store.RecordAge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.RecordAge, 0, len(s.records))
	for hash, rec := range s.records {
		out = append(out, store.RecordAge{ContentHash: hash, InsertedAt: rec.InsertedAt})
	}
	return out, nil
}

func (s *RecordStore) Delete(ctx context.Context, hash string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, hash)
	return nil
}

func (s *RecordStore) DestroyAll(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]store.DocumentRecord)
	return nil
}

// clone keeps callers from mutating stored vectors through shared slices.
func clone(rec store.DocumentRecord) store.DocumentRecord {
	out := rec
	out.EmbeddingVector = append([]float32(nil), rec.EmbeddingVector...)
	out.Passages = make([]store.Passage, len(rec.Passages))
	for i, p := range rec.Passages {
		p.Vector = append([]float32(nil), p.Vector...)
		out.Passages[i] = p
	}
	return out
}
