// Package redis keeps document records in Redis so several copilot processes
// share one cache.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ai-notecopilot/pkg/store"

	goredis "github.com/redis/go-redis/v9"
)

const defaultPrefix = "copilot"

type RecordStore struct {
	client *goredis.Client
	prefix string
}

func NewRecordStore(client *goredis.Client, prefix string) *RecordStore {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &RecordStore{client: client, prefix: prefix}
}

// NewClient parses a redis:// URL the same way the websocket hub does.
func NewClient(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return goredis.NewClient(opts), nil
}

func (s *RecordStore) recordKey(hash string) string {
	return s.prefix + ":record:" + hash
}

// ages maps every hash to its insertion time
func (s *RecordStore) agesKey() string {
	return s.prefix + ":records"
}

func (s *RecordStore) Put(ctx context.Context, record store.DocumentRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, s.recordKey(record.ContentHash), data, 0)
		pipe.HSet(ctx, s.agesKey(), record.ContentHash, record.InsertedAt.UTC().Format(time.RFC3339Nano))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store record %s: %w", record.ContentHash, err)
	}
	return nil
}

func (s *RecordStore) Get(ctx context.Context, hash string) (store.DocumentRecord, error) {
	data, err := s.client.Get(ctx, s.recordKey(hash)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return store.DocumentRecord{}, store.ErrNotFound
		}
		return store.DocumentRecord{}, err
	}

	var rec store.DocumentRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return store.DocumentRecord{}, fmt.Errorf("failed to decode record %s: %w", hash, err)
	}
	return rec, nil
}

func (s *RecordStore) ScanAll(ctx context.Context) ([]store.RecordAge, error) {
	all, err := s.client.HGetAll(ctx, s.agesKey()).Result()
	if err != nil {
		return nil, err
	}

	out := make([]store.RecordAge, 0, len(all))
	for hash, raw := range all {
		at, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, fmt.Errorf("bad insertion time for %s: %w", hash, err)
		}
		out = append(out, store.RecordAge{ContentHash: hash, InsertedAt: at})
	}
	return out, nil
}

func (s *RecordStore) Delete(ctx context.Context, hash string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, s.recordKey(hash))
		pipe.HDel(ctx, s.agesKey(), hash)
		return nil
	})
	return err
}

func (s *RecordStore) DestroyAll(ctx context.Context) error {
	hashes, err := s.client.HKeys(ctx, s.agesKey()).Result()
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(hashes)+1)
	for _, h := range hashes {
		keys = append(keys, s.recordKey(h))
	}
	keys = append(keys, s.agesKey())
	return s.client.Del(ctx, keys...).Err()
}
