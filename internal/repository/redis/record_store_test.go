package redis

import (
	"context"
	"testing"
	"time"

	"ai-notecopilot/pkg/store"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeysArePrefixed(t *testing.T) {
	s := NewRecordStore(nil, "")
	assert.Equal(t, "copilot:record:abc", s.recordKey("abc"))
	assert.Equal(t, "copilot:records", s.agesKey())

	s = NewRecordStore(nil, "tenant1")
	assert.Equal(t, "tenant1:record:abc", s.recordKey("abc"))
}

func TestNewClientRejectsBadURL(t *testing.T) {
	_, err := NewClient("http://not-redis")
	assert.Error(t, err)

	c, err := NewClient("redis://localhost:6379/2")
	require.NoError(t, err)
	assert.Equal(t, 2, c.Options().DB)
	c.Close()
}

func TestUnreachableServerSurfacesErrors(t *testing.T) {
	client := goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()
	s := NewRecordStore(client, "")
	ctx := context.Background()

	err := s.Put(ctx, store.DocumentRecord{ContentHash: "h", InsertedAt: time.Now()})
	assert.Error(t, err)

	_, err = s.Get(ctx, "h")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, store.ErrNotFound)
}
