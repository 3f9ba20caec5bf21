package cache

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestMemory_TTL(t *testing.T) {
	ctx := context.Background()
	clk := &clock{t: time.Date(2026, 2, 8, 12, 0, 0, 0, time.UTC)}

	m := NewMemory(true)
	defer m.Close()
	m.now = clk.now

	etag := m.Set(ctx, "k", []byte(`{"a":1}`), 30*time.Minute)
	assert.Equal(t, ComputeETag([]byte(`{"a":1}`)), etag)

	e, ok := m.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []byte(`{"a":1}`), e.Data)
	assert.Equal(t, etag, e.ETag)
	assert.Equal(t, 1800, e.TTLRemaining(clk.t))

	clk.t = clk.t.Add(10*time.Minute + 500*time.Millisecond)
	e, ok = m.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, 1199, e.TTLRemaining(clk.t))

	clk.t = clk.t.Add(20 * time.Minute)
	_, ok = m.Get(ctx, "k")
	assert.False(t, ok)

	stats := m.Stats(ctx)
	assert.Equal(t, 1, stats["total_keys"])
	assert.Equal(t, 1, stats["expired_keys"])

	m.evict()
	assert.Equal(t, 0, m.Stats(ctx)["total_keys"])
}

func TestMemory_DisabledAndClear(t *testing.T) {
	ctx := context.Background()

	off := NewMemory(false)
	off.Set(ctx, "k", []byte("x"), time.Minute)
	_, ok := off.Get(ctx, "k")
	assert.False(t, ok)

	on := NewMemory(true)
	defer on.Close()
	on.Set(ctx, "k", []byte("x"), 0)
	e, ok := on.Get(ctx, "k")
	require.True(t, ok)
	assert.Greater(t, e.TTLRemaining(time.Now()), 1700)

	on.Clear()
	_, ok = on.Get(ctx, "k")
	assert.False(t, ok)
	on.Close()
	on.Close()
}

func TestEntry_TTLRemainingNeverNegative(t *testing.T) {
	now := time.Now()
	assert.Equal(t, 0, Entry{ExpiresAt: now.Add(-time.Hour)}.TTLRemaining(now))
}

func TestCheckETagMatch(t *testing.T) {
	etag := ComputeETag([]byte("payload"))
	assert.True(t, CheckETagMatch(etag, etag))
	assert.True(t, CheckETagMatch("*", etag))
	assert.False(t, CheckETagMatch("", etag))
	assert.False(t, CheckETagMatch(`W/"other"`, etag))
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRedis_GetSet(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()
	r := NewRedisClient(db, "footiq:", quietLogger())
	fixed := time.Date(2026, 2, 8, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return fixed }

	data := []byte(`{"games":[]}`)
	payload, err := json.Marshal(redisEnvelope{Data: data, ETag: ComputeETag(data)})
	require.NoError(t, err)

	mock.ExpectSet("footiq:k", payload, 30*time.Minute).SetVal("OK")
	etag := r.Set(ctx, "k", data, 30*time.Minute)
	assert.Equal(t, ComputeETag(data), etag)

	mock.ExpectGet("footiq:k").SetVal(string(payload))
	mock.ExpectPTTL("footiq:k").SetVal(90 * time.Second)
	e, ok := r.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, data, e.Data)
	assert.Equal(t, etag, e.ETag)
	assert.Equal(t, 90, e.TTLRemaining(fixed))

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRedis_ErrorsAreMisses(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()
	r := NewRedisClient(db, "", quietLogger())

	mock.ExpectGet("missing").RedisNil()
	_, ok := r.Get(ctx, "missing")
	assert.False(t, ok)

	mock.ExpectGet("down").SetErr(errors.New("connection refused"))
	_, ok = r.Get(ctx, "down")
	assert.False(t, ok)

	mock.ExpectGet("corrupt").SetVal("not json")
	_, ok = r.Get(ctx, "corrupt")
	assert.False(t, ok)

	mock.ExpectDBSize().SetErr(errors.New("connection refused"))
	stats := r.Stats(ctx)
	assert.Equal(t, "redis", stats["backend"])
	assert.Contains(t, stats, "error")

	require.NoError(t, mock.ExpectationsWereMet())
}
