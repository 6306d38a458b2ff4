package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClockedStore() (*MemoryStore, *time.Time) {
	now := time.Date(2025, 10, 1, 8, 0, 0, 0, time.UTC)
	s := NewMemoryStore()
	s.now = func() time.Time { return now }
	return s, &now
}

func TestMemoryStore_SetGet(t *testing.T) {
	s, _ := newClockedStore()
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte("v"), time.Minute))

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}

func TestMemoryStore_Miss(t *testing.T) {
	s, _ := newClockedStore()

	_, err := s.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryStore_ExpiresAtTTL(t *testing.T) {
	s, now := newClockedStore()
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "k", []byte("v"), 60*time.Second))

	*now = now.Add(59 * time.Second)
	_, err := s.Get(ctx, "k")
	require.NoError(t, err, "TTL 内应命中")

	*now = now.Add(1 * time.Second)
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss, "到达 TTL 后应失效")
}

func TestMemoryStore_Delete(t *testing.T) {
	s, _ := newClockedStore()
	ctx := context.Background()
	require.NoError(t, s.Set(ctx, "k", []byte("v"), time.Minute))

	require.NoError(t, s.Delete(ctx, "k"))
	_, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)

	assert.NoError(t, s.Delete(ctx, "k"), "删除不存在的键不应报错")
}

func TestMemoryStore_ValueIsCopied(t *testing.T) {
	s, _ := newClockedStore()
	ctx := context.Background()
	buf := []byte("abc")
	require.NoError(t, s.Set(ctx, "k", buf, 0))
	buf[0] = 'x'

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}
