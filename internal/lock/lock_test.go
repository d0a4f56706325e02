package lock

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedis_Disabled(t *testing.T) {
	assert.Nil(t, NewRedis("", "", "", time.Minute))
}

func TestTryLock_Unreachable(t *testing.T) {
	l := NewRedis("127.0.0.1:1", "", "", time.Minute)
	defer l.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	_, ok, err := l.TryLock(ctx, "prayer-notify")
	require.Error(t, err)
	assert.False(t, ok)
}

// TestTryLock_Exclusive runs against a real server when REDIS_ADDR is set.
func TestTryLock_Exclusive(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	l := NewRedis(addr, os.Getenv("REDIS_USERNAME"), os.Getenv("REDIS_PASSWORD"), 5*time.Second)
	defer l.Close()
	ctx := context.Background()
	name := "test-" + time.Now().Format("150405.000000")

	unlock, ok, err := l.TryLock(ctx, name)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = l.TryLock(ctx, name)
	require.NoError(t, err)
	assert.False(t, ok, "second holder must be refused")

	require.NoError(t, unlock(ctx))

	unlock, ok, err = l.TryLock(ctx, name)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, unlock(ctx))
}
