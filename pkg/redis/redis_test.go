package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mariamwidari-blip/kunyit-attendee/config"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewClient(&config.RedisConfig{Addr: mr.Addr()}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestNewClient_Unreachable(t *testing.T) {
	_, err := NewClient(&config.RedisConfig{Addr: "127.0.0.1:1"}, zap.NewNop())
	assert.Error(t, err)
}

func TestBlacklistToken(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.BlacklistToken(ctx, "jti-1", time.Minute))
	ok, err := c.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(2 * time.Minute)
	ok, err = c.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, ok, "过期后应移出黑名单")

	// 已过期的 token 不写入
	require.NoError(t, c.BlacklistToken(ctx, "jti-2", 0))
	ok, _ = c.IsBlacklisted(ctx, "jti-2")
	assert.False(t, ok)
}

func TestCheckRateLimit(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := c.CheckRateLimit(ctx, "rl:test", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, allowed, "第 %d 次应放行", i+1)
	}
	allowed, err := c.CheckRateLimit(ctx, "rl:test", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed, "超出窗口上限应拒绝")
}

func TestAcquireOnce(t *testing.T) {
	c, mr := newTestClient(t)
	ctx := context.Background()

	first, err := c.AcquireOnce(ctx, "scan:s1", time.Minute)
	require.NoError(t, err)
	assert.True(t, first)

	second, err := c.AcquireOnce(ctx, "scan:s1", time.Minute)
	require.NoError(t, err)
	assert.False(t, second)

	mr.FastForward(2 * time.Minute)
	third, err := c.AcquireOnce(ctx, "scan:s1", time.Minute)
	require.NoError(t, err)
	assert.True(t, third)
}
