package ratelimit

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock 手动推进的时钟
type fakeClock struct{ t time.Time }

func (f *fakeClock) now() time.Time { return f.t }

func newTestBucket(qpm, capacity int) (*TokenBucket, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	tb := NewTokenBucket(qpm, capacity)
	tb.now = clock.now
	tb.lastRefillTime = clock.t
	return tb, clock
}

func TestTokenBucketAllow(t *testing.T) {
	tb, clock := newTestBucket(60, 2)

	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow(), "容量耗尽后应拒绝")
	assert.Equal(t, time.Second, tb.RetryAfter())

	clock.t = clock.t.Add(time.Second)
	assert.True(t, tb.Allow(), "每秒补充一个令牌")
	assert.False(t, tb.Allow())
}

func TestTokenBucketCapacityDefault(t *testing.T) {
	tb := NewTokenBucket(1, 0)
	assert.Equal(t, 1.0, tb.capacity)

	tb = NewTokenBucket(120, 0)
	assert.Equal(t, 60.0, tb.capacity)
}

func TestTokenBucketWaitCancelled(t *testing.T) {
	tb, _ := newTestBucket(1, 1)
	require.True(t, tb.Allow())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, tb.Wait(ctx), context.Canceled)
}

func TestMiddleware(t *testing.T) {
	tb, _ := newTestBucket(60, 1)
	h := server.New(server.WithHostPorts("127.0.0.1:0"))
	h.Use(Middleware(tb))
	h.GET("/ping", func(ctx context.Context, c *app.RequestContext) {
		c.String(http.StatusOK, "pong")
	})

	resp := ut.PerformRequest(h.Engine, "GET", "/ping", nil)
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = ut.PerformRequest(h.Engine, "GET", "/ping", nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
	assert.Equal(t, "1", resp.Header().Get("Retry-After"))
}
