package ratelimit

import (
	"context"
	"math"
	"strconv"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"resume-structurer/internal/logger"
)

// Middleware 令牌不足时返回 429 并设置 Retry-After
func Middleware(tb *TokenBucket) app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		if tb.Allow() {
			c.Next(ctx)
			return
		}
		retryAfter := int(math.Ceil(tb.RetryAfter().Seconds()))
		if retryAfter < 1 {
			retryAfter = 1
		}
		logger.Ctx(ctx).Warn().Str("path", string(c.Path())).Int("retry_after", retryAfter).Msg("请求被限流")
		c.Header("Retry-After", strconv.Itoa(retryAfter))
		c.AbortWithStatusJSON(consts.StatusTooManyRequests, utils.H{"error": "请求过于频繁，请稍后重试"})
	}
}
