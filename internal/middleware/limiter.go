package middleware

import (
	"math"
	"strconv"

	"github.com/haierkeys/post-revisions-service/pkg/app"
	"github.com/haierkeys/post-revisions-service/pkg/code"
	"github.com/haierkeys/post-revisions-service/pkg/limiter"

	"github.com/gin-gonic/gin"
)

// RateLimiter takes one token per request from the bucket keyed by route.
// Routes without a bucket pass through. An empty bucket answers 429 with
// Retry-After set to one refill period, in whole seconds.
//
// RateLimiter 按路由取令牌，无令牌时返回 429 并设置 Retry-After
func RateLimiter(l limiter.Face) gin.HandlerFunc {
	return func(c *gin.Context) {
		bucket, ok := l.GetBucket(l.Key(c))
		if !ok || bucket.TakeAvailable(1) > 0 {
			c.Next()
			return
		}

		retry := 1
		if rate := bucket.Rate(); rate > 0 {
			retry = max(retry, int(math.Round(1/rate)))
		}
		c.Header("Retry-After", strconv.Itoa(retry))
		app.NewResponse(c).AbortWith(code.ErrorTooManyRequests)
	}
}
