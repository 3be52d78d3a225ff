package limiter

import (
	"github.com/gin-gonic/gin"
)

// MethodLimiter keys buckets by route pattern, so /api/posts/1/revisions and
// /api/posts/2/revisions share one bucket
// MethodLimiter 按路由模板限流
type MethodLimiter struct {
	*Limiter
}

func NewMethodLimiter() Face {
	return &MethodLimiter{Limiter: &Limiter{}}
}

func (l *MethodLimiter) Key(c *gin.Context) string {
	if route := c.FullPath(); route != "" {
		return route
	}
	return c.Request.URL.Path
}

func (l *MethodLimiter) AddBuckets(rules ...BucketRule) Face {
	l.addBuckets(rules...)
	return l
}
