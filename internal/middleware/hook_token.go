package middleware

import (
	"crypto/subtle"

	"github.com/haierkeys/post-revisions-service/pkg/app"
	"github.com/haierkeys/post-revisions-service/pkg/code"

	"github.com/gin-gonic/gin"
)

// DefaultHookTokenHeader 钩子调用方携带共享密钥的请求头
const DefaultHookTokenHeader = "X-Hook-Token"

// HookTokenWithConfig guards the host-facing hook endpoints with a shared secret.
// An empty secret rejects every call so hooks are never left open by accident.
//
// HookTokenWithConfig 钩子接口共享密钥认证，密钥为空时全部拒绝
func HookTokenWithConfig(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader(DefaultHookTokenHeader)
		if secret == "" || subtle.ConstantTimeCompare([]byte(token), []byte(secret)) != 1 {
			app.NewResponse(c).AbortWith(code.ErrorInvalidHookToken)
			return
		}
		c.Next()
	}
}
