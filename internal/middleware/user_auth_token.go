package middleware

import (
	"strings"

	"github.com/haierkeys/post-revisions-service/pkg/app"
	"github.com/haierkeys/post-revisions-service/pkg/code"

	"github.com/gin-gonic/gin"
)

// requestToken 依次从 query、header 中读取 token
func requestToken(c *gin.Context) string {
	var token string
	if s, exist := c.GetQuery("authorization"); exist {
		token = s
	} else if s, exist := c.GetQuery("token"); exist {
		token = s
	} else if s := c.GetHeader("Authorization"); len(s) != 0 {
		token = s
	} else if s := c.GetHeader("Token"); len(s) != 0 {
		token = s
	}
	return strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
}

// UserAuthTokenWithConfig 用户 Token 认证中间件（使用注入的 TokenManager）
//
// optional 为 true 时缺少 token 的请求按游客处理（uid 0），但携带了无效 token 仍会被拒绝
func UserAuthTokenWithConfig(tokens app.TokenManager, optional bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		response := app.NewResponse(c)

		token := requestToken(c)
		if token == "" {
			if optional {
				c.Next()
				return
			}
			response.AbortWith(code.ErrorNotUserAuthToken)
			return
		}

		user, err := tokens.Parse(token)
		if err != nil {
			response.AbortWith(code.ErrorInvalidUserAuthToken)
			return
		}
		c.Set(app.ContextUserKey, user)

		c.Next()
	}
}
