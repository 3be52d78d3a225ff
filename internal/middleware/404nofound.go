package middleware

import (
	"github.com/haierkeys/post-revisions-service/pkg/app"
	"github.com/haierkeys/post-revisions-service/pkg/code"

	"github.com/gin-gonic/gin"
)

// NoFound answers unmatched routes with the JSON envelope instead of gin's plain 404 body.
// The request line goes into details so a client can see what it asked for.
//
// NoFound 未匹配路由返回统一 JSON，details 附带请求方法与路径
func NoFound() gin.HandlerFunc {
	return func(c *gin.Context) {
		app.NewResponse(c).AbortWith(code.ErrorNotFound.Clone().WithDetails(c.Request.Method + " " + c.Request.URL.Path))
	}
}
