package middleware

import (
	"github.com/gin-gonic/gin"
)

// AppInfoWithConfig 注入服务名与版本，并在响应头中返回版本
func AppInfoWithConfig(name, version string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("app_name", name)
		c.Set("app_version", version)
		c.Header("X-Service-Version", version)
		c.Next()
	}
}
