// Package websocket_router 提供 WebSocket 路由处理器
package websocket_router

import (
	"context"
	"strings"

	"github.com/haierkeys/post-revisions-service/internal/app"
	"github.com/haierkeys/post-revisions-service/internal/routers/api_router"
	"github.com/haierkeys/post-revisions-service/internal/service"
	pkgapp "github.com/haierkeys/post-revisions-service/pkg/app"
	"github.com/haierkeys/post-revisions-service/pkg/code"
	"github.com/haierkeys/post-revisions-service/pkg/logger"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// WSHandler WebSocket 基础 Handler 结构体，封装 App Container
// 所有 WebSocket Handler 都应该嵌入此结构体以获得依赖注入能力
type WSHandler struct {
	App *app.App
}

// NewWSHandler 创建 WebSocket 基础 Handler 实例
func NewWSHandler(a *app.App) *WSHandler {
	return &WSHandler{App: a}
}

// logError logs closed connections at debug and refusals (not allowed, bad pid) at info.
//
// logError 按错误类型选择日志级别
func (h *WSHandler) logError(c *pkgapp.WebsocketClient, method string, err error) {
	fields := []zap.Field{zap.Error(err)}
	if c != nil {
		fields = append(fields, zap.String(logger.FieldTraceID, c.TraceID), zap.Int64(logger.FieldUID, c.UID()))
	}
	log := h.App.Logger()

	switch {
	case isNetworkClosedError(err) && c != nil && c.Context().Err() != nil:
		log.Debug(method, fields...)
	case errors.Is(err, service.ErrNotAllowed), errors.Is(err, service.ErrInvalidPostID):
		log.Info(method, fields...)
	default:
		log.Error(method, fields...)
	}
}

// respondError 统一错误响应方法
func (h *WSHandler) respondError(c *pkgapp.WebsocketClient, action string, err error) {
	h.logError(c, "ws."+action, err)
	c.ToResponse(api_router.ErrorCode(err), action)
}

// respondInvalid 参数校验失败
func (h *WSHandler) respondInvalid(c *pkgapp.WebsocketClient, action string, errs pkgapp.ValidErrors) {
	c.ToResponse(code.ErrorInvalidParams.Clone().WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()), action)
}

// isNetworkClosedError 检查是否为网络关闭相关的错误
func isNetworkClosedError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "use of closed network connection") ||
		strings.Contains(msg, "connection reset by peer") ||
		strings.Contains(msg, "broken pipe") ||
		errors.Is(err, context.Canceled)
}
