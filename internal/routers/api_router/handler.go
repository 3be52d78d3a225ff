// Package api_router 提供 HTTP API 路由处理器
package api_router

import (
	"context"
	"strconv"

	"github.com/haierkeys/post-revisions-service/internal/app"
	"github.com/haierkeys/post-revisions-service/internal/dao"
	"github.com/haierkeys/post-revisions-service/internal/domain"
	"github.com/haierkeys/post-revisions-service/internal/middleware"
	"github.com/haierkeys/post-revisions-service/internal/service"
	pkgapp "github.com/haierkeys/post-revisions-service/pkg/app"
	"github.com/haierkeys/post-revisions-service/pkg/code"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Handler 基础 Handler 结构体，封装 App Container
// 所有 API Handler 都应该嵌入此结构体以获得依赖注入能力
type Handler struct {
	App *app.App
}

// NewHandler 创建基础 Handler 实例
func NewHandler(a *app.App) *Handler {
	return &Handler{App: a}
}

// ErrorCode maps a service error to its response code.
// Store failures are reported without details so internals never reach the client.
//
// ErrorCode 将服务层错误映射为响应码，存储错误不附带细节
func ErrorCode(err error) *code.Code {
	switch {
	case err == nil:
		return code.Success
	case errors.Is(err, service.ErrInvalidPostID):
		return code.ErrorInvalidPostID
	case errors.Is(err, service.ErrNotAllowed):
		return code.ErrorNotAllowed
	case errors.Is(err, domain.ErrPostNotFound):
		return code.ErrorPostNotFound
	case errors.Is(err, dao.ErrCorruptRevision):
		return code.ErrorCorruptRevision
	case errors.Is(err, context.DeadlineExceeded):
		return code.ErrorRequestTimeout
	default:
		return code.ErrorStoreFailure
	}
}

// logError 记录错误日志，包含 Trace ID；拒绝类错误只记 Info
func (h *Handler) logError(ctx context.Context, method string, err error) {
	level := h.App.Logger().Error
	if errors.Is(err, service.ErrNotAllowed) || errors.Is(err, service.ErrInvalidPostID) {
		level = h.App.Logger().Info
	}
	level(method,
		zap.Error(err),
		zap.String("traceId", middleware.GetTraceID(ctx)),
	)
}

// errorResponse 记录并输出错误
func (h *Handler) errorResponse(c *gin.Context, method string, err error) {
	h.logError(c.Request.Context(), method, err)
	pkgapp.NewResponse(c).ToResponse(ErrorCode(err))
}

// invalidParams 输出参数校验错误
func invalidParams(c *gin.Context, errs pkgapp.ValidErrors) {
	pkgapp.NewResponse(c).ToResponse(code.ErrorInvalidParams.Clone().WithDetails(errs.ErrorsToString()).WithData(errs.MapsToString()))
}

// int64Param reads a path parameter; malformed values come back as 0 so the
// service rejects them the same way as non-positive ids
// int64Param 读取路径参数，无法解析时返回 0
func int64Param(c *gin.Context, name string) int64 {
	n, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		return 0
	}
	return n
}
