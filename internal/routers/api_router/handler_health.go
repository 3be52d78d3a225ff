package api_router

import (
	"time"

	"github.com/haierkeys/post-revisions-service/internal/app"
	pkgapp "github.com/haierkeys/post-revisions-service/pkg/app"
	"github.com/haierkeys/post-revisions-service/pkg/code"
	"github.com/haierkeys/post-revisions-service/pkg/workerpool"

	"github.com/gin-gonic/gin"
)

// HealthHandler 健康检查处理器
type HealthHandler struct {
	*Handler
	startTime time.Time
}

// NewHealthHandler 创建健康检查处理器实例
func NewHealthHandler(a *app.App) *HealthHandler {
	return &HealthHandler{Handler: NewHandler(a), startTime: time.Now()}
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status  string  `json:"status"`  // "healthy" 或 "unhealthy"
	Version string  `json:"version"` // 服务版本号
	Uptime  float64 `json:"uptime"`  // 运行时间（秒）
	Store   string  `json:"store"`   // "connected" 或 "error"

	WorkerPool workerpool.Metrics `json:"workerPool"` // 批量迁移使用的 Worker Pool 状态
}

// Check 健康检查接口
// @Summary 健康检查
// @Description 检查服务健康状态，包括存储连接
// @Tags 系统
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /api/health [get]
func (h *HealthHandler) Check(c *gin.Context) {
	res := HealthResponse{
		Status:  "healthy",
		Version: h.App.Version().Version,
		Uptime:  time.Since(h.startTime).Seconds(),
		Store:   "connected",

		WorkerPool: h.App.WorkerPool().GetMetrics(),
	}

	if err := h.App.Store.Ping(c.Request.Context()); err != nil {
		h.logError(c.Request.Context(), "HealthHandler.Check", err)
		res.Status = "unhealthy"
		res.Store = "error"
		pkgapp.NewResponse(c).ToResponseData(code.ErrorStoreFailure, res)
		return
	}

	pkgapp.NewResponse(c).ToResponseData(code.Success, res)
}

// ServerVersion 服务端版本信息
// @Summary 服务端版本信息
// @Tags 系统
// @Produce json
// @Success 200 {object} pkgapp.Res{data=pkgapp.VersionInfo} "成功"
// @Router /api/version [get]
func (h *HealthHandler) ServerVersion(c *gin.Context) {
	pkgapp.NewResponse(c).ToResponseData(code.Success, h.App.Version())
}
