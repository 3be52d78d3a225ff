package api_router

import (
	"github.com/haierkeys/post-revisions-service/internal/app"
	"github.com/haierkeys/post-revisions-service/internal/dto"
	"github.com/haierkeys/post-revisions-service/internal/service"
	pkgapp "github.com/haierkeys/post-revisions-service/pkg/app"
	"github.com/haierkeys/post-revisions-service/pkg/code"

	"github.com/gin-gonic/gin"
)

// RevisionHandler 帖子修订历史 API 路由处理器
// 使用 App Container 注入依赖，支持统一错误处理
type RevisionHandler struct {
	*Handler
}

// NewRevisionHandler 创建 RevisionHandler 实例
func NewRevisionHandler(a *app.App) *RevisionHandler {
	return &RevisionHandler{
		Handler: NewHandler(a),
	}
}

// List 获取帖子修订历史
// @Summary 获取帖子修订历史
// @Description 当前状态在前，历史按时间由新到旧，最后可能附带一条未知占位
// @Tags 修订历史
// @Param pid path int64 true "帖子 ID"
// @Produce json
// @Success 200 {object} pkgapp.Res{data=[]dto.RevisionDTO} "成功"
// @Router /api/posts/{pid}/revisions [get]
func (h *RevisionHandler) List(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	pid := int64Param(c, "pid")

	list, err := h.App.RevisionService.GetHistory(c.Request.Context(), pid, pkgapp.GetUID(c))
	if err != nil {
		h.errorResponse(c, "RevisionHandler.List", err)
		return
	}

	response.ToResponseData(code.Success, list)
}

// Purge 删除一条修订
// @Summary 删除一条修订
// @Description 按时间戳删除一条历史，时间戳不存在时视为成功
// @Tags 修订历史
// @Security UserAuthToken
// @Param pid path int64 true "帖子 ID"
// @Param ts path int64 true "修订时间戳（毫秒）"
// @Produce json
// @Success 200 {object} pkgapp.Res "成功"
// @Router /api/posts/{pid}/revisions/{ts} [delete]
func (h *RevisionHandler) Purge(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.RevisionPurgeRequest{PID: int64Param(c, "pid"), Timestamp: int64Param(c, "ts")}

	// the post id is checked before any other parameter
	if params.PID <= 0 {
		h.errorResponse(c, "RevisionHandler.Purge", service.ErrInvalidPostID)
		return
	}
	if valid, errs := pkgapp.ValidStruct(c, params); !valid {
		invalidParams(c, errs)
		return
	}

	err := h.App.RevisionService.PurgeRevision(c.Request.Context(), params.PID, pkgapp.GetUID(c), params.Timestamp)
	if err != nil {
		h.errorResponse(c, "RevisionHandler.Purge", err)
		return
	}

	response.ToResponse(code.Success)
}

// UserSetting 查询用户的修订可见性
// @Summary 查询用户的修订可见性
// @Tags 修订历史
// @Param uid path int64 true "用户 ID"
// @Produce json
// @Success 200 {object} pkgapp.Res{data=dto.UserRevisionInfoDTO} "成功"
// @Router /api/users/{uid}/revision-settings [get]
func (h *RevisionHandler) UserSetting(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.UserRevisionSettingRequest{}

	if valid, errs := pkgapp.BindAndValid(c, params); !valid {
		invalidParams(c, errs)
		return
	}

	info, err := h.App.RevisionService.ModifyUserInfo(c.Request.Context(), params.UID)
	if err != nil {
		h.errorResponse(c, "RevisionHandler.UserSetting", err)
		return
	}

	response.ToResponseData(code.Success, info)
}
