package api_router

import (
	"github.com/haierkeys/post-revisions-service/internal/app"
	"github.com/haierkeys/post-revisions-service/internal/domain"
	"github.com/haierkeys/post-revisions-service/internal/dto"
	pkgapp "github.com/haierkeys/post-revisions-service/pkg/app"
	"github.com/haierkeys/post-revisions-service/pkg/code"

	"github.com/gin-gonic/gin"
)

// HookHandler receives lifecycle events from the host forum
// HookHandler 接收宿主论坛的生命周期事件
type HookHandler struct {
	*Handler
}

// NewHookHandler 创建 HookHandler 实例
func NewHookHandler(a *app.App) *HookHandler {
	return &HookHandler{Handler: NewHandler(a)}
}

// PostEdit 编辑前归档当前状态
// @Summary 帖子编辑钩子
// @Tags 钩子
// @Param X-Hook-Token header string true "钩子密钥"
// @Accept json
// @Produce json
// @Param params body dto.PostEditHookRequest true "编辑内容"
// @Success 200 {object} pkgapp.Res{data=dto.PostEditResultDTO} "成功"
// @Router /api/hooks/post-edit [post]
func (h *HookHandler) PostEdit(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.PostEditHookRequest{}

	if valid, errs := pkgapp.BindAndValid(c, params); !valid {
		invalidParams(c, errs)
		return
	}

	count, err := h.App.RevisionService.OnEdit(c.Request.Context(), params.PID, params.UID, &domain.PostEdit{
		Content: params.Content,
		Title:   params.Title,
		Edited:  params.Edited,
	})
	if err != nil {
		h.errorResponse(c, "HookHandler.PostEdit", err)
		return
	}

	response.ToResponseData(code.Success, &dto.PostEditResultDTO{PID: params.PID, RevisionCount: count})
}

// PostDelete 删除帖子的全部历史，失败只记录日志
// @Summary 帖子删除钩子
// @Tags 钩子
// @Param X-Hook-Token header string true "钩子密钥"
// @Accept json
// @Param params body dto.PostDeleteHookRequest true "帖子"
// @Success 200 {object} pkgapp.Res "成功"
// @Router /api/hooks/post-delete [post]
func (h *HookHandler) PostDelete(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.PostDeleteHookRequest{}

	if valid, errs := pkgapp.BindAndValid(c, params); !valid {
		invalidParams(c, errs)
		return
	}

	h.App.RevisionService.OnPostDeleted(c.Request.Context(), params.PID)
	response.ToResponse(code.Success)
}

// UserSettings 保存用户的可见性设置，失败只记录日志
// @Summary 用户设置保存钩子
// @Tags 钩子
// @Param X-Hook-Token header string true "钩子密钥"
// @Accept json
// @Param params body dto.UserSettingsHookRequest true "设置"
// @Success 200 {object} pkgapp.Res "成功"
// @Router /api/hooks/user-settings [post]
func (h *HookHandler) UserSettings(c *gin.Context) {
	response := pkgapp.NewResponse(c)
	params := &dto.UserSettingsHookRequest{}

	if valid, errs := pkgapp.BindAndValid(c, params); !valid {
		invalidParams(c, errs)
		return
	}

	h.App.RevisionService.OnUserSettingsSaved(c.Request.Context(), params.UID, &domain.UserSettings{
		PostEditHistoryVisible: params.PostEditHistoryVisible,
	})
	response.ToResponse(code.Success)
}
