package websocket_router

import (
	"github.com/haierkeys/post-revisions-service/internal/app"
	"github.com/haierkeys/post-revisions-service/internal/dto"
	"github.com/haierkeys/post-revisions-service/internal/service"
	pkgapp "github.com/haierkeys/post-revisions-service/pkg/app"
	"github.com/haierkeys/post-revisions-service/pkg/code"
)

const (
	// ActionRevisionsGet 获取修订历史
	ActionRevisionsGet = "PostRevisionsGet"
	// ActionRevisionsPurge 删除单条修订
	ActionRevisionsPurge = "PostRevisionsPurge"
	// ActionRevisionSettingGet 当前用户的可见性设置
	ActionRevisionSettingGet = "UserRevisionSettingGet"
)

// RevisionWSHandler 修订历史 WebSocket 处理器
type RevisionWSHandler struct {
	*WSHandler
}

// NewRevisionWSHandler 创建 RevisionWSHandler 实例
func NewRevisionWSHandler(a *app.App) *RevisionWSHandler {
	return &RevisionWSHandler{WSHandler: NewWSHandler(a)}
}

// RevisionsGet answers "PostRevisionsGet|{"pid":42}" with the history list
// RevisionsGet 返回帖子修订历史
func (h *RevisionWSHandler) RevisionsGet(c *pkgapp.WebsocketClient, msg *pkgapp.WebSocketMessage) {
	params := &dto.RevisionListRequest{}
	if valid, errs := c.BindAndValid(msg.Data, params); !valid {
		h.respondInvalid(c, msg.Type, errs)
		return
	}

	list, err := h.App.RevisionService.GetHistory(c.Context(), params.PID, c.UID())
	if err != nil {
		h.respondError(c, msg.Type, err)
		return
	}
	c.ToResponse(code.Success.Clone().WithData(list), msg.Type)
}

// RevisionsPurge handles "PostRevisionsPurge|{"pid":42,"timestamp":1700000000000}"
// RevisionsPurge 删除一条修订
func (h *RevisionWSHandler) RevisionsPurge(c *pkgapp.WebsocketClient, msg *pkgapp.WebSocketMessage) {
	params := &dto.RevisionPurgeRequest{}
	valid, errs := c.BindAndValid(msg.Data, params)
	// a missing or malformed pid outranks every other parameter error
	if params.PID <= 0 {
		h.respondError(c, msg.Type, service.ErrInvalidPostID)
		return
	}
	if !valid {
		h.respondInvalid(c, msg.Type, errs)
		return
	}

	if err := h.App.RevisionService.PurgeRevision(c.Context(), params.PID, c.UID(), params.Timestamp); err != nil {
		h.respondError(c, msg.Type, err)
		return
	}
	c.ToResponse(code.Success.Clone().WithData(params), msg.Type)
}

// SettingGet returns the caller's own visibility setting
// SettingGet 返回当前用户自己的可见性设置
func (h *RevisionWSHandler) SettingGet(c *pkgapp.WebsocketClient, msg *pkgapp.WebSocketMessage) {
	setting, err := h.App.RevisionService.GetUserSetting(c.Context(), c.UID())
	if err != nil {
		h.respondError(c, msg.Type, err)
		return
	}
	c.ToResponse(code.Success.Clone().WithData(setting), msg.Type)
}
