package code

import "net/http"

var (
	Success = NewSuss(1, lang{en: "Success", zh_cn: "成功"})

	ErrorServerInternal   = NewError(500, http.StatusInternalServerError, lang{en: "Internal server error", zh_cn: "服务内部错误"})
	ErrorInvalidParams    = NewError(501, http.StatusBadRequest, lang{en: "Invalid parameters", zh_cn: "参数错误"})
	ErrorTooManyRequests  = NewError(502, http.StatusTooManyRequests, lang{en: "Too many requests", zh_cn: "请求过多"})
	ErrorNotFound         = NewError(503, http.StatusNotFound, lang{en: "Not found", zh_cn: "资源不存在"})
	ErrorRequestTimeout   = NewError(504, http.StatusGatewayTimeout, lang{en: "Request timeout", zh_cn: "请求超时"})
	ErrorStoreFailure     = NewError(505, http.StatusServiceUnavailable, lang{en: "Revision store unavailable", zh_cn: "修订存储不可用"})
	ErrorCorruptRevision  = NewError(506, http.StatusInternalServerError, lang{en: "Stored revision is corrupt", zh_cn: "存储的修订数据已损坏"})
	ErrorWebsocketMessage = NewError(507, http.StatusBadRequest, lang{en: "Unknown websocket message", zh_cn: "无法识别的 WebSocket 消息"})

	ErrorNotUserAuthToken     = NewError(505001, http.StatusUnauthorized, lang{en: "Authorization token missing", zh_cn: "缺少授权 Token"})
	ErrorInvalidUserAuthToken = NewError(505002, http.StatusUnauthorized, lang{en: "Invalid authorization token", zh_cn: "授权 Token 无效"})
	ErrorInvalidHookToken     = NewError(505003, http.StatusUnauthorized, lang{en: "Invalid hook token", zh_cn: "Hook Token 无效"})

	ErrorInvalidPostID = NewError(510001, http.StatusBadRequest, lang{en: "Invalid post id", zh_cn: "帖子 ID 无效"})
	ErrorNotAllowed    = NewError(510002, http.StatusForbidden, lang{en: "You are not allowed to do that", zh_cn: "没有权限执行该操作"})
	ErrorPostNotFound  = NewError(510003, http.StatusNotFound, lang{en: "Post does not exist", zh_cn: "帖子不存在"})
)
