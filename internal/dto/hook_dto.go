package dto

// PostEditHookRequest is sent by the edit pipeline before the new state is written
// PostEditHookRequest 编辑流程在写入新状态前发送
type PostEditHookRequest struct {
	PID     int64   `json:"pid" form:"pid" binding:"required,gt=0"`
	UID     int64   `json:"uid" form:"uid" binding:"required,gt=0"`
	Content string  `json:"content" form:"content"`
	Title   *string `json:"title" form:"title"`
	// Edited ms, optional
	Edited int64 `json:"edited" form:"edited" binding:"gte=0"`
}

// PostEditResultDTO 编辑钩子结果
type PostEditResultDTO struct {
	PID           int64 `json:"pid"`
	RevisionCount int64 `json:"revisionCount"`
}

// PostDeleteHookRequest 帖子删除钩子
type PostDeleteHookRequest struct {
	PID int64 `json:"pid" form:"pid" binding:"required,gt=0"`
}

// UserSettingsHookRequest 用户设置保存钩子
type UserSettingsHookRequest struct {
	UID                    int64 `json:"uid" form:"uid" binding:"required,gt=0"`
	PostEditHistoryVisible bool  `json:"postEditHistoryVisible" form:"postEditHistoryVisible"`
}

// SweepResultDTO 旧格式批量迁移结果
type SweepResultDTO struct {
	Scanned  int64 `json:"scanned"`
	Migrated int64 `json:"migrated"`
	Failed   int64 `json:"failed"`
}
