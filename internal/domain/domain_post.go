package domain

import "errors"

// ErrPostNotFound 帖子不存在
var ErrPostNotFound = errors.New("post not found")

// Post 帖子领域模型（由宿主系统维护，本服务只读取与编辑钩子写回）
type Post struct {
	PID           int64
	UID           int64
	TID           int64
	Content       string
	Timestamp     int64
	Marker        EditMarker
	RevisionCount int64
}

// LastEditor returns who produced the post's current state
// LastEditor 返回产生当前状态的用户
func (p *Post) LastEditor() int64 {
	if p.Marker.EditedBy > 0 {
		return p.Marker.EditedBy
	}
	return p.UID
}

// IsOrphaned 帖子没有作者
func (p *Post) IsOrphaned() bool {
	return p.UID <= 0
}

// PostEdit is the state an edit is about to write
// PostEdit 一次编辑即将写入的新状态
type PostEdit struct {
	Content string
	// Title is set when the edit also renames the topic
	Title *string
	// Edited ms, 0 means now
	Edited int64
}

// Topic 主题，帖子所在容器
type Topic struct {
	TID   int64
	CID   int64
	UID   int64
	Title string
}
