// Package dto Defines data transfer objects (request parameters and response structs)
// Package dto 定义数据传输对象（请求参数和响应结构体）
package dto

import "github.com/haierkeys/post-revisions-service/pkg/diff"

// EditorDTO editor profile shown next to a revision
// EditorDTO 修订条目的编辑者信息
type EditorDTO struct {
	UID      int64  `json:"uid"`
	Username string `json:"username"`
	Userslug string `json:"userslug"`
	Picture  string `json:"picture"`
}

// RevisionPostDTO post reduced to its content
// RevisionPostDTO 仅保留内容的帖子
type RevisionPostDTO struct {
	Content string `json:"content"`
}

// RevisionTopicDTO topic reduced to its title
// RevisionTopicDTO 仅保留标题的主题
type RevisionTopicDTO struct {
	Title string `json:"title"`
}

// RevisionDTO one history entry
// RevisionDTO 一条历史记录
//
// timestamp is null for the current entry; post and editor are null for the unknown entry
type RevisionDTO struct {
	Timestamp *int64            `json:"timestamp"`
	Mode      string            `json:"mode"`
	Editor    *EditorDTO        `json:"editor"`
	Post      *RevisionPostDTO  `json:"post"`
	Topic     *RevisionTopicDTO `json:"topic"`
	Diffs     []diff.Span       `json:"diffs,omitempty"`
}

// RevisionListRequest 获取修订历史
type RevisionListRequest struct {
	PID int64 `uri:"pid" form:"pid" json:"pid"`
}

// RevisionPurgeRequest 删除单条修订
type RevisionPurgeRequest struct {
	PID       int64 `uri:"pid" form:"pid" json:"pid"`
	Timestamp int64 `uri:"ts" form:"timestamp" json:"timestamp" binding:"required,gt=0"`
}

// UserRevisionSettingRequest 查询用户修订设置
type UserRevisionSettingRequest struct {
	UID int64 `uri:"uid" form:"uid" json:"uid" binding:"required,gt=0"`
}

// UserRevisionInfoDTO mirrors the flag the host adds to user info
// UserRevisionInfoDTO 附加到用户信息上的可见性标记
type UserRevisionInfoDTO struct {
	UID                int64 `json:"uid"`
	EditHistoryVisible bool  `json:"editHistoryVisible"`
}

// RevisionSettingDTO 用户的修订可见性设置
type RevisionSettingDTO struct {
	UID                    int64 `json:"uid"`
	PostEditHistoryVisible bool  `json:"postEditHistoryVisible"`
}
