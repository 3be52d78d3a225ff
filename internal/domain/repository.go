// Package domain 定义领域模型和接口
package domain

import "context"

// CorruptEntry reports a stored entry that could not be decoded
// CorruptEntry 无法解码的存储条目
type CorruptEntry struct {
	Field string
	Err   error
}

// RevisionRepository 修订历史仓储接口
type RevisionRepository interface {
	// Load reads the current-format history; fields that are not positive integers are ignored
	// and undecodable records are reported in Corrupt
	// Load 读取新格式历史，非正整数字段被忽略，无法解码的记录放入 Corrupt
	Load(ctx context.Context, pid int64) (*StoredHistory, error)

	// LoadLegacy reads legacy blobs, newest first
	// LoadLegacy 读取旧格式数据，按时间倒序
	LoadLegacy(ctx context.Context, pid int64) (*StoredHistory, error)

	// ReplaceLegacy writes entries in current format and deletes the legacy key as one atomic batch
	// ReplaceLegacy 以原子批次写入新格式并删除旧格式键
	ReplaceLegacy(ctx context.Context, pid int64, entries []*EditRevision) error

	// Apply 原子地应用一组修改
	Apply(ctx context.Context, pid int64, change *HistoryChange) error

	// DeleteAll 删除新旧两种格式的全部历史
	DeleteAll(ctx context.Context, pid int64) error

	// CountFields counts the fields of the current-format history, the head override included
	// CountFields 统计新格式历史的字段数（含 head）
	CountFields(ctx context.Context, pid int64) (int64, error)

	// EachLegacy calls fn for every post that still has legacy history
	// EachLegacy 遍历仍存在旧格式历史的帖子
	EachLegacy(ctx context.Context, fn func(pid int64) error) error
}

// PostRepository 帖子仓储接口
type PostRepository interface {
	// Get returns ErrPostNotFound when the post hash is absent
	Get(ctx context.Context, pid int64) (*Post, error)

	// ApplyEdit writes the new state and revision count to the post
	// ApplyEdit 写入新状态与修订次数
	ApplyEdit(ctx context.Context, pid int64, editorUID int64, edit *PostEdit, revisionCount int64) error

	// SetRevisionCount 仅更新修订次数
	SetRevisionCount(ctx context.Context, pid int64, revisionCount int64) error
}

// TopicRepository 主题仓储接口
type TopicRepository interface {
	// Get returns a zero Topic with the given tid when it is absent
	Get(ctx context.Context, tid int64) (*Topic, error)

	// UpdateTitle 修改主题标题
	UpdateTitle(ctx context.Context, tid int64, title string) error
}

// UserRepository 用户仓储接口
type UserRepository interface {
	// GetProfiles returns one profile per uid in input order; unknown users get a placeholder
	// GetProfiles 按输入顺序返回用户信息，不存在的用户返回占位信息
	GetProfiles(ctx context.Context, uids []int64) ([]*UserProfile, error)

	// GetSettings 读取用户设置
	GetSettings(ctx context.Context, uid int64) (*UserSettings, error)

	// SaveSettings 保存用户设置
	SaveSettings(ctx context.Context, uid int64, settings *UserSettings) error
}

// PrivilegeRepository answers privilege questions; role membership is managed elsewhere
// PrivilegeRepository 权限查询，角色关系由外部维护
type PrivilegeRepository interface {
	IsAdministrator(ctx context.Context, uid int64) (bool, error)
	IsModerator(ctx context.Context, cid int64, uid int64) (bool, error)
}
