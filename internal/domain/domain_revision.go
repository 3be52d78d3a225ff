// Package domain 定义领域模型和接口
package domain

// RevisionMode 修订条目类型
type RevisionMode string

const (
	// ModeCurrent live post at fetch time, never persisted
	// ModeCurrent 读取时的帖子实时状态，不落库
	ModeCurrent RevisionMode = "current"
	// ModeEdit an archived prior state
	// ModeEdit 已归档的历史状态
	ModeEdit RevisionMode = "edit"
	// ModeUnknown the post was edited before history tracking began
	// ModeUnknown 历史记录启用之前发生过编辑，内容不可恢复
	ModeUnknown RevisionMode = "unknown"
)

// Revision is one entry of a post history.
// The concrete type is one of *CurrentRevision, *EditRevision or *UnknownRevision.
//
// Revision 帖子历史中的一个条目
type Revision interface {
	Mode() RevisionMode
	// Timestamp is 0 for the current entry
	Timestamp() int64
	Editor() int64
	isRevision()
}

// EditMarker is the "last edited" marker a post state carries
// EditMarker 帖子状态上的最后编辑标记
type EditMarker struct {
	Edited   int64 // ms, 0 means never edited
	EditedBy int64
}

// IsSet 是否存在编辑标记
func (m EditMarker) IsSet() bool {
	return m.Edited > 0
}

// CurrentRevision 当前状态
type CurrentRevision struct {
	EditorUID  int64
	TopicTitle string
	Content    string
}

func (*CurrentRevision) Mode() RevisionMode { return ModeCurrent }
func (*CurrentRevision) Timestamp() int64   { return 0 }
func (r *CurrentRevision) Editor() int64    { return r.EditorUID }
func (*CurrentRevision) isRevision()        {}

// EditRevision 已归档的历史版本
type EditRevision struct {
	Ts        int64
	EditorUID int64
	// TopicTitle is nil when the edit did not touch the topic title or the record predates titles
	TopicTitle *string
	Content    string
	// Marker is the archived state's own edit marker
	Marker EditMarker
}

func (*EditRevision) Mode() RevisionMode { return ModeEdit }
func (r *EditRevision) Timestamp() int64 { return r.Ts }
func (r *EditRevision) Editor() int64    { return r.EditorUID }
func (*EditRevision) isRevision()        {}

// UnknownRevision 无法恢复内容的占位条目
type UnknownRevision struct {
	Ts        int64
	EditorUID int64
}

func (*UnknownRevision) Mode() RevisionMode { return ModeUnknown }
func (r *UnknownRevision) Timestamp() int64 { return r.Ts }
func (r *UnknownRevision) Editor() int64    { return r.EditorUID }
func (*UnknownRevision) isRevision()        {}

// MarkerOverride replaces the live post's marker for history purposes while the post
// still carries Edited == LiveEdited. Purging the newest archived entry splices the chain through it.
//
// MarkerOverride 在帖子的 edited 仍等于 LiveEdited 时替代其编辑标记
type MarkerOverride struct {
	LiveEdited int64
	Marker     EditMarker
}

// StoredHistory 存储中读取的历史
type StoredHistory struct {
	// Entries newest first
	Entries []*EditRevision
	Head    *MarkerOverride
	Corrupt []CorruptEntry
	// Exists is true when the key holds any field at all, stray ones included
	Exists bool
}

// Find 按时间戳查找条目
func (h *StoredHistory) Find(ts int64) (int, *EditRevision) {
	for i, e := range h.Entries {
		if e.Ts == ts {
			return i, e
		}
	}
	return -1, nil
}

// LiveMarker returns the marker that links the live post to the archived chain
// LiveMarker 返回连接帖子当前状态与历史链的编辑标记
func (h *StoredHistory) LiveMarker(post *Post) EditMarker {
	if h != nil && h.Head != nil && h.Head.LiveEdited == post.Marker.Edited {
		return h.Head.Marker
	}
	return post.Marker
}

// HistoryChange is applied to the current-format history as one atomic batch
// HistoryChange 作为一个原子批次应用到新格式历史
type HistoryChange struct {
	Put       []*EditRevision
	Delete    []int64
	Head      *MarkerOverride
	ClearHead bool
}

// RevisionView is a history entry with display metadata resolved
// RevisionView 已解析展示信息的历史条目
type RevisionView struct {
	Revision Revision
	Editor   *UserProfile
}
