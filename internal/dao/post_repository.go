package dao

import (
	"context"

	"github.com/haierkeys/post-revisions-service/internal/domain"
)

// 帖子 hash 字段
const (
	postFieldPID           = "pid"
	postFieldUID           = "uid"
	postFieldTID           = "tid"
	postFieldContent       = "content"
	postFieldTimestamp     = "timestamp"
	postFieldEdited        = "edited"
	postFieldEditor        = "editor"
	postFieldRevisionCount = "revisionCount"
)

// postRepository 实现 domain.PostRepository 接口
type postRepository struct {
	dao *Dao
}

// NewPostRepository 创建 PostRepository 实例
func NewPostRepository(dao *Dao) domain.PostRepository {
	return &postRepository{dao: dao}
}

func (r *postRepository) toDomain(pid int64, m map[string]string) *domain.Post {
	return &domain.Post{
		PID:       pid,
		UID:       parseInt(m[postFieldUID]),
		TID:       parseInt(m[postFieldTID]),
		Content:   m[postFieldContent],
		Timestamp: parseInt(m[postFieldTimestamp]),
		Marker: domain.EditMarker{
			Edited:   parseInt(m[postFieldEdited]),
			EditedBy: parseInt(m[postFieldEditor]),
		},
		RevisionCount: parseInt(m[postFieldRevisionCount]),
	}
}

func (r *postRepository) Get(ctx context.Context, pid int64) (*domain.Post, error) {
	m, err := r.dao.Store.GetFieldMap(ctx, PostKey(pid))
	if err != nil {
		return nil, err
	}
	if len(m) == 0 {
		return nil, domain.ErrPostNotFound
	}
	return r.toDomain(pid, m), nil
}

func (r *postRepository) ApplyEdit(ctx context.Context, pid int64, editorUID int64, edit *domain.PostEdit, revisionCount int64) error {
	return r.dao.Store.SetFieldMap(ctx, PostKey(pid), map[string]string{
		postFieldPID:           formatInt(pid),
		postFieldContent:       edit.Content,
		postFieldEdited:        formatInt(edit.Edited),
		postFieldEditor:        formatInt(editorUID),
		postFieldRevisionCount: formatInt(revisionCount),
	})
}

func (r *postRepository) SetRevisionCount(ctx context.Context, pid int64, revisionCount int64) error {
	return r.dao.Store.UpdateFields(ctx, PostKey(pid), map[string]string{
		postFieldRevisionCount: formatInt(revisionCount),
	})
}
