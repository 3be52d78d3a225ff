package dao

import (
	"context"

	"github.com/haierkeys/post-revisions-service/internal/domain"
)

// topicRepository 实现 domain.TopicRepository 接口
type topicRepository struct {
	dao *Dao
}

// NewTopicRepository 创建 TopicRepository 实例
func NewTopicRepository(dao *Dao) domain.TopicRepository {
	return &topicRepository{dao: dao}
}

func (r *topicRepository) Get(ctx context.Context, tid int64) (*domain.Topic, error) {
	if tid <= 0 {
		return &domain.Topic{TID: tid}, nil
	}
	m, err := r.dao.Store.GetFieldMap(ctx, TopicKey(tid))
	if err != nil {
		return nil, err
	}
	return &domain.Topic{
		TID:   tid,
		CID:   parseInt(m["cid"]),
		UID:   parseInt(m["uid"]),
		Title: m["title"],
	}, nil
}

func (r *topicRepository) UpdateTitle(ctx context.Context, tid int64, title string) error {
	return r.dao.Store.SetFieldMap(ctx, TopicKey(tid), map[string]string{"title": title})
}
