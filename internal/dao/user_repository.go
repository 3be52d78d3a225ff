package dao

import (
	"context"

	"github.com/haierkeys/post-revisions-service/internal/domain"
)

// FormerUsername 已删除或不存在用户的展示名
const FormerUsername = "[[global:former_user]]"

// userRepository 实现 domain.UserRepository 接口
type userRepository struct {
	dao *Dao
}

// NewUserRepository 创建 UserRepository 实例
func NewUserRepository(dao *Dao) domain.UserRepository {
	return &userRepository{dao: dao}
}

// GetProfiles 一次读取全部用户，保持输入顺序
func (r *userRepository) GetProfiles(ctx context.Context, uids []int64) ([]*domain.UserProfile, error) {
	keys := make([]string, len(uids))
	for i, uid := range uids {
		keys[i] = UserKey(uid)
	}
	maps, err := r.dao.Store.GetFieldMaps(ctx, keys)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.UserProfile, len(uids))
	for i, m := range maps {
		if uids[i] <= 0 || len(m) == 0 {
			out[i] = &domain.UserProfile{Username: FormerUsername}
			continue
		}
		out[i] = &domain.UserProfile{
			UID:      uids[i],
			Username: m["username"],
			Userslug: m["userslug"],
			Picture:  m["picture"],
		}
	}
	return out, nil
}

func (r *userRepository) GetSettings(ctx context.Context, uid int64) (*domain.UserSettings, error) {
	if uid <= 0 {
		return &domain.UserSettings{}, nil
	}
	m, err := r.dao.Store.GetFieldMap(ctx, UserSettingsKey(uid))
	if err != nil {
		return nil, err
	}
	return &domain.UserSettings{
		PostEditHistoryVisible: parseInt(m[FieldPostEditHistoryVisible]) == 1,
	}, nil
}

func (r *userRepository) SaveSettings(ctx context.Context, uid int64, settings *domain.UserSettings) error {
	v := "0"
	if settings.PostEditHistoryVisible {
		v = "1"
	}
	return r.dao.Store.SetFieldMap(ctx, UserSettingsKey(uid), map[string]string{FieldPostEditHistoryVisible: v})
}
