package dao

import (
	"context"

	"github.com/haierkeys/post-revisions-service/internal/domain"
)

// privilegeRepository 实现 domain.PrivilegeRepository 接口
type privilegeRepository struct {
	dao *Dao
}

// NewPrivilegeRepository 创建 PrivilegeRepository 实例
func NewPrivilegeRepository(dao *Dao) domain.PrivilegeRepository {
	return &privilegeRepository{dao: dao}
}

func (r *privilegeRepository) IsAdministrator(ctx context.Context, uid int64) (bool, error) {
	if uid <= 0 {
		return false, nil
	}
	return r.dao.Store.IsSetMember(ctx, AdministratorsKey(), formatInt(uid))
}

func (r *privilegeRepository) IsModerator(ctx context.Context, cid int64, uid int64) (bool, error) {
	if uid <= 0 || cid <= 0 {
		return false, nil
	}
	return r.dao.Store.IsSetMember(ctx, ModeratorsKey(cid), formatInt(uid))
}
