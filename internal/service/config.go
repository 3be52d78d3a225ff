package service

import "time"

// ServiceConfig service layer configuration
// ServiceConfig 服务层配置
type ServiceConfig struct {
	Revision RevisionServiceConfig // Revision related config // 修订历史相关配置
}

// RevisionServiceConfig revision service configuration
// RevisionServiceConfig 修订服务配置
type RevisionServiceConfig struct {
	SelfPurgeWindow time.Duration // Authors may purge revisions for this long after posting, 0 disables // 作者在发帖后该时长内可删除修订，0 表示禁止
	DiffEnabled     bool          // Attach diff spans to each entry // 为每个条目附加差异片段
	MigrateTimeout  time.Duration // Budget of one shared lazy migration, 0 means DefaultMigrateTimeout // 单次共享迁移的超时
}

// DefaultMigrateTimeout bounds a lazy migration once it no longer follows the first caller's context
const DefaultMigrateTimeout = 10 * time.Second
