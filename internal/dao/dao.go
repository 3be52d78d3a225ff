// Package dao 实现数据访问层
package dao

import (
	"strconv"

	"github.com/haierkeys/post-revisions-service/pkg/kvstore"
	"github.com/haierkeys/post-revisions-service/pkg/kvstore/badgerstore"
	"github.com/haierkeys/post-revisions-service/pkg/kvstore/redisstore"
	"github.com/haierkeys/post-revisions-service/pkg/kvstore/sqlstore"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Dao 数据访问对象，持有存储连接
type Dao struct {
	Store  kvstore.Store
	logger *zap.Logger
}

// New 创建 Dao
func New(store kvstore.Store, logger *zap.Logger) *Dao {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dao{Store: store, logger: logger}
}

// StoreConfig 存储配置
type StoreConfig struct {
	// Type redis / badger / sqlite / mysql / postgres
	Type   string             `yaml:"type" default:"redis"`
	Redis  redisstore.Config  `yaml:"redis"`
	Badger badgerstore.Config `yaml:"badger"`
	// Database sqlite / mysql / postgres 共用，Type 由外层决定
	Database sqlstore.Config `yaml:"database"`
}

// NewStore opens the backend selected by c.Type
// NewStore 根据类型打开存储后端
func NewStore(c StoreConfig, logger *zap.Logger) (kvstore.Store, error) {
	if !kvstore.TypeMap[c.Type] {
		return nil, errors.Wrap(kvstore.ErrUnsupportedType, c.Type)
	}
	switch c.Type {
	case kvstore.Redis:
		return redisstore.New(c.Redis)
	case kvstore.Badger:
		return badgerstore.Open(c.Badger, logger)
	default:
		db := c.Database
		db.Type = c.Type
		return sqlstore.Open(db)
	}
}

func parseInt(s string) int64 {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		if f, ferr := strconv.ParseFloat(s, 64); ferr == nil {
			return int64(f)
		}
		return 0
	}
	return n
}

func formatInt(n int64) string {
	return strconv.FormatInt(n, 10)
}
