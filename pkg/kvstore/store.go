// Package kvstore defines the key-value primitives the revision engine is built on
// Package kvstore 定义修订引擎所依赖的键值存储原语
//
// A backend offers three value shapes under a string key: a field map (hash),
// a time-ordered collection (sorted set, integer score) and a plain set.
// 后端在字符串键下提供三种结构：字段映射（hash）、按时间排序的集合（sorted set）以及普通集合。
package kvstore

import (
	"context"
	"errors"
)

type Type = string

const (
	Redis    Type = "redis"
	Badger   Type = "badger"
	SQLite   Type = "sqlite"
	MySQL    Type = "mysql"
	Postgres Type = "postgres"
)

var TypeMap = map[Type]bool{
	Redis:    true,
	Badger:   true,
	SQLite:   true,
	MySQL:    true,
	Postgres: true,
}

// ErrUnsupportedType is returned by the factory for an unknown backend type
// ErrUnsupportedType 未知的存储类型
var ErrUnsupportedType = errors.New("kvstore: unsupported store type")

// ScoredMember is one element of a time-ordered collection
// ScoredMember 有序集合中的一个元素
type ScoredMember struct {
	Score  int64
	Member string
}

// Store is the adapter every backend implements.
// All methods are safe for concurrent use.
//
// Store 是所有后端需要实现的适配接口，所有方法均并发安全
type Store interface {
	// GetFieldMap returns every field of a hash, empty map when the key is absent
	// GetFieldMap 读取 hash 全部字段，键不存在时返回空 map
	GetFieldMap(ctx context.Context, key string) (map[string]string, error)

	// GetFieldMaps reads several hashes in one round trip, preserving input order
	// GetFieldMaps 一次读取多个 hash，结果顺序与输入一致
	GetFieldMaps(ctx context.Context, keys []string) ([]map[string]string, error)

	// SetFieldMap writes all given fields atomically
	// SetFieldMap 原子写入所有字段
	SetFieldMap(ctx context.Context, key string, fields map[string]string) error

	// SetFieldMapAndDeleteKeys writes fields into key and then deletes dropKeys as one atomic batch
	// SetFieldMapAndDeleteKeys 写入字段后删除 dropKeys，整体作为一个原子批次
	SetFieldMapAndDeleteKeys(ctx context.Context, key string, fields map[string]string, dropKeys ...string) error

	// UpdateFields writes set and removes del from one hash atomically
	// UpdateFields 原子地写入 set 并删除 del 字段
	UpdateFields(ctx context.Context, key string, set map[string]string, del ...string) error

	// CountFields returns the number of fields in a hash
	// CountFields 返回 hash 字段数量
	CountFields(ctx context.Context, key string) (int64, error)

	// DeleteField removes a single field from a hash. Part of the adapter
	// contract; the revision paths batch deletions through UpdateFields.
	// DeleteField 删除 hash 中的单个字段
	DeleteField(ctx context.Context, key string, field string) error

	// DeleteKeys removes whole keys of any shape
	// DeleteKeys 删除任意结构的键
	DeleteKeys(ctx context.Context, keys ...string) error

	// AddTimeOrdered adds (or re-scores) a member. The service only reads and
	// drops the legacy collection; writers are external and the test fixtures.
	// AddTimeOrdered 添加成员（已存在则更新分值）
	AddTimeOrdered(ctx context.Context, key string, score int64, member string) error

	// GetTimeOrderedRange returns members ascending by score, start/stop are inclusive ranks, negative counts from the end
	// GetTimeOrderedRange 按分值升序返回成员，start/stop 为闭区间排名，负数表示从尾部计数
	GetTimeOrderedRange(ctx context.Context, key string, start, stop int64) ([]ScoredMember, error)

	// IsSetMember reports set membership
	// IsSetMember 判断集合成员
	IsSetMember(ctx context.Context, key string, member string) (bool, error)

	// AddSetMembers adds members to a set
	// AddSetMembers 向集合添加成员
	AddSetMembers(ctx context.Context, key string, members ...string) error

	// ScanKeys calls fn for every key matching a glob pattern (only '*' is used by callers)
	// ScanKeys 遍历匹配 glob 模式的键
	ScanKeys(ctx context.Context, match string, fn func(key string) error) error

	Ping(ctx context.Context) error
	Close() error
}

// RangeBounds converts redis-style inclusive rank bounds into a [lo, hi) slice window over n elements.
// ok is false when the window is empty.
// RangeBounds 将 redis 风格的闭区间排名转换为长度为 n 的切片窗口 [lo, hi)
func RangeBounds(n int, start, stop int64) (lo, hi int, ok bool) {
	size := int64(n)
	if start < 0 {
		start += size
	}
	if stop < 0 {
		stop += size
	}
	if start < 0 {
		start = 0
	}
	if stop >= size {
		stop = size - 1
	}
	if size == 0 || start > stop || start >= size {
		return 0, 0, false
	}
	return int(start), int(stop) + 1, true
}
