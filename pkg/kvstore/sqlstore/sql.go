// Package sqlstore implements kvstore.Store on a relational database through gorm.
// Package sqlstore 通过 gorm 在关系型数据库上实现 kvstore.Store
package sqlstore

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/haierkeys/post-revisions-service/pkg/kvstore"

	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// Config 数据库配置
type Config struct {
	// Type sqlite / mysql / postgres
	Type string `yaml:"type" default:"sqlite"`
	// Path sqlite 文件路径，":memory:" 为内存库
	Path     string `yaml:"path" default:"storage/database/revisions.db"`
	UserName string `yaml:"username"`
	Password string `yaml:"password"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	Charset  string `yaml:"charset" default:"utf8mb4"`
	SSLMode  string `yaml:"ssl-mode" default:"disable"`

	// MaxIdleConns 连接池中空闲连接的最大数量
	MaxIdleConns int `yaml:"max-idle-conns" default:"10"`
	// MaxOpenConns 打开数据库连接的最大数量
	MaxOpenConns int  `yaml:"max-open-conns" default:"50"`
	Debug        bool `yaml:"debug"`
}

// HashRow 字段映射的一行
type HashRow struct {
	K     string `gorm:"column:k;primaryKey;size:191"`
	Field string `gorm:"column:field;primaryKey;size:191"`
	Value string `gorm:"column:value;type:text"`
}

func (HashRow) TableName() string { return "kv_hash" }

// ZSetRow 有序集合的一行
type ZSetRow struct {
	K      string `gorm:"column:k;primaryKey;size:191"`
	Member string `gorm:"column:member;primaryKey;size:191"`
	Score  int64  `gorm:"column:score;index"`
}

func (ZSetRow) TableName() string { return "kv_zset" }

// SetRow 集合的一行
type SetRow struct {
	K      string `gorm:"column:k;primaryKey;size:191"`
	Member string `gorm:"column:member;primaryKey;size:191"`
}

func (SetRow) TableName() string { return "kv_set" }

// Store implements kvstore.Store with three tables
type Store struct {
	db *gorm.DB
}

var _ kvstore.Store = (*Store)(nil)

// Open connects, tunes the pool and migrates the tables
// Open 建立连接，设置连接池并迁移表结构
func Open(c Config) (*Store, error) {
	dialector, err := dialector(c)
	if err != nil {
		return nil, err
	}

	logMode := logger.Silent
	if c.Debug {
		logMode = logger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logMode),
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
		},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open %s database", c.Type)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "get sql.DB")
	}
	sqlDB.SetMaxIdleConns(c.MaxIdleConns)
	sqlDB.SetMaxOpenConns(c.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Minute * 10)

	// 内存 sqlite 每个连接是独立的库
	if c.Type == kvstore.SQLite && isMemory(c.Path) {
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
	}

	return New(db)
}

// New wraps an opened gorm handle and migrates the tables
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&HashRow{}, &ZSetRow{}, &SetRow{}); err != nil {
		return nil, errors.Wrap(err, "auto migrate kv tables")
	}
	return &Store{db: db}, nil
}

func isMemory(p string) bool {
	return p == ":memory:" || strings.Contains(p, "mode=memory")
}

func dialector(c Config) (gorm.Dialector, error) {
	switch c.Type {
	case kvstore.MySQL:
		return mysql.Open(fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=true&loc=Local",
			c.UserName, c.Password, c.Host, portOr(c.Port, 3306), c.Name, c.Charset)), nil
	case kvstore.Postgres:
		return postgres.Open(fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
			c.Host, c.UserName, c.Password, c.Name, portOr(c.Port, 5432), c.SSLMode)), nil
	case kvstore.SQLite:
		if !isMemory(c.Path) {
			if err := os.MkdirAll(filepath.Dir(c.Path), os.ModePerm); err != nil {
				return nil, errors.Wrap(err, "create sqlite directory")
			}
		}
		return sqlite.Open(c.Path), nil
	}
	return nil, errors.Wrap(kvstore.ErrUnsupportedType, c.Type)
}

func portOr(p, def int) int {
	if p > 0 {
		return p
	}
	return def
}

func (s *Store) GetFieldMap(ctx context.Context, key string) (map[string]string, error) {
	var rows []HashRow
	if err := s.db.WithContext(ctx).Where("k = ?", key).Find(&rows).Error; err != nil {
		return nil, errors.Wrapf(err, "read hash %s", key)
	}
	out := make(map[string]string, len(rows))
	for _, r := range rows {
		out[r.Field] = r.Value
	}
	return out, nil
}

func (s *Store) GetFieldMaps(ctx context.Context, keys []string) ([]map[string]string, error) {
	out := make([]map[string]string, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	var rows []HashRow
	if err := s.db.WithContext(ctx).Where("k IN ?", keys).Find(&rows).Error; err != nil {
		return nil, errors.Wrap(err, "read hashes")
	}
	byKey := make(map[string]map[string]string, len(keys))
	for _, r := range rows {
		m, ok := byKey[r.K]
		if !ok {
			m = make(map[string]string)
			byKey[r.K] = m
		}
		m[r.Field] = r.Value
	}
	for i, k := range keys {
		if m, ok := byKey[k]; ok {
			out[i] = m
		} else {
			out[i] = map[string]string{}
		}
	}
	return out, nil
}

func (s *Store) SetFieldMap(ctx context.Context, key string, fields map[string]string) error {
	return s.SetFieldMapAndDeleteKeys(ctx, key, fields)
}

// SetFieldMapAndDeleteKeys upserts the fields and deletes dropKeys in one transaction
// SetFieldMapAndDeleteKeys 在一个事务中写入字段并删除 dropKeys
func (s *Store) SetFieldMapAndDeleteKeys(ctx context.Context, key string, fields map[string]string, dropKeys ...string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(fields) > 0 {
			rows := make([]HashRow, 0, len(fields))
			for f, v := range fields {
				rows = append(rows, HashRow{K: key, Field: f, Value: v})
			}
			if err := upsertHash(tx, rows); err != nil {
				return err
			}
		}
		if len(dropKeys) > 0 {
			return deleteKeys(tx, dropKeys)
		}
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "write hash %s", key)
	}
	return nil
}

func (s *Store) UpdateFields(ctx context.Context, key string, set map[string]string, del ...string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(del) > 0 {
			if err := tx.Where("k = ? AND field IN ?", key, del).Delete(&HashRow{}).Error; err != nil {
				return err
			}
		}
		if len(set) == 0 {
			return nil
		}
		rows := make([]HashRow, 0, len(set))
		for f, v := range set {
			rows = append(rows, HashRow{K: key, Field: f, Value: v})
		}
		return upsertHash(tx, rows)
	})
	if err != nil {
		return errors.Wrapf(err, "update hash %s", key)
	}
	return nil
}

func upsertHash(tx *gorm.DB, rows []HashRow) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "k"}, {Name: "field"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&rows).Error
}

func (s *Store) CountFields(ctx context.Context, key string) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&HashRow{}).Where("k = ?", key).Count(&n).Error; err != nil {
		return 0, errors.Wrapf(err, "count hash %s", key)
	}
	return n, nil
}

func (s *Store) DeleteField(ctx context.Context, key string, field string) error {
	if err := s.db.WithContext(ctx).Where("k = ? AND field = ?", key, field).Delete(&HashRow{}).Error; err != nil {
		return errors.Wrapf(err, "delete field %s %s", key, field)
	}
	return nil
}

func deleteKeys(tx *gorm.DB, keys []string) error {
	for _, model := range []any{&HashRow{}, &ZSetRow{}, &SetRow{}} {
		if err := tx.Where("k IN ?", keys).Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) DeleteKeys(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteKeys(tx, keys)
	})
	if err != nil {
		return errors.Wrapf(err, "delete keys %v", keys)
	}
	return nil
}

func (s *Store) AddTimeOrdered(ctx context.Context, key string, score int64, member string) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "k"}, {Name: "member"}},
		DoUpdates: clause.AssignmentColumns([]string{"score"}),
	}).Create(&ZSetRow{K: key, Member: member, Score: score}).Error
	if err != nil {
		return errors.Wrapf(err, "zadd %s", key)
	}
	return nil
}

func (s *Store) GetTimeOrderedRange(ctx context.Context, key string, start, stop int64) ([]kvstore.ScoredMember, error) {
	var rows []ZSetRow
	err := s.db.WithContext(ctx).Where("k = ?", key).Order("score ASC").Order("member ASC").Find(&rows).Error
	if err != nil {
		return nil, errors.Wrapf(err, "zrange %s", key)
	}
	lo, hi, ok := kvstore.RangeBounds(len(rows), start, stop)
	if !ok {
		return []kvstore.ScoredMember{}, nil
	}
	out := make([]kvstore.ScoredMember, 0, hi-lo)
	for _, r := range rows[lo:hi] {
		out = append(out, kvstore.ScoredMember{Score: r.Score, Member: r.Member})
	}
	return out, nil
}

func (s *Store) IsSetMember(ctx context.Context, key string, member string) (bool, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&SetRow{}).Where("k = ? AND member = ?", key, member).Count(&n).Error; err != nil {
		return false, errors.Wrapf(err, "sismember %s", key)
	}
	return n > 0, nil
}

func (s *Store) AddSetMembers(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	rows := make([]SetRow, 0, len(members))
	for _, m := range members {
		rows = append(rows, SetRow{K: key, Member: m})
	}
	if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error; err != nil {
		return errors.Wrapf(err, "sadd %s", key)
	}
	return nil
}

// ScanKeys translates the glob into LIKE and re-checks each candidate with path.Match,
// so LIKE wildcards inside a literal pattern only widen the candidate set
// ScanKeys 将 glob 转换为 LIKE 查询，并用 path.Match 再次校验
func (s *Store) ScanKeys(ctx context.Context, match string, fn func(key string) error) error {
	like := strings.NewReplacer("*", "%", "?", "_").Replace(match)
	seen := make(map[string]struct{})
	var keys []string
	for _, model := range []any{&HashRow{}, &ZSetRow{}, &SetRow{}} {
		var found []string
		if err := s.db.WithContext(ctx).Model(model).Distinct("k").Where("k LIKE ?", like).Pluck("k", &found).Error; err != nil {
			return errors.Wrapf(err, "scan %s", match)
		}
		for _, k := range found {
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			if ok, _ := path.Match(match, k); ok {
				keys = append(keys, k)
			}
		}
	}
	for _, k := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(k); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
