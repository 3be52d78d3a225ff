// Package redisstore implements kvstore.Store on top of Redis
// Package redisstore 基于 Redis 实现 kvstore.Store
package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/haierkeys/post-revisions-service/pkg/kvstore"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Config Redis 连接配置
type Config struct {
	URL          string        `yaml:"url" default:"redis://localhost:6379/0"`
	PoolSize     int           `yaml:"pool-size" default:"20"`
	DialTimeout  time.Duration `yaml:"dial-timeout" default:"5s"`
	ScanPageSize int64         `yaml:"scan-page-size" default:"500"`
}

// Store implements kvstore.Store using Redis hashes, sorted sets and sets
type Store struct {
	client   *redis.Client
	scanSize int64
}

var _ kvstore.Store = (*Store)(nil)

// New parses the URL, connects and pings the server
// New 解析连接地址，建立连接并检测连通性
func New(cfg Config) (*Store, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, errors.Wrap(err, "parse redis url")
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "connect to redis")
	}

	return NewWithClient(client, cfg.ScanPageSize), nil
}

// NewWithClient wraps an existing client
// NewWithClient 使用已有客户端创建 Store
func NewWithClient(client *redis.Client, scanPageSize int64) *Store {
	if scanPageSize <= 0 {
		scanPageSize = 500
	}
	return &Store{client: client, scanSize: scanPageSize}
}

func (s *Store) GetFieldMap(ctx context.Context, key string) (map[string]string, error) {
	m, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "hgetall %s", key)
	}
	return m, nil
}

func (s *Store) GetFieldMaps(ctx context.Context, keys []string) ([]map[string]string, error) {
	if len(keys) == 0 {
		return []map[string]string{}, nil
	}
	cmds := make([]*redis.MapStringStringCmd, len(keys))
	_, err := s.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		for i, key := range keys {
			cmds[i] = p.HGetAll(ctx, key)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "pipelined hgetall")
	}
	out := make([]map[string]string, len(keys))
	for i, cmd := range cmds {
		out[i] = cmd.Val()
	}
	return out, nil
}

func (s *Store) SetFieldMap(ctx context.Context, key string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	if err := s.client.HSet(ctx, key, toArgs(fields)...).Err(); err != nil {
		return errors.Wrapf(err, "hset %s", key)
	}
	return nil
}

// SetFieldMapAndDeleteKeys runs HSET + DEL inside MULTI/EXEC
// SetFieldMapAndDeleteKeys 在 MULTI/EXEC 事务中执行 HSET 与 DEL
func (s *Store) SetFieldMapAndDeleteKeys(ctx context.Context, key string, fields map[string]string, dropKeys ...string) error {
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		if len(fields) > 0 {
			p.HSet(ctx, key, toArgs(fields)...)
		}
		if len(dropKeys) > 0 {
			p.Del(ctx, dropKeys...)
		}
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "multi hset %s", key)
	}
	return nil
}

func (s *Store) UpdateFields(ctx context.Context, key string, set map[string]string, del ...string) error {
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		if len(set) > 0 {
			p.HSet(ctx, key, toArgs(set)...)
		}
		if len(del) > 0 {
			p.HDel(ctx, key, del...)
		}
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "multi hset/hdel %s", key)
	}
	return nil
}

func (s *Store) CountFields(ctx context.Context, key string) (int64, error) {
	n, err := s.client.HLen(ctx, key).Result()
	if err != nil {
		return 0, errors.Wrapf(err, "hlen %s", key)
	}
	return n, nil
}

func (s *Store) DeleteField(ctx context.Context, key string, field string) error {
	if err := s.client.HDel(ctx, key, field).Err(); err != nil {
		return errors.Wrapf(err, "hdel %s %s", key, field)
	}
	return nil
}

func (s *Store) DeleteKeys(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return errors.Wrapf(err, "del %v", keys)
	}
	return nil
}

func (s *Store) AddTimeOrdered(ctx context.Context, key string, score int64, member string) error {
	err := s.client.ZAdd(ctx, key, redis.Z{Score: float64(score), Member: member}).Err()
	if err != nil {
		return errors.Wrapf(err, "zadd %s", key)
	}
	return nil
}

func (s *Store) GetTimeOrderedRange(ctx context.Context, key string, start, stop int64) ([]kvstore.ScoredMember, error) {
	zs, err := s.client.ZRangeWithScores(ctx, key, start, stop).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "zrange %s", key)
	}
	out := make([]kvstore.ScoredMember, 0, len(zs))
	for _, z := range zs {
		member, ok := z.Member.(string)
		if !ok {
			member = fmt.Sprint(z.Member)
		}
		out = append(out, kvstore.ScoredMember{Score: int64(z.Score), Member: member})
	}
	return out, nil
}

func (s *Store) IsSetMember(ctx context.Context, key string, member string) (bool, error) {
	ok, err := s.client.SIsMember(ctx, key, member).Result()
	if err != nil {
		return false, errors.Wrapf(err, "sismember %s", key)
	}
	return ok, nil
}

func (s *Store) AddSetMembers(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	args := make([]any, len(members))
	for i, m := range members {
		args[i] = m
	}
	if err := s.client.SAdd(ctx, key, args...).Err(); err != nil {
		return errors.Wrapf(err, "sadd %s", key)
	}
	return nil
}

// ScanKeys iterates with SCAN so large keyspaces are never loaded at once
// ScanKeys 使用 SCAN 分批遍历键空间
func (s *Store) ScanKeys(ctx context.Context, match string, fn func(key string) error) error {
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, match, s.scanSize).Result()
		if err != nil {
			return errors.Wrapf(err, "scan %s", match)
		}
		for _, key := range keys {
			if err := fn(key); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}

func toArgs(fields map[string]string) []any {
	args := make([]any, 0, len(fields)*2)
	for f, v := range fields {
		args = append(args, f, v)
	}
	return args
}
