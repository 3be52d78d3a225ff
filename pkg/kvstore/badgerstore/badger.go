// Package badgerstore implements kvstore.Store on an embedded BadgerDB.
//
// Every logical structure is flattened onto ordered badger keys:
//
//	h\x00<key>\x00<field>              -> value
//	z\x00<key>\x00<score:8 bytes><member> -> member
//	s\x00<key>\x00<member>             -> empty
//
// Scores are stored big-endian with the sign bit flipped so byte order equals numeric order.
// User keys never contain \x00.
package badgerstore

import (
	"bytes"
	"context"
	"encoding/binary"
	"path"
	"strings"
	"time"

	"github.com/haierkeys/post-revisions-service/pkg/kvstore"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Config BadgerDB 配置
type Config struct {
	// Path 数据目录，InMemory 为 true 时忽略
	Path string `yaml:"path" default:"storage/badger"`
	// InMemory 内存模式（测试用）
	InMemory bool `yaml:"in-memory"`
	// SyncWrites 同步写入
	SyncWrites bool `yaml:"sync-writes" default:"true"`
	// GCInterval value log GC 间隔，0 表示关闭
	GCInterval time.Duration `yaml:"gc-interval" default:"5m"`
}

const (
	kindHash byte = 'h'
	kindZSet byte = 'z'
	kindSet  byte = 's'
	sep      byte = 0
)

// Store implements kvstore.Store on badger
type Store struct {
	db     *badger.DB
	logger *zap.Logger
	stopGC chan struct{}
}

var _ kvstore.Store = (*Store)(nil)

// zapLogger adapts zap to badger.Logger
type zapLogger struct {
	l *zap.SugaredLogger
}

func (z *zapLogger) Errorf(f string, a ...interface{})   { z.l.Errorf(strings.TrimSpace(f), a...) }
func (z *zapLogger) Warningf(f string, a ...interface{}) { z.l.Warnf(strings.TrimSpace(f), a...) }
func (z *zapLogger) Infof(f string, a ...interface{})    { z.l.Debugf(strings.TrimSpace(f), a...) }
func (z *zapLogger) Debugf(f string, a ...interface{})   { z.l.Debugf(strings.TrimSpace(f), a...) }

// Open opens (or creates) the database
// Open 打开或创建数据库
func Open(cfg Config, logger *zap.Logger) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("badger path is required for persistent database")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(&zapLogger{l: logger.Named("badger").Sugar()})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "open badger database")
	}

	s := &Store{db: db, logger: logger, stopGC: make(chan struct{})}
	if !cfg.InMemory && cfg.GCInterval > 0 {
		go s.gcLoop(cfg.GCInterval)
	}
	return s, nil
}

func (s *Store) gcLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopGC:
			return
		case <-ticker.C:
			for s.db.RunValueLogGC(0.5) == nil {
			}
		}
	}
}

func prefix(kind byte, key string) []byte {
	b := make([]byte, 0, len(key)+3)
	b = append(b, kind, sep)
	b = append(b, key...)
	return append(b, sep)
}

func hashKey(key, field string) []byte {
	return append(prefix(kindHash, key), field...)
}

func setKey(key, member string) []byte {
	return append(prefix(kindSet, key), member...)
}

func encodeScore(score int64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(score)^(1<<63))
	return b[:]
}

func decodeScore(b []byte) int64 {
	return int64(binary.BigEndian.Uint64(b) ^ (1 << 63))
}

func zsetKey(key string, score int64, member string) []byte {
	b := append(prefix(kindZSet, key), encodeScore(score)...)
	return append(b, member...)
}

// iterate walks every item under p; keys passed to fn are copies
func iterate(txn *badger.Txn, p []byte, withValues bool, fn func(k, v []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = p
	opts.PrefetchValues = withValues
	it := txn.NewIterator(opts)
	defer it.Close()
	for it.Seek(p); it.ValidForPrefix(p); it.Next() {
		item := it.Item()
		k := item.KeyCopy(nil)
		var v []byte
		if withValues {
			var err error
			if v, err = item.ValueCopy(nil); err != nil {
				return err
			}
		}
		if err := fn(k, v); err != nil {
			return err
		}
	}
	return nil
}

func readHash(txn *badger.Txn, key string) (map[string]string, error) {
	p := prefix(kindHash, key)
	out := make(map[string]string)
	err := iterate(txn, p, true, func(k, v []byte) error {
		out[string(k[len(p):])] = string(v)
		return nil
	})
	return out, err
}

func (s *Store) GetFieldMap(ctx context.Context, key string) (map[string]string, error) {
	var out map[string]string
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		out, err = readHash(txn, key)
		return err
	})
	if err != nil {
		return nil, errors.Wrapf(err, "read hash %s", key)
	}
	return out, nil
}

func (s *Store) GetFieldMaps(ctx context.Context, keys []string) ([]map[string]string, error) {
	out := make([]map[string]string, len(keys))
	err := s.db.View(func(txn *badger.Txn) error {
		for i, key := range keys {
			m, err := readHash(txn, key)
			if err != nil {
				return err
			}
			out[i] = m
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "read hashes")
	}
	return out, nil
}

func (s *Store) SetFieldMap(ctx context.Context, key string, fields map[string]string) error {
	return s.SetFieldMapAndDeleteKeys(ctx, key, fields)
}

// SetFieldMapAndDeleteKeys commits the writes and deletions in one badger transaction
// SetFieldMapAndDeleteKeys 在同一个 badger 事务中完成写入与删除
func (s *Store) SetFieldMapAndDeleteKeys(ctx context.Context, key string, fields map[string]string, dropKeys ...string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		for f, v := range fields {
			if err := txn.Set(hashKey(key, f), []byte(v)); err != nil {
				return err
			}
		}
		for _, dk := range dropKeys {
			if err := deleteKey(txn, dk); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "write hash %s", key)
	}
	return nil
}

func (s *Store) UpdateFields(ctx context.Context, key string, set map[string]string, del ...string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		for _, f := range del {
			if err := txn.Delete(hashKey(key, f)); err != nil {
				return err
			}
		}
		for f, v := range set {
			if err := txn.Set(hashKey(key, f), []byte(v)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "update hash %s", key)
	}
	return nil
}

func (s *Store) CountFields(ctx context.Context, key string) (int64, error) {
	var n int64
	err := s.db.View(func(txn *badger.Txn) error {
		return iterate(txn, prefix(kindHash, key), false, func(_, _ []byte) error {
			n++
			return nil
		})
	})
	if err != nil {
		return 0, errors.Wrapf(err, "count hash %s", key)
	}
	return n, nil
}

func (s *Store) DeleteField(ctx context.Context, key string, field string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(hashKey(key, field))
	})
	if err != nil {
		return errors.Wrapf(err, "delete field %s %s", key, field)
	}
	return nil
}

func deleteKey(txn *badger.Txn, key string) error {
	for _, kind := range []byte{kindHash, kindZSet, kindSet} {
		var doomed [][]byte
		if err := iterate(txn, prefix(kind, key), false, func(k, _ []byte) error {
			doomed = append(doomed, k)
			return nil
		}); err != nil {
			return err
		}
		for _, k := range doomed {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Store) DeleteKeys(ctx context.Context, keys ...string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		for _, key := range keys {
			if err := deleteKey(txn, key); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "delete keys %v", keys)
	}
	return nil
}

func (s *Store) AddTimeOrdered(ctx context.Context, key string, score int64, member string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		// a member carries at most one score
		p := prefix(kindZSet, key)
		var stale [][]byte
		if err := iterate(txn, p, true, func(k, v []byte) error {
			if string(v) == member {
				stale = append(stale, k)
			}
			return nil
		}); err != nil {
			return err
		}
		for _, k := range stale {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return txn.Set(zsetKey(key, score, member), []byte(member))
	})
	if err != nil {
		return errors.Wrapf(err, "zadd %s", key)
	}
	return nil
}

func (s *Store) readZSet(txn *badger.Txn, key string) ([]kvstore.ScoredMember, error) {
	p := prefix(kindZSet, key)
	var out []kvstore.ScoredMember
	err := iterate(txn, p, true, func(k, v []byte) error {
		out = append(out, kvstore.ScoredMember{Score: decodeScore(k[len(p) : len(p)+8]), Member: string(v)})
		return nil
	})
	return out, err
}

func (s *Store) GetTimeOrderedRange(ctx context.Context, key string, start, stop int64) ([]kvstore.ScoredMember, error) {
	var all []kvstore.ScoredMember
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		all, err = s.readZSet(txn, key)
		return err
	})
	if err != nil {
		return nil, errors.Wrapf(err, "zrange %s", key)
	}
	lo, hi, ok := kvstore.RangeBounds(len(all), start, stop)
	if !ok {
		return []kvstore.ScoredMember{}, nil
	}
	return all[lo:hi], nil
}

func (s *Store) IsSetMember(ctx context.Context, key string, member string) (bool, error) {
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(setKey(key, member))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return false, errors.Wrapf(err, "sismember %s", key)
	}
	return found, nil
}

func (s *Store) AddSetMembers(ctx context.Context, key string, members ...string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		for _, m := range members {
			if err := txn.Set(setKey(key, m), nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "sadd %s", key)
	}
	return nil
}

// ScanKeys collects the distinct logical keys first, then calls fn outside the read transaction
// ScanKeys 先收集去重后的逻辑键，再在只读事务之外回调 fn
func (s *Store) ScanKeys(ctx context.Context, match string, fn func(key string) error) error {
	seen := make(map[string]struct{})
	var keys []string
	err := s.db.View(func(txn *badger.Txn) error {
		for _, kind := range []byte{kindHash, kindZSet, kindSet} {
			p := []byte{kind, sep}
			if err := iterate(txn, p, false, func(k, _ []byte) error {
				rest := k[len(p):]
				end := bytes.IndexByte(rest, sep)
				if end < 0 {
					return nil
				}
				key := string(rest[:end])
				if _, dup := seen[key]; dup {
					return nil
				}
				seen[key] = struct{}{}
				if ok, _ := path.Match(match, key); ok {
					keys = append(keys, key)
				}
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, "scan %s", match)
	}
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(key); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	if s.db.IsClosed() {
		return errors.New("badger database is closed")
	}
	return nil
}

func (s *Store) Close() error {
	close(s.stopGC)
	return s.db.Close()
}
