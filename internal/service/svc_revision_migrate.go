package service

import (
	"context"
	"strconv"
	"time"

	"github.com/haierkeys/post-revisions-service/internal/domain"
	"github.com/haierkeys/post-revisions-service/pkg/logger"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// EnsureCurrentFormat returns the current-format history, converting legacy data on first touch.
//
// Concurrent callers for the same pid in this process share one migration. The shared work runs
// detached from every caller's cancellation under its own MigrateTimeout, and each caller stops
// waiting when its own ctx ends. Across processes the conversion is a single atomic
// write-and-delete, so a racer either still sees the legacy key and rewrites the same fields,
// or already sees the current format.
//
// EnsureCurrentFormat 返回新格式历史，首次访问时转换旧格式数据
func (s *revisionService) EnsureCurrentFormat(ctx context.Context, pid int64) (*domain.StoredHistory, error) {
	if pid <= 0 {
		return nil, ErrInvalidPostID
	}

	shared := context.WithoutCancel(ctx)
	ch := s.sf.DoChan(strconv.FormatInt(pid, 10), func() (any, error) {
		ctx, cancel := context.WithTimeout(shared, s.migrateTimeout())
		defer cancel()
		return s.ensureCurrentFormat(ctx, pid)
	})

	select {
	case <-ctx.Done():
		return nil, errors.Wrapf(ctx.Err(), "wait migration pid:%d", pid)
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.StoredHistory), nil
	}
}

func (s *revisionService) migrateTimeout() time.Duration {
	if s.config.MigrateTimeout > 0 {
		return s.config.MigrateTimeout
	}
	return DefaultMigrateTimeout
}

func (s *revisionService) ensureCurrentFormat(ctx context.Context, pid int64) (*domain.StoredHistory, error) {
	current, err := s.revisionRepo.Load(ctx, pid)
	if err != nil {
		return nil, s.storeFailure(err, "migrate.load", pid)
	}
	s.reportCorrupt(pid, "current", current.Corrupt)
	if current.Exists {
		return current, nil
	}

	legacy, err := s.revisionRepo.LoadLegacy(ctx, pid)
	if err != nil {
		return nil, s.storeFailure(err, "migrate.loadLegacy", pid)
	}
	s.reportCorrupt(pid, "legacy", legacy.Corrupt)
	if !legacy.Exists {
		return current, nil
	}

	if err := s.revisionRepo.ReplaceLegacy(ctx, pid, legacy.Entries); err != nil {
		return nil, s.storeFailure(err, "migrate.replace", pid)
	}
	migratedPosts.Inc()
	migratedEntries.Add(float64(len(legacy.Entries)))

	s.logger.Info("legacy revision history migrated",
		zap.Int64(logger.FieldPID, pid),
		zap.Int("entries", len(legacy.Entries)),
		zap.Int("dropped", len(legacy.Corrupt)))

	return &domain.StoredHistory{
		Entries: legacy.Entries,
		Exists:  len(legacy.Entries) > 0,
	}, nil
}

// reportCorrupt logs and counts entries that were skipped
// reportCorrupt 记录被跳过的损坏条目
func (s *revisionService) reportCorrupt(pid int64, format string, corrupt []domain.CorruptEntry) {
	for _, c := range corrupt {
		corruptEntries.WithLabelValues(format).Inc()
		s.logger.Warn("skip corrupt revision",
			zap.Int64(logger.FieldPID, pid),
			zap.String("format", format),
			zap.String("field", c.Field),
			zap.Error(c.Err))
	}
}
