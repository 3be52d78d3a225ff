package service

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/haierkeys/post-revisions-service/internal/dto"
	"github.com/haierkeys/post-revisions-service/pkg/logger"

	"go.uber.org/zap"
)

// SubmitFunc schedules fn and returns once it is queued; a nil SubmitFunc runs inline
// SubmitFunc 提交任务，排队成功即返回；为 nil 时同步执行
type SubmitFunc func(ctx context.Context, fn func(context.Context) error) error

// SweepLegacy migrates every post still stored in the legacy format.
// Reads migrate lazily anyway; this only shortens the window in which both formats exist.
//
// SweepLegacy 批量迁移仍为旧格式的帖子
func (s *revisionService) SweepLegacy(ctx context.Context, submit SubmitFunc) (*dto.SweepResultDTO, error) {
	if submit == nil {
		submit = func(ctx context.Context, fn func(context.Context) error) error { return fn(ctx) }
	}

	var scanned, migrated, failed atomic.Int64
	var wg sync.WaitGroup

	migrate := func(pid int64) func(context.Context) error {
		return func(ctx context.Context) error {
			defer wg.Done()
			if _, err := s.EnsureCurrentFormat(ctx, pid); err != nil {
				failed.Add(1)
				return err
			}
			migrated.Add(1)
			return nil
		}
	}

	err := s.revisionRepo.EachLegacy(ctx, func(pid int64) error {
		scanned.Add(1)
		wg.Add(1)
		if err := submit(ctx, migrate(pid)); err != nil {
			wg.Done()
			failed.Add(1)
			s.logger.Warn("legacy sweep submit failed", zap.Int64(logger.FieldPID, pid), zap.Error(err))
			return ctx.Err()
		}
		return nil
	})
	// a cancelled ctx may leave queued jobs unrun
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		if err == nil {
			err = ctx.Err()
		}
	}

	result := &dto.SweepResultDTO{
		Scanned:  scanned.Load(),
		Migrated: migrated.Load(),
		Failed:   failed.Load(),
	}
	if err != nil {
		return result, s.storeFailure(err, "sweep.scan", 0)
	}

	s.logger.Info("legacy sweep finished",
		zap.Int64("scanned", result.Scanned),
		zap.Int64("migrated", result.Migrated),
		zap.Int64("failed", result.Failed))
	return result, nil
}
