// Package app 提供应用容器，封装所有依赖和服务
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/haierkeys/post-revisions-service/internal/dao"
	"github.com/haierkeys/post-revisions-service/internal/domain"
	"github.com/haierkeys/post-revisions-service/internal/dto"
	"github.com/haierkeys/post-revisions-service/internal/service"
	pkgapp "github.com/haierkeys/post-revisions-service/pkg/app"
	"github.com/haierkeys/post-revisions-service/pkg/kvstore"
	"github.com/haierkeys/post-revisions-service/pkg/logger"
	"github.com/haierkeys/post-revisions-service/pkg/workerpool"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// App 应用容器，封装所有依赖和服务
type App struct {
	// 基础设施（注入的依赖）
	config *AppConfig
	logger *zap.Logger
	Store  kvstore.Store
	Dao    *dao.Dao

	// 并发控制组件
	workerPool *workerpool.Pool

	// Repository 层
	RevisionRepo  domain.RevisionRepository
	PostRepo      domain.PostRepository
	TopicRepo     domain.TopicRepository
	UserRepo      domain.UserRepository
	PrivilegeRepo domain.PrivilegeRepository

	// Service 层
	RevisionService service.RevisionService

	// 基础设施组件
	TokenManager pkgapp.TokenManager

	// 关闭控制
	shutdownCh chan struct{}
	wg         sync.WaitGroup
}

// NewApp 创建应用容器实例
// 初始化所有依赖并进行依赖注入
// cfg: 应用配置（必须）
// logger: zap 日志器（必须）
// store: 键值存储（必须），容器关闭时一并关闭
func NewApp(cfg *AppConfig, logger *zap.Logger, store kvstore.Store) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}

	a := &App{
		config:     cfg,
		logger:     logger,
		Store:      store,
		shutdownCh: make(chan struct{}),
	}

	// 初始化 Worker Pool
	wpConfig := cfg.GetWorkerPoolConfig()
	a.workerPool = workerpool.New(&wpConfig, logger)

	a.Dao = dao.New(store, logger)

	a.TokenManager = pkgapp.NewTokenManager(pkgapp.TokenConfig{
		SecretKey: cfg.Security.AuthTokenKey,
		Expiry:    cfg.GetTokenExpiry(),
	})

	// 初始化 Repository 层
	a.RevisionRepo = dao.NewRevisionRepository(a.Dao)
	a.PostRepo = dao.NewPostRepository(a.Dao)
	a.TopicRepo = dao.NewTopicRepository(a.Dao)
	a.UserRepo = dao.NewUserRepository(a.Dao)
	a.PrivilegeRepo = dao.NewPrivilegeRepository(a.Dao)

	// 初始化 Service 层（依赖注入）
	a.RevisionService = service.NewRevisionService(
		a.RevisionRepo, a.PostRepo, a.TopicRepo, a.UserRepo, a.PrivilegeRepo,
		logger, cfg.GetRevisionServiceConfig())

	logger.Info("App container initialized successfully",
		zap.String("store", cfg.Store.Type),
		zap.Int("workerPoolMaxWorkers", wpConfig.MaxWorkers))

	return a, nil
}

// Close 释放应用容器持有的资源
func (a *App) Close() error {
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			return fmt.Errorf("failed to close store: %w", err)
		}
		a.logger.Info("Store connection closed")
	}
	return nil
}

// Config 获取应用配置
func (a *App) Config() *AppConfig {
	return a.config
}

// Logger 获取日志器
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// SubmitTaskAsync 提交任务到 Worker Pool，排队成功即返回
func (a *App) SubmitTaskAsync(ctx context.Context, task func(context.Context) error) error {
	return a.workerPool.Go(ctx, task)
}

// Version 获取版本信息
func (a *App) Version() pkgapp.VersionInfo {
	return BuildInfo()
}

// WorkerPool 获取 Worker Pool（用于高级操作）
func (a *App) WorkerPool() *workerpool.Pool {
	return a.workerPool
}

// SweepLegacy runs one legacy sweep through the worker pool and tracks it for shutdown
// SweepLegacy 通过 Worker Pool 执行一次旧格式批量迁移
func (a *App) SweepLegacy(ctx context.Context) (*dto.SweepResultDTO, error) {
	defer a.TrackOperation()()

	ctx, cancel := context.WithTimeout(ctx, a.config.GetSweepTimeout())
	defer cancel()

	return a.RevisionService.SweepLegacy(ctx, a.SubmitTaskAsync)
}

// DefaultShutdownTimeout 默认关闭超时时间
const DefaultShutdownTimeout = 30 * time.Second

// Shutdown stops the container in dependency order: tracked operations such as a running
// sweep finish first since they feed the worker pool, then the pool drains, then the store
// closes. A nil ctx gets DefaultShutdownTimeout. Calls after the first return nil.
//
// Shutdown 按依赖顺序关闭：进行中的操作 -> Worker Pool -> Store
func (a *App) Shutdown(ctx context.Context) error {
	select {
	case <-a.shutdownCh:
		return nil
	default:
		close(a.shutdownCh)
	}
	if ctx == nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
	}
	start := time.Now()
	a.logger.Info("app shutting down")

	var err error

	ops := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(ops)
	}()
	select {
	case <-ops:
	case <-ctx.Done():
		err = multierr.Append(err, errors.Wrap(ctx.Err(), "waiting for running operations"))
	}

	if a.workerPool != nil {
		err = multierr.Append(err, errors.Wrap(a.workerPool.Shutdown(ctx), "worker pool"))
	}
	err = multierr.Append(err, a.Close())

	if err != nil {
		a.logger.Warn("app shutdown finished with errors",
			zap.Int("errorCount", len(multierr.Errors(err))),
			zap.Error(err),
			zap.Duration(logger.FieldDuration, time.Since(start)))
		return err
	}
	a.logger.Info("app shutdown finished", zap.Duration(logger.FieldDuration, time.Since(start)))
	return nil
}

// IsShuttingDown 检查应用是否正在关闭
func (a *App) IsShuttingDown() bool {
	select {
	case <-a.shutdownCh:
		return true
	default:
		return false
	}
}

// TrackOperation 跟踪后台操作（用于优雅关闭时等待）
// 返回一个函数，在操作完成时调用
func (a *App) TrackOperation() func() {
	a.wg.Add(1)
	return func() {
		a.wg.Done()
	}
}
