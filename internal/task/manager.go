// Package task 后台定时任务
package task

import (
	"github.com/haierkeys/post-revisions-service/internal/app"
	"github.com/haierkeys/post-revisions-service/pkg/safe_close"

	"go.uber.org/zap"
)

// Manager 任务管理器,负责创建和管理所有任务
type Manager struct {
	scheduler *Scheduler
	logger    *zap.Logger
	app       *app.App
}

// NewManager 创建任务管理器
func NewManager(logger *zap.Logger, sc *safe_close.SafeClose, appContainer *app.App) *Manager {
	return &Manager{
		scheduler: NewScheduler(logger, sc),
		logger:    logger,
		app:       appContainer,
	}
}

// RegisterTasks builds every registered task and hands the enabled ones to the scheduler
// RegisterTasks 构建所有已注册任务，启用的交给调度器
func (m *Manager) RegisterTasks() error {
	for _, r := range registrations() {
		t, err := r.factory(m.app)
		if err != nil {
			m.logger.Warn("failed to create task", zap.String("task", r.name), zap.Error(err))
			return err
		}
		if t == nil {
			m.logger.Info("task disabled", zap.String("task", r.name))
			continue
		}
		m.scheduler.AddTask(t)
	}
	return nil
}

// Start 启动所有已注册的任务
func (m *Manager) Start() {
	m.scheduler.Start()
}
