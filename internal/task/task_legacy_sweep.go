package task

import (
	"context"
	"time"

	"github.com/haierkeys/post-revisions-service/internal/app"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
)

// LegacySweepTask migrates remaining legacy histories on a cron schedule
// LegacySweepTask 按 cron 计划批量迁移旧格式历史
type LegacySweepTask struct {
	app      *app.App
	schedule cron.Schedule
}

const legacySweepTaskName = "LegacyRevisionSweep"

// Name 返回任务名称
func (t *LegacySweepTask) Name() string {
	return legacySweepTaskName
}

// Next 返回下一次执行时间
func (t *LegacySweepTask) Next(now time.Time) time.Time {
	return t.schedule.Next(now)
}

// IsStartupRun 启动时不执行，读取路径会按需迁移
func (t *LegacySweepTask) IsStartupRun() bool {
	return false
}

// Run 执行一次批量迁移
func (t *LegacySweepTask) Run(ctx context.Context) error {
	if t.app.IsShuttingDown() {
		return nil
	}
	_, err := t.app.SweepLegacy(ctx)
	return err
}

// ParseSchedule 解析五段式 cron 表达式
func ParseSchedule(expr string) (cron.Schedule, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	schedule, err := parser.Parse(expr)
	if err != nil {
		return nil, errors.Wrapf(err, "parse cron %q", expr)
	}
	return schedule, nil
}

// NewLegacySweepTask 创建批量迁移任务，未启用时返回 nil
func NewLegacySweepTask(appContainer *app.App) (Task, error) {
	cfg := appContainer.Config().Revision
	if !cfg.SweepEnabled || cfg.SweepCron == "" {
		return nil, nil
	}
	schedule, err := ParseSchedule(cfg.SweepCron)
	if err != nil {
		return nil, err
	}
	return &LegacySweepTask{app: appContainer, schedule: schedule}, nil
}

func init() {
	Register(legacySweepTaskName, NewLegacySweepTask)
}
