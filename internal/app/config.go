package app

import (
	"os"
	"path/filepath"
	"time"

	"github.com/haierkeys/post-revisions-service/internal/dao"
	"github.com/haierkeys/post-revisions-service/internal/service"
	"github.com/haierkeys/post-revisions-service/pkg/limiter"
	"github.com/haierkeys/post-revisions-service/pkg/logger"
	"github.com/haierkeys/post-revisions-service/pkg/util"
	"github.com/haierkeys/post-revisions-service/pkg/workerpool"

	"github.com/creasty/defaults"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// AppConfig 应用配置
type AppConfig struct {
	File       string            `yaml:"-"` // 配置文件路径，不序列化
	Server     ServerConfig      `yaml:"server"`
	Log        LogConfig         `yaml:"log"`
	Store      dao.StoreConfig   `yaml:"store"`
	Security   SecurityConfig    `yaml:"security"`
	Revision   RevisionConfig    `yaml:"revision"`
	WorkerPool workerpool.Config `yaml:"worker-pool"`
	Tracer     TracerConfig      `yaml:"tracer"`
	Limiter    LimiterConfig     `yaml:"limiter"`
}

// LogConfig 日志配置
type LogConfig struct {
	// Level 日志级别，参见 zapcore.ParseLevel
	Level string `yaml:"level" default:"info"`
	// File 日志文件路径，为空时只输出到 stderr
	File string `yaml:"file" default:"storage/logs/log.log"`
	// Production 是否启用 JSON 输出
	Production bool `yaml:"production" default:"true"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	// RunMode 运行模式
	RunMode string `yaml:"run-mode" default:"release"`
	// HttpPort HTTP 端口
	HttpPort string `yaml:"http-port" default:":9100"`
	// ReadTimeout 读取超时（秒）
	ReadTimeout int `yaml:"read-timeout" default:"60"`
	// WriteTimeout 写入超时（秒）
	WriteTimeout int `yaml:"write-timeout" default:"60"`
	// PrivateHttpListen 私有 HTTP 监听地址（metrics、pprof），为空时不启动
	PrivateHttpListen string `yaml:"private-http-listen" default:"127.0.0.1:9101"`
	// DefaultContextTimeout 请求上下文超时（秒）
	DefaultContextTimeout int `yaml:"default-context-timeout" default:"30"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	AuthTokenKey string `yaml:"auth-token-key" default:"post-revisions-Auth-Token"`
	TokenExpiry  string `yaml:"token-expiry" default:"7d"` // Token 过期时间，支持格式：7d（天）、24h（小时）、30m（分钟）
	// HookToken 钩子接口共享密钥，为空时钩子接口全部拒绝
	HookToken string `yaml:"hook-token"`
}

// RevisionConfig 修订历史配置
type RevisionConfig struct {
	// SelfPurgeWindow 作者在发帖后多长时间内可删除自己的修订，0 表示禁止
	SelfPurgeWindow string `yaml:"self-purge-window" default:"0"`
	// DiffEnabled 历史条目附带与上一版本的差异
	DiffEnabled bool `yaml:"diff-enabled"`
	// SweepEnabled 是否定时批量迁移旧格式
	SweepEnabled bool `yaml:"sweep-enabled" default:"true"`
	// SweepCron 批量迁移的 cron 表达式
	SweepCron string `yaml:"sweep-cron" default:"0 4 * * *"`
	// SweepTimeout 单次批量迁移的最长时间
	SweepTimeout string `yaml:"sweep-timeout" default:"1h"`
	// MigrateTimeout 单个帖子按需迁移的最长时间，与发起请求的取消无关
	MigrateTimeout string `yaml:"migrate-timeout" default:"10s"`
}

// TracerConfig 请求追踪配置
type TracerConfig struct {
	// Enabled 是否启用追踪
	Enabled bool `yaml:"enabled" default:"true"`
	// Header 追踪 ID 请求头名称，默认 X-Trace-ID
	Header string `yaml:"header" default:"X-Trace-ID"`
}

// LimiterConfig 接口限流，每个路由模板一个令牌桶
type LimiterConfig struct {
	Enabled      bool          `yaml:"enabled" default:"true"`
	FillInterval time.Duration `yaml:"fill-interval" default:"1s"`
	Capacity     int64         `yaml:"capacity" default:"50"`
	Quantum      int64         `yaml:"quantum" default:"50"`
}

// LoadConfig 从文件加载配置
// 返回配置实例和配置文件的绝对路径
func LoadConfig(f string) (*AppConfig, string, error) {
	realpath, err := filepath.Abs(f)
	if err != nil {
		return nil, "", err
	}
	realpath = filepath.Clean(realpath)

	file, err := os.ReadFile(realpath)
	if err != nil {
		return nil, realpath, errors.Wrap(err, "read config file failed")
	}

	c, err := ParseConfig(file)
	if err != nil {
		return nil, realpath, err
	}
	c.File = realpath
	return c, realpath, nil
}

// ParseConfig 解析 YAML 配置并填充默认值
func ParseConfig(data []byte) (*AppConfig, error) {
	c := new(AppConfig)

	// 设置默认值
	if err := defaults.Set(c); err != nil {
		return nil, errors.Wrap(err, "set default config failed")
	}

	// defaults are applied once before decoding, so an explicit false in YAML survives
	// 默认值只在解析前设置一次，YAML 中显式写出的 false 才能生效
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, errors.Wrap(err, "parse config file failed")
	}

	if _, err := util.ParseDuration(c.Revision.SelfPurgeWindow); err != nil {
		return nil, errors.Wrap(err, "revision.self-purge-window")
	}
	if _, err := util.ParseDuration(c.Security.TokenExpiry); err != nil {
		return nil, errors.Wrap(err, "security.token-expiry")
	}
	if _, err := util.ParseDuration(c.Revision.MigrateTimeout); err != nil {
		return nil, errors.Wrap(err, "revision.migrate-timeout")
	}
	return c, nil
}

// Save 保存配置到文件
func (c *AppConfig) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal config failed")
	}

	err = os.WriteFile(c.File, data, 0644)
	if err != nil {
		return errors.Wrap(err, "write config file failed")
	}

	return nil
}

// GetLoggerConfig 获取日志配置
func (c *AppConfig) GetLoggerConfig() logger.Config {
	return logger.Config{Level: c.Log.Level, File: c.Log.File, Production: c.Log.Production}
}

// GetWorkerPoolConfig 获取 Worker Pool 配置
func (c *AppConfig) GetWorkerPoolConfig() workerpool.Config {
	cfg := workerpool.DefaultConfig()

	if c.WorkerPool.MaxWorkers > 0 {
		cfg.MaxWorkers = c.WorkerPool.MaxWorkers
	}
	if c.WorkerPool.QueueSize > 0 {
		cfg.QueueSize = c.WorkerPool.QueueSize
	}

	return cfg
}

// GetRevisionServiceConfig 提取服务层需要的配置
func (c *AppConfig) GetRevisionServiceConfig() *service.RevisionServiceConfig {
	window, _ := util.ParseDuration(c.Revision.SelfPurgeWindow)
	migrate, _ := util.ParseDuration(c.Revision.MigrateTimeout)
	return &service.RevisionServiceConfig{
		SelfPurgeWindow: window,
		DiffEnabled:     c.Revision.DiffEnabled,
		MigrateTimeout:  migrate,
	}
}

// GetSweepTimeout 获取批量迁移超时
func (c *AppConfig) GetSweepTimeout() time.Duration {
	if d, err := util.ParseDuration(c.Revision.SweepTimeout); err == nil && d > 0 {
		return d
	}
	return time.Hour
}

// GetTokenExpiry 获取 Token 过期时间
func (c *AppConfig) GetTokenExpiry() time.Duration {
	if expiry, err := util.ParseDuration(c.Security.TokenExpiry); err == nil {
		return expiry
	}
	return 7 * 24 * time.Hour
}

// GetLimiterRules 把限流配置展开为每个公开路由的令牌桶
func (c *AppConfig) GetLimiterRules(routes ...string) []limiter.BucketRule {
	if !c.Limiter.Enabled {
		return nil
	}
	rules := make([]limiter.BucketRule, 0, len(routes))
	for _, route := range routes {
		rules = append(rules, limiter.BucketRule{
			Key:          route,
			FillInterval: c.Limiter.FillInterval,
			Capacity:     c.Limiter.Capacity,
			Quantum:      c.Limiter.Quantum,
		})
	}
	return rules
}
