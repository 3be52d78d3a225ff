package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	internalApp "github.com/haierkeys/post-revisions-service/internal/app"
	"github.com/haierkeys/post-revisions-service/internal/dao"
	"github.com/haierkeys/post-revisions-service/internal/routers"
	"github.com/haierkeys/post-revisions-service/internal/task"
	pkgapp "github.com/haierkeys/post-revisions-service/pkg/app"
	"github.com/haierkeys/post-revisions-service/pkg/kvstore"
	"github.com/haierkeys/post-revisions-service/pkg/logger"
	"github.com/haierkeys/post-revisions-service/pkg/safe_close"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
	"go.uber.org/zap"
)

// defaultSecretKeys are auth keys that must never reach production
var defaultSecretKeys = []string{defaultAuthTokenPlaceholder, ""}

type Server struct {
	logger            *zap.Logger             // Logger // 日志对象
	config            *internalApp.AppConfig  // App configuration (injected dependency) // 应用配置（注入的依赖）
	ut                *ut.UniversalTranslator // Translator // 翻译器
	httpServer        *http.Server
	privateHttpServer *http.Server
	sc                *safe_close.SafeClose
	app               *internalApp.App // App Container
}

// securityWarnings lists insecure settings in cfg, empty when none
// securityWarnings 返回不安全的配置项
func securityWarnings(cfg *internalApp.AppConfig) []string {
	var warnings []string
	if slices.Contains(defaultSecretKeys, cfg.Security.AuthTokenKey) {
		warnings = append(warnings, "security.auth-token-key is the default value, anyone can sign viewer tokens; generate one with: openssl rand -base64 32")
	}
	if cfg.Security.HookToken == "" {
		warnings = append(warnings, "security.hook-token is empty, all hook requests will be rejected")
	}
	return warnings
}

// checkSecurityConfig logs every warning and repeats them on stderr where they survive a json log
func checkSecurityConfig(cfg *internalApp.AppConfig, lg *zap.Logger) {
	warnings := securityWarnings(cfg)
	if len(warnings) == 0 {
		return
	}
	rule := strings.Repeat("=", 60)
	fmt.Fprintln(os.Stderr, rule)
	for _, w := range warnings {
		lg.Warn("insecure configuration", zap.String("detail", w))
		fmt.Fprintln(os.Stderr, "SECURITY WARNING: "+w)
	}
	fmt.Fprintln(os.Stderr, rule)
}

// loadRuntime 加载配置并初始化日志、存储与 App Container，run 与 migrate 共用
func loadRuntime(configFile string) (*internalApp.AppConfig, string, *zap.Logger, *internalApp.App, error) {
	appConfig, configRealpath, err := internalApp.LoadConfig(configFile)
	if err != nil {
		return nil, "", nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := initStorageWithConfig(appConfig); err != nil {
		return nil, "", nil, nil, fmt.Errorf("initStorage: %w", err)
	}

	lg, err := logger.NewLogger(appConfig.GetLoggerConfig())
	if err != nil {
		return nil, "", nil, nil, fmt.Errorf("failed to init logger: %w", err)
	}

	store, err := dao.NewStore(appConfig.Store, lg)
	if err != nil {
		return nil, "", nil, nil, fmt.Errorf("initStore: %w", err)
	}

	app, err := internalApp.NewApp(appConfig, lg, store)
	if err != nil {
		_ = store.Close()
		return nil, "", nil, nil, fmt.Errorf("failed to create app container: %w", err)
	}
	return appConfig, configRealpath, lg, app, nil
}

func NewServer(runEnv *runFlags) (*Server, error) {

	appConfig, configRealpath, lg, app, err := loadRuntime(runEnv.config)
	if err != nil {
		return nil, err
	}

	// 确定运行模式
	runMode := runEnv.runMode
	if len(runMode) <= 0 {
		runMode = appConfig.Server.RunMode
	}

	if len(runMode) > 0 {
		gin.SetMode(runMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	if len(runEnv.port) > 0 {
		appConfig.Server.HttpPort = ":" + strings.TrimPrefix(runEnv.port, ":")
	}

	s := &Server{
		config: appConfig,
		logger: lg,
		app:    app,
		sc:     safe_close.NewSafeClose(),
	}

	checkSecurityConfig(appConfig, s.logger)

	// 初始化验证器
	uni, err := pkgapp.InitValidator()
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("initValidator: %w", err)
	}
	s.ut = uni

	// 启动调度器
	initScheduler(s)

	banner := `
    ____             __     ____             _      _
   / __ \____  _____/ /_   / __ \___ _   __(_)____(_)___  ____  _____
  / /_/ / __ \/ ___/ __/  / /_/ / _ \ | / / / ___/ / __ \/ __ \/ ___/
 / ____/ /_/ (__  ) /_   / _, _/  __/ |/ / (__  ) / /_/ / / / (__  )
/_/    \____/____/\__/  /_/ |_|\___/|___/_/____/_/\____/_/ /_/____/  `
	s.logger.Warn(banner + "\n\n" + internalApp.VersionLine() + "\n")

	s.logger.Warn("config loaded", zap.String("path", configRealpath), zap.String("store", appConfig.Store.Type))

	// 启动 HTTP API 服务器
	if httpAddr := appConfig.Server.HttpPort; len(httpAddr) > 0 {
		s.logger.Warn("api_router", zap.String("config.server.HttpPort", appConfig.Server.HttpPort))
		s.httpServer = &http.Server{
			Addr:           appConfig.Server.HttpPort,
			Handler:        routers.NewRouter(s.app, s.ut),
			ReadTimeout:    time.Duration(appConfig.Server.ReadTimeout) * time.Second,
			WriteTimeout:   time.Duration(appConfig.Server.WriteTimeout) * time.Second,
			MaxHeaderBytes: 1 << 20,
		}
		s.attachHTTPServer("api service", s.httpServer)
	}

	if httpAddr := appConfig.Server.PrivateHttpListen; len(httpAddr) > 0 {
		s.logger.Info("api_router", zap.String("config.server.PrivateHttpListen", appConfig.Server.PrivateHttpListen))
		s.privateHttpServer = &http.Server{
			Addr:           appConfig.Server.PrivateHttpListen,
			Handler:        routers.NewPrivateRouter(s.app),
			ReadTimeout:    time.Duration(appConfig.Server.ReadTimeout) * time.Second,
			WriteTimeout:   time.Duration(appConfig.Server.WriteTimeout) * time.Second,
			MaxHeaderBytes: 1 << 20,
		}
		s.attachHTTPServer("private api service", s.privateHttpServer)
	}

	// 注册 App Container 的优雅关闭（使用 Shutdown 方法）
	s.sc.Attach(func(done func(), closeSignal <-chan struct{}) {
		defer done()
		<-closeSignal
		if s.app != nil {
			ctx, cancel := context.WithTimeout(context.Background(), internalApp.DefaultShutdownTimeout)
			defer cancel()

			if err := s.app.Shutdown(ctx); err != nil {
				s.logger.Error("failed to shutdown app container", zap.Error(err))
			} else {
				s.logger.Info("App container shutdown gracefully")
			}
		}
	})

	return s, nil
}

func (s *Server) attachHTTPServer(name string, srv *http.Server) {
	s.sc.Attach(func(done func(), closeSignal <-chan struct{}) {
		defer done()
		errChan := make(chan error, 1)
		go func() {
			errChan <- srv.ListenAndServe()
		}()
		select {
		case err := <-errChan:
			s.logger.Error(name+" err", zap.Error(err))
			s.sc.SendCloseSignal(err)
		case <-closeSignal:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			// 停止 HTTP 服务器
			if err := srv.Shutdown(ctx); err != nil {
				s.logger.Error(name+" shutdown error", zap.Error(err))
			}
		}
	})
}

func initScheduler(s *Server) {
	// 创建任务管理器
	manager := task.NewManager(s.logger, s.sc, s.app)

	// 注册所有任务(业务层控制)
	if err := manager.RegisterTasks(); err != nil {
		s.logger.Error("failed to register tasks", zap.Error(err))
		return
	}

	// 启动任务调度器
	manager.Start()
}

// initStorageWithConfig 初始化存储目录（使用注入的配置）
func initStorageWithConfig(cfg *internalApp.AppConfig) error {
	dirs := []string{filepath.Dir(cfg.Log.File)}
	switch cfg.Store.Type {
	case kvstore.Badger:
		if !cfg.Store.Badger.InMemory {
			dirs = append(dirs, cfg.Store.Badger.Path)
		}
	case kvstore.SQLite:
		dirs = append(dirs, filepath.Dir(cfg.Store.Database.Path))
	}

	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0754); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
