package routers

import (
	"time"

	"github.com/haierkeys/post-revisions-service/internal/app"
	"github.com/haierkeys/post-revisions-service/internal/middleware"
	"github.com/haierkeys/post-revisions-service/internal/routers/api_router"
	"github.com/haierkeys/post-revisions-service/internal/routers/websocket_router"
	pkgapp "github.com/haierkeys/post-revisions-service/pkg/app"
	"github.com/haierkeys/post-revisions-service/pkg/limiter"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
	"github.com/lxzan/gws"
)

const (
	routeRevisions     = "/api/posts/:pid/revisions"
	routeRevisionPurge = "/api/posts/:pid/revisions/:ts"
	routeUserSetting   = "/api/users/:uid/revision-settings"
)

func NewRouter(appContainer *app.App, uni *ut.UniversalTranslator) *gin.Engine {
	// 获取配置
	cfg := appContainer.Config()

	methodLimiters := limiter.NewMethodLimiter().AddBuckets(
		cfg.GetLimiterRules(routeRevisions, routeRevisionPurge, routeUserSetting)...,
	)

	var wss = pkgapp.NewWebsocketServer(pkgapp.WebsocketServerConfig{
		GWSOption: gws.ServerOption{
			CheckUtf8Enabled:    true,
			ParallelEnabled:     true,                                 // 开启并行消息处理
			Recovery:            gws.Recovery,                         // 开启异常恢复
			PermessageDeflate:   gws.PermessageDeflate{Enabled: true}, // 开启压缩
			ParallelGolimit:     8,
			ReadMaxPayloadSize:  1024 * 1024, // 请求只携带 id，1MB 足够
			WriteMaxPayloadSize: 1024 * 1024 * 16,
		},
	}, appContainer.TokenManager, appContainer.Logger())

	// 创建 WebSocket Handlers（注入 App Container）
	revisionWSHandler := websocket_router.NewRevisionWSHandler(appContainer)
	wss.Use(websocket_router.ActionRevisionsGet, revisionWSHandler.RevisionsGet)
	wss.Use(websocket_router.ActionRevisionsPurge, revisionWSHandler.RevisionsPurge)
	wss.Use(websocket_router.ActionRevisionSettingGet, revisionWSHandler.SettingGet)

	r := gin.New()

	api := r.Group("/api")
	{
		api.Use(middleware.AppInfoWithConfig(app.Name, appContainer.Version().Version))
		api.Use(middleware.TraceMiddlewareWithConfig(cfg.Tracer.Enabled, cfg.Tracer.Header)) // Trace ID 中间件
		api.Use(middleware.RecoveryWithLogger(appContainer.Logger()))
		api.Use(middleware.RateLimiter(methodLimiters))
		api.Use(middleware.ContextTimeout(time.Duration(cfg.Server.DefaultContextTimeout)*time.Second, "/api/ws"))
		api.Use(middleware.LangWithTranslator(uni))
		api.Use(middleware.AccessLogWithLogger(appContainer.Logger()))

		// 创建 Handlers（注入 App Container）
		revisionHandler := api_router.NewRevisionHandler(appContainer)
		hookHandler := api_router.NewHookHandler(appContainer)
		healthHandler := api_router.NewHealthHandler(appContainer)

		api.GET("/health", healthHandler.Check)
		api.GET("/version", healthHandler.ServerVersion)
		api.GET("/ws", wss.Run())

		// guests read with uid 0; an invalid token is still rejected
		viewer := middleware.UserAuthTokenWithConfig(appContainer.TokenManager, true)
		api.GET("/posts/:pid/revisions", viewer, revisionHandler.List)
		api.GET("/users/:uid/revision-settings", viewer, revisionHandler.UserSetting)
		api.DELETE("/posts/:pid/revisions/:ts",
			middleware.UserAuthTokenWithConfig(appContainer.TokenManager, false), revisionHandler.Purge)

		hooks := api.Group("/hooks", middleware.HookTokenWithConfig(cfg.Security.HookToken))
		{
			hooks.POST("/post-edit", hookHandler.PostEdit)
			hooks.POST("/post-delete", hookHandler.PostDelete)
			hooks.POST("/user-settings", hookHandler.UserSettings)
		}
	}

	r.NoRoute(middleware.NoFound())

	return r
}
