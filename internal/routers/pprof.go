package routers

import (
	"encoding/json"
	"expvar"
	"net/http"
	"net/http/pprof"

	"github.com/haierkeys/post-revisions-service/internal/app"
	"github.com/haierkeys/post-revisions-service/internal/middleware"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// pprofPrefix 调试模式下 pprof 的挂载路径
const pprofPrefix = "/debug/pprof"

// runtime profiles served by pprof.Handler
var pprofProfiles = []string{"allocs", "block", "goroutine", "heap", "mutex", "threadcreate"}

// NewPrivateRouter serves operator endpoints on the private listener:
// /metrics for prometheus, /debug/vars for expvar plus service state,
// and pprof when run-mode is debug. It must never be exposed publicly.
//
// NewPrivateRouter 私有监听地址上的运维接口，禁止对外暴露
func NewPrivateRouter(appContainer *app.App) *gin.Engine {
	runMode := appContainer.Config().Server.RunMode
	logger := appContainer.Logger()

	r := gin.New()
	r.Use(middleware.RecoveryWithLogger(logger))

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
		ErrorLog:      zap.NewStdLog(logger.Named("promhttp")),
		ErrorHandling: promhttp.ContinueOnError,
	})))
	r.GET("/debug/vars", debugVars(map[string]func() any{
		"version":      func() any { return appContainer.Version() },
		"workerPool":   func() any { return appContainer.WorkerPool().GetMetrics() },
		"shuttingDown": func() any { return appContainer.IsShuttingDown() },
	}))

	if runMode == "debug" {
		p := r.Group(pprofPrefix)
		p.GET("/", gin.WrapF(pprof.Index))
		p.GET("/cmdline", gin.WrapF(pprof.Cmdline))
		p.GET("/profile", gin.WrapF(pprof.Profile))
		p.Match([]string{http.MethodGet, http.MethodPost}, "/symbol", gin.WrapF(pprof.Symbol))
		p.GET("/trace", gin.WrapF(pprof.Trace))
		for _, name := range pprofProfiles {
			p.GET("/"+name, gin.WrapH(pprof.Handler(name)))
		}
	}

	return r
}

// debugVars merges the process-wide expvar registry with service state computed per request.
// Service vars stay out of the expvar registry, where a second Publish of a name panics.
func debugVars(service map[string]func() any) gin.HandlerFunc {
	return func(c *gin.Context) {
		out := make(map[string]any, len(service)+8)
		expvar.Do(func(kv expvar.KeyValue) {
			out[kv.Key] = json.RawMessage(kv.Value.String())
		})
		for name, fn := range service {
			out[name] = fn()
		}
		body, err := sonic.Marshal(out)
		if err != nil {
			_ = c.AbortWithError(http.StatusInternalServerError, err)
			return
		}
		c.Data(http.StatusOK, "application/json; charset=utf-8", body)
	}
}
