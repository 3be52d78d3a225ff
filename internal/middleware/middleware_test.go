package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/haierkeys/post-revisions-service/pkg/app"
	"github.com/haierkeys/post-revisions-service/pkg/code"
	"github.com/haierkeys/post-revisions-service/pkg/limiter"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, req *http.Request) (*httptest.ResponseRecorder, app.Res) {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var res app.Res
	_ = sonic.Unmarshal(w.Body.Bytes(), &res)
	return w, res
}

func TestHookToken(t *testing.T) {
	ok := func(c *gin.Context) { c.Status(http.StatusNoContent) }

	r := gin.New()
	r.POST("/hook", HookTokenWithConfig("s3cret"), ok)
	closed := gin.New()
	closed.POST("/hook", HookTokenWithConfig(""), ok)

	req := httptest.NewRequest(http.MethodPost, "/hook", nil)
	req.Header.Set(DefaultHookTokenHeader, "s3cret")
	w, _ := serve(r, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/hook", nil)
	req.Header.Set(DefaultHookTokenHeader, "wrong")
	w, res := serve(r, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, code.ErrorInvalidHookToken.Code(), res.Code)

	req = httptest.NewRequest(http.MethodPost, "/hook", nil)
	w, _ = serve(closed, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUserAuthToken(t *testing.T) {
	tokens := app.NewTokenManager(app.TokenConfig{SecretKey: "k"})
	whoami := func(c *gin.Context) { c.JSON(http.StatusOK, app.Res{Data: app.GetUID(c)}) }

	r := gin.New()
	r.GET("/optional", UserAuthTokenWithConfig(tokens, true), whoami)
	r.GET("/required", UserAuthTokenWithConfig(tokens, false), whoami)

	token, err := tokens.Generate(5, "bob", "")
	require.NoError(t, err)

	t.Run("guest on optional route", func(t *testing.T) {
		w, res := serve(r, httptest.NewRequest(http.MethodGet, "/optional", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.EqualValues(t, 0, res.Data)
	})

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/optional", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		_, res := serve(r, req)
		assert.EqualValues(t, 5, res.Data)
	})

	t.Run("query token", func(t *testing.T) {
		_, res := serve(r, httptest.NewRequest(http.MethodGet, "/required?token="+token, nil))
		assert.EqualValues(t, 5, res.Data)
	})

	t.Run("invalid token is rejected even when optional", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/optional", nil)
		req.Header.Set("Authorization", "garbage")
		w, res := serve(r, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, code.ErrorInvalidUserAuthToken.Code(), res.Code)
	})

	t.Run("missing token on required route", func(t *testing.T) {
		w, res := serve(r, httptest.NewRequest(http.MethodGet, "/required", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, code.ErrorNotUserAuthToken.Code(), res.Code)
	})
}

func TestRateLimiter(t *testing.T) {
	l := limiter.NewMethodLimiter().AddBuckets(limiter.BucketRule{
		Key: "/limited", FillInterval: time.Hour, Capacity: 1, Quantum: 1,
	})
	r := gin.New()
	r.Use(RateLimiter(l))
	r.GET("/limited", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/free", func(c *gin.Context) { c.Status(http.StatusOK) })

	w, _ := serve(r, httptest.NewRequest(http.MethodGet, "/limited", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	w, res := serve(r, httptest.NewRequest(http.MethodGet, "/limited", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, code.ErrorTooManyRequests.Code(), res.Code)
	assert.Equal(t, "3600", w.Header().Get("Retry-After"))

	for i := 0; i < 3; i++ {
		w, _ = serve(r, httptest.NewRequest(http.MethodGet, "/free", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(RecoveryWithLogger(zap.NewNop()))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w, res := serve(r, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, code.ErrorServerInternal.Code(), res.Code)
	assert.Equal(t, "boom", res.Details)
}

func TestTrace(t *testing.T) {
	var fromCtx string
	r := gin.New()
	r.Use(TraceMiddlewareWithConfig(true, ""))
	r.GET("/", func(c *gin.Context) { fromCtx = GetTraceID(c.Request.Context()) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(DefaultTraceIDHeader, "abc")
	w, _ := serve(r, req)
	assert.Equal(t, "abc", w.Header().Get(DefaultTraceIDHeader))
	assert.Equal(t, "abc", fromCtx)

	w, _ = serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, w.Header().Get(DefaultTraceIDHeader))
	assert.Equal(t, w.Header().Get(DefaultTraceIDHeader), fromCtx)
}

func TestContextTimeout(t *testing.T) {
	hasDeadline := func(c *gin.Context) {
		_, ok := c.Request.Context().Deadline()
		c.JSON(http.StatusOK, ok)
	}

	r := gin.New()
	r.Use(ContextTimeout(time.Second, "/ws"))
	r.GET("/api", hasDeadline)
	r.GET("/ws", hasDeadline)

	off := gin.New()
	off.Use(ContextTimeout(0))
	off.GET("/api", hasDeadline)

	for _, tc := range []struct {
		engine *gin.Engine
		path   string
		want   string
	}{
		{r, "/api", "true"},
		{r, "/ws", "false"},
		{off, "/api", "false"},
	} {
		w := httptest.NewRecorder()
		tc.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.path, nil))
		assert.Equal(t, tc.want, w.Body.String(), tc.path)
	}
}
