package routers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/haierkeys/post-revisions-service/internal/app"
	"github.com/haierkeys/post-revisions-service/internal/dao"
	"github.com/haierkeys/post-revisions-service/internal/routers/websocket_router"
	pkgapp "github.com/haierkeys/post-revisions-service/pkg/app"
	"github.com/haierkeys/post-revisions-service/pkg/kvstore/redisstore"

	"github.com/alicebob/miniredis/v2"
	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/lxzan/gws"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testHookToken = "hook-secret"

type testServer struct {
	t      *testing.T
	mr     *miniredis.Miniredis
	app    *app.App
	engine *gin.Engine
}

type envelope struct {
	Code    int             `json:"code"`
	Status  bool            `json:"status"`
	Data    json.RawMessage `json:"data"`
	Details string          `json:"details"`
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg, err := app.ParseConfig([]byte("security:\n  auth-token-key: test-key\n  hook-token: " + testHookToken + "\nlimiter:\n  enabled: false\n"))
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	store := redisstore.NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), 50)

	a, err := app.NewApp(cfg, zap.NewNop(), store)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	uni, err := pkgapp.InitValidator()
	require.NoError(t, err)

	ts := &testServer{t: t, mr: mr, app: a, engine: NewRouter(a, uni)}
	ts.seed()
	return ts
}

// post 42 by uid 1 in topic 7, category 3; uid 9 is an administrator
func (s *testServer) seed() {
	s.mr.HSet(dao.PostKey(42), "pid", "42", "uid", "1", "tid", "7", "content", "v1", "timestamp", "10")
	s.mr.HSet(dao.TopicKey(7), "cid", "3", "title", "title")
	for uid, name := range map[int]string{1: "author", 2: "viewer", 9: "admin"} {
		s.mr.HSet(dao.UserKey(int64(uid)), "username", name, "userslug", name)
	}
	_, _ = s.mr.SAdd(dao.AdministratorsKey(), "9")
}

func (s *testServer) token(uid int64) string {
	s.t.Helper()
	tok, err := s.app.TokenManager.Generate(uid, "u"+strconv.FormatInt(uid, 10), "127.0.0.1")
	require.NoError(s.t, err)
	return tok
}

func (s *testServer) do(method, target, body string, headers map[string]string) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	require.NoError(s.t, sonic.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func (s *testServer) hook(path, body string) (*httptest.ResponseRecorder, envelope) {
	return s.do(http.MethodPost, "/api/hooks/"+path, body, map[string]string{"X-Hook-Token": testHookToken})
}

func bearer(tok string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + tok}
}

func TestRouter_EditThenHistory(t *testing.T) {
	s := newTestServer(t)

	w, env := s.hook("post-edit", `{"pid":42,"uid":1,"content":"v2","edited":100}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, env.Status)
	assert.Contains(t, string(env.Data), `"revisionCount":1`)

	w, env = s.do(http.MethodGet, "/api/posts/42/revisions", "", bearer(s.token(1)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var list []map[string]any
	require.NoError(t, sonic.Unmarshal(env.Data, &list))
	require.Len(t, list, 2)
	assert.Equal(t, "current", list[0]["mode"])
	assert.Equal(t, "edit", list[1]["mode"])
	assert.EqualValues(t, 100, list[1]["timestamp"])
}

func TestRouter_GuestDeniedUnlessPublic(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(http.MethodGet, "/api/posts/42/revisions", "", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, 510002, env.Code)

	w, _ = s.hook("user-settings", `{"uid":1,"postEditHistoryVisible":true}`)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(http.MethodGet, "/api/posts/42/revisions", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, env = s.do(http.MethodGet, "/api/users/1/revision-settings", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"editHistoryVisible":true`)
}

func TestRouter_InvalidPostID(t *testing.T) {
	s := newTestServer(t)

	for _, target := range []string{"/api/posts/0/revisions", "/api/posts/-3/revisions", "/api/posts/abc/revisions"} {
		w, env := s.do(http.MethodGet, target, "", bearer(s.token(9)))
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
		assert.Equal(t, 510001, env.Code, target)
	}
}

func TestRouter_PurgeInvalidPostIDComesFirst(t *testing.T) {
	s := newTestServer(t)

	for _, target := range []string{"/api/posts/0/revisions/abc", "/api/posts/abc/revisions/0", "/api/posts/-1/revisions/100"} {
		w, env := s.do(http.MethodDelete, target, "", bearer(s.token(9)))
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
		assert.Equal(t, 510001, env.Code, target)
	}
}

func TestRouter_InvalidTokenRejected(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(http.MethodGet, "/api/posts/42/revisions", "", bearer("garbage"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 505002, env.Code)
}

func TestRouter_Purge(t *testing.T) {
	s := newTestServer(t)
	_, _ = s.hook("post-edit", `{"pid":42,"uid":1,"content":"v2","edited":100}`)

	w, env := s.do(http.MethodDelete, "/api/posts/42/revisions/100", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 505001, env.Code)

	// authors cannot purge while the self purge window is 0
	w, env = s.do(http.MethodDelete, "/api/posts/42/revisions/100", "", bearer(s.token(1)))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, 510002, env.Code)

	w, _ = s.do(http.MethodDelete, "/api/posts/42/revisions/100", "", bearer(s.token(9)))
	require.Equal(t, http.StatusOK, w.Code)

	_, env = s.do(http.MethodGet, "/api/posts/42/revisions", "", bearer(s.token(9)))
	var list []map[string]any
	require.NoError(t, sonic.Unmarshal(env.Data, &list))
	assert.Len(t, list, 1)

	w, env = s.do(http.MethodDelete, "/api/posts/42/revisions/0", "", bearer(s.token(9)))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 501, env.Code)
}

func TestRouter_HookTokenRequired(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(http.MethodPost, "/api/hooks/post-delete", `{"pid":42}`, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 505003, env.Code)

	w, env = s.do(http.MethodPost, "/api/hooks/post-delete", `{"pid":42}`, map[string]string{"X-Hook-Token": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, 505003, env.Code)
}

func TestRouter_PostDeleteClearsHistory(t *testing.T) {
	s := newTestServer(t)
	_, _ = s.hook("post-edit", `{"pid":42,"uid":1,"content":"v2","edited":100}`)
	require.True(t, s.mr.Exists(dao.HistoryKey(42)))

	w, _ := s.hook("post-delete", `{"pid":42}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, s.mr.Exists(dao.HistoryKey(42)))
}

func TestRouter_HookValidation(t *testing.T) {
	s := newTestServer(t)

	w, env := s.hook("post-edit", `{"pid":42}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 501, env.Code)

	w, env = s.hook("post-edit", `{"pid":404,"uid":1,"content":"x"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 510003, env.Code)
}

func TestRouter_HealthAndNotFound(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Status)
	assert.Contains(t, string(env.Data), `"maxWorkers":8`)

	s.mr.Close()
	w, env = s.do(http.MethodGet, "/api/health", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, 505, env.Code)

	w, env = s.do(http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 503, env.Code)
	assert.Equal(t, "GET /nope", env.Details)
}

func TestPrivateRouter(t *testing.T) {
	s := newTestServer(t)
	r := NewPrivateRouter(s.app)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/debug/vars", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var vars map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &vars))
	assert.Contains(t, vars, "memstats")
	assert.Contains(t, string(vars["workerPool"]), `"maxWorkers":8`)
	assert.Equal(t, "false", string(vars["shuttingDown"]))

	// pprof only in debug mode
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/debug/pprof/heap", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// wsFrames 收集客户端收到的文本帧
type wsFrames struct {
	gws.BuiltinEventHandler
	frames chan string
}

func (r *wsFrames) OnMessage(socket *gws.Conn, message *gws.Message) {
	defer message.Close()
	r.frames <- message.Data.String()
}

func (r *wsFrames) next(t *testing.T) (string, envelope) {
	t.Helper()
	select {
	case frame := <-r.frames:
		action, body, _ := strings.Cut(frame, "|")
		var env envelope
		require.NoError(t, sonic.Unmarshal([]byte(body), &env))
		return action, env
	case <-time.After(3 * time.Second):
		t.Fatal("no websocket frame received")
		return "", envelope{}
	}
}

func TestRouter_WebsocketRevisions(t *testing.T) {
	s := newTestServer(t)
	_, _ = s.hook("post-edit", `{"pid":42,"uid":1,"content":"v2","edited":100}`)

	srv := httptest.NewServer(s.engine)
	defer srv.Close()

	rec := &wsFrames{frames: make(chan string, 8)}
	conn, _, err := gws.NewClient(rec, &gws.ClientOption{Addr: "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"})
	require.NoError(t, err)
	go conn.ReadLoop()
	defer conn.WriteClose(1000, nil)

	require.NoError(t, conn.WriteString("Authorization|"+s.token(2)))
	_, env := rec.next(t)
	require.True(t, env.Status)

	// uid 2 is neither the author nor a moderator and the author has not opted in
	require.NoError(t, conn.WriteString(websocket_router.ActionRevisionsGet+`|{"pid":42}`))
	action, env := rec.next(t)
	assert.Equal(t, websocket_router.ActionRevisionsGet, action)
	assert.Equal(t, 510002, env.Code)

	require.NoError(t, conn.WriteString(websocket_router.ActionRevisionsGet+`|{"pid":0}`))
	_, env = rec.next(t)
	assert.Equal(t, 510001, env.Code)

	require.NoError(t, conn.WriteString(websocket_router.ActionRevisionsPurge+`|{"pid":0}`))
	_, env = rec.next(t)
	assert.Equal(t, 510001, env.Code)

	require.NoError(t, conn.WriteString(websocket_router.ActionRevisionsPurge+`|{"pid":42}`))
	action, env = rec.next(t)
	assert.Equal(t, websocket_router.ActionRevisionsPurge, action)
	assert.Equal(t, 501, env.Code)

	s.mr.HSet(dao.UserSettingsKey(1), dao.FieldPostEditHistoryVisible, "1")
	require.NoError(t, conn.WriteString(websocket_router.ActionRevisionsGet+`|{"pid":42}`))
	_, env = rec.next(t)
	require.True(t, env.Status)
	var list []map[string]any
	require.NoError(t, sonic.Unmarshal(env.Data, &list))
	assert.Len(t, list, 2)

	require.NoError(t, conn.WriteString(websocket_router.ActionRevisionSettingGet+"|{}"))
	action, env = rec.next(t)
	assert.Equal(t, websocket_router.ActionRevisionSettingGet, action)
	require.True(t, env.Status)
	assert.Contains(t, string(env.Data), `"uid":2`)
	assert.Contains(t, string(env.Data), `"postEditHistoryVisible":false`)
}
