package app

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/haierkeys/post-revisions-service/pkg/code"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/lxzan/gws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWebSocketMessage(t *testing.T) {
	msg, ok := ParseWebSocketMessage(`PostRevisionsGet|{"pid":1}`)
	require.True(t, ok)
	assert.Equal(t, "PostRevisionsGet", msg.Type)
	assert.JSONEq(t, `{"pid":1}`, string(msg.Data))

	// only the first separator splits
	msg, ok = ParseWebSocketMessage(`A|{"s":"x|y"}`)
	require.True(t, ok)
	assert.Equal(t, `{"s":"x|y"}`, string(msg.Data))

	for _, raw := range []string{"", "noseparator", "|{}"} {
		_, ok := ParseWebSocketMessage(raw)
		assert.False(t, ok, raw)
	}
}

func TestEncodeFrame(t *testing.T) {
	frame := string(encodeFrame("Authorization", NewRes(code.Success)))
	action, body, ok := strings.Cut(frame, "|")
	require.True(t, ok)
	assert.Equal(t, "Authorization", action)

	var res Res
	require.NoError(t, sonic.Unmarshal([]byte(body), &res))
	assert.Equal(t, 1, res.Code)
	assert.True(t, res.Status)
}

// wsRecorder 收集客户端收到的文本帧
type wsRecorder struct {
	gws.BuiltinEventHandler
	frames chan string
}

func (r *wsRecorder) OnMessage(socket *gws.Conn, message *gws.Message) {
	defer message.Close()
	r.frames <- message.Data.String()
}

func (r *wsRecorder) next(t *testing.T) (string, Res) {
	t.Helper()
	select {
	case frame := <-r.frames:
		action, body, _ := strings.Cut(frame, "|")
		var res Res
		require.NoError(t, sonic.Unmarshal([]byte(body), &res))
		return action, res
	case <-time.After(3 * time.Second):
		t.Fatal("no websocket frame received")
		return "", Res{}
	}
}

func TestWebsocketServer_AuthorizeThenDispatch(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tokens := NewTokenManager(TokenConfig{SecretKey: "ws-secret"})
	wss := NewWebsocketServer(WebsocketServerConfig{}, tokens, nil)
	wss.Use("Echo", func(c *WebsocketClient, msg *WebSocketMessage) {
		c.ToResponse(code.Success.Clone().WithData(c.UID()), msg.Type)
	})

	r := gin.New()
	r.GET("/ws", wss.Run())
	srv := httptest.NewServer(r)
	defer srv.Close()

	rec := &wsRecorder{frames: make(chan string, 8)}
	conn, _, err := gws.NewClient(rec, &gws.ClientOption{Addr: "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"})
	require.NoError(t, err)
	go conn.ReadLoop()
	defer conn.WriteClose(1000, nil)

	// handlers are refused before authorization
	require.NoError(t, conn.WriteString("Echo|{}"))
	action, res := rec.next(t)
	assert.Equal(t, "Echo", action)
	assert.Equal(t, code.ErrorNotUserAuthToken.Code(), res.Code)

	token, err := tokens.Generate(12, "alice", "127.0.0.1")
	require.NoError(t, err)
	require.NoError(t, conn.WriteString("Authorization|"+token))
	action, res = rec.next(t)
	assert.Equal(t, ActionAuthorization, action)
	assert.True(t, res.Status)

	require.NoError(t, conn.WriteString("Echo|{}"))
	action, res = rec.next(t)
	assert.Equal(t, "Echo", action)
	assert.EqualValues(t, 12, res.Data)

	require.NoError(t, conn.WriteString("Unknown|{}"))
	_, res = rec.next(t)
	assert.Equal(t, code.ErrorWebsocketMessage.Code(), res.Code)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for wss.ClientCount() != 1 && ctx.Err() == nil {
		time.Sleep(10 * time.Millisecond)
	}
	assert.Equal(t, 1, wss.ClientCount())
}

func TestWebsocketServer_BadTokenRejected(t *testing.T) {
	gin.SetMode(gin.TestMode)
	wss := NewWebsocketServer(WebsocketServerConfig{}, NewTokenManager(TokenConfig{SecretKey: "k"}), nil)
	r := gin.New()
	r.GET("/ws", wss.Run())
	srv := httptest.NewServer(r)
	defer srv.Close()

	rec := &wsRecorder{frames: make(chan string, 4)}
	conn, _, err := gws.NewClient(rec, &gws.ClientOption{Addr: "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"})
	require.NoError(t, err)
	go conn.ReadLoop()

	require.NoError(t, conn.WriteString("Authorization|not-a-token"))
	action, res := rec.next(t)
	assert.Equal(t, ActionAuthorization, action)
	assert.Equal(t, code.ErrorInvalidUserAuthToken.Code(), res.Code)
}
