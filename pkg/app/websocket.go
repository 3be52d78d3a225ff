package app

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/haierkeys/post-revisions-service/pkg/code"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/lxzan/gws"
	"go.uber.org/zap"
)

const (
	WebSocketServerPingInterval = 25 * time.Second
	WebSocketServerPingWait     = 40 * time.Second

	// ActionAuthorization 首条消息，携带 JWT
	ActionAuthorization = "Authorization"
)

// WebSocketMessage is "<Type>|<json>" on the wire
// WebSocketMessage 线上格式为 "<Type>|<json>"
type WebSocketMessage struct {
	Type string
	Data []byte
}

// ParseWebSocketMessage 按第一个 | 拆分
func ParseWebSocketMessage(raw string) (*WebSocketMessage, bool) {
	typ, data, ok := strings.Cut(raw, "|")
	if !ok || typ == "" {
		return nil, false
	}
	return &WebSocketMessage{Type: typ, Data: []byte(data)}, true
}

type WebsocketServerConfig struct {
	GWSOption    gws.ServerOption
	PingInterval time.Duration
	PingWait     time.Duration
}

// WebsocketClient 单个连接及其状态
type WebsocketClient struct {
	conn    *gws.Conn
	ctx     context.Context
	cancel  context.CancelFunc
	server  *WebsocketServer
	Ctx     *gin.Context
	TraceID string

	// user 由 server.mu 保护，Authorization 消息可重复发送
	user *UserEntity
}

// Context is cancelled when the connection closes
// Context 连接关闭时取消
func (c *WebsocketClient) Context() context.Context {
	return c.ctx
}

// UID 当前连接的用户，未授权为 0
func (c *WebsocketClient) UID() int64 {
	if u := c.User(); u != nil {
		return u.UID
	}
	return 0
}

// User 当前连接的用户，未授权为 nil
func (c *WebsocketClient) User() *UserEntity {
	c.server.mu.RLock()
	defer c.server.mu.RUnlock()
	return c.user
}

// BindAndValid 解析消息体并按 binding 标签校验
func (c *WebsocketClient) BindAndValid(data []byte, obj any) (bool, ValidErrors) {
	return BindAndValidJSON(c.Ctx, data, obj)
}

func (c *WebsocketClient) pingLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			if err := c.conn.WritePing(nil); err != nil {
				c.server.logger.Warn("websocket ping failed", zap.Error(err))
				return
			}
		}
	}
}

func (c *WebsocketClient) close() {
	c.cancel()
}

// ToResponse 以 "<action>|<json>" 回复当前连接
func (c *WebsocketClient) ToResponse(codeObj *code.Code, action string) {
	c.write(encodeFrame(action, NewRes(codeObj)))
}

func (c *WebsocketClient) write(payload []byte) {
	if err := c.conn.WriteMessage(gws.OpcodeText, payload); err != nil {
		c.server.logger.Debug("websocket write failed", zap.Error(err))
	}
}

func encodeFrame(action string, content any) []byte {
	body, _ := sonic.Marshal(content)
	if action == "" {
		return body
	}
	return append([]byte(action+"|"), body...)
}

// ------------------------------------> WebsocketServer

// WebsocketServer dispatches "<Type>|<json>" messages to registered handlers.
// Every connection must authorize first; handlers only run for authorized clients.
type WebsocketServer struct {
	handlers map[string]func(*WebsocketClient, *WebSocketMessage)
	clients  map[*gws.Conn]*WebsocketClient
	mu       sync.RWMutex
	up       *gws.Upgrader
	config   WebsocketServerConfig
	tokens   TokenManager
	logger   *zap.Logger
}

func NewWebsocketServer(c WebsocketServerConfig, tokens TokenManager, logger *zap.Logger) *WebsocketServer {
	if c.PingInterval == 0 {
		c.PingInterval = WebSocketServerPingInterval
	}
	if c.PingWait == 0 {
		c.PingWait = WebSocketServerPingWait
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &WebsocketServer{
		handlers: make(map[string]func(*WebsocketClient, *WebSocketMessage)),
		clients:  make(map[*gws.Conn]*WebsocketClient),
		config:   c,
		tokens:   tokens,
		logger:   logger,
	}
	w.up = gws.NewUpgrader(w, &w.config.GWSOption)
	return w
}

// Run 返回升级连接的 gin 处理器
func (w *WebsocketServer) Run() gin.HandlerFunc {
	return func(c *gin.Context) {
		socket, err := w.up.Upgrade(c.Writer, c.Request)
		if err != nil {
			w.logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}
		ctx, cancel := context.WithCancel(context.Background())
		w.addClient(&WebsocketClient{
			conn:    socket,
			ctx:     ctx,
			cancel:  cancel,
			server:  w,
			Ctx:     c.Copy(),
			TraceID: c.GetString(ContextTraceKey),
		})
		go socket.ReadLoop()
	}
}

// Use 注册消息处理器
func (w *WebsocketServer) Use(action string, handler func(*WebsocketClient, *WebSocketMessage)) {
	w.handlers[action] = handler
}

// ClientCount 已连接数量
func (w *WebsocketServer) ClientCount() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.clients)
}

func (w *WebsocketServer) authorize(c *WebsocketClient, msg *WebSocketMessage) {
	user, err := w.tokens.Parse(strings.TrimSpace(string(msg.Data)))
	if err != nil || user.UID <= 0 {
		w.logger.Info("websocket authorization failed", zap.Error(err))
		c.ToResponse(code.ErrorInvalidUserAuthToken, ActionAuthorization)
		_ = c.conn.WriteClose(1000, []byte("AuthorizationFailed"))
		return
	}
	w.mu.Lock()
	first := c.user == nil
	c.user = user
	w.mu.Unlock()

	c.ToResponse(code.Success, ActionAuthorization)
	if first {
		go c.pingLoop(w.config.PingInterval)
	}
}

func (w *WebsocketServer) getClient(conn *gws.Conn) *WebsocketClient {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.clients[conn]
}

func (w *WebsocketServer) addClient(c *WebsocketClient) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.clients[c.conn] = c
}

func (w *WebsocketServer) removeClient(conn *gws.Conn) *WebsocketClient {
	w.mu.Lock()
	defer w.mu.Unlock()
	c := w.clients[conn]
	delete(w.clients, conn)
	return c
}

func (w *WebsocketServer) OnOpen(conn *gws.Conn) {
	_ = conn.SetDeadline(time.Now().Add(w.config.PingWait))
}

func (w *WebsocketServer) OnClose(conn *gws.Conn, err error) {
	if c := w.removeClient(conn); c != nil {
		c.close()
	}
	w.logger.Debug("websocket client left", zap.Error(err))
}

func (w *WebsocketServer) OnPing(socket *gws.Conn, payload []byte) {
	_ = socket.SetDeadline(time.Now().Add(w.config.PingWait))
	_ = socket.WritePong(nil)
}

func (w *WebsocketServer) OnPong(socket *gws.Conn, payload []byte) {
	_ = socket.SetDeadline(time.Now().Add(w.config.PingWait))
}

func (w *WebsocketServer) OnMessage(conn *gws.Conn, message *gws.Message) {
	defer message.Close()
	if message.Opcode != gws.OpcodeText {
		return
	}
	_ = conn.SetDeadline(time.Now().Add(w.config.PingWait))

	raw := message.Data.String()
	if raw == "close" {
		_ = conn.WriteClose(1000, []byte("ClientClose"))
		return
	}

	c := w.getClient(conn)
	if c == nil {
		return
	}
	msg, ok := ParseWebSocketMessage(raw)
	if !ok {
		c.ToResponse(code.ErrorWebsocketMessage, "")
		return
	}
	if msg.Type == ActionAuthorization {
		w.authorize(c, msg)
		return
	}
	if c.User() == nil {
		c.ToResponse(code.ErrorNotUserAuthToken, msg.Type)
		return
	}
	handler, exists := w.handlers[msg.Type]
	if !exists {
		c.ToResponse(code.ErrorWebsocketMessage, msg.Type)
		return
	}
	handler(c, msg)
}
