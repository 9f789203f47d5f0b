// Package client 中继的 WebSocket 客户端：收发频道帧，断线后指数退避重连
package client

import (
	"errors"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/palemoky/bop/internal/protocol"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// 心跳检测间隔
	heartbeatInterval = 5 * time.Second
	// 最大重连次数
	maxReconnectAttempts = 5
	// 首次重连间隔
	reconnectInterval = 2 * time.Second
	// 重连间隔上限
	maxReconnectInterval = 30 * time.Second
)

var (
	ErrClosed     = errors.New("connection closed")
	ErrBufferFull = errors.New("send buffer full")
)

// EventHandler 接收中继投递的频道事件
type EventHandler interface {
	HandleEvent(ev *protocol.ChannelEvent) error
}

// Client WebSocket 客户端
// 发送队列跨重连保留，重连期间入队的帧在新连接上按序发出
type Client struct {
	ServerURL string // ws://host:port/ws
	Channel   string
	UserID    string

	// 网络延迟（毫秒）
	latency atomic.Int64

	// 回调
	OnError        func(error)              // 错误回调
	OnClose        func()                   // 关闭回调
	OnReconnecting func(attempt, limit int) // 重连中回调
	OnReconnect    func()                   // 重连成功回调
	OnLatency      func(int64)              // 延迟更新回调

	handler EventHandler
	send    chan []byte
	done    chan struct{}

	mu             sync.RWMutex
	conn           *websocket.Conn
	retry          []byte // 写失败的帧，在下一条连接上优先发送
	closed         bool
	reconnecting   atomic.Bool
	reconnectCount int
	backoff        time.Duration
	pingSentAt     atomic.Int64
}

// NewClient 创建客户端，事件交给 handler 处理
func NewClient(serverURL, channel, userID string, handler EventHandler) *Client {
	return &Client{
		ServerURL: serverURL,
		Channel:   channel,
		UserID:    userID,
		handler:   handler,
		send:      make(chan []byte, 256),
		done:      make(chan struct{}),
		backoff:   reconnectInterval,
	}
}

// URL 带频道与用户参数的连接地址
func (c *Client) URL() (string, error) {
	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return "", fmt.Errorf("invalid server url: %w", err)
	}
	q := u.Query()
	q.Set("channel", c.Channel)
	q.Set("user", c.UserID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Connect 连接服务器
func (c *Client) Connect() error {
	conn, err := c.dial()
	if err != nil {
		return err
	}
	c.start(conn)
	return nil
}

func (c *Client) dial() (*websocket.Conn, error) {
	addr, err := c.URL()
	if err != nil {
		return nil, err
	}
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	conn, _, err := dialer.Dial(addr, nil)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// start 为一条新连接启动读写协程
func (c *Client) start(conn *websocket.Conn) {
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	connDone := make(chan struct{})
	go c.readPump(conn, connDone)
	go c.writePump(conn, connDone)
}

// Close 关闭连接，不再重连
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.done)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	}
}

// IsConnected 是否已连接
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.closed && c.conn != nil && !c.reconnecting.Load()
}

// IsReconnecting 是否正在重连
func (c *Client) IsReconnecting() bool {
	return c.reconnecting.Load()
}

// GetLatency 获取当前延迟（毫秒）
func (c *Client) GetLatency() int64 {
	return c.latency.Load()
}

// Done 在客户端关闭后关闭
func (c *Client) Done() <-chan struct{} {
	return c.done
}
