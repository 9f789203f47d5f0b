package server

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/palemoky/bop/internal/protocol"
	"github.com/palemoky/bop/internal/protocol/codec"
)

const (
	// 写入超时
	writeWait = 10 * time.Second

	// 读取超时（pong 等待时间）
	pongWait = 60 * time.Second

	// ping 发送间隔（必须小于 pongWait）
	pingPeriod = (pongWait * 9) / 10

	// 帧最大大小
	maxMessageSize = 8192

	// 超限次数达到后断开
	maxRateWarnings = 5
)

// Client 一条中继连接，同一用户重连时会有多条
type Client struct {
	ID      string // 连接 ID
	UserID  string // 用户标识，由客户端在握手时给出
	Channel string // 所在频道
	IP      string // 客户端 IP 地址

	server *Server
	conn   *websocket.Conn
	send   chan []byte

	mu     sync.RWMutex
	closed bool
}

// NewClient 创建连接
func NewClient(s *Server, conn *websocket.Conn, channel, userID string) *Client {
	return &Client{
		ID:      uuid.NewString(),
		UserID:  userID,
		Channel: channel,
		server:  s,
		conn:    conn,
		send:    make(chan []byte, 256),
	}
}

// ReadPump 读取客户端帧并转发到频道
func (c *Client) ReadPump() {
	defer func() {
		c.server.leave(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("读取错误: %v", err)
			}
			return
		}

		if !c.server.messageLimiter.AllowMessage(c.ID) {
			if c.server.messageLimiter.GetWarningCount(c.ID) > maxRateWarnings {
				log.Printf("🚫 用户 %s (IP: %s) 因多次超速被断开连接", c.UserID, c.IP)
				return
			}
			log.Printf("⚠️ 用户 %s (IP: %s) 发送过于频繁，丢弃一帧", c.UserID, c.IP)
			continue
		}

		if err := c.forward(data); err != nil {
			log.Printf("帧解析错误 (%s): %v", c.UserID, err)
		}
	}
}

// forward 盖上发送者与时间戳后广播
func (c *Client) forward(data []byte) error {
	ev := codec.GetEvent()
	defer codec.PutEvent(ev)

	if err := codec.DecodeEvent(data, ev); err != nil {
		return err
	}
	switch ev.Kind {
	case protocol.EventMessage, protocol.EventMatchRequest, protocol.EventMatchResponse:
	default:
		// 加入、离开事件只能由服务端产生
		return nil
	}

	ev.Sender = c.UserID
	ev.Timestamp = time.Now().UnixMilli()
	return c.server.publish(c.Channel, ev)
}

// WritePump 向 WebSocket 写入帧
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// 通道已关闭
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendFrame 发送一帧给客户端
func (c *Client) SendFrame(frame []byte) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}

	select {
	case c.send <- frame:
	default:
		// 发送缓冲区已满，断开后由客户端重连补发
		log.Printf("用户 %s 发送缓冲区已满", c.UserID)
		go c.Close()
	}
}

// Close 关闭客户端连接
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		c.closed = true
		close(c.send)
	}
}
