package client

import (
	"time"

	"github.com/gorilla/websocket"

	"github.com/palemoky/bop/internal/protocol"
	"github.com/palemoky/bop/internal/protocol/codec"
)

// EnqueueOutbound 把一条编码后的对局消息放入发送队列
func (c *Client) EnqueueOutbound(data []byte) error {
	return c.SendEvent(&protocol.ChannelEvent{
		Kind:    protocol.EventMessage,
		Payload: data,
	})
}

// SendEvent 发送一条频道事件，发送者由服务端填写
func (c *Client) SendEvent(ev *protocol.ChannelEvent) error {
	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return ErrClosed
	}

	frame, err := codec.EncodeEvent(ev)
	if err != nil {
		return err
	}

	select {
	case c.send <- frame:
		return nil
	default:
		return ErrBufferFull
	}
}

// Ping 立即发送一次 ping，pong 到达时更新延迟
func (c *Client) Ping() error {
	c.mu.RLock()
	conn := c.conn
	closed := c.closed
	c.mu.RUnlock()
	if closed || conn == nil {
		return ErrClosed
	}

	c.pingSentAt.Store(time.Now().UnixMilli())
	// WriteControl 可以与 writePump 并发调用
	return conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// StartHeartbeat 有用户交互时发送心跳，take 返回并清除交互标记
func (c *Client) StartHeartbeat(take func() bool) {
	go func() {
		ticker := time.NewTicker(heartbeatInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if take() && c.IsConnected() {
					_ = c.Ping()
				}
			case <-c.done:
				return
			}
		}
	}()
}
