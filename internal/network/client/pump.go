package client

import (
	"log"
	"time"

	"github.com/gorilla/websocket"

	"github.com/palemoky/bop/internal/logger"
	"github.com/palemoky/bop/internal/protocol/codec"
)

// readPump 从服务器读取帧并交给 handler
func (c *Client) readPump(conn *websocket.Conn, connDone chan struct{}) {
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
			log.Printf("[PANIC] readPump panic recovered: %v", r)
		}
		close(connDone)
		_ = conn.Close()

		select {
		case <-c.done:
			if c.OnClose != nil {
				c.OnClose()
			}
		default:
			go c.tryReconnect()
		}
	}()

	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		if sent := c.pingSentAt.Swap(0); sent != 0 {
			latency := time.Now().UnixMilli() - sent
			c.latency.Store(latency)
			if c.OnLatency != nil {
				c.OnLatency(latency)
			}
		}
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				if c.OnError != nil {
					c.OnError(err)
				}
			}
			return
		}
		c.deliver(frame)
	}
}

func (c *Client) deliver(frame []byte) {
	ev := codec.GetEvent()
	defer codec.PutEvent(ev)

	if err := codec.DecodeEvent(frame, ev); err != nil {
		log.Printf("帧解析错误: %v", err)
		return
	}
	if c.handler == nil {
		return
	}
	if err := c.handler.HandleEvent(ev); err != nil {
		logger.LogError(err)
		if c.OnError != nil {
			c.OnError(err)
		}
	}
}

// writePump 向服务器写入帧，连接断开时退出
func (c *Client) writePump(conn *websocket.Conn, connDone chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
			log.Printf("[PANIC] writePump panic recovered: %v", r)
		}
		ticker.Stop()
		_ = conn.Close()
	}()

	// 上一条连接没写出去的帧
	c.mu.Lock()
	pending := c.retry
	c.retry = nil
	c.mu.Unlock()
	if pending != nil && !c.write(conn, pending) {
		return
	}

	for {
		select {
		case frame := <-c.send:
			if !c.write(conn, frame) {
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-connDone:
			return

		case <-c.done:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// write 写一帧，失败时留给下一条连接
func (c *Client) write(conn *websocket.Conn, frame []byte) bool {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		c.mu.Lock()
		c.retry = frame
		c.mu.Unlock()
		_ = conn.Close()
		return false
	}
	return true
}
