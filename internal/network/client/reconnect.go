package client

import (
	"log"
	"time"

	"github.com/palemoky/bop/internal/logger"
)

// tryReconnect 指数退避重连，成功后服务端会广播加入事件
func (c *Client) tryReconnect() {
	defer func() {
		if r := recover(); r != nil {
			logger.LogPanic(r)
			log.Printf("[PANIC] tryReconnect panic recovered: %v", r)
			c.reconnecting.Store(false)
		}
	}()

	if !c.reconnecting.CompareAndSwap(false, true) {
		return
	}

	c.mu.Lock()
	backoff := c.backoff
	c.mu.Unlock()

	for attempt := 1; attempt <= maxReconnectAttempts; attempt++ {
		c.mu.Lock()
		c.reconnectCount = attempt
		c.mu.Unlock()

		// 通过回调通知 UI 正在重连
		if c.OnReconnecting != nil {
			c.OnReconnecting(attempt, maxReconnectAttempts)
		}

		select {
		case <-time.After(backoff):
		case <-c.done:
			c.reconnecting.Store(false)
			return
		}

		backoff *= 2
		if backoff > maxReconnectInterval {
			backoff = maxReconnectInterval
		}

		conn, err := c.dial()
		if err != nil {
			log.Printf("重连失败 (%d/%d): %v", attempt, maxReconnectAttempts, err)
			continue
		}

		c.mu.Lock()
		closed := c.closed
		c.reconnectCount = 0
		c.mu.Unlock()
		if closed {
			_ = conn.Close()
			c.reconnecting.Store(false)
			return
		}

		c.reconnecting.Store(false)
		c.start(conn)
		log.Printf("✅ 重连成功")
		if c.OnReconnect != nil {
			c.OnReconnect()
		}
		return
	}

	// 重连失败
	log.Printf("❌ 重连失败，已达最大尝试次数")
	c.reconnecting.Store(false)
	c.Close()
	if c.OnClose != nil {
		c.OnClose()
	}
}
