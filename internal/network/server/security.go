package server

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// --- 来源验证 ---

// OriginChecker 来源验证器
type OriginChecker struct {
	allowedOrigins map[string]bool
	allowAll       bool
}

// NewOriginChecker 创建来源验证器，列表为空或包含 "*" 时允许所有来源
func NewOriginChecker(origins []string) *OriginChecker {
	oc := &OriginChecker{
		allowedOrigins: make(map[string]bool),
		allowAll:       len(origins) == 0,
	}

	for _, origin := range origins {
		if origin == "*" {
			oc.allowAll = true
			return oc
		}
		oc.allowedOrigins[strings.ToLower(origin)] = true
	}

	return oc
}

// Check 检查来源是否允许
func (oc *OriginChecker) Check(r *http.Request) bool {
	if oc.allowAll {
		return true
	}

	origin := r.Header.Get("Origin")
	if origin == "" {
		// 终端客户端不带 Origin
		return true
	}

	return oc.allowedOrigins[strings.ToLower(origin)]
}

// GetClientIP 获取客户端真实 IP
func GetClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		// 取第一个 IP（最原始的客户端）
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}

	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// --- 帧速率限制 ---

// MessageRateLimiter 每个连接每秒转发的帧数上限
type MessageRateLimiter struct {
	limits map[string]*messageRate
	mu     sync.Mutex

	maxMessagesPerSecond int
	now                  func() time.Time
}

type messageRate struct {
	count     int
	lastReset time.Time
	warnings  int // 超限次数
}

// NewMessageRateLimiter 创建帧速率限制器
func NewMessageRateLimiter(maxPerSecond int) *MessageRateLimiter {
	return &MessageRateLimiter{
		limits:               make(map[string]*messageRate),
		maxMessagesPerSecond: maxPerSecond,
		now:                  time.Now,
	}
}

// AllowMessage 检查是否允许转发这一帧
func (ml *MessageRateLimiter) AllowMessage(connID string) bool {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	now := ml.now()
	rate, exists := ml.limits[connID]
	if !exists {
		ml.limits[connID] = &messageRate{count: 1, lastReset: now}
		return true
	}

	if now.Sub(rate.lastReset) >= time.Second {
		rate.count = 1
		rate.lastReset = now
		return true
	}

	rate.count++
	if rate.count > ml.maxMessagesPerSecond {
		rate.warnings++
		return false
	}
	return true
}

// GetWarningCount 获取超限次数
func (ml *MessageRateLimiter) GetWarningCount(connID string) int {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	if rate, ok := ml.limits[connID]; ok {
		return rate.warnings
	}
	return 0
}

// RemoveClient 移除连接记录
func (ml *MessageRateLimiter) RemoveClient(connID string) {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	delete(ml.limits, connID)
}
