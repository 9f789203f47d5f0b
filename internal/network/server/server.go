// Package server 中继服务：按频道广播客户端帧，并把频道日志与在线状态写入 Redis
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"github.com/palemoky/bop/internal/config"
	"github.com/palemoky/bop/internal/network/server/storage"
	"github.com/palemoky/bop/internal/protocol"
	"github.com/palemoky/bop/internal/protocol/codec"
)

// storeTimeout 单次 Redis 写入的超时
const storeTimeout = 2 * time.Second

// Server WebSocket 中继服务器
type Server struct {
	config *config.Config
	redis  *redis.Client
	store  *storage.RedisStore

	channels   map[string]*Channel
	channelsMu sync.RWMutex

	upgrader       websocket.Upgrader
	originChecker  *OriginChecker
	messageLimiter *MessageRateLimiter

	// 连接控制
	maxConnections int
	semaphore      chan struct{} // 信号量控制并发连接数

	httpServer *http.Server
}

// NewServer 连接 Redis 并创建服务器实例
func NewServer(cfg *config.Config) (*Server, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// 测试 Redis 连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis 连接失败: %w", err)
	}

	return New(cfg, rdb), nil
}

// New 使用已有的 Redis 客户端创建服务器
func New(cfg *config.Config, rdb *redis.Client) *Server {
	s := &Server{
		config:         cfg,
		redis:          rdb,
		store:          storage.NewRedisStore(rdb, cfg.Relay.HistoryLimit, cfg.Relay.HistoryTTLDuration()),
		channels:       make(map[string]*Channel),
		originChecker:  NewOriginChecker(cfg.Server.AllowedOrigins),
		messageLimiter: NewMessageRateLimiter(cfg.Server.MessageLimit),
		maxConnections: cfg.Server.MaxConnections,
		semaphore:      make(chan struct{}, cfg.Server.MaxConnections),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		// 来源在升级前已经检查过
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	log.Printf("🔒 中继配置: 帧限制=%d/s, 最大连接数=%d, 频道日志=%d 条",
		cfg.Server.MessageLimit, cfg.Server.MaxConnections, cfg.Relay.HistoryLimit)
	return s
}

// Handler 返回中继的 HTTP 路由
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/history", s.handleHistory)
	mux.HandleFunc("/presence", s.handlePresence)
	return mux
}

// Start 启动服务器，阻塞直到关闭
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)

	go s.monitorStats()

	log.Printf("🚀 中继启动在 ws://%s/ws (CPU核心数: %d)", addr, runtime.NumCPU())
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second, // 防止 Slowloris 攻击
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// handleWebSocket 处理 /ws?channel=<频道>&user=<用户>
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	clientIP := GetClientIP(r)

	channel := r.URL.Query().Get("channel")
	userID := r.URL.Query().Get("user")
	if channel == "" || userID == "" {
		http.Error(w, "channel and user are required", http.StatusBadRequest)
		return
	}

	// 连接数限制检查
	select {
	case s.semaphore <- struct{}{}:
	default:
		log.Printf("🚫 达到最大连接数限制 (%d), IP: %s", s.maxConnections, clientIP)
		http.Error(w, "Server Full", http.StatusServiceUnavailable)
		return
	}

	if !s.originChecker.Check(r) {
		<-s.semaphore
		log.Printf("🚫 来源验证失败: %s (IP: %s)", r.Header.Get("Origin"), clientIP)
		http.Error(w, "Origin not allowed", http.StatusForbidden)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		<-s.semaphore
		log.Printf("WebSocket 升级失败: %v", err)
		return
	}

	client := NewClient(s, conn, channel, userID)
	client.IP = clientIP
	s.join(client)

	log.Printf("✅ 用户 %s 加入频道 %s (IP: %s)", userID, channel, clientIP)

	go client.WritePump()
	go func() {
		// 连接关闭后释放信号量
		defer func() { <-s.semaphore }()
		client.ReadPump()
	}()
}

// handleHealth 健康检查接口
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// historyEvent /history 返回的单条事件
type historyEvent struct {
	Kind      string `json:"kind"`
	Sender    string `json:"sender"`
	Payload   []byte `json:"payload,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// handleHistory 返回频道日志，便于排查不同步
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	channel := r.URL.Query().Get("channel")
	if channel == "" {
		http.Error(w, "channel is required", http.StatusBadRequest)
		return
	}

	frames, err := s.store.History(r.Context(), channel)
	if err != nil {
		log.Printf("读取频道 %s 日志失败: %v", channel, err)
		http.Error(w, "history unavailable", http.StatusInternalServerError)
		return
	}

	events := make([]historyEvent, 0, len(frames))
	var ev protocol.ChannelEvent
	for _, frame := range frames {
		if err := codec.DecodeEvent(frame, &ev); err != nil {
			continue
		}
		events = append(events, historyEvent{
			Kind:      ev.Kind.String(),
			Sender:    ev.Sender,
			Payload:   ev.Payload,
			Timestamp: ev.Timestamp,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(events)
}

// presenceEntry /presence 返回的单个成员
type presenceEntry struct {
	UserID         string `json:"user_id"`
	Online         bool   `json:"online"`
	ConnectedAt    int64  `json:"connected_at"`
	DisconnectedAt int64  `json:"disconnected_at,omitempty"`
}

// handlePresence 返回频道成员及其在线状态
func (s *Server) handlePresence(w http.ResponseWriter, r *http.Request) {
	channel := r.URL.Query().Get("channel")
	if channel == "" {
		http.Error(w, "channel is required", http.StatusBadRequest)
		return
	}

	members, err := s.store.Members(r.Context(), channel)
	if err != nil {
		log.Printf("读取频道 %s 成员失败: %v", channel, err)
		http.Error(w, "presence unavailable", http.StatusInternalServerError)
		return
	}

	entries := make([]presenceEntry, 0, len(members))
	for _, userID := range members {
		p, err := s.store.LoadSession(r.Context(), userID)
		if err != nil || p == nil {
			entries = append(entries, presenceEntry{UserID: userID})
			continue
		}
		entry := presenceEntry{UserID: userID, Online: p.Online, ConnectedAt: p.ConnectedAt.Unix()}
		if !p.DisconnectedAt.IsZero() {
			entry.DisconnectedAt = p.DisconnectedAt.Unix()
		}
		entries = append(entries, entry)
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(entries)
}

// monitorStats 定期监控服务器状态
func (s *Server) monitorStats() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		s.channelsMu.RLock()
		channels := len(s.channels)
		s.channelsMu.RUnlock()

		log.Printf("📊 [监控] 频道: %d | Goroutines: %d | 活跃连接: %d/%d | 内存: %.2f MB",
			channels,
			runtime.NumGoroutine(),
			len(s.semaphore),
			s.maxConnections,
			float64(m.Alloc)/1024/1024)
	}
}

// Shutdown 关闭所有连接与 Redis
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}

	s.channelsMu.RLock()
	for _, ch := range s.channels {
		ch.closeAll()
	}
	s.channelsMu.RUnlock()

	if cerr := s.redis.Close(); cerr != nil && err == nil {
		err = cerr
	}
	log.Println("服务器已关闭")
	return err
}
