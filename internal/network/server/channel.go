package server

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/palemoky/bop/internal/network/server/storage"
	"github.com/palemoky/bop/internal/protocol"
	"github.com/palemoky/bop/internal/protocol/codec"
)

// Channel 一个中继频道
// 广播在 mu 下完成，所有成员看到的帧顺序一致
type Channel struct {
	Name string

	mu      sync.Mutex
	members map[string]*Client // 连接 ID -> 连接
}

func newChannel(name string) *Channel {
	return &Channel{Name: name, members: make(map[string]*Client)}
}

// hasUser 频道中是否还有该用户的其他连接
func (ch *Channel) hasUser(userID string) bool {
	for _, c := range ch.members {
		if c.UserID == userID {
			return true
		}
	}
	return false
}

// broadcastLocked 发给所有成员，包括发送者
func (ch *Channel) broadcastLocked(frame []byte) {
	for _, c := range ch.members {
		c.SendFrame(frame)
	}
}

func (ch *Channel) closeAll() {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	for _, c := range ch.members {
		c.Close()
	}
}

// MemberCount 当前连接数
func (ch *Channel) MemberCount() int {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return len(ch.members)
}

// GetChannel 获取已存在的频道
func (s *Server) GetChannel(name string) *Channel {
	s.channelsMu.RLock()
	defer s.channelsMu.RUnlock()
	return s.channels[name]
}

// join 注册连接并广播加入事件
func (s *Server) join(c *Client) {
	// 先锁频道表，避免与 dropChannelIfEmpty 交错
	s.channelsMu.Lock()
	ch, ok := s.channels[c.Channel]
	if !ok {
		ch = newChannel(c.Channel)
		s.channels[c.Channel] = ch
	}
	ch.mu.Lock()
	ch.members[c.ID] = c
	s.channelsMu.Unlock()
	defer ch.mu.Unlock()

	now := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := s.store.AddMember(ctx, c.Channel, c.UserID); err != nil {
		log.Printf("记录频道成员失败: %v", err)
	}
	if err := s.store.SaveSession(ctx, &storage.Presence{
		UserID:      c.UserID,
		Channel:     c.Channel,
		Online:      true,
		ConnectedAt: now,
	}); err != nil {
		log.Printf("保存会话失败: %v", err)
	}

	s.broadcastLocked(ch, &protocol.ChannelEvent{
		Kind:      protocol.EventJoin,
		Sender:    c.UserID,
		Timestamp: now.UnixMilli(),
	})
}

// leave 注销连接并广播离开事件
func (s *Server) leave(c *Client) {
	s.messageLimiter.RemoveClient(c.ID)
	c.Close()

	ch := s.GetChannel(c.Channel)
	if ch == nil {
		return
	}
	now := time.Now()

	ch.mu.Lock()
	if _, ok := ch.members[c.ID]; !ok {
		ch.mu.Unlock()
		return
	}
	delete(ch.members, c.ID)

	// 同一用户已经重连时不算离开
	if !ch.hasUser(c.UserID) {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		if err := s.store.RemoveMember(ctx, c.Channel, c.UserID); err != nil {
			log.Printf("移除频道成员失败: %v", err)
		}
		if err := s.store.SetOffline(ctx, c.UserID, now); err != nil {
			log.Printf("更新会话失败: %v", err)
		}
		cancel()

		s.broadcastLocked(ch, &protocol.ChannelEvent{
			Kind:      protocol.EventLeft,
			Sender:    c.UserID,
			Timestamp: now.UnixMilli(),
		})
		log.Printf("❌ 用户 %s 离开频道 %s", c.UserID, c.Channel)
	}
	empty := len(ch.members) == 0
	ch.mu.Unlock()

	if empty {
		s.dropChannelIfEmpty(ch)
	}
}

func (s *Server) dropChannelIfEmpty(ch *Channel) {
	s.channelsMu.Lock()
	defer s.channelsMu.Unlock()
	if s.channels[ch.Name] == ch && ch.MemberCount() == 0 {
		delete(s.channels, ch.Name)
	}
}

// publish 记录并广播一条客户端帧
func (s *Server) publish(name string, ev *protocol.ChannelEvent) error {
	ch := s.GetChannel(name)
	if ch == nil {
		return nil
	}
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return s.broadcastLocked(ch, ev)
}

// broadcastLocked 编码、写入频道日志并广播，调用方持有 ch.mu
func (s *Server) broadcastLocked(ch *Channel, ev *protocol.ChannelEvent) error {
	frame, err := codec.EncodeEvent(ev)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()
	if err := s.store.AppendEvent(ctx, ch.Name, frame); err != nil {
		// 日志只用于排查，写入失败不影响转发
		log.Printf("写入频道 %s 日志失败: %v", ch.Name, err)
	}

	ch.broadcastLocked(frame)
	return nil
}
