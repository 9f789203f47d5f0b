package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/palemoky/bop/internal/protocol"
)

// EventSender 直接发送频道事件（匹配握手不是对局消息）
type EventSender interface {
	SendEvent(ev *protocol.ChannelEvent) error
}

// Match 匹配结果
type Match struct {
	Channel      string
	OwnIndex     int
	Host         bool
	OpponentID   string
	OpponentName string
}

type matchResponse struct {
	Channel   string `json:"channel"`
	HostID    string `json:"host_id"`
	HostName  string `json:"host_name"`
	GuestID   string `json:"guest_id"`
	GuestName string `json:"guest_name"`
}

// Matcher 大厅频道中的两人握手
// 双方都看到对方请求时，用户标识较小的一方成为房主并分配对局频道
type Matcher struct {
	userID string
	name   string
	out    EventSender

	mu       sync.Mutex
	repeated map[string]bool
	match    *Match
	done     chan struct{}
}

// NewMatcher 创建匹配器
func NewMatcher(userID, name string, out EventSender) *Matcher {
	return &Matcher{
		userID:   userID,
		name:     name,
		out:      out,
		repeated: make(map[string]bool),
		done:     make(chan struct{}),
	}
}

// Request 在大厅广播匹配请求
func (m *Matcher) Request() error {
	return m.out.SendEvent(&protocol.ChannelEvent{
		Kind:    protocol.EventMatchRequest,
		Sender:  m.userID,
		Payload: []byte(m.name),
	})
}

// HandleEvent 处理大厅事件，实现 EventHandler
func (m *Matcher) HandleEvent(ev *protocol.ChannelEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.match != nil || ev.Sender == m.userID {
		return nil
	}

	switch ev.Kind {
	case protocol.EventMatchRequest:
		if m.userID < ev.Sender {
			return m.answer(ev.Sender, string(ev.Payload))
		}
		// 对方可能没看到我们的请求
		if !m.repeated[ev.Sender] {
			m.repeated[ev.Sender] = true
			return m.Request()
		}
	case protocol.EventMatchResponse:
		var resp matchResponse
		if err := json.Unmarshal(ev.Payload, &resp); err != nil {
			return fmt.Errorf("parse match response: %w", err)
		}
		if resp.GuestID != m.userID {
			return nil
		}
		m.finish(Match{
			Channel:      resp.Channel,
			OwnIndex:     1,
			OpponentID:   resp.HostID,
			OpponentName: resp.HostName,
		})
	}
	return nil
}

func (m *Matcher) answer(guestID, guestName string) error {
	resp := matchResponse{
		Channel:   "bop-" + uuid.NewString(),
		HostID:    m.userID,
		HostName:  m.name,
		GuestID:   guestID,
		GuestName: guestName,
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	if err := m.out.SendEvent(&protocol.ChannelEvent{
		Kind:    protocol.EventMatchResponse,
		Sender:  m.userID,
		Payload: data,
	}); err != nil {
		return err
	}
	m.finish(Match{
		Channel:      resp.Channel,
		OwnIndex:     0,
		Host:         true,
		OpponentID:   guestID,
		OpponentName: guestName,
	})
	return nil
}

func (m *Matcher) finish(match Match) {
	m.match = &match
	close(m.done)
}

// Wait 阻塞直到匹配成功或 ctx 结束
func (m *Matcher) Wait(ctx context.Context) (Match, error) {
	select {
	case <-m.done:
		m.mu.Lock()
		defer m.mu.Unlock()
		return *m.match, nil
	case <-ctx.Done():
		return Match{}, ctx.Err()
	}
}
