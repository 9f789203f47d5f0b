//go:build !production

package testutil

import (
	"sync"

	"github.com/palemoky/bop/internal/protocol"
)

// Handler 接收频道事件的一端
type Handler interface {
	HandleEvent(ev *protocol.ChannelEvent) error
}

// Hub 内存中的单频道中继：广播给所有成员，包括发送者
// SendEvent 只排队，Flush 时按顺序投递，投递中产生的新事件排在队尾
type Hub struct {
	mu      sync.Mutex
	members []Handler
	offline map[Handler]bool
	queue   []*protocol.ChannelEvent
}

// Add 加入成员
func (h *Hub) Add(member Handler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.members = append(h.members, member)
}

// SetOnline 离线成员收不到广播，恢复在线时广播加入事件
func (h *Hub) SetOnline(member Handler, sender string, online bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.offline == nil {
		h.offline = make(map[Handler]bool)
	}
	h.offline[member] = !online
	kind := protocol.EventLeft
	if online {
		kind = protocol.EventJoin
	}
	h.queue = append(h.queue, &protocol.ChannelEvent{Kind: kind, Sender: sender})
}

// SendEvent 排队等待广播
func (h *Hub) SendEvent(ev *protocol.ChannelEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.queue = append(h.queue, ev)
	return nil
}

// Flush 投递直到队列为空，返回投递的事件数
func (h *Hub) Flush() int {
	n := 0
	for {
		h.mu.Lock()
		if len(h.queue) == 0 {
			h.mu.Unlock()
			return n
		}
		next := h.queue[0]
		h.queue = h.queue[1:]
		var members []Handler
		for _, m := range h.members {
			if !h.offline[m] {
				members = append(members, m)
			}
		}
		h.mu.Unlock()

		for _, m := range members {
			_ = m.HandleEvent(next)
		}
		n++
	}
}

// Outbound 以 sender 身份把对局消息发到 Hub
func (h *Hub) Outbound(sender string) *HubOutbound {
	return &HubOutbound{hub: h, sender: sender}
}

// HubOutbound 实现出站队列接口
type HubOutbound struct {
	hub    *Hub
	sender string
}

func (o *HubOutbound) EnqueueOutbound(data []byte) error {
	return o.hub.SendEvent(&protocol.ChannelEvent{
		Kind:    protocol.EventMessage,
		Sender:  o.sender,
		Payload: data,
	})
}
